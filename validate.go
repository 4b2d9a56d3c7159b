package drip

import "fmt"

// Validate checks the wire constraints the endpoint enforces on an
// activity. The engine always materializes valid activities; transports
// call this to reject hand-built ones before posting.
func (a *Activity) Validate() error {
	if a.Type != ActivityTyping && a.Type != ActivityMessage {
		return fmt.Errorf("unknown activity type %q: %w", a.Type, ErrValidation)
	}
	if len(a.Attachments) > 0 && a.Type != ActivityMessage {
		return fmt.Errorf("attachments require a message activity: %w", ErrValidation)
	}
	cd := a.ChannelData
	if cd == nil {
		// Plain activities carry no stream metadata.
		return nil
	}

	switch cd.StreamType {
	case StreamInformative, StreamStreaming:
		if a.Type != ActivityTyping {
			return fmt.Errorf("%s update must be a typing activity: %w", cd.StreamType, ErrValidation)
		}
		if cd.StreamSequence < 1 {
			return fmt.Errorf("%s update requires a sequence number: %w", cd.StreamType, ErrValidation)
		}
		if cd.StreamType == StreamInformative && a.Text == "" {
			return fmt.Errorf("informative update requires text: %w", ErrValidation)
		}
		if cd.FeedbackLoopEnabled || cd.FeedbackLoop != nil {
			return fmt.Errorf("feedback is only valid on the final message: %w", ErrValidation)
		}

	case StreamFinal:
		if a.Type != ActivityMessage {
			return fmt.Errorf("final update must be a message activity: %w", ErrValidation)
		}
		if cd.StreamSequence != 0 {
			return fmt.Errorf("final message must not carry a sequence number: %w", ErrValidation)
		}
		if cd.FeedbackLoopEnabled && cd.FeedbackLoop != nil {
			return fmt.Errorf("feedbackLoopEnabled and feedbackLoop are mutually exclusive: %w", ErrValidation)
		}

	default:
		return fmt.Errorf("unknown stream type %q: %w", cd.StreamType, ErrValidation)
	}
	return nil
}
