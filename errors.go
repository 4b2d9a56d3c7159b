package drip

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates an update or configuration failed validation.
	ErrValidation = errors.New("validation error")

	// ErrStreamEnded indicates an operation on a stream whose final message
	// was already queued. Ending a stream twice returns it too.
	ErrStreamEnded = errors.New("stream already ended")

	// ErrDelivery indicates the sender failed to deliver an update. The
	// underlying transport error is wrapped alongside it. Once delivery
	// fails the remaining backlog is discarded and the stream is unusable.
	ErrDelivery = errors.New("delivery failed")
)
