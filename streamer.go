package drip

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultMinSendInterval is the minimum spacing between consecutive sends.
// Conversation endpoints throttle rapid updates; 1.5s is the rate Teams
// tolerates for streamed messages.
const DefaultMinSendInterval = 1500 * time.Millisecond

// job describes one queued update. Informative jobs capture their text and
// sequence at enqueue time. Streaming jobs carry no payload: they read
// engine state when dequeued, so a flush queued before End materializes as
// the final message.
type job struct {
	kind StreamType
	text string // informative only
	seq  int    // informative only
}

// Streamer serializes outgoing updates for one streaming exchange. The
// expected call sequence is QueueInformativeUpdate, QueueTextChunk (any
// number of times), then End. Once End is called the stream is closed and
// no further updates can be queued.
//
// All methods are safe for concurrent use. Queue methods never block on the
// network: a background drain goroutine delivers updates strictly in order,
// one at a time, pacing sends at the configured minimum interval. Delivery
// continues until the backlog is empty or a send fails; End blocks until
// the drain completes.
type Streamer struct {
	sender  Sender
	limiter *rate.Limiter

	format  func(string) string
	used    func(string, []ClientCitation) []ClientCitation
	excerpt func(string, int) string

	mu           sync.Mutex
	queue        []job
	done         chan struct{} // non-nil while a drain is active; closed when it finishes
	err          error         // sticky delivery failure
	streamID     string
	nextSequence int
	text         string
	ended        bool
	pendingFlush bool
	citations    []ClientCitation
	attachments  []Attachment
	sensitivity  *SensitivityLabel
	feedback     bool
	feedbackKind FeedbackKind
	aiLabel      bool
}

// Option configures a [Streamer].
type Option func(*Streamer)

// WithMinSendInterval sets the minimum spacing between consecutive sends.
// Zero or negative disables pacing. Default is [DefaultMinSendInterval].
func WithMinSendInterval(d time.Duration) Option {
	return func(s *Streamer) {
		if d <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithMarkerFormat overrides the citation-marker normalization applied to
// the accumulated text. Default is [FormatCitationMarkers].
func WithMarkerFormat(f func(text string) string) Option {
	return func(s *Streamer) { s.format = f }
}

// WithCitationFilter overrides the filter selecting which citations a
// non-final update carries. Default is [UsedCitations].
func WithCitationFilter(f func(text string, citations []ClientCitation) []ClientCitation) Option {
	return func(s *Streamer) { s.used = f }
}

// WithExcerpt overrides the excerpt derivation for citation abstracts.
// Default is [Snippet].
func WithExcerpt(f func(content string, maxLen int) string) Option {
	return func(s *Streamer) { s.excerpt = f }
}

// New creates a [Streamer] that delivers updates for one exchange through
// sender.
func New(sender Sender, opts ...Option) *Streamer {
	s := &Streamer{
		sender:       sender,
		limiter:      rate.NewLimiter(rate.Every(DefaultMinSendInterval), 1),
		format:       FormatCitationMarkers,
		used:         UsedCitations,
		excerpt:      Snippet,
		nextSequence: 1,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// StreamID returns the endpoint-assigned stream identifier, or "" before
// the first successful send.
func (s *Streamer) StreamID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamID
}

// Text returns the message text accumulated so far.
func (s *Streamer) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Ended reports whether End has been called. Once true it never reverts,
// even when End's wait was abandoned on a cancelled context.
func (s *Streamer) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// Citations returns a copy of the citation records registered so far.
func (s *Streamer) Citations() []ClientCitation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ClientCitation(nil), s.citations...)
}

// UpdatesSent returns the number of sequence numbers assigned so far, which
// is the count of non-final updates queued or sent.
func (s *Streamer) UpdatesSent() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextSequence - 1
}

// SetAttachments sets the attachments delivered with the final message.
func (s *Streamer) SetAttachments(attachments []Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachments = attachments
}

// SetFeedbackLoop enables the feedback buttons on the final message.
func (s *Streamer) SetFeedbackLoop(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback = enabled
}

// SetFeedbackLoopType selects the feedback UX on the final message. It is
// ignored when SetFeedbackLoop(true) was called; the two are mutually
// exclusive on the wire.
func (s *Streamer) SetFeedbackLoopType(kind FeedbackKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedbackKind = kind
}

// SetSensitivityLabel sets the sensitivity label attached to the final
// message when the AI-generated label is enabled.
func (s *Streamer) SetSensitivityLabel(label *SensitivityLabel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sensitivity = label
}

// SetGeneratedByAILabel toggles the AI-generated content label on the
// final message.
func (s *Streamer) SetGeneratedByAILabel(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aiLabel = enabled
}

// AddCitations registers source citations for the accumulated message. Each
// citation is assigned the next 1-based position; positions are stable once
// assigned. The title (defaulting to "Document N") and an excerpt of the
// source content become the citation's rendered appearance. No-op on empty
// input.
func (s *Streamer) AddCitations(citations ...Citation) {
	if len(citations) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addCitationsLocked(citations)
}

func (s *Streamer) addCitationsLocked(citations []Citation) {
	for _, c := range citations {
		position := len(s.citations) + 1
		name := c.Title
		if name == "" {
			name = fmt.Sprintf("Document %d", position)
		}
		s.citations = append(s.citations, ClientCitation{
			AtType:   atTypeClaim,
			Position: position,
			Appearance: Appearance{
				AtType:   atTypeDocument,
				Name:     name,
				Abstract: s.excerpt(c.Content, citationAbstractMax),
				URL:      c.URL,
			},
		})
	}
}

// QueueInformativeUpdate queues a one-off progress update, such as
// "Searching the docs...". Informative updates are delivered individually,
// in queue order, and are never merged with message chunks.
func (s *Streamer) QueueInformativeUpdate(text string) error {
	if text == "" {
		return fmt.Errorf("drip: informative update requires text: %w", ErrValidation)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return err
	}
	s.enqueueLocked(job{kind: StreamInformative, text: text, seq: s.nextSequence})
	s.nextSequence++
	return nil
}

// QueueTextChunk appends a chunk of message text and requests delivery.
// Rapid chunks coalesce: the queued update always delivers the latest
// accumulated text, so several appends may reach the endpoint as a single
// send. Citations supplied with the chunk are registered before the text is
// appended, so the chunk's inline markers can refer to them.
func (s *Streamer) QueueTextChunk(text string, citations ...Citation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.usableLocked(); err != nil {
		return err
	}
	if len(citations) > 0 {
		s.addCitationsLocked(citations)
	}
	s.text = s.format(s.text + text)
	s.flushLocked()
	return nil
}

// End queues the final message and blocks until every queued update has
// been delivered. The final message is durable: it carries the full
// accumulated text plus any configured attachments and decorations. ctx
// bounds the wait only; delivery of already-queued updates continues
// regardless. A nil error means the exchange closed cleanly.
func (s *Streamer) End(ctx context.Context) error {
	s.mu.Lock()
	if err := s.usableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	s.ended = true
	s.flushLocked()
	done := s.done
	s.mu.Unlock()
	return s.join(ctx, done)
}

// Wait blocks until the updates queued so far have been delivered. It does
// not end the stream. ctx bounds the wait only.
func (s *Streamer) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	return s.join(ctx, done)
}

// usableLocked reports whether the stream can accept another update.
func (s *Streamer) usableLocked() error {
	if s.err != nil {
		return s.err
	}
	if s.ended {
		return ErrStreamEnded
	}
	return nil
}

// flushLocked requests delivery of the current accumulated text. Repeated
// requests coalesce into the one queued job until it is dequeued.
func (s *Streamer) flushLocked() {
	if s.pendingFlush {
		return
	}
	s.pendingFlush = true
	s.enqueueLocked(job{kind: StreamStreaming})
}

// enqueueLocked appends a job and starts the drain goroutine when idle.
func (s *Streamer) enqueueLocked(j job) {
	s.queue = append(s.queue, j)
	if s.done == nil {
		done := make(chan struct{})
		s.done = done
		go s.drain(done)
	}
}

// join waits for the given drain instance to finish, then reports the
// sticky delivery error if any.
func (s *Streamer) join(ctx context.Context, done chan struct{}) error {
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// drain delivers queued updates in order until the backlog is empty, then
// marks the engine idle so a later enqueue starts a fresh instance. A
// delivery failure discards the rest of the backlog; the error is reported
// by End, Wait, and every subsequent queue call.
func (s *Streamer) drain(done chan struct{}) {
	defer close(done)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.done = nil
			s.mu.Unlock()
			return
		}
		j := s.queue[0]
		s.queue[0] = job{} // release the slot for GC
		s.queue = s.queue[1:]
		a := s.materializeLocked(j)
		s.mu.Unlock()

		if err := s.send(a); err != nil {
			s.mu.Lock()
			s.err = err
			s.queue = nil
			s.done = nil
			s.mu.Unlock()
			return
		}
	}
}

// materializeLocked turns a queued job into the activity to send, reading
// live state. A streaming job found after End renders the final message.
func (s *Streamer) materializeLocked(j job) *Activity {
	if j.kind == StreamInformative {
		a := &Activity{
			Type: ActivityTyping,
			Text: j.text,
			ChannelData: &ChannelData{
				StreamType:     StreamInformative,
				StreamSequence: j.seq,
			},
		}
		s.decorateLocked(a)
		return a
	}

	// Clearing the guard before reading state means chunks appended during
	// the send queue a fresh delivery instead of being lost.
	s.pendingFlush = false

	var a *Activity
	if s.ended {
		a = &Activity{
			Type:        ActivityMessage,
			Text:        s.text,
			Attachments: s.attachments,
			ChannelData: &ChannelData{StreamType: StreamFinal},
		}
	} else {
		a = &Activity{
			Type: ActivityTyping,
			Text: s.text,
			ChannelData: &ChannelData{
				StreamType:     StreamStreaming,
				StreamSequence: s.nextSequence,
			},
		}
		s.nextSequence++
	}
	s.decorateLocked(a)
	return a
}

// decorateLocked stamps the known stream ID, mirrors channel data as a
// stream info entity, and attaches citation and AI-label entities. Non-final
// updates carry only the citations referenced in the current text; the
// final message, when the AI label is enabled, carries the full list plus
// the sensitivity label.
func (s *Streamer) decorateLocked(a *Activity) {
	cd := a.ChannelData
	if s.streamID != "" {
		cd.StreamID = s.streamID
	}

	a.Entities = []Entity{StreamInfoEntity{
		Type:           entityTypeStreamInfo,
		StreamID:       cd.StreamID,
		StreamSequence: cd.StreamSequence,
		StreamType:     cd.StreamType,
	}}

	if cd.StreamType != StreamFinal {
		if len(s.citations) > 0 {
			a.Entities = append(a.Entities, newAIContent(nil, s.used(s.text, s.citations), nil))
		}
		return
	}

	if s.feedback {
		cd.FeedbackLoopEnabled = true
	} else if s.feedbackKind != "" {
		cd.FeedbackLoop = &FeedbackLoop{Type: s.feedbackKind}
	}
	if s.aiLabel {
		a.Entities = append(a.Entities, newAIContent([]string{labelAIGenerated}, s.citations, s.sensitivity))
	}
}

// send paces delivery and records the stream ID assigned by the first
// successful send. Sends run on the background context: once queued, an
// update is delivered unless the process exits, and per-send timeouts
// belong to the sender.
func (s *Streamer) send(a *Activity) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(context.Background()); err != nil {
			return fmt.Errorf("%w: %w", ErrDelivery, err)
		}
	}
	id, err := s.sender.Send(context.Background(), a)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDelivery, err)
	}
	if id != "" {
		s.mu.Lock()
		if s.streamID == "" {
			s.streamID = id
		}
		s.mu.Unlock()
	}
	return nil
}
