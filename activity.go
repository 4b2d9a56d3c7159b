package drip

// ActivityType classifies an outgoing activity.
type ActivityType string

const (
	// ActivityTyping is an ephemeral progress indicator. The endpoint
	// replaces it in place; it never persists in the conversation.
	ActivityTyping ActivityType = "typing"

	// ActivityMessage is a durable conversation message.
	ActivityMessage ActivityType = "message"
)

// StreamType classifies an update within a streaming exchange.
type StreamType string

const (
	// StreamInformative is a one-off progress update with its own text.
	StreamInformative StreamType = "informative"

	// StreamStreaming carries the partial message accumulated so far.
	StreamStreaming StreamType = "streaming"

	// StreamFinal is the terminal message. It carries no sequence number.
	StreamFinal StreamType = "final"
)

// FeedbackKind selects the feedback UX requested on the final message.
type FeedbackKind string

const (
	FeedbackDefault FeedbackKind = "default"
	FeedbackCustom  FeedbackKind = "custom"
)

// Wire constants fixed by the endpoint contract.
const (
	entityTypeStreamInfo = "streaminfo"
	schemaMessageType    = "https://schema.org/Message"
	schemaContext        = "https://schema.org"
	atTypeMessage        = "Message"
	atTypeClaim          = "Claim"
	atTypeDocument       = "DigitalDocument"
	atTypeCreativeWork   = "CreativeWork"
	labelAIGenerated     = "AIGeneratedContent"
)

// Activity is the wire message sent to the conversation endpoint.
type Activity struct {
	Type        ActivityType `json:"type"`
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	ChannelData *ChannelData `json:"channelData,omitempty"`
	Entities    []Entity     `json:"entities,omitempty"`
}

// Attachment is a card or file delivered with the final message. The
// endpoint interprets Content according to ContentType.
type Attachment struct {
	ContentType string `json:"contentType"`
	ContentURL  string `json:"contentUrl,omitempty"`
	Content     any    `json:"content,omitempty"`
	Name        string `json:"name,omitempty"`
}

// ChannelData carries the stream metadata the endpoint reads to correlate
// and order updates. StreamSequence is absent on the final message.
// FeedbackLoopEnabled and FeedbackLoop are mutually exclusive.
type ChannelData struct {
	StreamType          StreamType    `json:"streamType"`
	StreamSequence      int           `json:"streamSequence,omitempty"`
	StreamID            string        `json:"streamId,omitempty"`
	FeedbackLoopEnabled bool          `json:"feedbackLoopEnabled,omitempty"`
	FeedbackLoop        *FeedbackLoop `json:"feedbackLoop,omitempty"`
}

// FeedbackLoop selects a custom feedback UX on the final message.
type FeedbackLoop struct {
	Type FeedbackKind `json:"type"`
}

// Entity is a sealed interface representing structured metadata attached to
// an activity. The unexported marker method prevents external implementations.
type Entity interface {
	entity()
}

// StreamInfoEntity mirrors an activity's stream metadata for endpoints that
// read entities rather than channel data. Attached to every sent activity.
type StreamInfoEntity struct {
	Type           string     `json:"type"` // always "streaminfo"
	StreamID       string     `json:"streamId,omitempty"`
	StreamSequence int        `json:"streamSequence,omitempty"`
	StreamType     StreamType `json:"streamType"`
}

func (StreamInfoEntity) entity() {}

// AIContentEntity labels message content as AI-generated and carries its
// citations. The schema.org envelope fields are fixed by the endpoint
// contract; use [newAIContent] to populate them.
type AIContentEntity struct {
	Type           string            `json:"type"`     // always "https://schema.org/Message"
	AtType         string            `json:"@type"`    // always "Message"
	AtContext      string            `json:"@context"` // always "https://schema.org"
	AtID           string            `json:"@id"`
	AdditionalType []string          `json:"additionalType,omitempty"`
	Citations      []ClientCitation  `json:"citation,omitempty"`
	UsageInfo      *SensitivityLabel `json:"usageInfo,omitempty"`
}

func (AIContentEntity) entity() {}

// Interface compliance checks.
var (
	_ Entity = StreamInfoEntity{}
	_ Entity = AIContentEntity{}
)

// newAIContent returns an AIContentEntity with the schema.org envelope
// fields populated.
func newAIContent(additionalType []string, citations []ClientCitation, usage *SensitivityLabel) AIContentEntity {
	return AIContentEntity{
		Type:           schemaMessageType,
		AtType:         atTypeMessage,
		AtContext:      schemaContext,
		AdditionalType: additionalType,
		Citations:      citations,
		UsageInfo:      usage,
	}
}
