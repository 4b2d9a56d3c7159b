package drip

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rivo/uniseg"
)

// citationAbstractMax bounds the excerpt length rendered in a citation card.
const citationAbstractMax = 477

// Citation is a source reference supplied by the producer of the message.
type Citation struct {
	Title   string // defaults to "Document N" when empty
	Content string // source text the excerpt is derived from
	URL     string
}

// ClientCitation is the wire form of a registered citation. Positions are
// 1-based, dense, and stable once assigned; the text refers to a citation
// with an inline [N] marker.
type ClientCitation struct {
	AtType     string     `json:"@type"` // always "Claim"
	Position   int        `json:"position"`
	Appearance Appearance `json:"appearance"`
}

// Appearance describes how the endpoint renders a citation card.
type Appearance struct {
	AtType   string `json:"@type"` // always "DigitalDocument"
	Name     string `json:"name"`
	Abstract string `json:"abstract,omitempty"`
	URL      string `json:"url,omitempty"`
}

// SensitivityLabel describes the sensitivity of AI-generated content. It is
// attached to the final message when the AI-generated label is enabled.
type SensitivityLabel struct {
	Type        string `json:"type"`  // always "https://schema.org/Message"
	AtType      string `json:"@type"` // always "CreativeWork"
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// NewSensitivityLabel returns a sensitivity label with the schema.org
// envelope fields populated.
func NewSensitivityLabel(name, description string) *SensitivityLabel {
	return &SensitivityLabel{
		Type:        schemaMessageType,
		AtType:      atTypeCreativeWork,
		Name:        name,
		Description: description,
	}
}

var (
	citationMarkerRE = regexp.MustCompile(`(?i)\[doc(\d+)\]`)
	citationRefRE    = regexp.MustCompile(`\[(\d+)\]`)
)

// FormatCitationMarkers rewrites inline [docN] citation placeholders to the
// [N] form the endpoint renders. Matching is case-insensitive.
func FormatCitationMarkers(text string) string {
	return citationMarkerRE.ReplaceAllString(text, "[$1]")
}

// UsedCitations filters citations to those whose positions appear as [N]
// markers in text, in first-reference order without duplicates. Returns nil
// when the text references none.
func UsedCitations(text string, citations []ClientCitation) []ClientCitation {
	matches := citationRefRE.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[int]bool)
	var used []ClientCitation
	for _, m := range matches {
		pos, err := strconv.Atoi(m[1])
		if err != nil || seen[pos] {
			continue
		}
		for _, c := range citations {
			if c.Position == pos {
				used = append(used, c)
				seen[pos] = true
				break
			}
		}
	}
	return used
}

// Snippet truncates text to at most maxLen grapheme clusters, backing off to
// the last space so words are not split, and appends "..." to mark the cut.
// Text within the limit is returned unchanged.
func Snippet(text string, maxLen int) string {
	if uniseg.GraphemeClusterCount(text) <= maxLen {
		return text
	}
	var (
		b    strings.Builder
		last int // byte offset where the final cluster starts
	)
	g := uniseg.NewGraphemes(text)
	for n := 0; n < maxLen && g.Next(); n++ {
		last = b.Len()
		b.WriteString(g.Str())
	}
	s := b.String()
	if i := strings.LastIndex(s, " "); i >= 0 {
		s = s[:i]
	} else {
		s = s[:last]
	}
	return s + "..."
}
