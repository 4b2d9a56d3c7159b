// Package term implements [drip.Sender] as a local terminal endpoint. It
// simulates how a chat surface presents a streamed exchange: informative
// and streaming updates draw an ephemeral frame that is erased and redrawn
// in place, and the final message replaces the frame with markdown output
// followed by the citations it carries.
package term

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/drip"
	"github.com/fwojciec/drip/markdown"
	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
)

// Interface compliance check.
var _ drip.Sender = (*Printer)(nil)

// ansiRe matches CSI escape sequences, which carry no visible width.
var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The terminal's color scheme determines the actual RGB values.
type Theme struct {
	Status int // informative progress lines
	Accent int // headings, citation references and titles
	Muted  int // stream cursor, URLs, labels
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{Status: 3, Accent: 5, Muted: 8}
}

// Printer renders stream updates to a terminal. It assigns the stream ID
// for the exchange on the first send and reports it on every response, the
// way a conversation endpoint would.
type Printer struct {
	mu    sync.Mutex
	w     io.Writer
	width int
	theme Theme

	status lipgloss.Style
	label  lipgloss.Style
	title  lipgloss.Style
	cursor string

	id   string
	rows int
}

// Option configures a Printer.
type Option func(*Printer)

// WithWidth sets the rendering width in columns. Default 80.
func WithWidth(width int) Option {
	return func(p *Printer) {
		if width > 0 {
			p.width = width
		}
	}
}

// WithTheme overrides the default color theme.
func WithTheme(theme Theme) Option {
	return func(p *Printer) { p.theme = theme }
}

// New creates a Printer writing to w.
func New(w io.Writer, opts ...Option) *Printer {
	p := &Printer{w: w, width: 80, theme: DefaultTheme()}
	for _, o := range opts {
		o(p)
	}
	muted := lipgloss.NewStyle().Foreground(ansiColor(p.theme.Muted)).Faint(true)
	p.status = lipgloss.NewStyle().Foreground(ansiColor(p.theme.Status)).Italic(true)
	p.label = muted
	p.title = lipgloss.NewStyle().Foreground(ansiColor(p.theme.Accent)).Bold(true)
	p.cursor = muted.Render("▌")
	return p
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

// Send renders the activity, replacing any ephemeral frame a previous send
// left behind. The returned ID is the stream ID assigned on the first call.
func (p *Printer) Send(_ context.Context, activity *drip.Activity) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.id == "" {
		p.id = uuid.NewString()
	}

	var out bytes.Buffer
	p.erase(&out)
	switch {
	case activity.Type == drip.ActivityMessage:
		p.final(&out, activity)
	case activity.ChannelData != nil && activity.ChannelData.StreamType == drip.StreamInformative:
		p.frame(&out, p.status.Render("⋯ "+activity.Text))
	default:
		styled := lipgloss.NewStyle().Width(p.width).Render(activity.Text + " " + p.cursor)
		p.frame(&out, styled)
	}

	if _, err := p.w.Write(out.Bytes()); err != nil {
		return "", fmt.Errorf("term: %w", err)
	}
	return p.id, nil
}

// erase moves the cursor back over the live frame and clears it.
func (p *Printer) erase(buf *bytes.Buffer) {
	if p.rows == 0 {
		return
	}
	fmt.Fprintf(buf, "\x1b[%dA\x1b[0J", p.rows)
	p.rows = 0
}

// frame draws an ephemeral frame and records how many rows it occupies.
func (p *Printer) frame(buf *bytes.Buffer, s string) {
	buf.WriteString(s)
	buf.WriteString("\n")
	p.rows = p.rowsFor(s)
}

// rowsFor reports how many terminal rows s occupies at the configured
// width. Lines longer than the width soft-wrap, so occupancy is measured
// from each line's visible width, not its line count.
func (p *Printer) rowsFor(s string) int {
	rows := 0
	for _, line := range strings.Split(s, "\n") {
		w := runewidth.StringWidth(ansiRe.ReplaceAllString(line, ""))
		if w <= p.width {
			rows++
			continue
		}
		rows += (w + p.width - 1) / p.width
	}
	return rows
}

// final renders the durable message: markdown body, then the citation list
// the activity carries.
func (p *Printer) final(buf *bytes.Buffer, activity *drip.Activity) {
	buf.WriteString(markdown.Render(activity.Text, p.width, markdown.Theme{
		Accent: p.theme.Accent,
		Muted:  p.theme.Muted,
	}))
	buf.WriteString("\n")

	citations := finalCitations(activity)
	if len(citations) == 0 {
		return
	}
	buf.WriteString("\n")
	for _, c := range citations {
		buf.WriteString(p.label.Render(fmt.Sprintf("[%d]", c.Position)))
		buf.WriteString(" ")
		buf.WriteString(p.title.Render(c.Appearance.Name))
		if c.Appearance.URL != "" {
			buf.WriteString(" ")
			buf.WriteString(p.label.Render(c.Appearance.URL))
		}
		buf.WriteString("\n")
	}
}

// finalCitations extracts the citation list attached to a final message.
func finalCitations(activity *drip.Activity) []drip.ClientCitation {
	for _, e := range activity.Entities {
		if content, ok := e.(drip.AIContentEntity); ok && len(content.Citations) > 0 {
			return content.Citations
		}
	}
	return nil
}
