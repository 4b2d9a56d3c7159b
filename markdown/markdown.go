// Package markdown renders markdown to ANSI-styled terminal output using
// goldmark for parsing and lipgloss for styling. It is the presentation
// half of the terminal endpoint: final messages arrive as markdown with
// folded citation references, which render highlighted so they line up
// with the citation list printed beneath the message.
package markdown

// Theme defines the ANSI color indices (0-15) for styled elements. The
// terminal's color scheme determines the actual RGB values.
type Theme struct {
	Accent int // headings and citation references
	Muted  int // code gutters, link URLs, rules
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{Accent: 5, Muted: 8}
}

// Render parses markdown source and returns ANSI-styled terminal output.
// Paragraphs and list items word-wrap to width; code blocks render at
// full width without reflow. Widths below one fall back to 80 columns.
func Render(source string, width int, theme Theme) string {
	if source == "" {
		return ""
	}
	if width <= 0 {
		width = 80
	}
	return newRenderer(theme).render([]byte(source), width)
}
