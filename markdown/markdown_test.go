package markdown_test

import (
	"os"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/drip/markdown"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func stripANSI(s string) string {
	// Matches SGR, cursor movement, and other CSI sequences.
	re := regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)
	return re.ReplaceAllString(s, "")
}

func TestMain(m *testing.M) {
	// Force ANSI color output so styled elements produce visible escape
	// codes that we can assert against.
	lipgloss.SetColorProfile(termenv.ANSI)
	os.Exit(m.Run())
}

func TestRender(t *testing.T) {
	t.Parallel()

	theme := markdown.DefaultTheme()

	t.Run("empty input returns empty string", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "", markdown.Render("", 80, theme))
	})

	t.Run("plain paragraph", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("hello world", 80, theme)
		assert.Contains(t, stripANSI(result), "hello world")
	})

	t.Run("heading renders with distinct styling", func(t *testing.T) {
		t.Parallel()
		heading := markdown.Render("# Title", 80, theme)
		paragraph := markdown.Render("Title", 80, theme)
		assert.Contains(t, stripANSI(heading), "Title")
		assert.NotEqual(t, heading, paragraph)
	})

	t.Run("citation reference is highlighted", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("The answer is 42 [1] according to the documents.", 80, theme)
		assert.Contains(t, stripANSI(result), "42 [1] according")
		// Only the reference carries styling, so stripping must change
		// the output.
		assert.NotEqual(t, stripANSI(result), result)

		plain := markdown.Render("The answer is 42 according to the documents.", 80, theme)
		assert.Equal(t, stripANSI(plain), plain)
	})

	t.Run("bold and italic text", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("**bold** and *italic*", 80, theme)
		assert.Contains(t, stripANSI(result), "bold")
		assert.Contains(t, stripANSI(result), "italic")
	})

	t.Run("inline code", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("run `go vet` first", 80, theme)
		assert.Contains(t, stripANSI(result), "go vet")
	})

	t.Run("fenced code block preserves content without reflow", func(t *testing.T) {
		t.Parallel()
		src := "```go\nfmt.Println(\"hello world\")\n```"
		result := markdown.Render(src, 20, theme)
		assert.Contains(t, stripANSI(result), `fmt.Println("hello world")`)
		assert.Contains(t, stripANSI(result), "go")
	})

	t.Run("bullet list", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("- one\n- two\n- three", 80, theme)
		stripped := stripANSI(result)
		assert.Contains(t, stripped, "- one")
		assert.Contains(t, stripped, "- two")
		assert.Contains(t, stripped, "- three")
	})

	t.Run("ordered list numbering", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("1. first\n2. second", 80, theme)
		stripped := stripANSI(result)
		assert.Contains(t, stripped, "1. first")
		assert.Contains(t, stripped, "2. second")
	})

	t.Run("nested list", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("- outer\n  - inner one\n  - inner two", 80, theme)
		stripped := stripANSI(result)
		assert.Contains(t, stripped, "outer")
		assert.Contains(t, stripped, "  - inner one")
		assert.Contains(t, stripped, "  - inner two")
	})

	t.Run("list item continuation lines are indented", func(t *testing.T) {
		t.Parallel()
		src := "- this is a very long list item that should wrap and have continuation lines properly indented"
		result := markdown.Render(src, 30, theme)
		lines := strings.Split(stripANSI(result), "\n")
		assert.True(t, strings.HasPrefix(lines[0], "- "))
		for _, line := range lines[1:] {
			if strings.TrimSpace(line) != "" {
				assert.True(t, strings.HasPrefix(line, "  "), "continuation line should be indented: %q", line)
			}
		}
	})

	t.Run("link shows text and URL", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("[click](https://example.com)", 80, theme)
		assert.Contains(t, stripANSI(result), "click")
		assert.Contains(t, stripANSI(result), "example.com")
	})

	t.Run("blockquote renders behind a gutter", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("> quoted text", 80, theme)
		assert.Contains(t, stripANSI(result), "│ quoted text")
	})

	t.Run("paragraph wraps to width", func(t *testing.T) {
		t.Parallel()
		long := "word1 word2 word3 word4 word5 word6 word7 word8 word9 word10 word11 word12"
		result := markdown.Render(long, 30, theme)
		stripped := stripANSI(result)
		assert.Contains(t, stripped, "word1")
		assert.Contains(t, stripped, "word12")
		assert.Greater(t, len(strings.Split(result, "\n")), 1)
	})

	t.Run("multiple paragraphs separated by blank line", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("first paragraph\n\nsecond paragraph", 80, theme)
		stripped := stripANSI(result)
		assert.Contains(t, stripped, "first paragraph")
		assert.Contains(t, stripped, "second paragraph")
		assert.Contains(t, stripped, "\n\n")
	})

	t.Run("thematic break", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("above\n\n---\n\nbelow", 80, theme)
		stripped := stripANSI(result)
		assert.Contains(t, stripped, "above")
		assert.Contains(t, stripped, "---")
		assert.Contains(t, stripped, "below")
	})

	t.Run("width zero defaults to 80", func(t *testing.T) {
		t.Parallel()
		result := markdown.Render("hello world", 0, theme)
		assert.Contains(t, stripANSI(result), "hello world")
	})
}
