package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// citationRe matches folded citation references in prose, e.g. [2].
var citationRe = regexp.MustCompile(`\[\d+\]`)

type renderer struct {
	bold      lipgloss.Style
	italic    lipgloss.Style
	heading   lipgloss.Style
	muted     lipgloss.Style
	underline lipgloss.Style
	ref       lipgloss.Style
}

func newRenderer(theme Theme) *renderer {
	return &renderer{
		bold:      lipgloss.NewStyle().Bold(true),
		italic:    lipgloss.NewStyle().Italic(true),
		heading:   lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)).Bold(true),
		muted:     lipgloss.NewStyle().Foreground(ansiColor(theme.Muted)).Faint(true),
		underline: lipgloss.NewStyle().Underline(true),
		ref:       lipgloss.NewStyle().Foreground(ansiColor(theme.Accent)),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}

func (r *renderer) render(source []byte, width int) string {
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var buf bytes.Buffer
	r.blocks(doc, source, width, &buf)
	return strings.TrimRight(buf.String(), "\n")
}

// blocks renders each child block, separated by blank lines.
func (r *renderer) blocks(parent ast.Node, source []byte, width int, buf *bytes.Buffer) {
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		r.block(c, source, width, buf)
		if c.NextSibling() != nil {
			buf.WriteString("\n")
		}
	}
}

func (r *renderer) block(node ast.Node, source []byte, width int, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Paragraph:
		buf.WriteString(lipgloss.NewStyle().Width(width).Render(r.inline(n, source)))
		buf.WriteString("\n")

	case *ast.Heading:
		styled := r.heading.Render(r.inline(n, source))
		buf.WriteString(lipgloss.NewStyle().Width(width).Render(styled))
		buf.WriteString("\n")

	case *ast.FencedCodeBlock:
		if lang := string(n.Language(source)); lang != "" {
			buf.WriteString(r.muted.Render(lang))
			buf.WriteString("\n")
		}
		r.codeLines(n, source, buf)

	case *ast.CodeBlock:
		r.codeLines(n, source, buf)

	case *ast.List:
		r.list(n, source, width, buf, 0)

	case *ast.Blockquote:
		var inner bytes.Buffer
		r.blocks(n, source, max(width-2, 10), &inner)
		gutter := r.muted.Render("│") + " "
		for _, line := range strings.Split(strings.TrimRight(inner.String(), "\n"), "\n") {
			buf.WriteString(gutter + line)
			buf.WriteString("\n")
		}

	case *ast.ThematicBreak:
		buf.WriteString(r.muted.Render("---"))
		buf.WriteString("\n")

	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(source))
		}

	default:
		// Unrecognized blocks: recurse into children.
		r.blocks(node, source, width, buf)
	}
}

// codeLines renders a code block's lines verbatim behind a gutter, without
// reflow.
func (r *renderer) codeLines(node ast.Node, source []byte, buf *bytes.Buffer) {
	gutter := r.muted.Render("│") + " "
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		content := strings.TrimRight(string(seg.Value(source)), "\n")
		buf.WriteString(gutter + content)
		buf.WriteString("\n")
	}
}

func (r *renderer) list(node *ast.List, source []byte, width int, buf *bytes.Buffer, depth int) {
	num := node.Start
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		marker := "- "
		if node.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		r.listItem(item, source, width, buf, depth, marker)
	}
}

func (r *renderer) listItem(item ast.Node, source []byte, width int, buf *bytes.Buffer, depth int, marker string) {
	indent := strings.Repeat("  ", depth)
	var pending bytes.Buffer
	flush := func() {
		if pending.Len() == 0 {
			return
		}
		r.writeItem(buf, indent+marker, pending.String(), width)
		pending.Reset()
		// Content after the first flush continues under a blank marker.
		marker = strings.Repeat(" ", len(marker))
	}

	for c := item.FirstChild(); c != nil; c = c.NextSibling() {
		switch n := c.(type) {
		case *ast.Paragraph, *ast.TextBlock:
			pending.WriteString(r.inline(n, source))
		case *ast.List:
			flush()
			r.list(n, source, width, buf, depth+1)
		default:
			r.block(c, source, width, &pending)
		}
	}
	flush()
}

// writeItem writes one list item with continuation lines indented past the
// marker.
func (r *renderer) writeItem(buf *bytes.Buffer, prefix, content string, width int) {
	wrapped := lipgloss.NewStyle().Width(max(width-len(prefix), 10)).Render(content)
	pad := strings.Repeat(" ", len(prefix))
	for i, line := range strings.Split(wrapped, "\n") {
		if i > 0 {
			prefix = pad
		}
		buf.WriteString(prefix + line)
		buf.WriteString("\n")
	}
}

// inline collects styled inline text from a node's children.
func (r *renderer) inline(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.inlineNode(c, source, &buf)
	}
	return buf.String()
}

func (r *renderer) inlineNode(node ast.Node, source []byte, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Text:
		buf.WriteString(r.refs(string(n.Segment.Value(source))))
		if n.SoftLineBreak() {
			buf.WriteByte(' ')
		}
		if n.HardLineBreak() {
			buf.WriteByte('\n')
		}

	case *ast.String:
		buf.Write(n.Value)

	case *ast.Emphasis:
		inner := r.inline(n, source)
		if n.Level == 1 {
			buf.WriteString(r.italic.Render(inner))
		} else {
			// Level 2 = bold; goldmark nests Emphasis nodes for
			// ***bold italic***, so level 3+ is not reachable.
			buf.WriteString(r.bold.Render(inner))
		}

	case *ast.CodeSpan:
		buf.WriteString(r.bold.Render(r.inline(n, source)))

	case *ast.Link:
		buf.WriteString(r.underline.Render(r.inline(n, source)))
		buf.WriteString(" ")
		buf.WriteString(r.muted.Render("(" + string(n.Destination) + ")"))

	case *ast.AutoLink:
		buf.WriteString(r.underline.Render(string(n.URL(source))))

	case *ast.Image:
		buf.WriteString(r.underline.Render(r.inline(n, source)))
		buf.WriteString(" ")
		buf.WriteString(r.muted.Render("(" + string(n.Destination) + ")"))

	case *ast.RawHTML:
		for i := 0; i < n.Segments.Len(); i++ {
			seg := n.Segments.At(i)
			buf.Write(seg.Value(source))
		}

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			r.inlineNode(c, source, buf)
		}
	}
}

// refs highlights folded citation references so they stand out in prose.
func (r *renderer) refs(s string) string {
	return citationRe.ReplaceAllStringFunc(s, func(m string) string {
		return r.ref.Render(m)
	})
}
