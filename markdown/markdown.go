// Package markdown renders the final safety-reviewed text, which models emit
// as markdown, to HTML for the HTTP API and to styled text for the terminal.
// Parsing uses goldmark; terminal styling uses lipgloss.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// ToHTML converts markdown source to HTML. Raw HTML in the source is omitted.
func ToHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// ToTerminal renders markdown source as styled text wrapped at width.
func ToTerminal(source string, width int) string {
	if width <= 0 {
		width = 80
	}
	src := []byte(source)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))

	r := &terminalRenderer{
		bold:    lipgloss.NewStyle().Bold(true),
		italic:  lipgloss.NewStyle().Italic(true),
		heading: lipgloss.NewStyle().Bold(true).Underline(true),
		wrap:    lipgloss.NewStyle().Width(width),
	}
	var buf bytes.Buffer
	for c := doc.FirstChild(); c != nil; c = c.NextSibling() {
		r.renderBlock(c, src, &buf)
		if c.NextSibling() != nil {
			buf.WriteString("\n")
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}

type terminalRenderer struct {
	bold    lipgloss.Style
	italic  lipgloss.Style
	heading lipgloss.Style
	wrap    lipgloss.Style
}

func (r *terminalRenderer) renderBlock(node ast.Node, source []byte, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Paragraph, *ast.TextBlock:
		buf.WriteString(r.wrap.Render(r.collectInline(n, source)))
		buf.WriteString("\n")

	case *ast.Heading:
		buf.WriteString(r.heading.Render(r.collectInline(n, source)))
		buf.WriteString("\n")

	case *ast.List:
		i := n.Start
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			marker := "- "
			if n.IsOrdered() {
				marker = fmt.Sprintf("%d. ", i)
				i++
			}
			var item bytes.Buffer
			for ic := c.FirstChild(); ic != nil; ic = ic.NextSibling() {
				r.renderBlock(ic, source, &item)
			}
			buf.WriteString(marker + strings.TrimRight(item.String(), "\n") + "\n")
		}

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.WriteString("  " + strings.TrimRight(string(line.Value(source)), "\n") + "\n")
		}

	case *ast.ThematicBreak:
		buf.WriteString("---\n")

	default:
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			r.renderBlock(c, source, buf)
		}
	}
}

func (r *terminalRenderer) collectInline(node ast.Node, source []byte) string {
	var buf bytes.Buffer
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		r.renderInline(c, source, &buf)
	}
	return buf.String()
}

func (r *terminalRenderer) renderInline(node ast.Node, source []byte, buf *bytes.Buffer) {
	switch n := node.(type) {
	case *ast.Text:
		buf.Write(n.Segment.Value(source))
		if n.SoftLineBreak() {
			buf.WriteByte(' ')
		}
		if n.HardLineBreak() {
			buf.WriteByte('\n')
		}

	case *ast.String:
		buf.Write(n.Value)

	case *ast.Emphasis:
		inner := r.collectInline(n, source)
		if n.Level == 1 {
			buf.WriteString(r.italic.Render(inner))
		} else {
			buf.WriteString(r.bold.Render(inner))
		}

	case *ast.CodeSpan:
		buf.WriteString(r.bold.Render(r.collectInline(n, source)))

	case *ast.Link:
		buf.WriteString(r.collectInline(n, source))
		buf.WriteString(" (" + string(n.Destination) + ")")

	default:
		buf.WriteString(r.collectInline(n, source))
	}
}
