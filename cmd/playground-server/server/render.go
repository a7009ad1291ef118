package server

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// MaxSourceBytes is the largest source the fixture renderer accepts.
const MaxSourceBytes = 64 << 10

// raisePrefix marks a source line that makes the render fail with the rest of
// the line as message.
const raisePrefix = "raise:"

// Renderer turns editor source into preview HTML.
type Renderer interface {
	Render(source string) (string, error)
}

// RenderError is a render failure meant for the error panel.
type RenderError struct {
	Line    int // 1-based, 0 when not tied to a line
	Message string
}

func (e *RenderError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// MarkdownRenderer stands in for the DSL interpreter: it renders the source
// as GitHub-flavoured Markdown.
type MarkdownRenderer struct {
	md goldmark.Markdown
}

// NewMarkdownRenderer returns a renderer with GFM tables, strikethrough and
// task lists enabled. Raw HTML in the source is omitted from the output.
func NewMarkdownRenderer() *MarkdownRenderer {
	return &MarkdownRenderer{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Render rejects empty or oversized source and raise: lines, then renders.
func (r *MarkdownRenderer) Render(source string) (string, error) {
	if strings.TrimSpace(source) == "" {
		return "", &RenderError{Message: "source is empty"}
	}
	if len(source) > MaxSourceBytes {
		return "", &RenderError{Message: fmt.Sprintf("source is %d bytes, limit is %d", len(source), MaxSourceBytes)}
	}

	for i, line := range strings.Split(source, "\n") {
		if msg, ok := strings.CutPrefix(strings.TrimSpace(line), raisePrefix); ok {
			msg = strings.TrimSpace(msg)
			if msg == "" {
				msg = "raised"
			}
			return "", &RenderError{Line: i + 1, Message: msg}
		}
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}

// IsRenderError reports whether err is a user-facing render failure.
func IsRenderError(err error) bool {
	var re *RenderError
	return errors.As(err, &re)
}
