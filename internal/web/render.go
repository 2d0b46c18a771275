// ABOUTME: Markdown rendering for assistant replies in the transcript view
// ABOUTME: Thin wrapper around goldmark with a plain-paragraph fallback

package web

import (
	"bytes"
	"log/slog"

	"github.com/yuin/goldmark"
)

// renderMarkdown converts assistant markdown to HTML for the transcript
// view. On conversion failure the raw text is returned inside a paragraph
// so the message is never lost.
func renderMarkdown(content string, logger *slog.Logger) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(content), &buf); err != nil {
		logger.Error("failed to convert markdown", "error", err)
		return "<p>" + content + "</p>"
	}
	return buf.String()
}
