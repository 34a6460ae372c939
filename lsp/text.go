package lsp

import (
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"go.jacobcolvin.com/annotate/annotation"
)

// Offset converts an LSP position, whose character is counted in UTF-16
// code units, to a byte offset in text. Positions past the end of a line
// clamp to the line end, and lines past the end clamp to len(text).
func Offset(text string, pos protocol.Position) int {
	offset := 0

	for line := protocol.UInteger(0); line < pos.Line; line++ {
		i := strings.IndexByte(text[offset:], '\n')
		if i < 0 {
			return len(text)
		}

		offset += i + 1
	}

	units := int(pos.Character)

	for units > 0 && offset < len(text) && text[offset] != '\n' {
		r, size := utf8.DecodeRuneInString(text[offset:])

		n := utf16.RuneLen(r)
		if n < 1 {
			n = 1
		}

		units -= n
		offset += size
	}

	return offset
}

// Position converts a byte offset in text to an LSP position. It is the
// inverse of [Offset]; offsets outside text are clamped.
func Position(text string, offset int) protocol.Position {
	offset = min(max(offset, 0), len(text))

	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1

	units := 0
	for _, r := range text[lineStart:offset] {
		units += max(utf16.RuneLen(r), 1)
	}

	return protocol.Position{
		Line:      protocol.UInteger(strings.Count(text[:lineStart], "\n")),
		Character: protocol.UInteger(units),
	}
}

// PathFromURI converts a file URI to a local path.
func PathFromURI(uri protocol.DocumentUri) (string, bool) {
	u, err := url.Parse(string(uri))
	if err != nil || u.Scheme != "file" {
		return "", false
	}

	return filepath.FromSlash(u.Path), true
}

// URIFromPath converts a local path to a file URI. Relative paths are made
// absolute first.
func URIFromPath(path string) protocol.DocumentUri {
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}

	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}

	return protocol.DocumentUri(u.String())
}

// completionItem converts a candidate to an LSP completion item, applying
// its insert behavior.
func completionItem(c annotation.Candidate) protocol.CompletionItem {
	item := protocol.CompletionItem{
		Label: c.Label,
		Kind:  itemKind(c.Kind),
	}

	if c.Detail != "" {
		item.Detail = &c.Detail
	}

	if text := insertText(c); text != c.Label {
		item.InsertText = &text
	}

	return item
}

func itemKind(kind annotation.CandidateKind) *protocol.CompletionItemKind {
	k := protocol.CompletionItemKindValue

	switch kind {
	case annotation.CandidateSchema:
		k = protocol.CompletionItemKindClass
	case annotation.CandidateProperty:
		k = protocol.CompletionItemKindProperty
	case annotation.CandidateValue:
		k = protocol.CompletionItemKindValue
	}

	return &k
}

// insertText returns the text inserted when c is accepted: property names
// come with an empty value of their kind. Schema names also depend on the
// document and are completed by request.tagInsert.
func insertText(c annotation.Candidate) string {
	switch c.Insert {
	case annotation.InsertProperty:
		return c.Label + `=""`
	case annotation.InsertArrayProperty:
		return c.Label + "={}"
	case annotation.InsertNone, annotation.InsertTag:
		return c.Label
	}

	return c.Label
}

// escapeSnippet escapes the characters that are special in snippet text.
func escapeSnippet(s string) string {
	return strings.NewReplacer(`\`, `\\`, `$`, `\$`, `}`, `\}`).Replace(s)
}

func isNameByte(c byte) bool {
	return c == '_' || c == '\\' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
