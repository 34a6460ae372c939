package phpdoc

import (
	"strings"

	"go.jacobcolvin.com/annotate/annotation"
)

// Locate lexes the comment text with a cursor at offset and returns the
// node under the cursor together with the comment root. offset and base are
// file offsets; base is where text starts.
//
// The returned cursor's text is cut at the cursor, so it holds only what was
// typed before it. Spans are reported as if the marker was never inserted.
// Locate returns a nil cursor when offset lies outside text.
func Locate(text string, base, offset int) (*annotation.Node, *annotation.Node) {
	rel := offset - base
	if rel < 0 || rel > len(text) {
		return nil, nil
	}

	root := Parse(text[:rel]+Marker+text[rel:], base)
	root.Text = text

	var cursor *annotation.Node

	root.Walk(func(n *annotation.Node) bool {
		if cursor != nil {
			return false
		}

		if n.IsLeaf() && strings.Contains(n.Text, Marker) {
			cursor = n
		}

		return true
	})

	root.Walk(func(n *annotation.Node) bool {
		n.Start = unshift(n.Start, offset)
		n.End = unshift(n.End, offset)

		return true
	})

	if cursor != nil {
		cursor.Text, _, _ = strings.Cut(cursor.Text, Marker)
	}

	return cursor, root
}

func unshift(pos, offset int) int {
	switch {
	case pos >= offset+len(Marker):
		return pos - len(Marker)
	case pos > offset:
		return offset
	default:
		return pos
	}
}
