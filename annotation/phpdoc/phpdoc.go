// Package phpdoc turns PHP documentation comments into [annotation.Node]
// trees.
//
// The lexer follows the shape of Doctrine-style docblock annotations:
//
//	/**
//	 * @Route("/blog", name="blog_list", methods={"GET"})
//	 */
//
// Tags start with "@" at the start of a word. An attribute list must follow
// the tag name directly and may span several lines, in which case the
// leading asterisks of those lines become part of the list. Quoted values
// become [annotation.NodeString] wrappers around a single text leaf, braces
// become [annotation.NodeCollection], and unquoted words after "=" are
// values rather than identifiers.
//
// [Locate] finds the node under a cursor. It inserts a marker identifier at
// the cursor before lexing, the same trick editors use, so that empty slots
// such as "@Route(|)" still produce a node to classify.
package phpdoc

import (
	"strings"

	"go.jacobcolvin.com/annotate/annotation"
)

// Marker is inserted at the cursor by [Locate]. It must lex as part of any
// word, identifier, or string it lands in.
const Marker = "AnnotateCompletionMarker"

type parser struct {
	src  string
	base int
	pos  int
	end  int
}

// Parse lexes a documentation comment. base is the offset of text within
// its file and is added to every node span.
func Parse(text string, base int) *annotation.Node {
	p := &parser{src: text, base: base, end: len(text)}

	root := annotation.NewNode(annotation.NodeDocComment, text, base, base+len(text))

	if strings.HasPrefix(text, "/**") {
		root.Append(p.leaf(annotation.NodeCommentStart, 3))
	}

	hasEnd := len(text) >= p.pos+2 && strings.HasSuffix(text, "*/")
	if hasEnd {
		p.end = len(text) - 2
	}

	p.body(root)

	if hasEnd {
		p.end = len(text)
		root.Append(p.leaf(annotation.NodeCommentEnd, 2))
	}

	return root
}

// leaf consumes n bytes as a leaf of the given kind.
func (p *parser) leaf(kind annotation.NodeKind, n int) *annotation.Node {
	start := p.pos
	p.pos += n

	return annotation.NewNode(kind, p.src[start:p.pos], p.base+start, p.base+p.pos)
}

func (p *parser) body(root *annotation.Node) {
	bodyStart := p.pos

	for p.pos < p.end {
		c := p.src[p.pos]

		switch {
		case isSpace(c):
			p.whitespace(root)
		case c == '@' && (p.pos == bodyStart || isSpace(p.src[p.pos-1]) || p.src[p.pos-1] == '*'):
			root.Append(p.tag())
		default:
			root.Append(p.word(annotation.NodeText, func(c byte) bool { return isSpace(c) }))
		}
	}
}

// whitespace consumes a whitespace run and, when it ends a line, the
// leading asterisk of the next one.
func (p *parser) whitespace(parent *annotation.Node) {
	start := p.pos
	for p.pos < p.end && isSpace(p.src[p.pos]) {
		p.pos++
	}

	ws := annotation.NewNode(annotation.NodeWhitespace, p.src[start:p.pos], p.base+start, p.base+p.pos)
	parent.Append(ws)

	if strings.Contains(ws.Text, "\n") && p.pos < p.end && p.src[p.pos] == '*' {
		parent.Append(p.leaf(annotation.NodeLeadingAsterisk, 1))
	}
}

func (p *parser) tag() *annotation.Node {
	start := p.pos

	p.pos++ // @
	for p.pos < p.end && isNameByte(p.src[p.pos]) {
		p.pos++
	}

	tag := annotation.NewNode(annotation.NodeTag, "", p.base+start, 0)
	tag.Append(annotation.NewNode(annotation.NodeTagName, p.src[start:p.pos], p.base+start, p.base+p.pos))

	if p.pos < p.end && p.src[p.pos] == '(' {
		tag.Append(p.list(annotation.NodeAttributeList))
	}

	tag.End = p.base + p.pos

	return tag
}

// list parses an attribute list or a collection, starting at its opening
// bracket. A missing closing bracket ends the list at the end of the
// comment, or, for collections, at the enclosing list's closing bracket.
func (p *parser) list(kind annotation.NodeKind) *annotation.Node {
	openKind, closeKind, closeByte := annotation.NodeLParen, annotation.NodeRParen, byte(')')
	if kind == annotation.NodeCollection {
		openKind, closeKind, closeByte = annotation.NodeLBrace, annotation.NodeRBrace, '}'
	}

	list := annotation.NewNode(kind, "", p.base+p.pos, 0)
	list.Append(p.leaf(openKind, 1))

	for p.pos < p.end {
		c := p.src[p.pos]

		switch {
		case c == closeByte:
			list.Append(p.leaf(closeKind, 1))
			list.End = p.base + p.pos

			return list
		case c == ')' && kind == annotation.NodeCollection:
			list.End = p.base + p.pos

			return list
		case isSpace(c):
			p.whitespace(list)
		case c == '{':
			list.Append(p.list(annotation.NodeCollection))
		case c == ',':
			list.Append(p.leaf(annotation.NodeComma, 1))
		case c == '=' || (c == ':' && kind == annotation.NodeCollection):
			list.Append(p.leaf(annotation.NodeAssign, 1))
		case c == '"':
			list.Append(p.str())
		case c == '@':
			list.Append(p.tag())
		default:
			list.Append(p.listWord(list, kind))
		}
	}

	list.End = p.base + p.pos

	return list
}

// listWord lexes an unquoted word inside a list. Words after an assignment
// and all words in collections are values; other identifier-like words are
// property names.
func (p *parser) listWord(list *annotation.Node, kind annotation.NodeKind) *annotation.Node {
	w := p.word(annotation.NodeText, func(c byte) bool {
		return isListDelimiter(c) || (c == ':' && kind == annotation.NodeCollection)
	})
	if w.Text == "" {
		// A stray delimiter, such as "}" in an attribute list.
		w = p.leaf(annotation.NodeText, 1)
	}

	if kind == annotation.NodeCollection || !isIdentStart(w.Text[0]) {
		return w
	}

	for i := len(list.Children) - 1; i >= 0; i-- {
		prev := list.Children[i]

		switch prev.Kind {
		case annotation.NodeWhitespace, annotation.NodeLeadingAsterisk:
			continue
		case annotation.NodeAssign:
			return w
		}

		break
	}

	w.Kind = annotation.NodeIdentifier

	return w
}

// str lexes a double-quoted string. A doubled quote is an escaped quote.
func (p *parser) str() *annotation.Node {
	start := p.pos
	p.pos++

	contentStart := p.pos
	contentEnd := -1

	for p.pos < p.end {
		if p.src[p.pos] == '"' {
			if p.pos+1 < p.end && p.src[p.pos+1] == '"' {
				p.pos += 2

				continue
			}

			contentEnd = p.pos
			p.pos++

			break
		}

		if p.src[p.pos] == '\n' {
			break
		}

		p.pos++
	}

	if contentEnd < 0 {
		contentEnd = p.pos
	}

	content := strings.ReplaceAll(p.src[contentStart:contentEnd], `""`, `"`)

	s := annotation.NewNode(annotation.NodeString, "", p.base+start, p.base+p.pos)
	s.Append(annotation.NewNode(annotation.NodeText, content, p.base+contentStart, p.base+contentEnd))

	return s
}

func (p *parser) word(kind annotation.NodeKind, stop func(byte) bool) *annotation.Node {
	start := p.pos
	for p.pos < p.end && !stop(p.src[p.pos]) {
		p.pos++
	}

	return annotation.NewNode(kind, p.src[start:p.pos], p.base+start, p.base+p.pos)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isListDelimiter(c byte) bool {
	return isSpace(c) || strings.IndexByte(`(){},="@`, c) >= 0
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '\\' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameByte(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
