package annotation

import "strings"

// ContextKind is the annotation slot a cursor occupies.
type ContextKind int

// Context kinds.
const (
	// ContextTagName is the name of a tag: "@Ro|".
	ContextTagName ContextKind = iota + 1
	// ContextAttributeName is a property name: "@Route(pa|".
	ContextAttributeName
	// ContextAttributeValue is a property value: `@Route(path="|")`.
	ContextAttributeValue
	// ContextDefaultValue is the unnamed first value: `@Route("|")`.
	ContextDefaultValue
)

func (k ContextKind) String() string {
	switch k {
	case ContextTagName:
		return "tag-name"
	case ContextAttributeName:
		return "attribute-name"
	case ContextAttributeValue:
		return "attribute-value"
	case ContextDefaultValue:
		return "default-value"
	}

	return "none"
}

// Context is a classified completion request.
type Context struct {
	Cursor  *Node
	Comment *Node
	Tag     *Node
	Schema  *Schema // nil for ContextTagName
	// Property is the property being filled in a ContextAttributeValue.
	Property string
	// Prefix is the text already typed in the slot.
	Prefix string
	Kind   ContextKind
}

// Classify decides which slot cursor occupies. It returns nil when cursor is
// not in an annotation slot, or when the slot needs a schema and the tag's
// name does not resolve to one.
func (e *Engine) Classify(cursor *Node) *Context {
	if cursor == nil {
		return nil
	}

	comment := cursor.ParentOfKind(NodeDocComment)
	if comment == nil {
		return nil
	}

	switch cursor.Kind {
	case NodeTagName:
		if !isPossibleTag(cursor) {
			return nil
		}

		return &Context{
			Kind:    ContextTagName,
			Cursor:  cursor,
			Comment: comment,
			Tag:     cursor.Parent,
			Prefix:  strings.TrimPrefix(cursor.Text, "@"),
		}

	case NodeIdentifier:
		return e.classifyAttributeName(cursor, comment)

	case NodeText, NodeString:
		anchor := e.valueAnchor(cursor)

		if ctx := e.classifyAttributeValue(cursor, anchor, comment); ctx != nil {
			return ctx
		}

		return e.classifyDefaultValue(cursor, anchor, comment)

	case NodeInvalid, NodeDocComment, NodeCommentStart, NodeCommentEnd,
		NodeLeadingAsterisk, NodeWhitespace, NodeTag, NodeAttributeList,
		NodeLParen, NodeRParen, NodeComma, NodeAssign, NodeCollection,
		NodeLBrace, NodeRBrace:
		return nil
	}

	return nil
}

// isPossibleTag reports whether a tag name starts a tag at the beginning of
// a comment line, where only whitespace and a leading asterisk may precede
// it. Tags nested in attribute lists do not qualify.
func isPossibleTag(name *Node) bool {
	tag := name.Parent
	if tag == nil || tag.Kind != NodeTag || name.PrevSibling() != nil {
		return false
	}

	if tag.Parent == nil || tag.Parent.Kind != NodeDocComment {
		return false
	}

	for s := tag.PrevSibling(); s != nil; s = s.PrevSibling() {
		switch s.Kind {
		case NodeWhitespace:
			if strings.Contains(s.Text, "\n") {
				return true
			}
		case NodeLeadingAsterisk, NodeCommentStart:
			return true
		default:
			return false
		}
	}

	return true
}

// valueAnchor returns the node whose siblings describe a value's position
// in an attribute list. Text inside a string literal is lifted to the
// literal when values are wrapped, and values inside a collection are lifted
// to the collection.
func (e *Engine) valueAnchor(cursor *Node) *Node {
	anchor := cursor
	if anchor.Kind == NodeText && e.wrapped && anchor.Parent != nil && anchor.Parent.Kind == NodeString {
		anchor = anchor.Parent
	}

	if anchor.Parent != nil && anchor.Parent.Kind == NodeCollection {
		anchor = anchor.Parent
	}

	return anchor
}

func (e *Engine) classifyAttributeName(cursor, comment *Node) *Context {
	list := cursor.Parent
	if list == nil || list.Kind != NodeAttributeList {
		return nil
	}

	prev := cursor.prevSignificant()
	if prev == nil || (prev.Kind != NodeLParen && prev.Kind != NodeComma) {
		return nil
	}

	tag := list.Parent

	schema := e.ResolveSchema(tag)
	if schema == nil {
		return nil
	}

	return &Context{
		Kind:    ContextAttributeName,
		Cursor:  cursor,
		Comment: comment,
		Tag:     tag,
		Schema:  schema,
		Prefix:  cursor.Text,
	}
}

func (e *Engine) classifyAttributeValue(cursor, anchor, comment *Node) *Context {
	list := anchor.Parent
	if list == nil || list.Kind != NodeAttributeList {
		return nil
	}

	name := anchor.PrevSiblingMatching(
		func(n *Node) bool { return n.Kind == NodeIdentifier },
		func(n *Node) bool { return n.Kind == NodeComma || n.Kind == NodeLParen },
	)
	if name == nil {
		return nil
	}

	tag := list.Parent

	schema := e.ResolveSchema(tag)
	if schema == nil {
		return nil
	}

	return &Context{
		Kind:     ContextAttributeValue,
		Cursor:   cursor,
		Comment:  comment,
		Tag:      tag,
		Schema:   schema,
		Property: name.Text,
		Prefix:   cursor.Value(),
	}
}

func (e *Engine) classifyDefaultValue(cursor, anchor, comment *Node) *Context {
	list := anchor.Parent
	if list == nil || list.Kind != NodeAttributeList {
		return nil
	}

	prev := anchor.prevSignificant()
	if prev == nil || prev.Kind != NodeLParen {
		return nil
	}

	tag := list.Parent

	schema := e.ResolveSchema(tag)
	if schema == nil {
		return nil
	}

	return &Context{
		Kind:    ContextDefaultValue,
		Cursor:  cursor,
		Comment: comment,
		Tag:     tag,
		Schema:  schema,
		Prefix:  cursor.Value(),
	}
}
