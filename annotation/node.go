package annotation

import "strings"

// NodeKind identifies the syntactic role of a [Node]. The set is closed:
// hosts map their own tree representation onto these kinds.
type NodeKind int

// Node kinds.
const (
	NodeInvalid NodeKind = iota
	NodeDocComment
	NodeCommentStart
	NodeCommentEnd
	NodeLeadingAsterisk
	NodeWhitespace
	NodeText
	NodeTag
	NodeTagName
	NodeAttributeList
	NodeLParen
	NodeRParen
	NodeComma
	NodeAssign
	NodeIdentifier
	NodeString
	NodeCollection
	NodeLBrace
	NodeRBrace
)

var nodeKindNames = [...]string{
	NodeInvalid:         "invalid",
	NodeDocComment:      "doc-comment",
	NodeCommentStart:    "comment-start",
	NodeCommentEnd:      "comment-end",
	NodeLeadingAsterisk: "leading-asterisk",
	NodeWhitespace:      "whitespace",
	NodeText:            "text",
	NodeTag:             "tag",
	NodeTagName:         "tag-name",
	NodeAttributeList:   "attribute-list",
	NodeLParen:          "lparen",
	NodeRParen:          "rparen",
	NodeComma:           "comma",
	NodeAssign:          "assign",
	NodeIdentifier:      "identifier",
	NodeString:          "string",
	NodeCollection:      "collection",
	NodeLBrace:          "lbrace",
	NodeRBrace:          "rbrace",
}

func (k NodeKind) String() string {
	if k < 0 || int(k) >= len(nodeKindNames) {
		return nodeKindNames[NodeInvalid]
	}

	return nodeKindNames[k]
}

// OwnerKind is the structural kind of the declaration a documentation
// comment is attached to.
type OwnerKind int

// Owner kinds.
const (
	OwnerNone OwnerKind = iota
	OwnerClass
	OwnerMethod
	OwnerProperty
	OwnerFunction
	OwnerConstant
)

// Scope is the lexical environment of a documentation comment, used by
// [Resolver] implementations to turn a tag name into a qualified name.
type Scope struct {
	// Imports maps a lowercased alias to the qualified name it imports.
	Imports   map[string]string
	Namespace string
}

// Node is one element of an annotation syntax tree. Trees are built by host
// adapters (see the phpdoc package) and are read-only once built.
type Node struct {
	Parent   *Node
	Scope    *Scope // set on NodeDocComment only
	Text     string
	Children []*Node
	Kind     NodeKind
	Owner    OwnerKind // set on NodeDocComment only
	Start    int
	End      int
}

// NewNode returns a detached node.
func NewNode(kind NodeKind, text string, start, end int) *Node {
	return &Node{Kind: kind, Text: text, Start: start, End: end}
}

// Append adds children to n and sets their parent. It returns n.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		c.Parent = n
		n.Children = append(n.Children, c)
	}

	return n
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// index returns the position of n among its parent's children, or -1.
func (n *Node) index() int {
	if n.Parent == nil {
		return -1
	}

	for i, c := range n.Parent.Children {
		if c == n {
			return i
		}
	}

	return -1
}

// PrevSibling returns the sibling immediately before n, or nil.
func (n *Node) PrevSibling() *Node {
	i := n.index()
	if i <= 0 {
		return nil
	}

	return n.Parent.Children[i-1]
}

// NextSibling returns the sibling immediately after n, or nil.
func (n *Node) NextSibling() *Node {
	i := n.index()
	if i < 0 || i+1 >= len(n.Parent.Children) {
		return nil
	}

	return n.Parent.Children[i+1]
}

// ParentOfKind returns the closest strict ancestor of n with the given kind.
func (n *Node) ParentOfKind(kind NodeKind) *Node {
	if n == nil {
		return nil
	}

	for p := n.Parent; p != nil; p = p.Parent {
		if p.Kind == kind {
			return p
		}
	}

	return nil
}

// PrevSiblingMatching walks backwards from n over its siblings and returns
// the first one accepted by match. The walk ends early, returning nil, at a
// sibling accepted by stop. A nil stop never ends the walk.
func (n *Node) PrevSiblingMatching(match, stop func(*Node) bool) *Node {
	for s := n.PrevSibling(); s != nil; s = s.PrevSibling() {
		if match(s) {
			return s
		}

		if stop != nil && stop(s) {
			return nil
		}
	}

	return nil
}

// prevSignificant returns the closest previous sibling that is not
// whitespace or a leading asterisk.
func (n *Node) prevSignificant() *Node {
	for s := n.PrevSibling(); s != nil; s = s.PrevSibling() {
		if !s.isTrivia() {
			return s
		}
	}

	return nil
}

func (n *Node) isTrivia() bool {
	return n.Kind == NodeWhitespace || n.Kind == NodeLeadingAsterisk
}

// FirstChild returns the first direct child of n with the given kind.
func (n *Node) FirstChild(kind NodeKind) *Node {
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}

	return nil
}

// Leaves returns the leaf nodes under n in document order.
func (n *Node) Leaves() []*Node {
	var out []*Node

	n.Walk(func(c *Node) bool {
		if c.IsLeaf() {
			out = append(out, c)
		}

		return true
	})

	return out
}

// Walk visits n and its descendants depth-first in document order. A false
// return from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}

	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// LeafAt returns the leaf whose span contains offset. When offset sits on
// the boundary between two leaves, the leaf ending at offset is preferred
// unless it is trivia, matching the "token before the caret" convention
// editors use for completion.
func (n *Node) LeafAt(offset int) *Node {
	var found *Node

	for _, l := range n.Leaves() {
		if offset < l.Start || offset > l.End {
			continue
		}

		if found == nil {
			found = l

			continue
		}

		if found.End == offset && found.isTrivia() {
			found = l
		}
	}

	return found
}

// TagName returns the name of a NodeTag without its leading "@".
func (n *Node) TagName() string {
	if n == nil || n.Kind != NodeTag {
		return ""
	}

	name := n.FirstChild(NodeTagName)
	if name == nil {
		return ""
	}

	return strings.TrimPrefix(name.Text, "@")
}

// Value returns the literal value of a string, text, or identifier node,
// with string quotes removed.
func (n *Node) Value() string {
	if n == nil {
		return ""
	}

	if n.Kind == NodeString {
		if t := n.FirstChild(NodeText); t != nil {
			return t.Text
		}

		return ""
	}

	return n.Text
}

// String renders the subtree as an S-expression, for debugging and tests.
func (n *Node) String() string {
	var sb strings.Builder

	n.writeTo(&sb)

	return sb.String()
}

func (n *Node) writeTo(sb *strings.Builder) {
	sb.WriteByte('(')
	sb.WriteString(n.Kind.String())

	if n.IsLeaf() && n.Text != "" {
		sb.WriteString(" ")
		sb.WriteString(quoteText(n.Text))
	}

	for _, c := range n.Children {
		sb.WriteByte(' ')
		c.writeTo(sb)
	}

	sb.WriteByte(')')
}

func quoteText(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", `\r`, "\n", `\n`, "\t", `\t`)

	return `"` + r.Replace(s) + `"`
}
