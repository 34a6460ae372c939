package phpsource

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"

	"go.jacobcolvin.com/annotate/annotation"
	"go.jacobcolvin.com/annotate/annotation/phpdoc"
)

var (
	// ErrReadInput indicates a source file could not be read.
	ErrReadInput = errors.New("read input")
	// ErrParse indicates a source file could not be parsed.
	ErrParse = errors.New("parse source")
)

// Comment is a documentation comment found in a source file.
type Comment struct {
	// Scope holds the namespace and the imports declared before the comment.
	Scope *annotation.Scope
	Text  string
	Start int
	End   int
	// ImportAt is the offset where a new use statement for the comment's
	// namespace can be inserted, or -1 when there is none.
	ImportAt int
	Owner    annotation.OwnerKind
}

// Closed reports whether the comment text ends with "*/".
func (c Comment) Closed() bool {
	return len(c.Text) >= 5 && strings.HasSuffix(c.Text, "*/")
}

// Contains reports whether a cursor at offset is inside the comment body,
// after the opening "/**" and not past the closing "*/".
func (c Comment) Contains(offset int) bool {
	if offset < c.Start+3 {
		return false
	}

	end := c.End
	if c.Closed() {
		end -= 2
	}

	return offset <= end
}

// File is a parsed PHP source file.
type File struct {
	Path         string
	Src          []byte
	Declarations []*annotation.Declaration
	Comments     []Comment
}

// ParseFile parses PHP source into a [File].
func ParseFile(ctx context.Context, path string, src []byte) (*File, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(php.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("%w: %s: empty tree", ErrParse, path)
	}

	w := &walker{
		file:     &File{Path: path, Src: src},
		src:      src,
		scope:    &annotation.Scope{Imports: map[string]string{}},
		importAt: -1,
	}
	w.statements(root)
	w.danglingComment(root)

	return w.file, nil
}

// CommentAt returns the documentation comment containing offset.
func (f *File) CommentAt(offset int) (Comment, bool) {
	for _, c := range f.Comments {
		if c.Contains(offset) {
			return c, true
		}
	}

	return Comment{}, false
}

// Cursor locates the annotation node under offset. It returns nil when
// offset is not inside a documentation comment.
func Cursor(f *File, offset int) *annotation.Node {
	c, ok := f.CommentAt(offset)
	if !ok {
		return nil
	}

	cursor, root := phpdoc.Locate(c.Text, c.Start, offset)
	if root == nil {
		return nil
	}

	root.Owner = c.Owner
	root.Scope = c.Scope

	return cursor
}

type walker struct {
	file     *File
	scope    *annotation.Scope
	src      []byte
	importAt int
}

func (w *walker) text(n *sitter.Node) string {
	return n.Content(w.src)
}

func (w *walker) qualify(name string) string {
	if w.scope.Namespace == "" {
		return name
	}

	return w.scope.Namespace + `\` + name
}

// statements walks a statement list, tracking namespace and imports.
func (w *walker) statements(n *sitter.Node) {
	for i := range int(n.ChildCount()) {
		c := n.Child(i)

		switch c.Type() {
		case "php_tag":
			w.importAt = int(c.EndByte())
		case "namespace_definition":
			w.namespace(c)
		case "namespace_use_declaration":
			w.imports(c)
		case "class_declaration", "interface_declaration", "trait_declaration", "enum_declaration":
			w.classLike(c)
		case "function_definition":
			w.function(c)
		case "comment":
			w.comment(c)
		case "compound_statement":
			w.statements(c)
		}
	}
}

func (w *walker) namespace(n *sitter.Node) {
	name := ""
	if nn := n.ChildByFieldName("name"); nn != nil {
		name = strings.TrimPrefix(w.text(nn), `\`)
	}

	scope := &annotation.Scope{Namespace: name, Imports: map[string]string{}}

	body := n.ChildByFieldName("body")
	if body == nil {
		// Unbraced: applies to every following statement.
		w.scope = scope
		w.importAt = int(n.EndByte())

		return
	}

	outer, outerAt := w.scope, w.importAt
	w.scope, w.importAt = scope, int(body.StartByte())+1
	w.statements(body)
	w.scope, w.importAt = outer, outerAt
}

// imports records use clauses, e.g. "use Foo\Bar as Baz;" and grouped
// "use Foo\{Bar, Baz};". Function and constant imports are ignored.
func (w *walker) imports(n *sitter.Node) {
	w.importAt = int(n.EndByte())

	prefix := ""

	for i := range int(n.ChildCount()) {
		c := n.Child(i)

		switch c.Type() {
		case "function", "const":
			return
		case "namespace_name", "qualified_name", "name":
			prefix = strings.Trim(w.text(c), `\`)
		case "namespace_use_clause":
			w.useClause(c, "")
		case "namespace_use_group":
			for j := range int(c.NamedChildCount()) {
				if g := c.NamedChild(j); strings.HasPrefix(g.Type(), "namespace_use") {
					w.useClause(g, prefix)
				}
			}
		}
	}
}

func (w *walker) useClause(n *sitter.Node, prefix string) {
	var target, alias string

	afterAs := false

	for i := range int(n.ChildCount()) {
		c := n.Child(i)

		switch c.Type() {
		case "as":
			afterAs = true
		case "namespace_aliasing_clause":
			if nn := lastNamed(c); nn != nil {
				alias = w.text(nn)
			}
		case "qualified_name", "name", "namespace_name":
			if afterAs {
				alias = w.text(c)
			} else if target == "" {
				target = strings.Trim(w.text(c), `\`)
			}
		}
	}

	if target == "" {
		return
	}

	if prefix != "" {
		target = prefix + `\` + target
	}

	if alias == "" {
		alias = target[strings.LastIndexByte(target, '\\')+1:]
	}

	w.scope.Imports[strings.ToLower(alias)] = target
}

func (w *walker) classLike(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	doc := w.docBefore(n)

	decl := &annotation.Declaration{
		Name: w.qualify(w.text(nameNode)),
		Doc:  doc,
		Path: w.file.Path,
		Kind: declKind(n.Type()),
	}

	if doc != "" {
		decl.Annotation = phpdoc.HasTag(doc, "Annotation")
		decl.Targets = phpdoc.Targets(doc)
	}

	if body := n.ChildByFieldName("body"); body != nil {
		w.members(body, decl)
	}

	w.file.Declarations = append(w.file.Declarations, decl)
}

func (w *walker) members(body *sitter.Node, decl *annotation.Declaration) {
	for i := range int(body.ChildCount()) {
		c := body.Child(i)

		switch c.Type() {
		case "property_declaration":
			doc := w.docBefore(c)
			for j := range int(c.NamedChildCount()) {
				if el := c.NamedChild(j); el.Type() == "property_element" {
					decl.Fields = append(decl.Fields, w.property(el, doc))
				}
			}
		case "const_declaration":
			doc := w.docBefore(c)
			for j := range int(c.NamedChildCount()) {
				if el := c.NamedChild(j); el.Type() == "const_element" {
					decl.Fields = append(decl.Fields, w.constant(el, doc))
				}
			}
		case "comment":
			w.comment(c)
		}
	}
}

func (w *walker) property(el *sitter.Node, doc string) annotation.Field {
	f := annotation.Field{Doc: doc}

	for i := range int(el.NamedChildCount()) {
		c := el.NamedChild(i)

		switch c.Type() {
		case "variable_name":
			f.Name = strings.TrimPrefix(w.text(c), "$")
		case "property_initializer":
			if v := lastNamed(c); v != nil {
				f.Default = w.value(v)
			}
		default:
			if f.Name != "" && f.Default.Kind == annotation.ValueNone {
				f.Default = w.value(c)
			}
		}
	}

	return f
}

func (w *walker) constant(el *sitter.Node, doc string) annotation.Field {
	f := annotation.Field{Doc: doc, Constant: true}

	for i := range int(el.NamedChildCount()) {
		c := el.NamedChild(i)
		if c.Type() == "name" && f.Name == "" {
			f.Name = w.text(c)

			continue
		}

		if f.Name != "" && f.Default.Kind == annotation.ValueNone {
			f.Default = w.value(c)
		}
	}

	return f
}

func (w *walker) value(n *sitter.Node) annotation.Value {
	v := annotation.Value{Text: w.text(n), Kind: annotation.ValueScalar}
	if n.Type() == "array_creation_expression" {
		v.Kind = annotation.ValueCollection
	}

	return v
}

func (w *walker) function(n *sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}

	w.file.Declarations = append(w.file.Declarations, &annotation.Declaration{
		Name: w.qualify(w.text(nameNode)),
		Doc:  w.docBefore(n),
		Path: w.file.Path,
		Kind: annotation.DeclFunction,
	})

	if body := n.ChildByFieldName("body"); body != nil {
		w.statements(body)
	}
}

// comment records a documentation comment and the declaration it belongs
// to, which is the next sibling when that is a declaration.
func (w *walker) comment(n *sitter.Node) {
	text := w.text(n)
	if !strings.HasPrefix(text, "/**") {
		return
	}

	owner := annotation.OwnerNone
	if next := n.NextSibling(); next != nil {
		owner = ownerKind(next.Type())
	}

	w.file.Comments = append(w.file.Comments, Comment{
		Text:     text,
		Start:    int(n.StartByte()),
		End:      int(n.EndByte()),
		Owner:    owner,
		Scope:    w.snapshot(),
		ImportAt: w.importAt,
	})
}

// snapshot copies the current scope, so later use clauses do not leak into
// comments recorded before them.
func (w *walker) snapshot() *annotation.Scope {
	return &annotation.Scope{
		Namespace: w.scope.Namespace,
		Imports:   maps.Clone(w.scope.Imports),
	}
}

// danglingComment records a documentation comment that is still being
// typed, which runs to the end of the file without a closing "*/". An
// opening "/**" inside a string or another comment does not start one.
func (w *walker) danglingComment(root *sitter.Node) {
	src := string(w.src)

	for end := len(src); ; {
		start := strings.LastIndex(src[:end], "/**")
		if start < 0 || strings.Contains(src[start:], "*/") {
			return
		}

		end = start

		if quoted(descendantsAt(root, start), start) {
			continue
		}

		for _, c := range w.file.Comments {
			if c.Start == start {
				return
			}
		}

		w.file.Comments = append(w.file.Comments, Comment{
			Text:     src[start:],
			Start:    start,
			End:      len(src),
			Owner:    danglingOwner(src[start:]),
			Scope:    w.snapshot(),
			ImportAt: w.importAt,
		})

		return
	}
}

// descendantsAt returns the chain of nodes containing offset, outermost
// first.
func descendantsAt(n *sitter.Node, offset int) []*sitter.Node {
	var path []*sitter.Node

	for n != nil {
		path = append(path, n)

		var next *sitter.Node

		for i := range int(n.ChildCount()) {
			c := n.Child(i)
			if int(c.StartByte()) <= offset && offset < int(c.EndByte()) {
				next = c

				break
			}
		}

		n = next
	}

	return path
}

// quoted reports whether offset lies inside a string literal, inline HTML,
// or a comment that starts before it.
func quoted(path []*sitter.Node, offset int) bool {
	for _, n := range path {
		switch n.Type() {
		case "string", "encapsed_string", "heredoc", "nowdoc", "shell_command_expression", "text":
			return true
		case "comment":
			if int(n.StartByte()) < offset {
				return true
			}
		}
	}

	return false
}

// danglingOwner classifies the declaration written after an unterminated
// comment: the first line that does not continue the comment. The parse
// tree past an unclosed comment is not reliable.
func danglingOwner(text string) annotation.OwnerKind {
	_, rest, ok := strings.Cut(text, "\n")
	if !ok {
		return annotation.OwnerNone
	}

	for line := range strings.Lines(rest) {
		line = strings.TrimSpace(line)
		if line == "" || strings.ContainsRune("*@", rune(line[0])) || strings.HasPrefix(line, "#[") {
			continue
		}

		return declOwner(line)
	}

	return annotation.OwnerNone
}

// declOwner classifies a declaration from its leading keywords. A modifier
// before "function" or a variable marks a class member.
func declOwner(line string) annotation.OwnerKind {
	member := false

	for _, word := range strings.Fields(line) {
		switch strings.ToLower(word) {
		case "public", "protected", "private", "static", "var", "abstract", "final", "readonly":
			member = true
		case "class", "interface", "trait", "enum":
			return annotation.OwnerClass
		case "function":
			if member {
				return annotation.OwnerMethod
			}

			return annotation.OwnerFunction
		case "const":
			return annotation.OwnerConstant
		default:
			if member && strings.HasPrefix(word, "$") {
				return annotation.OwnerProperty
			}

			if !member {
				return annotation.OwnerNone
			}
		}
	}

	return annotation.OwnerNone
}

func (w *walker) docBefore(n *sitter.Node) string {
	prev := n.PrevSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}

	text := w.text(prev)
	if !strings.HasPrefix(text, "/**") {
		return ""
	}

	return text
}

func lastNamed(n *sitter.Node) *sitter.Node {
	count := int(n.NamedChildCount())
	if count == 0 {
		return nil
	}

	return n.NamedChild(count - 1)
}

func declKind(nodeType string) annotation.DeclKind {
	switch nodeType {
	case "interface_declaration":
		return annotation.DeclInterface
	case "trait_declaration":
		return annotation.DeclTrait
	case "enum_declaration":
		return annotation.DeclEnum
	}

	return annotation.DeclClass
}

func ownerKind(nodeType string) annotation.OwnerKind {
	switch nodeType {
	case "class_declaration", "interface_declaration", "trait_declaration", "enum_declaration":
		return annotation.OwnerClass
	case "method_declaration":
		return annotation.OwnerMethod
	case "property_declaration":
		return annotation.OwnerProperty
	case "function_definition":
		return annotation.OwnerFunction
	case "const_declaration":
		return annotation.OwnerConstant
	}

	return annotation.OwnerNone
}
