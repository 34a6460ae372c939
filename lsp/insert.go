package lsp

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"go.jacobcolvin.com/annotate/annotation"
	"go.jacobcolvin.com/annotate/annotation/phpsource"
)

// request is one completion request, with the document state needed to
// apply insert behaviors.
type request struct {
	project    *phpsource.Project
	text       string
	candidates []annotation.Candidate
	comment    phpsource.Comment
	offset     int
}

// items converts the candidates to completion items.
func (r *request) items() []protocol.CompletionItem {
	items := make([]protocol.CompletionItem, 0, len(r.candidates))

	for _, c := range r.candidates {
		item := completionItem(c)
		if c.Insert == annotation.InsertTag {
			r.tagInsert(&item, c)
		}

		items = append(items, item)
	}

	return items
}

// tagInsert completes a schema name with an attribute list and places the
// caret inside it. A schema the comment cannot reach by its short name is
// imported with a use statement, or written fully qualified when the short
// name already refers to something else.
func (r *request) tagInsert(item *protocol.CompletionItem, c annotation.Candidate) {
	name := c.Label

	if !r.reaches(c.Label, c.Detail) {
		if edit, ok := r.importEdit(c.Label, c.Detail); ok {
			item.AdditionalTextEdits = []protocol.TextEdit{edit}
		} else {
			name = `\` + c.Detail
			filter := c.Label
			item.FilterText = &filter
		}
	}

	if r.hasAttributeList() {
		if name != c.Label {
			item.InsertText = &name
		}

		return
	}

	text := escapeSnippet(name) + "($0)"
	format := protocol.InsertTextFormatSnippet
	item.InsertText = &text
	item.InsertTextFormat = &format
}

// reaches reports whether name resolves to exactly the schema fqn from the
// comment.
func (r *request) reaches(name, fqn string) bool {
	if r.project == nil {
		return false
	}

	decls := r.project.Resolve(name, r.comment.Scope)

	return len(decls) == 1 && strings.EqualFold(strings.TrimPrefix(decls[0].Name, `\`), fqn)
}

// importEdit returns an edit adding "use fqn;" to the comment's namespace.
// It fails when the comment has no place for imports, or when name is
// already imported or resolves to another schema.
func (r *request) importEdit(name, fqn string) (protocol.TextEdit, bool) {
	at := r.comment.ImportAt
	if at < 0 || at > len(r.text) {
		return protocol.TextEdit{}, false
	}

	if scope := r.comment.Scope; scope != nil {
		if _, taken := scope.Imports[strings.ToLower(name)]; taken {
			return protocol.TextEdit{}, false
		}
	}

	if r.project != nil && len(r.project.Resolve(name, r.comment.Scope)) > 0 {
		return protocol.TextEdit{}, false
	}

	pos := Position(r.text, at)

	return protocol.TextEdit{
		Range:   protocol.Range{Start: pos, End: pos},
		NewText: "\nuse " + fqn + ";",
	}, true
}

// hasAttributeList reports whether the tag name under the cursor is already
// followed by "(".
func (r *request) hasAttributeList() bool {
	i := r.offset
	for i < len(r.text) && isNameByte(r.text[i]) {
		i++
	}

	return i < len(r.text) && r.text[i] == '('
}
