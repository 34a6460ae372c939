package phpdoc

import (
	"strings"

	"go.jacobcolvin.com/annotate/annotation"
)

// Tags returns the top-level tags of a documentation comment with the given
// name, in order. Nested tags are not included.
func Tags(root *annotation.Node, name string) []*annotation.Node {
	var out []*annotation.Node

	for _, c := range root.Children {
		if c.Kind == annotation.NodeTag && c.TagName() == name {
			out = append(out, c)
		}
	}

	return out
}

// HasTag reports whether doc has a top-level tag with the given name, such
// as "Annotation".
func HasTag(doc, name string) bool {
	return len(Tags(Parse(doc, 0), name)) > 0
}

// TagValues returns the literal values in the attribute lists of every
// top-level tag with the given name, including values inside collections.
// Property names and assignments are skipped.
func TagValues(doc, name string) []string {
	return tagValues(Parse(doc, 0), name)
}

func tagValues(root *annotation.Node, name string) []string {
	var out []string

	for _, tag := range Tags(root, name) {
		list := tag.FirstChild(annotation.NodeAttributeList)
		if list == nil {
			continue
		}

		out = append(out, listValues(list)...)
	}

	return out
}

func listValues(list *annotation.Node) []string {
	var out []string

	for _, c := range list.Children {
		switch c.Kind {
		case annotation.NodeString, annotation.NodeText:
			out = append(out, c.Value())
		case annotation.NodeIdentifier:
			// Unquoted constants such as @Target(CLASS), but not property
			// names such as @Enum(value={...}).
			if !followedByAssign(c) {
				out = append(out, c.Text)
			}
		case annotation.NodeCollection:
			out = append(out, listValues(c)...)
		}
	}

	return out
}

// Targets reads the declared target restriction from a schema's
// documentation, e.g. @Target("CLASS") or @Target({"METHOD", "PROPERTY"}).
// It returns nil when no @Target tag is present, and a single
// [annotation.TargetUnknown] when the tag names nothing.
func Targets(doc string) []annotation.Target {
	root := Parse(doc, 0)

	if len(Tags(root, "Target")) == 0 {
		return nil
	}

	values := tagValues(root, "Target")
	if len(values) == 0 {
		return []annotation.Target{annotation.TargetUnknown}
	}

	targets := make([]annotation.Target, 0, len(values))
	for _, v := range values {
		t := annotation.ParseTarget(v)
		if t == annotation.TargetUndefined {
			t = annotation.TargetUnknown
		}

		targets = append(targets, t)
	}

	return targets
}

func followedByAssign(n *annotation.Node) bool {
	for s := n.NextSibling(); s != nil; s = s.NextSibling() {
		switch s.Kind {
		case annotation.NodeWhitespace, annotation.NodeLeadingAsterisk:
			continue
		case annotation.NodeAssign:
			return true
		}

		return false
	}

	return false
}

// Summary returns the first paragraph of free text in a documentation
// comment, joined into one line. Text after the first tag is ignored.
func Summary(doc string) string {
	doc = strings.TrimSuffix(strings.TrimPrefix(doc, "/**"), "*/")

	var words []string

	for line := range strings.Lines(doc) {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "*"))

		if strings.HasPrefix(line, "@") {
			break
		}

		if line == "" {
			if len(words) > 0 {
				break
			}

			continue
		}

		words = append(words, line)
	}

	return strings.Join(words, " ")
}
