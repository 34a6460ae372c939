package annotation

import "strings"

// Target is a kind of code element an annotation may be attached to. It is
// used both as a schema's declared restriction and as the classification of
// the declaration a documentation comment belongs to.
type Target int

// Targets.
const (
	TargetUndefined Target = iota
	TargetUnknown
	TargetClass
	TargetMethod
	TargetProperty
	TargetAnnotation
	TargetAll
)

var targetNames = [...]string{
	TargetUndefined:  "UNDEFINED",
	TargetUnknown:    "UNKNOWN",
	TargetClass:      "CLASS",
	TargetMethod:     "METHOD",
	TargetProperty:   "PROPERTY",
	TargetAnnotation: "ANNOTATION",
	TargetAll:        "ALL",
}

func (t Target) String() string {
	if t < 0 || int(t) >= len(targetNames) {
		return targetNames[TargetUnknown]
	}

	return targetNames[t]
}

// ParseTarget maps a declared target name to a [Target], ignoring case and
// surrounding quotes. An empty name is [TargetUndefined]; a name that is not
// recognized is [TargetUnknown].
func ParseTarget(name string) Target {
	name = strings.Trim(strings.TrimSpace(name), `"'`)
	if name == "" {
		return TargetUndefined
	}

	for t, n := range targetNames {
		if strings.EqualFold(n, name) {
			return Target(t)
		}
	}

	return TargetUnknown
}

// GetAllTargetStrings returns the names of all targets, in declaration order.
func GetAllTargetStrings() []string {
	out := make([]string, len(targetNames))
	copy(out, targetNames[:])

	return out
}

// isWildcard reports whether a declared target matches any declaration kind.
// UNKNOWN and UNDEFINED only do so under the permissive policy.
func (t Target) isWildcard(strict bool) bool {
	switch t {
	case TargetAll:
		return true
	case TargetUnknown, TargetUndefined:
		return !strict
	default:
		return false
	}
}

// Permits reports whether a schema declaring the given targets may annotate
// a declaration of the given kind. An empty declaration list counts as
// [TargetUndefined].
//
// ALL always matches. UNKNOWN and UNDEFINED match everything unless strict is
// set.
func Permits(declared []Target, kind Target, strict bool) bool {
	if len(declared) == 0 {
		return TargetUndefined.isWildcard(strict)
	}

	for _, t := range declared {
		if t.isWildcard(strict) || t == kind {
			return true
		}
	}

	return false
}

// OwnerTarget classifies the declaration a documentation comment belongs
// to. It reports false when comment is not a documentation comment or its
// owner has no target kind.
func OwnerTarget(comment *Node) (Target, bool) {
	if comment == nil || comment.Kind != NodeDocComment {
		return TargetUndefined, false
	}

	switch comment.Owner {
	case OwnerClass:
		return TargetClass, true
	case OwnerMethod:
		return TargetMethod, true
	case OwnerProperty:
		return TargetProperty, true
	case OwnerNone, OwnerFunction, OwnerConstant:
		return TargetUndefined, false
	}

	return TargetUndefined, false
}
