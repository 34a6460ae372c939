package annotation

// CandidateKind is the presentation kind of a [Candidate].
type CandidateKind int

// Candidate kinds.
const (
	CandidateSchema CandidateKind = iota
	CandidateProperty
	CandidateValue
)

func (k CandidateKind) String() string {
	switch k {
	case CandidateSchema:
		return "schema"
	case CandidateProperty:
		return "property"
	case CandidateValue:
		return "value"
	}

	return "unknown"
}

// InsertBehavior names what a host should do after a candidate is chosen.
// The engine never applies it.
type InsertBehavior int

// Insert behaviors.
const (
	InsertNone InsertBehavior = iota
	// InsertTag opens an attribute list after the schema name and imports
	// the schema when needed.
	InsertTag
	// InsertProperty appends `="..."` after a scalar property name.
	InsertProperty
	// InsertArrayProperty appends `={...}` after a collection property name.
	InsertArrayProperty
)

// Candidate is one completion suggestion.
type Candidate struct {
	Label  string         `json:"label"`
	Detail string         `json:"detail,omitempty"`
	Kind   CandidateKind  `json:"kind"`
	Insert InsertBehavior `json:"insert,omitempty"`
}

func schemaCandidate(s *Schema) Candidate {
	return Candidate{
		Label:  s.ShortName(),
		Detail: s.Name,
		Kind:   CandidateSchema,
		Insert: InsertTag,
	}
}

func propertyCandidate(p Property) Candidate {
	c := Candidate{
		Label:  p.Name,
		Detail: p.Kind.String(),
		Kind:   CandidateProperty,
		Insert: InsertProperty,
	}

	if p.Kind == PropertyArray {
		c.Insert = InsertArrayProperty
	}

	return c
}

func valueCandidate(v string) Candidate {
	return Candidate{Label: v, Kind: CandidateValue}
}

// MarshalText implements [encoding.TextMarshaler].
func (k CandidateKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (b InsertBehavior) String() string {
	switch b {
	case InsertNone:
		return "none"
	case InsertTag:
		return "tag"
	case InsertProperty:
		return "property"
	case InsertArrayProperty:
		return "array-property"
	}

	return "unknown"
}

// MarshalText implements [encoding.TextMarshaler].
func (b InsertBehavior) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}
