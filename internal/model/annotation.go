package model

// Dependency is one token's arc: the 1-based head index (0 is the root) and
// the relation to it
type Dependency struct {
	Head     int    `json:"head"`
	Relation string `json:"relation"`
}

// RoleTuple is one semantic-role argument, flattened with its predicate
type RoleTuple struct {
	Predicate int    `json:"predicate"` // Token index of the predicate
	Role      string `json:"role"`      // Argument role name, e.g. A0, TMP
	Start     int    `json:"start"`     // First token of the argument span
	End       int    `json:"end"`       // Last token of the argument span (inclusive)
}

// Document is the annotation of a single sentence. Fields left empty were
// not requested.
type Document struct {
	Sentence string       `json:"sentence"`
	Tokens   []string     `json:"tokens,omitempty"`
	Tags     []string     `json:"tags,omitempty"`
	Entities []string     `json:"entities,omitempty"`
	Arcs     []Dependency `json:"arcs,omitempty"`
	Roles    []RoleTuple  `json:"roles,omitempty"`
}
