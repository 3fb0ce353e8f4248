package query

import (
	"math"
	"strings"
)

// Kind names a query variant. It is stable and used in logs, metrics and
// Describe output.
type Kind string

const (
	KindDatasetIDs     Kind = "dataset_ids"
	KindReactionIDs    Kind = "reaction_ids"
	KindReactionSmarts Kind = "reaction_smarts"
	KindDOIs           Kind = "dois"
	KindComponents     Kind = "components"
	KindRandomSample   Kind = "random_sample"
)

// DefaultTanimotoThreshold is the similarity cutoff used when none is given.
const DefaultTanimotoThreshold = 0.5

// Query is one search request shape.
//
// This is a sealed interface - only types in this package implement it.
// Backends switch over the concrete types; see package querysql.
type Query interface {
	// Kind returns the variant name.
	Kind() Kind

	queryNode() // Marker method - seals interface to this package
}

// DatasetIDQuery matches reactions whose dataset id is in the list.
type DatasetIDQuery struct {
	ids []string
}

// NewDatasetIDQuery creates a DatasetIDQuery. The list must be non-empty.
func NewDatasetIDQuery(ids []string) (*DatasetIDQuery, error) {
	clean, err := checkList("dataset id", ids)
	if err != nil {
		return nil, err
	}
	return &DatasetIDQuery{ids: clean}, nil
}

// IDs returns a copy of the dataset ids.
func (q *DatasetIDQuery) IDs() []string { return cloneStrings(q.ids) }

func (q *DatasetIDQuery) Kind() Kind { return KindDatasetIDs }
func (*DatasetIDQuery) queryNode() {}

// ReactionIDQuery matches reactions whose id is in the list.
type ReactionIDQuery struct {
	ids []string
}

// NewReactionIDQuery creates a ReactionIDQuery. The list must be non-empty.
func NewReactionIDQuery(ids []string) (*ReactionIDQuery, error) {
	clean, err := checkList("reaction id", ids)
	if err != nil {
		return nil, err
	}
	return &ReactionIDQuery{ids: clean}, nil
}

// IDs returns a copy of the reaction ids.
func (q *ReactionIDQuery) IDs() []string { return cloneStrings(q.ids) }

func (q *ReactionIDQuery) Kind() Kind { return KindReactionIDs }
func (*ReactionIDQuery) queryNode() {}

// ReactionSmartsQuery matches reactions whose whole transformation matches a
// reaction SMARTS pattern.
type ReactionSmartsQuery struct {
	pattern string
}

// NewReactionSmartsQuery creates a ReactionSmartsQuery.
func NewReactionSmartsQuery(pattern string) (*ReactionSmartsQuery, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, NewValidationError("reaction SMARTS cannot be empty")
	}
	return &ReactionSmartsQuery{pattern: pattern}, nil
}

// Pattern returns the reaction SMARTS.
func (q *ReactionSmartsQuery) Pattern() string { return q.pattern }

func (q *ReactionSmartsQuery) Kind() Kind { return KindReactionSmarts }
func (*ReactionSmartsQuery) queryNode() {}

// DOIQuery matches reactions published under one of the given DOIs.
type DOIQuery struct {
	dois []string
}

// NewDOIQuery creates a DOIQuery. The list must be non-empty.
func NewDOIQuery(dois []string) (*DOIQuery, error) {
	clean, err := checkList("DOI", dois)
	if err != nil {
		return nil, err
	}
	return &DOIQuery{dois: clean}, nil
}

// DOIs returns a copy of the DOIs.
func (q *DOIQuery) DOIs() []string { return cloneStrings(q.dois) }

func (q *DOIQuery) Kind() Kind { return KindDOIs }
func (*DOIQuery) queryNode() {}

// ReactionComponentQuery matches reactions satisfying every predicate.
//
// DoChiralSSS only affects substructure predicates; TanimotoThreshold only
// affects similarity predicates.
type ReactionComponentQuery struct {
	predicates        []Predicate
	doChiralSSS       bool
	tanimotoThreshold float64
}

// ComponentOption configures a ReactionComponentQuery.
type ComponentOption func(*ReactionComponentQuery)

// WithChiralSSS enables chirality-aware substructure matching.
func WithChiralSSS(enabled bool) ComponentOption {
	return func(q *ReactionComponentQuery) { q.doChiralSSS = enabled }
}

// WithTanimotoThreshold sets the similarity cutoff. Must be in [0, 1].
func WithTanimotoThreshold(threshold float64) ComponentOption {
	return func(q *ReactionComponentQuery) { q.tanimotoThreshold = threshold }
}

// NewReactionComponentQuery creates a conjunctive component query.
func NewReactionComponentQuery(predicates []Predicate, opts ...ComponentOption) (*ReactionComponentQuery, error) {
	if len(predicates) == 0 {
		return nil, NewValidationError("component query requires at least one predicate")
	}
	for i, p := range predicates {
		if p.pattern == "" || !p.target.valid() || !p.mode.valid() {
			return nil, NewValidationError("predicate %d was not built with NewPredicate", i)
		}
	}

	q := &ReactionComponentQuery{
		predicates:        append([]Predicate(nil), predicates...),
		tanimotoThreshold: DefaultTanimotoThreshold,
	}
	for _, opt := range opts {
		opt(q)
	}

	if math.IsNaN(q.tanimotoThreshold) || q.tanimotoThreshold < 0 || q.tanimotoThreshold > 1 {
		return nil, NewValidationError("tanimoto threshold must be in [0, 1], got %v", q.tanimotoThreshold)
	}
	return q, nil
}

// Predicates returns a copy of the predicates in their original order.
func (q *ReactionComponentQuery) Predicates() []Predicate {
	return append([]Predicate(nil), q.predicates...)
}

// DoChiralSSS reports whether substructure matching is chirality-aware.
func (q *ReactionComponentQuery) DoChiralSSS() bool { return q.doChiralSSS }

// TanimotoThreshold returns the similarity cutoff.
func (q *ReactionComponentQuery) TanimotoThreshold() float64 { return q.tanimotoThreshold }

func (q *ReactionComponentQuery) Kind() Kind { return KindComponents }
func (*ReactionComponentQuery) queryNode() {}

// RandomSampleQuery returns up to N arbitrary reactions.
type RandomSampleQuery struct {
	n int
}

// NewRandomSampleQuery creates a RandomSampleQuery. n must be positive.
func NewRandomSampleQuery(n int) (*RandomSampleQuery, error) {
	if n <= 0 {
		return nil, NewValidationError("sample size must be positive, got %d", n)
	}
	return &RandomSampleQuery{n: n}, nil
}

// N returns the sample size.
func (q *RandomSampleQuery) N() int { return q.n }

func (q *RandomSampleQuery) Kind() Kind { return KindRandomSample }
func (*RandomSampleQuery) queryNode() {}

// checkList rejects empty lists and blank entries, and returns a private copy.
func checkList(what string, values []string) ([]string, error) {
	if len(values) == 0 {
		return nil, NewValidationError("%s list cannot be empty", what)
	}
	for i, v := range values {
		if strings.TrimSpace(v) == "" {
			return nil, NewValidationError("%s at position %d is empty", what, i)
		}
	}
	return cloneStrings(values), nil
}

func cloneStrings(s []string) []string {
	return append([]string(nil), s...)
}
