package query

import (
	"fmt"
	"strings"
)

// Target selects which side of a reaction a predicate matches against.
type Target int

const (
	// TargetInput matches reaction inputs (reactants, reagents, solvents, ...).
	TargetInput Target = iota + 1
	// TargetOutput matches reaction outcome products.
	TargetOutput
)

var targetNames = map[string]Target{
	"input":  TargetInput,
	"output": TargetOutput,
}

// TargetFromName resolves a case-sensitive target name.
func TargetFromName(name string) (Target, error) {
	if t, ok := targetNames[name]; ok {
		return t, nil
	}
	return 0, NewValidationError("unknown target: %s", name)
}

// String returns the target name accepted by TargetFromName.
func (t Target) String() string {
	switch t {
	case TargetInput:
		return "input"
	case TargetOutput:
		return "output"
	default:
		return fmt.Sprintf("Target(%d)", int(t))
	}
}

func (t Target) valid() bool {
	return t == TargetInput || t == TargetOutput
}

// MatchMode selects how a predicate pattern is compared to stored structures.
type MatchMode int

const (
	// MatchExact requires structural equality.
	MatchExact MatchMode = iota + 1
	// MatchSubstructure requires the pattern to be contained in the structure.
	MatchSubstructure
	// MatchSimilarity requires fingerprint similarity above a threshold.
	MatchSimilarity
	// MatchSMARTS treats the pattern as a SMARTS query.
	MatchSMARTS
)

var modeNames = map[string]MatchMode{
	"exact":        MatchExact,
	"substructure": MatchSubstructure,
	"similarity":   MatchSimilarity,
	"smarts":       MatchSMARTS,
}

// MatchModeFromName resolves a case-sensitive mode name.
func MatchModeFromName(name string) (MatchMode, error) {
	if m, ok := modeNames[name]; ok {
		return m, nil
	}
	return 0, NewValidationError("unknown mode: %s", name)
}

// String returns the mode name accepted by MatchModeFromName.
func (m MatchMode) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchSubstructure:
		return "substructure"
	case MatchSimilarity:
		return "similarity"
	case MatchSMARTS:
		return "smarts"
	default:
		return fmt.Sprintf("MatchMode(%d)", int(m))
	}
}

func (m MatchMode) valid() bool {
	return m >= MatchExact && m <= MatchSMARTS
}

// Predicate is one component match criterion. The zero value is not valid;
// use NewPredicate or ParsePredicate.
type Predicate struct {
	pattern string
	target  Target
	mode    MatchMode
}

// NewPredicate validates and creates a Predicate.
// Pattern syntax is not checked here; the store rejects patterns it cannot parse.
func NewPredicate(pattern string, target Target, mode MatchMode) (Predicate, error) {
	if strings.TrimSpace(pattern) == "" {
		return Predicate{}, NewValidationError("predicate pattern cannot be empty")
	}
	if !target.valid() {
		return Predicate{}, NewValidationError("unknown target: %s", target)
	}
	if !mode.valid() {
		return Predicate{}, NewValidationError("unknown mode: %s", mode)
	}
	return Predicate{pattern: pattern, target: target, mode: mode}, nil
}

// ParsePredicate parses the "pattern;target;mode" token form. The mode may be
// omitted, in which case it is exact.
//
// Tokens are taken from the right, so a SMARTS pattern may itself contain ';'.
func ParsePredicate(token string) (Predicate, error) {
	parts := strings.Split(token, ";")
	if len(parts) < 2 {
		return Predicate{}, NewValidationError("invalid component %q: want pattern;target[;mode]", token)
	}

	last := parts[len(parts)-1]
	if mode, ok := modeNames[last]; ok && len(parts) >= 3 {
		target, err := TargetFromName(parts[len(parts)-2])
		if err != nil {
			return Predicate{}, err
		}
		return NewPredicate(strings.Join(parts[:len(parts)-2], ";"), target, mode)
	}

	target, err := TargetFromName(last)
	if err != nil {
		if len(parts) >= 3 {
			// Both trailing tokens present but the mode is unknown.
			if _, terr := TargetFromName(parts[len(parts)-2]); terr == nil {
				return Predicate{}, NewValidationError("unknown mode: %s", last)
			}
		}
		return Predicate{}, err
	}
	return NewPredicate(strings.Join(parts[:len(parts)-1], ";"), target, MatchExact)
}

// Pattern returns the pattern string.
func (p Predicate) Pattern() string { return p.pattern }

// Target returns the reaction role the predicate matches.
func (p Predicate) Target() Target { return p.target }

// Mode returns the matching mode.
func (p Predicate) Mode() MatchMode { return p.mode }

// String returns the "pattern;target;mode" token form.
func (p Predicate) String() string {
	return fmt.Sprintf("%s;%s;%s", p.pattern, p.target, p.mode)
}
