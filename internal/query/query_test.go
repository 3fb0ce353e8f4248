package query

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPredicate(t *testing.T, pattern string, target Target, mode MatchMode) Predicate {
	t.Helper()
	p, err := NewPredicate(pattern, target, mode)
	require.NoError(t, err)
	return p
}

func TestListQueries_RejectEmpty(t *testing.T) {
	_, err := NewDatasetIDQuery(nil)
	assert.True(t, IsValidationError(err))

	_, err = NewReactionIDQuery([]string{})
	assert.True(t, IsValidationError(err))

	_, err = NewDOIQuery(nil)
	assert.True(t, IsValidationError(err))

	_, err = NewReactionIDQuery([]string{"ord-1", " "})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "position 1")
}

func TestListQueries_CopyInput(t *testing.T) {
	ids := []string{"ord-1", "ord-2"}
	q, err := NewReactionIDQuery(ids)
	require.NoError(t, err)

	ids[0] = "mutated"
	assert.Equal(t, []string{"ord-1", "ord-2"}, q.IDs())

	got := q.IDs()
	got[1] = "mutated"
	assert.Equal(t, []string{"ord-1", "ord-2"}, q.IDs())
}

func TestReactionSmartsQuery(t *testing.T) {
	q, err := NewReactionSmartsQuery("[C:1]=[O:2]>>[C:1][O:2]")
	require.NoError(t, err)
	assert.Equal(t, "[C:1]=[O:2]>>[C:1][O:2]", q.Pattern())
	assert.Equal(t, KindReactionSmarts, q.Kind())

	_, err = NewReactionSmartsQuery("")
	assert.True(t, IsValidationError(err))
}

func TestReactionComponentQuery_Defaults(t *testing.T) {
	p := mustPredicate(t, "CCO", TargetInput, MatchExact)
	q, err := NewReactionComponentQuery([]Predicate{p})
	require.NoError(t, err)

	assert.False(t, q.DoChiralSSS())
	assert.Equal(t, DefaultTanimotoThreshold, q.TanimotoThreshold())
	assert.Equal(t, []Predicate{p}, q.Predicates())
}

func TestReactionComponentQuery_Threshold(t *testing.T) {
	p := mustPredicate(t, "c1ccccc1O", TargetOutput, MatchSimilarity)

	for _, threshold := range []float64{0, 0.25, 0.5, 0.99, 1} {
		q, err := NewReactionComponentQuery([]Predicate{p}, WithTanimotoThreshold(threshold))
		require.NoError(t, err, "threshold %v", threshold)
		assert.Equal(t, threshold, q.TanimotoThreshold())
	}

	for _, threshold := range []float64{1.5, -0.1, math.NaN(), math.Inf(1)} {
		_, err := NewReactionComponentQuery([]Predicate{p}, WithTanimotoThreshold(threshold))
		require.Error(t, err, "threshold %v", threshold)
		assert.True(t, IsValidationError(err))
	}
}

func TestReactionComponentQuery_Invalid(t *testing.T) {
	_, err := NewReactionComponentQuery(nil)
	assert.True(t, IsValidationError(err))

	_, err = NewReactionComponentQuery([]Predicate{{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NewPredicate")
}

func TestReactionComponentQuery_PreservesOrder(t *testing.T) {
	preds := []Predicate{
		mustPredicate(t, "CCO", TargetInput, MatchExact),
		mustPredicate(t, "c1ccccc1", TargetOutput, MatchSubstructure),
		mustPredicate(t, "[OH]", TargetInput, MatchSMARTS),
	}
	q, err := NewReactionComponentQuery(preds, WithChiralSSS(true))
	require.NoError(t, err)

	assert.True(t, q.DoChiralSSS())
	assert.Equal(t, preds, q.Predicates())
}

func TestRandomSampleQuery(t *testing.T) {
	q, err := NewRandomSampleQuery(100)
	require.NoError(t, err)
	assert.Equal(t, 100, q.N())

	for _, n := range []int{0, -1} {
		_, err := NewRandomSampleQuery(n)
		assert.True(t, IsValidationError(err))
	}
}

func TestErrorKinds(t *testing.T) {
	verr := NewValidationError("bad %s", "input")
	assert.Equal(t, "bad input", verr.Error())
	assert.True(t, IsQueryError(verr))
	assert.False(t, IsUnavailable(verr))

	cause := errors.New("connection refused")
	uerr := &UnavailableError{Op: "acquire", Cause: cause}
	assert.True(t, IsUnavailable(uerr))
	assert.False(t, IsQueryError(uerr))
	assert.True(t, uerr.Retryable())
	assert.ErrorIs(t, uerr, cause)

	eerr := &Error{Code: ErrCodeExecution, Message: "query failed", Pattern: "C1", Cause: cause}
	assert.Equal(t, `query failed (pattern="C1"): connection refused`, eerr.Error())
	assert.True(t, IsExecutionError(eerr))
	assert.False(t, IsValidationError(eerr))
}

func TestDescribe(t *testing.T) {
	p := mustPredicate(t, "CCO", TargetInput, MatchSimilarity)
	q, err := NewReactionComponentQuery([]Predicate{p}, WithTanimotoThreshold(0.7))
	require.NoError(t, err)

	d := Describe(q)
	assert.Equal(t, "components", d["kind"])
	assert.Equal(t, 0.7, d["similarity"])
	assert.Equal(t, false, d["use_stereochemistry"])
	assert.Equal(t, []map[string]string{{"pattern": "CCO", "target": "input", "mode": "similarity"}}, d["components"])

	sample, err := NewRandomSampleQuery(5)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"kind": "random_sample", "sample_size": 5}, Describe(sample))
}
