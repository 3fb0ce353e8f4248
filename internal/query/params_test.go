package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsBuild_Empty(t *testing.T) {
	q, err := Params{}.Build()
	require.NoError(t, err)
	assert.Nil(t, q)
}

func TestParamsBuild_Variants(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		kind   Kind
	}{
		{"dataset ids", Params{DatasetIDs: "ord_dataset-1,ord_dataset-2"}, KindDatasetIDs},
		{"reaction ids", Params{ReactionIDs: "ord-1"}, KindReactionIDs},
		{"reaction smarts", Params{ReactionSmarts: "[C:1]>>[C:1]O"}, KindReactionSmarts},
		{"dois", Params{DOIs: "10.1000/xyz123"}, KindDOIs},
		{"components", Params{Components: []string{"CCO;input;exact"}}, KindComponents},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, err := tc.params.Build()
			require.NoError(t, err)
			require.NotNil(t, q)
			assert.Equal(t, tc.kind, q.Kind())
		})
	}
}

func TestParamsBuild_SplitsAndTrims(t *testing.T) {
	q, err := Params{ReactionIDs: "ord-1, ord-2 ,ord-3"}.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"ord-1", "ord-2", "ord-3"}, q.(*ReactionIDQuery).IDs())
}

func TestParamsBuild_NormalizesNFC(t *testing.T) {
	// "é" as e + combining acute accent.
	q, err := Params{DOIs: "10.1000/cafe\u0301"}.Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.1000/caf\u00e9"}, q.(*DOIQuery).DOIs())
}

func TestNormalizeList(t *testing.T) {
	got := NormalizeList([]string{" ord-1 ", "cafe\u0301\t", ""})
	assert.Equal(t, []string{"ord-1", "caf\u00e9", ""}, got)
	assert.Equal(t, got, SplitList(" ord-1 ,cafe\u0301\t,"))
}

func TestParamsBuild_MutuallyExclusive(t *testing.T) {
	_, err := Params{ReactionIDs: "ord-1", DOIs: "10.1/x"}.Build()
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "reaction_ids, dois")
}

func TestParamsBuild_ComponentOptions(t *testing.T) {
	q, err := Params{
		Components:         []string{"c1ccccc1;input;substructure", "CCO;output;similarity"},
		UseStereochemistry: "true",
		Similarity:         "0.8",
	}.Build()
	require.NoError(t, err)

	cq := q.(*ReactionComponentQuery)
	assert.True(t, cq.DoChiralSSS())
	assert.Equal(t, 0.8, cq.TanimotoThreshold())
	require.Len(t, cq.Predicates(), 2)
	assert.Equal(t, MatchSimilarity, cq.Predicates()[1].Mode())
}

func TestParamsBuild_ComponentErrors(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		want   string
	}{
		{"bad target", Params{Components: []string{"CCO;sideways;exact"}}, "unknown target"},
		{"bad stereo", Params{Components: []string{"CCO;input"}, UseStereochemistry: "maybe"}, "use_stereochemistry"},
		{"bad similarity", Params{Components: []string{"CCO;input"}, Similarity: "high"}, "similarity"},
		{"similarity out of range", Params{Components: []string{"CCO;input;similarity"}, Similarity: "1.5"}, "[0, 1]"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.params.Build()
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
