package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetFromName(t *testing.T) {
	in, err := TargetFromName("input")
	require.NoError(t, err)
	out, err := TargetFromName("output")
	require.NoError(t, err)

	assert.Equal(t, TargetInput, in)
	assert.Equal(t, TargetOutput, out)
	assert.NotEqual(t, in, out)
}

func TestTargetFromName_Unknown(t *testing.T) {
	for _, name := range []string{"bogus", "INPUT", "Input", ""} {
		t.Run(name, func(t *testing.T) {
			_, err := TargetFromName(name)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, err.Error(), "unknown target")
		})
	}
}

func TestMatchModeFromName(t *testing.T) {
	tests := map[string]MatchMode{
		"exact":        MatchExact,
		"substructure": MatchSubstructure,
		"similarity":   MatchSimilarity,
		"smarts":       MatchSMARTS,
	}
	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := MatchModeFromName(name)
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.Equal(t, name, got.String())
		})
	}

	_, err := MatchModeFromName("fuzzy")
	require.Error(t, err)
	assert.Equal(t, "unknown mode: fuzzy", err.Error())
}

func TestNewPredicate(t *testing.T) {
	p, err := NewPredicate("c1ccccc1", TargetInput, MatchSubstructure)
	require.NoError(t, err)
	assert.Equal(t, "c1ccccc1", p.Pattern())
	assert.Equal(t, TargetInput, p.Target())
	assert.Equal(t, MatchSubstructure, p.Mode())
	assert.Equal(t, "c1ccccc1;input;substructure", p.String())
}

func TestNewPredicate_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		target  Target
		mode    MatchMode
	}{
		{"empty pattern", "", TargetInput, MatchExact},
		{"blank pattern", "   ", TargetInput, MatchExact},
		{"zero target", "C", 0, MatchExact},
		{"zero mode", "C", TargetOutput, 0},
		{"out of range mode", "C", TargetOutput, MatchMode(42)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPredicate(tc.pattern, tc.target, tc.mode)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestParsePredicate(t *testing.T) {
	tests := []struct {
		token   string
		pattern string
		target  Target
		mode    MatchMode
	}{
		{"CCO;input;exact", "CCO", TargetInput, MatchExact},
		{"c1ccccc1;output;substructure", "c1ccccc1", TargetOutput, MatchSubstructure},
		{"CC(=O)O;input;similarity", "CC(=O)O", TargetInput, MatchSimilarity},
		{"CCO;output", "CCO", TargetOutput, MatchExact},
		{"[C;R]N;input;smarts", "[C;R]N", TargetInput, MatchSMARTS},
	}
	for _, tc := range tests {
		t.Run(tc.token, func(t *testing.T) {
			p, err := ParsePredicate(tc.token)
			require.NoError(t, err)
			assert.Equal(t, tc.pattern, p.Pattern())
			assert.Equal(t, tc.target, p.Target())
			assert.Equal(t, tc.mode, p.Mode())
		})
	}
}

func TestParsePredicate_Errors(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"CCO", "invalid component"},
		{"CCO;bogus;exact", "unknown target: bogus"},
		{"CCO;input;fuzzy", "unknown mode: fuzzy"},
		{";input;exact", "pattern cannot be empty"},
		{"CCO;exact", "unknown target: exact"},
	}
	for _, tc := range tests {
		t.Run(tc.token, func(t *testing.T) {
			_, err := ParsePredicate(tc.token)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
