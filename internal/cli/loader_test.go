package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garrett-reinhard/ord-interface/internal/query"
)

func writeQueryFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadQueryFile_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml", "q.yaml", "dois:\n  - 10.1021/acs.orglett.0c01234\nlimit: 10\n"},
		{"json", "q.json", `{"dois": ["10.1021/acs.orglett.0c01234"], "limit": 10}`},
		{"cue", "q.cue", "dois: [\"10.1021/acs.orglett.0c01234\"]\nlimit: 10\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			qf, err := LoadQueryFile(writeQueryFile(t, tc.file, tc.content))
			require.NoError(t, err)
			assert.Equal(t, 10, qf.Limit)

			q, err := qf.Build()
			require.NoError(t, err)
			dq, ok := q.(*query.DOIQuery)
			require.True(t, ok)
			assert.Equal(t, []string{"10.1021/acs.orglett.0c01234"}, dq.DOIs())
		})
	}
}

func TestLoadQueryFile_Components(t *testing.T) {
	qf, err := LoadQueryFile(writeQueryFile(t, "c.yaml", `
components:
  - pattern: CCO
    target: input
  - pattern: "c1ccccc1"
    target: output
    mode: similarity
similarity: 0.8
`))
	require.NoError(t, err)
	require.Len(t, qf.Components, 2)
	assert.Equal(t, "exact", qf.Components[0].Mode, "mode defaults to exact")

	q, err := qf.Build()
	require.NoError(t, err)
	cq := q.(*query.ReactionComponentQuery)
	assert.Equal(t, 0.8, cq.TanimotoThreshold())
	assert.False(t, cq.DoChiralSSS())
	assert.Equal(t, query.MatchSimilarity, cq.Predicates()[1].Mode())
}

func TestLoadQueryFile_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "reaction_idz: [ord-1]\n"},
		{"bad target", "components:\n  - {pattern: CCO, target: reagent}\n"},
		{"bad mode", "components:\n  - {pattern: CCO, target: input, mode: fuzzy}\n"},
		{"empty list", "dataset_ids: []\n"},
		{"empty pattern", "reaction_smarts: \"\"\n"},
		{"similarity range", "components:\n  - {pattern: CCO, target: input}\nsimilarity: 1.5\n"},
		{"negative limit", "dois: [10.1/x]\nlimit: -1\n"},
		{"wrong type", "dois: 10.1/x\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadQueryFile(writeQueryFile(t, "q.yaml", tc.content))
			require.Error(t, err)
			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr), "got %T: %v", err, err)
			assert.Equal(t, ErrCodeSchema, loadErr.Code)
		})
	}
}

func TestLoadQueryFile_CUEPosition(t *testing.T) {
	path := writeQueryFile(t, "q.cue", "dois: [\"10.1/x\"]\nlimit: \"ten\"\n")
	_, err := LoadQueryFile(path)
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeSchema, loadErr.Code)
	assert.True(t, loadErr.Pos.IsValid())
}

func TestLoadQueryFile_ReadErrors(t *testing.T) {
	_, err := LoadQueryFile(filepath.Join(t.TempDir(), "missing.yaml"))
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)

	_, err = LoadQueryFile(writeQueryFile(t, "bad.yaml", "dois: [unclosed\n"))
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeLoadFailed, loadErr.Code)

	_, err = LoadQueryFile(writeQueryFile(t, "bad.cue", "dois: [\n"))
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeLoadFailed, loadErr.Code)
}

func TestQueryFile_NormalizesLists(t *testing.T) {
	qf, err := LoadQueryFile(writeQueryFile(t, "q.json",
		`{"reaction_ids": [" ord-1", "ord-2 "]}`))
	require.NoError(t, err)
	q, err := qf.Build()
	require.NoError(t, err)
	fromFile := q.(*query.ReactionIDQuery).IDs()

	q, err = query.Params{ReactionIDs: " ord-1, ord-2 "}.Build()
	require.NoError(t, err)
	assert.Equal(t, q.(*query.ReactionIDQuery).IDs(), fromFile, "files and flags bind the same ids")

	q, err = (&QueryFile{DOIs: []string{"10.1000/cafe\u0301 "}}).Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.1000/caf\u00e9"}, q.(*query.DOIQuery).DOIs())

	q, err = (&QueryFile{DatasetIDs: []string{"\tord_dataset-1"}}).Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"ord_dataset-1"}, q.(*query.DatasetIDQuery).IDs())
}

func TestQueryFile_Build(t *testing.T) {
	q, err := (&QueryFile{}).Build()
	require.NoError(t, err)
	assert.Nil(t, q, "an empty file names no query")

	_, err = (&QueryFile{ReactionIDs: []string{"ord-1"}, DOIs: []string{"10.1/x"}}).Build()
	assert.True(t, query.IsValidationError(err))
	assert.Contains(t, err.Error(), "mutually exclusive")

	q, err = (&QueryFile{ReactionSmarts: "[C:1]>>[C:1]O"}).Build()
	require.NoError(t, err)
	assert.Equal(t, query.KindReactionSmarts, q.Kind())

	qf, err := LoadQueryFile(writeQueryFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	q, err = qf.Build()
	require.NoError(t, err)
	assert.Nil(t, q)
}
