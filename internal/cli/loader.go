package cli

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/garrett-reinhard/ord-interface/internal/query"
)

//go:embed query.cue
var querySchema string

// QueryFile is a query read from a YAML, JSON or CUE file.
type QueryFile struct {
	DatasetIDs     []string        `json:"dataset_ids,omitempty"`
	ReactionIDs    []string        `json:"reaction_ids,omitempty"`
	ReactionSmarts string          `json:"reaction_smarts,omitempty"`
	DOIs           []string        `json:"dois,omitempty"`
	Components     []ComponentSpec `json:"components,omitempty"`

	UseStereochemistry *bool    `json:"use_stereochemistry,omitempty"`
	Similarity         *float64 `json:"similarity,omitempty"`

	Limit   int  `json:"limit,omitempty"`
	IDsOnly bool `json:"ids_only,omitempty"`
}

// ComponentSpec is one component predicate in a query file.
type ComponentSpec struct {
	Pattern string `json:"pattern"`
	Target  string `json:"target"`
	Mode    string `json:"mode"`
}

// LoadError represents an error that occurred while loading a query file.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadQueryFile reads path and checks it against the query schema. The format
// follows the extension: .cue is CUE, anything else is YAML (JSON included).
func LoadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("query file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading query file: %v", err)}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(querySchema, cue.Filename("query.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("query schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Query"))

	var value cue.Value
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		value = ctx.CompileBytes(data, cue.Filename(path))
	default:
		var raw map[string]any
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("parsing %s: %v", path, err)}
		}
		if raw == nil {
			raw = map[string]any{}
		}
		value = ctx.Encode(raw)
	}
	if err := value.Err(); err != nil {
		return nil, cueLoadError(ErrCodeLoadFailed, err)
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, cueLoadError(ErrCodeSchema, err)
	}

	var qf QueryFile
	if err := unified.Decode(&qf); err != nil {
		return nil, cueLoadError(ErrCodeSchema, err)
	}
	return &qf, nil
}

// cueLoadError converts a CUE error to a LoadError carrying its first position.
func cueLoadError(code string, err error) *LoadError {
	le := &LoadError{Code: code, Message: cueerrors.Details(err, nil)}
	le.Message = strings.TrimSpace(le.Message)
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		le.Pos = errs[0].Position()
	}
	return le
}

// Build converts the file to a validated query. A file naming no query
// variant yields (nil, nil).
func (qf *QueryFile) Build() (query.Query, error) {
	var given []string
	if len(qf.DatasetIDs) > 0 {
		given = append(given, "dataset_ids")
	}
	if len(qf.ReactionIDs) > 0 {
		given = append(given, "reaction_ids")
	}
	if qf.ReactionSmarts != "" {
		given = append(given, "reaction_smarts")
	}
	if len(qf.DOIs) > 0 {
		given = append(given, "dois")
	}
	if len(qf.Components) > 0 {
		given = append(given, "components")
	}
	if len(given) > 1 {
		return nil, query.NewValidationError("query parameters are mutually exclusive: %s", strings.Join(given, ", "))
	}

	switch {
	case len(qf.DatasetIDs) > 0:
		return query.NewDatasetIDQuery(query.NormalizeList(qf.DatasetIDs))
	case len(qf.ReactionIDs) > 0:
		return query.NewReactionIDQuery(query.NormalizeList(qf.ReactionIDs))
	case qf.ReactionSmarts != "":
		return query.NewReactionSmartsQuery(qf.ReactionSmarts)
	case len(qf.DOIs) > 0:
		return query.NewDOIQuery(query.NormalizeList(qf.DOIs))
	case len(qf.Components) > 0:
		return qf.buildComponents()
	}
	return nil, nil
}

func (qf *QueryFile) buildComponents() (query.Query, error) {
	predicates := make([]query.Predicate, 0, len(qf.Components))
	for _, c := range qf.Components {
		target, err := query.TargetFromName(c.Target)
		if err != nil {
			return nil, err
		}
		mode := query.MatchExact
		if c.Mode != "" {
			if mode, err = query.MatchModeFromName(c.Mode); err != nil {
				return nil, err
			}
		}
		p, err := query.NewPredicate(c.Pattern, target, mode)
		if err != nil {
			return nil, err
		}
		predicates = append(predicates, p)
	}

	var opts []query.ComponentOption
	if qf.UseStereochemistry != nil {
		opts = append(opts, query.WithChiralSSS(*qf.UseStereochemistry))
	}
	if qf.Similarity != nil {
		opts = append(opts, query.WithTanimotoThreshold(*qf.Similarity))
	}
	return query.NewReactionComponentQuery(predicates, opts...)
}
