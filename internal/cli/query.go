package cli

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garrett-reinhard/ord-interface/internal/engine"
	"github.com/garrett-reinhard/ord-interface/internal/metrics"
	"github.com/garrett-reinhard/ord-interface/internal/query"
	"github.com/garrett-reinhard/ord-interface/internal/reaction"
	"github.com/garrett-reinhard/ord-interface/internal/result"
)

// queryFlags holds the flags that describe a query. They mirror the HTTP
// API parameters.
type queryFlags struct {
	File               string
	DatasetIDs         string
	ReactionIDs        string
	ReactionSmarts     string
	DOIs               string
	Components         []string
	UseStereochemistry bool
	Similarity         float64
	Limit              int
	IDsOnly            bool
}

var queryFlagNames = []string{"dataset-ids", "reaction-ids", "reaction-smarts", "dois", "component", "use-stereochemistry", "similarity"}

func (f *queryFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.File, "file", "f", "", "read the query from a YAML, JSON or CUE file")
	fl.StringVar(&f.DatasetIDs, "dataset-ids", "", "comma-separated dataset ids")
	fl.StringVar(&f.ReactionIDs, "reaction-ids", "", "comma-separated reaction ids")
	fl.StringVar(&f.ReactionSmarts, "reaction-smarts", "", "reaction SMARTS pattern")
	fl.StringVar(&f.DOIs, "dois", "", "comma-separated DOIs")
	fl.StringArrayVar(&f.Components, "component", nil, "component predicate pattern;target[;mode] (repeatable)")
	fl.BoolVar(&f.UseStereochemistry, "use-stereochemistry", false, "use chirality in substructure matching")
	fl.Float64Var(&f.Similarity, "similarity", query.DefaultTanimotoThreshold, "Tanimoto similarity threshold")
	fl.IntVar(&f.Limit, "limit", 0, "maximum number of results (0 for the configured maximum)")
	fl.BoolVar(&f.IDsOnly, "ids-only", false, "return ids without reaction payloads")
}

// resolve builds the query and run options from flags or the query file.
func (f *queryFlags) resolve(cmd *cobra.Command) (query.Query, engine.RunOptions, error) {
	opts := engine.RunOptions{Limit: f.Limit, IDsOnly: f.IDsOnly}

	var (
		q   query.Query
		err error
	)
	if f.File != "" {
		for _, name := range queryFlagNames {
			if cmd.Flags().Changed(name) {
				return nil, opts, query.NewValidationError("--file cannot be combined with --%s", name)
			}
		}
		qf, loadErr := LoadQueryFile(f.File)
		if loadErr != nil {
			return nil, opts, loadErr
		}
		if !cmd.Flags().Changed("limit") {
			opts.Limit = qf.Limit
		}
		opts.IDsOnly = opts.IDsOnly || qf.IDsOnly
		q, err = qf.Build()
	} else {
		params := query.Params{
			DatasetIDs:     f.DatasetIDs,
			ReactionIDs:    f.ReactionIDs,
			ReactionSmarts: f.ReactionSmarts,
			DOIs:           f.DOIs,
			Components:     f.Components,
		}
		if cmd.Flags().Changed("use-stereochemistry") {
			params.UseStereochemistry = strconv.FormatBool(f.UseStereochemistry)
		}
		if cmd.Flags().Changed("similarity") {
			params.Similarity = strconv.FormatFloat(f.Similarity, 'g', -1, 64)
		}
		q, err = params.Build()
	}
	if err != nil {
		return nil, opts, err
	}
	if q == nil {
		return nil, opts, &LoadError{Code: ErrCodeNoQuery, Message: "no query defined"}
	}
	return q, opts, nil
}

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	queryFlags
	Download string // path for a gzip'd Dataset of the results
}

// resultRow is one result in JSON output.
type resultRow struct {
	DatasetID  string             `json:"dataset_id"`
	ReactionID string             `json:"reaction_id"`
	Proto      string             `json:"proto,omitempty"`
	Reaction   *reaction.Reaction `json:"reaction,omitempty"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run a query against the database",
		Long: `Run a query against the reaction database and print the matches.

The query is given either by flags or by a query file (--file).

Example:
  ordq query --reaction-ids ord-1,ord-2
  ordq query --component 'c1ccccc1;input;substructure' --limit 20
  ordq query --file query.yaml --format json
  ordq query --dois 10.1021/acs.orglett.0c01234 --download results.pb.gz`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, cmd)
		},
	}

	opts.queryFlags.register(cmd)
	cmd.Flags().StringVarP(&opts.Download, "download", "o", "", "also write results as a gzip'd Dataset to this path")

	return cmd
}

func runQuery(opts *QueryOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	q, runOpts, err := opts.resolve(cmd)
	if err != nil {
		return formatter.Fail(err)
	}
	if opts.Download != "" && runOpts.IDsOnly {
		return formatter.Fail(query.NewValidationError("--download needs reaction payloads; drop --ids-only"))
	}
	cfg, err := opts.loadConfig()
	if err != nil {
		return formatter.Fail(err)
	}
	logger, err := opts.logger(cmd, cfg)
	if err != nil {
		return formatter.Fail(err)
	}
	defer func() { _ = logger.Sync() }()

	runner, release, err := opts.openRunner(cmd.Context(), cfg, logger)
	if err != nil {
		return formatter.Fail(err)
	}
	defer release()

	formatter.VerboseLog("Running %s query (limit %d, ids only %t)", q.Kind(), runOpts.Limit, runOpts.IDsOnly)
	results, err := runner.Run(cmd.Context(), q, runOpts)
	if err != nil {
		return formatter.Fail(err)
	}

	if opts.Download != "" {
		if err := writeDownload(opts.Download, results); err != nil {
			return formatter.Fail(&LoadError{Code: ErrCodeGeneric, Message: err.Error()})
		}
		formatter.VerboseLog("Wrote %d reaction(s) to %s", len(results), opts.Download)
	}

	rows := decodeRows(results, logger)
	if formatter.Format == "json" {
		return formatter.Success(map[string]any{
			"query":   query.Describe(q),
			"results": rows,
		})
	}
	return printRows(formatter, rows)
}

// decodeRows converts results for output. Payloads that fail to decode are
// logged and counted; their rows carry no summary.
func decodeRows(results []*result.Result, logger *zap.Logger) []resultRow {
	rows := make([]resultRow, 0, len(results))
	for _, res := range results {
		row := resultRow{DatasetID: res.DatasetID(), ReactionID: res.ReactionID()}
		if res.HasPayload() {
			row.Proto = hex.EncodeToString(res.Proto())
			rxn, err := res.Reaction()
			if err != nil {
				metrics.DecodeFailuresTotal.Inc()
				logger.Warn("skipping reaction summary", zap.String("reaction_id", res.ReactionID()), zap.Error(err))
			} else {
				row.Reaction = rxn
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func printRows(formatter *OutputFormatter, rows []resultRow) error {
	if len(rows) == 0 {
		fmt.Fprintln(formatter.Writer, "query did not match any reactions")
		return nil
	}
	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tREACTION\tSMILES")
	for _, row := range rows {
		smiles := ""
		if row.Reaction != nil {
			smiles = row.Reaction.SMILES()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", row.DatasetID, row.ReactionID, smiles)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(formatter.Writer, "\n%d reaction(s)\n", len(rows))
	return nil
}

func writeDownload(path string, results []*result.Result) error {
	payloads := make([][]byte, len(results))
	for i, res := range results {
		payloads[i] = res.Proto()
	}
	body, err := reaction.GzipDataset(reaction.DownloadName, payloads)
	if err != nil {
		return fmt.Errorf("compressing results: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
