package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewDatasetsCommand creates the datasets command.
func NewDatasetsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "datasets",
		Short:         "List datasets with their reaction counts",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDatasets(rootOpts, cmd)
		},
	}
}

func runDatasets(opts *RootOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

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

	datasets, err := runner.Datasets(cmd.Context())
	if err != nil {
		return formatter.Fail(err)
	}

	if formatter.Format == "json" {
		return formatter.Success(datasets)
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tNAME\tSIZE")
	var total int64
	for _, ds := range datasets {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", ds.DatasetID, ds.Name, ds.Size)
		total += ds.Size
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(formatter.Writer, "\n%d dataset(s), %d reaction(s)\n", len(datasets), total)
	return nil
}
