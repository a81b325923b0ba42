package main

import (
	"io"

	"github.com/spf13/cobra"

	appctx "portraits/internal/core/context"
	"portraits/internal/domain/reports"
	"portraits/internal/infrastructure/portraits"
	"portraits/pkg/logger"
)

const (
	detailedFile = "university-data-detailed.json"
	summaryFile  = "university-data-summary.csv"
)

// newCollector wires the API client, directory and classifier into a
// Collector.
func (a *app) newCollector(cmd *cobra.Command, opts ...reports.CollectorOption) (*reports.Collector, error) {
	client, err := portraits.New(a.cfg.Portraits())
	if err != nil {
		return nil, err
	}
	store, err := a.loadDirectory(cmd.Context())
	if err != nil {
		return nil, err
	}
	classifier, err := a.classifier()
	if err != nil {
		return nil, err
	}
	return reports.NewCollector(client, store, classifier, a.cfg.TargetYear, opts...), nil
}

func newCollectCmd(a *app) *cobra.Command {
	var (
		universities []string
		sample       int
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect survey data for universities",
		Long: `Fetches student and faculty counts, undergraduate and graduate details,
career outcomes, job placements and facilities for each university. Per
organization categories are fetched for the first --sample organizations.

Writes ` + detailedFile + ` (compressed when --compression is set) and
` + summaryFile + `.

Example:
  portraits collect --university 大阪大学,東京大学 --sample 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.runContext(cmd.Context())
			cmd.SetContext(ctx)

			collector, err := a.newCollector(cmd, reports.WithSampleSize(sample))
			if err != nil {
				return err
			}
			col, err := collector.Collect(ctx, appctx.GetRunID(ctx), universities)
			if err != nil {
				return err
			}

			w := a.writer()
			detailed, err := w.JSON(ctx, detailedFile, col)
			if err != nil {
				return err
			}
			rows := col.Summary()
			records := make([][]string, 0, len(rows))
			for _, r := range rows {
				records = append(records, r.Record())
			}
			summary, err := w.CSV(ctx, summaryFile, reports.SummaryHeader(), records)
			if err != nil {
				return err
			}

			printSummary(cmd.OutOrStdout(), rows)
			printf(cmd.OutOrStdout(), "\ndetailed: %s\nsummary:  %s\n", detailed, summary)

			a.record(ctx, reports.SnapshotCollection, col)
			logger.Info(ctx, "collection finished", "universities", len(col.Universities))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&universities, "university", "u", nil, "university names (repeatable or comma-separated)")
	cmd.Flags().IntVar(&sample, "sample", reports.DefaultSampleSize, "organizations fetched per category")
	_ = cmd.MarkFlagRequired("university")
	return cmd
}

func printSummary(w io.Writer, rows []reports.SummaryRow) {
	for _, r := range rows {
		fetched := 0
		for _, ok := range r.Fetched {
			if ok {
				fetched++
			}
		}
		printf(w, "%s: organizations=%d categories=%d/%d errors=%d\n",
			r.University, r.Organizations, fetched, len(reports.Categories()), r.Errors)
	}
}
