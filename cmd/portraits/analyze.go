package main

import (
	"io"
	"strings"

	"github.com/spf13/cobra"

	"portraits/internal/domain/analysis"
	"portraits/internal/domain/reports"
	"portraits/pkg/logger"
)

const analysisFile = "organization-id-analysis.json"

func newAnalyzeCmd(a *app) *cobra.Command {
	var universities []string

	cmd := &cobra.Command{
		Use:   "analyze-ids",
		Short: "Analyze the organization ID structure of universities",
		Long: `Classifies every organization of the given universities by level and
field code, then reports pattern clusters, field clusters with a quality
rating, patterns shared between fields and the result of each cluster
proposal. The full report is written as JSON.

Example:
  portraits analyze-ids --university 大阪大学,東京大学,京都大学`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.runContext(cmd.Context())

			store, err := a.loadDirectory(ctx)
			if err != nil {
				return err
			}
			classifier, err := a.classifier()
			if err != nil {
				return err
			}
			analyzer, err := analysis.NewAnalyzer(classifier, nil)
			if err != nil {
				return err
			}

			report, err := analyzer.Analyze(ctx, store, universities)
			if err != nil {
				return err
			}
			printAnalysis(cmd.OutOrStdout(), report)

			path, err := a.writer().JSON(ctx, analysisFile, report)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "\nreport: %s\n", path)

			a.record(ctx, reports.SnapshotAnalysis, report)
			logger.Info(ctx, "analysis finished",
				"universities", len(report.Universities),
				"organizations", report.Organizations,
				"skipped", report.Skipped,
			)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&universities, "university", "u", nil, "university names (repeatable or comma-separated)")
	_ = cmd.MarkFlagRequired("university")
	return cmd
}

func printAnalysis(w io.Writer, r *analysis.Report) {
	printf(w, "Organization ID analysis (rules %s)\n", r.RuleVersion)
	printf(w, "universities: %s\n", strings.Join(r.Universities, ", "))
	printf(w, "organizations: %d (skipped %d)\n", r.Organizations, r.Skipped)

	printf(w, "\nLevels\n")
	for _, l := range r.Levels {
		printf(w, "  %-2s %-24s %5d  %s\n", l.Level, l.Label, l.Count, strings.Join(l.Examples, ", "))
	}

	printf(w, "\nGood clusters (%d of %d)\n", len(r.GoodClusters), len(r.Clusters))
	for _, c := range r.GoodClusters {
		printf(w, "  %-6s members=%d universities=%d score=%.2f  %s\n",
			c.Pattern, c.Members, len(c.Universities), c.Score, c.Description)
	}

	printf(w, "\nFields\n")
	for _, f := range r.Fields {
		printf(w, "  %-18s members=%d patterns=%d quality=%.1f (%s)\n",
			f.Display, f.Members, f.PatternCount, f.Quality.Score, f.Quality.Rating)
		for _, p := range f.TopPatterns {
			printf(w, "      %-6s %d\n", p.Pattern, p.Count)
		}
	}

	if len(r.SharedPatterns) > 0 {
		printf(w, "\nPatterns shared between fields\n")
		for _, s := range r.SharedPatterns {
			printf(w, "  %-6s total=%d fields=%d\n", s.Pattern, s.Total, len(s.Fields))
		}
	}

	printf(w, "\nProposals\n")
	for _, p := range r.Proposals {
		printf(w, "  %-28s matches=%d  %s\n", p.Name, p.Matches, p.Description)
	}
}
