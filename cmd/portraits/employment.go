package main

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	appctx "portraits/internal/core/context"
	"portraits/internal/domain/reports"
	"portraits/pkg/logger"
)

const employmentFile = "faculty-employment-data.json"

// topIndustries is how many industries the console ranking shows.
const topIndustries = 10

// employmentReport is the document written by the employment command.
type employmentReport struct {
	RunID        string                                  `json:"runId"`
	Timestamp    time.Time                               `json:"timestamp"`
	TargetYear   int                                     `json:"targetYear"`
	Faculty      string                                  `json:"faculty,omitempty"`
	Universities map[string]reports.UniversityEmployment `json:"universities"`
}

func newEmploymentCmd(a *app) *cobra.Command {
	var (
		universities []string
		faculty      string
	)

	cmd := &cobra.Command{
		Use:   "employment",
		Short: "Break down job placements by industry per faculty",
		Long: `Fetches job placement data for every organization of each university,
or only for organizations named exactly --faculty, and aggregates the
employed count per industry.

Writes ` + employmentFile + `.

Example:
  portraits employment --university 大阪大学 --faculty 工学部`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.runContext(cmd.Context())
			cmd.SetContext(ctx)

			collector, err := a.newCollector(cmd)
			if err != nil {
				return err
			}
			result, err := collector.FacultyEmployment(ctx, universities, faculty)
			if err != nil {
				return err
			}

			report := employmentReport{
				RunID:        appctx.GetRunID(ctx),
				Timestamp:    time.Now().UTC(),
				TargetYear:   a.cfg.TargetYear,
				Faculty:      faculty,
				Universities: result,
			}
			path, err := a.writer().JSON(ctx, employmentFile, report)
			if err != nil {
				return err
			}

			printEmployment(cmd.OutOrStdout(), universities, result)
			printf(cmd.OutOrStdout(), "\nreport: %s\n", path)

			a.record(ctx, reports.SnapshotEmployment, report)
			logger.Info(ctx, "employment breakdown finished", "universities", len(result))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&universities, "university", "u", nil, "university names (repeatable or comma-separated)")
	cmd.Flags().StringVar(&faculty, "faculty", "", "organization name to restrict the breakdown to")
	_ = cmd.MarkFlagRequired("university")
	return cmd
}

func printEmployment(w io.Writer, order []string, result map[string]reports.UniversityEmployment) {
	seen := map[string]bool{}
	for _, name := range order {
		if seen[name] {
			continue
		}
		seen[name] = true

		u := result[name]
		printf(w, "%s: employed=%d faculties=%d\n", name, u.TotalEmployed, len(u.Faculties))
		ranked := reports.Rank(u.IndustriesSummary)
		for i, lc := range ranked[:min(topIndustries, len(ranked))] {
			printf(w, "  %2d. %-32s %6d\n", i+1, lc.Label, lc.Count)
		}
	}
}
