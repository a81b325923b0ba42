package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	appctx "portraits/internal/core/context"
	"portraits/internal/config"
	"portraits/internal/domain/classify"
	"portraits/internal/domain/directory"
	"portraits/internal/domain/reports"
	"portraits/internal/infrastructure/export"
	"portraits/internal/infrastructure/storage/postgres"
	"portraits/internal/infrastructure/storage/postgres/report_repo"
	"portraits/pkg/logger"
)

// app carries the configuration and logger shared by every subcommand.
type app struct {
	cfg config.Config
	log *logger.Logger

	// flag values; applied over cfg only when set on the command line
	logLevel    string
	univCSV     string
	depaCSV     string
	encoding    string
	rulesFile   string
	year        int
	outputDir   string
	compression string
	databaseURL string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "portraits",
		Short: "University Portraits data collection and analysis",
		Long: `portraits queries the university and organization directory, analyzes
the structure of organization IDs and collects School Basic Survey data from
the University Portraits API into JSON and CSV reports.

Settings come from the environment (and .env); flags override them.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&a.univCSV, "univ-csv", "", "university list CSV (UNIV_LIST_CSV)")
	pf.StringVar(&a.depaCSV, "depa-csv", "", "organization list CSV (DEPA_LIST_CSV)")
	pf.StringVar(&a.encoding, "encoding", "", "directory CSV encoding: utf-8 or shift_jis")
	pf.StringVar(&a.rulesFile, "rules", "", "field rule table YAML replacing the built-in one")
	pf.IntVar(&a.year, "year", 0, "survey target year (TARGET_YEAR)")
	pf.StringVar(&a.outputDir, "output-dir", "", "directory reports are written to")
	pf.StringVar(&a.compression, "compression", "", "JSON report compression: none, gzip or zstd")
	pf.StringVar(&a.databaseURL, "database-url", "", "PostgreSQL DSN enabling report snapshots")

	root.AddCommand(
		newAnalyzeCmd(a),
		newCollectCmd(a),
		newEmploymentCmd(a),
		newLookupCmd(a),
		newServeCmd(a),
	)
	return root
}

// setup loads the configuration, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("univ-csv") {
		cfg.UniversityCSV = a.univCSV
	}
	if flags.Changed("depa-csv") {
		cfg.OrganizationCSV = a.depaCSV
	}
	if flags.Changed("encoding") {
		if cfg.DirectoryEncoding, err = directory.ParseEncoding(a.encoding); err != nil {
			return err
		}
	}
	if flags.Changed("rules") {
		cfg.RulesFile = a.rulesFile
	}
	if flags.Changed("year") {
		cfg.TargetYear = a.year
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = a.outputDir
	}
	if flags.Changed("compression") {
		if cfg.OutputCompression, err = export.ParseCompression(a.compression); err != nil {
			return err
		}
	}
	if flags.Changed("database-url") {
		cfg.DatabaseURL = a.databaseURL
	}
	a.cfg = cfg

	if a.log, err = logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development(),
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	cmd.SetContext(logger.WithLogger(cmd.Context(), a.log))
	return nil
}

// runContext tags ctx with a fresh run ID; the logger set up in setup picks
// it up.
func (a *app) runContext(ctx context.Context) context.Context {
	return appctx.WithTrace(ctx, appctx.NewRunContext())
}

func (a *app) loadDirectory(ctx context.Context) (*directory.Store, error) {
	return directory.Load(ctx, a.cfg.DirectorySources())
}

func (a *app) classifier() (*classify.Classifier, error) {
	if a.cfg.RulesFile == "" {
		return classify.Default(), nil
	}
	table, err := classify.LoadRuleFile(a.cfg.RulesFile)
	if err != nil {
		return nil, err
	}
	return classify.New(table)
}

func (a *app) writer() *export.Writer {
	return export.NewWriter(a.cfg.OutputDir, a.cfg.OutputCompression)
}

// openSnapshots connects the snapshot store when DATABASE_URL is set. The
// returned pool is nil when snapshots are disabled; otherwise the caller
// closes it.
func (a *app) openSnapshots(ctx context.Context) (*reports.Service, *postgres.Pool, error) {
	if a.cfg.DatabaseURL == "" {
		return reports.NewService(nil), nil, nil
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(a.cfg.DatabaseURL))
	if err != nil {
		return nil, nil, err
	}
	codec, err := postgres.NewPayloadCodec(postgres.DefaultCompressThreshold)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	repo := report_repo.NewSnapshotRepo(postgres.NewTxManager(pool), codec)
	if err := repo.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return reports.NewService(repo), pool, nil
}

// record stores a snapshot of a finished run. Report files are already on
// disk at this point, so a failed write is logged and not returned.
func (a *app) record(ctx context.Context, kind reports.SnapshotKind, v any) {
	svc, pool, err := a.openSnapshots(ctx)
	if err != nil {
		logger.Warn(ctx, "snapshot store unavailable", "kind", kind, "error", err)
		return
	}
	if pool != nil {
		defer pool.Close()
	}
	if _, err := svc.Record(ctx, kind, a.cfg.TargetYear, v); err != nil {
		logger.Warn(ctx, "snapshot not stored", "kind", kind, "error", err)
	}
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
