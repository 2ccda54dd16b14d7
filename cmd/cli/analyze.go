package main

import (
	"context"
	"fmt"
	"time"

	"biasaudit/adapters/postgres"
	"biasaudit/internal/config"
	"biasaudit/internal/container"
	"biasaudit/internal/migration"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newAnalyzeCmd() *cobra.Command {
	var flags datasetFlags
	var archive bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Send the audit to the configured LLM provider and print its analysis",
		Long: `Run the audit, send the fairness prompt to LLM_PROVIDER and wait for the reply.

Example: GROQ_API_KEY=... biasaudit-cli analyze --file scores.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			c, err := container.New(cfg, zap.NewNop())
			if err != nil {
				return err
			}
			if archive && cfg.Database.Enabled() {
				db, err := openDatabase(cmd.Context(), "postgres", cfg.Database.URL)
				if err != nil {
					return err
				}
				if err := c.InitWithDatabase(cmd.Context(), db); err != nil {
					return err
				}
			}
			defer c.Shutdown(context.Background()) //nolint:errcheck

			svc, err := flags.load()
			if err != nil {
				return err
			}
			ds, report := svc.Report()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "🔬 Analyzing %d records with %s / %s...\n\n", ds.Len(), c.LLM.Provider(), c.LLM.Model())

			snap, err := c.Analyses.Analyze(cmd.Context(), ds, report)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, snap.Text)
			if snap.Error != "" {
				return fmt.Errorf("analysis failed: %s", snap.Error)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&archive, "archive", true, "Archive the analysis when DATABASE_URL is set")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	var driver, dsn string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the audit archive schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				return fmt.Errorf("--dsn or DATABASE_URL is required")
			}
			db, err := openDatabase(cmd.Context(), driver, dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			runner := migration.NewRunner()
			if err := runner.Run(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Archive schema at version %s\n", runner.Version())
			return nil
		},
	}

	cmd.Flags().StringVar(&driver, "driver", "postgres", "Database driver: postgres or sqlite3")
	cmd.Flags().StringVar(&dsn, "dsn", config.DatabaseURLFromEnv(), "Database connection string")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	var driver, dsn string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived analyses, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dsn == "" {
				return fmt.Errorf("--dsn or DATABASE_URL is required")
			}
			db, err := openDatabase(cmd.Context(), driver, dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := postgres.NewAuditRunRepository(db).ListRecent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No archived analyses.")
				return nil
			}
			for _, run := range runs {
				status := "✅"
				if run.Failed {
					status = "❌"
				}
				fmt.Fprintf(out, "%s %s  %s  %d records  max DI %s  top %s  (%s, %dms)\n",
					status, run.CreatedAt.Format(time.RFC3339), run.Source, run.RecordCount,
					fixed(run.MaxDI, 2), run.TopGroup, run.Provider, run.DurationMS)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&driver, "driver", "postgres", "Database driver: postgres or sqlite3")
	cmd.Flags().StringVar(&dsn, "dsn", config.DatabaseURLFromEnv(), "Database connection string")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list")
	return cmd
}

func openDatabase(ctx context.Context, driver, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", driver, err)
	}
	return db, nil
}
