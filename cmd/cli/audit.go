package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"biasaudit/app"
	"biasaudit/domain/audit"
	"biasaudit/internal/analysis"
	"biasaudit/internal/config"
	"biasaudit/internal/dataset"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const cliUploadLimit = 1 << 30

// datasetFlags selects the records a command works on.
type datasetFlags struct {
	file string
	n    int
	seed int64
}

func (f *datasetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.file, "file", "", "CSV or XLSX file with race, gender, ageGroup, riskScore columns")
	cmd.Flags().IntVar(&f.n, "n", 500, "Number of synthetic records when no file is given")
	cmd.Flags().Int64Var(&f.seed, "seed", 42, "Random seed for deterministic operations")
}

// load builds an audit service holding either the file or a generated
// dataset of n records.
func (f *datasetFlags) load() (*app.AuditService, error) {
	if f.n <= 0 {
		return nil, fmt.Errorf("--n must be positive, got %d", f.n)
	}
	svc := app.NewAuditService(config.DatasetConfig{
		Size:           f.n,
		MaxSize:        f.n,
		Seed:           f.seed,
		UploadMaxBytes: cliUploadLimit,
	}, zap.NewNop())

	if f.file == "" {
		return svc, nil
	}
	file, err := os.Open(f.file)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.file, err)
	}
	defer file.Close()

	if _, err := svc.Upload(filepath.Base(f.file), file); err != nil {
		return nil, err
	}
	return svc, nil
}

func newAuditCmd() *cobra.Command {
	var flags datasetFlags
	var dimension string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Print per-group bias metrics",
		Long: `Compute average score, high-risk rate, FPR, FNR and disparate impact
for every race, gender and age group.

Example: biasaudit-cli audit --file scores.csv --dimension race`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := flags.load()
			if err != nil {
				return err
			}
			ds, report := svc.Report()

			if dimension != "" {
				dim, ok := audit.ParseDimension(dimension)
				if !ok {
					return fmt.Errorf("unknown dimension %q (use race, gender or ageGroup)", dimension)
				}
				d, _ := report.Dimension(dim)
				report.Dimensions = []analysis.DimensionReport{d}
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(out, ds, report)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&dimension, "dimension", "", "Only print one dimension: race, gender or ageGroup")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	var n int
	var seed int64

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic dataset as CSV to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			if n <= 0 {
				return fmt.Errorf("--n must be positive, got %d", n)
			}
			ds := dataset.NewSource(seed).Generated(n)
			return dataset.WriteCSV(cmd.OutOrStdout(), ds.Records)
		},
	}

	cmd.Flags().IntVar(&n, "n", 500, "Number of records")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic operations")
	return cmd
}

func printReport(w io.Writer, ds *dataset.Dataset, report analysis.Report) {
	source := "generated"
	if ds.Origin == dataset.OriginUploaded {
		source = ds.Name
	}
	fmt.Fprintf(w, "📊 MODEL FAIRNESS REPORT\n")
	fmt.Fprintf(w, "Source: %s (%d records)\n", source, report.KPIs.Records)
	fmt.Fprintf(w, "Avg score: %s   High risk: %s%%   Max DI: %s\n",
		fixed(report.KPIs.AvgScore, 1), fixed(report.KPIs.HighRiskPct, 1), fixed(report.KPIs.MaxDI, 2))
	if top := report.KPIs.TopGroup; top != nil {
		fmt.Fprintf(w, "Most biased: %s (%s)\n", top.Group, top.Dimension.Label())
	}
	if ds.GroundTruthSimulated {
		fmt.Fprintf(w, "⚠️  Ground truth is simulated for uploaded data; FPR and FNR are not meaningful.\n")
	}

	for _, d := range report.Dimensions {
		fmt.Fprintf(w, "\n%s (ref: %s)\n", d.Label, d.Reference)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "GROUP\tN\tAVG\tHIGH RISK\tFPR\tFNR\tDI\tTIER\tP")
		for _, g := range d.Groups {
			p := "—"
			if g.Test != nil {
				p = strconv.FormatFloat(g.Test.PValue, 'g', 3, 64)
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s%%\t%s%%\t%s%%\t%s\t%s\t%s\n",
				g.Group, g.Count, num(g.AvgScore), num(g.HighRiskRate), num(g.FPR), num(g.FNR),
				fixed(g.DI, 2), g.TierLabel, p)
		}
		tw.Flush()
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func fixed(v *float64, places int) string {
	if v == nil {
		return "—"
	}
	return strconv.FormatFloat(*v, 'f', places, 64)
}
