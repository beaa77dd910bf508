package main

import (
	"fmt"
	"io"
	"os"

	"sakilahypo/adapters/excel"
	"sakilahypo/adapters/postgres"
	"sakilahypo/app"
	"sakilahypo/domain/dataset"
	"sakilahypo/internal/config"
	"sakilahypo/internal/container"
	idataset "sakilahypo/internal/dataset"
	"sakilahypo/internal/hypothesis"
	"sakilahypo/internal/logging"
	"sakilahypo/internal/migration"
	"sakilahypo/internal/profiling"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sakilahypo",
		Short:         "Hypothesis tests and profiling for the Sakila rental dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newHypothesesCmd(),
		newCompareCmd(),
		newMetricsCmd(),
		newDescribeCmd(),
		newDistributionCmd(),
		newExtractCmd(),
		newOptimizeCmd(),
		newReportCmd(),
		newMigrateCmd(),
	)
	return rootCmd
}

// loadConfig reads .env and the configuration, then configures logging
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logging.Init(logCfg)
	return cfg, nil
}

// datasetPath returns the first argument or the configured dataset
func datasetPath(cfg *config.Config, args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return cfg.Data.DatasetPath
}

func loadTable(cfg *config.Config, args []string) (*dataset.Table, string, error) {
	path := datasetPath(cfg, args)
	table, err := excel.ReadTable(path)
	if err != nil {
		return nil, "", err
	}
	return table, path, nil
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func newHypothesesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hypotheses [file]",
		Short: "Test the country and rating revenue hypotheses",
		Long: `Test whether United States customers pay differently from other countries
and whether payment amounts differ across film ratings.

Example: sakilahypo hypotheses data/optimized_sakila_pg.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			table, _, err := loadTable(cfg, args)
			if err != nil {
				return err
			}

			analyzer := hypothesis.NewAnalyzer(hypothesis.ConfigFromStats(cfg.Stats))
			results := make(map[string]interface{}, len(hypothesis.Names()))
			for _, name := range hypothesis.Names() {
				res, err := analyzer.Run(name, table)
				if err != nil {
					return err
				}
				results[name] = res.Map()
			}
			return printJSON(cmd.OutOrStdout(), results)
		},
	}
}

func newCompareCmd() *cobra.Command {
	var req hypothesis.CompareRequest

	cmd := &cobra.Command{
		Use:   "compare [file]",
		Short: "Compare a numeric column across the groups of another column",
		Long: `Compare a numeric column across groups, choosing a parametric or
non-parametric test from per-group normality checks.

Example: sakilahypo compare --value amount --group country --match "United States"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			table, _, err := loadTable(cfg, args)
			if err != nil {
				return err
			}
			res := hypothesis.NewAnalyzer(hypothesis.ConfigFromStats(cfg.Stats)).Compare(table, req)
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&req.Value, "value", "", "Numeric column to compare")
	cmd.Flags().StringVar(&req.Group, "group", "", "Column whose values form the groups")
	cmd.Flags().StringVar(&req.Match, "match", "", "Compare this group value against all other rows")
	cmd.Flags().StringVar(&req.OtherLabel, "other", "Other", "Label for the rows not matching --match")
	_ = cmd.MarkFlagRequired("value")
	_ = cmd.MarkFlagRequired("group")

	return cmd
}

func newMetricsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "metrics [file]",
		Short: "Print missing rate, moments and quantiles per column",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			table, _, err := loadTable(cfg, args)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), profiling.Calculate(table))
		},
	}
}

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe [files...]",
		Short: "Summarize the shape and columns of one or more datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			paths := args
			if len(paths) == 0 {
				paths = []string{cfg.Data.DatasetPath}
			}

			descriptions := make([]profiling.Description, 0, len(paths))
			for _, path := range paths {
				table, err := excel.ReadTable(path)
				if err != nil {
					return err
				}
				desc := profiling.Describe(table)
				desc.Source = path
				descriptions = append(descriptions, desc)
			}
			return printJSON(cmd.OutOrStdout(), descriptions)
		},
	}
}

func newDistributionCmd() *cobra.Command {
	var column string

	cmd := &cobra.Command{
		Use:   "distribution [file]",
		Short: "Analyze the shape and outliers of a numeric column",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			table, _, err := loadTable(cfg, args)
			if err != nil {
				return err
			}
			dist, err := profiling.NewDistributionAnalyzer(cfg.Stats.Alpha).AnalyzeColumn(table, column)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), dist)
		},
	}

	cmd.Flags().StringVar(&column, "column", "", "Numeric column to analyze")
	_ = cmd.MarkFlagRequired("column")

	return cmd
}

func newExtractCmd() *cobra.Command {
	var out string
	var optimize bool

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Export the denormalized Sakila rental table from PostgreSQL",
		Long: `Join the Sakila tables into one row per rental payment and write it as
CSV or XLSX. Requires DATABASE_URL.

Example: sakilahypo extract --out data/sakila_to_csv_pg.csv --optimize`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := container.Connect(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return err
			}
			defer db.Close()

			table, err := postgres.NewSakilaExtractor(db).Load(cmd.Context())
			if err != nil {
				return err
			}
			if optimize {
				if table, _, err = idataset.NewOptimizer(idataset.DefaultOptimizerConfig()).Optimize(table); err != nil {
					return err
				}
			}
			if out == "" {
				out = cfg.Data.OutputPath
			}
			if err := excel.WriteFile(out, table); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", table.Rows(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Output file (.csv or .xlsx); defaults to OUTPUT_PATH")
	cmd.Flags().BoolVar(&optimize, "optimize", false, "Drop redundant columns and unreturned rentals")

	return cmd
}

func newOptimizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "optimize [in] [out]",
		Short: "Drop redundant columns and rows without a return date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(); err != nil {
				return err
			}
			table, err := excel.ReadTable(args[0])
			if err != nil {
				return err
			}
			out, st, err := idataset.NewOptimizer(idataset.DefaultOptimizerConfig()).Optimize(table)
			if err != nil {
				return err
			}
			if err := excel.WriteFile(args[1], out); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), st)
		},
	}
}

func newReportCmd() *cobra.Command {
	var asHTML bool
	var out string

	cmd := &cobra.Command{
		Use:   "report [file]",
		Short: "Run the full analysis and render a Markdown or HTML report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			table, source, err := loadTable(cfg, args)
			if err != nil {
				return err
			}

			svc := app.NewAnalysisService(hypothesis.NewAnalyzer(hypothesis.ConfigFromStats(cfg.Stats)), nil)
			run, err := svc.Run(cmd.Context(), table, source)
			if err != nil {
				return err
			}

			body := app.RenderMarkdown(run)
			if asHTML {
				body = app.RenderHTML(run)
			}
			if out == "" {
				_, err = cmd.OutOrStdout().Write(body)
				return err
			}
			return os.WriteFile(out, body, 0o644)
		},
	}

	cmd.Flags().BoolVar(&asHTML, "html", false, "Render HTML instead of Markdown")
	cmd.Flags().StringVar(&out, "out", "", "Write the report to a file instead of stdout")

	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the analysis_runs schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := container.Connect(cmd.Context(), cfg.Database.URL)
			if err != nil {
				return err
			}
			defer db.Close()

			runner := migration.NewRunner()
			if err := runner.Run(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema at version %s\n", runner.Version())
			return nil
		},
	}
}
