package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"quantbin/adapters/excel"
	"quantbin/adapters/postgres"
	"quantbin/adapters/stats/estimation"
	"quantbin/app"
	"quantbin/domain/binning"
	"quantbin/domain/core"
	"quantbin/internal/api"
	"quantbin/internal/config"
	"quantbin/ports"
)

func main() {
	// Optional .env bootstrap; a missing file is fine.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "quantbin",
		Short: "Quantile-binned uncertainty evaluation for model error predictions",
	}

	rootCmd.AddCommand(
		newEvaluateCmd(),
		newEstimateCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// evalFlags are the evaluation knobs shared by evaluate and serve.
type evalFlags struct {
	numBins int
	folds   int
	targets []int
	combine bool
	scale   float64
	types   []string
}

func (f *evalFlags) register(cmd *cobra.Command, defaults config.EvaluationConfig) {
	cmd.Flags().IntVar(&f.numBins, "bins", defaults.NumBins, "Number of quantile bins")
	cmd.Flags().IntVar(&f.folds, "folds", defaults.NumFolds, "Number of cross-validation folds")
	cmd.Flags().IntSliceVar(&f.targets, "targets", defaults.Targets, "Target indices to evaluate")
	cmd.Flags().BoolVar(&f.combine, "combine-middle-bins", defaults.CombineMiddleBins, "Collapse interior bins into one group")
	cmd.Flags().Float64Var(&f.scale, "error-scale", defaults.ErrorScalingFactor, "Error scaling factor for mean-error scoring")
	cmd.Flags().StringSliceVar(&f.types, "types", defaults.UncertaintyTypes, "Uncertainty types to evaluate")
}

func (f *evalFlags) binningConfig() (binning.Config, error) {
	cfg, err := binning.NewConfig(f.numBins, f.targets, f.folds, f.combine)
	if err != nil {
		return binning.Config{}, err
	}
	cfg.ErrorScalingFactor = f.scale
	return cfg, nil
}

func (f *evalFlags) uncertaintyTypes() []core.UncertaintyType {
	out := make([]core.UncertaintyType, len(f.types))
	for i, t := range f.types {
		out[i] = core.UncertaintyType(t)
	}
	return out
}

func newEvaluateCmd() *cobra.Command {
	var flags evalFlags
	var dataDir, reportPath string
	var withBounds, save bool

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cmd := &cobra.Command{
		Use:   "evaluate [models...]",
		Short: "Score per-model bin predictions against true-error quantiles",
		Long: `Evaluate predicted uncertainty bins against ground-truth error quantile
bins for one or more models. Each model needs a table file <data-dir>/<model>.xlsx
(or .csv); bound accuracy additionally needs <data-dir>/<model>_bounds.xlsx.

Example: quantbin evaluate resnet unet --bins 5 --folds 4 --types S-MHA,E-MHA --report out.xlsx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd.Context(), cfg, flags, dataDir, reportPath, args, withBounds, save)
		},
	}

	flags.register(cmd, cfg.Evaluation)
	cmd.Flags().StringVar(&dataDir, "data-dir", cfg.Paths.DataDir, "Directory holding per-model table files")
	cmd.Flags().StringVar(&reportPath, "report", "", "Write an xlsx summary workbook to this path")
	cmd.Flags().BoolVar(&withBounds, "with-bounds", false, "Load bound tables and score bound accuracy")
	cmd.Flags().BoolVar(&save, "save", false, "Persist summary rows to the configured database")

	return cmd
}

func runEvaluate(ctx context.Context, cfg *config.Config, flags evalFlags, dataDir, reportPath string, models []string, withBounds, save bool) error {
	binCfg, err := flags.binningConfig()
	if err != nil {
		return err
	}
	types := flags.uncertaintyTypes()

	reader := excel.NewTableReader(dataDir, types)
	in := ports.EvaluationInputs{
		Tables: make(map[core.ModelName]*binning.SampleTable, len(models)),
	}
	for _, t := range types {
		in.Pairs = append(in.Pairs, core.UncertaintyPair{Type: t, Label: string(t)})
	}
	if withBounds {
		in.Bounds = make(map[core.ModelName]*binning.BoundTable, len(models))
	}
	for _, name := range models {
		model := core.ModelName(name)
		table, err := reader.ReadSamples(ctx, model)
		if err != nil {
			return err
		}
		in.Tables[model] = table
		if withBounds {
			bounds, err := reader.ReadBounds(ctx, model)
			if err != nil {
				return err
			}
			in.Bounds[model] = bounds
		}
	}

	var store ports.SummaryStorePort
	if save {
		if cfg.Database.URL == "" {
			return fmt.Errorf("--save requires DATABASE_URL")
		}
		db, err := postgres.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return err
		}
		store = postgres.NewSummaryRepository(db)
	}

	service := app.NewEvaluationService(binCfg, store)
	out, err := service.EvaluateAll(ctx, in)
	if err != nil {
		return err
	}

	if save {
		if err := service.Persist(ctx, out.Summaries); err != nil {
			return err
		}
	}
	if reportPath != "" {
		if err := excel.NewReportWriter().WriteReport(ctx, reportPath, out.Summaries); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out.Summaries)
}

func newEstimateCmd() *cobra.Command {
	var numBins int
	var combine bool
	var binningType string

	cmd := &cobra.Command{
		Use:   "estimate [pairs.csv]",
		Short: "Estimate per-bin error bounds from (error, uncertainty) pairs",
		Long: `Fit an isotonic regression of error on uncertainty and derive quantile
bin boundaries with their predicted error bounds.

The input CSV needs "error" and "uncertainty" columns.

Example: quantbin estimate validation_pairs.csv --bins 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEstimate(args[0], numBins, estimation.BinningType(binningType), combine)
		},
	}

	cmd.Flags().IntVar(&numBins, "bins", 5, "Number of quantile bins")
	cmd.Flags().BoolVar(&combine, "combine-middle-bins", false, "Keep only the outer boundary pair")
	cmd.Flags().StringVar(&binningType, "binning-type", string(estimation.BinningQuantile), "Boundary derivation: quantile or error-wise")

	return cmd
}

func runEstimate(path string, numBins int, typ estimation.BinningType, combine bool) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open pairs file: %w", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read pairs file: %w", err)
	}
	if len(rows) < 2 {
		return fmt.Errorf("pairs file must have a header row and at least one data row")
	}

	errIdx, uncIdx := -1, -1
	for i, h := range rows[0] {
		switch h {
		case "error":
			errIdx = i
		case "uncertainty":
			uncIdx = i
		}
	}
	if errIdx < 0 || uncIdx < 0 {
		return fmt.Errorf("pairs file needs \"error\" and \"uncertainty\" columns")
	}

	var errs, uncerts []float64
	for n, row := range rows[1:] {
		e, err := strconv.ParseFloat(row[errIdx], 64)
		if err != nil {
			return fmt.Errorf("row %d: invalid error: %w", n+2, err)
		}
		u, err := strconv.ParseFloat(row[uncIdx], 64)
		if err != nil {
			return fmt.Errorf("row %d: invalid uncertainty: %w", n+2, err)
		}
		errs = append(errs, e)
		uncerts = append(uncerts, u)
	}

	bounds, err := estimation.EstimateQuantileBounds(errs, uncerts, numBins, typ, combine)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(bounds)
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the evaluation HTTP API",
		Long: `Serve the evaluation API. Endpoints:

  POST /evaluate/jaccard   Jaccard/recall/precision results
  POST /evaluate/bounds    bound accuracy results
  POST /evaluate/errors    mean-error results
  POST /evaluate           all scorers + summary rows (persisted when a store is configured)
  GET  /summary            stored summaries rendered as HTML
  GET  /healthz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	return cmd
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	binCfg, err := cfg.BinningConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store ports.SummaryStorePort
	if cfg.Database.URL != "" {
		db, err := postgres.Connect(ctx, cfg.Database.URL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return err
		}
		store = postgres.NewSummaryRepository(db)
		log.Printf("[Serve] summary store connected")
	} else {
		log.Printf("[Serve] DATABASE_URL not set, persistence disabled")
	}

	service := app.NewEvaluationService(binCfg, store)
	server := api.NewServer(api.Config{Port: cfg.Server.Port}, service, store)
	return server.Start(ctx)
}
