package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"dca-backtest/internal/analysis"
	"dca-backtest/internal/backtest"
	"dca-backtest/internal/chart"
	"dca-backtest/internal/compare"
	"dca-backtest/internal/config"
	"dca-backtest/internal/data"
	"dca-backtest/internal/logging"
	"dca-backtest/internal/model"
	"dca-backtest/internal/report"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	// .env is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fail(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch os.Args[1] {
	case "compare":
		cmdCompare(ctx, os.Args[2:])
	case "fetch":
		cmdFetch(ctx, os.Args[2:])
	case "simulate":
		cmdSimulate(ctx, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli compare  [--config examples/config.yaml | --preset us|brazil] [--csv] [--json results/run.json]")
	fmt.Println("  cli fetch    --ticker SPY [--fx BRL=X] [--start 1990-01-01] --out data/spy.json")
	fmt.Println("  cli fetch    --cdi [--from-year 2000] --out data/cdi.json")
	fmt.Println("  cli simulate --data data/spy.json [--months 120] [--rolling] [--out results/spy.csv]")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - compare prints the latest-window table and rolling statistics, and writes charts to output_dir")
	fmt.Println("  - DCA_* environment variables (or a .env file) override config values")
}

func cmdCompare(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config")
	preset := fs.String("preset", "us", "Preset used when no config is given: us | brazil")
	outDir := fs.String("out", "", "Output directory (default: output_dir from config)")
	writeCSV := fs.Bool("csv", false, "Also write one ledger CSV per latest-window path")
	jsonPath := fs.String("json", "", "Optional: write the full result as JSON to this path")
	noCharts := fs.Bool("no-charts", false, "Skip chart rendering")
	quiet := fs.Bool("quiet", false, "Hide the progress bar")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*cfgPath, *preset)
	if err != nil {
		fail(err)
	}
	if *outDir != "" {
		cfg.OutputDir = *outDir
	}
	logger := mustLogger(cfg)
	defer logger.Sync()

	provider, closeProvider, err := data.OpenProvider(ctx, cfg, logger)
	if err != nil {
		fail(err)
	}
	defer closeProvider()

	opts, err := compare.OptionsFromConfig(cfg)
	if err != nil {
		fail(err)
	}
	var bar *progressbar.ProgressBar
	if !*quiet {
		opts.OnRollingStart = func(total int) { bar = initProgressBar(total) }
		opts.Progress = func() { _ = bar.Add(1) }
	}

	fmt.Println("Downloading price data...")
	res, err := compare.New(provider, provider, opts, logger).Run(ctx)
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	if err != nil {
		fail(err)
	}

	if err := report.WriteResult(os.Stdout, cfg.Currency, res); err != nil {
		fail(err)
	}

	prefix := ""
	if cfg.Name != "" {
		prefix = cfg.Name + "_"
	}
	if !*noCharts {
		writeCharts(cfg, prefix, res)
	}
	if *writeCSV {
		files, err := report.ExportPaths(filepath.Join(cfg.OutputDir, "ledgers"), prefix, res.Latest)
		if err != nil {
			fail(err)
		}
		fmt.Printf("Wrote %d ledger CSV files\n", len(files))
	}
	if *jsonPath != "" {
		if err := os.MkdirAll(filepath.Dir(*jsonPath), 0o755); err != nil {
			fail(err)
		}
		f, err := os.Create(*jsonPath)
		if err != nil {
			fail(err)
		}
		defer f.Close()
		if err := report.WriteJSON(f, res); err != nil {
			fail(err)
		}
		fmt.Printf("Wrote %s\n", *jsonPath)
	}

	fmt.Printf("\nDone! Check the %s/ folder for charts.\n", cfg.OutputDir)
}

func writeCharts(cfg *config.Config, prefix string, res *compare.Result) {
	window := report.Span(cfg.WindowMonths)
	type job struct {
		name   string
		render func() ([]byte, error)
	}
	var jobs []job
	if res.Latest != nil {
		jobs = append(jobs, job{prefix + "growth_comparison.png", func() ([]byte, error) {
			return chart.Growth("Portfolio Growth: DCA Comparison ("+years(cfg.WindowMonths)+")", res.Latest.Labels, res.Latest.Paths)
		}})
	}
	if res.AllAssets != nil {
		jobs = append(jobs, job{prefix + "growth_all_assets.png", func() ([]byte, error) {
			return chart.Growth("Portfolio Growth: All Assets ("+years(res.AllAssets.Months)+")", res.AllAssets.Labels, res.AllAssets.Paths)
		}})
	}
	if res.Rolling != nil {
		jobs = append(jobs,
			job{prefix + "rolling_returns.png", func() ([]byte, error) {
				return chart.RollingReturns("Rolling "+window+" DCA Returns by Start Date", res.Rolling.Aligned)
			}},
			job{prefix + "rolling_final_values.png", func() ([]byte, error) {
				return chart.FinalValues("Distribution of Final Portfolio Values (Rolling "+window+" Windows)", res.Rolling.Stats)
			}},
		)
	}

	for _, j := range jobs {
		png, err := j.render()
		if errors.Is(err, chart.ErrNoData) {
			fmt.Printf("  Skipping %s: nothing to plot\n", j.name)
			continue
		}
		if err != nil {
			fail(err)
		}
		path, err := chart.Save(cfg.OutputDir, j.name, png)
		if err != nil {
			fail(err)
		}
		fmt.Printf("  Saved %s\n", path)
	}
}

func cmdFetch(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	ticker := fs.String("ticker", "", "Yahoo ticker, e.g. SPY or BOVA11.SA")
	fx := fs.String("fx", "", "Optional FX ticker to re-price with, e.g. BRL=X")
	start := fs.String("start", "1990-01-01", "First date to request (YYYY-MM-DD)")
	cdi := fs.Bool("cdi", false, "Fetch monthly CDI factors instead of prices")
	fromYear := fs.Int("from-year", 2000, "First CDI year")
	cfgPath := fs.String("config", "", "Optional YAML config for cache and logging settings")
	outPath := fs.String("out", "", "Output JSON path")
	_ = fs.Parse(args)

	if *outPath == "" || (*ticker == "" && !*cdi) {
		fmt.Println("--out and one of --ticker or --cdi are required")
		os.Exit(2)
	}
	cfg, err := loadConfig(*cfgPath, "us")
	if err != nil {
		fail(err)
	}
	logger := mustLogger(cfg)
	defer logger.Sync()

	provider, closeProvider, err := data.OpenProvider(ctx, cfg, logger)
	if err != nil {
		fail(err)
	}
	defer closeProvider()

	var file *data.SeriesFile
	if *cdi {
		factors, err := provider.MonthlyFactors(ctx, *fromYear)
		if err != nil {
			fail(err)
		}
		file = &data.SeriesFile{ID: "CDI", Kind: model.KindRate, Observations: factors}
	} else {
		startTime, err := time.Parse("2006-01-02", *start)
		if err != nil {
			fail(fmt.Errorf("--start: %w", err))
		}
		prices, err := provider.MonthlyPrices(ctx, *ticker, startTime)
		if err != nil {
			fail(err)
		}
		id := *ticker
		if *fx != "" {
			rates, err := provider.MonthlyPrices(ctx, *fx, startTime)
			if err != nil {
				fail(err)
			}
			prices = model.ConvertPrices(prices, rates)
			id = *ticker + "*" + *fx
		}
		file = &data.SeriesFile{ID: id, Kind: model.KindPrice, Observations: prices}
	}

	if err := data.SaveSeriesFile(file, *outPath); err != nil {
		fail(err)
	}
	first, last, _ := model.Span(file.Observations)
	fmt.Printf("Wrote %d months (%s to %s) to %s\n",
		len(file.Observations), model.MonthLabel(first), model.MonthLabel(last), *outPath)
}

func cmdSimulate(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	dataPath := fs.String("data", "", "Series JSON written by 'cli fetch'")
	contribution := fs.Float64("contribution", 1000, "Monthly contribution")
	months := fs.Int("months", 0, "Window length in months (0 = whole series; rolling default 120)")
	riskFree := fs.Float64("risk-free", 0.03, "Annual risk-free rate for the Sharpe ratio")
	rolling := fs.Bool("rolling", false, "Run every rolling window instead of the latest one")
	workers := fs.Int("workers", 4, "Parallel rolling windows")
	outPath := fs.String("out", "", "Optional: CSV path (ledger, or one row per window with --rolling)")
	_ = fs.Parse(args)

	if *dataPath == "" {
		fmt.Println("--data is required")
		os.Exit(2)
	}
	file, err := data.LoadSeriesFile(*dataPath)
	if err != nil {
		fail(err)
	}
	label := file.ID
	sim := backtest.SimulatorFor(file.Kind)

	if !*rolling {
		n := *months
		if n == 0 {
			n = len(file.Observations)
		}
		obs := file.Observations
		if len(obs) > n {
			obs = obs[len(obs)-n:]
		}
		p, err := sim(obs, *contribution, n)
		if err != nil {
			fail(err)
		}
		if err := report.WriteTable(os.Stdout, "$", []analysis.Summary{analysis.Summarize(p, label, *riskFree)}); err != nil {
			fail(err)
		}
		if *outPath != "" {
			if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
				fail(err)
			}
			if err := backtest.WritePathCSV(*outPath, p); err != nil {
				fail(err)
			}
			fmt.Printf("Wrote %d rows to %s\n", p.Len(), *outPath)
		}
		return
	}

	window := *months
	if window == 0 {
		window = 120
	}
	total := backtest.WindowCount(len(file.Observations), window)
	bar := initProgressBar(total)
	engine := backtest.New(*workers)
	engine.Progress = func() { _ = bar.Add(1) }
	paths, err := engine.Rolling(ctx, file.Observations, *contribution, window, sim)
	_ = bar.Finish()
	fmt.Println()
	if err != nil {
		fail(err)
	}

	summaries := analysis.SummarizeAll(paths, label, *riskFree)
	set := analysis.Align(map[string][]analysis.Summary{label: summaries})
	rr := &compare.RollingResult{
		Window:  window,
		Counts:  map[string]int{label: len(summaries)},
		Aligned: set,
		Stats:   analysis.Aggregate(set),
	}
	if err := report.WriteRollingStats(os.Stdout, "$", rr); err != nil {
		fail(err)
	}
	if *outPath != "" {
		if err := report.WriteSummariesCSV(*outPath, summaries); err != nil {
			fail(err)
		}
		fmt.Printf("Wrote %d windows to %s\n", len(summaries), *outPath)
	}
}

func loadConfig(path, preset string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadUnchecked(path)
	} else {
		cfg, err = config.Preset(preset)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func mustLogger(cfg *config.Config) *zap.Logger {
	logger, err := logging.New(cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		fail(err)
	}
	return logger
}

func initProgressBar(maxTicks int) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Running rolling windows..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}

func years(months int) string {
	return strconv.FormatFloat(float64(months)/12, 'f', -1, 64) + " Years"
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
