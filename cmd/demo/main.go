package main

import (
	"flag"
	"fmt"
	"os"

	"dca-backtest/internal/analysis"
	"dca-backtest/internal/backtest"
	"dca-backtest/internal/config"
	"dca-backtest/internal/data"
	"dca-backtest/internal/report"
)

// Demo:
// - Load a series saved by `cli fetch` (e.g. data/spy.json)
// - Run a single DCA simulation over its first n months
// - Print the ledger and the summary row to show how the pieces fit together
func main() {
	dataPath := flag.String("data", "data/spy.json", "Path to a series file written by `cli fetch`")
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	n := flag.Int("n", 12, "Number of months to simulate")
	outCSV := flag.String("out", "", "Optional path to write ledger CSV (e.g. results/demo.csv)")
	flag.Parse()

	file, err := data.LoadSeriesFile(*dataPath)
	if err != nil {
		panic(err)
	}
	if len(file.Observations) == 0 {
		panic("no observations in series file")
	}

	// Defaults (can be overridden via --config).
	cfg, err := config.Preset("us")
	if err != nil {
		panic(err)
	}
	if *cfgPath != "" {
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			panic(err)
		}
	}

	months := min(*n, len(file.Observations))
	path, err := backtest.SimulatorFor(file.Kind)(file.Observations, cfg.Contribution, months)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Loaded %d months for %s (%s)\n", len(file.Observations), file.ID, file.Kind)
	fmt.Printf("Contribution=%s per month\n\n", report.Money(cfg.Currency, cfg.Contribution))

	for i := 0; i < min(12, path.Len()); i++ {
		r := path.Records[i]
		if h := r.Holding; h != nil {
			fmt.Printf("%s price=%10.2f  bought=%10.4f  shares=%10.4f  invested=%10.2f  value=%10.2f\n",
				r.Period.Format("2006-01"), h.Price, h.SharesBought, h.TotalShares, r.TotalInvested, r.PortfolioValue)
			continue
		}
		fmt.Printf("%s invested=%10.2f  value=%10.2f\n", r.Period.Format("2006-01"), r.TotalInvested, r.PortfolioValue)
	}

	if *outCSV != "" {
		if err := backtest.WritePathCSV(*outCSV, path); err != nil {
			panic(err)
		}
		fmt.Printf("\nWrote CSV: %s\n", *outCSV)
	}

	s := analysis.Summarize(path, file.ID, cfg.RiskFreeRate)
	fmt.Println()
	if err := report.WriteTable(os.Stdout, cfg.Currency, []analysis.Summary{s}); err != nil {
		panic(err)
	}
}
