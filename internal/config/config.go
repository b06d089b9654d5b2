package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dca-backtest/internal/model"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML). Fields missing from the
// file keep the values of the selected preset.
type Config struct {
	// Preset picks the starting point: "us" (default) or "brazil".
	Preset string `yaml:"preset"`
	// Optional: load strategies and benchmark from a separate YAML (e.g. examples/universes/*.yaml).
	UniverseFile string `yaml:"universe_file"`

	Name         string  `yaml:"name"`     // prefixes output files when set
	Currency     string  `yaml:"currency"` // symbol used in reports
	Contribution float64 `yaml:"contribution"`
	WindowMonths int     `yaml:"window_months"`
	RiskFreeRate float64 `yaml:"risk_free_rate"`
	Start        string  `yaml:"start"` // YYYY-MM-DD, first requested price date

	Strategies []StrategyConfig `yaml:"strategies"`
	Benchmark  *BenchmarkConfig `yaml:"benchmark"`

	Cache     CacheConfig `yaml:"cache"`
	OutputDir string      `yaml:"output_dir"`
	Workers   int         `yaml:"workers"`
	Log       LogConfig   `yaml:"log"`
	API       APIConfig   `yaml:"api"`
}

type StrategyConfig struct {
	Label  string `yaml:"label"`
	Ticker string `yaml:"ticker"`
	// FXTicker re-prices the instrument by multiplying with this FX series (e.g. BRL=X).
	FXTicker string `yaml:"fx_ticker,omitempty"`
	// Start overrides the global start date for this instrument.
	Start string `yaml:"start,omitempty"`
}

// BenchmarkConfig describes the compounding-rate benchmark.
type BenchmarkConfig struct {
	Label    string `yaml:"label"`
	Source   string `yaml:"source"` // only "bcb_cdi"
	FromYear int    `yaml:"from_year"`
}

type CacheConfig struct {
	Driver string        `yaml:"driver"` // memory | sqlite | postgres
	DSN    string        `yaml:"dsn"`
	TTL    time.Duration `yaml:"ttl"`     // in-memory layer
	MaxAge time.Duration `yaml:"max_age"` // persistent layer; 0 never expires
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type APIConfig struct {
	Port int    `yaml:"port"`
	Env  string `yaml:"env"`
}

const BenchmarkSourceCDI = "bcb_cdi"

// Default is the US comparison: SPY, AGG, SHY, TIP, BIL and BTC with $1,000 a month over 10 years.
func Default() *Config {
	return &Config{
		Preset:       "us",
		Currency:     "$",
		Contribution: 1000,
		WindowMonths: 120,
		RiskFreeRate: 0.03,
		Start:        "1990-01-01",
		Strategies: []StrategyConfig{
			{Label: "Equities (SPY)", Ticker: "SPY"},
			{Label: "Agg Bonds (AGG)", Ticker: "AGG"},
			{Label: "Short Treasury (SHY)", Ticker: "SHY"},
			{Label: "TIPS (TIP)", Ticker: "TIP"},
			{Label: "T-Bills (BIL)", Ticker: "BIL"},
			{Label: "Bitcoin (BTC)", Ticker: "BTC-USD"},
		},
		Cache: CacheConfig{
			Driver: "sqlite",
			DSN:    "data/series.db",
			TTL:    time.Hour,
		},
		OutputDir: "output",
		Workers:   4,
		Log:       LogConfig{Level: "info"},
		API:       APIConfig{Port: 8080, Env: "development"},
	}
}

// Brazil compares Brazilian ETFs and BTC priced in BRL against 100% of the CDI.
func Brazil() *Config {
	c := Default()
	c.Preset = "brazil"
	c.Name = "brazil"
	c.Currency = "R$"
	c.Strategies = []StrategyConfig{
		{Label: "DCA BOVA11", Ticker: "BOVA11.SA"},
		{Label: "DCA DIVO11", Ticker: "DIVO11.SA"},
		{Label: "DCA IVVB11", Ticker: "IVVB11.SA"},
		{Label: "DCA GOLD11", Ticker: "GOLD11.SA"},
		{Label: "DCA BTC (BRL)", Ticker: "BTC-USD", FXTicker: "BRL=X", Start: "2010-01-01"},
	}
	c.Benchmark = &BenchmarkConfig{Label: "100% CDI", Source: BenchmarkSourceCDI, FromYear: 2000}
	return c
}

// Preset returns a fresh copy of a named preset.
func Preset(name string) (*Config, error) {
	switch name {
	case "", "us":
		return Default(), nil
	case "brazil":
		return Brazil(), nil
	default:
		return nil, fmt.Errorf("unknown preset %q", name)
	}
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads the file over its preset and applies the universe file,
// but does not validate.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(raw, &head); err != nil {
		return nil, err
	}
	c, err := Preset(head.Preset)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, err
	}
	if c.UniverseFile != "" {
		universePath := c.UniverseFile
		if !filepath.IsAbs(universePath) {
			// Prefer paths relative to the config file, then fall back to cwd.
			cand := filepath.Join(filepath.Dir(path), universePath)
			if _, err := os.Stat(cand); err == nil {
				universePath = cand
			}
		}
		u, err := loadUniverseFile(universePath)
		if err != nil {
			return nil, err
		}
		c.MergeUniverse(u)
	}
	return c, nil
}

// Universe is the instrument list of a comparison.
type Universe struct {
	Strategies []StrategyConfig `yaml:"strategies"`
	Benchmark  *BenchmarkConfig `yaml:"benchmark"`
}

func loadUniverseFile(path string) (Universe, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Universe{}, err
	}
	var u Universe
	if err := yaml.Unmarshal(raw, &u); err != nil {
		return Universe{}, fmt.Errorf("parse universe file: %w", err)
	}
	return u, nil
}

// MergeUniverse replaces the strategy list when u has one and the benchmark when u sets one.
func (c *Config) MergeUniverse(u Universe) {
	if len(u.Strategies) > 0 {
		c.Strategies = u.Strategies
	}
	if u.Benchmark != nil {
		c.Benchmark = u.Benchmark
	}
}

// ApplyEnv overlays DCA_* variables read through getenv (usually os.Getenv).
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("DCA_CONTRIBUTION"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("DCA_CONTRIBUTION: %w", err)
		}
		c.Contribution = f
	}
	if v := getenv("DCA_WINDOW_MONTHS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DCA_WINDOW_MONTHS: %w", err)
		}
		c.WindowMonths = n
	}
	if v := getenv("DCA_RISK_FREE_RATE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("DCA_RISK_FREE_RATE: %w", err)
		}
		c.RiskFreeRate = f
	}
	if v := getenv("DCA_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DCA_WORKERS: %w", err)
		}
		c.Workers = n
	}
	if v := getenv("DCA_CACHE_DRIVER"); v != "" {
		c.Cache.Driver = v
	}
	if v := getenv("DCA_CACHE_DSN"); v != "" {
		c.Cache.DSN = v
	}
	if v := getenv("DCA_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := getenv("DCA_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := getenv("DCA_API_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DCA_API_PORT: %w", err)
		}
		c.API.Port = n
	}
	return nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if _, err := c.StartTime(); err != nil {
		return err
	}
	if len(c.Strategies) == 0 && c.Benchmark == nil {
		return errors.New("at least one strategy or a benchmark is required")
	}
	seen := map[string]bool{}
	for i, s := range c.Strategies {
		if s.Label == "" {
			return fmt.Errorf("strategies[%d].label is required", i)
		}
		if s.Ticker == "" {
			return fmt.Errorf("strategies[%d].ticker is required", i)
		}
		if seen[s.Label] {
			return fmt.Errorf("duplicate strategy label %q", s.Label)
		}
		seen[s.Label] = true
		if _, err := c.StrategyStart(s); err != nil {
			return fmt.Errorf("strategies[%d]: %w", i, err)
		}
	}
	if b := c.Benchmark; b != nil {
		if b.Label == "" {
			return errors.New("benchmark.label is required")
		}
		if seen[b.Label] {
			return fmt.Errorf("benchmark label %q clashes with a strategy", b.Label)
		}
		if b.Source != BenchmarkSourceCDI {
			return fmt.Errorf("unknown benchmark source %q", b.Source)
		}
		if b.FromYear < 1900 {
			return fmt.Errorf("benchmark.from_year %d is out of range", b.FromYear)
		}
	}
	switch c.Cache.Driver {
	case "", "memory":
	case "sqlite", "postgres":
		if c.Cache.DSN == "" {
			return fmt.Errorf("cache.dsn is required for driver %q", c.Cache.Driver)
		}
	default:
		return fmt.Errorf("unknown cache driver %q", c.Cache.Driver)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	return nil
}

func (c *Config) Params() model.Params {
	return model.Params{
		Contribution:   c.Contribution,
		WindowMonths:   c.WindowMonths,
		RiskFreeAnnual: c.RiskFreeRate,
	}
}

func (c *Config) StartTime() (time.Time, error) {
	return parseDate("start", c.Start)
}

// StrategyStart is the strategy's own start date, or the global one.
func (c *Config) StrategyStart(s StrategyConfig) (time.Time, error) {
	if s.Start != "" {
		return parseDate("start", s.Start)
	}
	return c.StartTime()
}

func parseDate(field, v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: expected YYYY-MM-DD, got %q", field, v)
	}
	return t, nil
}
