package data

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dca-backtest/internal/model"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CDISeries is the SGS code of the daily CDI rate, in percent per day.
const CDISeries = 12

// RateSource returns monthly compounding factors of a benchmark from a year onward.
type RateSource interface {
	MonthlyFactors(ctx context.Context, fromYear int) (model.RateSeries, error)
}

type sgsRecord struct {
	Date  string `json:"data"`
	Value string `json:"valor"`
}

// BCBClient reads daily series from the Banco Central do Brasil SGS API.
type BCBClient struct {
	BaseURL string
	Series  int
	// Attempts per year; Pause between failed attempts, YearPause between years.
	Attempts  int
	Pause     time.Duration
	YearPause time.Duration
	Client    *http.Client
	Logger    *zap.Logger
	Now       func() time.Time
}

// NewBCBClient creates a CDI client. If baseURL is empty, defaults to "https://api.bcb.gov.br".
func NewBCBClient(baseURL string, logger *zap.Logger) *BCBClient {
	if baseURL == "" {
		baseURL = "https://api.bcb.gov.br"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BCBClient{
		BaseURL:   baseURL,
		Series:    CDISeries,
		Attempts:  3,
		Pause:     2 * time.Second,
		YearPause: 500 * time.Millisecond,
		Client:    &http.Client{Timeout: 30 * time.Second},
		Logger:    logger,
		Now:       time.Now,
	}
}

// MonthlyFactors compounds the daily rates of every month into one factor.
func (c *BCBClient) MonthlyFactors(ctx context.Context, fromYear int) (model.RateSeries, error) {
	days, err := c.DailyRates(ctx, fromYear)
	if err != nil {
		return nil, err
	}
	return model.AggregateDailyRates(days)
}

// DailyRates fetches one request per calendar year from fromYear to the current year.
// A year that still fails after Attempts tries fails the whole fetch.
func (c *BCBClient) DailyRates(ctx context.Context, fromYear int) ([]model.DailyRate, error) {
	current := c.now().Year()
	if fromYear > current {
		return nil, &model.InvalidInputError{Field: "from_year", Reason: fmt.Sprintf("%d is in the future", fromYear)}
	}

	var out []model.DailyRate
	for year := fromYear; year <= current; year++ {
		records, err := c.fetchYear(ctx, year)
		if err != nil {
			return nil, err
		}
		c.logger().Info("fetched CDI year", zap.Int("year", year), zap.Int("days", len(records)))
		for _, r := range records {
			d, err := parseRecord(r)
			if err != nil {
				c.logger().Warn("skipping CDI record", zap.String("date", r.Date), zap.Error(err))
				continue
			}
			out = append(out, d)
		}
		if year < current {
			if err := sleep(ctx, c.YearPause); err != nil {
				return nil, err
			}
		}
	}
	if len(out) == 0 {
		return nil, &ProviderError{Source: "bcb", Message: "no CDI data returned", Err: model.ErrDataUnavailable}
	}
	return out, nil
}

func (c *BCBClient) fetchYear(ctx context.Context, year int) ([]sgsRecord, error) {
	attempts := c.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		records, err := c.fetchYearOnce(ctx, year)
		if err == nil {
			return records, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		c.logger().Debug("bcb attempt failed", zap.Int("year", year), zap.Int("attempt", attempt), zap.Error(err))
		if attempt < attempts-1 {
			if err := sleep(ctx, c.Pause); err != nil {
				return nil, err
			}
		}
	}
	return nil, fmt.Errorf("fetch CDI %d: %w", year, lastErr)
}

func (c *BCBClient) fetchYearOnce(ctx context.Context, year int) ([]sgsRecord, error) {
	u, err := url.Parse(fmt.Sprintf("%s/dados/serie/bcdata.sgs.%d/dados", strings.TrimRight(c.BaseURL, "/"), c.Series))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("formato", "json")
	q.Set("dataInicial", fmt.Sprintf("01/01/%d", year))
	q.Set("dataFinal", fmt.Sprintf("31/12/%d", year))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	req.Header.Set("Accept", "*/*")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read bcb response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Source: "bcb", StatusCode: resp.StatusCode, Message: preview(body)}
	}

	var records []sgsRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, &ProviderError{Source: "bcb", StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to parse json: %v", err)}
	}
	return records, nil
}

func parseRecord(r sgsRecord) (model.DailyRate, error) {
	t, err := time.Parse("02/01/2006", r.Date)
	if err != nil {
		return model.DailyRate{}, fmt.Errorf("parse date: %w", err)
	}
	v, err := decimal.NewFromString(strings.TrimSpace(r.Value))
	if err != nil {
		return model.DailyRate{}, fmt.Errorf("parse rate: %w", err)
	}
	return model.DailyRate{Date: t, RatePct: v.InexactFloat64()}, nil
}

func (c *BCBClient) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c *BCBClient) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
