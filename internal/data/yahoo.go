package data

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dca-backtest/internal/model"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// PriceSource returns monthly prices for an instrument from start onward.
// Instruments the source does not know fail with model.ErrDataUnavailable.
type PriceSource interface {
	MonthlyPrices(ctx context.Context, ticker string, start time.Time) (model.PriceSeries, error)
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol   string `json:"symbol"`
				Currency string `json:"currency"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// YahooClient fetches adjusted closes from the Yahoo Finance chart API.
type YahooClient struct {
	// BaseURLs are tried in order on every attempt.
	BaseURLs []string
	// Backoffs are the pauses between attempts; len(Backoffs)+1 attempts are made.
	Backoffs []time.Duration
	Client   *http.Client
	Logger   *zap.Logger
	Now      func() time.Time
}

// NewYahooClient creates a client for the public query1/query2 hosts.
func NewYahooClient(logger *zap.Logger) *YahooClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YahooClient{
		BaseURLs: []string{"https://query1.finance.yahoo.com", "https://query2.finance.yahoo.com"},
		Backoffs: []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second},
		Client:   &http.Client{Timeout: 30 * time.Second},
		Logger:   logger,
		Now:      time.Now,
	}
}

// MonthlyPrices returns one adjusted close per month. When the monthly interval
// has fewer than 3 rows the daily history is fetched and the last close of each
// month is kept instead.
func (c *YahooClient) MonthlyPrices(ctx context.Context, ticker string, start time.Time) (model.PriceSeries, error) {
	obs, err := c.fetch(ctx, ticker, "1mo", start)
	if err != nil {
		return nil, err
	}
	if len(obs) < 3 {
		c.logger().Info("monthly history too short, resampling daily closes",
			zap.String("ticker", ticker), zap.Int("rows", len(obs)))
		obs, err = c.fetch(ctx, ticker, "1d", start)
		if err != nil {
			return nil, err
		}
	}
	if len(obs) == 0 {
		return nil, &ProviderError{
			Source:  "yahoo",
			Message: "no data returned for " + ticker,
			Err:     model.ErrDataUnavailable,
		}
	}
	return model.NormalizePrices(obs)
}

func (c *YahooClient) fetch(ctx context.Context, ticker, interval string, start time.Time) ([]model.Observation, error) {
	var lastErr error
	for attempt := 0; attempt < len(c.Backoffs)+1; attempt++ {
		for _, base := range c.BaseURLs {
			cr, err := c.chartOnce(ctx, base, ticker, interval, start)
			if err == nil {
				return observations(cr), nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			var pe *ProviderError
			if errors.As(err, &pe) && pe.Err != nil {
				// the source answered: the ticker has no data
				return nil, err
			}
			lastErr = err
			c.logger().Debug("yahoo attempt failed",
				zap.String("ticker", ticker), zap.String("host", base),
				zap.Int("attempt", attempt), zap.Error(err))
		}
		if attempt < len(c.Backoffs) {
			if err := sleep(ctx, c.Backoffs[attempt]); err != nil {
				return nil, err
			}
		}
	}
	c.logger().Warn("yahoo request failed", zap.String("ticker", ticker), zap.Error(lastErr))
	return nil, lastErr
}

func (c *YahooClient) chartOnce(ctx context.Context, base, ticker, interval string, start time.Time) (*chartResponse, error) {
	u, err := url.Parse(strings.TrimRight(base, "/") + "/v8/finance/chart/" + url.PathEscape(ticker))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	q := u.Query()
	q.Set("period1", strconv.FormatInt(start.Unix(), 10))
	q.Set("period2", strconv.FormatInt(c.now().Unix(), 10))
	q.Set("interval", interval)
	q.Set("events", "div,splits")
	q.Set("includeAdjustedClose", "true")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", fmt.Sprintf("https://finance.yahoo.com/quote/%s/chart", strings.ToUpper(ticker)))

	started := time.Now()
	resp, err := c.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read yahoo response: %w", err)
	}
	c.logger().Debug("yahoo response",
		zap.String("ticker", ticker), zap.String("interval", interval),
		zap.Int("status", resp.StatusCode), zap.Duration("duration", time.Since(started)))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || strings.HasPrefix(string(body), "Edge: Too Many Requests"):
		return nil, &ProviderError{Source: "yahoo", StatusCode: http.StatusTooManyRequests, Message: "Edge: Too Many Requests"}
	case resp.StatusCode == http.StatusNotFound:
		return nil, &ProviderError{Source: "yahoo", StatusCode: resp.StatusCode, Message: "no data for " + ticker, Err: model.ErrDataUnavailable}
	case resp.StatusCode != http.StatusOK:
		return nil, &ProviderError{Source: "yahoo", StatusCode: resp.StatusCode, Message: preview(body)}
	case strings.HasPrefix(string(body), "<") || strings.HasPrefix(string(body), "Edge:"):
		return nil, &ProviderError{Source: "yahoo", StatusCode: resp.StatusCode, Message: "non-json body: " + preview(body)}
	}

	var cr chartResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, &ProviderError{Source: "yahoo", StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to parse json: %v", err)}
	}
	if cr.Chart.Error != nil || len(cr.Chart.Result) == 0 {
		msg := "empty chart result for " + ticker
		if cr.Chart.Error != nil {
			msg = cr.Chart.Error.Description
		}
		return nil, &ProviderError{Source: "yahoo", StatusCode: resp.StatusCode, Message: msg, Err: model.ErrDataUnavailable}
	}
	return &cr, nil
}

// observations pairs timestamps with adjusted closes, falling back to raw closes.
// Null points are dropped.
func observations(cr *chartResponse) []model.Observation {
	r := cr.Chart.Result[0]
	var closes []*float64
	if len(r.Indicators.AdjClose) > 0 && len(r.Indicators.AdjClose[0].AdjClose) == len(r.Timestamp) {
		closes = r.Indicators.AdjClose[0].AdjClose
	} else if len(r.Indicators.Quote) > 0 {
		closes = r.Indicators.Quote[0].Close
	}
	out := make([]model.Observation, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		out = append(out, model.Observation{Time: time.Unix(ts, 0).UTC(), Value: *closes[i]})
	}
	return out
}

func (c *YahooClient) client() *http.Client {
	if c.Client == nil {
		return http.DefaultClient
	}
	return c.Client
}

func (c *YahooClient) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *YahooClient) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
