package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/binarybot/internal/domain"
)

const (
	defaultBinanceBase = "https://api.binance.com"

	// Klines cost weight 2 of a 6000/min budget; 10/s stays far below it.
	klinesRatePerSec = 10
	klinesPageLimit  = 1000

	maxRetries    = 3
	baseRetryWait = 500 * time.Millisecond
)

// Binance loads historical klines from the public REST API, paginating
// until the requested range is covered.
type Binance struct {
	http    *http.Client
	base    string
	limiter *rate.Limiter
}

// NewBinance builds a loader against the given base URL. An empty base
// uses production.
func NewBinance(base string) *Binance {
	if base == "" {
		base = defaultBinanceBase
	}
	return &Binance{
		http:    &http.Client{Timeout: 10 * time.Second},
		base:    base,
		limiter: rate.NewLimiter(klinesRatePerSec, 5),
	}
}

// Load fetches klines for [start, end]. The symbol is passed through as-is;
// Binance expects the concatenated form (BTCUSDT).
func (l *Binance) Load(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]domain.Bar, error) {
	var bars []domain.Bar
	cursor := start

	for cursor.Before(end) {
		page, err := l.fetchPage(ctx, symbol, timeframe, cursor, end)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		bars = append(bars, page...)
		cursor = page[len(page)-1].Timestamp.Add(time.Millisecond)
		if len(page) < klinesPageLimit {
			break
		}
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("data.Binance: no klines for %s %s in range", symbol, timeframe)
	}
	return bars, nil
}

func (l *Binance) fetchPage(ctx context.Context, symbol, timeframe string, start, end time.Time) ([]domain.Bar, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", timeframe)
	q.Set("startTime", strconv.FormatInt(start.UnixMilli(), 10))
	q.Set("endTime", strconv.FormatInt(end.UnixMilli(), 10))
	q.Set("limit", strconv.Itoa(klinesPageLimit))
	u := l.base + "/api/v3/klines?" + q.Encode()

	var raw [][]any
	if err := l.get(ctx, u, &raw); err != nil {
		return nil, fmt.Errorf("data.Binance: fetch klines: %w", err)
	}

	bars := make([]domain.Bar, 0, len(raw))
	for _, k := range raw {
		bar, err := parseKline(k)
		if err != nil {
			return nil, fmt.Errorf("data.Binance: %w", err)
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// get performs a GET with rate limiting and exponential backoff retries.
func (l *Binance) get(ctx context.Context, u string, out any) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := l.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := l.http.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return fmt.Errorf("request failed after %d retries: %w", maxRetries, err)
			}
			l.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			resp.Body.Close()
			if resp.StatusCode == http.StatusTooManyRequests {
				slog.Warn("rate limited by Binance", "attempt", attempt+1)
			}
			if attempt == maxRetries {
				return fmt.Errorf("status %d after %d retries", resp.StatusCode, maxRetries)
			}
			l.sleep(ctx, attempt)
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return fmt.Errorf("client error %d: %s", resp.StatusCode, string(body))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}
	return fmt.Errorf("exhausted %d retries", maxRetries)
}

func (l *Binance) sleep(ctx context.Context, attempt int) {
	wait := time.Duration(math.Pow(2, float64(attempt))) * baseRetryWait
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

// parseKline converts one raw kline row. The wire format is a positional
// array: [openTime, open, high, low, close, volume, closeTime, ...] with
// prices as strings.
func parseKline(k []any) (domain.Bar, error) {
	if len(k) < 6 {
		return domain.Bar{}, fmt.Errorf("short kline row: %d fields", len(k))
	}

	openTime, ok := k[0].(float64)
	if !ok {
		return domain.Bar{}, fmt.Errorf("kline open time is %T, want number", k[0])
	}

	bar := domain.Bar{Timestamp: time.UnixMilli(int64(openTime)).UTC()}
	for i, dst := range []*float64{&bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume} {
		s, ok := k[i+1].(string)
		if !ok {
			return domain.Bar{}, fmt.Errorf("kline field %d is %T, want string", i+1, k[i+1])
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return domain.Bar{}, fmt.Errorf("kline field %d: %w", i+1, err)
		}
		*dst = v
	}
	return bar, nil
}
