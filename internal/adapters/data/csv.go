package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/binarybot/internal/domain"
)

// CSV loads bars from a CSV file with a timestamp,open,high,low,close,volume
// header. Rows outside [start, end] are skipped.
type CSV struct {
	path string
}

// NewCSV builds a loader for the given file.
func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

// Load reads and filters the file. Rows must be in chronological order;
// ValidateBars downstream catches files that are not.
func (l *CSV) Load(_ context.Context, _, _ string, start, end time.Time) ([]domain.Bar, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("data.CSV: open %q: %w", l.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("data.CSV: read header: %w", err)
	}
	col := map[string]int{}
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"timestamp", "open", "high", "low", "close", "volume"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("data.CSV: missing column %q in %q", required, l.path)
		}
	}

	var bars []domain.Bar
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("data.CSV: read line %d: %w", line+1, err)
		}
		line++

		ts, err := parseTimestamp(record[col["timestamp"]])
		if err != nil {
			return nil, fmt.Errorf("data.CSV: line %d: %w", line, err)
		}
		if ts.Before(start) || ts.After(end) {
			continue
		}

		bar := domain.Bar{Timestamp: ts.UTC()}
		for _, f := range []struct {
			name string
			dst  *float64
		}{
			{"open", &bar.Open},
			{"high", &bar.High},
			{"low", &bar.Low},
			{"close", &bar.Close},
			{"volume", &bar.Volume},
		} {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[col[f.name]]), 64)
			if err != nil {
				return nil, fmt.Errorf("data.CSV: line %d: parse %s: %w", line, f.name, err)
			}
			*f.dst = v
		}
		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("data.CSV: no bars in %q within the requested range", l.path)
	}
	return bars, nil
}

// parseTimestamp accepts RFC3339, "2006-01-02 15:04:05" and unix seconds.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse(time.DateTime, s); err == nil {
		return ts.UTC(), nil
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
