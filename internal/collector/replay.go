package collector

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"ICTSentinel/internal/model"
)

// ReplayFetcher serves one-minute bars loaded from CSV together with hourly and
// daily bars resampled from them. Queries only see bars completed at the cursor.
type ReplayFetcher struct {
	mu      sync.RWMutex
	series  map[model.Resolution][]model.OHLCV
	cursor  time.Time
	started bool
}

// NewReplayFetcher builds a replay source from sorted one-minute bars.
func NewReplayFetcher(minute []model.OHLCV) *ReplayFetcher {
	return &ReplayFetcher{
		series: map[model.Resolution][]model.OHLCV{
			model.Minute: minute,
			model.Hour:   Resample(minute, time.Hour),
			model.Daily:  Resample(minute, 24*time.Hour),
		},
	}
}

// NewReplayFetcherFromCSV loads the file at path and builds a replay source.
func NewReplayFetcherFromCSV(path string) (*ReplayFetcher, error) {
	bars, err := LoadCSV(path)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("replay: %s holds no bars", path)
	}
	return NewReplayFetcher(bars), nil
}

func (f *ReplayFetcher) Name() string { return "replay" }

// Bars returns the one-minute bars in replay order.
func (f *ReplayFetcher) Bars() []model.OHLCV {
	return f.series[model.Minute]
}

// Advance moves the cursor to the open time of the bar being processed.
// That bar counts as closed.
func (f *ReplayFetcher) Advance(t time.Time) {
	f.mu.Lock()
	f.cursor = t
	f.started = true
	f.mu.Unlock()
}

func (f *ReplayFetcher) FetchBars(_ string, res model.Resolution, count int) ([]model.OHLCV, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	bars, ok := f.series[res]
	if !ok {
		return nil, fmt.Errorf("replay: unsupported resolution %q", res)
	}
	if !f.started {
		return nil, nil
	}
	horizon := f.cursor.Add(time.Minute)
	width := res.Duration()
	n := sort.Search(len(bars), func(i int) bool {
		return bars[i].Time.Add(width).After(horizon)
	})
	visible := tail(bars[:n], count)
	out := make([]model.OHLCV, len(visible))
	copy(out, visible)
	return out, nil
}

// LoadCSV reads bars with a header row naming time/timestamp, open, high, low,
// close and optionally volume. Rows that fail to parse are skipped.
func LoadCSV(path string) ([]model.OHLCV, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var out []model.OHLCV
	var headers []string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		if headers == nil {
			headers = rec
			continue
		}
		row := map[string]string{}
		for j, h := range headers {
			k := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
			if j < len(rec) {
				row[k] = strings.TrimSpace(rec[j])
			}
		}
		ts := first(row, "time", "timestamp", "date")
		op, cp := first(row, "open"), first(row, "close")
		if ts == "" || op == "" || cp == "" {
			continue
		}
		tt, err := parseTimeFlexible(ts)
		if err != nil {
			continue
		}
		o, _ := strconv.ParseFloat(op, 64)
		h, _ := strconv.ParseFloat(first(row, "high"), 64)
		l, _ := strconv.ParseFloat(first(row, "low"), 64)
		c, _ := strconv.ParseFloat(cp, 64)
		v, _ := strconv.ParseFloat(first(row, "volume", "vol"), 64)
		out = append(out, model.OHLCV{Time: tt, Open: o, High: h, Low: l, Close: c, Volume: v})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

// parseTimeFlexible supports RFC3339, "2006-01-02 15:04:05", UNIX seconds and milliseconds.
func parseTimeFlexible(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC(), nil
	}
	if ts, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return ts, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad time: %s", s)
}

func first(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}
