package riot

import (
	"context"
	"fmt"
	"time"
)

const (
	// Upstream caps match-id pages at 100 entries.
	maxPageSize = 100

	// DefaultHorizon bounds the "recent games" window in time, matching
	// the roughly-one-month window the product promises.
	DefaultHorizon = 30 * 24 * time.Hour
)

// HistoryFetcher collects recent match identifiers for an account, newest
// first, paging through the upstream list endpoint until the requested
// window is filled or the upstream runs out of history.
type HistoryFetcher struct {
	client   *Client
	pageSize int
	horizon  time.Duration
	now      func() time.Time
}

// FetcherOption configures a HistoryFetcher.
type FetcherOption func(*HistoryFetcher)

// WithPageSize lowers the per-call page size (capped at the upstream max).
func WithPageSize(n int) FetcherOption {
	return func(f *HistoryFetcher) {
		if n > 0 && n <= maxPageSize {
			f.pageSize = n
		}
	}
}

// WithHorizon sets the time horizon for the window. Zero disables the
// start-time filter entirely.
func WithHorizon(d time.Duration) FetcherOption {
	return func(f *HistoryFetcher) { f.horizon = d }
}

// NewHistoryFetcher creates a HistoryFetcher on top of the transport client.
func NewHistoryFetcher(client *Client, opts ...FetcherOption) *HistoryFetcher {
	f := &HistoryFetcher{
		client:   client,
		pageSize: maxPageSize,
		horizon:  DefaultHorizon,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns up to window match ids for the account, newest first. A
// short page signals exhaustion: the partial list is returned as success,
// the player simply has less history than requested.
func (f *HistoryFetcher) Fetch(ctx context.Context, acc Account, host string, window int) ([]string, error) {
	if window <= 0 {
		return nil, nil
	}

	var startTime int64
	if f.horizon > 0 {
		startTime = f.now().Add(-f.horizon).Unix()
	}

	ids := make([]string, 0, window)
	seen := make(map[string]bool, window)
	offset := 0

	for len(ids) < window {
		count := f.pageSize
		if remaining := window - len(ids); remaining < count {
			count = remaining
		}

		path := fmt.Sprintf("/lol/match/v5/matches/by-puuid/%s/ids?start=%d&count=%d",
			acc.PUUID, offset, count)
		if startTime > 0 {
			path += fmt.Sprintf("&startTime=%d", startTime)
		}

		var page []string
		if err := f.client.Get(ctx, host, path, &page); err != nil {
			return nil, fmt.Errorf("match history for %s: %w", acc.RiotID, err)
		}

		offset += len(page)
		for _, id := range page {
			// Pages can shift between calls while new games finish;
			// drop ids already collected.
			if seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
			if len(ids) == window {
				return ids, nil
			}
		}

		if len(page) < count {
			break // exhausted
		}
	}

	return ids, nil
}
