// Package pipeline fans resolve-then-fetch work out across players, joins
// the per-player outcomes, and hands the surviving histories to the
// correlation engine. Per-player failures degrade the report; an invalid
// credential cancels every sibling pipeline.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"playedtogether/internal/correlate"
	"playedtogether/internal/region"
	"playedtogether/internal/riot"
	"playedtogether/internal/riotid"
)

const defaultWindow = 100

// Failure records a player the run could not check, and why. The report
// keeps these separate from "no shared matches": an empty correlation with
// failures present is not a clean negative.
type Failure struct {
	RiotID riotid.RiotID `json:"riotId"`
	Reason string        `json:"reason"`
}

// Stats summarizes the run for the shell's summary output.
type Stats struct {
	Players          int `json:"players"`
	HistoriesFetched int `json:"historiesFetched"`

	// DistinctMatchesScanned is a bloom-filter approximation; it feeds a
	// display line only and plays no part in correlation.
	DistinctMatchesScanned uint32 `json:"distinctMatchesScanned"`

	ElapsedMS int64 `json:"elapsedMs"`
}

// Report is the outcome of one run. All state is request-scoped; nothing
// survives beyond the report.
type Report struct {
	RunID      uuid.UUID         `json:"runId"`
	Entries    []correlate.Entry `json:"entries"`
	Resolved   []riot.Account    `json:"resolved"`
	Unresolved []Failure         `json:"unresolved"`
	Stats      Stats             `json:"stats"`
}

// Runner wires the resolver and history fetcher into per-player pipelines.
type Runner struct {
	resolver *riot.Resolver
	fetcher  *riot.HistoryFetcher
	window   int
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithWindow sets how many recent matches to collect per player.
func WithWindow(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.window = n
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(resolver *riot.Resolver, fetcher *riot.HistoryFetcher, opts ...RunnerOption) *Runner {
	r := &Runner{
		resolver: resolver,
		fetcher:  fetcher,
		window:   defaultWindow,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type playerResult struct {
	account riot.Account
	history []string
	failure *Failure
}

// Run resolves every identity and fetches its recent history concurrently,
// then correlates. Duplicate identities are removed up front so no quota is
// spent twice on the same player. Recoverable per-player failures land in
// the unresolved side list; riot.ErrUnauthorized aborts the whole run and
// cancels outstanding pipelines.
func (r *Runner) Run(ctx context.Context, ids []riotid.RiotID, routes region.Routes) (*Report, error) {
	start := time.Now()
	ids = riotid.Dedupe(ids)

	// Sized for the worst case of fully disjoint histories. False positives
	// only nudge the scanned-matches display count.
	scanned := bloom.NewWithEstimates(uint(len(ids)*r.window)+1, 0.001)

	results := make([]playerResult, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			acc, err := r.resolver.Resolve(gctx, id, routes.Continental)
			if err != nil {
				return r.recordFailure(&results[i], id, "resolve", err)
			}

			history, err := r.fetcher.Fetch(gctx, acc, routes.Continental, r.window)
			if err != nil {
				return r.recordFailure(&results[i], id, "match history", err)
			}

			log.Printf("[Pipeline] %s: %d recent matches", id, len(history))
			results[i] = playerResult{account: acc, history: history}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		// A cancelled run leaves slots that never reached a terminal state;
		// aggregating them would pass zero-value accounts off as clean
		// results, conflating "could not check" with "no shared matches".
		return nil, err
	}

	histories := make(map[riotid.RiotID][]string, len(ids))
	report := &Report{
		RunID:   uuid.New(),
		Entries: []correlate.Entry{},
	}
	for _, res := range results {
		if res.failure != nil {
			report.Unresolved = append(report.Unresolved, *res.failure)
			continue
		}
		histories[res.account.RiotID] = res.history
		report.Resolved = append(report.Resolved, res.account)
		for _, matchID := range res.history {
			scanned.AddString(matchID)
		}
	}

	report.Entries = correlate.Correlate(histories)
	report.Stats = Stats{
		Players:                len(ids),
		HistoriesFetched:       len(histories),
		DistinctMatchesScanned: scanned.ApproximatedSize(),
		ElapsedMS:              time.Since(start).Milliseconds(),
	}
	return report, nil
}

// recordFailure stores a recoverable failure in the player's slot. An
// unauthorized outcome is returned instead: it dooms every sibling call and
// must cancel the group.
func (r *Runner) recordFailure(slot *playerResult, id riotid.RiotID, stage string, err error) error {
	if errors.Is(err, riot.ErrUnauthorized) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		// The run is being torn down, by a sibling's abort or the caller's
		// cancel; Run surfaces the cause after the join.
		return nil
	}

	reason := fmt.Sprintf("%s failed", stage)
	if errors.Is(err, riot.ErrNotFound) {
		reason = "player not found"
	}
	log.Printf("[Pipeline] %s: %s: %v", id, stage, err)
	slot.failure = &Failure{RiotID: id, Reason: reason}
	return nil
}
