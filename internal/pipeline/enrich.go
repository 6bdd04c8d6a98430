package pipeline

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"playedtogether/internal/correlate"
	"playedtogether/internal/riot"
	"playedtogether/internal/riotid"
)

const defaultEnrichWorkers = 5

// PlayerLine is one report player's performance in an enriched match.
type PlayerLine struct {
	RiotID   riotid.RiotID `json:"riotId"`
	Champion string        `json:"champion"`
	Role     string        `json:"role"`
	Kills    int           `json:"kills"`
	Deaths   int           `json:"deaths"`
	Assists  int           `json:"assists"`
	Win      bool          `json:"win"`
}

// MatchDetail is the optional second-pass data for one shared match.
type MatchDetail struct {
	GameStart time.Time    `json:"gameStart"`
	GameMode  string       `json:"gameMode"`
	GameType  string       `json:"gameType"`
	Link      string       `json:"link,omitempty"`
	Players   []PlayerLine `json:"players"`
}

// EnrichedEntry pairs a correlation entry with fetched match detail.
// Detail is nil when the fetch for that match failed; the entry itself
// remains valid.
type EnrichedEntry struct {
	correlate.Entry
	Detail *MatchDetail `json:"detail,omitempty"`
}

// Enricher fetches match detail for the entries of a finished report only,
// trading a handful of extra calls for exact timestamps and outcomes. It
// runs a small worker pool over the shared transport client, so the run's
// rate limits still apply.
type Enricher struct {
	client  *riot.Client
	workers int
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithEnrichWorkers sets the worker pool size.
func WithEnrichWorkers(n int) EnricherOption {
	return func(e *Enricher) {
		if n > 0 {
			e.workers = n
		}
	}
}

// NewEnricher creates an Enricher on top of the transport client.
func NewEnricher(client *riot.Client, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		client:  client,
		workers: defaultEnrichWorkers,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich fetches detail for each entry via host, keeping only the report's
// own players in each match line-up. logSlug names the leagueofgraphs.com
// region path segment for match links; empty disables links. The returned
// count is how many enriched matches the reference account won.
//
// Entries with detail sort newest first by real timestamp; entries whose
// detail fetch failed keep their correlation order, after the rest.
func (e *Enricher) Enrich(ctx context.Context, host, logSlug string, entries []correlate.Entry, accounts []riot.Account, reference riot.Account) ([]EnrichedEntry, int) {
	out := make([]EnrichedEntry, len(entries))
	for i, entry := range entries {
		out[i] = EnrichedEntry{Entry: entry}
	}
	if len(entries) == 0 {
		return out, 0
	}

	byPUUID := make(map[string]riotid.RiotID, len(accounts))
	for _, acc := range accounts {
		byPUUID[acc.PUUID] = acc.RiotID
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				detail, err := e.fetchDetail(ctx, host, logSlug, out[i].MatchID, byPUUID)
				if err != nil {
					log.Printf("[Enrich] %s: %v", out[i].MatchID, err)
					continue
				}
				out[i].Detail = detail
			}
		}()
	}
	for i := range out {
		select {
		case jobs <- i:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	sort.SliceStable(out, func(i, j int) bool {
		di, dj := out[i].Detail, out[j].Detail
		switch {
		case di != nil && dj != nil:
			return di.GameStart.After(dj.GameStart)
		case di != nil:
			return true
		default:
			return false
		}
	})

	wins := 0
	for _, entry := range out {
		if entry.Detail == nil {
			continue
		}
		for _, line := range entry.Detail.Players {
			if line.RiotID == reference.RiotID && line.Win {
				wins++
			}
		}
	}
	return out, wins
}

func (e *Enricher) fetchDetail(ctx context.Context, host, logSlug, matchID string, byPUUID map[string]riotid.RiotID) (*MatchDetail, error) {
	var match riot.MatchResponse
	path := fmt.Sprintf("/lol/match/v5/matches/%s", matchID)
	if err := e.client.Get(ctx, host, path, &match); err != nil {
		return nil, err
	}

	detail := &MatchDetail{
		GameStart: time.UnixMilli(match.Info.GameStartTimestamp).UTC(),
		GameMode:  match.Info.GameMode,
		GameType:  match.Info.GameType,
		Link:      matchLink(logSlug, matchID),
	}
	for _, p := range match.Info.Participants {
		id, ok := byPUUID[p.PUUID]
		if !ok {
			continue
		}
		detail.Players = append(detail.Players, PlayerLine{
			RiotID:   id,
			Champion: p.ChampionName,
			Role:     p.TeamPosition,
			Kills:    p.Kills,
			Deaths:   p.Deaths,
			Assists:  p.Assists,
			Win:      p.Win,
		})
	}
	return detail, nil
}

// matchLink builds a leagueofgraphs.com link from the numeric half of the
// match id. Empty when the slug is unset or the id has no region prefix.
func matchLink(logSlug, matchID string) string {
	if logSlug == "" {
		return ""
	}
	_, numeric, ok := strings.Cut(matchID, "_")
	if !ok {
		return ""
	}
	return fmt.Sprintf("https://www.leagueofgraphs.com/match/%s/%s", logSlug, numeric)
}
