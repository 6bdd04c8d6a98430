package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"playedtogether/internal/ratelimit"
	"playedtogether/internal/region"
	"playedtogether/internal/riot"
	"playedtogether/internal/riotid"
)

// fakeUpstream serves account lookups and match-id lists for a canned set
// of players.
type fakeUpstream struct {
	// gameName (lowercased) -> puuid; missing players 404.
	players map[string]string
	// puuid -> history, newest first.
	histories map[string][]string

	accountCalls int64
	forbidAll    bool
}

func (f *fakeUpstream) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.forbidAll {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		switch {
		case strings.HasPrefix(r.URL.Path, "/riot/account/v1/accounts/by-riot-id/"):
			atomic.AddInt64(&f.accountCalls, 1)
			parts := strings.Split(r.URL.Path, "/")
			name := strings.ToLower(parts[len(parts)-2])
			puuid, ok := f.players[name]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(riot.AccountResponse{PUUID: puuid, GameName: name, TagLine: "NA1"})

		case strings.HasPrefix(r.URL.Path, "/lol/match/v5/matches/by-puuid/"):
			parts := strings.Split(r.URL.Path, "/")
			puuid := parts[len(parts)-2]
			json.NewEncoder(w).Encode(f.histories[puuid])

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newTestRunner(t *testing.T, serverURL string) (*Runner, region.Routes) {
	t.Helper()
	limiter := ratelimit.New(100, 1000)
	client, err := riot.NewClient("RGAPI-test-key", limiter,
		riot.WithBaseBackoff(time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	runner := NewRunner(
		riot.NewResolver(client),
		riot.NewHistoryFetcher(client, riot.WithHorizon(0)),
		WithWindow(10),
	)
	routes := region.Routes{Platform: serverURL, Continental: serverURL}
	return runner, routes
}

func ids(t *testing.T, raw ...string) []riotid.RiotID {
	t.Helper()
	out := make([]riotid.RiotID, 0, len(raw))
	for _, s := range raw {
		id, err := riotid.Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q): %v", s, err)
		}
		out = append(out, id)
	}
	return out
}

func TestRun_SharedMatches(t *testing.T) {
	up := &fakeUpstream{
		players: map[string]string{"alice": "p-alice", "bob": "p-bob", "carol": "p-carol"},
		histories: map[string][]string{
			"p-alice": {"NA1_123", "NA1_7"},
			"p-bob":   {"NA1_9", "NA1_123"},
			"p-carol": {"NA1_555"},
		},
	}
	server := httptest.NewServer(up.handler())
	defer server.Close()

	runner, routes := newTestRunner(t, server.URL)
	report, err := runner.Run(context.Background(), ids(t, "Alice#NA1", "Bob#NA1", "Carol#NA1"), routes)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(report.Entries) != 1 || report.Entries[0].MatchID != "NA1_123" {
		t.Fatalf("Expected single shared match NA1_123, got %v", report.Entries)
	}
	if len(report.Entries[0].Participants) != 2 {
		t.Errorf("Expected 2 participants, got %v", report.Entries[0].Participants)
	}
	// Carol has no overlap: valid outcome, not a failure.
	if len(report.Unresolved) != 0 {
		t.Errorf("Expected no failures, got %v", report.Unresolved)
	}
	if report.Stats.HistoriesFetched != 3 {
		t.Errorf("Expected 3 histories fetched, got %d", report.Stats.HistoriesFetched)
	}
	if report.RunID.String() == "00000000-0000-0000-0000-000000000000" {
		t.Error("Expected a run id to be assigned")
	}
}

// TestRun_UnresolvablePlayerDegradesReport: one
// unknown identity and one valid one yield an empty correlation plus a side
// list naming exactly the unknown player.
func TestRun_UnresolvablePlayerDegradesReport(t *testing.T) {
	up := &fakeUpstream{
		players: map[string]string{"alice": "p-alice"},
		histories: map[string][]string{
			"p-alice": {"NA1_1"},
		},
	}
	server := httptest.NewServer(up.handler())
	defer server.Close()

	runner, routes := newTestRunner(t, server.URL)
	report, err := runner.Run(context.Background(), ids(t, "Alice#NA1", "Ghost#NA1"), routes)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(report.Entries) != 0 {
		t.Errorf("Expected empty correlation, got %v", report.Entries)
	}
	if len(report.Unresolved) != 1 {
		t.Fatalf("Expected exactly 1 unresolved player, got %v", report.Unresolved)
	}
	f := report.Unresolved[0]
	if f.RiotID.GameName != "Ghost" || f.Reason != "player not found" {
		t.Errorf("Unexpected failure record: %+v", f)
	}
	// Alice still resolved: the empty result is distinguishable from a
	// failed check.
	if report.Stats.HistoriesFetched != 1 {
		t.Errorf("Expected 1 history fetched, got %d", report.Stats.HistoriesFetched)
	}
}

func TestRun_AuthErrorAbortsRun(t *testing.T) {
	up := &fakeUpstream{forbidAll: true}
	server := httptest.NewServer(up.handler())
	defer server.Close()

	runner, routes := newTestRunner(t, server.URL)
	_, err := runner.Run(context.Background(), ids(t, "Alice#NA1", "Bob#NA1"), routes)
	if !errors.Is(err, riot.ErrUnauthorized) {
		t.Fatalf("Expected ErrUnauthorized to abort the run, got: %v", err)
	}
}

func TestRun_DuplicateIdentitiesDeduplicated(t *testing.T) {
	up := &fakeUpstream{
		players: map[string]string{"alice": "p-alice", "bob": "p-bob"},
		histories: map[string][]string{
			"p-alice": {"NA1_1"},
			"p-bob":   {"NA1_1"},
		},
	}
	server := httptest.NewServer(up.handler())
	defer server.Close()

	runner, routes := newTestRunner(t, server.URL)
	report, err := runner.Run(context.Background(),
		ids(t, "Alice#NA1", "alice#na1", "Bob#NA1"), routes)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Stats.Players != 2 {
		t.Errorf("Expected 2 players after dedupe, got %d", report.Stats.Players)
	}
	if calls := atomic.LoadInt64(&up.accountCalls); calls != 2 {
		t.Errorf("Expected 2 account lookups, got %d", calls)
	}
	if len(report.Entries) != 1 || len(report.Entries[0].Participants) != 2 {
		t.Errorf("Unexpected entries: %v", report.Entries)
	}
}

// TestRun_CancelledRunSurfacesError: cancelling the caller's context
// mid-run must fail the run, not yield a report whose untouched slots read
// as clean players with no shared matches.
func TestRun_CancelledRunSurfacesError(t *testing.T) {
	up := &fakeUpstream{
		players: map[string]string{"alice": "p-alice", "bob": "p-bob"},
		histories: map[string][]string{
			"p-alice": {"NA1_1"},
			"p-bob":   {"NA1_1"},
		},
	}
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		up.handler().ServeHTTP(w, r)
	}))
	defer slow.Close()

	runner, routes := newTestRunner(t, slow.URL)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	report, err := runner.Run(ctx, ids(t, "Alice#NA1", "Bob#NA1"), routes)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled from cancelled run, got: %v", err)
	}
	if report != nil {
		t.Errorf("Expected no report from a cancelled run, got %+v", report)
	}
}

func TestRun_NoPlayers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("No network call expected for empty input")
	}))
	defer server.Close()

	runner, routes := newTestRunner(t, server.URL)
	report, err := runner.Run(context.Background(), nil, routes)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Entries) != 0 || len(report.Unresolved) != 0 {
		t.Errorf("Expected empty report, got %+v", report)
	}
}

func TestRun_DistinctMatchesScanned(t *testing.T) {
	histories := map[string][]string{
		"p-alice": make([]string, 0, 20),
		"p-bob":   make([]string, 0, 20),
	}
	for i := 0; i < 20; i++ {
		histories["p-alice"] = append(histories["p-alice"], fmt.Sprintf("NA1_a%d", i))
		histories["p-bob"] = append(histories["p-bob"], fmt.Sprintf("NA1_b%d", i))
	}
	up := &fakeUpstream{
		players:   map[string]string{"alice": "p-alice", "bob": "p-bob"},
		histories: histories,
	}
	server := httptest.NewServer(up.handler())
	defer server.Close()

	runner, routes := newTestRunner(t, server.URL)
	report, err := runner.Run(context.Background(), ids(t, "Alice#NA1", "Bob#NA1"), routes)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// 20 distinct ids (window 10 per player, all disjoint); the bloom
	// estimate should land close.
	got := report.Stats.DistinctMatchesScanned
	if got < 15 || got > 25 {
		t.Errorf("Expected scanned estimate near 20, got %d", got)
	}
}
