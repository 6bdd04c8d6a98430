package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"playedtogether/internal/config"
	"playedtogether/internal/pipeline"
	"playedtogether/internal/ratelimit"
	"playedtogether/internal/region"
	"playedtogether/internal/riot"
	"playedtogether/internal/riotid"

	"github.com/joho/godotenv"
)

// output is the JSON shape for --json mode.
type output struct {
	Report  *pipeline.Report         `json:"report"`
	Matches []pipeline.EnrichedEntry `json:"matches,omitempty"`
	Wins    int                      `json:"winsTogether"`
}

func main() {
	// Load .env file if present; real env vars win.
	godotenv.Load()

	var (
		regionFlag = flag.String("region", "", "Region (BR, EUNE, EUW, JP, KR, LAN, LAS, ME, NA, OCE, RU, SEA, TR, TW, VN)")
		countFlag  = flag.Int("count", 0, "Number of recent matches to check per player")
		setSelf    = flag.String("set-self", "", "Store a Riot ID as your own and exit (e.g. 'Name#Tag')")
		setKey     = flag.String("set-key", "", "Store the API key in the config file and exit")
		configPath = flag.String("config", "", "Config file path (default: user config dir)")
		noEnrich   = flag.Bool("no-enrich", false, "Skip the match-detail pass (saves quota)")
		verbose    = flag.Bool("verbose", false, "Show full match details")
		silent     = flag.Bool("silent", false, "Only print match links and a summary")
		jsonOut    = flag.Bool("json", false, "Print the report as JSON")
	)
	flag.Parse()

	path := *configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			log.Fatalf("Failed to locate config dir: %v", err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *setSelf != "" {
		if _, err := riotid.Parse(*setSelf); err != nil {
			log.Fatalf("Invalid Riot ID: %v", err)
		}
		cfg.SelfRiotID = *setSelf
		if err := cfg.Save(path); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}
		fmt.Printf("Stored '%s' as your self Riot ID.\n", *setSelf)
		return
	}
	if *setKey != "" {
		cfg.APIKey = *setKey
		if err := cfg.Save(path); err != nil {
			log.Fatalf("Failed to save config: %v", err)
		}
		fmt.Println("Stored API key locally.")
		return
	}

	ids, err := playerIDs(flag.Args(), cfg.SelfRiotID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		flag.Usage()
		os.Exit(1)
	}

	if *regionFlag != "" {
		cfg.Region = *regionFlag
	}
	reg, err := region.Parse(cfg.Region)
	if err != nil {
		log.Fatalf("Invalid region: %v (supported: %v)", err, region.All())
	}
	routes, err := region.Resolve(reg)
	if err != nil {
		log.Fatalf("Failed to resolve region: %v", err)
	}

	if cfg.APIKey == "" {
		log.Fatal("No API key. Set RIOT_API_KEY, or store one with --set-key.")
	}
	if *countFlag > 0 {
		cfg.WindowSize = *countFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := ratelimit.New(cfg.RatePerSecond, cfg.RatePerTwoMinutes)
	client, err := riot.NewClient(cfg.APIKey, limiter,
		riot.WithMaxAttempts(cfg.MaxAttempts),
	)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}

	// Probe the key before spending the rest of the quota on the run.
	validator := riot.NewKeyValidator(client, routes.Platform)
	valid, err := validator.ValidateKey(ctx)
	if err != nil {
		log.Printf("[Main] Key validation inconclusive: %v (continuing)", err)
	} else if !valid {
		log.Fatal("API key is invalid or expired.")
	}

	runner := pipeline.NewRunner(
		riot.NewResolver(client),
		riot.NewHistoryFetcher(client,
			riot.WithHorizon(time.Duration(cfg.HorizonDays)*24*time.Hour)),
		pipeline.WithWindow(cfg.WindowSize),
	)

	report, err := runner.Run(ctx, ids, routes)
	if err != nil {
		if errors.Is(err, riot.ErrUnauthorized) {
			log.Fatal("API key rejected mid-run; aborted remaining lookups.")
		}
		log.Fatalf("Run failed: %v", err)
	}

	var enriched []pipeline.EnrichedEntry
	wins := 0
	if !*noEnrich && len(report.Entries) > 0 && len(report.Resolved) > 0 {
		enricher := pipeline.NewEnricher(client, pipeline.WithEnrichWorkers(cfg.EnrichWorkers))
		enriched, wins = enricher.Enrich(ctx, routes.Continental, region.LoGSlug(reg),
			report.Entries, report.Resolved, report.Resolved[0])
	}

	if *jsonOut {
		data, err := json.MarshalIndent(output{Report: report, Matches: enriched, Wins: wins}, "", "  ")
		if err != nil {
			log.Fatalf("Failed to encode report: %v", err)
		}
		fmt.Println(string(data))
		return
	}

	printReport(report, enriched, wins, *verbose, *silent)
}

// playerIDs resolves the positional arguments into the player list. One
// argument pairs the stored self ID with it; two or more are used as-is.
func playerIDs(args []string, self string) ([]riotid.RiotID, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no players given")
	}

	raw := args
	if len(args) == 1 {
		if self == "" {
			return nil, fmt.Errorf("a single player needs a stored self Riot ID (--set-self), or pass two or more players")
		}
		raw = append([]string{self}, args...)
	}

	ids := make([]riotid.RiotID, 0, len(raw))
	for _, s := range raw {
		id, err := riotid.Parse(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printReport(report *pipeline.Report, enriched []pipeline.EnrichedEntry, wins int, verbose, silent bool) {
	if !silent && verbose {
		for _, e := range enriched {
			fmt.Printf("\nMatch %s — players: %v\n", e.MatchID, e.Participants)
			if e.Detail == nil {
				fmt.Println("  (no detail available)")
				continue
			}
			fmt.Printf("  Date: %s\n", e.Detail.GameStart.Format("2006-01-02 15:04:05 UTC"))
			fmt.Printf("  Game Mode: %s, Game Type: %s\n", e.Detail.GameMode, e.Detail.GameType)
			if e.Detail.Link != "" {
				fmt.Printf("  %s\n", e.Detail.Link)
			}
			for _, p := range e.Detail.Players {
				fmt.Printf("  %s: %s (%s) KDA %d/%d/%d — %s\n",
					p.RiotID, p.Champion, p.Role, p.Kills, p.Deaths, p.Assists, winLoss(p.Win))
			}
		}
	}

	fmt.Println("\n--- Query Summary ---")
	fmt.Printf("Players checked: %d (%d histories fetched)\n",
		report.Stats.Players, report.Stats.HistoriesFetched)
	fmt.Printf("Distinct matches scanned: ~%d in %dms\n",
		report.Stats.DistinctMatchesScanned, report.Stats.ElapsedMS)
	fmt.Printf("Matches played together: %d\n", len(report.Entries))
	if len(enriched) > 0 && len(report.Resolved) > 0 {
		fmt.Printf("Of those, %d were won by %s.\n", wins, report.Resolved[0].RiotID)
	}

	// Failed lookups are never conflated with "no shared matches".
	for _, f := range report.Unresolved {
		fmt.Printf("Could not check %s: %s\n", f.RiotID, f.Reason)
	}

	if silent {
		fmt.Println("\n--- Found Game Links ---")
		links := 0
		for _, e := range enriched {
			if e.Detail != nil && e.Detail.Link != "" {
				fmt.Println(e.Detail.Link)
				links++
			}
		}
		if links == 0 {
			fmt.Println("No games found together.")
		}
	}
}

func winLoss(win bool) string {
	if win {
		return "WIN"
	}
	return "LOSS"
}
