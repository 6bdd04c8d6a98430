// Package correlate computes which matches a set of players appeared in
// together, from per-player match-id histories alone. It is pure: no
// network, no clock, no shared state across invocations.
package correlate

import (
	"sort"

	"playedtogether/internal/riotid"
)

// Entry is one shared match in the report.
type Entry struct {
	MatchID string `json:"matchId"`

	// Participants are the input players whose history contains the match,
	// sorted by normalized identity for determinism.
	Participants []riotid.RiotID `json:"participants"`

	// BestIndex is the lowest position the match held in any contributing
	// history. Histories are newest first, so a lower value means the match
	// is more recent for at least one player. This approximates recency
	// without fetching per-match timestamps.
	BestIndex int `json:"bestIndex"`
}

type aggregate struct {
	participants map[riotid.RiotID]bool
	bestIndex    int
}

// Correlate returns the matches appearing in two or more distinct players'
// histories, ordered by best index ascending, then participant count
// descending, then match id ascending.
//
// Zero or one usable history yields an empty result; no pair is possible.
func Correlate(histories map[riotid.RiotID][]string) []Entry {
	byMatch := make(map[string]*aggregate)

	for player, history := range histories {
		for idx, matchID := range history {
			agg, ok := byMatch[matchID]
			if !ok {
				agg = &aggregate{
					participants: make(map[riotid.RiotID]bool),
					bestIndex:    idx,
				}
				byMatch[matchID] = agg
			}
			agg.participants[player] = true
			if idx < agg.bestIndex {
				agg.bestIndex = idx
			}
		}
	}

	entries := make([]Entry, 0, len(byMatch))
	for matchID, agg := range byMatch {
		if len(agg.participants) < 2 {
			continue
		}
		participants := make([]riotid.RiotID, 0, len(agg.participants))
		for p := range agg.participants {
			participants = append(participants, p)
		}
		sort.Slice(participants, func(i, j int) bool {
			return participants[i].Key() < participants[j].Key()
		})
		entries = append(entries, Entry{
			MatchID:      matchID,
			Participants: participants,
			BestIndex:    agg.bestIndex,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].BestIndex != entries[j].BestIndex {
			return entries[i].BestIndex < entries[j].BestIndex
		}
		if len(entries[i].Participants) != len(entries[j].Participants) {
			return len(entries[i].Participants) > len(entries[j].Participants)
		}
		return entries[i].MatchID < entries[j].MatchID
	})

	return entries
}
