// Package riotid defines the RiotID value type used to address players.
package riotid

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is returned when a string cannot be parsed as a Riot ID.
var ErrInvalid = errors.New("invalid Riot ID, expected 'GameName#TagLine'")

// RiotID is a player identity of the form GameName#TagLine.
type RiotID struct {
	GameName string
	TagLine  string
}

// Parse splits a "GameName#TagLine" string into a RiotID.
// Both halves must be non-empty and the separator must appear exactly once.
func Parse(s string) (RiotID, error) {
	parts := strings.Split(s, "#")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return RiotID{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	return RiotID{GameName: parts[0], TagLine: parts[1]}, nil
}

// String renders the ID back to its GameName#TagLine form.
func (r RiotID) String() string {
	return r.GameName + "#" + r.TagLine
}

// Key returns the normalized lookup key for the identity. Tag lines are
// case-insensitive upstream, so the key lowercases the whole identity.
func (r RiotID) Key() string {
	return strings.ToLower(r.GameName) + "#" + strings.ToLower(r.TagLine)
}

// Dedupe removes identities that normalize to the same key, keeping the
// first occurrence in input order.
func Dedupe(ids []RiotID) []RiotID {
	seen := make(map[string]bool, len(ids))
	out := make([]RiotID, 0, len(ids))
	for _, id := range ids {
		if seen[id.Key()] {
			continue
		}
		seen[id.Key()] = true
		out = append(out, id)
	}
	return out
}
