// Package region maps the user-facing region selector to the two routing
// domains the Riot API requires: a platform host for platform-scoped data
// and a continental host for account- and match-scoped data.
package region

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupported is returned for region strings outside the supported set.
var ErrUnsupported = errors.New("unsupported region")

// Region is a user-facing server cluster selector.
type Region string

// Supported regions.
const (
	BR   Region = "BR"
	EUNE Region = "EUNE"
	EUW  Region = "EUW"
	JP   Region = "JP"
	KR   Region = "KR"
	LAN  Region = "LAN"
	LAS  Region = "LAS"
	ME   Region = "ME"
	NA   Region = "NA"
	OCE  Region = "OCE"
	RU   Region = "RU"
	SEA  Region = "SEA"
	TR   Region = "TR"
	TW   Region = "TW"
	VN   Region = "VN"
)

// Routes holds the two API hosts a region resolves to.
type Routes struct {
	// Platform is the platform-scoped host, e.g. https://na1.api.riotgames.com.
	Platform string
	// Continental is the account/match-scoped host, e.g.
	// https://americas.api.riotgames.com.
	Continental string
}

type entry struct {
	platform    string // platform subdomain (na1, euw1, ...)
	continental string // continental subdomain (americas, europe, asia)
	logSlug     string // leagueofgraphs.com region path segment
}

// Static routing table. Total over the Region set; no network lookups.
var table = map[Region]entry{
	BR:   {"br1", "americas", "br"},
	EUNE: {"eun1", "europe", "eune"},
	EUW:  {"euw1", "europe", "euw"},
	JP:   {"jp1", "asia", "jp"},
	KR:   {"kr", "asia", "kr"},
	LAN:  {"la1", "americas", "lan"},
	LAS:  {"la2", "americas", "las"},
	ME:   {"me1", "europe", "me"},
	NA:   {"na1", "americas", "na"},
	OCE:  {"oc1", "americas", "oce"},
	RU:   {"ru", "europe", "ru"},
	SEA:  {"sg2", "asia", "sea"},
	TR:   {"tr1", "europe", "tr"},
	TW:   {"tw2", "asia", "tw"},
	VN:   {"vn2", "asia", "vn"},
}

// Parse converts a user-supplied region string (any case) to a Region.
func Parse(s string) (Region, error) {
	r := Region(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := table[r]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, s)
	}
	return r, nil
}

// Resolve returns the platform and continental hosts for a region.
func Resolve(r Region) (Routes, error) {
	e, ok := table[r]
	if !ok {
		return Routes{}, fmt.Errorf("%w: %q", ErrUnsupported, string(r))
	}
	return Routes{
		Platform:    fmt.Sprintf("https://%s.api.riotgames.com", e.platform),
		Continental: fmt.Sprintf("https://%s.api.riotgames.com", e.continental),
	}, nil
}

// LoGSlug returns the leagueofgraphs.com path segment for a region.
// Unknown regions fall back to the lowercase region string.
func LoGSlug(r Region) string {
	if e, ok := table[r]; ok {
		return e.logSlug
	}
	return strings.ToLower(string(r))
}

// All returns the supported regions, for help text.
func All() []Region {
	return []Region{BR, EUNE, EUW, JP, KR, LAN, LAS, ME, NA, OCE, RU, SEA, TR, TW, VN}
}
