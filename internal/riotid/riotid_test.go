package riotid

import (
	"errors"
	"testing"
)

func TestParse_Valid(t *testing.T) {
	id, err := Parse("Faker#KR1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if id.GameName != "Faker" || id.TagLine != "KR1" {
		t.Errorf("Unexpected parse result: %+v", id)
	}
	if id.String() != "Faker#KR1" {
		t.Errorf("Expected round-trip string, got: %s", id.String())
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := []string{
		"",
		"NoSeparator",
		"#TagOnly",
		"NameOnly#",
		"Too#Many#Hashes",
	}
	for _, in := range cases {
		if _, err := Parse(in); !errors.Is(err, ErrInvalid) {
			t.Errorf("Parse(%q): expected ErrInvalid, got %v", in, err)
		}
	}
}

func TestKey_CaseInsensitive(t *testing.T) {
	a, _ := Parse("Player#NA1")
	b, _ := Parse("player#na1")
	if a.Key() != b.Key() {
		t.Errorf("Expected identical keys, got %q and %q", a.Key(), b.Key())
	}
}

func TestDedupe(t *testing.T) {
	ids := []RiotID{
		{GameName: "Alpha", TagLine: "NA1"},
		{GameName: "alpha", TagLine: "na1"},
		{GameName: "Beta", TagLine: "NA1"},
	}
	out := Dedupe(ids)
	if len(out) != 2 {
		t.Fatalf("Expected 2 unique ids, got %d", len(out))
	}
	// First occurrence wins.
	if out[0].GameName != "Alpha" || out[1].GameName != "Beta" {
		t.Errorf("Unexpected order: %v", out)
	}
}
