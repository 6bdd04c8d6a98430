package riot

import (
	"testing"

	"playedtogether/internal/riotid"
)

func mustParse(t *testing.T, s string) riotid.RiotID {
	t.Helper()
	id, err := riotid.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return id
}
