package riot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"playedtogether/internal/riotid"
)

// Account is a resolved player identity: the stable PUUID plus the Riot ID
// it was resolved from. Immutable once obtained; cached for one run only.
type Account struct {
	PUUID  string        `json:"puuid"`
	RiotID riotid.RiotID `json:"riotId"`
}

// Resolver turns Riot IDs into Accounts via the continental domain,
// memoizing terminal outcomes so the same identity is never looked up twice
// within a run. Cache keys are the normalized (case-insensitive) identity.
type Resolver struct {
	client *Client

	mu    sync.Mutex
	cache map[string]resolveOutcome
}

type resolveOutcome struct {
	account Account
	err     error
}

// NewResolver creates a Resolver on top of the transport client.
func NewResolver(client *Client) *Resolver {
	return &Resolver{
		client: client,
		cache:  make(map[string]resolveOutcome),
	}
}

// Resolve looks up the account for a Riot ID on the given continental host.
// A 404 is surfaced as ErrNotFound wrapped with the identity: the player
// does not exist, which callers treat as recoverable. Not-found outcomes
// are memoized alongside successes; transient failures are not, so a later
// retry can still succeed.
func (r *Resolver) Resolve(ctx context.Context, id riotid.RiotID, continentalHost string) (Account, error) {
	key := id.Key()

	r.mu.Lock()
	if out, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return out.account, out.err
	}
	r.mu.Unlock()

	path := fmt.Sprintf("/riot/account/v1/accounts/by-riot-id/%s/%s",
		url.PathEscape(id.GameName), url.PathEscape(id.TagLine))

	var resp AccountResponse
	err := r.client.Get(ctx, continentalHost, path, &resp)
	if err != nil {
		err = fmt.Errorf("resolve %s: %w", id, err)
		if isTerminal(err) {
			r.store(key, resolveOutcome{err: err})
		}
		return Account{}, err
	}

	acc := Account{PUUID: resp.PUUID, RiotID: id}
	r.store(key, resolveOutcome{account: acc})
	return acc, nil
}

func (r *Resolver) store(key string, out resolveOutcome) {
	r.mu.Lock()
	r.cache[key] = out
	r.mu.Unlock()
}

// isTerminal reports whether an outcome is stable enough to memoize.
// Transient failures are retryable later and must not be cached.
func isTerminal(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnauthorized)
}
