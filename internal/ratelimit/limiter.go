// Package ratelimit enforces the Riot API's dual request quota per routing
// domain: a short per-second window and a longer two-minute window. Both
// buckets must have capacity before a permit issues.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// Conservative defaults for a dev key (actual: 20/s and 100/2min).
	DefaultPerSecond     = 15
	DefaultPerTwoMinutes = 90

	longWindow = 2 * time.Minute

	// Minimum cooldown applied on a throttled response when the server
	// sends no usable Retry-After hint.
	minCooldown = 1 * time.Second
)

// Limiter hands out permits per routing domain. Callers for different
// domains never block each other; callers for the same domain serialize on
// the domain's buckets.
type Limiter struct {
	perSecond     int
	perTwoMinutes int

	mu      sync.Mutex
	domains map[string]*domainLimiter
}

type domainLimiter struct {
	short *rate.Limiter
	long  *rate.Limiter

	mu           sync.Mutex
	coolingUntil time.Time
}

// New creates a Limiter with the given window caps. Non-positive caps fall
// back to the conservative dev-key defaults.
func New(perSecond, perTwoMinutes int) *Limiter {
	if perSecond <= 0 {
		perSecond = DefaultPerSecond
	}
	if perTwoMinutes <= 0 {
		perTwoMinutes = DefaultPerTwoMinutes
	}
	return &Limiter{
		perSecond:     perSecond,
		perTwoMinutes: perTwoMinutes,
		domains:       make(map[string]*domainLimiter),
	}
}

func (l *Limiter) domain(domain string) *domainLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, ok := l.domains[domain]
	if !ok {
		d = &domainLimiter{
			short: rate.NewLimiter(rate.Limit(l.perSecond), l.perSecond),
			long:  rate.NewLimiter(rate.Every(longWindow/time.Duration(l.perTwoMinutes)), l.perTwoMinutes),
		}
		l.domains[domain] = d
	}
	return d
}

// Acquire blocks until a permit is available for the domain, or the context
// is done. A permit requires capacity in both windows and no active cooldown.
func (l *Limiter) Acquire(ctx context.Context, domain string) error {
	d := l.domain(domain)

	for {
		if err := d.waitCooldown(ctx); err != nil {
			return err
		}

		// Long window first so a short-window token is not burned while the
		// two-minute bucket is empty.
		if err := d.long.Wait(ctx); err != nil {
			return err
		}
		if err := d.short.Wait(ctx); err != nil {
			return err
		}

		// A throttle can land while blocked on the buckets. The server hint
		// is a floor, so a permit is never handed out inside the cooldown.
		d.mu.Lock()
		cooling := time.Now().Before(d.coolingUntil)
		d.mu.Unlock()
		if !cooling {
			return nil
		}
	}
}

// waitCooldown blocks until any active cooldown for the domain has passed.
func (d *domainLimiter) waitCooldown(ctx context.Context) error {
	for {
		d.mu.Lock()
		wait := time.Until(d.coolingUntil)
		d.mu.Unlock()
		if wait <= 0 {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			// Re-check: a sibling may have extended the cooldown meanwhile.
		}
	}
}

// OnThrottled records a server-signaled cooldown for the domain. The
// remaining short-window capacity is zeroed and new permits are withheld for
// max(retryAfter, minCooldown). The hint is a floor, never ignored.
func (l *Limiter) OnThrottled(domain string, retryAfter time.Duration) {
	d := l.domain(domain)

	cooldown := retryAfter
	if cooldown < minCooldown {
		cooldown = minCooldown
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	if remaining := int(d.short.TokensAt(now)); remaining > 0 {
		d.short.AllowN(now, remaining)
	}
	if until := now.Add(cooldown); until.After(d.coolingUntil) {
		d.coolingUntil = until
	}
}
