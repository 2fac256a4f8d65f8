package limiter

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rohmanhakim/nps-explorer/pkg/timeutil"
)

// RateLimiter spaces requests to the same host.
type RateLimiter interface {
	// Wait blocks until host may be requested again, or ctx ends.
	Wait(ctx context.Context, host string) error
}

/*
HostLimiter hands out one request slot per host at a time.

Each call reserves the next free slot for its host and sleeps until the slot
opens. Consecutive slots are baseDelay plus a fresh jitter apart, so callers
racing on the same host are spaced as if they had queued. The first request
to a host never waits.

A reservation whose caller gives up is not returned; the next caller simply
waits a little longer.
*/
type HostLimiter struct {
	mu        sync.Mutex
	baseDelay time.Duration
	jitter    time.Duration
	rng       *rand.Rand
	nextSlot  map[string]time.Time
}

func NewHostLimiter(baseDelay time.Duration, jitter time.Duration, randomSeed int64) *HostLimiter {
	return &HostLimiter{
		baseDelay: baseDelay,
		jitter:    jitter,
		rng:       rand.New(rand.NewSource(randomSeed)),
		nextSlot:  make(map[string]time.Time),
	}
}

func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	return timeutil.Sleep(ctx, h.Reserve(host))
}

// Reserve books the next slot for host and returns how long until it opens.
func (h *HostLimiter) Reserve(host string) time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	slot := now
	if next, ok := h.nextSlot[host]; ok && next.After(now) {
		slot = next
	}
	h.nextSlot[host] = slot.Add(h.baseDelay + timeutil.ComputeJitter(h.jitter, h.rng))
	return slot.Sub(now)
}

// Hosts returns the number of hosts seen so far.
func (h *HostLimiter) Hosts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.nextSlot)
}
