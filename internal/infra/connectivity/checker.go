// Package connectivity tracks whether the ingestion endpoint is
// reachable. It stands in for browser online/offline events: a
// periodic probe flips an atomic flag and notifies subscribers on
// every transition.
package connectivity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

// Probe checks reachability; nil error means online.
type Probe func(ctx context.Context) error

// Checker maintains the current online flag and fans transitions out
// to subscribers. Starts optimistic (online) until the first probe
// says otherwise.
type Checker struct {
	probe    Probe
	interval time.Duration
	online   atomic.Bool
	log      *slog.Logger

	mu   sync.Mutex
	subs []func(online bool)
}

// New creates a checker probing the given URL with a HEAD request.
// An empty URL produces a checker that never probes and stays online
// unless flipped manually.
func New(probeURL string, interval time.Duration, log *slog.Logger) *Checker {
	var probe Probe
	if probeURL != "" {
		client := resty.New().SetTimeout(5 * time.Second)
		probe = func(ctx context.Context) error {
			resp, err := client.R().SetContext(ctx).Head(probeURL)
			if err != nil {
				return fmt.Errorf("probe failed: %w", err)
			}
			if resp.StatusCode() >= 500 {
				return fmt.Errorf("probe returned %s", resp.Status())
			}
			return nil
		}
	}
	return NewWithProbe(probe, interval, log)
}

// NewWithProbe creates a checker with a custom probe.
func NewWithProbe(probe Probe, interval time.Duration, log *slog.Logger) *Checker {
	if log == nil {
		log = slog.Default()
	}
	if interval == 0 {
		interval = 15 * time.Second
	}
	c := &Checker{probe: probe, interval: interval, log: log}
	c.online.Store(true)
	return c
}

// Online returns the current connectivity flag.
func (c *Checker) Online() bool {
	return c.online.Load()
}

// Subscribe registers a callback invoked on every online/offline
// transition. Callbacks run on the checker's goroutine and must not
// block.
func (c *Checker) Subscribe(fn func(online bool)) {
	c.mu.Lock()
	c.subs = append(c.subs, fn)
	c.mu.Unlock()
}

// SetOnline flips the flag directly, firing subscribers on change.
// Used by tests and by deployments without a probe URL.
func (c *Checker) SetOnline(online bool) {
	prev := c.online.Swap(online)
	if prev != online {
		c.notify(online)
	}
}

// Run probes periodically until ctx is done. No-op when the checker
// has no probe.
func (c *Checker) Run(ctx context.Context) {
	if c.probe == nil {
		return
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.check(ctx)
		}
	}
}

func (c *Checker) check(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, c.interval)
	err := c.probe(probeCtx)
	cancel()

	online := err == nil
	prev := c.online.Swap(online)
	if prev == online {
		return
	}

	if online {
		c.log.Info("Connectivity restored")
	} else {
		c.log.Warn("Connectivity lost", "error", err)
	}
	c.notify(online)
}

func (c *Checker) notify(online bool) {
	c.mu.Lock()
	subs := make([]func(bool), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(online)
	}
}
