package service

import (
	"context"
	"edu_player_backend/pkg/logger"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Sweeper is implemented by every ViewRegistry.
type Sweeper interface {
	Sweep(ttl time.Duration) int
	Len() int
}

// ViewJanitor closes idle views across registries. The TTL can be changed
// while it runs.
type ViewJanitor struct {
	registries map[string]Sweeper
	ttl        atomic.Int64
}

func NewViewJanitor(ttl time.Duration, registries map[string]Sweeper) *ViewJanitor {
	j := &ViewJanitor{registries: registries}
	j.SetTTL(ttl)
	return j
}

func (j *ViewJanitor) SetTTL(ttl time.Duration) {
	j.ttl.Store(int64(ttl))
}

func (j *ViewJanitor) TTL() time.Duration {
	return time.Duration(j.ttl.Load())
}

// SweepOnce closes idle views and returns the count per registry.
func (j *ViewJanitor) SweepOnce() map[string]int {
	ttl := j.TTL()
	out := make(map[string]int, len(j.registries))
	for kind, r := range j.registries {
		out[kind] = r.Sweep(ttl)
	}
	return out
}

// Counts returns the open views per registry.
func (j *ViewJanitor) Counts() map[string]int {
	out := make(map[string]int, len(j.registries))
	for kind, r := range j.registries {
		out[kind] = r.Len()
	}
	return out
}

// Run sweeps every interval until ctx is done.
func (j *ViewJanitor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for kind, n := range j.SweepOnce() {
				if n > 0 {
					logger.Log.Info("Closed idle views", zap.String("kind", kind), zap.Int("count", n))
				}
			}
		}
	}
}
