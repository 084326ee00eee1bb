package listparams

import (
	"context"

	"listkeeper/internal/metrics"

	"github.com/rs/zerolog/log"
)

// Run evicts idle controllers until ctx is cancelled. Pending filter changes
// of an evicted controller are committed first.
func (s *Service) Run(ctx context.Context) {
	log.Info().
		Dur("sweep_every", s.cfg.SweepEvery).
		Dur("idle_ttl", s.cfg.IdleTTL).
		Msg("list sweeper started")

	ticker := s.clock.NewTicker(s.cfg.SweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("list sweeper stopping")
			return
		case <-ticker.Chan():
			if n := s.sweep(); n > 0 {
				log.Debug().Int("count", n).Msg("evicted idle lists")
			}
		}
	}
}

// sweep evicts every list unused for at least IdleTTL
func (s *Service) sweep() int {
	now := s.clock.Now()

	s.mu.Lock()
	var idle []*list
	for k, l := range s.lists {
		if now.Sub(l.lastUsed) >= s.cfg.IdleTTL {
			idle = append(idle, l)
			delete(s.lists, k)
		}
	}
	s.mu.Unlock()

	for _, l := range idle {
		l.ctrl.Flush()
		metrics.Evictions.Inc()
		metrics.ActiveLists.Dec()
	}
	return len(idle)
}
