package sweeper

import (
	"context"
	"log"
	"time"
)

// SignalPurger is the slice of the storage layer the sweeper needs.
type SignalPurger interface {
	PurgeAllExpiredSignals(ttl time.Duration) (int64, error)
}

// Service periodically deletes mailbox envelopes older than the retention
// window. Best-effort: failures are logged and retried on the next tick, and
// running concurrently with sends/receives is safe because only rows past the
// TTL are ever deleted.
type Service struct {
	Store    SignalPurger
	TTL      time.Duration
	Interval time.Duration
}

func New(store SignalPurger, ttl, interval time.Duration) *Service {
	return &Service{
		Store:    store,
		TTL:      ttl,
		Interval: interval,
	}
}

// Run sweeps on every tick until the context is cancelled. Start it in its
// own goroutine.
func (s *Service) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	log.Printf("INFO: Retention sweeper running every %s, TTL %s", s.Interval, s.TTL)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep performs a single purge pass.
func (s *Service) Sweep() {
	removed, err := s.Store.PurgeAllExpiredSignals(s.TTL)
	if err != nil {
		log.Printf("ERROR: Retention sweep failed: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("INFO: Retention sweep removed %d expired signals", removed)
	}
}
