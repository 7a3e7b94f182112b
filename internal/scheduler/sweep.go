package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// RunSweeps triggers an out-of-band attempt on every worker on a cron
// schedule (standard 5-field spec or descriptors like "@every 10m") until
// ctx is cancelled. Sweeps reuse the workers, so a sweep never overlaps a
// destination's own attempt.
func (s *Supervisor) RunSweeps(ctx context.Context, spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		if _, ok := s.cache.Get(); !ok {
			s.log.Debug("sweep skipped, nothing to broadcast")
			return
		}
		n := s.Sweep()
		s.log.Info("sweep triggered", "workers", n)
	}); err != nil {
		return fmt.Errorf("parse sweep schedule %q: %w", spec, err)
	}

	c.Start()
	s.log.Info("sweeps scheduled", "spec", spec)
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
