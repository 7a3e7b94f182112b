package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"repost_bot/internal/model"
)

// worker repeatedly delivers the cached post to one destination. Attempts,
// including out-of-band ones, run only on the worker goroutine, so they never
// overlap for the same destination.
type worker struct {
	id     int64
	s      *Supervisor
	cancel context.CancelFunc
	kick   chan struct{}

	// addr is the id the destination answered to last. It starts as the
	// stored id and flips once a sign retry succeeds.
	addr int64
}

func newWorker(id int64, s *Supervisor, cancel context.CancelFunc) *worker {
	return &worker{
		id:     id,
		s:      s,
		cancel: cancel,
		kick:   make(chan struct{}, 1),
		addr:   id,
	}
}

// trigger requests an out-of-band attempt. Requests made while one is
// pending coalesce.
func (w *worker) trigger() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// run loops until the destination leaves the store or ctx is cancelled,
// returning nil in both cases. A non-nil error means an unclassified
// transport failure ended the worker.
func (w *worker) run(ctx context.Context) error {
	for {
		interval, ok := w.s.store.Interval(w.id)
		if !ok {
			return nil
		}

		wait := w.s.units(interval)
		attempt := true
		switch {
		case interval == 0:
			// Paused: stay alive for out-of-band sends and later updates.
			wait, attempt = w.s.units(w.s.opts.FallbackSleep), false
		case interval < w.s.opts.MinInterval:
			w.s.log.Warn("interval below minimum", "destination", w.id, "interval", interval)
			w.s.notify(ctx, fmt.Sprintf(msgShortInterval, w.id, w.s.opts.MinInterval, w.s.opts.FallbackSleep/60))
			wait, attempt = w.s.units(w.s.opts.FallbackSleep), false
		}

		if err := w.wait(ctx, wait); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		if attempt {
			if err := w.deliver(ctx); err != nil {
				return err
			}
		}
	}
}

// wait sleeps for d, serving out-of-band triggers meanwhile.
func (w *worker) wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			return nil
		case <-w.kick:
			if err := w.deliver(ctx); err != nil {
				return err
			}
		}
	}
}

// deliver makes one attempt and reports its outcome to the operator.
func (w *worker) deliver(ctx context.Context) error {
	if !w.s.store.Contains(w.id) {
		return nil
	}
	msg, ok := w.s.cache.Get()
	if !ok {
		w.s.log.Debug("nothing to broadcast yet", "destination", w.id)
		return nil
	}

	err := w.forward(ctx, w.addr, msg)
	if errors.Is(err, model.ErrSignInvalid) {
		flipped := -w.addr
		w.s.log.Info("retrying with opposite sign", "destination", w.id, "chat_id", flipped)
		err = w.forward(ctx, flipped, msg)
		switch {
		case err == nil:
			w.addr = flipped
		case errors.Is(err, model.ErrSignInvalid):
			err = fmt.Errorf("%d and %d: %w", -flipped, flipped, model.ErrChatNotFound)
		}
	}

	if ctx.Err() != nil {
		// Removed or shutting down: stay silent.
		return nil
	}
	return w.report(ctx, err)
}

func (w *worker) forward(ctx context.Context, chatID int64, msg model.Message) error {
	if d := w.s.jitter(); d > 0 {
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	return w.s.transport.Forward(ctx, chatID, msg)
}

// report turns an attempt outcome into exactly one notification. Classified
// failures keep the worker alive; anything else is returned.
func (w *worker) report(ctx context.Context, err error) error {
	var text string
	switch {
	case err == nil:
		w.s.log.Info("forwarded post", "destination", w.id, "chat_id", w.addr)
		text = fmt.Sprintf(msgForwarded, w.id)
	case errors.Is(err, model.ErrForbidden):
		text = fmt.Sprintf(msgForbidden, w.id)
	case errors.Is(err, model.ErrChatNotFound), errors.Is(err, model.ErrSignInvalid):
		text = fmt.Sprintf(msgNotFound, w.id)
	case errors.Is(err, model.ErrPrivate):
		text = fmt.Sprintf(msgPrivate, w.id)
	default:
		return fmt.Errorf("forward to %d: %w", w.id, err)
	}
	if err != nil {
		w.s.log.Warn("delivery failed", "destination", w.id, "error", err)
	}
	w.s.notify(ctx, text)
	return nil
}

func (s *Supervisor) jitter() time.Duration {
	lo, hi := s.opts.JitterMin, s.opts.JitterMax
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}
