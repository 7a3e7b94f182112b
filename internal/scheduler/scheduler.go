// Package scheduler re-broadcasts the cached source post to every
// destination, one independent delivery worker per destination.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"repost_bot/internal/cache"
	"repost_bot/internal/model"
	"repost_bot/internal/storage"
)

// Transport performs the Telegram calls the scheduler needs.
type Transport interface {
	Forward(ctx context.Context, chatID int64, msg model.Message) error
	Notify(ctx context.Context, chatID int64, text string) error
	ResolveEntity(ctx context.Context, id int64) (model.Chat, error)
	ListRecentDialogs(ctx context.Context, limit int) ([]model.Dialog, error)
}

// Source returns the most recent posts of the source feed, newest first.
type Source interface {
	Recent(ctx context.Context, limit int) ([]model.Message, error)
}

// Matcher decides whether a source post qualifies for broadcasting.
type Matcher interface {
	Match(text string) bool
}

// Options is the immutable scheduler configuration.
type Options struct {
	// AdminChatID receives every notification and warning.
	AdminChatID int64
	// MinInterval is the smallest interval a worker honours, in units.
	MinInterval int
	// FallbackSleep is how long a worker idles when its interval is
	// below MinInterval, in units.
	FallbackSleep int
	// Unit is the length of one interval unit, time.Second in production.
	Unit time.Duration
	// JitterMin and JitterMax bound the random delay before each forward.
	JitterMin time.Duration
	JitterMax time.Duration
	// DialogLimit bounds the candidate group listing.
	DialogLimit int
	// BootstrapLimit is how many recent source posts are scanned at startup.
	BootstrapLimit int
}

// DefaultOptions returns production defaults.
func DefaultOptions() Options {
	return Options{
		MinInterval:    600,
		FallbackSleep:  600,
		Unit:           time.Second,
		JitterMin:      time.Second,
		JitterMax:      10 * time.Second,
		DialogLimit:    20,
		BootstrapLimit: 10,
	}
}

// Supervisor owns the destination store and the registry of delivery
// workers. All store mutations go through it.
type Supervisor struct {
	store     *storage.Destinations
	cache     *cache.Broadcast
	transport Transport
	source    Source
	matcher   Matcher
	opts      Options
	log       *slog.Logger

	mu      sync.Mutex
	baseCtx context.Context
	workers map[int64]*worker
	// pending holds destinations added before Start; they get their
	// first send as soon as their worker exists.
	pending map[int64]struct{}
	wg      sync.WaitGroup
}

// New creates a Supervisor. Workers start with Start or Run.
func New(store *storage.Destinations, c *cache.Broadcast, transport Transport, source Source,
	matcher Matcher, opts Options, log *slog.Logger) *Supervisor {
	if opts.Unit <= 0 {
		opts.Unit = time.Second
	}
	if opts.BootstrapLimit <= 0 {
		opts.BootstrapLimit = 10
	}
	return &Supervisor{
		store:     store,
		cache:     c,
		transport: transport,
		source:    source,
		matcher:   matcher,
		opts:      opts,
		log:       log,
		workers:   make(map[int64]*worker),
		pending:   make(map[int64]struct{}),
	}
}

// Run bootstraps the scheduler and blocks until ctx is cancelled and every
// worker has exited.
func (s *Supervisor) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Wait()
	return nil
}

// Start fills the cache with the latest qualifying source post and starts
// one worker per stored destination. Workers stop when ctx is cancelled.
func (s *Supervisor) Start(ctx context.Context) error {
	if err := s.Bootstrap(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.baseCtx != nil {
		return errors.New("scheduler already started")
	}
	s.baseCtx = ctx
	for _, d := range s.store.All() {
		s.spawnLocked(d.ID)
	}
	for id := range s.pending {
		if w, ok := s.workers[id]; ok {
			w.trigger()
		}
	}
	clear(s.pending)
	s.log.Info("scheduler started", "destinations", len(s.workers))
	return nil
}

// Bootstrap scans the most recent source posts and caches the newest one
// that qualifies. An unreachable source is a startup error.
func (s *Supervisor) Bootstrap(ctx context.Context) error {
	msgs, err := s.source.Recent(ctx, s.opts.BootstrapLimit)
	if err != nil {
		return fmt.Errorf("fetch recent source posts: %w", err)
	}
	for _, m := range msgs {
		if s.matcher.Match(m.Text) {
			s.cache.Set(m)
			s.log.Info("cached source post", "chat_id", m.ChatID, "message_id", m.MessageID)
			return nil
		}
	}
	s.log.Warn("no qualifying source post yet", "scanned", len(msgs))
	return nil
}

// Wait blocks until every worker has exited.
func (s *Supervisor) Wait() {
	s.wg.Wait()
}

// Active returns the destinations that currently have a running worker.
func (s *Supervisor) Active() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, len(s.workers))
	for id := range s.workers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Sweep triggers an out-of-band attempt on every running worker and
// returns how many were triggered.
func (s *Supervisor) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.workers {
		w.trigger()
	}
	return len(s.workers)
}

// spawnLocked starts a worker for id. The caller holds s.mu and has
// checked that no worker is registered for id.
func (s *Supervisor) spawnLocked(id int64) *worker {
	ctx, cancel := context.WithCancel(s.baseCtx)
	w := newWorker(id, s, cancel)
	s.workers[id] = w

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		err := w.run(ctx)
		s.retire(w, err)
	}()
	return w
}

// ensureWorker returns the worker for id, starting one if needed.
// It returns nil before Start.
func (s *Supervisor) ensureWorker(id int64) (*worker, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.baseCtx == nil {
		return nil, false
	}
	if w, ok := s.workers[id]; ok {
		return w, false
	}
	return s.spawnLocked(id), true
}

// triggerFirstSend requests an immediate attempt for id, or queues it
// until Start when the scheduler is not running yet.
func (s *Supervisor) triggerFirstSend(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.baseCtx == nil {
		s.pending[id] = struct{}{}
		return
	}
	w, ok := s.workers[id]
	if !ok {
		w = s.spawnLocked(id)
	}
	w.trigger()
}

// stopWorker cancels the worker for id. An attempt already in flight may
// still complete but produces no notification.
func (s *Supervisor) stopWorker(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, id)
	if w, ok := s.workers[id]; ok {
		w.cancel()
		delete(s.workers, id)
	}
}

func (s *Supervisor) retire(w *worker, err error) {
	s.mu.Lock()
	if cur, ok := s.workers[w.id]; ok && cur == w {
		delete(s.workers, w.id)
	}
	s.mu.Unlock()
	w.cancel()

	if err == nil {
		s.log.Debug("worker retired", "destination", w.id)
		return
	}
	s.log.Error("worker stopped", "destination", w.id, "error", err)
	s.notify(context.WithoutCancel(s.baseCtx), fmt.Sprintf(msgWorkerStopped, w.id, err))
}

func (s *Supervisor) notify(ctx context.Context, text string) {
	if err := s.transport.Notify(ctx, s.opts.AdminChatID, text); err != nil {
		s.log.Error("notify operator", "error", err)
	}
}

// units converts n interval units to a duration, saturating instead of
// overflowing.
func (s *Supervisor) units(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	if int64(n) > int64(time.Duration(math.MaxInt64)/s.opts.Unit) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(n) * s.opts.Unit
}
