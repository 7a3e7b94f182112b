package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"repost_bot/internal/command"
	"repost_bot/internal/model"
)

// Handle executes one operator command and returns the reply.
func (s *Supervisor) Handle(ctx context.Context, cmd command.Command) string {
	switch c := cmd.(type) {
	case command.Add:
		lines := make([]string, 0, len(c.Entries))
		for _, e := range c.Entries {
			lines = append(lines, s.ApplyAdd(ctx, e.ID, e.Interval))
		}
		return strings.Join(lines, "\n")
	case command.Update:
		lines := make([]string, 0, len(c.Entries))
		for _, e := range c.Entries {
			lines = append(lines, s.ApplyUpdate(ctx, e.ID, e.Interval))
		}
		return strings.Join(lines, "\n")
	case command.Delete:
		lines := make([]string, 0, len(c.IDs))
		for _, id := range c.IDs {
			lines = append(lines, s.ApplyDelete(ctx, id))
		}
		return strings.Join(lines, "\n")
	case command.SetAll:
		return s.ApplySetAll(ctx, c.Raw)
	case command.Send:
		return s.BroadcastNow()
	case command.ListActive:
		return s.ListActive(ctx)
	case command.ListCandidates:
		return s.ListCandidateGroups(ctx)
	case command.Help:
		return helpText
	default:
		return fmt.Sprintf("Unsupported command %T.", cmd)
	}
}

// ApplyAdd stores a new destination, starts its worker and triggers a
// first send right away. Either sign of an existing id is a duplicate.
func (s *Supervisor) ApplyAdd(ctx context.Context, id int64, interval int) string {
	if _, ok := s.store.ContainsEither(id); ok {
		return fmt.Sprintf(msgExists, id)
	}
	if err := s.store.Upsert(ctx, id, interval); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return fmt.Sprintf(msgExists, id)
		}
		s.log.Error("add destination", "destination", id, "error", err)
		return fmt.Sprintf(msgSaveFailed, id, err)
	}
	s.log.Info("destination added", "destination", id, "interval", interval)

	s.triggerFirstSend(id)
	return fmt.Sprintf(msgAdded, id, interval)
}

// ApplyUpdate changes the interval of a stored destination. The worker
// picks it up on its next cycle. A worker that stopped on an unexpected
// error is restarted.
func (s *Supervisor) ApplyUpdate(ctx context.Context, id int64, interval int) string {
	stored, ok := s.store.ContainsEither(id)
	if !ok {
		return fmt.Sprintf(msgNotActive, id)
	}
	if err := s.store.Upsert(ctx, stored, interval); err != nil {
		s.log.Error("update destination", "destination", stored, "error", err)
		return fmt.Sprintf(msgSaveFailed, stored, err)
	}
	s.log.Info("destination updated", "destination", stored, "interval", interval)

	reply := fmt.Sprintf(msgUpdated, stored, interval)
	if _, started := s.ensureWorker(stored); started {
		reply += "\n" + fmt.Sprintf(msgRestarted, stored)
	}
	return reply
}

// ApplyDelete removes a destination and cancels its worker.
func (s *Supervisor) ApplyDelete(ctx context.Context, id int64) string {
	stored, ok := s.store.ContainsEither(id)
	if !ok {
		return fmt.Sprintf(msgNotExists, id)
	}
	if err := s.store.Remove(ctx, stored); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Sprintf(msgNotExists, id)
		}
		s.log.Error("delete destination", "destination", stored, "error", err)
		return fmt.Sprintf(msgSaveFailed, stored, err)
	}
	s.stopWorker(stored)
	s.log.Info("destination deleted", "destination", stored)
	return fmt.Sprintf(msgDeleted, stored)
}

// ApplySetAll sets one interval for every destination. Non-numeric values
// and values below the minimum leave the store untouched.
func (s *Supervisor) ApplySetAll(ctx context.Context, raw string) string {
	interval, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return command.UsageSetAll
	}
	if interval < s.opts.MinInterval {
		return fmt.Sprintf(msgBelowMinimum, s.opts.MinInterval)
	}
	if !model.ValidInterval(interval) {
		return fmt.Sprintf(msgAboveMaximum, model.MaxIntervalSeconds)
	}
	n, err := s.store.SetAll(ctx, interval)
	if err != nil {
		s.log.Error("set all intervals", "error", err)
		return fmt.Sprintf("Failed to save intervals: %v", err)
	}
	s.log.Info("all intervals updated", "destinations", n, "interval", interval)
	return fmt.Sprintf(msgSetAll, n, interval)
}

// BroadcastNow triggers an out-of-band attempt for every stored
// destination. Outcomes arrive later as worker notifications.
func (s *Supervisor) BroadcastNow() string {
	if _, ok := s.cache.Get(); !ok {
		return msgNothingToSend
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.baseCtx == nil {
		return msgNotStarted
	}

	dests := s.store.All()
	lines := []string{fmt.Sprintf(msgBroadcasting, len(dests))}
	for _, d := range dests {
		w, ok := s.workers[d.ID]
		if !ok {
			lines = append(lines, fmt.Sprintf(msgStopped, d.ID))
			continue
		}
		w.trigger()
	}
	return strings.Join(lines, "\n")
}

// ListActive reports every destination with its chat title. A chat that
// cannot be resolved is reported inline.
func (s *Supervisor) ListActive(ctx context.Context) string {
	dests := s.store.All()
	if len(dests) == 0 {
		return msgNoGroups
	}
	lines := make([]string, 0, len(dests))
	for _, d := range dests {
		chat, err := s.transport.ResolveEntity(ctx, d.ID)
		if err != nil {
			s.log.Debug("resolve destination", "destination", d.ID, "error", err)
			lines = append(lines, fmt.Sprintf(msgActivePrivate, d.ID))
			continue
		}
		lines = append(lines, fmt.Sprintf(msgActiveLine, chat.ID, chat.Title, d.IntervalSeconds))
	}
	return strings.Join(lines, "\n")
}

// ListCandidateGroups reports groups among the recently seen chats.
func (s *Supervisor) ListCandidateGroups(ctx context.Context) string {
	dialogs, err := s.transport.ListRecentDialogs(ctx, s.opts.DialogLimit)
	if err != nil {
		s.log.Error("list recent dialogs", "error", err)
		return fmt.Sprintf(msgCandidatesFail, err)
	}
	var lines []string
	for _, d := range dialogs {
		if d.IsGroup {
			lines = append(lines, fmt.Sprintf(msgCandidateLine, d.Title, d.ID))
		}
	}
	if len(lines) == 0 {
		return msgNoCandidates
	}
	return strings.Join(lines, "\n")
}
