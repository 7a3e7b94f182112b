package storage

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"repost_bot/internal/model"
)

// Destinations is the durable destination → interval mapping. Every
// mutation rewrites the whole record through the backend. A chat id and its
// negation are never stored together.
type Destinations struct {
	mu      sync.RWMutex
	backend Backend
	entries map[int64]int
}

// OpenDestinations loads the record from backend. The process cannot run
// without a known destination set, so callers treat an error as fatal.
func OpenDestinations(ctx context.Context, backend Backend) (*Destinations, error) {
	entries, err := backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load destinations: %w", err)
	}
	if entries == nil {
		entries = make(map[int64]int)
	}
	for id := range entries {
		if id != 0 {
			if _, dup := entries[-id]; dup {
				return nil, fmt.Errorf("load destinations: both %d and %d present: %w", id, -id, model.ErrDuplicate)
			}
		}
		if !model.ValidInterval(entries[id]) {
			return nil, fmt.Errorf("load destinations: interval %d for %d out of range", entries[id], id)
		}
	}
	return &Destinations{backend: backend, entries: entries}, nil
}

// Upsert inserts or overwrites the interval of id and persists the record.
// It fails with model.ErrDuplicate if -id is stored instead.
func (d *Destinations) Upsert(ctx context.Context, id int64, interval int) error {
	if !model.ValidInterval(interval) {
		return fmt.Errorf("interval %d for %d: must be between 0 and %d", interval, id, model.MaxIntervalSeconds)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.entries[-id]; ok && id != 0 {
		return fmt.Errorf("upsert %d: %d is stored: %w", id, -id, model.ErrDuplicate)
	}

	prev, existed := d.entries[id]
	d.entries[id] = interval
	if err := d.saveLocked(ctx); err != nil {
		if existed {
			d.entries[id] = prev
		} else {
			delete(d.entries, id)
		}
		return err
	}
	return nil
}

// Remove deletes id and persists the record.
func (d *Destinations) Remove(ctx context.Context, id int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, ok := d.entries[id]
	if !ok {
		return fmt.Errorf("remove %d: %w", id, model.ErrNotFound)
	}
	delete(d.entries, id)
	if err := d.saveLocked(ctx); err != nil {
		d.entries[id] = prev
		return err
	}
	return nil
}

// SetAll sets the interval of every destination with a single write.
// It returns the number of destinations updated.
func (d *Destinations) SetAll(ctx context.Context, interval int) (int, error) {
	if !model.ValidInterval(interval) {
		return 0, fmt.Errorf("interval %d: must be between 0 and %d", interval, model.MaxIntervalSeconds)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	prev := maps.Clone(d.entries)
	for id := range d.entries {
		d.entries[id] = interval
	}
	if err := d.saveLocked(ctx); err != nil {
		d.entries = prev
		return 0, err
	}
	return len(d.entries), nil
}

// Contains reports whether id is stored under exactly this sign.
func (d *Destinations) Contains(id int64) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.entries[id]
	return ok
}

// ContainsEither checks both id and -id, since the operator may use either
// sign. It returns the id as it is actually stored.
func (d *Destinations) ContainsEither(id int64) (int64, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if _, ok := d.entries[id]; ok {
		return id, true
	}
	if _, ok := d.entries[-id]; ok {
		return -id, true
	}
	return 0, false
}

// Interval returns the stored interval of id.
func (d *Destinations) Interval(id int64) (int, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v, ok := d.entries[id]
	return v, ok
}

// All returns every destination ordered by id.
func (d *Destinations) All() []model.Destination {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := slices.Sorted(maps.Keys(d.entries))
	out := make([]model.Destination, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Destination{ID: id, IntervalSeconds: d.entries[id]})
	}
	return out
}

// Len returns the number of destinations.
func (d *Destinations) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.entries)
}

func (d *Destinations) saveLocked(ctx context.Context) error {
	if err := d.backend.Save(ctx, maps.Clone(d.entries)); err != nil {
		return fmt.Errorf("save destinations: %w", err)
	}
	return nil
}
