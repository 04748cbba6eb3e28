// Package changefeed turns a TaskRepository into a live collection: every
// confirmed write, and every change found by polling, is published to
// subscribers as an ordered ChangeBatch.
package changefeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"gazette-tasks/internal/domain/entity"
	"gazette-tasks/internal/observability/metrics"
	"gazette-tasks/internal/repository"
)

// ErrNetworkDisabled is returned by writes while the store's network is disabled.
var ErrNetworkDisabled = errors.New("network disabled")

// Store decorates a TaskRepository and implements repository.ChangeFeed.
// Tasks carried in published batches are shared between subscribers and must
// not be modified.
type Store struct {
	repo   repository.TaskRepository
	logger *slog.Logger

	// in-process writes hold writeMu shared; Sync and snapshots hold it exclusively
	writeMu sync.RWMutex

	// a write to one task commits and publishes before the next one starts
	taskLocks keyedMutex

	mu      sync.Mutex
	subs    map[*subscription]struct{}
	known   map[string]*entity.Task
	enabled bool
}

var (
	_ repository.TaskRepository = (*Store)(nil)
	_ repository.ChangeFeed     = (*Store)(nil)
)

// New wraps repo. The store starts with its network enabled.
func New(repo repository.TaskRepository, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		repo:      repo,
		logger:    logger,
		taskLocks: keyedMutex{locks: make(map[string]*taskLock)},
		subs:      make(map[*subscription]struct{}),
		known:     make(map[string]*entity.Task),
		enabled:   true,
	}
}

// NetworkEnabled reports whether writes and delivery are currently allowed.
func (s *Store) NetworkEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

/* ───────────────────────── reads ───────────────────────── */

func (s *Store) Get(ctx context.Context, id string) (*entity.Task, error) {
	return s.repo.Get(ctx, id)
}

func (s *Store) List(ctx context.Context) ([]*entity.Task, error) {
	return s.repo.List(ctx)
}

func (s *Store) FindBySource(ctx context.Context, source string, limit int) ([]*entity.Task, error) {
	return s.repo.FindBySource(ctx, source, limit)
}

func (s *Store) ExistingSources(ctx context.Context, sources []string) (map[string]bool, error) {
	return s.repo.ExistingSources(ctx, sources)
}

/* ───────────────────────── writes ───────────────────────── */

func (s *Store) Create(ctx context.Context, draft entity.TaskDraft) (*entity.Task, error) {
	s.writeMu.RLock()
	defer s.writeMu.RUnlock()
	if !s.NetworkEnabled() {
		return nil, fmt.Errorf("Create: %w", ErrNetworkDisabled)
	}

	t, err := s.repo.Create(ctx, draft)
	if err != nil {
		return nil, err
	}
	s.publish([]repository.Change{{Kind: repository.ChangeAdded, Task: t.Clone()}})
	return t, nil
}

func (s *Store) Update(ctx context.Context, id string, patch repository.TaskPatch) (*entity.Task, error) {
	s.writeMu.RLock()
	defer s.writeMu.RUnlock()
	if !s.NetworkEnabled() {
		return nil, fmt.Errorf("Update: %w", ErrNetworkDisabled)
	}
	defer s.taskLocks.lock(id)()

	t, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	s.publish([]repository.Change{{Kind: repository.ChangeModified, Task: t.Clone()}})
	return t, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.writeMu.RLock()
	defer s.writeMu.RUnlock()
	if !s.NetworkEnabled() {
		return fmt.Errorf("Delete: %w", ErrNetworkDisabled)
	}
	defer s.taskLocks.lock(id)()

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.publish([]repository.Change{{Kind: repository.ChangeRemoved, Task: &entity.Task{ID: id}}})
	return nil
}

// publish records changes as known state and queues them on every subscriber.
func (s *Store) publish(changes []repository.Change) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applyLocked(changes)
	s.broadcastLocked(repository.ChangeBatch{Changes: changes})
}

func (s *Store) applyLocked(changes []repository.Change) {
	for _, c := range changes {
		metrics.RecordChange(c.Kind.String())
		if c.Kind == repository.ChangeRemoved {
			delete(s.known, c.Task.ID)
			continue
		}
		s.known[c.Task.ID] = c.Task
	}
}

func (s *Store) broadcastLocked(b repository.ChangeBatch) {
	for sub := range s.subs {
		sub.enqueue(b)
	}
}

// keyedMutex hands out one mutex per task id and forgets it once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*taskLock
}

type taskLock struct {
	sync.Mutex
	refs int
}

// lock blocks until id is free and returns the matching unlock.
func (k *keyedMutex) lock(id string) func() {
	k.mu.Lock()
	l, ok := k.locks[id]
	if !ok {
		l = &taskLock{}
		k.locks[id] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}

/* ───────────────────────── polling ───────────────────────── */

// Sync compares the repository with the last published state and publishes
// the difference as one batch. It makes writes from other processes visible.
// Sync does nothing while the network is disabled.
func (s *Store) Sync(ctx context.Context) error {
	if !s.NetworkEnabled() {
		return nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("Sync: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	changes := diff(s.known, current)
	if len(changes) == 0 {
		return nil
	}
	s.applyLocked(changes)
	if s.enabled {
		s.broadcastLocked(repository.ChangeBatch{Changes: changes})
	}
	s.logger.Debug("change feed synced", slog.Int("changes", len(changes)))
	return nil
}

// Run calls Sync every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Sync(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("change feed sync failed", slog.Any("error", err))
			}
		}
	}
}

// diff returns added and modified tasks in current order, then removals by id.
func diff(known map[string]*entity.Task, current []*entity.Task) []repository.Change {
	var changes []repository.Change
	seen := make(map[string]struct{}, len(current))
	for _, t := range current {
		seen[t.ID] = struct{}{}
		prev, ok := known[t.ID]
		switch {
		case !ok:
			changes = append(changes, repository.Change{Kind: repository.ChangeAdded, Task: t})
		case !prev.Equal(t):
			changes = append(changes, repository.Change{Kind: repository.ChangeModified, Task: t})
		}
	}

	var removed []string
	for id := range known {
		if _, ok := seen[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Strings(removed)
	for _, id := range removed {
		changes = append(changes, repository.Change{Kind: repository.ChangeRemoved, Task: &entity.Task{ID: id}})
	}
	return changes
}

func resetBatch(tasks []*entity.Task) repository.ChangeBatch {
	changes := make([]repository.Change, len(tasks))
	for i, t := range tasks {
		changes[i] = repository.Change{Kind: repository.ChangeAdded, Task: t}
	}
	return repository.ChangeBatch{Reset: true, Changes: changes}
}

func index(tasks []*entity.Task) map[string]*entity.Task {
	m := make(map[string]*entity.Task, len(tasks))
	for _, t := range tasks {
		m[t.ID] = t
	}
	return m
}

/* ───────────────────────── network ───────────────────────── */

// DisableNetwork rejects further writes and pauses delivery. Subscribers keep
// whatever they have already received.
func (s *Store) DisableNetwork() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled {
		return
	}
	s.enabled = false
	for sub := range s.subs {
		sub.setPaused(true)
	}
	s.logger.Info("change feed network disabled")
}

// EnableNetwork reloads the collection and hands every subscriber a fresh
// Reset batch in place of anything queued while disabled.
func (s *Store) EnableNetwork(ctx context.Context) error {
	if s.NetworkEnabled() {
		return nil
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("EnableNetwork: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = true
	s.known = index(current)
	reset := resetBatch(current)
	for sub := range s.subs {
		sub.replace(reset)
	}
	s.logger.Info("change feed network enabled", slog.Int("tasks", len(current)))
	return nil
}

/* ───────────────────────── subscriptions ───────────────────────── */

// Subscribe registers a subscriber. Its first batch is a Reset snapshot of the
// whole collection ordered by deadline; while the network is disabled that
// snapshot is deferred until EnableNetwork. The subscription is closed when
// ctx is done or Close is called.
func (s *Store) Subscribe(ctx context.Context) (repository.Subscription, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	sub := newSubscription(s)

	if !s.NetworkEnabled() {
		s.mu.Lock()
		sub.paused = true
		s.subs[sub] = struct{}{}
		n := len(s.subs)
		s.mu.Unlock()
		metrics.SetSubscribers(n)
		sub.start(ctx)
		return sub, nil
	}

	current, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("Subscribe: %w", err)
	}

	s.mu.Lock()
	// bring existing subscribers up to the same snapshot first
	if changes := diff(s.known, current); len(changes) > 0 {
		s.applyLocked(changes)
		s.broadcastLocked(repository.ChangeBatch{Changes: changes})
	}
	sub.enqueue(resetBatch(current))
	s.subs[sub] = struct{}{}
	n := len(s.subs)
	s.mu.Unlock()

	metrics.SetSubscribers(n)
	sub.start(ctx)
	return sub, nil
}

func (s *Store) remove(sub *subscription) {
	s.mu.Lock()
	delete(s.subs, sub)
	n := len(s.subs)
	s.mu.Unlock()
	metrics.SetSubscribers(n)
}

// Close ends every subscription.
func (s *Store) Close() {
	s.mu.Lock()
	subs := make([]*subscription, 0, len(s.subs))
	for sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()
	for _, sub := range subs {
		_ = sub.Close()
	}
}
