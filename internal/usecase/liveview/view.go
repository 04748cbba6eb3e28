// Package liveview keeps an in-memory, deadline-ordered projection of the
// tasks collection, fed by the storage change feed, and gates every mutation
// on connectivity.
//
// The projection is replaced as a whole once per change batch, so a reader
// never sees half of a batch applied. Mutations are written through to the
// store and show up in the projection when their change notification arrives.
// A mutation rejected while offline is not queued or replayed.
package liveview

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"gazette-tasks/internal/domain/entity"
	"gazette-tasks/internal/observability/metrics"
	"gazette-tasks/internal/repository"
)

// Store is the write and subscribe surface of the tasks collection.
type Store interface {
	repository.ChangeFeed
	Get(ctx context.Context, id string) (*entity.Task, error)
	Create(ctx context.Context, draft entity.TaskDraft) (*entity.Task, error)
	Update(ctx context.Context, id string, patch repository.TaskPatch) (*entity.Task, error)
	Delete(ctx context.Context, id string) error
}

// Network suspends and resumes the change feed's network activity.
type Network interface {
	DisableNetwork()
	EnableNetwork(ctx context.Context) error
}

// Refresher triggers a gazette ingestion run.
type Refresher interface {
	FetchGazetteData(ctx context.Context) (int, error)
}

// View is the live task projection.
type View struct {
	store     Store
	network   Network
	refresher Refresher
	logger    *slog.Logger

	online atomic.Bool
	netMu  sync.Mutex

	mu    sync.RWMutex
	tasks []*entity.Task
	byID  map[string]*entity.Task

	watchMu  sync.Mutex
	watchers map[int]chan []*entity.Task
	nextID   int
	closed   bool

	lifeMu sync.Mutex
	sub    repository.Subscription
	done   chan struct{}
}

// Option configures a View.
type Option func(*View)

// WithNetwork lets SetOnline suspend and resume the change feed.
func WithNetwork(n Network) Option {
	return func(v *View) { v.network = n }
}

// WithRefresher enables Refresh.
func WithRefresher(r Refresher) Option {
	return func(v *View) { v.refresher = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(v *View) {
		if l != nil {
			v.logger = l
		}
	}
}

// New creates a View. It starts online and empty.
func New(store Store, opts ...Option) *View {
	v := &View{
		store:    store,
		logger:   slog.Default(),
		tasks:    []*entity.Task{},
		byID:     map[string]*entity.Task{},
		watchers: map[int]chan []*entity.Task{},
	}
	for _, opt := range opts {
		opt(v)
	}
	v.online.Store(true)
	metrics.SetOnline(true)
	return v
}

/* ───────────────────────── lifecycle ───────────────────────── */

// Start subscribes to the change feed. Delivery stops when ctx is done or
// Close is called.
func (v *View) Start(ctx context.Context) error {
	v.lifeMu.Lock()
	defer v.lifeMu.Unlock()
	if v.sub != nil {
		return ErrAlreadyStarted
	}

	sub, err := v.store.Subscribe(ctx)
	if err != nil {
		return err
	}
	v.sub = sub
	v.done = make(chan struct{})
	go v.consume(sub, v.done)
	return nil
}

func (v *View) consume(sub repository.Subscription, done chan struct{}) {
	defer close(done)
	for batch := range sub.Changes() {
		v.apply(batch)
	}
}

// Close unsubscribes, waits for the consumer to stop and closes every Watch
// channel. Loaded tasks stay readable.
func (v *View) Close() error {
	v.lifeMu.Lock()
	sub, done := v.sub, v.done
	v.lifeMu.Unlock()

	var err error
	if sub != nil {
		err = sub.Close()
		<-done
	}

	v.watchMu.Lock()
	defer v.watchMu.Unlock()
	if !v.closed {
		v.closed = true
		for id, ch := range v.watchers {
			close(ch)
			delete(v.watchers, id)
		}
	}
	return err
}

/* ───────────────────────── reconciliation ───────────────────────── */

func (v *View) apply(batch repository.ChangeBatch) {
	v.mu.Lock()
	next := make(map[string]*entity.Task, len(v.byID)+len(batch.Changes))
	if !batch.Reset {
		for id, t := range v.byID {
			next[id] = t
		}
	}
	for _, c := range batch.Changes {
		if c.Task == nil {
			continue
		}
		switch c.Kind {
		case repository.ChangeAdded, repository.ChangeModified:
			next[c.Task.ID] = c.Task.Clone()
		case repository.ChangeRemoved:
			delete(next, c.Task.ID)
		}
	}
	ordered := sortByDeadline(next)
	v.byID = next
	v.tasks = ordered
	v.mu.Unlock()

	metrics.SetLiveViewTasks(len(ordered))
	v.broadcast(ordered)
}

func sortByDeadline(m map[string]*entity.Task) []*entity.Task {
	out := make([]*entity.Task, 0, len(m))
	for _, t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Deadline.Equal(out[j].Deadline) {
			return out[i].Deadline.Before(out[j].Deadline)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

/* ───────────────────────── reads ───────────────────────── */

// Tasks returns the current projection ordered by deadline. The slice is a
// snapshot; the tasks it points to must not be modified.
func (v *View) Tasks() []*entity.Task {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]*entity.Task(nil), v.tasks...)
}

// Task returns the projected task with id, if loaded.
func (v *View) Task(id string) (*entity.Task, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	t, ok := v.byID[id]
	return t, ok
}

// Watch returns a channel that receives every new snapshot. Slow readers only
// see the latest one. The returned func stops the watch.
func (v *View) Watch() (<-chan []*entity.Task, func(), error) {
	v.watchMu.Lock()
	defer v.watchMu.Unlock()
	if v.closed {
		return nil, nil, ErrClosed
	}
	id := v.nextID
	v.nextID++
	ch := make(chan []*entity.Task, 1)
	ch <- v.Tasks()
	v.watchers[id] = ch

	var once sync.Once
	stop := func() {
		once.Do(func() {
			v.watchMu.Lock()
			defer v.watchMu.Unlock()
			if c, ok := v.watchers[id]; ok {
				close(c)
				delete(v.watchers, id)
			}
		})
	}
	return ch, stop, nil
}

func (v *View) broadcast(snapshot []*entity.Task) {
	v.watchMu.Lock()
	defer v.watchMu.Unlock()
	for _, ch := range v.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}

/* ───────────────────────── connectivity ───────────────────────── */

// Online reports whether mutations are currently allowed.
func (v *View) Online() bool {
	return v.online.Load()
}

// SetOnline toggles connectivity. Going offline keeps the loaded tasks and
// pauses the change feed; coming back online resumes it with a fresh snapshot.
func (v *View) SetOnline(ctx context.Context, online bool) error {
	v.netMu.Lock()
	defer v.netMu.Unlock()
	if v.online.Load() == online {
		return nil
	}

	if online {
		if v.network != nil {
			if err := v.network.EnableNetwork(ctx); err != nil {
				return err
			}
		}
		v.online.Store(true)
	} else {
		v.online.Store(false)
		if v.network != nil {
			v.network.DisableNetwork()
		}
	}
	metrics.SetOnline(online)
	v.logger.Info("live view connectivity changed", slog.Bool("online", online))
	return nil
}

func (v *View) requireOnline(op Operation) error {
	if v.online.Load() {
		return nil
	}
	metrics.RecordMutationRejected(string(op), "offline")
	return &ConnectivityError{Op: op}
}
