package changefeed

import (
	"context"
	"sync"

	"gazette-tasks/internal/repository"
)

// subscription is a single-consumer FIFO. Producers never block: batches are
// queued and a pump goroutine hands them to the consumer one at a time.
type subscription struct {
	store *Store
	out   chan repository.ChangeBatch
	done  chan struct{}

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []repository.ChangeBatch
	paused bool
	closed bool

	once    sync.Once
	stopCtx func() bool
}

func newSubscription(store *Store) *subscription {
	sub := &subscription{
		store: store,
		out:   make(chan repository.ChangeBatch),
		done:  make(chan struct{}),
	}
	sub.cond = sync.NewCond(&sub.mu)
	return sub
}

func (s *subscription) start(ctx context.Context) {
	s.stopCtx = context.AfterFunc(ctx, func() { _ = s.Close() })
	go s.pump()
}

func (s *subscription) Changes() <-chan repository.ChangeBatch {
	return s.out
}

// Close stops delivery and closes the Changes channel. It is idempotent.
func (s *subscription) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.queue = nil
		s.cond.Broadcast()
		s.mu.Unlock()
		close(s.done)
		if s.stopCtx != nil {
			s.stopCtx()
		}
		s.store.remove(s)
	})
	return nil
}

func (s *subscription) enqueue(b repository.ChangeBatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, b)
	s.cond.Signal()
}

// replace drops queued batches in favour of b and resumes delivery.
func (s *subscription) replace(b repository.ChangeBatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = []repository.ChangeBatch{b}
	s.paused = false
	s.cond.Signal()
}

func (s *subscription) setPaused(p bool) {
	s.mu.Lock()
	s.paused = p
	s.cond.Signal()
	s.mu.Unlock()
}

func (s *subscription) pump() {
	defer close(s.out)
	for {
		s.mu.Lock()
		for !s.closed && (s.paused || len(s.queue) == 0) {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		b := s.queue[0]
		s.queue[0] = repository.ChangeBatch{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- b:
		case <-s.done:
			return
		}
	}
}
