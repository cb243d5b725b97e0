// Package state owns the application snapshot. Every mutation builds the
// next snapshot by copying the parts it changes, swaps it in, and persists
// the whole document.
package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pbaille/reflect/internal/corpus"
	"github.com/pbaille/reflect/internal/domain"
	"github.com/pbaille/reflect/internal/observability"
	"github.com/pbaille/reflect/internal/store"
)

var (
	ErrUnknownBook      = errors.New("unknown book")
	ErrUnknownChapter   = errors.New("unknown chapter")
	ErrUnknownNote      = errors.New("unknown note")
	ErrUnknownHighlight = errors.New("unknown highlight")
	ErrDuplicateChapter = errors.New("chapter already exists")
	ErrEmptyMessage     = errors.New("empty message")
	ErrBusy             = errors.New("a reply is already pending")
)

// Store is the single owner of the AppState
type Store struct {
	mu      sync.Mutex
	backend store.Backend
	key     string
	current *domain.AppState
	pending atomic.Bool

	now func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open loads the snapshot stored under key, upgrading it to the current
// schema, or starts from the initial corpus state when none exists.
func Open(ctx context.Context, backend store.Backend, key string, opts ...Option) (*Store, error) {
	if key == "" {
		key = domain.StorageKey
	}
	s := &Store{backend: backend, key: key, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	log := observability.LoggerFromContext(ctx)

	// only a seeded or upgraded state needs writing back
	dirty := true

	raw, err := backend.Load(ctx, key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		initial, err := corpus.InitialState()
		if err != nil {
			return nil, err
		}
		s.current = initial
		log.Info("starting from initial state", "key", key, "books", len(initial.Books))
	case err != nil:
		return nil, fmt.Errorf("load state: %w", err)
	default:
		var loaded domain.AppState
		if err := json.Unmarshal(raw, &loaded); err != nil {
			return nil, fmt.Errorf("decode state: %w", err)
		}
		from := loaded.SchemaVersion
		if err := Upgrade(&loaded); err != nil {
			return nil, err
		}
		dirty = from != loaded.SchemaVersion
		if dirty {
			log.Info("upgraded state schema", "from", from, "to", loaded.SchemaVersion)
		}
		s.current = &loaded
	}

	if dirty {
		// persist logs the failure; the next mutation retries the write
		if err := s.persist(ctx); err != nil {
			log.Warn("initial state not saved", "key", key)
		}
	}
	return s, nil
}

// Snapshot returns the current state. Mutations never modify a published
// snapshot in place, so it can be read without holding the lock. Callers
// must treat it as read-only.
func (s *Store) Snapshot() *domain.AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// TryBegin claims the single pending-reply slot. It returns false when a
// reply is already in flight.
func (s *Store) TryBegin() bool {
	return s.pending.CompareAndSwap(false, true)
}

// End releases the slot claimed by TryBegin
func (s *Store) End() {
	s.pending.Store(false)
}

// Pending reports whether a reply is in flight
func (s *Store) Pending() bool {
	return s.pending.Load()
}

// apply runs fn on a shallow copy of the current state, publishes the
// result and persists it. fn must copy any slice or map it changes.
// The new state stays published even when persistence fails.
func (s *Store) apply(ctx context.Context, fn func(next *domain.AppState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := *s.current
	if err := fn(&next); err != nil {
		return err
	}
	s.current = &next
	return s.persist(ctx)
}

// persist must be called with mu held, or before the store is shared.
func (s *Store) persist(ctx context.Context) error {
	data, err := json.Marshal(s.current)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := s.backend.Save(ctx, s.key, data); err != nil {
		observability.PersistFailures.Inc()
		observability.LoggerFromContext(ctx).Error("persist state failed", "key", s.key, "error", err)
		return fmt.Errorf("persist state: %w", err)
	}
	return nil
}
