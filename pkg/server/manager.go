package server

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ecomap/pkg/errors"
	"github.com/matzehuels/ecomap/pkg/interact"
	"github.com/matzehuels/ecomap/pkg/observability"
	"github.com/matzehuels/ecomap/pkg/session"
	"github.com/matzehuels/ecomap/pkg/store"
)

// StoreFactory creates the empty store behind a new or restored session.
type StoreFactory func() *store.Store

// live is a session with its in-memory store. mu serializes requests on
// the same session.
type live struct {
	mu    sync.Mutex
	sess  *session.Session
	store *store.Store
	ctrl  *interact.Controller
}

// Manager keeps live stores for active sessions on top of a
// [session.Store] backend.
type Manager struct {
	backend session.Store
	factory StoreFactory
	ttl     time.Duration
	logger  *log.Logger

	mu   sync.Mutex
	live map[string]*live
}

// NewManager creates a manager. A nil factory uses [store.New] defaults.
func NewManager(backend session.Store, factory StoreFactory, ttl time.Duration, logger *log.Logger) *Manager {
	if factory == nil {
		factory = func() *store.Store { return store.New(store.WithLogger(logger)) }
	}
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		backend: backend,
		factory: factory,
		ttl:     ttl,
		logger:  logger,
		live:    make(map[string]*live),
	}
}

// Create starts an empty session and persists it.
func (m *Manager) Create(ctx context.Context) (*session.Session, error) {
	sess := session.New(m.ttl)
	st := m.factory()
	sess.Document = st.Snapshot()
	if err := m.backend.Set(ctx, sess); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "save session")
	}
	m.mu.Lock()
	m.live[sess.ID] = &live{sess: sess, store: st, ctrl: interact.New(st)}
	m.mu.Unlock()
	m.logger.Debug("session created", "id", sess.ID)
	observability.Session().OnSessionCreated(ctx, sess.ID)
	return sess, nil
}

// View runs fn with the session's store without persisting.
func (m *Manager) View(ctx context.Context, id string, fn func(*session.Session, *store.Store) error) error {
	l, err := m.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer l.mu.Unlock()
	return fn(l.sess, l.store)
}

// Update runs fn with the session's store and controller, then saves the
// snapshot and extends the session. The snapshot is saved only when fn
// succeeds.
func (m *Manager) Update(ctx context.Context, id string, fn func(*store.Store, *interact.Controller) error) (*session.Session, error) {
	l, err := m.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer l.mu.Unlock()
	if err := fn(l.store, l.ctrl); err != nil {
		return nil, err
	}
	l.sess.Document = l.store.Snapshot()
	l.sess.Touch()
	if err := m.backend.Set(ctx, l.sess); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "save session")
	}
	return l.sess, nil
}

// Delete removes a session from memory and the backend.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.live, id)
	m.mu.Unlock()
	if err := m.backend.Delete(ctx, id); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete session")
	}
	observability.Session().OnSessionEvicted(ctx, id, observability.EvictDeleted)
	return nil
}

// acquire returns the live session locked. Expired sessions are evicted
// and reported as not found.
func (m *Manager) acquire(ctx context.Context, id string) (*live, error) {
	l, err := m.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	if !l.sess.IsExpired() {
		return l, nil
	}
	l.mu.Unlock()
	m.evict(ctx, id, l)
	return nil, errors.New(errors.ErrCodeSessionNotFound, "session expired: %s", id)
}

// lookup returns the live session, restoring it from the backend when it
// is not in memory.
func (m *Manager) lookup(ctx context.Context, id string) (*live, error) {
	if !session.ValidID(id) {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session not found: %s", id)
	}

	m.mu.Lock()
	l, ok := m.live[id]
	m.mu.Unlock()
	if ok {
		return l, nil
	}

	sess, err := m.backend.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load session")
	}
	if sess == nil {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session not found: %s", id)
	}
	st := m.factory()
	st.Restore(sess.Document)

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another request may have restored it meanwhile.
	if existing, ok := m.live[id]; ok {
		return existing, nil
	}
	l = &live{sess: sess, store: st, ctrl: interact.New(st)}
	m.live[id] = l
	m.logger.Debug("session restored", "id", id)
	observability.Session().OnSessionRestored(ctx, id)
	return l, nil
}

// evict removes l from memory unless it was replaced meanwhile.
func (m *Manager) evict(ctx context.Context, id string, l *live) {
	m.mu.Lock()
	owned := m.live[id] == l
	if owned {
		delete(m.live, id)
	}
	m.mu.Unlock()
	if owned {
		observability.Session().OnSessionEvicted(ctx, id, observability.EvictExpired)
	}
}

// Sweep drops expired sessions from memory and asks the backend to clean
// up. It returns the number of live sessions evicted.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	m.mu.Lock()
	all := maps.Clone(m.live)
	m.mu.Unlock()

	n := 0
	for id, l := range all {
		l.mu.Lock()
		expired := l.sess.IsExpired()
		l.mu.Unlock()
		if expired {
			m.evict(ctx, id, l)
			n++
		}
	}
	return n, m.backend.Cleanup(ctx)
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.Sweep(ctx)
			if err != nil {
				m.logger.Warn("session cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				m.logger.Debug("evicted sessions", "count", n)
			}
		}
	}
}

// Len returns the number of sessions held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}
