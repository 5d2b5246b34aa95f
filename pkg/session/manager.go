package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/flux"
	"github.com/aretw0/flux/internal/logging"
	"github.com/aretw0/flux/pkg/domain"
	"github.com/aretw0/flux/pkg/middleware"
	"github.com/aretw0/flux/pkg/ports"
	"github.com/aretw0/flux/pkg/reducer"
	"github.com/aretw0/flux/pkg/registry"
)

// DefaultLockTTL bounds how long a distributed lock outlives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// DefaultHistoryLimit caps the recorded actions per session.
const DefaultHistoryLimit = 1000

// ErrSessionClosed is returned to deferred dispatches that fire after the
// session was deleted.
var ErrSessionClosed = errors.New("session closed")

// Session is a live store bound to a session id.
type Session struct {
	ID       string
	Store    *flux.Store
	Recorder *middleware.Recorder

	closed atomic.Bool
}

// Closed reports whether the session was deleted. A closed session no longer
// persists and rejects deferred dispatches.
func (s *Session) Closed() bool {
	return s.closed.Load()
}

// State returns the session's current tree.
func (s *Session) State() *domain.State {
	return s.Store.GetState()
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates session access, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.SnapshotStore
	root  *reducer.Root

	mu    sync.Mutex            // guards locks
	locks map[string]*lockEntry // active locks

	liveMu sync.RWMutex
	live   map[string]*Session

	locker       ports.DistributedLocker
	lockTTL      time.Duration
	registry     *registry.Registry
	middleware   []domain.Middleware
	historyLimit int
	logger       *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager and the stores it opens.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithRegistry resolves named effects in Dispatch.
func WithRegistry(reg *registry.Registry) Option {
	return func(m *Manager) {
		m.registry = reg
	}
}

// WithMiddleware prepends middleware (logging, metrics) to every session store.
func WithMiddleware(mw ...domain.Middleware) Option {
	return func(m *Manager) {
		m.middleware = append(m.middleware, mw...)
	}
}

// WithHistoryLimit overrides DefaultHistoryLimit (0 = unbounded).
func WithHistoryLimit(n int) Option {
	return func(m *Manager) {
		m.historyLimit = n
	}
}

// NewManager creates a session manager persisting into store.
func NewManager(store ports.SnapshotStore, root *reducer.Root, opts ...Option) *Manager {
	m := &Manager{
		store:        store,
		root:         root,
		locks:        make(map[string]*lockEntry),
		live:         make(map[string]*Session),
		lockTTL:      DefaultLockTTL,
		historyLimit: DefaultHistoryLimit,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Open returns the live session, resuming it from its snapshot or starting a
// fresh tree. A new session is saved immediately to reserve the id.
func (m *Manager) Open(ctx context.Context, sessionID string) (*Session, error) {
	if sess, ok := m.cached(sessionID); ok {
		return sess, nil
	}

	var sess *Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		sess, err = m.open(ctx, sessionID, true)
		return err
	})
	return sess, err
}

// Get returns an existing session. It does not create one.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Session, error) {
	if sess, ok := m.cached(sessionID); ok {
		return sess, nil
	}

	var sess *Session
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		sess, err = m.open(ctx, sessionID, false)
		return err
	})
	return sess, err
}

// Dispatch opens the session and dispatches action into it, resolving named
// effects through the registry. It returns the tree after the dispatch.
func (m *Manager) Dispatch(ctx context.Context, sessionID string, action domain.Action) (*domain.State, error) {
	sess, err := m.Open(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	d, err := m.registry.Resolve(ctx, action)
	if err != nil {
		return nil, err
	}

	var state *domain.State
	err = m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		if sess.Closed() {
			// Deleted between Open and the lock: start over.
			var err error
			if sess, err = m.open(ctx, sessionID, true); err != nil {
				return err
			}
		}
		if _, err := sess.Store.Dispatch(d); err != nil {
			return err
		}
		state = sess.State()
		return nil
	})
	return state, err
}

// State returns the current tree of an existing session.
func (m *Manager) State(ctx context.Context, sessionID string) (*domain.State, error) {
	sess, err := m.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.State(), nil
}

// History returns the recorded actions of an existing session.
func (m *Manager) History(ctx context.Context, sessionID string) ([]middleware.Entry, error) {
	sess, err := m.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Recorder.History(), nil
}

// Snapshot loads the persisted snapshot of a session.
func (m *Manager) Snapshot(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		snap, err = m.store.Load(ctx, sessionID)
		return err
	})
	return snap, err
}

// Delete closes the live session and removes its snapshot. Effects still
// pending on the closed session are dropped.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.liveMu.Lock()
		if sess, ok := m.live[sessionID]; ok {
			sess.closed.Store(true)
			delete(m.live, sessionID)
		}
		m.liveMu.Unlock()
		return m.store.Delete(ctx, sessionID)
	})
}

// List returns persisted session ids merged with live ones, sorted.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	ids, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	m.liveMu.RLock()
	for id := range m.live {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	m.liveMu.RUnlock()

	sort.Strings(ids)
	return ids, nil
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// WithLock executes a function while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"session_id", sessionID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

func (m *Manager) cached(sessionID string) (*Session, bool) {
	m.liveMu.RLock()
	defer m.liveMu.RUnlock()
	sess, ok := m.live[sessionID]
	return sess, ok
}

// open must run under the session lock.
func (m *Manager) open(ctx context.Context, sessionID string, create bool) (*Session, error) {
	if sess, ok := m.cached(sessionID); ok {
		return sess, nil
	}

	var state *domain.State
	snap, err := m.store.Load(ctx, sessionID)
	switch {
	case err == nil:
		state, err = m.root.Hydrate(snap)
		if err != nil {
			return nil, fmt.Errorf("failed to hydrate session %s: %w", sessionID, err)
		}
	case errors.Is(err, domain.ErrSessionNotFound):
		if !create {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to check session existence: %w", err)
	}

	sess := m.build(sessionID, state)

	if snap == nil {
		fresh, err := domain.NewSnapshot(sessionID, sess.State())
		if err != nil {
			return nil, err
		}
		if err := m.store.Save(ctx, sessionID, fresh); err != nil {
			return nil, fmt.Errorf("failed to initialize session: %w", err)
		}
		m.logger.Debug("Session started", "session_id", sessionID)
	} else {
		m.logger.Debug("Session resumed", "session_id", sessionID, "updated_at", snap.UpdatedAt)
	}

	m.liveMu.Lock()
	m.live[sessionID] = sess
	m.liveMu.Unlock()
	return sess, nil
}

func (m *Manager) build(sessionID string, state *domain.State) *Session {
	sess := &Session{ID: sessionID, Recorder: middleware.NewRecorder(m.historyLimit)}

	chain := make([]domain.Middleware, 0, len(m.middleware)+4)
	chain = append(chain, m.middleware...)
	chain = append(chain,
		sess.Recorder.Middleware(),
		m.lockDeferred(sess),
		middleware.Thunk(),
		middleware.Persist(m.store, sessionID,
			middleware.WithPersistLogger(m.logger),
			middleware.WithSaveIf(func() bool { return !sess.Closed() }),
		),
	)

	opts := []flux.Option{
		flux.WithName(sessionID),
		flux.WithLogger(m.logger),
		flux.WithMiddleware(chain...),
	}
	if state != nil {
		opts = append(opts, flux.WithInitialState(state))
	}

	sess.Store = flux.New(m.root.Reduce, opts...)
	return sess
}

// lockDeferred hands effects a dispatch that runs under the session lock once
// the effect's synchronous Run has returned. Calls made inside Run are already
// covered by the lock of the dispatch that started the effect.
func (m *Manager) lockDeferred(sess *Session) domain.Middleware {
	return func(api domain.MiddlewareAPI) func(next domain.Dispatch) domain.Dispatch {
		return func(next domain.Dispatch) domain.Dispatch {
			return func(d domain.Dispatchable) (domain.Dispatchable, error) {
				var e domain.Effect
				switch v := d.(type) {
				case domain.Effect:
					e = v
				case *domain.Effect:
					if v == nil {
						return next(d)
					}
					e = *v
				default:
					return next(d)
				}
				if e.Run == nil {
					return next(e)
				}

				var inline atomic.Bool
				inline.Store(true)
				defer inline.Store(false)

				run := e.Run
				e.Run = func(dispatch domain.Dispatch, getState domain.GetState) error {
					return run(func(d domain.Dispatchable) (domain.Dispatchable, error) {
						if inline.Load() {
							return dispatch(d)
						}
						return m.dispatchLocked(sess, dispatch, d)
					}, getState)
				}
				return next(e)
			}
		}
	}
}

func (m *Manager) dispatchLocked(sess *Session, dispatch domain.Dispatch, d domain.Dispatchable) (domain.Dispatchable, error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.lockTTL)
	defer cancel()

	var out domain.Dispatchable
	err := m.WithLock(ctx, sess.ID, func(context.Context) error {
		if sess.Closed() {
			return fmt.Errorf("%w: %s", ErrSessionClosed, sess.ID)
		}
		var err error
		out, err = dispatch(d)
		return err
	})
	return out, err
}
