package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	openworkflow "github.com/cmusatyalab/OpenWorkflow"
	"github.com/cmusatyalab/OpenWorkflow/internal/logging"
	"github.com/cmusatyalab/OpenWorkflow/pkg/codec"
	"github.com/cmusatyalab/OpenWorkflow/pkg/domain"
	"github.com/cmusatyalab/OpenWorkflow/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold a document.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates document access, serializing edits per document name.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store ports.DocumentStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker     ports.DistributedLocker
	lockTTL    time.Duration
	editorOpts []openworkflow.Option
	logger     *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithEditorOptions sets the options of every editor the Manager opens,
// e.g. hooks or custom zoo registries.
func WithEditorOptions(opts ...openworkflow.Option) Option {
	return func(m *Manager) {
		m.editorOpts = append(m.editorOpts, opts...)
	}
}

// NewManager creates a Manager on top of store.
func NewManager(store ports.DocumentStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST lock entry.mu, and call release(name) after unlocking.
func (m *Manager) acquire(name string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[name]
	if !exists {
		entry = &lockEntry{}
		m.locks[name] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry at zero.
func (m *Manager) release(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[name]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, name)
	}
}

// Get loads and decodes the document called name.
func (m *Manager) Get(ctx context.Context, name string) (*domain.StateMachine, error) {
	data, err := m.Raw(ctx, name)
	if err != nil {
		return nil, err
	}
	return codec.Unmarshal(data)
}

// Raw returns the stored bytes of the document called name.
func (m *Manager) Raw(ctx context.Context, name string) ([]byte, error) {
	if err := ports.CheckDocumentName(name); err != nil {
		return nil, err
	}
	return m.store.Load(ctx, name)
}

// Put stores data as the document called name. The data must import
// cleanly: malformed bytes and duplicated names are refused. What is stored
// is the exported form, so callable arguments are normalized against the zoo
// like on every other write.
func (m *Manager) Put(ctx context.Context, name string, data []byte) (*domain.StateMachine, error) {
	if err := ports.CheckDocumentName(name); err != nil {
		return nil, err
	}
	ed := m.newEditor()
	if err := ed.Import(data); err != nil {
		return nil, err
	}
	exported, _, err := ed.Export()
	if err != nil {
		return nil, err
	}
	err = m.WithLock(ctx, name, func(ctx context.Context) error {
		return m.store.Save(ctx, name, exported)
	})
	if err != nil {
		return nil, err
	}
	return ed.Document(), nil
}

// Edit loads the document called name into an editor, runs fn and saves
// the exported result. Nothing is saved when fn fails.
func (m *Manager) Edit(ctx context.Context, name string, fn func(*openworkflow.Editor) error) (*domain.StateMachine, error) {
	return m.edit(ctx, name, false, fn)
}

// Upsert is Edit, starting from an empty document when name is not stored yet.
func (m *Manager) Upsert(ctx context.Context, name string, fn func(*openworkflow.Editor) error) (*domain.StateMachine, error) {
	return m.edit(ctx, name, true, fn)
}

func (m *Manager) edit(ctx context.Context, name string, create bool, fn func(*openworkflow.Editor) error) (*domain.StateMachine, error) {
	if err := ports.CheckDocumentName(name); err != nil {
		return nil, err
	}

	var result *domain.StateMachine
	err := m.WithLock(ctx, name, func(ctx context.Context) error {
		ed, err := m.open(ctx, name, create)
		if err != nil {
			return err
		}
		if err := fn(ed); err != nil {
			return err
		}
		data, _, err := ed.Export()
		if err != nil {
			return err
		}
		if err := m.store.Save(ctx, name, data); err != nil {
			return fmt.Errorf("failed to save document %q: %w", name, err)
		}
		result = ed.Document()
		return nil
	})
	return result, err
}

func (m *Manager) open(ctx context.Context, name string, create bool) (*openworkflow.Editor, error) {
	data, err := m.store.Load(ctx, name)
	if errors.Is(err, domain.ErrDocumentNotFound) && create {
		return m.newEditor(openworkflow.WithDocument(domain.New(name))), nil
	}
	if err != nil {
		return nil, err
	}

	ed := m.newEditor()
	if err := ed.Import(data); err != nil {
		return nil, fmt.Errorf("stored document %q: %w", name, err)
	}
	return ed, nil
}

func (m *Manager) newEditor(extra ...openworkflow.Option) *openworkflow.Editor {
	opts := make([]openworkflow.Option, 0, len(m.editorOpts)+len(extra)+1)
	opts = append(opts, openworkflow.WithLogger(m.logger))
	opts = append(opts, m.editorOpts...)
	opts = append(opts, extra...)
	return openworkflow.New(opts...)
}

// Delete removes the document from the store.
func (m *Manager) Delete(ctx context.Context, name string) error {
	if err := ports.CheckDocumentName(name); err != nil {
		return err
	}
	return m.WithLock(ctx, name, func(ctx context.Context) error {
		return m.store.Delete(ctx, name)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying document store.
func (m *Manager) Store() ports.DocumentStore {
	return m.store
}

// WithLock executes fn while holding the lock for the document.
func (m *Manager) WithLock(ctx context.Context, name string, fn func(context.Context) error) error {
	entry := m.acquire(name)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(name)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, name, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"document", name,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
