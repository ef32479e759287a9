package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/John-Robertt/pacservice-go/internal/model"
)

const (
	DefaultMaxAttempts = 5
	DefaultRetryDelay  = 50 * time.Millisecond
)

// Store is the single owner of a registry file. Construct it once with Open
// and share the pointer; it is safe for concurrent use.
type Store struct {
	path        string
	fs          fileSystem
	logger      *slog.Logger
	maxAttempts int
	retryDelay  time.Duration
	sleep       func(time.Duration)

	load func() error

	mu  sync.RWMutex
	reg model.Registry // published value; never mutated in place

	queue     chan *mutation
	closing   chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRetry sets the rename attempt bound and the base backoff delay. The
// wait before attempt n+1 is n*delay.
func WithRetry(maxAttempts int, delay time.Duration) Option {
	return func(s *Store) {
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
		if delay >= 0 {
			s.retryDelay = delay
		}
	}
}

func withFileSystem(fs fileSystem) Option {
	return func(s *Store) { s.fs = fs }
}

func withSleep(sleep func(time.Duration)) Option {
	return func(s *Store) { s.sleep = sleep }
}

// Open returns a Store backed by path and starts its writer. Nothing is read
// until the first Load or operation.
func Open(path string, opts ...Option) *Store {
	s := &Store{
		path:        path,
		fs:          osFS{},
		logger:      slog.New(slog.DiscardHandler),
		maxAttempts: DefaultMaxAttempts,
		retryDelay:  DefaultRetryDelay,
		sleep:       time.Sleep,
		reg:         model.Registry{Proxies: []model.Proxy{}},
		queue:       make(chan *mutation),
		closing:     make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.load = sync.OnceValue(s.loadFromDisk)
	go s.writer()
	return s
}

func (s *Store) Path() string { return s.path }

// Load populates the registry from disk on first call; later calls are no-ops.
// A missing or unreadable file yields an empty registry.
func (s *Store) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.load()
}

// Close stops accepting mutations, waits for queued ones to finish and stops
// the writer. Reads keep working.
func (s *Store) Close() error {
	s.closeOnce.Do(func() { close(s.closing) })
	<-s.done
	return nil
}

func (s *Store) published() model.Registry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reg
}

func (s *Store) publish(reg model.Registry) {
	s.mu.Lock()
	s.reg = reg
	s.mu.Unlock()
}

// State returns a deep copy of the whole registry.
func (s *Store) State(ctx context.Context) (model.Registry, error) {
	if err := s.Load(ctx); err != nil {
		return model.Registry{}, err
	}
	return s.published().Clone(), nil
}

func (s *Store) ListProxies(ctx context.Context) ([]model.Proxy, error) {
	reg, err := s.State(ctx)
	if err != nil {
		return nil, err
	}
	return reg.Proxies, nil
}

func (s *Store) GetProxy(ctx context.Context, id string) (model.Proxy, error) {
	if err := s.Load(ctx); err != nil {
		return model.Proxy{}, err
	}
	reg := s.published()
	i := reg.ProxyIndex(id)
	if i < 0 {
		return model.Proxy{}, proxyNotFound(id)
	}
	return reg.Proxies[i].Clone(), nil
}
