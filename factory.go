package purgecache

import (
	"context"

	"github.com/hyp3rd/ewrap"

	"github.com/hyp3rd/purgecache/internal/constants"
	"github.com/hyp3rd/purgecache/internal/sentinel"
	"github.com/hyp3rd/purgecache/pkg/backend"
)

// IBackendConstructor is an interface for backend constructors.
type IBackendConstructor interface {
	Create(ctx context.Context, cfg *Config) (backend.IBackend, error)
}

// InMemoryBackendConstructor constructs InMemory backends.
type InMemoryBackendConstructor struct{}

// Create creates a new InMemory backend.
func (InMemoryBackendConstructor) Create(_ context.Context, cfg *Config) (backend.IBackend, error) {
	return backend.NewInMemory(cfg.InMemoryOptions...)
}

// RedisBackendConstructor constructs Redis backends.
type RedisBackendConstructor struct{}

// Create creates a new Redis backend.
func (RedisBackendConstructor) Create(_ context.Context, cfg *Config) (backend.IBackend, error) {
	return backend.NewRedis(cfg.RedisOptions...)
}

// BackendManager is a factory for creating cache backend instances.
// It maintains a registry of backend constructors by name.
type BackendManager struct {
	backendRegistry map[string]IBackendConstructor
}

// getDefaultBackends returns the default set of backend constructors.
func getDefaultBackends() map[string]IBackendConstructor {
	return map[string]IBackendConstructor{
		constants.InMemoryBackend: InMemoryBackendConstructor{},
		constants.RedisBackend:    RedisBackendConstructor{},
	}
}

// NewBackendManager creates a new BackendManager with default backends pre-registered.
func NewBackendManager() *BackendManager {
	manager := NewEmptyBackendManager()
	// Register the default backends
	for name, constructor := range getDefaultBackends() {
		manager.RegisterBackend(name, constructor)
	}

	return manager
}

// NewEmptyBackendManager creates a new BackendManager without default backends.
// This is useful for testing or when you want to register only specific backends.
func NewEmptyBackendManager() *BackendManager {
	return &BackendManager{
		backendRegistry: make(map[string]IBackendConstructor),
	}
}

// RegisterBackend registers a new backend constructor under name, replacing any previous one.
func (bm *BackendManager) RegisterBackend(name string, constructor IBackendConstructor) {
	bm.backendRegistry[name] = constructor
}

// Create builds the backend named by cfg.BackendType.
func (bm *BackendManager) Create(ctx context.Context, cfg *Config) (backend.IBackend, error) {
	constructor, ok := bm.backendRegistry[cfg.BackendType]
	if !ok {
		return nil, ewrap.Wrapf(sentinel.ErrBackendNotFound, "type %q", cfg.BackendType)
	}

	storage, err := constructor.Create(ctx, cfg)
	if err != nil {
		return nil, ewrap.Wrap(err, "creating "+cfg.BackendType+" backend")
	}

	return storage, nil
}

// GetDefaultManager returns a new BackendManager with default backends pre-registered.
func GetDefaultManager() *BackendManager { return NewBackendManager() }

// NewFromConfig builds the configured backend through manager, then the cache over it.
// A nil manager uses the default backends.
func NewFromConfig(ctx context.Context, manager *BackendManager, cfg *Config) (*Cache, error) {
	if cfg == nil {
		return nil, ewrap.Wrap(sentinel.ErrParamCannotBeEmpty, "config")
	}

	if manager == nil {
		manager = GetDefaultManager()
	}

	storage, err := manager.Create(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return New(ctx, storage, cfg.CacheOptions...)
}
