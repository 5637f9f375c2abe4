package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/vvka-141/jsonload/internal/db"
	"github.com/vvka-141/jsonload/pkg/jsonload"
)

// Factory opens a backend for a validated configuration.
type Factory func(ctx context.Context, cfg *jsonload.ConnectionConfig, logger jsonload.Logger) (jsonload.Store, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a backend available under driver. It panics on a
// duplicate registration.
func Register(driver string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	driver = db.NormalizeDriver(driver)
	if _, dup := registry[driver]; dup {
		panic(fmt.Sprintf("store: backend %q registered twice", driver))
	}
	registry[driver] = factory
}

// Drivers lists registered backends in sorted order.
func Drivers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open validates cfg and opens the backend it names. Every error is a
// run-level *jsonload.StorageError with Op "open".
func Open(ctx context.Context, cfg *jsonload.ConnectionConfig, logger jsonload.Logger) (jsonload.Store, error) {
	resolved := *cfg
	resolved.Driver = db.NormalizeDriver(cfg.Driver)

	if err := resolved.Validate(); err != nil {
		return nil, &jsonload.StorageError{Op: "open", Err: err}
	}

	registryMu.RLock()
	factory, ok := registry[resolved.Driver]
	registryMu.RUnlock()
	if !ok {
		return nil, &jsonload.StorageError{
			Op:  "open",
			Err: fmt.Errorf("%q (registered: %v): %w", resolved.Driver, Drivers(), jsonload.ErrUnsupportedDriver),
		}
	}

	logger.Verbose("Opening %s with pool size %d", db.Redact(&resolved), resolved.EffectivePoolSize())

	st, err := factory(ctx, &resolved, logger)
	if err != nil {
		if !errors.Is(err, jsonload.ErrConnectionFailed) &&
			!errors.Is(err, jsonload.ErrInvalidConfig) &&
			!errors.Is(err, jsonload.ErrUnsupportedAuthMethod) &&
			!errors.Is(err, context.Canceled) {
			err = fmt.Errorf("%w: %w", jsonload.ErrConnectionFailed, err)
		}
		return nil, &jsonload.StorageError{Op: "open", Err: err}
	}
	return st, nil
}
