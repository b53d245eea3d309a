package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/sqldf/pkg/core"
)

// Factory creates an unconnected adapter. A nil logger means discard.
type Factory func(*slog.Logger) Adapter

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register makes an engine available by name. Engine packages call it from
// init(). Names are case-insensitive; registering a name again replaces the
// factory. Register panics on an empty name or a nil factory.
func Register(name string, factory Factory) {
	if key(name) == "" {
		panic("adapter: Register with empty engine name")
	}
	if factory == nil {
		panic("adapter: Register factory is nil for " + name)
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[key(name)] = factory
}

// Lookup returns the factory registered under name.
func Lookup(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[key(name)]
	return f, ok
}

// NewAdapter creates a new, unconnected adapter for cfg.Type.
func NewAdapter(cfg core.AdapterConfig, logger *slog.Logger) (Adapter, error) {
	if key(cfg.Type) == "" {
		return nil, fmt.Errorf("engine type not specified")
	}
	factory, ok := Lookup(cfg.Type)
	if !ok {
		return nil, &UnknownAdapterError{Type: cfg.Type, Available: Names()}
	}
	return factory(logger), nil
}

// Open creates an adapter for cfg.Type and connects it. The adapter is
// closed again if Connect fails.
func Open(ctx context.Context, cfg core.AdapterConfig, logger *slog.Logger) (Adapter, error) {
	adp, err := NewAdapter(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := adp.Connect(ctx, cfg); err != nil {
		_ = adp.Close()
		return nil, fmt.Errorf("failed to connect %s engine: %w", key(cfg.Type), err)
	}
	return adp, nil
}

// Names returns the registered engine names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether an engine is registered under name.
func IsRegistered(name string) bool {
	_, ok := Lookup(name)
	return ok
}

// UnknownAdapterError is returned when an unregistered engine is requested.
type UnknownAdapterError struct {
	Type      string
	Available []string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown engine type %q\nAvailable engines: %v\nHint: Check engine in sqldf.yaml or the --engine flag", e.Type, e.Available)
}
