package alpr

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/MateuszOrski/ProjektParking/internal/config"
)

// Factory builds a pipeline from the service configuration. A returned error
// means the model could not be loaded.
type Factory func(ctx context.Context, cfg *config.Config) (Pipeline, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// RegisterEngine makes an engine available by name. It panics if the factory
// is nil or the name is taken.
func RegisterEngine(name string, factory Factory) {
	if factory == nil {
		panic(errors.Errorf("cannot register a nil factory for engine %q", name))
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic(errors.Errorf("engine %q already registered", name))
	}
	registry[name] = factory
}

// LookupEngine returns the factory registered under name.
func LookupEngine(name string) (Factory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	factory, ok := registry[name]
	if !ok {
		return nil, errors.Errorf("no ALPR engine with name %q (available: %v)", name, engineNamesLocked())
	}
	return factory, nil
}

// EngineNames lists registered engines in sorted order.
func EngineNames() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return engineNamesLocked()
}

func engineNamesLocked() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load looks up the configured engine and constructs it.
func Load(ctx context.Context, cfg *config.Config) (Pipeline, error) {
	factory, err := LookupEngine(cfg.ALPREngine)
	if err != nil {
		return nil, err
	}
	p, err := factory(ctx, cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "load ALPR engine %q", cfg.ALPREngine)
	}
	if p == nil {
		return nil, errors.Errorf("ALPR engine %q returned no pipeline", cfg.ALPREngine)
	}
	return p, nil
}
