package runtime

import (
	"sync"
	"time"
)

// Options are passed to every factory when a registry is built.
type Options struct {
	// StopTimeout is the grace period between the termination signal and a
	// forced kill. Zero kills immediately.
	StopTimeout time.Duration
}

// Factory constructs a spawner.
type Factory func(Options) Spawner

type factoryEntry struct {
	name    string
	factory Factory
}

var (
	registryMu       sync.RWMutex
	builtinFactories []factoryEntry
)

// Register associates the provided factory with the spawner name. When multiple
// factories register the same name the most recent registration wins.
func Register(name string, factory Factory) {
	if name == "" {
		panic("runtime.Register: name must not be empty")
	}
	if factory == nil {
		panic("runtime.Register: factory must not be nil")
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	for i, entry := range builtinFactories {
		if entry.name == name {
			builtinFactories[i].factory = factory
			return
		}
	}

	builtinFactories = append(builtinFactories, factoryEntry{name: name, factory: factory})
}

// NewRegistry constructs the default registry containing all registered
// spawners.
func NewRegistry(opts Options) Registry {
	registryMu.RLock()
	defer registryMu.RUnlock()

	reg := make(Registry, len(builtinFactories))
	for _, entry := range builtinFactories {
		reg[entry.name] = entry.factory(opts)
	}
	return reg
}
