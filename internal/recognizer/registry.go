package recognizer

import (
	"fmt"
	"log/slog"
)

// Factory constructs a provider, returning an error when its backing
// runtime or service is unavailable on this device.
type Factory func() (Provider, error)

// Registry maps provider names to factories. The active provider is chosen
// once at startup by trying a priority-ordered list of names and keeping
// the first that initializes; nothing is swapped at runtime.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a named factory, replacing any previous one.
func (r *Registry) Register(name string, factory Factory) {
	r.factories[name] = factory
}

// Resolve tries the given names in order and returns the first provider
// that initializes successfully. Unknown names and failed initializations
// are logged and skipped; ErrNoProvider is returned if none succeed.
func (r *Registry) Resolve(names []string) (Provider, error) {
	for _, name := range names {
		factory, ok := r.factories[name]
		if !ok {
			slog.Warn("Recognizer not registered", "name", name)
			continue
		}
		provider, err := factory()
		if err != nil {
			slog.Warn("Recognizer unavailable", "name", name, "error", err)
			continue
		}
		slog.Info("Recognizer selected", "name", provider.Name())
		return provider, nil
	}
	return nil, fmt.Errorf("%w: tried %v", ErrNoProvider, names)
}
