package runner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/simflow/simflow/core/payload"
	"github.com/simflow/simflow/core/sim"
	"github.com/simflow/simflow/providers/kvstore"
)

var (
	// ErrHookMissing signals that the requested hook was not configured (or
	// was disabled at load). Hosts fall back to their default behaviour.
	ErrHookMissing = errors.New("runner: hook missing")

	// ErrUserCode wraps every failure raised inside a user hook.
	ErrUserCode = errors.New("runner: user code error")

	// ErrStrategyExists is returned when registering a strategy name twice.
	ErrStrategyExists = errors.New("runner: strategy already registered")
)

// Host is the view of a component a hook is allowed to use: identity, the
// component's key-value bag, the shared type registry, and the event log.
type Host interface {
	ID() string
	Category() string
	KV() *kvstore.Store
	Types() *payload.Registry
	LogEvent(action string, values map[string]any, pdv *payload.Container, addition map[string]any)
}

// Hook is the standard signature of user component logic. The process handle
// lets a hook suspend (Timeout, Seize) before producing its output. A nil
// output with a nil error from a run hook means the token is consumed; the
// Generator instead emits its unrefined container when its generator hook
// returns nil.
type Hook func(proc *sim.Process, host Host, input *payload.Container) (*payload.Container, error)

// Factory builds a Hook instance from fragment arguments. Each component gets
// its own instance, so stateful strategies keep per-component state.
type Factory func(args map[string]string) (Hook, error)

// Registry maps strategy names to factories. The engine ships a default set
// (see DefaultRegistry); host programs register their own strategies next to
// the built-ins.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty strategy registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a named strategy.
func (r *Registry) Register(name string, factory Factory) error {
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("%w: %q", ErrStrategyExists, name)
	}
	r.factories[name] = factory
	return nil
}

// lookup returns the factory for a strategy name.
func (r *Registry) lookup(name string) (Factory, bool) {
	factory, ok := r.factories[name]
	return factory, ok
}

// parseFragment splits a fragment into its strategy name and arguments.
// Accepted shapes: "name" and "name(key=value, key=value)".
func parseFragment(fragment string) (string, map[string]string, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return "", nil, fmt.Errorf("runner: empty fragment")
	}

	open := strings.IndexByte(fragment, '(')
	if open < 0 {
		if strings.ContainsAny(fragment, ") ,=") {
			return "", nil, fmt.Errorf("runner: malformed fragment %q", fragment)
		}
		return fragment, nil, nil
	}

	if !strings.HasSuffix(fragment, ")") {
		return "", nil, fmt.Errorf("runner: unterminated argument list in %q", fragment)
	}
	name := strings.TrimSpace(fragment[:open])
	if name == "" {
		return "", nil, fmt.Errorf("runner: fragment %q has no strategy name", fragment)
	}

	args := make(map[string]string)
	body := strings.TrimSpace(fragment[open+1 : len(fragment)-1])
	if body == "" {
		return name, args, nil
	}
	for _, pair := range strings.Split(body, ",") {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return "", nil, fmt.Errorf("runner: argument %q in %q is not key=value", pair, fragment)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return "", nil, fmt.Errorf("runner: empty argument key in %q", fragment)
		}
		args[key] = strings.TrimSpace(value)
	}
	return name, args, nil
}
