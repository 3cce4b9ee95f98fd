package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrDuplicateTool = errors.New("tool already registered")
	ErrToolNameEmpty = errors.New("tool name is empty")
	ErrNilTool       = errors.New("tool is nil")
)

type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds t under its normalized name. Two tools whose names
// normalize to the same value cannot coexist.
func (r *Registry) Register(t Tool) error {
	if t == nil {
		return ErrNilTool
	}
	name := NormalizeName(t.Name())
	if name == "" {
		return fmt.Errorf("%w: %q", ErrToolNameEmpty, t.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateTool, name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// MustRegister panics on registration errors; wiring code calls it at startup.
func (r *Registry) MustRegister(ts ...Tool) {
	for _, t := range ts {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) Lookup(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[NormalizeName(name)]
	return t, ok
}

// Invoke runs the named tool. Unknown names, panics and cancelled contexts
// all come back as failed results.
func (r *Registry) Invoke(ctx context.Context, name, input string) (res Result) {
	t, ok := r.Lookup(name)
	if !ok {
		return Fail(fmt.Sprintf("Error: unknown tool %q. Available tools: %v", name, r.Names()))
	}
	if err := ctx.Err(); err != nil {
		return Fail(fmt.Sprintf("Error: %s was not run: %v", NormalizeName(name), err))
	}
	defer func() {
		if p := recover(); p != nil {
			res = Fail(fmt.Sprintf("Error: %s failed unexpectedly: %v", NormalizeName(name), p))
		}
	}()
	return t.Invoke(ctx, input)
}

// Names returns registered names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, Descriptor{Name: name, Description: r.tools[name].Description()})
	}
	return out
}

