// Package registry tracks every open collection and search handle of the
// process. A handle has exactly one owner: whoever registered it releases it,
// either explicitly or through Scoped.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrUnknownHandle = errors.New("unknown handle")

type Resource interface {
	Close() error
}

type entry struct {
	kind     string
	resource Resource
	acquired time.Time
}

type Registry struct {
	mutex   sync.RWMutex
	entries map[uuid.UUID]*entry
}

func New() *Registry {
	return &Registry{
		entries: map[uuid.UUID]*entry{},
	}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process wide registry.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = New()
	})
	return defaultRegistry
}

func (r *Registry) Register(kind string, resource Resource) uuid.UUID {
	id := uuid.New()

	r.mutex.Lock()
	r.entries[id] = &entry{
		kind:     kind,
		resource: resource,
		acquired: time.Now(),
	}
	r.mutex.Unlock()

	return id
}

func (r *Registry) Lookup(id uuid.UUID) (Resource, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e.resource, true
}

// Release unregisters and closes the resource. Releasing twice fails with
// ErrUnknownHandle.
func (r *Registry) Release(id uuid.UUID) error {
	r.mutex.Lock()
	e, ok := r.entries[id]
	delete(r.entries, id)
	r.mutex.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, id)
	}

	err := e.resource.Close()
	if err != nil {
		return fmt.Errorf("close %s %s: %w", e.kind, id, err)
	}
	return nil
}

func (r *Registry) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.entries)
}

type Info struct {
	ID       uuid.UUID `json:"id"`
	Kind     string    `json:"kind"`
	Acquired time.Time `json:"acquired"`
}

func (r *Registry) List() []Info {
	r.mutex.RLock()
	result := make([]Info, 0, len(r.entries))
	for id, e := range r.entries {
		result = append(result, Info{ID: id, Kind: e.kind, Acquired: e.acquired})
	}
	r.mutex.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Acquired.Before(result[j].Acquired)
	})
	return result
}

// CloseAll releases every handle still registered. Used on shutdown; any
// handle found here was leaked by its owner.
func (r *Registry) CloseAll() error {
	r.mutex.Lock()
	entries := r.entries
	r.entries = map[uuid.UUID]*entry{}
	r.mutex.Unlock()

	var errs []error
	for id, e := range entries {
		slog.Warn("releasing leaked handle", "kind", e.kind, "id", id, "age", time.Since(e.acquired))
		if err := e.resource.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s %s: %w", e.kind, id, err))
		}
	}
	return errors.Join(errs...)
}

// Scoped opens a resource, registers it, runs fn and releases it on every
// exit path, panics included.
func Scoped[T Resource](ctx context.Context, r *Registry, kind string, open func(context.Context) (T, error), fn func(context.Context, T) error) (err error) {
	resource, err := open(ctx)
	if err != nil {
		return fmt.Errorf("open %s: %w", kind, err)
	}

	id := r.Register(kind, resource)
	defer func() {
		releaseErr := r.Release(id)
		if err == nil {
			err = releaseErr
		}
	}()

	return fn(ctx, resource)
}
