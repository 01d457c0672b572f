// Package singleton keeps at most one instance per Go type, built on first use.
package singleton

import (
	"fmt"
	"reflect"
	"sync"
)

type entry struct {
	mu    sync.Mutex
	built bool
	value any
}

// Registry maps a type to its single instance. The zero value is not usable;
// use New. It is owned by the process root and passed by pointer.
type Registry struct {
	mu      sync.Mutex
	entries map[reflect.Type]*entry
}

func New() *Registry {
	return &Registry{entries: make(map[reflect.Type]*entry)}
}

func (r *Registry) entryFor(t reflect.Type) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[t]
	if !ok {
		e = &entry{}
		r.entries[t] = e
	}
	return e
}

// Get returns the instance of T, calling build only when none exists yet.
// Concurrent first callers block until one build finishes. A failed build is
// not remembered, so a later caller may try again.
func Get[T any](r *Registry, build func() (T, error)) (T, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	e := r.entryFor(t)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.built {
		return e.value.(T), nil
	}
	v, err := build()
	if err != nil {
		var zero T
		return zero, fmt.Errorf("build %s: %w", t, err)
	}
	e.value = v
	e.built = true
	return v, nil
}

// MustGet is Get for builders that cannot fail.
func MustGet[T any](r *Registry, build func() T) T {
	v, _ := Get(r, func() (T, error) { return build(), nil })
	return v
}

// Lookup returns the instance of T if it has been built.
func Lookup[T any](r *Registry) (T, bool) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	r.mu.Lock()
	e, ok := r.entries[t]
	r.mu.Unlock()
	var zero T
	if !ok {
		return zero, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.built {
		return zero, false
	}
	return e.value.(T), true
}

// Len is the number of built instances.
func (r *Registry) Len() int {
	r.mu.Lock()
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	n := 0
	for _, e := range entries {
		e.mu.Lock()
		if e.built {
			n++
		}
		e.mu.Unlock()
	}
	return n
}
