package service

import (
	"errors"
	"fmt"
)

var ErrDuplicateIdentity = errors.New("duplicate service identity")

// Table is the fixed descriptor arena indexed by Identity. It is filled once
// at startup and never reallocated; empty slots belong to services that are
// not part of this build.
type Table struct {
	slots [IdentityCount]*Descriptor
	order []Identity
}

// NewTable builds the table from descriptors in declaration order.
func NewTable(descs ...*Descriptor) (*Table, error) {
	t := &Table{}
	for _, d := range descs {
		if d == nil {
			continue
		}
		if !d.Identity.Valid() {
			return nil, fmt.Errorf("descriptor %q: identity %s out of range", d.Name, d.Identity)
		}
		if t.slots[d.Identity] != nil {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateIdentity, d.Identity)
		}
		t.slots[d.Identity] = d
		t.order = append(t.order, d.Identity)
	}
	return t, nil
}

// Lookup returns the descriptor for id. ok is false for identities that are
// out of range or not compiled into this build.
func (t *Table) Lookup(id Identity) (*Descriptor, bool) {
	if !id.Valid() {
		return nil, false
	}
	d := t.slots[id]
	return d, d != nil
}

// MustLookup panics for identities without a descriptor.
func (t *Table) MustLookup(id Identity) *Descriptor {
	d, ok := t.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("service: no descriptor for %s", id))
	}
	return d
}

// Each visits descriptors in declaration order; returning false stops.
func (t *Table) Each(fn func(*Descriptor) bool) {
	for _, id := range t.order {
		if !fn(t.slots[id]) {
			return
		}
	}
}

// Order returns the declaration order.
func (t *Table) Order() []Identity {
	out := make([]Identity, len(t.order))
	copy(out, t.order)
	return out
}

func (t *Table) Len() int { return len(t.order) }
