package di

import (
	"errors"
	"fmt"
)

// Registry supplies injectable constructors, looked up the first time a key
// without an explicit binding is requested.
//
// It is intentionally:
// - read-only
// - side effect free
//
// Expected usage:
//
//	ctor, ok, err := reg.Lookup(di.KeyFor[*Heater]())
type Registry interface {
	Lookup(key Key) (ctor *ConstructorDescriptor, ok bool, err error)
}

// ErrRegistryPanic is returned if a registry implementation panics internally.
var ErrRegistryPanic = errors.New("di: registry panic during Lookup")

// MapRegistry is a simple in-memory registry keyed by the constructor's key.
type MapRegistry struct {
	items map[Key]*ConstructorDescriptor
}

func NewMapRegistry() *MapRegistry {
	return &MapRegistry{items: map[Key]*ConstructorDescriptor{}}
}

// Provide stores ctor under its key and returns the registry for chaining.
// A later constructor for the same key replaces the earlier one.
func (r *MapRegistry) Provide(ctor *ConstructorDescriptor) *MapRegistry {
	r.items[ctor.Key()] = ctor
	return r
}

// Lookup implements Registry and converts panics into errors.
func (r *MapRegistry) Lookup(key Key) (ctor *ConstructorDescriptor, ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ctor = nil
			ok = false
			err = fmt.Errorf("%w: %v", ErrRegistryPanic, rec)
		}
	}()

	ctor, ok = r.items[key]
	return ctor, ok, nil
}

// Len returns the number of constructors stored.
func (r *MapRegistry) Len() int { return len(r.items) }

// MustGet returns the constructor for key or panics with a helpful message.
// Useful in tests where a missing constructor should fail fast.
func (r *MapRegistry) MustGet(key Key) *ConstructorDescriptor {
	ctor, ok := r.items[key]
	if !ok {
		panic(fmt.Errorf("di: registry missing constructor for %s", key))
	}
	return ctor
}
