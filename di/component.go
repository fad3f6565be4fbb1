package di

import (
	"sync"

	"github.com/rs/zerolog"
)

// Caller is implemented by every proxy: components, builders and
// factories. Methods are dispatched by name.
type Caller interface {
	Call(method string, args ...any) (any, error)
}

// Component is the runtime implementation of a component contract. Each
// declared method maps to an entry of a dispatch table built once, when the
// component is created.
//
// A Component is safe for concurrent use. Scoped instances are constructed
// at most once per key.
type Component struct {
	desc     *ComponentDescriptor
	parent   *Component
	bindings *BindingMap
	cache    *ScopeCache
	dispatch map[string]handler

	linked sync.Map // Key -> LinkedBinding
	jit    sync.Map // Key -> UnlinkedBinding

	cfg *config
	log zerolog.Logger
}

// Descriptor returns the descriptor the component was created from.
func (c *Component) Descriptor() *ComponentDescriptor { return c.desc }

// Parent returns the component a subcomponent was created from, or nil.
func (c *Component) Parent() *Component { return c.parent }

// Bindings returns the component's own binding map.
func (c *Component) Bindings() *BindingMap { return c.bindings }

// Cache returns the component's scope cache.
func (c *Component) Cache() *ScopeCache { return c.cache }

// Call dispatches a component method by name.
func (c *Component) Call(method string, args ...any) (any, error) {
	h, ok := c.dispatch[method]
	if !ok {
		return nil, UnsupportedComponentMethodError{Component: c.desc.String(), Method: method, Reason: "no such method"}
	}
	return h(c, args)
}

// Get resolves key in the component's graph.
func (c *Component) Get(key Key) (any, error) {
	linked, err := NewLinker().Link(key, c)
	if err != nil {
		return nil, err
	}
	return linked.Get()
}

// lookup finds the binding for key and the component owning it: the
// component itself, an ancestor, or, for just-in-time constructors, the
// component owning the constructor's scope. Unscoped just-in-time
// constructors belong to the requesting component.
func (c *Component) lookup(key Key) (*Component, UnlinkedBinding, bool, error) {
	for cur := c; cur != nil; cur = cur.parent {
		if b, ok := cur.bindings.Get(key); ok {
			return cur, b, true, nil
		}
		if raw, ok := cur.jit.Load(key); ok {
			b := raw.(UnlinkedBinding)
			if cur == c || ownsConstructor(cur, b) {
				return cur, b, true, nil
			}
		}
	}
	return c.justInTime(key)
}

// ownsConstructor reports whether b is a just-in-time constructor scoped to
// a scope cur owns. Only those registrations are visible to descendants;
// unscoped ones are linked again in each requesting component.
func ownsConstructor(cur *Component, b UnlinkedBinding) bool {
	cb, ok := b.(*ConstructorBinding)
	return ok && cb.Constructor.Scope != "" && cur.cache.Owns(cb.Constructor.Scope)
}

func (c *Component) justInTime(key Key) (*Component, UnlinkedBinding, bool, error) {
	if key.IsOptional() {
		return nil, nil, false, nil
	}
	ctor, err := c.findConstructor(key)
	if err != nil || ctor == nil {
		return nil, nil, false, err
	}

	owner := c
	if ctor.Scope != "" {
		owner = nil
		for cur := c; cur != nil; cur = cur.parent {
			if cur.cache.Owns(ctor.Scope) {
				owner = cur
				break
			}
		}
		if owner == nil {
			return nil, nil, false, MissingScopeError{Key: key, Scope: ctor.Scope, Component: c.desc.String()}
		}
	}

	raw, loaded := owner.jit.LoadOrStore(key, &ConstructorBinding{Constructor: ctor})
	if !loaded {
		owner.log.Debug().
			Str("component", owner.desc.String()).
			Str("key", key.String()).
			Str("scope", string(ctor.Scope)).
			Msg("just-in-time binding registered")
	}
	return owner, raw.(UnlinkedBinding), true, nil
}

func (c *Component) findConstructor(key Key) (*ConstructorDescriptor, error) {
	for cur := c; cur != nil; cur = cur.parent {
		if cur.desc.Injectables == nil {
			continue
		}
		ctor, ok, err := cur.desc.Injectables.Lookup(key)
		if err != nil {
			return nil, err
		}
		if ok && ctor != nil {
			return ctor, nil
		}
	}
	return nil, nil
}

func (c *Component) implicitOptional(key Key) UnlinkedBinding {
	raw, _ := c.jit.LoadOrStore(key, &BindsOptionalOfBinding{Key: key.Unwrap()})
	return raw.(UnlinkedBinding)
}

// Resolve resolves T from c.
func Resolve[T any](c *Component) (T, error) {
	return ResolveKey[T](c, KeyFor[T]())
}

// ResolveNamed resolves T qualified by qualifier from c.
func ResolveNamed[T any](c *Component, qualifier string) (T, error) {
	return ResolveKey[T](c, QualifiedKeyFor[T](qualifier))
}

// ResolveKey resolves key from c and converts the value to T.
func ResolveKey[T any](c *Component, key Key) (T, error) {
	v, err := c.Get(key)
	if err != nil {
		var zero T
		return zero, err
	}
	return As[T](v)
}

// CallAs dispatches method on p and converts the result to T.
func CallAs[T any](p Caller, method string, args ...any) (T, error) {
	v, err := p.Call(method, args...)
	if err != nil {
		var zero T
		return zero, err
	}
	return As[T](v)
}

// MustCall is like CallAs but panics on error. Generated shims use it,
// since a failed resolution is a configuration defect.
func MustCall[T any](p Caller, method string, args ...any) T {
	v, err := CallAs[T](p, method, args...)
	if err != nil {
		panic(err)
	}
	return v
}

// As converts a resolved value to T. Optional[any] values convert to the
// Optional instantiation T names.
func As[T any](v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	if form, ok := any(zero).(optionalForm); ok {
		if o, ok := v.(Optional[any]); ok {
			return form.fromErased(o).(T), nil
		}
	}
	t, ok := v.(T)
	if !ok {
		return zero, ResultTypeError{Want: typeName[T](), Got: typeOf(v)}
	}
	return t, nil
}
