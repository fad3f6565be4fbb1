package di

// UnlinkedBinding is a strategy for producing the value of a key whose
// dependencies have not been resolved yet.
type UnlinkedBinding interface {
	// Link resolves the binding's dependencies through l, in the context of
	// the component c that owns the binding.
	Link(l *Linker, c *Component) (LinkedBinding, error)

	// String describes where the binding was declared.
	String() string
}

// LinkedBinding produces a value once every dependency is resolved.
type LinkedBinding interface {
	Get() (any, error)
}

// ProvidesBinding invokes a provider method after resolving its parameters.
type ProvidesBinding struct {
	Module   string
	Instance any
	Method   Method
}

func (b *ProvidesBinding) Link(l *Linker, c *Component) (LinkedBinding, error) {
	deps, err := l.linkAll(b.Method.Params, c)
	if err != nil {
		return nil, err
	}
	instance, invoke := b.Instance, b.Method.Invoke
	return &linkedCall{deps: deps, call: func(args []any) (any, error) {
		return invoke(instance, args)
	}}, nil
}

func (b *ProvidesBinding) String() string {
	return "@Provides " + b.Module + "." + b.Method.Name
}

// BindsBinding satisfies one key with the binding of another.
type BindsBinding struct {
	Module string
	Method string
	Target Key
}

// Link returns the target's linked binding itself.
func (b *BindsBinding) Link(l *Linker, c *Component) (LinkedBinding, error) {
	return l.Link(b.Target, c)
}

func (b *BindsBinding) String() string {
	return "@Binds " + b.Module + "." + b.Method
}

// BindsOptionalOfBinding satisfies Optional[Key]: present when Key has a
// binding, empty otherwise.
type BindsOptionalOfBinding struct {
	Module string
	Method string
	Key    Key
}

func (b *BindsOptionalOfBinding) Link(l *Linker, c *Component) (LinkedBinding, error) {
	return linkOptional(l, b.Key, c)
}

func (b *BindsOptionalOfBinding) String() string {
	if b.Module == "" {
		return "implicit optional of " + b.Key.String()
	}
	return "@BindsOptionalOf " + b.Module + "." + b.Method
}

func linkOptional(l *Linker, key Key, c *Component) (LinkedBinding, error) {
	delegate, ok, err := l.linkIfBound(key, c)
	if err != nil {
		return nil, err
	}
	if !ok {
		return constant{value: Optional[any]{}}, nil
	}
	return &linkedOptional{delegate: delegate}, nil
}

// ConstructorBinding invokes an injectable constructor. Scoped
// constructors are cached in the scope cache of the component that owns
// the binding.
type ConstructorBinding struct {
	Constructor *ConstructorDescriptor
}

func (b *ConstructorBinding) Link(l *Linker, c *Component) (LinkedBinding, error) {
	ctor := b.Constructor
	deps, err := l.linkAll(ctor.Params, c)
	if err != nil {
		return nil, err
	}
	var linked LinkedBinding = &linkedCall{deps: deps, call: func(args []any) (any, error) {
		return ctor.Invoke(nil, args)
	}}
	if ctor.Scope != "" {
		linked = &scopedBinding{key: ctor.Key(), scope: ctor.Scope, cache: c.cache, delegate: linked, c: c}
	}
	return linked, nil
}

func (b *ConstructorBinding) String() string {
	name := b.Constructor.Name
	if name == "" {
		name = b.Constructor.Key().String()
	}
	if b.Constructor.Scope != "" {
		return "@Inject " + name + " in " + string(b.Constructor.Scope)
	}
	return "@Inject " + name
}

// InstanceBinding returns a value supplied while building the component.
type InstanceBinding struct {
	Origin string
	Value  any
}

func (b *InstanceBinding) Link(*Linker, *Component) (LinkedBinding, error) {
	return constant{value: b.Value}, nil
}

func (b *InstanceBinding) String() string { return "@BindsInstance " + b.Origin }

// DependencyBinding calls a provision method of a dependency component.
type DependencyBinding struct {
	Dependency string
	Method     Method
	Instance   any
}

func (b *DependencyBinding) Link(*Linker, *Component) (LinkedBinding, error) {
	instance, method := b.Instance, b.Method
	return &linkedCall{call: func([]any) (any, error) {
		if proxy, ok := instance.(*Component); ok {
			return proxy.Call(method.Name)
		}
		return method.Invoke(instance, nil)
	}}, nil
}

func (b *DependencyBinding) String() string {
	return "dependency " + b.Dependency + "." + b.Method.Name
}

// ComponentBinding makes a component injectable into its own graph.
type ComponentBinding struct {
	Component *Component
}

func (b *ComponentBinding) Link(*Linker, *Component) (LinkedBinding, error) {
	return constant{value: b.Component}, nil
}

func (b *ComponentBinding) String() string {
	return "component " + b.Component.desc.String()
}

type constant struct{ value any }

func (c constant) Get() (any, error) { return c.value, nil }

type linkedCall struct {
	deps []LinkedBinding
	call func(args []any) (any, error)
}

func (b *linkedCall) Get() (any, error) {
	args := make([]any, len(b.deps))
	for i, dep := range b.deps {
		v, err := dep.Get()
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return b.call(args)
}

type linkedOptional struct {
	delegate LinkedBinding
}

func (b *linkedOptional) Get() (any, error) {
	v, err := b.delegate.Get()
	if err != nil {
		return nil, err
	}
	return Of[any](v), nil
}

type scopedBinding struct {
	key      Key
	scope    Scope
	cache    *ScopeCache
	delegate LinkedBinding
	c        *Component
}

func (b *scopedBinding) Get() (any, error) {
	v, created, err := b.cache.get(b.key, b.delegate.Get)
	if created {
		b.c.log.Debug().
			Str("component", b.c.desc.String()).
			Str("key", b.key.String()).
			Str("scope", string(b.scope)).
			Msg("scoped instance published")
	}
	return v, err
}
