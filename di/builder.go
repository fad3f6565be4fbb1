package di

import "sync"

// assembly collects what a component needs before it can be built: module
// instances, dependency instances and bound instances.
type assembly struct {
	desc   *ComponentDescriptor
	parent *Component
	cfg    *config

	modules   map[*ModuleDescriptor]any
	deps      map[*ComponentDescriptor]any
	instances map[Key]*InstanceBinding
	order     []Key
}

func newAssembly(desc *ComponentDescriptor, parent *Component, cfg *config) *assembly {
	return &assembly{
		desc:      desc,
		parent:    parent,
		cfg:       cfg,
		modules:   make(map[*ModuleDescriptor]any),
		deps:      make(map[*ComponentDescriptor]any),
		instances: make(map[Key]*InstanceBinding),
	}
}

func (a *assembly) bindInstance(key Key, origin string, v any) {
	if _, ok := a.instances[key]; !ok {
		a.order = append(a.order, key)
	}
	a.instances[key] = &InstanceBinding{Origin: origin, Value: v}
}

func (a *assembly) build() (*Component, error) {
	if err := validateGraph(a.desc, a.parent); err != nil {
		return nil, err
	}

	cache := NewRootCache()
	if a.parent != nil {
		cache = a.parent.cache
	}
	c := &Component{
		desc:   a.desc,
		parent: a.parent,
		cache:  cache.Child(a.desc.Scopes...),
		cfg:    a.cfg,
		log:    a.cfg.log,
	}

	b := NewBindingMapBuilder()
	if err := b.Add(KeyFor[*Component](), &ComponentBinding{Component: c}); err != nil {
		return nil, err
	}
	for _, key := range a.order {
		if err := b.Add(key, a.instances[key]); err != nil {
			return nil, err
		}
	}
	for _, m := range a.desc.Modules {
		instance, ok := a.modules[m]
		if !ok || isNil(instance) {
			instance = m.Instance
		}
		if err := ParseModule(m, instance, b); err != nil {
			return nil, err
		}
	}
	for _, dep := range a.desc.Dependencies {
		if err := a.addDependency(b, dep); err != nil {
			return nil, err
		}
	}

	c.bindings = b.Build()
	c.dispatch = parseComponent(a.desc)

	c.log.Debug().
		Str("component", a.desc.String()).
		Int("bindings", c.bindings.Len()).
		Strs("scopes", scopeNames(a.desc.Scopes)).
		Msg("component built")
	return c, nil
}

// addDependency binds every provision method of dep: exported methods with
// no parameters and a result.
func (a *assembly) addDependency(b *BindingMapBuilder, dep *ComponentDescriptor) error {
	instance := a.deps[dep]
	if instance == nil {
		return DependencyInstanceRequiredError{Component: a.desc.String(), Dependency: dep.String()}
	}
	_, isProxy := instance.(*Component)
	for _, m := range dep.Methods {
		if m.Modifiers.Has(Private) || m.Result == nil || len(m.Params) != 0 {
			continue
		}
		if !isProxy && m.Invoke == nil {
			return UnsupportedComponentMethodError{Component: dep.String(), Method: m.Name, Reason: "dependency method has no invoker"}
		}
		key := KeyOf(findQualifier(m.Annotations), m.Result)
		binding := &DependencyBinding{Dependency: dep.String(), Method: m, Instance: instance}
		if err := b.AddDependency(key, binding); err != nil {
			return err
		}
	}
	return nil
}

func scopeNames(scopes []Scope) []string {
	out := make([]string, len(scopes))
	for i, s := range scopes {
		out[i] = string(s)
	}
	return out
}

// supplier stores one argument of a builder setter or factory method.
type supplier func(a *assembly, v any)

// classifyParam finds what a builder or factory parameter supplies: a
// module instance, a dependency instance or, for methods annotated with
// BindsInstance, an instance bound to the parameter's key.
func classifyParam(desc *ComponentDescriptor, m Method, p Key) (supplier, bool) {
	if !p.IsOptional() {
		if mod := findModule(desc, p.Type()); mod != nil {
			return func(a *assembly, v any) { a.modules[mod] = v }, true
		}
		if dep := findDependency(desc, p.Type()); dep != nil {
			return func(a *assembly, v any) { a.deps[dep] = v }, true
		}
	}
	if hasAnnotation(m.Annotations, AnnotationBindsInstance) {
		origin := desc.String() + "." + m.Name
		return func(a *assembly, v any) { a.bindInstance(p, origin, v) }, true
	}
	return nil, false
}

type builderMethod struct {
	terminal bool
	set      supplier
	err      error
}

// Builder accumulates module and dependency instances for a component and
// creates it on its terminal method. A Builder produces one component.
type Builder struct {
	mu      sync.Mutex
	a       *assembly
	methods map[string]builderMethod
	built   bool
}

func newBuilder(desc *ComponentDescriptor, parent *Component, cfg *config) (*Builder, error) {
	if desc.Builder == nil {
		return nil, UnsupportedComponentMethodError{Component: desc.String(), Method: "Builder", Reason: "no builder declared"}
	}
	b := &Builder{
		a:       newAssembly(desc, parent, cfg),
		methods: make(map[string]builderMethod, len(desc.Builder.Methods)),
	}
	for _, m := range desc.Builder.Methods {
		b.methods[m.Name] = classifyBuilderMethod(desc, m)
	}
	return b, nil
}

func classifyBuilderMethod(desc *ComponentDescriptor, m Method) builderMethod {
	unsupported := func(reason string) builderMethod {
		return builderMethod{err: UnsupportedComponentMethodError{Component: desc.String() + ".Builder", Method: m.Name, Reason: reason}}
	}
	switch {
	case m.Modifiers.Has(Private):
		return unsupported("private methods cannot be dispatched")
	case len(m.Params) == 0 && m.Result == desc.Type:
		return builderMethod{terminal: true}
	case len(m.Params) == 1 && (m.Result == nil || m.Result == desc.Builder.Type):
		set, ok := classifyParam(desc, m, m.Params[0])
		if !ok {
			return unsupported(m.Params[0].String() + " is neither a module nor a dependency, and the method is not @BindsInstance")
		}
		return builderMethod{set: set}
	default:
		return unsupported("builder methods are setters with one parameter or a terminal method returning the component")
	}
}

// Call dispatches a builder method. Setters return the builder, the
// terminal method returns the component.
func (b *Builder) Call(method string, args ...any) (any, error) {
	bm, ok := b.methods[method]
	if !ok {
		return nil, UnsupportedComponentMethodError{Component: b.a.desc.String() + ".Builder", Method: method, Reason: "no such method"}
	}
	if bm.err != nil {
		return nil, bm.err
	}
	if bm.terminal {
		if len(args) != 0 {
			return nil, expectArgs(b.a.desc, Method{Name: method}, args, 0)
		}
		return b.Build()
	}
	if len(args) != 1 {
		return nil, expectArgs(b.a.desc, Method{Name: method}, args, 1)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		return nil, ErrAlreadyBuilt
	}
	bm.set(b.a, args[0])
	return b, nil
}

// Build creates the component from the instances supplied so far.
func (b *Builder) Build() (*Component, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.built {
		return nil, ErrAlreadyBuilt
	}
	c, err := b.a.build()
	if err != nil {
		return nil, err
	}
	b.built = true
	return c, nil
}

// Factory creates a component from the arguments of its single method.
// Every call creates a new component.
type Factory struct {
	desc     *ComponentDescriptor
	parent   *Component
	cfg      *config
	method   Method
	supplies []supplier
	err      error
}

func newFactory(desc *ComponentDescriptor, parent *Component, cfg *config) (*Factory, error) {
	if desc.Factory == nil {
		return nil, UnsupportedComponentMethodError{Component: desc.String(), Method: "Factory", Reason: "no factory declared"}
	}
	f := &Factory{desc: desc, parent: parent, cfg: cfg}
	var creators []Method
	for _, m := range desc.Factory.Methods {
		if !m.Modifiers.Has(Private) && m.Result == desc.Type {
			creators = append(creators, m)
		}
	}
	if len(creators) != 1 {
		return nil, UnsupportedComponentMethodError{
			Component: desc.String(),
			Method:    "Factory",
			Reason:    "a factory declares exactly one method returning the component",
		}
	}
	f.method = creators[0]
	f.supplies = make([]supplier, len(f.method.Params))
	for i, p := range f.method.Params {
		set, ok := classifyParam(desc, f.method, p)
		if !ok {
			f.err = UnsupportedComponentMethodError{
				Component: desc.String() + ".Factory",
				Method:    f.method.Name,
				Reason:    p.String() + " is neither a module nor a dependency, and the method is not @BindsInstance",
			}
			break
		}
		f.supplies[i] = set
	}
	return f, nil
}

// Method returns the name of the factory's creating method.
func (f *Factory) Method() string { return f.method.Name }

// Call dispatches the factory method.
func (f *Factory) Call(method string, args ...any) (any, error) {
	if method != f.method.Name {
		return nil, UnsupportedComponentMethodError{Component: f.desc.String() + ".Factory", Method: method, Reason: "no such method"}
	}
	return f.Create(args...)
}

// Create builds a new component with args in the factory method's
// parameter order.
func (f *Factory) Create(args ...any) (*Component, error) {
	if f.err != nil {
		return nil, f.err
	}
	if err := expectArgs(f.desc, f.method, args, len(f.supplies)); err != nil {
		return nil, err
	}
	a := newAssembly(f.desc, f.parent, f.cfg)
	for i, set := range f.supplies {
		set(a, args[i])
	}
	return a.build()
}
