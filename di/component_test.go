package di_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/sghaida/reflectdi/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//
// -----------------------------------------------------------------------------
// Requests
// -----------------------------------------------------------------------------

// TestCreate_ProvidesFoo verifies a zero-argument provider satisfies a request method.
func TestCreate_ProvidesFoo(t *testing.T) {
	t.Parallel()

	desc := component("Shop", request[*Foo]("Foo"))
	desc.Modules = []*di.ModuleDescriptor{module("FooModule", provides("ProvideFoo", func([]any) (*Foo, error) {
		return new(Foo), nil
	}))}

	c, err := di.Create(desc)
	require.NoError(t, err)

	foo, err := di.CallAs[*Foo](c, "Foo")
	require.NoError(t, err)
	assert.NotNil(t, foo)
}

// TestCreate_NilDescriptor verifies entry points reject nil descriptors.
func TestCreate_NilDescriptor(t *testing.T) {
	t.Parallel()

	_, err := di.Create(nil)
	require.ErrorIs(t, err, di.ErrNilDescriptor)

	_, err = di.NewBuilder(nil)
	require.ErrorIs(t, err, di.ErrNilDescriptor)

	_, err = di.NewFactory(nil)
	require.ErrorIs(t, err, di.ErrNilDescriptor)
}

// TestCreate_SubcomponentRoot verifies subcomponents cannot be created on their own.
func TestCreate_SubcomponentRoot(t *testing.T) {
	t.Parallel()

	desc := component("Child")
	desc.Subcomponent = true

	_, err := di.Create(desc)
	require.ErrorIs(t, err, di.ErrSubcomponentRoot)
}

// TestGet_Unsatisfied verifies keys without a binding fail with UnsatisfiedDependencyError.
func TestGet_Unsatisfied(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  di.Key
	}{
		{name: "plain", key: di.KeyFor[*Foo]()},
		{name: "qualified", key: di.QualifiedKeyFor[*Foo]("special")},
		{name: "interface", key: di.KeyFor[Greeter]()},
	}

	c := di.MustCreate(component("Empty"))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := c.Get(tt.key)
			var missing di.UnsatisfiedDependencyError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tt.key, missing.Key)
			assert.Empty(t, missing.Path)
		})
	}
}

// TestGet_UnsatisfiedReportsPath verifies the request path of a transitive miss.
func TestGet_UnsatisfiedReportsPath(t *testing.T) {
	t.Parallel()

	desc := component("Shop")
	desc.Modules = []*di.ModuleDescriptor{module("BarModule", provides("ProvideBar", func(args []any) (*Bar, error) {
		return &Bar{Foo: args[0].(*Foo)}, nil
	}, di.KeyFor[*Foo]()))}

	_, err := di.Resolve[*Bar](di.MustCreate(desc))
	var missing di.UnsatisfiedDependencyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, di.KeyFor[*Foo](), missing.Key)
	assert.Equal(t, []di.Key{di.KeyFor[*Bar]()}, missing.Path)
	assert.Contains(t, err.Error(), "requested by *di_test.Bar")
}

// TestCall_UnknownMethod verifies dispatching an undeclared method fails.
func TestCall_UnknownMethod(t *testing.T) {
	t.Parallel()

	_, err := di.MustCreate(component("Empty")).Call("Nope")
	var unsupported di.UnsupportedComponentMethodError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "Nope", unsupported.Method)
}

// TestCall_UnsupportedShapes verifies methods the proxy cannot serve fail when called.
func TestCall_UnsupportedShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method di.Method
	}{
		{name: "no result", method: di.Method{Name: "Inject", Params: []di.Key{di.KeyFor[*Foo]()}}},
		{name: "private", method: di.Method{Name: "foo", Modifiers: di.Private, Result: typ[*Foo]()}},
		{name: "parameters", method: di.Method{Name: "FooFor", Params: []di.Key{di.KeyFor[string]()}, Result: typ[*Foo]()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c, err := di.Create(component("Shop", tt.method))
			require.NoError(t, err)

			_, err = c.Call(tt.method.Name)
			var unsupported di.UnsupportedComponentMethodError
			require.ErrorAs(t, err, &unsupported)
			assert.Equal(t, "Shop", unsupported.Component)
			assert.Equal(t, tt.method.Name, unsupported.Method)
		})
	}
}

// TestCall_WrongArgumentCount verifies request methods take no arguments.
func TestCall_WrongArgumentCount(t *testing.T) {
	t.Parallel()

	c := di.MustCreate(component("Shop", request[*Foo]("Foo")))
	_, err := c.Call("Foo", 1)
	var unsupported di.UnsupportedComponentMethodError
	require.ErrorAs(t, err, &unsupported)
}

// TestResolve_Qualified verifies qualifiers separate keys of the same type.
func TestResolve_Qualified(t *testing.T) {
	t.Parallel()

	named := provides("ProvideSpecial", func([]any) (*Foo, error) { return &Foo{ID: 42}, nil })
	named.Annotations = append(named.Annotations, di.Named("special"))

	desc := component("Shop", request[*Foo]("Special", di.Named("special")))
	desc.Modules = []*di.ModuleDescriptor{module("FooModule",
		provides("ProvideFoo", func([]any) (*Foo, error) { return &Foo{ID: 1}, nil }),
		named,
	)}
	c := di.MustCreate(desc)

	plain, err := di.Resolve[*Foo](c)
	require.NoError(t, err)
	assert.Equal(t, int64(1), plain.ID)

	special := di.MustCall[*Foo](c, "Special")
	assert.Equal(t, int64(42), special.ID)

	viaKey, err := di.ResolveNamed[*Foo](c, "special")
	require.NoError(t, err)
	assert.Equal(t, special.ID, viaKey.ID)
}

// TestResolve_WrongType verifies conversion failures are reported as ResultTypeError.
func TestResolve_WrongType(t *testing.T) {
	t.Parallel()

	desc := component("Shop")
	desc.Modules = []*di.ModuleDescriptor{module("FooModule", fooProvider(&Counter{}))}

	_, err := di.ResolveKey[*Bar](di.MustCreate(desc), di.KeyFor[*Foo]())
	var wrong di.ResultTypeError
	require.ErrorAs(t, err, &wrong)
	assert.Equal(t, "*di_test.Bar", wrong.Want)
	assert.Equal(t, "*di_test.Foo", wrong.Got)
}

// TestResolve_ComponentSelfBinding verifies a component resolves itself.
func TestResolve_ComponentSelfBinding(t *testing.T) {
	t.Parallel()

	c := di.MustCreate(component("Shop"))
	self, err := di.Resolve[*di.Component](c)
	require.NoError(t, err)
	assert.Same(t, c, self)
}

// TestResolve_ProviderError verifies provider errors reach the caller unchanged.
func TestResolve_ProviderError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	desc := component("Shop", request[*Foo]("Foo"))
	desc.Modules = []*di.ModuleDescriptor{module("FooModule", provides("ProvideFoo", func([]any) (*Foo, error) {
		return nil, boom
	}))}

	_, err := di.MustCreate(desc).Call("Foo")
	require.ErrorIs(t, err, boom)
}

//
// -----------------------------------------------------------------------------
// Binds / optional
// -----------------------------------------------------------------------------

// TestBinds_AliasesTarget verifies a binds method resolves through its target.
func TestBinds_AliasesTarget(t *testing.T) {
	t.Parallel()

	desc := component("Shop", request[Greeter]("Greeter"))
	desc.Modules = []*di.ModuleDescriptor{module("GreeterModule",
		provides("ProvideEnglish", func([]any) (english, error) { return english{}, nil }),
		binds[Greeter, english]("BindGreeter"),
	)}

	g := di.MustCall[Greeter](di.MustCreate(desc), "Greeter")
	assert.Equal(t, "hello", g.Greet())
}

// TestOptional_Implicit verifies undeclared Optional requests resolve by availability.
func TestOptional_Implicit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modules []*di.ModuleDescriptor
		present bool
	}{
		{name: "unbound resolves empty", present: false},
		{name: "bound resolves present", modules: []*di.ModuleDescriptor{module("FooModule", fooProvider(&Counter{}))}, present: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			desc := component("Shop", request[di.Optional[*Foo]]("MaybeFoo"))
			desc.Modules = tt.modules

			opt, err := di.CallAs[di.Optional[*Foo]](di.MustCreate(desc), "MaybeFoo")
			require.NoError(t, err)
			assert.Equal(t, tt.present, opt.Present())
			if tt.present {
				foo, _ := opt.Get()
				assert.Equal(t, int64(1), foo.ID)
			}
		})
	}
}

// TestOptional_Declared verifies BindsOptionalOf declarations.
func TestOptional_Declared(t *testing.T) {
	t.Parallel()

	desc := component("Shop", request[di.Optional[*Foo]]("MaybeFoo"), request[di.Optional[*Bar]]("MaybeBar"))
	desc.Modules = []*di.ModuleDescriptor{module("OptionalModule",
		bindsOptionalOf[*Foo]("BindOptionalFoo"),
		bindsOptionalOf[*Bar]("BindOptionalBar"),
		fooProvider(&Counter{}),
	)}
	c := di.MustCreate(desc)

	// Foo, both optionals and the component itself.
	assert.Equal(t, 4, c.Bindings().Len())

	foo := di.MustCall[di.Optional[*Foo]](c, "MaybeFoo")
	assert.True(t, foo.Present())

	bar := di.MustCall[di.Optional[*Bar]](c, "MaybeBar")
	assert.False(t, bar.Present())
	assert.Nil(t, bar.OrElse(nil))
}

// TestOptional_AsProviderParameter verifies providers receive erased optionals.
func TestOptional_AsProviderParameter(t *testing.T) {
	t.Parallel()

	desc := component("Shop", request[*Bar]("Bar"))
	desc.Modules = []*di.ModuleDescriptor{module("BarModule", provides("ProvideBar", func(args []any) (*Bar, error) {
		opt := args[0].(di.Optional[any])
		if v, ok := opt.Get(); ok {
			return &Bar{Foo: v.(*Foo)}, nil
		}
		return &Bar{}, nil
	}, di.KeyFor[*Foo]().Optional()))}

	bar := di.MustCall[*Bar](di.MustCreate(desc), "Bar")
	assert.Nil(t, bar.Foo)
}

//
// -----------------------------------------------------------------------------
// Cycles
// -----------------------------------------------------------------------------

// TestLink_Cycle verifies A -> B -> A is reported as a DependencyCycleError.
func TestLink_Cycle(t *testing.T) {
	t.Parallel()

	desc := component("Shop", request[*Foo]("Foo"))
	desc.Modules = []*di.ModuleDescriptor{module("CycleModule",
		provides("ProvideFoo", func([]any) (*Foo, error) { return &Foo{}, nil }, di.KeyFor[*Bar]()),
		provides("ProvideBar", func([]any) (*Bar, error) { return &Bar{}, nil }, di.KeyFor[*Foo]()),
	)}

	_, err := di.MustCreate(desc).Call("Foo")
	var cycle di.DependencyCycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []string{"*di_test.Foo", "*di_test.Bar", "*di_test.Foo"}, cycle.Path)
}

// TestLink_SelfCycleThroughBinds verifies a binds alias to itself is a cycle.
func TestLink_SelfCycleThroughBinds(t *testing.T) {
	t.Parallel()

	desc := component("Shop")
	desc.Modules = []*di.ModuleDescriptor{module("SelfModule", binds[Greeter, Greeter]("BindSelf"))}

	_, err := di.Resolve[Greeter](di.MustCreate(desc))
	var cycle di.DependencyCycleError
	require.ErrorAs(t, err, &cycle)
	assert.Len(t, cycle.Path, 2)
}

//
// -----------------------------------------------------------------------------
// Scopes
// -----------------------------------------------------------------------------

// TestScope_ScopedIsMemoized verifies scoped keys resolve to one instance per owning cache.
func TestScope_ScopedIsMemoized(t *testing.T) {
	t.Parallel()

	counter := &Counter{}
	desc := component("Shop", request[*Foo]("Foo"))
	desc.Scopes = []di.Scope{di.Singleton}
	desc.Injectables = di.NewMapRegistry().Provide(fooConstructor(counter, di.Singleton))
	c := di.MustCreate(desc)

	first := di.MustCall[*Foo](c, "Foo")
	second := di.MustCall[*Foo](c, "Foo")
	assert.Same(t, first, second)
	assert.Equal(t, int64(1), counter.n.Load())
	assert.Equal(t, 1, c.Cache().Len())

	other := di.MustCall[*Foo](di.MustCreate(desc), "Foo")
	assert.NotSame(t, first, other)
}

// TestScope_UnscopedIsFresh verifies unscoped keys are constructed per request.
func TestScope_UnscopedIsFresh(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		desc func(*Counter) *di.ComponentDescriptor
	}{
		{name: "provider", desc: func(counter *Counter) *di.ComponentDescriptor {
			d := component("Shop")
			d.Scopes = []di.Scope{di.Singleton}
			d.Modules = []*di.ModuleDescriptor{module("FooModule", fooProvider(counter))}
			return d
		}},
		{name: "constructor", desc: func(counter *Counter) *di.ComponentDescriptor {
			d := component("Shop")
			d.Injectables = di.NewMapRegistry().Provide(fooConstructor(counter, ""))
			return d
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			counter := &Counter{}
			c := di.MustCreate(tt.desc(counter))

			first, err := di.Resolve[*Foo](c)
			require.NoError(t, err)
			second, err := di.Resolve[*Foo](c)
			require.NoError(t, err)

			assert.NotSame(t, first, second)
			assert.Equal(t, int64(2), counter.n.Load())
		})
	}
}

// TestScope_ConcurrentAtMostOnce verifies concurrent requests construct a scoped key once.
func TestScope_ConcurrentAtMostOnce(t *testing.T) {
	t.Parallel()

	counter := &Counter{}
	desc := component("Shop")
	desc.Scopes = []di.Scope{di.Singleton}
	desc.Injectables = di.NewMapRegistry().Provide(fooConstructor(counter, di.Singleton))
	c := di.MustCreate(desc)

	const workers = 64
	results := make([]*Foo, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = di.Resolve[*Foo](c)
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, int64(1), counter.n.Load())
}

// TestScope_MissingScope verifies a scoped constructor without an owning component fails.
func TestScope_MissingScope(t *testing.T) {
	t.Parallel()

	desc := component("Shop", request[*Foo]("Foo"))
	desc.Injectables = di.NewMapRegistry().Provide(fooConstructor(&Counter{}, "Activity"))

	_, err := di.MustCreate(desc).Call("Foo")
	var missing di.MissingScopeError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, di.Scope("Activity"), missing.Scope)
	assert.Equal(t, di.KeyFor[*Foo](), missing.Key)
}

// TestScope_StackedScopesWithDependency verifies a dependency component's scoped constructor is
// not satisfied by the scopes of the component depending on it.
func TestScope_StackedScopesWithDependency(t *testing.T) {
	t.Parallel()

	pantry := &di.ComponentDescriptor{
		Name:        "Pantry",
		Type:        typ[Pantry](),
		Methods:     []di.Method{request[*Foo]("Foo")},
		Injectables: di.NewMapRegistry().Provide(fooConstructor(&Counter{}, "Session")),
	}

	shop := component("Shop", request[*Foo]("Foo"))
	shop.Scopes = []di.Scope{di.Singleton, "Session"}
	shop.Dependencies = []*di.ComponentDescriptor{pantry}
	shop.Builder = &di.ContractDescriptor{
		Kind: di.BuilderContract,
		Type: typ[ShopBuilder](),
		Methods: []di.Method{
			{Name: "Pantry", Params: []di.Key{di.KeyFor[Pantry]()}, Result: typ[ShopBuilder]()},
			{Name: "Build", Result: typ[Shop]()},
		},
	}

	b := di.MustBuilder(shop)
	_, err := b.Call("Pantry", di.MustCreate(pantry))
	require.NoError(t, err)
	c, err := b.Build()
	require.NoError(t, err)

	_, err = c.Call("Foo")
	var missing di.MissingScopeError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, di.Scope("Session"), missing.Scope)
	assert.Equal(t, "Pantry", missing.Component)
}

// TestScope_FailureIsNotMemoized verifies a failing scoped constructor is retried.
func TestScope_FailureIsNotMemoized(t *testing.T) {
	t.Parallel()

	var calls int
	ctor := &di.ConstructorDescriptor{
		Type:  typ[*Foo](),
		Scope: di.Singleton,
		Invoke: func(any, []any) (any, error) {
			calls++
			if calls == 1 {
				return nil, errors.New("first call fails")
			}
			return &Foo{ID: int64(calls)}, nil
		},
	}
	desc := component("Shop")
	desc.Scopes = []di.Scope{di.Singleton}
	desc.Injectables = di.NewMapRegistry().Provide(ctor)
	c := di.MustCreate(desc)

	_, err := di.Resolve[*Foo](c)
	require.Error(t, err)

	foo, err := di.Resolve[*Foo](c)
	require.NoError(t, err)
	assert.Equal(t, int64(2), foo.ID)

	again, err := di.Resolve[*Foo](c)
	require.NoError(t, err)
	assert.Same(t, foo, again)
}
