package di_test

import (
	"reflect"
	"sync/atomic"

	"github.com/sghaida/reflectdi/di"
)

type Foo struct{ ID int64 }

type Bar struct{ Foo *Foo }

type Greeter interface{ Greet() string }

type english struct{}

func (english) Greet() string { return "hello" }

// Shop stands in for a component contract type.
type Shop interface{ Foo() *Foo }

type ShopBuilder interface{}

type ShopFactory interface{}

type ShopModule struct{ Prefix string }

type Pantry interface{ Foo() *Foo }

type Counter struct{ n atomic.Int64 }

func (c *Counter) next() int64 { return c.n.Add(1) }

func typ[T any]() reflect.Type { return reflect.TypeFor[T]() }

// provides declares a static provider method returning T.
func provides[T any](name string, fn func(args []any) (T, error), params ...di.Key) di.Method {
	return di.Method{
		Name:        name,
		Modifiers:   di.Static,
		Annotations: []di.Annotation{di.ProvidesAnnotation()},
		Params:      params,
		Result:      typ[T](),
		Invoke: func(_ any, args []any) (any, error) {
			return fn(args)
		},
	}
}

func binds[To, From any](name string) di.Method {
	return di.Method{
		Name:        name,
		Modifiers:   di.Abstract,
		Annotations: []di.Annotation{di.BindsAnnotation()},
		Params:      []di.Key{di.KeyFor[From]()},
		Result:      typ[To](),
	}
}

func bindsOptionalOf[T any](name string) di.Method {
	return di.Method{
		Name:        name,
		Modifiers:   di.Abstract,
		Annotations: []di.Annotation{di.BindsOptionalOfAnnotation()},
		Result:      typ[T](),
	}
}

func request[T any](name string, annotations ...di.Annotation) di.Method {
	return di.Method{Name: name, Annotations: annotations, Result: typ[T]()}
}

func module(name string, methods ...di.Method) *di.ModuleDescriptor {
	return &di.ModuleDescriptor{
		Name:      name,
		Hierarchy: []di.DeclaredType{{Methods: methods}},
	}
}

func component(name string, methods ...di.Method) *di.ComponentDescriptor {
	return &di.ComponentDescriptor{Name: name, Type: typ[Shop](), Methods: methods}
}

func fooProvider(counter *Counter) di.Method {
	return provides("ProvideFoo", func([]any) (*Foo, error) {
		return &Foo{ID: counter.next()}, nil
	})
}

func fooConstructor(counter *Counter, scope di.Scope) *di.ConstructorDescriptor {
	return &di.ConstructorDescriptor{
		Name:  "NewFoo",
		Type:  typ[*Foo](),
		Scope: scope,
		Invoke: func(_ any, _ []any) (any, error) {
			return &Foo{ID: counter.next()}, nil
		},
	}
}
