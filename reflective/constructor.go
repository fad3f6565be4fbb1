package reflective

import (
	"reflect"
	"runtime"
	"strings"

	"github.com/sghaida/reflectdi/di"
)

// Constructor describes fn as an injectable constructor. fn must be a
// function returning (T) or (T, error); its parameters are the
// constructor's dependencies.
//
// Use Scoped with a single scope to scope the constructor, Qualify with an
// empty method name to qualify its result and QualifyParam with an empty
// method name to qualify its parameters.
func Constructor(fn any, opts ...Option) (*di.ConstructorDescriptor, error) {
	if fn == nil {
		return nil, DeclarationError{Type: "<nil>", Reason: "constructor is nil"}
	}
	fv := reflect.ValueOf(fn)
	ft := fv.Type()
	if ft.Kind() != reflect.Func {
		return nil, DeclarationError{Type: ft.String(), Reason: "constructors must be functions"}
	}
	params, result, errs, ok := signature(ft, 0)
	if !ok || result == nil {
		return nil, DeclarationError{Type: ft.String(), Reason: "constructors return (T) or (T, error)"}
	}

	s := newSettings(opts)
	if len(s.scopes) > 1 {
		return nil, DeclarationError{Type: ft.String(), Reason: "constructors have at most one scope"}
	}

	name := s.name
	if name == "" {
		name = funcName(fv)
	}
	ctor := &di.ConstructorDescriptor{
		Name:   name,
		Type:   result,
		Params: paramKeys(params, s.paramQualifiers[""]),
		Invoke: funcInvoker(name, fv, params, errs),
	}
	for _, a := range s.annotationsOf("") {
		switch a.Kind {
		case di.AnnotationQualifier:
			ctor.Qualifier = a.Name
		case di.AnnotationScope:
			ctor.Scope = di.Scope(a.Name)
		}
	}
	if len(s.scopes) == 1 {
		ctor.Scope = s.scopes[0]
	}
	return ctor, nil
}

// MustConstructor is like Constructor but panics on error.
func MustConstructor(fn any, opts ...Option) *di.ConstructorDescriptor {
	c, err := Constructor(fn, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Registry returns a registry serving ctors.
func Registry(ctors ...*di.ConstructorDescriptor) *di.MapRegistry {
	r := di.NewMapRegistry()
	for _, c := range ctors {
		r.Provide(c)
	}
	return r
}

func funcName(fv reflect.Value) string {
	f := runtime.FuncForPC(fv.Pointer())
	if f == nil {
		return fv.Type().String()
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
