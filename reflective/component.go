package reflective

import (
	"reflect"

	"github.com/sghaida/reflectdi/di"
)

// Component describes the component interface C.
//
// Every method of C becomes a dispatch entry: zero-parameter methods request
// their result type, methods returning a declared subcomponent create it,
// and methods returning a subcomponent's builder or factory return one.
func Component[C any](opts ...Option) (*di.ComponentDescriptor, error) {
	return describeComponent(reflect.TypeFor[C](), false, newSettings(opts))
}

// Subcomponent is like Component for subcomponents, which are only created
// through their parent.
func Subcomponent[C any](opts ...Option) (*di.ComponentDescriptor, error) {
	return describeComponent(reflect.TypeFor[C](), true, newSettings(opts))
}

// MustComponent is like Component but panics on error.
func MustComponent[C any](opts ...Option) *di.ComponentDescriptor {
	d, err := Component[C](opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// MustSubcomponent is like Subcomponent but panics on error.
func MustSubcomponent[C any](opts ...Option) *di.ComponentDescriptor {
	d, err := Subcomponent[C](opts...)
	if err != nil {
		panic(err)
	}
	return d
}

func describeComponent(t reflect.Type, sub bool, s *settings) (*di.ComponentDescriptor, error) {
	if t.Kind() != reflect.Interface {
		return nil, DeclarationError{Type: t.String(), Reason: "components must be interfaces"}
	}
	desc := &di.ComponentDescriptor{
		Name:          s.name,
		Type:          t,
		Scopes:        s.scopes,
		Modules:       s.modules,
		Dependencies:  s.dependencies,
		Subcomponents: s.subcomponents,
		Injectables:   s.injectables,
		Methods:       interfaceMethods(t, s),
		Subcomponent:  sub,
	}
	if desc.Name == "" {
		desc.Name = t.Name()
	}

	if s.builder != nil {
		b, err := contract(di.BuilderContract, s.builder, s)
		if err != nil {
			return nil, err
		}
		desc.Builder = b
	}
	if s.factory != nil {
		f, err := contract(di.FactoryContract, s.factory, s)
		if err != nil {
			return nil, err
		}
		desc.Factory = f
	}
	return desc, nil
}

func contract(kind di.ContractKind, t reflect.Type, s *settings) (*di.ContractDescriptor, error) {
	if t.Kind() != reflect.Interface {
		return nil, DeclarationError{Type: t.String(), Reason: kind.String() + "s must be interfaces"}
	}
	return &di.ContractDescriptor{Kind: kind, Type: t, Methods: interfaceMethods(t, s)}, nil
}

// interfaceMethods describes the methods of interface t. Methods whose
// signature cannot be served keep a nil result, so dispatching them fails.
func interfaceMethods(t reflect.Type, s *settings) []di.Method {
	methods := make([]di.Method, 0, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		params, result, errs, ok := signature(m.Type, 0)
		if !ok {
			result = nil
		}
		method := di.Method{
			Name:        m.Name,
			Annotations: s.annotationsOf(m.Name),
			Params:      paramKeys(params, s.paramQualifiers[m.Name]),
			Result:      result,
			Errors:      errs,
			Invoke:      methodInvoker(m.Name, nil, params, errs),
		}
		if !m.IsExported() {
			method.Modifiers |= di.Private
		}
		methods = append(methods, method)
	}
	return methods
}
