package reflective

import (
	"reflect"

	"github.com/sghaida/reflectdi/di"
)

// Option adjusts a descriptor built by Component, Subcomponent, Module,
// ModuleType or Constructor. Options that do not apply to the kind of
// descriptor being built are ignored.
type Option func(*settings)

type settings struct {
	name          string
	modules       []*di.ModuleDescriptor
	dependencies  []*di.ComponentDescriptor
	subcomponents []*di.ComponentDescriptor
	scopes        []di.Scope
	injectables   di.Registry
	builder       reflect.Type
	factory       reflect.Type

	annotations     map[string][]di.Annotation
	paramQualifiers map[string]map[int]string
	bindInstance    map[string]bool
}

func newSettings(opts []Option) *settings {
	s := &settings{
		annotations:     make(map[string][]di.Annotation),
		paramQualifiers: make(map[string]map[int]string),
		bindInstance:    make(map[string]bool),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *settings) annotationsOf(method string) []di.Annotation {
	out := append([]di.Annotation(nil), s.annotations[method]...)
	if s.bindInstance[method] {
		out = append(out, di.BindsInstanceAnnotation())
	}
	return out
}

// DisplayName overrides the name used in diagnostics.
func DisplayName(name string) Option {
	return func(s *settings) { s.name = name }
}

// Modules installs modules in a component.
func Modules(modules ...*di.ModuleDescriptor) Option {
	return func(s *settings) { s.modules = append(s.modules, modules...) }
}

// Dependencies declares the components a component depends on.
func Dependencies(deps ...*di.ComponentDescriptor) Option {
	return func(s *settings) { s.dependencies = append(s.dependencies, deps...) }
}

// Subcomponents declares the subcomponents a component can create.
func Subcomponents(subs ...*di.ComponentDescriptor) Option {
	return func(s *settings) { s.subcomponents = append(s.subcomponents, subs...) }
}

// Scoped sets the scopes a component owns, or the scope of a constructor.
func Scoped(scopes ...di.Scope) Option {
	return func(s *settings) { s.scopes = append(s.scopes, scopes...) }
}

// Injectables sets the registry of just-in-time constructors.
func Injectables(reg di.Registry) Option {
	return func(s *settings) { s.injectables = reg }
}

// WithBuilder declares B as the component's builder interface.
func WithBuilder[B any]() Option {
	return func(s *settings) { s.builder = reflect.TypeFor[B]() }
}

// WithFactory declares F as the component's factory interface.
func WithFactory[F any]() Option {
	return func(s *settings) { s.factory = reflect.TypeFor[F]() }
}

// Annotate attaches annotations to the named method. An empty method names
// the constructor itself.
func Annotate(method string, annotations ...di.Annotation) Option {
	return func(s *settings) { s.annotations[method] = append(s.annotations[method], annotations...) }
}

// Qualify qualifies the result of the named method.
func Qualify(method, qualifier string) Option {
	return Annotate(method, di.Named(qualifier))
}

// QualifyParam qualifies parameter index of the named method.
func QualifyParam(method string, index int, qualifier string) Option {
	return func(s *settings) {
		q, ok := s.paramQualifiers[method]
		if !ok {
			q = make(map[int]string)
			s.paramQualifiers[method] = q
		}
		q[index] = qualifier
	}
}

// BindInstance marks a builder or factory method whose parameters are bound
// as instances in the created component.
func BindInstance(method string) Option {
	return func(s *settings) { s.bindInstance[method] = true }
}
