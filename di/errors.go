package di

import (
	"errors"
	"reflect"
	"strconv"
	"strings"
)

var (
	// ErrNilDescriptor is returned when an entry point receives a nil
	// component descriptor.
	ErrNilDescriptor = errors.New("di: nil component descriptor")

	// ErrAlreadyBuilt is returned when a builder or factory is used after it
	// produced its component.
	ErrAlreadyBuilt = errors.New("di: component already built")

	// ErrSubcomponentRoot is returned when a subcomponent is created without
	// its parent.
	ErrSubcomponentRoot = errors.New("di: subcomponents are created through their parent")
)

// IllegalModuleMethodError is returned for a module method that cannot be
// turned into a binding, such as a private method.
type IllegalModuleMethodError struct {
	Module string
	Method string
	Reason string
}

func (e IllegalModuleMethodError) Error() string {
	// Example: di: illegal module method "AppModule.provideFoo": private module methods are not allowed
	return "di: illegal module method " + strconv.Quote(e.Module+"."+e.Method) + ": " + e.Reason
}

// ModuleInstanceRequiredError is returned when a module declares methods
// that need an instance and none was supplied.
type ModuleInstanceRequiredError struct {
	Module string
	Method string
}

func (e ModuleInstanceRequiredError) Error() string {
	// Example: di: module "AppModule" must be set (ProvideFoo needs an instance)
	return "di: module " + strconv.Quote(e.Module) + " must be set (" + e.Method + " needs an instance)"
}

// DependencyInstanceRequiredError is returned when a component is built
// without an instance of one of its dependency components.
type DependencyInstanceRequiredError struct {
	Component  string
	Dependency string
}

func (e DependencyInstanceRequiredError) Error() string {
	return "di: component " + strconv.Quote(e.Component) + " requires an instance of dependency " + strconv.Quote(e.Dependency)
}

// UnimplementedFeatureError marks declarations that are recognized but not
// supported: multibinding contributions and scoped provider methods.
type UnimplementedFeatureError struct {
	Feature string
	Where   string
}

func (e UnimplementedFeatureError) Error() string {
	// Example: di: not implemented: @IntoSet (AppModule.ProvideFoo)
	msg := "di: not implemented: " + e.Feature
	if e.Where != "" {
		msg += " (" + e.Where + ")"
	}
	return msg
}

// DuplicateBindingError is returned when two bindings of the same precedence
// target one key.
type DuplicateBindingError struct {
	Key       Key
	Existing  string
	Duplicate string
}

func (e DuplicateBindingError) Error() string {
	return "di: duplicate binding for " + e.Key.String() + ": " + e.Existing + " and " + e.Duplicate
}

// UnsatisfiedDependencyError is returned when a requested key has no
// binding. Path lists the keys being resolved when the request was made,
// outermost first.
type UnsatisfiedDependencyError struct {
	Key  Key
	Path []Key
}

func (e UnsatisfiedDependencyError) Error() string {
	msg := "di: missing binding for " + e.Key.String()
	if len(e.Path) > 0 {
		msg += " (requested by " + joinKeys(e.Path, " -> ") + ")"
	}
	return msg
}

// DependencyCycleError is returned when resolving a key requires resolving
// it again, or when component dependencies form a loop. Path starts and
// ends with the repeated element.
type DependencyCycleError struct {
	Path []string
}

func (e DependencyCycleError) Error() string {
	return "di: dependency cycle: " + strings.Join(e.Path, " -> ")
}

// MissingScopeError is returned when a scoped binding is requested from a
// component chain where no component owns the scope.
type MissingScopeError struct {
	Key       Key
	Scope     Scope
	Component string
}

func (e MissingScopeError) Error() string {
	return "di: no component in the chain of " + strconv.Quote(e.Component) +
		" owns scope " + strconv.Quote(string(e.Scope)) + " required by " + e.Key.String()
}

// ScopeConflictError is returned when a subcomponent declares a scope that
// one of its ancestors already owns, or when a component dependency
// declares a scope of a component depending on it. Ancestor names the
// component that owns the scope first.
type ScopeConflictError struct {
	Component string
	Ancestor  string
	Scope     Scope
}

func (e ScopeConflictError) Error() string {
	return "di: component " + strconv.Quote(e.Component) + " repeats scope " +
		strconv.Quote(string(e.Scope)) + " of ancestor " + strconv.Quote(e.Ancestor)
}

// UnsupportedComponentMethodError is returned when a component, builder or
// factory method has a shape the proxy cannot serve.
type UnsupportedComponentMethodError struct {
	Component string
	Method    string
	Reason    string
}

func (e UnsupportedComponentMethodError) Error() string {
	msg := "di: unsupported method " + strconv.Quote(e.Component+"."+e.Method)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// ResultTypeError is returned when a resolved value cannot be converted to
// the type the caller asked for.
type ResultTypeError struct {
	Want string
	Got  string
}

func (e ResultTypeError) Error() string {
	return "di: resolved " + e.Got + ", want " + e.Want
}

func typeName[T any]() string { return reflect.TypeFor[T]().String() }

func typeOf(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}

func joinKeys(keys []Key, sep string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.String()
	}
	return strings.Join(parts, sep)
}
