// Package di is a runtime dependency resolver for component graphs.
//
// A component is described by a ComponentDescriptor: the modules that
// contribute bindings, the components it depends on, the scopes it owns and
// the methods it exposes. Descriptors are produced by a front end (see
// package reflective, or a generated shim) and the resolver never inspects
// Go types on its own beyond comparing them.
//
// Resolution works in two phases:
//
//   - linking: a requested Key is mapped to an UnlinkedBinding (provider
//     method, binds alias, optional binding, just-in-time constructor,
//     builder instance or dependency method) and its dependencies are linked
//     recursively. Cycles and missing bindings are reported here.
//   - getting: the LinkedBinding produces the value. Scoped values are
//     memoized in the ScopeCache of the component owning the scope.
//
// Quick guidance
//
//	c, err := di.Create(desc)
//	heater, err := di.Resolve[*Heater](c)
//	pump := di.MustCall[Pump](c, "Pump")
//
// Errors are value types matched with errors.As:
//
//	var missing di.UnsatisfiedDependencyError
//	if errors.As(err, &missing) { ... }
//
// Import
//
//	"github.com/sghaida/reflectdi/di"
package di
