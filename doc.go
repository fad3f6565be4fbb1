// Package reflectdi resolves component-based dependency graphs at runtime.
//
// Components are interfaces describing what can be obtained, modules are
// structs describing how to construct things, and the resolver links
// requests to bindings lazily, enforcing scopes as it goes. No injector
// code is generated; the only generated code is a pass-through shim.
//
// Packages:
//   - di: the resolution engine (keys, bindings, linker, scope caches,
//     component/builder/factory proxies, typed errors)
//   - reflective: derives di descriptors from Go types with reflection
//   - cmd/digen: generates typed shims forwarding into di
//   - examples/coffee: a runnable end-to-end example
//
// Start with examples/coffee for the wiring style.
package reflectdi
