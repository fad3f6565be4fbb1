// Command digen generates the compile-time shim of reflectdi components.
//
// The shim is boilerplate: typed wrappers that implement a component's
// interface, its builder and its factory by forwarding every call to the
// dispatch tables of the di runtime, plus one entry point per contract:
//
//	func CreateCoffeeShop(opts ...di.Option) CoffeeShop
//	func NewCoffeeShopBuilder(opts ...di.Option) CoffeeShopBuilder
//	func NewCoffeeShopFactory(opts ...di.Option) CoffeeShopFactory
//
// Nothing about the graph is generated. Linking happens in the runtime
// when a method is called; a failed resolution panics with the runtime's
// typed error.
//
// Manifest format (digen.yaml)
//
//	package: coffee                 # optional, defaults to the source package
//	di: github.com/sghaida/reflectdi/di  # optional, inferred from imports
//	dir: .                          # source package, relative to the manifest
//	components:
//	  - interface: CoffeeShop
//	    descriptor: coffeeShopDescriptor  # func() *di.ComponentDescriptor
//	    builder: CoffeeShopBuilder
//	    create: true                # default: only without builder/factory
//	    subcomponents:
//	      - interface: Order
//	        factory: OrderFactory
//
// Every interface named by the manifest is read from the package sources
// with go/parser. Methods of embedded interfaces declared in the same
// package are included; variadic and unexported methods are rejected.
// Results naming another interface of the manifest are wrapped, so
// subcomponents and builders stay typed.
//
// Usage
//
//	//go:generate go run github.com/sghaida/reflectdi/cmd/digen -manifest digen.yaml
//
// Flags:
//
//	-manifest   path to the manifest (required)
//	-out        output file (default <dir>/<package>_digen.go)
//	-log-level  debug, info, warn or error (default info)
//	-log-format console or json (default console)
//
// Output is gofmt'ed, written atomically, and carries the sha256 of the
// manifest in its header. Interfaces, methods and entry points are sorted,
// so regenerating an unchanged manifest yields identical bytes.
package main
