// Package reflective builds di descriptors from Go types with reflection.
//
// Components, builders and factories are interfaces. Modules are structs:
//
//	type DripModule struct {
//		Binder
//	}
//
//	type Binder interface {
//		BindPump(p *Thermosiphon) Pump
//		BindOptionalMilk() *Milk
//	}
//
//	func (DripModule) ProvideHeater() Heater { return &ElectricHeater{} }
//
// Provider methods follow the Provide* naming convention, binds and
// optional declarations live in embedded interfaces, and everything else
// is expressed with options:
//
//	desc, err := reflective.Component[CoffeeShop](
//		reflective.Modules(reflective.MustModule(DripModule{})),
//		reflective.Scoped(di.Singleton),
//		reflective.Injectables(reflective.Registry(
//			reflective.MustConstructor(NewCoffeeMaker, reflective.Scoped(di.Singleton)),
//		)),
//	)
package reflective
