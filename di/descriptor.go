package di

import (
	"reflect"
	"strings"
)

// Modifiers describes how a method was declared by the front end that
// produced its descriptor.
type Modifiers uint8

const (
	// Private methods are not visible outside their declaring type.
	Private Modifiers = 1 << iota
	// Abstract methods have no body; they only declare a binding.
	Abstract
	// Static methods can be invoked without a module instance.
	Static
)

// Has reports whether all bits of m2 are set in m.
func (m Modifiers) Has(m2 Modifiers) bool { return m&m2 == m2 }

func (m Modifiers) String() string {
	var parts []string
	if m.Has(Private) {
		parts = append(parts, "private")
	}
	if m.Has(Abstract) {
		parts = append(parts, "abstract")
	}
	if m.Has(Static) {
		parts = append(parts, "static")
	}
	return strings.Join(parts, " ")
}

// AnnotationKind identifies a declaration marker attached to a method,
// parameter or type.
type AnnotationKind uint8

// Annotation kinds. The zero value is not a valid kind. The multibinding
// kinds IntoSet, ElementsIntoSet and IntoMap are recognized but not
// implemented.
const (
	AnnotationProvides AnnotationKind = iota + 1
	AnnotationBinds
	AnnotationBindsOptionalOf
	AnnotationBindsInstance
	AnnotationIntoSet
	AnnotationElementsIntoSet
	AnnotationIntoMap
	// AnnotationQualifier carries the qualifier in Annotation.Name.
	AnnotationQualifier
	// AnnotationScope carries the scope in Annotation.Name.
	AnnotationScope
)

var annotationNames = map[AnnotationKind]string{
	AnnotationProvides:        "@Provides",
	AnnotationBinds:           "@Binds",
	AnnotationBindsOptionalOf: "@BindsOptionalOf",
	AnnotationBindsInstance:   "@BindsInstance",
	AnnotationIntoSet:         "@IntoSet",
	AnnotationElementsIntoSet: "@ElementsIntoSet",
	AnnotationIntoMap:         "@IntoMap",
	AnnotationQualifier:       "@Named",
	AnnotationScope:           "@Scope",
}

// String returns the annotation name, such as "@Provides".
func (k AnnotationKind) String() string {
	if s, ok := annotationNames[k]; ok {
		return s
	}
	return "@Unknown"
}

// Annotation is a declaration marker. Name carries the qualifier value for
// AnnotationQualifier and the scope for AnnotationScope.
type Annotation struct {
	Kind AnnotationKind
	Name string
}

func (a Annotation) String() string {
	if a.Name == "" {
		return a.Kind.String()
	}
	return a.Kind.String() + "(" + a.Name + ")"
}

// ProvidesAnnotation marks a module method whose result is bound.
func ProvidesAnnotation() Annotation { return Annotation{Kind: AnnotationProvides} }

// BindsAnnotation marks an abstract module method binding its result
// type to its single parameter.
func BindsAnnotation() Annotation { return Annotation{Kind: AnnotationBinds} }

// BindsOptionalOfAnnotation marks an abstract module method declaring that
// its result type may be requested as an Optional.
func BindsOptionalOfAnnotation() Annotation { return Annotation{Kind: AnnotationBindsOptionalOf} }

// BindsInstanceAnnotation marks a builder setter or factory parameter whose
// argument is bound directly.
func BindsInstanceAnnotation() Annotation { return Annotation{Kind: AnnotationBindsInstance} }

// IntoSetAnnotation marks a set multibinding contribution. Multibinding
// annotations fail module parsing with UnimplementedFeatureError.
func IntoSetAnnotation() Annotation { return Annotation{Kind: AnnotationIntoSet} }

// ElementsIntoSetAnnotation marks a set multibinding of many elements.
func ElementsIntoSetAnnotation() Annotation { return Annotation{Kind: AnnotationElementsIntoSet} }

// IntoMapAnnotation marks a map multibinding contribution.
func IntoMapAnnotation() Annotation { return Annotation{Kind: AnnotationIntoMap} }

// Named returns a qualifier annotation.
func Named(qualifier string) Annotation {
	return Annotation{Kind: AnnotationQualifier, Name: qualifier}
}

// InScope returns a scope annotation.
func InScope(s Scope) Annotation {
	return Annotation{Kind: AnnotationScope, Name: string(s)}
}

func hasAnnotation(annotations []Annotation, kind AnnotationKind) bool {
	for _, a := range annotations {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

func findQualifier(annotations []Annotation) string {
	for _, a := range annotations {
		if a.Kind == AnnotationQualifier {
			return a.Name
		}
	}
	return ""
}

func findScope(annotations []Annotation) (Scope, bool) {
	for _, a := range annotations {
		if a.Kind == AnnotationScope {
			return Scope(a.Name), true
		}
	}
	return "", false
}

// Invoker calls the declared method on receiver with already resolved
// arguments. Arguments for optional parameters arrive as Optional[any].
type Invoker func(receiver any, args []any) (any, error)

// Method describes one declared method of a module, component, builder or
// factory contract.
type Method struct {
	Name        string
	Modifiers   Modifiers
	Annotations []Annotation

	// Params are the dependency keys of the parameters, in declaration order.
	Params []Key

	// Result is nil when the method returns nothing.
	Result reflect.Type

	// Errors reports a trailing error result.
	Errors bool

	Invoke Invoker
}

// DeclaredType is one type of a module's hierarchy with the methods it
// declares itself.
type DeclaredType struct {
	Type    reflect.Type
	Methods []Method
}

// ModuleDescriptor describes how a module contributes bindings.
type ModuleDescriptor struct {
	Name string

	// Type is the module type builders and factories match instances against.
	Type reflect.Type

	// Hierarchy lists the declaring type first, then the types it inherits
	// methods from. Repeated types are visited once.
	Hierarchy []DeclaredType

	// Instance is used when no builder supplies one.
	Instance any
}

// ConstructorDescriptor describes an injectable constructor that is bound
// just in time, the first time its key is requested without an explicit
// binding.
type ConstructorDescriptor struct {
	Name      string
	Type      reflect.Type
	Qualifier string

	// Scope is empty for unscoped constructors.
	Scope Scope

	Params []Key
	Invoke Invoker
}

// Key returns the key the constructor satisfies.
func (c *ConstructorDescriptor) Key() Key { return KeyOf(c.Qualifier, c.Type) }

// ContractKind tells builder-shaped contracts from factory-shaped ones.
type ContractKind uint8

// Contract kinds.
const (
	// BuilderContract has setters and one method returning the component.
	BuilderContract ContractKind = iota + 1
	// FactoryContract has a single method creating the component.
	FactoryContract
)

func (k ContractKind) String() string {
	switch k {
	case BuilderContract:
		return "builder"
	case FactoryContract:
		return "factory"
	default:
		return "contract"
	}
}

// ContractDescriptor describes a builder or factory nested in a component.
type ContractDescriptor struct {
	Kind    ContractKind
	Type    reflect.Type
	Methods []Method
}

// ComponentDescriptor describes a component contract: what it exposes, how
// it is assembled and which scopes it owns.
type ComponentDescriptor struct {
	Name string
	Type reflect.Type

	Scopes        []Scope
	Modules       []*ModuleDescriptor
	Dependencies  []*ComponentDescriptor
	Subcomponents []*ComponentDescriptor

	// Injectables supplies constructors for just-in-time bindings.
	Injectables Registry

	Methods []Method

	Builder *ContractDescriptor
	Factory *ContractDescriptor

	// Subcomponent components are only created through a parent.
	Subcomponent bool
}

func (d *ComponentDescriptor) String() string {
	if d == nil {
		return "<nil>"
	}
	if d.Name != "" {
		return d.Name
	}
	if d.Type != nil {
		return d.Type.String()
	}
	return "<anonymous component>"
}

func (d *ComponentDescriptor) ownsScope(s Scope) bool {
	for _, own := range d.Scopes {
		if own == s {
			return true
		}
	}
	return false
}
