package di

import (
	"fmt"
	"reflect"
)

// Optional holds a value that may be absent. Requesting Optional[T] never
// fails for lack of a binding of T; it resolves empty instead.
type Optional[T any] struct {
	value   T
	present bool
}

// Of returns a present Optional holding v.
func Of[T any](v T) Optional[T] { return Optional[T]{value: v, present: true} }

// Empty returns an absent Optional.
func Empty[T any]() Optional[T] { return Optional[T]{} }

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) { return o.value, o.present }

// Present reports whether a value is held.
func (o Optional[T]) Present() bool { return o.present }

// OrElse returns the held value, or fallback when absent.
func (o Optional[T]) OrElse(fallback T) T {
	if o.present {
		return o.value
	}
	return fallback
}

func (o Optional[T]) String() string {
	if !o.present {
		return "Optional.empty"
	}
	return fmt.Sprintf("Optional[%v]", o.value)
}

func (Optional[T]) optionalElem() reflect.Type { return reflect.TypeFor[T]() }

func (Optional[T]) fromErased(o Optional[any]) any {
	if !o.present {
		return Optional[T]{}
	}
	v, _ := o.value.(T)
	return Optional[T]{value: v, present: true}
}

// optionalForm is implemented by every Optional instantiation. It lets the
// type-erased engine rebuild a declared Optional[X] from an Optional[any].
type optionalForm interface {
	optionalElem() reflect.Type
	fromErased(Optional[any]) any
}

var optionalFormType = reflect.TypeFor[optionalForm]()

func optionalElem(t reflect.Type) (reflect.Type, bool) {
	if t == nil || t.Kind() != reflect.Struct || !t.Implements(optionalFormType) {
		return nil, false
	}
	return reflect.Zero(t).Interface().(optionalForm).optionalElem(), true
}

// IsOptionalType reports whether t is an instantiation of Optional.
func IsOptionalType(t reflect.Type) bool {
	_, ok := optionalElem(t)
	return ok
}

// ConvertOptional converts v to t when t is an Optional instantiation and v
// is the Optional[any] the engine resolved. Any other v is returned as is.
func ConvertOptional(t reflect.Type, v any) any {
	o, ok := v.(Optional[any])
	if !ok || !IsOptionalType(t) {
		return v
	}
	return reflect.Zero(t).Interface().(optionalForm).fromErased(o)
}
