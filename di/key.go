package di

import (
	"reflect"
	"strconv"
)

type wrapper uint8

const (
	wrapNone wrapper = iota
	wrapOptional
)

// Key identifies an injectable value: a type, an optional qualifier and
// whether the value is requested as an Optional.
//
// Keys are comparable and are used directly as map keys.
type Key struct {
	typ       reflect.Type
	qualifier string
	wrap      wrapper
}

// KeyOf returns the key for typ qualified by qualifier. A typ of
// Optional[X] yields the optional-wrapped key of X.
func KeyOf(qualifier string, typ reflect.Type) Key {
	if elem, ok := optionalElem(typ); ok {
		return Key{typ: elem, qualifier: qualifier, wrap: wrapOptional}
	}
	return Key{typ: typ, qualifier: qualifier}
}

// KeyFor returns the unqualified key of T.
func KeyFor[T any]() Key { return KeyOf("", reflect.TypeFor[T]()) }

// QualifiedKeyFor returns the key of T qualified by qualifier.
func QualifiedKeyFor[T any](qualifier string) Key {
	return KeyOf(qualifier, reflect.TypeFor[T]())
}

// Type returns the type of the key, without the Optional wrapper.
func (k Key) Type() reflect.Type { return k.typ }

// Qualifier returns the qualifier, or "" for unqualified keys.
func (k Key) Qualifier() string { return k.qualifier }

// IsOptional reports whether k requests an Optional.
func (k Key) IsOptional() bool { return k.wrap == wrapOptional }

// Optional returns k wrapped in Optional.
func (k Key) Optional() Key {
	k.wrap = wrapOptional
	return k
}

// Unwrap returns k without the Optional wrapper.
func (k Key) Unwrap() Key {
	k.wrap = wrapNone
	return k
}

// IsZero reports whether k has no type.
func (k Key) IsZero() bool { return k.typ == nil }

func (k Key) String() string {
	t := "<nil>"
	if k.typ != nil {
		t = k.typ.String()
	}
	if k.wrap == wrapOptional {
		t = "Optional[" + t + "]"
	}
	if k.qualifier != "" {
		return "@Named(" + strconv.Quote(k.qualifier) + ") " + t
	}
	return t
}
