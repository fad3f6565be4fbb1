package di

import "sort"

// Precedence orders bindings contributed to one key. A component's own
// bindings shadow those contributed by its dependency components.
type Precedence uint8

// Precedences, lowest first.
const (
	// DependencyPrecedence is given to provision methods of dependency
	// components.
	DependencyPrecedence Precedence = iota + 1
	// ComponentPrecedence is given to the component's own bindings.
	ComponentPrecedence
)

// BindingMap maps keys to unlinked bindings. It is read-only once built.
type BindingMap struct {
	bindings map[Key]UnlinkedBinding
}

// Get returns the binding registered for key.
func (m *BindingMap) Get(key Key) (UnlinkedBinding, bool) {
	if m == nil {
		return nil, false
	}
	b, ok := m.bindings[key]
	return b, ok
}

// Len returns the number of keys bound.
func (m *BindingMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.bindings)
}

// Keys returns the bound keys sorted by their string form.
func (m *BindingMap) Keys() []Key {
	if m == nil {
		return nil
	}
	keys := make([]Key, 0, len(m.bindings))
	for k := range m.bindings {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

type bindingEntry struct {
	binding    UnlinkedBinding
	precedence Precedence
}

// BindingMapBuilder collects bindings while modules and dependencies are
// parsed.
type BindingMapBuilder struct {
	entries map[Key]bindingEntry
}

// NewBindingMapBuilder returns an empty builder.
func NewBindingMapBuilder() *BindingMapBuilder {
	return &BindingMapBuilder{entries: make(map[Key]bindingEntry)}
}

// Add registers a binding contributed by the component itself.
func (b *BindingMapBuilder) Add(key Key, binding UnlinkedBinding) error {
	return b.AddWithPrecedence(key, binding, ComponentPrecedence)
}

// AddDependency registers a binding contributed by a dependency component.
func (b *BindingMapBuilder) AddDependency(key Key, binding UnlinkedBinding) error {
	return b.AddWithPrecedence(key, binding, DependencyPrecedence)
}

// AddWithPrecedence registers binding for key. A higher precedence replaces
// a lower one, a lower one is ignored, and an equal one is a
// DuplicateBindingError.
func (b *BindingMapBuilder) AddWithPrecedence(key Key, binding UnlinkedBinding, p Precedence) error {
	existing, ok := b.entries[key]
	switch {
	case !ok, p > existing.precedence:
		b.entries[key] = bindingEntry{binding: binding, precedence: p}
		return nil
	case p < existing.precedence:
		return nil
	default:
		return DuplicateBindingError{Key: key, Existing: existing.binding.String(), Duplicate: binding.String()}
	}
}

// Build returns the finished map. The builder may keep being used; later
// additions do not affect maps already built.
func (b *BindingMapBuilder) Build() *BindingMap {
	m := &BindingMap{bindings: make(map[Key]UnlinkedBinding, len(b.entries))}
	for k, e := range b.entries {
		m.bindings[k] = e.binding
	}
	return m
}
