package di

import (
	"reflect"
	"strconv"
)

type handler func(c *Component, args []any) (any, error)

// parseComponent builds the dispatch table of desc. Methods with shapes the
// proxy cannot serve still get an entry, which fails when called.
func parseComponent(desc *ComponentDescriptor) map[string]handler {
	table := make(map[string]handler, len(desc.Methods))
	for _, m := range desc.Methods {
		table[m.Name] = classifyComponentMethod(desc, m)
	}
	return table
}

func classifyComponentMethod(desc *ComponentDescriptor, m Method) handler {
	unsupported := func(reason string) handler {
		err := UnsupportedComponentMethodError{Component: desc.String(), Method: m.Name, Reason: reason}
		return func(*Component, []any) (any, error) { return nil, err }
	}

	switch {
	case m.Modifiers.Has(Private):
		return unsupported("private methods cannot be dispatched")
	case m.Result == nil:
		return unsupported("methods without a result are not supported")
	}

	for _, sub := range desc.Subcomponents {
		switch {
		case m.Result == sub.Type:
			return subcomponentCreator(desc, sub, m)
		case sub.Builder != nil && m.Result == sub.Builder.Type:
			if len(m.Params) != 0 {
				return unsupported("subcomponent builder methods must not have parameters")
			}
			return func(c *Component, args []any) (any, error) {
				if err := expectArgs(desc, m, args, 0); err != nil {
					return nil, err
				}
				return newBuilder(sub, c, c.cfg)
			}
		case sub.Factory != nil && m.Result == sub.Factory.Type:
			if len(m.Params) != 0 {
				return unsupported("subcomponent factory methods must not have parameters")
			}
			return func(c *Component, args []any) (any, error) {
				if err := expectArgs(desc, m, args, 0); err != nil {
					return nil, err
				}
				return newFactory(sub, c, c.cfg)
			}
		}
	}

	if len(m.Params) != 0 {
		return unsupported("request methods must not have parameters")
	}
	key := KeyOf(findQualifier(m.Annotations), m.Result)
	return func(c *Component, args []any) (any, error) {
		if err := expectArgs(desc, m, args, 0); err != nil {
			return nil, err
		}
		return c.Get(key)
	}
}

// subcomponentCreator serves methods returning a subcomponent directly.
// Their parameters supply the subcomponent's module instances.
func subcomponentCreator(desc, sub *ComponentDescriptor, m Method) handler {
	modules := make([]*ModuleDescriptor, len(m.Params))
	for i, p := range m.Params {
		modules[i] = findModule(sub, p.Type())
		if modules[i] == nil {
			err := UnsupportedComponentMethodError{
				Component: desc.String(),
				Method:    m.Name,
				Reason:    "parameter " + p.String() + " is not a module of " + sub.String(),
			}
			return func(*Component, []any) (any, error) { return nil, err }
		}
	}
	return func(c *Component, args []any) (any, error) {
		if err := expectArgs(desc, m, args, len(modules)); err != nil {
			return nil, err
		}
		a := newAssembly(sub, c, c.cfg)
		for i, mod := range modules {
			a.modules[mod] = args[i]
		}
		return a.build()
	}
}

func expectArgs(desc *ComponentDescriptor, m Method, args []any, n int) error {
	if len(args) == n {
		return nil
	}
	return UnsupportedComponentMethodError{
		Component: desc.String(),
		Method:    m.Name,
		Reason:    "takes " + strconv.Itoa(n) + " arguments, got " + strconv.Itoa(len(args)),
	}
}

// findModule returns the module of desc whose type matches t, ignoring one
// level of pointer indirection on either side.
func findModule(desc *ComponentDescriptor, t reflect.Type) *ModuleDescriptor {
	for _, m := range desc.Modules {
		if sameBaseType(m.Type, t) {
			return m
		}
	}
	return nil
}

func findDependency(desc *ComponentDescriptor, t reflect.Type) *ComponentDescriptor {
	for _, d := range desc.Dependencies {
		if d.Type == t {
			return d
		}
	}
	return nil
}

func sameBaseType(a, b reflect.Type) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Kind() == reflect.Pointer {
		a = a.Elem()
	}
	if b.Kind() == reflect.Pointer {
		b = b.Elem()
	}
	return a == b
}

// validateGraph checks the component graph rooted at desc before any
// binding is built: dependency loops between components, and subcomponents
// or dependencies repeating a scope of a component above them.
func validateGraph(desc *ComponentDescriptor, parent *Component) error {
	if err := checkDependencyCycles(desc, nil, make(map[*ComponentDescriptor]bool)); err != nil {
		return err
	}
	if err := checkDependencyScopes(desc, ownScopes(nil, desc)); err != nil {
		return err
	}
	owned := make(map[Scope]string)
	for anc := parent; anc != nil; anc = anc.parent {
		for _, s := range anc.desc.Scopes {
			if _, ok := owned[s]; !ok {
				owned[s] = anc.desc.String()
			}
		}
	}
	return checkSubcomponentScopes(desc, owned, nil)
}

func checkDependencyCycles(desc *ComponentDescriptor, path []*ComponentDescriptor, done map[*ComponentDescriptor]bool) error {
	for i, p := range path {
		if p == desc {
			return DependencyCycleError{Path: componentPath(append(path[i:], desc))}
		}
	}
	if done[desc] {
		return nil
	}
	path = append(path, desc)
	for _, dep := range desc.Dependencies {
		if err := checkDependencyCycles(dep, path, done); err != nil {
			return err
		}
	}
	done[desc] = true
	return nil
}

// checkDependencyScopes walks the dependency DAG below desc. owned holds
// the scopes of every component on the path down to desc. The graph must
// be free of cycles.
func checkDependencyScopes(desc *ComponentDescriptor, owned map[Scope]string) error {
	for _, dep := range desc.Dependencies {
		for _, s := range dep.Scopes {
			if anc, ok := owned[s]; ok {
				return ScopeConflictError{Component: dep.String(), Ancestor: anc, Scope: s}
			}
		}
		if len(dep.Dependencies) == 0 {
			continue
		}
		if err := checkDependencyScopes(dep, ownScopes(owned, dep)); err != nil {
			return err
		}
	}
	return nil
}

// ownScopes returns a copy of owned extended with the scopes of desc.
func ownScopes(owned map[Scope]string, desc *ComponentDescriptor) map[Scope]string {
	next := make(map[Scope]string, len(owned)+len(desc.Scopes))
	for s, name := range owned {
		next[s] = name
	}
	for _, s := range desc.Scopes {
		if _, ok := next[s]; !ok {
			next[s] = desc.String()
		}
	}
	return next
}

func checkSubcomponentScopes(desc *ComponentDescriptor, owned map[Scope]string, path []*ComponentDescriptor) error {
	for i, p := range path {
		if p == desc {
			return DependencyCycleError{Path: componentPath(append(path[i:], desc))}
		}
	}
	for _, s := range desc.Scopes {
		if anc, ok := owned[s]; ok {
			return ScopeConflictError{Component: desc.String(), Ancestor: anc, Scope: s}
		}
	}
	if len(desc.Subcomponents) == 0 {
		return nil
	}
	next := ownScopes(owned, desc)
	path = append(path, desc)
	for _, sub := range desc.Subcomponents {
		if err := checkSubcomponentScopes(sub, next, path); err != nil {
			return err
		}
	}
	return nil
}

func componentPath(descs []*ComponentDescriptor) []string {
	out := make([]string, len(descs))
	for i, d := range descs {
		out[i] = d.String()
	}
	return out
}
