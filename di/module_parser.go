package di

import "reflect"

type keyedBinding struct {
	key     Key
	binding UnlinkedBinding
}

// ParseModule turns the declared methods of m into bindings and registers
// them with b. instance is the module instance, or nil when none was
// supplied. A typed nil instance, such as (*AppModule)(nil), counts as
// none.
//
// Every method is checked before the first binding is registered, so a
// rejected module contributes nothing.
func ParseModule(m *ModuleDescriptor, instance any, b *BindingMapBuilder) error {
	if isNil(instance) {
		instance = nil
	}
	parsed, err := parseModule(m, instance)
	if err != nil {
		return err
	}
	for _, p := range parsed {
		if err := b.Add(p.key, p.binding); err != nil {
			return err
		}
	}
	return nil
}

// isNil reports whether v is nil or holds a nil value of a nilable kind.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func parseModule(m *ModuleDescriptor, instance any) ([]keyedBinding, error) {
	var (
		out     []keyedBinding
		visited = make(map[reflect.Type]struct{}, len(m.Hierarchy))
	)
	for _, declared := range m.Hierarchy {
		if declared.Type != nil {
			if _, seen := visited[declared.Type]; seen {
				continue
			}
			visited[declared.Type] = struct{}{}
		}
		for _, method := range declared.Methods {
			kb, ok, err := parseModuleMethod(m.Name, method, instance)
			if err != nil {
				return nil, err
			}
			if ok {
				out = append(out, kb)
			}
		}
	}
	return out, nil
}

// parseModuleMethod returns ok=false for methods that contribute nothing.
func parseModuleMethod(module string, method Method, instance any) (keyedBinding, bool, error) {
	illegal := func(reason string) error {
		return IllegalModuleMethodError{Module: module, Method: method.Name, Reason: reason}
	}
	where := module + "." + method.Name

	if method.Modifiers.Has(Private) {
		return keyedBinding{}, false, illegal("private module methods are not allowed")
	}

	var (
		binding  UnlinkedBinding
		optional bool
	)
	if method.Modifiers.Has(Abstract) {
		switch {
		case hasAnnotation(method.Annotations, AnnotationBinds):
			if len(method.Params) != 1 {
				return keyedBinding{}, false, illegal("@Binds methods must have exactly one parameter")
			}
			binding = &BindsBinding{Module: module, Method: method.Name, Target: method.Params[0]}
		case hasAnnotation(method.Annotations, AnnotationBindsOptionalOf):
			if len(method.Params) != 0 {
				return keyedBinding{}, false, illegal("@BindsOptionalOf methods must not have parameters")
			}
			optional = true
		default:
			return keyedBinding{}, false, nil
		}
	} else {
		if !method.Modifiers.Has(Static) && instance == nil {
			return keyedBinding{}, false, ModuleInstanceRequiredError{Module: module, Method: method.Name}
		}
		if !hasAnnotation(method.Annotations, AnnotationProvides) {
			return keyedBinding{}, false, nil
		}
		if method.Invoke == nil {
			return keyedBinding{}, false, illegal("@Provides method has no invoker")
		}
		binding = &ProvidesBinding{Module: module, Instance: instance, Method: method}
	}

	switch {
	case hasAnnotation(method.Annotations, AnnotationIntoSet):
		return keyedBinding{}, false, UnimplementedFeatureError{Feature: "@IntoSet", Where: where}
	case hasAnnotation(method.Annotations, AnnotationElementsIntoSet):
		return keyedBinding{}, false, UnimplementedFeatureError{Feature: "@ElementsIntoSet", Where: where}
	case hasAnnotation(method.Annotations, AnnotationIntoMap):
		return keyedBinding{}, false, UnimplementedFeatureError{Feature: "@IntoMap", Where: where}
	}

	if method.Result == nil {
		return keyedBinding{}, false, illegal("binding methods must return a value")
	}
	key := KeyOf(findQualifier(method.Annotations), method.Result)

	if optional {
		if key.IsOptional() {
			return keyedBinding{}, false, illegal("@BindsOptionalOf cannot wrap an Optional")
		}
		binding = &BindsOptionalOfBinding{Module: module, Method: method.Name, Key: key}
		key = key.Optional()
	}

	if bb, ok := binding.(*BindsBinding); ok {
		from := bb.Target.Type()
		if !bb.Target.IsOptional() && !key.IsOptional() && from != nil && !from.AssignableTo(key.Type()) {
			return keyedBinding{}, false, illegal(from.String() + " is not assignable to " + key.Type().String())
		}
	}

	if _, scoped := findScope(method.Annotations); scoped {
		return keyedBinding{}, false, UnimplementedFeatureError{Feature: "scoped bindings", Where: where}
	}

	return keyedBinding{key: key, binding: binding}, true, nil
}
