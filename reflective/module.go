package reflective

import (
	"reflect"
	"strings"

	"github.com/sghaida/reflectdi/di"
)

// Module describes the module struct instance points to, or is.
//
// Exported methods named Provide* are provider methods. Embedded
// interfaces hold the abstract part of the module: methods named
// BindOptional* declare optional bindings, methods named Bind* alias their
// single parameter to their result, and unexported methods are private.
// Embedded structs contribute their own methods as a supertype does.
//
// Methods of zero-size types need no instance.
func Module(instance any, opts ...Option) (*di.ModuleDescriptor, error) {
	if instance == nil {
		return nil, DeclarationError{Type: "<nil>", Reason: "module instance is nil"}
	}
	return describeModule(reflect.TypeOf(instance), instance, newSettings(opts))
}

// ModuleType describes M without an instance. Builders and factories
// supply one when M has instance methods.
func ModuleType[M any](opts ...Option) (*di.ModuleDescriptor, error) {
	return describeModule(reflect.TypeFor[M](), nil, newSettings(opts))
}

// MustModule is like Module but panics on error.
func MustModule(instance any, opts ...Option) *di.ModuleDescriptor {
	m, err := Module(instance, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// MustModuleType is like ModuleType but panics on error.
func MustModuleType[M any](opts ...Option) *di.ModuleDescriptor {
	m, err := ModuleType[M](opts...)
	if err != nil {
		panic(err)
	}
	return m
}

func describeModule(t reflect.Type, instance any, s *settings) (*di.ModuleDescriptor, error) {
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Kind() != reflect.Struct {
		return nil, DeclarationError{Type: t.String(), Reason: "modules must be structs"}
	}

	m := &di.ModuleDescriptor{Name: s.name, Type: t, Instance: instance}
	if m.Name == "" {
		m.Name = base.Name()
	}
	hierarchy, err := declaredTypes(base, base, true, s)
	if err != nil {
		return nil, err
	}
	m.Hierarchy = hierarchy
	return m, nil
}

// declaredTypes walks t and its embedded fields. root is the module type
// methods are invoked through.
func declaredTypes(root, t reflect.Type, static bool, s *settings) ([]di.DeclaredType, error) {
	promoted := make(map[string]struct{})
	var embedded []reflect.StructField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		embedded = append(embedded, f)
		for _, name := range methodNames(f.Type) {
			promoted[name] = struct{}{}
		}
	}

	static = static && t.Size() == 0
	own, err := concreteMethods(root, t, static, promoted, s)
	if err != nil {
		return nil, err
	}
	out := []di.DeclaredType{{Type: t, Methods: own}}

	for _, f := range embedded {
		ft := f.Type
		switch {
		case ft.Kind() == reflect.Interface:
			out = append(out, di.DeclaredType{Type: ft, Methods: abstractMethods(ft, s)})
		case ft.Kind() == reflect.Struct:
			sub, err := declaredTypes(root, ft, true, s)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		case ft.Kind() == reflect.Pointer && ft.Elem().Kind() == reflect.Struct:
			sub, err := declaredTypes(root, ft.Elem(), false, s)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		}
	}
	return out, nil
}

func methodNames(t reflect.Type) []string {
	if t.Kind() != reflect.Interface && t.Kind() != reflect.Pointer {
		t = reflect.PointerTo(t)
	}
	names := make([]string, 0, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		names = append(names, t.Method(i).Name)
	}
	return names
}

// concreteMethods returns the methods t declares itself: its pointer method
// set minus the methods promoted from embedded fields.
func concreteMethods(root, t reflect.Type, static bool, promoted map[string]struct{}, s *settings) ([]di.Method, error) {
	pt := reflect.PointerTo(t)
	var out []di.Method
	for i := 0; i < pt.NumMethod(); i++ {
		m := pt.Method(i)
		if _, ok := promoted[m.Name]; ok {
			continue
		}
		params, result, errs, ok := signature(m.Type, 1)
		annotations := s.annotationsOf(m.Name)
		if strings.HasPrefix(m.Name, "Provide") {
			if !ok {
				return nil, DeclarationError{Type: t.String() + "." + m.Name, Reason: "provider methods return (T) or (T, error)"}
			}
			annotations = append(annotations, di.ProvidesAnnotation())
		}
		method := di.Method{
			Name:        m.Name,
			Annotations: annotations,
			Params:      paramKeys(params, s.paramQualifiers[m.Name]),
			Result:      result,
			Errors:      errs,
			Invoke:      methodInvoker(m.Name, root, params, errs),
		}
		if static {
			method.Modifiers |= di.Static
		}
		out = append(out, method)
	}
	return out, nil
}

func abstractMethods(t reflect.Type, s *settings) []di.Method {
	out := make([]di.Method, 0, t.NumMethod())
	for i := 0; i < t.NumMethod(); i++ {
		m := t.Method(i)
		params, result, _, _ := signature(m.Type, 0)
		annotations := s.annotationsOf(m.Name)
		switch {
		case strings.HasPrefix(m.Name, "BindOptional"):
			annotations = append(annotations, di.BindsOptionalOfAnnotation())
		case strings.HasPrefix(m.Name, "Bind"):
			annotations = append(annotations, di.BindsAnnotation())
		}
		method := di.Method{
			Name:        m.Name,
			Modifiers:   di.Abstract,
			Annotations: annotations,
			Params:      paramKeys(params, s.paramQualifiers[m.Name]),
			Result:      result,
		}
		if !m.IsExported() {
			method.Modifiers |= di.Private
		}
		out = append(out, method)
	}
	return out
}
