package reflective

import (
	"reflect"
	"strconv"

	"github.com/sghaida/reflectdi/di"
)

var errorType = reflect.TypeFor[error]()

// signature splits ft into parameter types and a result. skip drops leading
// parameters, such as the receiver of a method expression.
//
// Accepted results are (), (T), (error) and (T, error). Anything else
// reports ok=false.
func signature(ft reflect.Type, skip int) (params []reflect.Type, result reflect.Type, errs, ok bool) {
	for i := skip; i < ft.NumIn(); i++ {
		params = append(params, ft.In(i))
	}
	switch ft.NumOut() {
	case 0:
		return params, nil, false, true
	case 1:
		if ft.Out(0) == errorType {
			return params, nil, true, true
		}
		return params, ft.Out(0), false, true
	case 2:
		if ft.Out(1) != errorType || ft.Out(0) == errorType {
			return params, nil, false, false
		}
		return params, ft.Out(0), true, true
	default:
		return params, nil, false, false
	}
}

func paramKeys(params []reflect.Type, qualifiers map[int]string) []di.Key {
	if len(params) == 0 {
		return nil
	}
	keys := make([]di.Key, len(params))
	for i, p := range params {
		keys[i] = di.KeyOf(qualifiers[i], p)
	}
	return keys
}

// funcInvoker calls fn, ignoring the receiver.
func funcInvoker(name string, fn reflect.Value, params []reflect.Type, errs bool) di.Invoker {
	return func(_ any, args []any) (any, error) {
		in, err := arguments(name, params, args)
		if err != nil {
			return nil, err
		}
		return results(fn.Call(in), errs)
	}
}

// methodInvoker calls the method name on the receiver. A nil receiver is
// replaced by a new zero value of base, which is how static methods are
// invoked.
func methodInvoker(name string, base reflect.Type, params []reflect.Type, errs bool) di.Invoker {
	return func(receiver any, args []any) (any, error) {
		fn, err := boundMethod(name, base, receiver)
		if err != nil {
			return nil, err
		}
		in, err := arguments(name, params, args)
		if err != nil {
			return nil, err
		}
		return results(fn.Call(in), errs)
	}
}

func boundMethod(name string, base reflect.Type, receiver any) (reflect.Value, error) {
	var rv reflect.Value
	switch {
	case receiver != nil:
		rv = reflect.ValueOf(receiver)
		if rv.Kind() != reflect.Pointer && rv.Kind() != reflect.Interface {
			// Pointer methods are missing from the value method set.
			ptr := reflect.New(rv.Type())
			ptr.Elem().Set(rv)
			rv = ptr
		}
	case base != nil:
		rv = reflect.New(base)
	default:
		return reflect.Value{}, DeclarationError{Type: name, Reason: "method needs a receiver"}
	}
	fn := rv.MethodByName(name)
	if !fn.IsValid() {
		return reflect.Value{}, DeclarationError{Type: rv.Type().String(), Reason: "no method " + strconv.Quote(name)}
	}
	return fn, nil
}

func arguments(name string, params []reflect.Type, args []any) ([]reflect.Value, error) {
	if len(args) != len(params) {
		return nil, ArgumentError{Method: name, Index: len(args), Want: strconv.Itoa(len(params)) + " arguments", Got: strconv.Itoa(len(args))}
	}
	in := make([]reflect.Value, len(params))
	for i, pt := range params {
		a := di.ConvertOptional(pt, args[i])
		if a == nil {
			in[i] = reflect.Zero(pt)
			continue
		}
		v := reflect.ValueOf(a)
		if !v.Type().AssignableTo(pt) {
			return nil, ArgumentError{Method: name, Index: i, Want: pt.String(), Got: v.Type().String()}
		}
		in[i] = v
	}
	return in, nil
}

func results(out []reflect.Value, errs bool) (any, error) {
	if errs {
		last := out[len(out)-1]
		if !last.IsNil() {
			return nil, last.Interface().(error)
		}
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0].Interface(), nil
}
