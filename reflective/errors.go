package reflective

import "strconv"

// DeclarationError is returned when a type cannot be described: a module
// that is not a struct, a component that is not an interface, or a
// constructor that is not a function returning (T[, error]).
type DeclarationError struct {
	Type   string
	Reason string
}

func (e DeclarationError) Error() string {
	// Example: reflective: invalid declaration "coffee.Heater": components must be interfaces
	return "reflective: invalid declaration " + strconv.Quote(e.Type) + ": " + e.Reason
}

// ArgumentError is returned by invokers when a resolved value cannot be
// passed as the declared parameter.
type ArgumentError struct {
	Method string
	Index  int
	Want   string
	Got    string
}

func (e ArgumentError) Error() string {
	return "reflective: argument " + strconv.Itoa(e.Index) + " of " + strconv.Quote(e.Method) +
		": got " + e.Got + ", want " + e.Want
}
