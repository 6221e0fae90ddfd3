package obj

import (
	"reflect"
)

// IsNil reports whether what is nil or a typed nil (pointer, map, slice, chan,
// func or interface). A JSON null decodes to an untyped nil, while values built in
// Go code often arrive as typed nils; both count as "unset".
func IsNil(what interface{}) bool {
	if what == nil {
		return true
	}

	v := reflect.ValueOf(what)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}

// SameValue reports whether a and b are the same value by identity: comparable
// values use ==, while maps, slices and funcs are the same only when they share
// backing storage. Two structurally equal but separately built maps are different.
func SameValue(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Map, reflect.Func, reflect.Chan, reflect.Ptr, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}

	// A struct type can be comparable while an interface field holds a slice; ==
	// would panic on it.
	if !va.Comparable() || !vb.Comparable() {
		return false
	}

	return a == b
}
