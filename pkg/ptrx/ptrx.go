// Package ptrx holds small pointer helpers for optional struct fields.
package ptrx

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Value dereferences p, returning the zero value when p is nil.
func Value[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
