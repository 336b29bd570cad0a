package ptr

// Of returns a pointer to a value of the given type.
// This is a convenience function to turn literals into pointers.
func Of[T any](v T) *T {
	return &v
}

// Deref returns the value p points to,
// or def if p is nil.
func Deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
