package models

// Ptr returns a pointer to the given value, for the optional model fields.
func Ptr[T any](t T) *T {
	return &t
}

// Deref returns the pointed-to value, or the zero value for nil.
func Deref[T any](t *T) T {
	var zero T
	if t == nil {
		return zero
	}
	return *t
}

// StrPtr maps the empty string to nil, so blank CLI flags stay unset.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
