package utils

// Copies the pointed-to value so callers can't alias internal state
func ClonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
