package opensubtitles

// Pointer helpers for optional request parameters.

// String returns a pointer to the given string.
func String(s string) *string { return &s }

// Int returns a pointer to the given int.
func Int(i int) *int { return &i }

// Int64 returns a pointer to the given int64.
func Int64(i int64) *int64 { return &i }

// Float64 returns a pointer to the given float64.
func Float64(f float64) *float64 { return &f }

// Bool returns a pointer to the given bool.
func Bool(b bool) *bool { return &b }
