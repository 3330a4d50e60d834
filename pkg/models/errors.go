package models

import "errors"

// ErrInvalidSettingValue rejects setting values outside the four permitted
// shapes. Nulls, arrays, and nested objects are never valid settings.
var ErrInvalidSettingValue = errors.New("setting values must be an integer, float, string, or boolean")

// ShapeError describes a structural problem found while decoding a workflow
// submission, before any pipeline rule runs.
type ShapeError struct {
	Field   string
	Message string
	Err     error
}

func (e *ShapeError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}

	return e.Message
}

func (e *ShapeError) Unwrap() error {
	return e.Err
}
