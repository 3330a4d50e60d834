package models

import (
	"bytes"
	"encoding/json"
	"maps"
	"strconv"
	"strings"
)

// SettingKind identifies which of the four permitted shapes a SettingValue
// holds.
type SettingKind string

const (
	SettingKindInt    SettingKind = "integer"
	SettingKindFloat  SettingKind = "float"
	SettingKindString SettingKind = "string"
	SettingKindBool   SettingKind = "boolean"
)

// SettingValue is a single component setting. It holds exactly one of the
// four permitted shapes; integers and floats are kept apart so a value
// round-trips exactly as it was submitted.
type SettingValue struct {
	kind SettingKind
	i    int64
	f    float64
	s    string
	b    bool
}

// IntSetting builds an integer-valued setting.
func IntSetting(v int64) SettingValue { return SettingValue{kind: SettingKindInt, i: v} }

// FloatSetting builds a float-valued setting.
func FloatSetting(v float64) SettingValue { return SettingValue{kind: SettingKindFloat, f: v} }

// StringSetting builds a string-valued setting.
func StringSetting(v string) SettingValue { return SettingValue{kind: SettingKindString, s: v} }

// BoolSetting builds a boolean-valued setting.
func BoolSetting(v bool) SettingValue { return SettingValue{kind: SettingKindBool, b: v} }

// Kind reports which shape the value holds. The zero SettingValue has no
// kind.
func (v SettingValue) Kind() SettingKind { return v.kind }

// Value returns the held payload as an untyped value, or nil for the zero
// SettingValue.
func (v SettingValue) Value() any {
	switch v.kind {
	case SettingKindInt:
		return v.i
	case SettingKindFloat:
		return v.f
	case SettingKindString:
		return v.s
	case SettingKindBool:
		return v.b
	}

	return nil
}

func (v SettingValue) MarshalJSON() ([]byte, error) {
	// Floats with an integral value would otherwise serialize without a
	// fraction and come back as integers on the next decode.
	if v.kind == SettingKindFloat {
		formatted := strconv.FormatFloat(v.f, 'g', -1, 64)
		if !strings.ContainsAny(formatted, ".eE") {
			formatted += ".0"
		}

		return []byte(formatted), nil
	}

	payload := v.Value()
	if payload == nil {
		return nil, &ShapeError{Message: "cannot encode an uninitialized setting value"}
	}

	return json.Marshal(payload)
}

// UnmarshalJSON decodes a setting value, accepting only the four permitted
// shapes. JSON numbers keep their integer or floating point identity: a
// literal without a fraction or exponent stays an integer.
func (v *SettingValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ErrInvalidSettingValue
	}

	switch trimmed[0] {
	case 'n', '{', '[':
		return ErrInvalidSettingValue
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}

		*v = StringSetting(s)

		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return err
		}

		*v = BoolSetting(b)

		return nil
	}

	var number json.Number
	if err := json.Unmarshal(trimmed, &number); err != nil {
		return ErrInvalidSettingValue
	}

	if i, err := number.Int64(); err == nil {
		*v = IntSetting(i)

		return nil
	}

	f, err := number.Float64()
	if err != nil {
		return ErrInvalidSettingValue
	}

	*v = FloatSetting(f)

	return nil
}

// Settings holds a component's configuration keyed by setting name. A nil
// Settings means the component was submitted without a settings object,
// which the pipeline rules treat differently from an empty one.
type Settings map[string]SettingValue

// UnmarshalJSON decodes a settings object, preserving the distinction
// between a null settings field and a present but empty object.
func (s *Settings) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*s = nil

		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return &ShapeError{Field: "settings", Message: "settings must be an object of setting values", Err: err}
	}

	decoded := make(Settings, len(raw))

	for name, value := range raw {
		if name == "" {
			return &ShapeError{Field: "settings", Message: "setting names must be non-empty strings"}
		}

		var settingValue SettingValue
		if err := settingValue.UnmarshalJSON(value); err != nil {
			return &ShapeError{Field: "settings." + name, Message: err.Error(), Err: err}
		}

		decoded[name] = settingValue
	}

	*s = decoded

	return nil
}

// Clone returns an independent copy so callers can normalize a workflow
// without mutating the submission. A nil Settings stays nil.
func (s Settings) Clone() Settings {
	if s == nil {
		return nil
	}

	cloned := make(Settings, len(s))
	maps.Copy(cloned, s)

	return cloned
}
