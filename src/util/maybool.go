package util

import "fmt"

type MayBool struct {
	// Wrapped instead of using the state as an enum
	// so that the user cannot use wrong values.
	state mayBoolState
}

type mayBoolState byte

const (
	mayBoolNone mayBoolState = iota
	mayBoolTrue
	mayBoolFalse
)

func NewMayBool[T bool | *bool](v T) MayBool {
	switch t := any(v).(type) {
	case bool:
		if t {
			return MayBool{mayBoolTrue}
		}
		return MayBool{mayBoolFalse}
	case *bool:
		if t == nil {
			return MayBool{mayBoolNone}
		}
		return NewMayBool(*t)
	default:
		panic("Unknown type. This is a bug.")
	}
}

func True() MayBool {
	return MayBool{mayBoolTrue}
}

func False() MayBool {
	return MayBool{mayBoolFalse}
}

func None() MayBool {
	return MayBool{mayBoolNone}
}

func (self MayBool) String() string {
	switch self.state {
	case mayBoolTrue:
		return "true"
	case mayBoolFalse:
		return "false"
	case mayBoolNone:
		return "none"
	default:
		panic("Unknown state. This is a bug.")
	}
}

func (self MayBool) Else(v bool) bool {
	switch self.state {
	case mayBoolNone:
		return v
	case mayBoolTrue:
		return true
	case mayBoolFalse:
		return false
	default:
		panic("Unknown state. This is a bug.")
	}
}

func (self MayBool) MarshalJSON() ([]byte, error) {
	switch self.state {
	case mayBoolTrue:
		return []byte("true"), nil
	case mayBoolFalse:
		return []byte("false"), nil
	case mayBoolNone:
		return []byte("null"), nil
	default:
		panic("Unknown state. This is a bug.")
	}
}

func (self *MayBool) UnmarshalJSON(data []byte) error {
	return self.fromString(string(data))
}

func (self *MayBool) UnmarshalYAML(unmarshal func(any) error) error {
	var v *bool
	if err := unmarshal(&v); err != nil {
		return err
	}
	*self = NewMayBool(v)
	return nil
}

func (self *MayBool) fromString(str string) error {
	switch str {
	case "true":
		*self = True()
	case "false":
		*self = False()
	case "null", "none", "":
		*self = None()
	default:
		return fmt.Errorf("Unknown value %q", str)
	}
	return nil
}
