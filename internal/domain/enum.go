package domain

import (
	"database/sql/driver"
	"fmt"
)

// enum is implemented by every string-backed domain enumeration.
type enum interface {
	~string
	IsValid() bool
}

// scanEnum reads a text column into an enum, applying def for NULL.
func scanEnum[T enum](dst *T, src interface{}, def T, name string) error {
	if src == nil {
		*dst = def
		return nil
	}

	var str string
	switch v := src.(type) {
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("cannot scan %T into %s", src, name)
	}

	*dst = T(str)
	if !(*dst).IsValid() {
		return fmt.Errorf("invalid %s value: %s", name, str)
	}
	return nil
}

func enumValue[T enum](v T, name string) (driver.Value, error) {
	if !v.IsValid() {
		return nil, fmt.Errorf("invalid %s value: %s", name, string(v))
	}
	return string(v), nil
}
