package catalog

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrFieldNameFormat is returned when a field name could never match a
	// {placeholder} in a prompt.
	ErrFieldNameFormat = errors.New("field name must match [A-Za-z0-9_]+")

	// ErrFieldNameReserved is returned for names the workspace form already
	// posts for its own controls.
	ErrFieldNameReserved = errors.New("field name is reserved")

	fieldNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

	reservedFieldNames = map[string]bool{
		"title":    true,
		"language": true,
		"tone":     true,
		"content":  true,
	}
)

// ValidateFieldName checks that name is non-empty, usable as a placeholder
// and not reserved.
func ValidateFieldName(name string) error {
	if name == "" {
		return ErrEmptyFieldName
	}
	if !fieldNameRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrFieldNameFormat, name)
	}
	if reservedFieldNames[name] {
		return fmt.Errorf("%w: %q", ErrFieldNameReserved, name)
	}
	return nil
}
