package manifest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig matches every *ConfigError.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError describes a manifest that could not be loaded.
type ConfigError struct {
	// Path is the manifest file, empty when parsed from memory
	Path string

	// Index is the repository entry at fault, or -1 for the whole document
	Index int

	// Field is the offending field within the entry, e.g. "files[0].dst"
	Field string

	Err error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("invalid configuration")
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	if e.Index >= 0 {
		fmt.Fprintf(&b, ": repo[%d]", e.Index)
		if e.Field != "" {
			b.WriteString("." + e.Field)
		}
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}
