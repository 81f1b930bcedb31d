package core

import (
	"errors"
	"fmt"
)

// MalformedKeyError reports a key whose family or qualifier cannot be split
// into the components its shape requires.
type MalformedKeyError struct {
	Shape   string // "event", "field index" or "term frequency"
	Part    string // "column family" or "column qualifier"
	Key     string
	Message string
}

func (e *MalformedKeyError) Error() string {
	return fmt.Sprintf("malformed %s key %s: %s %s", e.Shape, e.Key, e.Part, e.Message)
}

// ConfigurationConflictError reports settings that cannot be honoured together.
type ConfigurationConflictError struct {
	Setting string
	Message string
}

func (e *ConfigurationConflictError) Error() string {
	return fmt.Sprintf("configuration conflict for %s: %s", e.Setting, e.Message)
}

// IsMalformedKeyError checks if an error is a MalformedKeyError.
func IsMalformedKeyError(err error) bool {
	var target *MalformedKeyError
	return errors.As(err, &target)
}

func IsConfigurationConflictError(err error) bool {
	var target *ConfigurationConflictError
	return errors.As(err, &target)
}
