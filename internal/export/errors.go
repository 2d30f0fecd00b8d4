package export

import (
	"errors"
	"fmt"
)

// ErrRowNotFound is returned by a ChunkSource when the row holding the
// column no longer exists. A vanished row is not the same as reaching the
// end of the data: the reader surfaces it instead of terminating cleanly.
var ErrRowNotFound = errors.New("export: row not found")

// ConfigurationError reports invalid reader construction inputs. It is
// surfaced immediately and never retried.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("export: invalid configuration: %s: %s", e.Field, e.Reason)
}

func configErr(field, reason string) error {
	return &ConfigurationError{Field: field, Reason: reason}
}
