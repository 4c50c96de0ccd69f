package recipes

import (
	"errors"
	"fmt"
)

// ErrNoRecipes is returned when an index is built from an empty record set.
var ErrNoRecipes = errors.New("no upgrade recipes to index")

// ConfigurationError reports a record set that cannot be indexed. It is
// only ever produced while building an index, never by queries.
type ConfigurationError struct {
	Source string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("recipe index configuration: %v", e.Err)
	}
	return fmt.Sprintf("recipe index configuration (%s): %v", e.Source, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}
