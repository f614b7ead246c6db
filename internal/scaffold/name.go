package scaffold

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidName is returned for project names that cannot be used as a
// directory and crate name.
var ErrInvalidName = errors.New("invalid project name")

var namePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

// ValidateName checks that name starts with a letter and contains only
// letters, digits, hyphens and underscores.
func ValidateName(name string) error {
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w '%s': must start with a letter and contain only letters, numbers, hyphens, and underscores", ErrInvalidName, name)
	}
	return nil
}
