package config

import (
	"fmt"
	"regexp"
	"strings"
)

// componentPattern allows identifier-like names only. Component names become
// directory and file names under the output tree, so separators and dots are rejected
// to keep every split build inside its own subdirectory.
var componentPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// validateComponent validates that a component name is a safe single path segment.
func validateComponent(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidComponent)
	}

	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q must not contain path separators", ErrInvalidComponent, name)
	}

	if !componentPattern.MatchString(name) {
		return fmt.Errorf("%w: %q must start with a letter and contain only alphanumeric, dash or underscore", ErrInvalidComponent, name)
	}

	return nil
}

// validateComponentList validates every name in a list and rejects duplicates.
func validateComponentList(list string, names []string) error {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if err := validateComponent(name); err != nil {
			return fmt.Errorf("%s: %w", list, err)
		}
		if seen[name] {
			return fmt.Errorf("%s: %w: %q", list, ErrDuplicateComponent, name)
		}
		seen[name] = true
	}
	return nil
}
