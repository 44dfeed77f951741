package config

import "errors"

var (
	// ErrUnknownMode indicates the build mode is not one of the supported framework versions
	ErrUnknownMode = errors.New("unknown build mode")
	// ErrUnknownFormat indicates the output format is not supported by the bundler
	ErrUnknownFormat = errors.New("unknown output format")
	// ErrInvalidComponent indicates a component name cannot be used as a directory or file name
	ErrInvalidComponent = errors.New("invalid component name")
	// ErrDuplicateComponent indicates a component is listed more than once for the same output directory
	ErrDuplicateComponent = errors.New("duplicate component name")
)
