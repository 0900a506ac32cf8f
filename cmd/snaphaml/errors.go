package main

import "errors"

// Sentinel errors for command operations
var (
	ErrNoTemplates       = errors.New("no templates found")
	ErrUnsupportedOutput = errors.New("unsupported output format")
	ErrValidationFailed  = errors.New("validation failed")
)
