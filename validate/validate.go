package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/isdmx/runbox/config"
)

// Validation errors. Callers distinguish them with errors.Is; all of them
// are resolved before any execution resource is allocated.
var (
	ErrEmptyPayload       = errors.New("payload is empty")
	ErrPayloadTooLarge    = errors.New("payload exceeds maximum size")
	ErrMarkdownFence      = errors.New("payload contains markdown code fence delimiters")
	ErrInvalidPackageName = errors.New("invalid package name")
)

// Package name constraints, matching what a package index accepts as an
// identifier. Anything else is rejected before policy or execution runs.
const (
	MaxPackageNameLength = 100

	defaultPackageNamePattern = `^[a-zA-Z0-9._-]+$`
)

var fencePrefixes = []string{"```", "~~~"}

// Validator rejects structurally invalid submissions. It has no access to
// the execution envelope and never parses or runs the payload.
type Validator struct {
	maxPayloadBytes int
	packageName     *regexp.Regexp
}

// NewFromConfig builds a Validator from the application configuration.
func NewFromConfig(cfg *config.Config) (*Validator, error) {
	return New(cfg.Sandbox.MaxPayloadBytes, cfg.Policy.PackageNamePattern)
}

// New creates a Validator with the given payload size bound and package
// name pattern. An empty pattern selects the default restrictive pattern.
func New(maxPayloadBytes int, packageNamePattern string) (*Validator, error) {
	if packageNamePattern == "" {
		packageNamePattern = defaultPackageNamePattern
	}

	re, err := regexp.Compile(packageNamePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid package name pattern %q: %w", packageNamePattern, err)
	}

	return &Validator{
		maxPayloadBytes: maxPayloadBytes,
		packageName:     re,
	}, nil
}

// Code validates a code execution payload: non-empty, within the size
// bound, and free of markdown code fence delimiters. A fenced payload is a
// formatting violation, reported distinctly from a syntax error, and is
// never executed.
func (v *Validator) Code(code string) error {
	if strings.TrimSpace(code) == "" {
		return ErrEmptyPayload
	}

	if len(code) > v.maxPayloadBytes {
		return fmt.Errorf("%w: %d bytes > %d bytes", ErrPayloadTooLarge, len(code), v.maxPayloadBytes)
	}

	if hasMarkdownFence(code) {
		return fmt.Errorf("%w: submit raw source without markdown formatting", ErrMarkdownFence)
	}

	return nil
}

// Package validates a package installation request. The name must match
// the restrictive identifier pattern and stay within the length bound.
func (v *Validator) Package(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyPayload
	}

	if len(name) > MaxPackageNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidPackageName, MaxPackageNameLength)
	}

	if !v.packageName.MatchString(name) {
		return fmt.Errorf("%w: %q does not match the allowed identifier pattern", ErrInvalidPackageName, name)
	}

	return nil
}

// hasMarkdownFence reports whether the payload is wrapped in, or opens
// with, a rich-text code fence. Leading whitespace is ignored so that an
// indented fence is still caught.
func hasMarkdownFence(code string) bool {
	trimmed := strings.TrimSpace(code)
	for _, fence := range fencePrefixes {
		if strings.HasPrefix(trimmed, fence) || strings.HasSuffix(trimmed, fence) {
			return true
		}
	}
	return false
}
