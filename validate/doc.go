// Package validate provides request validation for the sandbox.
//
// The validate package rejects structurally invalid submissions before any
// execution resource is consumed: empty or oversized payloads, code wrapped
// in markdown fence delimiters, and package names that do not match the
// restrictive identifier pattern. Validation never parses or executes the
// payload and has no access to the execution envelope.
package validate
