// Package main is the entry point for the runbox MCP server.
//
// The runbox server executes untrusted Python code and package
// installations in isolated, resource-bounded sandboxes, returning
// structured, classified outcomes over MCP stdio or HTTP transports.
//
// The application uses Uber's fx framework for dependency injection and
// lifecycle management, with zap for structured logging and viper for
// configuration.
package main
