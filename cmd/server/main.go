// Package main is the entry point for the runbox MCP server.
//
// The runbox server implements a secure Model Context Protocol (MCP)
// server that executes untrusted Python code and package installations in
// isolated, resource-bounded sandboxes. Requests flow through validation,
// a policy engine with deny and suspicious rule lists, the execution
// envelope, and outcome classification. The server supports both stdio and
// HTTP transports.
//
// The application uses Uber's fx framework for dependency injection and
// lifecycle management, with zap for structured logging and viper for
// configuration.
package main

import (
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/isdmx/runbox/config"
	"github.com/isdmx/runbox/coordinator"
	"github.com/isdmx/runbox/logger"
	"github.com/isdmx/runbox/mcpserver"
	"github.com/isdmx/runbox/policy"
	"github.com/isdmx/runbox/sandbox"
	"github.com/isdmx/runbox/validate"
)

func main() {
	app := fx.New(
		// Provide dependencies
		fx.Provide(
			// Config
			config.New,

			// Logger with configuration
			logger.NewFromConfig,

			// Request validator
			validate.NewFromConfig,

			// Policy engine over the configured rule sets
			policy.NewEngineFromConfig,

			// Execution envelope based on config
			sandbox.NewExecutor,

			// Sandbox coordinator
			coordinator.New,

			// MCP Server
			mcpserver.New,
		),

		// Start the appropriate transport based on config
		fx.Invoke(
			func(cfg *config.Config, server *mcpserver.MCPServer) {
				switch cfg.Server.Transport {
				case "stdio":
					go func() {
						if err := server.ServeStdio(); err != nil {
							panic(err)
						}
					}()
				case "http":
					go func() {
						if err := server.ServeHTTP(); err != nil {
							panic(err)
						}
					}()
				default:
					panic("unsupported transport: " + cfg.Server.Transport)
				}
			},
		),

		// Use the application logger for fx logs
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
	)

	// Start the application
	app.Run()
}
