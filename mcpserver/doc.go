// Package mcpserver provides the Model Context Protocol (MCP) server implementation.
//
// The mcpserver package exposes the sandbox's two operations as MCP tools:
// execute_code runs untrusted Python in an isolated sandbox, and
// install_package installs a package subject to the policy engine. Both
// return the classified outcome as structured JSON content.
//
// The server supports both stdio and HTTP transports as configured by the
// application configuration.
//
// Usage:
//
//	server, err := mcpserver.New(config, logger, coordinator)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = server.ServeStdio() // or server.ServeHTTP()
package mcpserver
