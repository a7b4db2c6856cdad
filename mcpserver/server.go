// Package mcpserver provides the Model Context Protocol (MCP) server implementation.
//
// The mcpserver package implements an MCP-compliant server that exposes the
// sandbox's two operations, execute_code and install_package, using the
// mark3labs/mcp-go library to handle the protocol details.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/isdmx/runbox/classify"
	"github.com/isdmx/runbox/config"
	"github.com/isdmx/runbox/coordinator"
)

// MCPServer represents the MCP server
type MCPServer struct {
	config      *config.Config
	logger      *zap.Logger
	coordinator *coordinator.Coordinator
	mcpServer   *server.MCPServer
}

// outcomeResponse is the JSON shape returned to the MCP client.
type outcomeResponse struct {
	Status     string             `json:"status"`
	Stdout     string             `json:"stdout"`
	Stderr     string             `json:"stderr"`
	Detail     string             `json:"detail,omitempty"`
	Traceback  *tracebackResponse `json:"traceback,omitempty"`
	Truncated  bool               `json:"truncated,omitempty"`
	DurationMs int64              `json:"duration_ms"`
}

type tracebackResponse struct {
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Frames  []frameResponse `json:"frames,omitempty"`
}

type frameResponse struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function,omitempty"`
}

// New creates a new MCPServer
func New(cfg *config.Config, logger *zap.Logger, coord *coordinator.Coordinator) (*MCPServer, error) {
	s := &MCPServer{
		config:      cfg,
		logger:      logger,
		coordinator: coord,
	}

	// Log configuration parameters on startup
	logger.Info("configuration loaded",
		zap.String("server.transport", s.config.Server.Transport),
		zap.Int("server.http_port", s.config.Server.HTTPPort),
		zap.String("sandbox.backend", s.config.Sandbox.Backend),
		zap.Int("sandbox.code_timeout_ms", s.config.Sandbox.CodeTimeoutMs),
		zap.Int("sandbox.install_timeout_ms", s.config.Sandbox.InstallTimeoutMs),
		zap.Int("sandbox.memory_mb", s.config.Sandbox.MemoryMB),
		zap.Int("sandbox.max_output_bytes", s.config.Sandbox.MaxOutputBytes),
		zap.String("sandbox.python_image", s.config.Sandbox.PythonImage),
		zap.String("policy.rules_file", s.config.Policy.RulesFile),
	)

	// Create the MCP server
	s.mcpServer = server.NewMCPServer("runbox", "A secure Python execution sandbox")

	s.registerExecuteCodeTool()
	s.registerInstallPackageTool()

	return s, nil
}

// registerExecuteCodeTool registers the execute_code tool
func (s *MCPServer) registerExecuteCodeTool() {
	tool := mcp.Tool{
		Name:        "execute_code",
		Description: "Execute Python code in an isolated, resource-bounded sandbox",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"code": map[string]any{
					"type":        "string",
					"description": "Raw Python source to execute (no markdown formatting)",
				},
			},
			Required: []string{"code"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleExecuteCode)
}

// registerInstallPackageTool registers the install_package tool
func (s *MCPServer) registerInstallPackageTool() {
	tool := mcp.Tool{
		Name:        "install_package",
		Description: "Install a Python package into the sandbox environment, subject to policy",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"package": map[string]any{
					"type":        "string",
					"description": "Package name as it appears on the package index",
				},
				"version": map[string]any{
					"type":        "string",
					"description": "Exact version pin (optional; omit or 'latest' for unpinned)",
				},
			},
			Required: []string{"package"},
		},
	}

	s.mcpServer.AddTool(tool, s.handleInstallPackage)
}

// handleExecuteCode handles the execute_code tool
func (s *MCPServer) handleExecuteCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return nil, fmt.Errorf("code parameter is required: %w", err)
	}

	s.logger.Info("code execution requested", zap.Int("code_len", len(code)))

	outcome, err := s.coordinator.ExecuteCode(ctx, code)
	if err != nil {
		s.logger.Error("code execution failed internally", zap.Error(err))
	}

	return s.outcomeResult(outcome)
}

// handleInstallPackage handles the install_package tool
func (s *MCPServer) handleInstallPackage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pkg, err := request.RequireString("package")
	if err != nil {
		return nil, fmt.Errorf("package parameter is required: %w", err)
	}

	version := request.GetString("version", "")
	if version == "latest" {
		// The historical wire convention for an unpinned install.
		version = ""
	}

	s.logger.Info("package install requested",
		zap.String("package", pkg),
		zap.String("version", version))

	outcome, err := s.coordinator.InstallPackage(ctx, pkg, version)
	if err != nil {
		s.logger.Error("package install failed internally",
			zap.String("package", pkg), zap.Error(err))
	}

	return s.outcomeResult(outcome)
}

// outcomeResult serializes a classified outcome as the tool result. Every
// outcome, including rejections and internal faults, is reported as
// structured content; IsError marks only the sandbox's own failures.
func (s *MCPServer) outcomeResult(outcome classify.Outcome) (*mcp.CallToolResult, error) {
	resp := outcomeResponse{
		Status:     outcome.Status.String(),
		Stdout:     outcome.Stdout,
		Stderr:     outcome.Stderr,
		Detail:     outcome.Detail,
		Truncated:  outcome.Truncated,
		DurationMs: outcome.Duration.Milliseconds(),
	}

	if outcome.Traceback != nil {
		tb := &tracebackResponse{
			Type:    outcome.Traceback.Type,
			Message: outcome.Traceback.Message,
		}
		for _, frame := range outcome.Traceback.Frames {
			tb.Frames = append(tb.Frames, frameResponse{
				File:     frame.File,
				Line:     frame.Line,
				Function: frame.Function,
			})
		}
		resp.Traceback = tb
	}

	payload, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize outcome: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: string(payload),
			},
		},
		IsError: outcome.Status == classify.StatusInternalError,
	}, nil
}

// ServeStdio starts the server on stdio
func (s *MCPServer) ServeStdio() error {
	s.logger.Info("starting MCP server on stdio")
	return server.ServeStdio(s.mcpServer)
}

// ServeHTTP starts the server on HTTP
func (s *MCPServer) ServeHTTP() error {
	port := s.config.Server.HTTPPort
	s.logger.Info("starting MCP server on HTTP", zap.Int("port", port))

	httpServer := server.NewStreamableHTTPServer(s.mcpServer)
	return httpServer.Start(fmt.Sprintf(":%d", port))
}

// GetMCPServer returns the underlying MCP server
func (s *MCPServer) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}
