package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Sandbox SandboxConfig `mapstructure:"sandbox"`
	Policy  PolicyConfig  `mapstructure:"policy"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Transport string `mapstructure:"transport"`
	HTTPPort  int    `mapstructure:"http_port"`
}

// SandboxConfig holds execution envelope configuration
type SandboxConfig struct {
	Backend              string `mapstructure:"backend"`
	CodeTimeoutMs        int    `mapstructure:"code_timeout_ms"`
	InstallTimeoutMs     int    `mapstructure:"install_timeout_ms"`
	MemoryMB             int    `mapstructure:"memory_mb"`
	CPUSeconds           int    `mapstructure:"cpu_seconds"`
	MaxOutputBytes       int    `mapstructure:"max_output_bytes"`
	MaxPayloadBytes      int    `mapstructure:"max_payload_bytes"`
	WorkspaceRoot        string `mapstructure:"workspace_root"`
	PythonImage          string `mapstructure:"python_image"`
	PythonBinary         string `mapstructure:"python_binary"`
	PipBinary            string `mapstructure:"pip_binary"`
	EnableProcessBackend bool   `mapstructure:"enable_process_backend"`
}

// PolicyConfig holds policy engine configuration
type PolicyConfig struct {
	RulesFile          string `mapstructure:"rules_file"`
	PackageNamePattern string `mapstructure:"package_name_pattern"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// New loads and validates the application configuration
func New() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set default values
	viper.SetDefault("server.transport", "stdio")
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("sandbox.backend", "docker")
	viper.SetDefault("sandbox.code_timeout_ms", 5000)
	viper.SetDefault("sandbox.install_timeout_ms", 60000)
	viper.SetDefault("sandbox.memory_mb", 512)
	viper.SetDefault("sandbox.cpu_seconds", 5)
	viper.SetDefault("sandbox.max_output_bytes", 65536)
	viper.SetDefault("sandbox.max_payload_bytes", 131072)
	viper.SetDefault("sandbox.workspace_root", "")
	viper.SetDefault("sandbox.python_image", "python:3.11-slim")
	viper.SetDefault("sandbox.python_binary", "python3")
	viper.SetDefault("sandbox.pip_binary", "pip")
	viper.SetDefault("sandbox.enable_process_backend", false)
	viper.SetDefault("policy.rules_file", "")
	viper.SetDefault("policy.package_name_pattern", `^[a-zA-Z0-9._-]+$`)
	viper.SetDefault("logging.mode", "production")
	viper.SetDefault("logging.level", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, continue with defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	if c.Server.Transport != "stdio" && c.Server.Transport != "http" {
		return fmt.Errorf("invalid server.transport: %s, must be 'stdio' or 'http'", c.Server.Transport)
	}

	if c.Sandbox.CodeTimeoutMs <= 0 {
		return fmt.Errorf("sandbox.code_timeout_ms must be positive, got: %d", c.Sandbox.CodeTimeoutMs)
	}

	if c.Sandbox.InstallTimeoutMs <= 0 {
		return fmt.Errorf("sandbox.install_timeout_ms must be positive, got: %d", c.Sandbox.InstallTimeoutMs)
	}

	if c.Sandbox.MemoryMB <= 0 {
		return fmt.Errorf("sandbox.memory_mb must be positive, got: %d", c.Sandbox.MemoryMB)
	}

	if c.Sandbox.MaxOutputBytes <= 0 {
		return fmt.Errorf("sandbox.max_output_bytes must be positive, got: %d", c.Sandbox.MaxOutputBytes)
	}

	if c.Sandbox.MaxPayloadBytes <= 0 {
		return fmt.Errorf("sandbox.max_payload_bytes must be positive, got: %d", c.Sandbox.MaxPayloadBytes)
	}

	if c.Logging.Mode != "production" && c.Logging.Mode != "development" {
		return fmt.Errorf("invalid logging.mode: %s, must be 'production' or 'development'", c.Logging.Mode)
	}

	supportedBackends := map[string]bool{
		"docker":  true,
		"process": c.Sandbox.EnableProcessBackend, // process only enabled if specifically allowed
	}

	if !supportedBackends[c.Sandbox.Backend] {
		return fmt.Errorf("unsupported sandbox.backend: %s", c.Sandbox.Backend)
	}

	return nil
}

// CodeTimeout returns the code execution timeout as a duration
func (c *Config) CodeTimeout() time.Duration {
	return time.Duration(c.Sandbox.CodeTimeoutMs) * time.Millisecond
}

// InstallTimeout returns the package installation timeout as a duration
func (c *Config) InstallTimeout() time.Duration {
	return time.Duration(c.Sandbox.InstallTimeoutMs) * time.Millisecond
}
