package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/isdmx/runbox/config"
)

// Rules holds the static rule sets the engine decides against. The value
// is immutable after construction; hot-reloading would require building a
// fresh Engine and swapping it atomically, never mutating in place.
type Rules struct {
	// Deny lists package names that must never be installed.
	Deny []string `yaml:"deny"`

	// DenyPatterns lists regular expressions extending the deny list.
	DenyPatterns []string `yaml:"deny_patterns"`

	// Suspicious lists package names permitted only with explicit approval,
	// flagged for typosquatting risk, native code, or network capability.
	Suspicious []string `yaml:"suspicious"`

	// SuspiciousPatterns lists regular expressions extending the
	// suspicious list.
	SuspiciousPatterns []string `yaml:"suspicious_patterns"`
}

// DefaultRules returns the built-in rule sets: known-malicious package
// names and packages that warrant extra scrutiny before installation.
func DefaultRules() Rules {
	return Rules{
		Deny: []string{
			"crypto-locker",
			"pythonapi",
			"python-api",
			"system",
			"snake",
		},
		Suspicious: []string{
			"cryptography",
			"crypto",
			"requests",
			"urllib3",
			"socket",
			"subprocess",
		},
	}
}

// NewEngineFromConfig loads the rule sets named by the application
// configuration and builds an Engine over them.
func NewEngineFromConfig(cfg *config.Config) (*Engine, error) {
	rules, err := LoadRules(cfg.Policy.RulesFile)
	if err != nil {
		return nil, err
	}
	return NewEngine(rules)
}

// LoadRules reads rule sets from a YAML file. An empty path selects the
// built-in defaults.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read rules file: %w", err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}

	return rules, nil
}
