package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, rules Rules) *Engine {
	t.Helper()
	engine, err := NewEngine(rules)
	require.NoError(t, err)
	return engine
}

func TestDecidePackageInstall(t *testing.T) {
	engine := newEngine(t, DefaultRules())

	t.Run("DenyListMatch", func(t *testing.T) {
		decision := engine.Decide(Request{Kind: KindPackageInstall, Package: "crypto-locker"})
		assert.Equal(t, Deny, decision.Verdict)
		assert.Equal(t, "deny-list:crypto-locker", decision.MatchedRule)
		assert.NotEmpty(t, decision.Reason)
	})

	t.Run("DenyIsCaseInsensitive", func(t *testing.T) {
		decision := engine.Decide(Request{Kind: KindPackageInstall, Package: "Crypto-Locker"})
		assert.Equal(t, Deny, decision.Verdict)
	})

	t.Run("DenyRegardlessOfVersion", func(t *testing.T) {
		decision := engine.Decide(Request{Kind: KindPackageInstall, Package: "snake", Version: "1.0.0"})
		assert.Equal(t, Deny, decision.Verdict)
	})

	t.Run("SuspiciousListMatch", func(t *testing.T) {
		decision := engine.Decide(Request{Kind: KindPackageInstall, Package: "requests"})
		assert.Equal(t, RequiresApproval, decision.Verdict)
		assert.Equal(t, "suspicious-list:requests", decision.MatchedRule)
	})

	t.Run("DenyTakesPrecedenceOverSuspicious", func(t *testing.T) {
		engine := newEngine(t, Rules{
			Deny:       []string{"both"},
			Suspicious: []string{"both"},
		})
		decision := engine.Decide(Request{Kind: KindPackageInstall, Package: "both"})
		assert.Equal(t, Deny, decision.Verdict)
	})

	t.Run("UnlistedPackageAllowed", func(t *testing.T) {
		decision := engine.Decide(Request{Kind: KindPackageInstall, Package: "numpy", Version: "1.26.4"})
		assert.Equal(t, Allow, decision.Verdict)
		assert.Empty(t, decision.MatchedRule)
		assert.False(t, decision.Unpinned)
	})

	t.Run("UnpinnedInstallAllowedButFlagged", func(t *testing.T) {
		decision := engine.Decide(Request{Kind: KindPackageInstall, Package: "numpy"})
		assert.Equal(t, Allow, decision.Verdict)
		assert.True(t, decision.Unpinned)
	})

	t.Run("MalformedVersionPinDenied", func(t *testing.T) {
		for _, version := range []string{">=1.0", "1.0; rm -rf /", "latest", "1.0.0 --index-url http://evil"} {
			decision := engine.Decide(Request{Kind: KindPackageInstall, Package: "numpy", Version: version})
			assert.Equal(t, Deny, decision.Verdict, version)
			assert.Equal(t, "version-pin", decision.MatchedRule, version)
		}
	})

	t.Run("StrictVersionPinsAccepted", func(t *testing.T) {
		for _, version := range []string{"1", "1.0", "1.26.4", "2.0.0rc1", "1.0.0.post1", "3.1.2.dev4"} {
			decision := engine.Decide(Request{Kind: KindPackageInstall, Package: "numpy", Version: version})
			assert.Equal(t, Allow, decision.Verdict, version)
		}
	})
}

func TestDecidePatterns(t *testing.T) {
	engine := newEngine(t, Rules{
		DenyPatterns:       []string{`^evil-.*$`},
		SuspiciousPatterns: []string{`.*-nightly$`},
	})

	t.Run("DenyPattern", func(t *testing.T) {
		decision := engine.Decide(Request{Kind: KindPackageInstall, Package: "evil-toolkit"})
		assert.Equal(t, Deny, decision.Verdict)
		assert.Contains(t, decision.MatchedRule, "deny-pattern:")
	})

	t.Run("SuspiciousPattern", func(t *testing.T) {
		decision := engine.Decide(Request{Kind: KindPackageInstall, Package: "torch-nightly"})
		assert.Equal(t, RequiresApproval, decision.Verdict)
		assert.Contains(t, decision.MatchedRule, "suspicious-pattern:")
	})

	t.Run("NoMatch", func(t *testing.T) {
		decision := engine.Decide(Request{Kind: KindPackageInstall, Package: "pandas", Version: "2.2.0"})
		assert.Equal(t, Allow, decision.Verdict)
	})
}

func TestDecideCode(t *testing.T) {
	engine := newEngine(t, DefaultRules())

	decision := engine.Decide(Request{Kind: KindCode})
	assert.Equal(t, Allow, decision.Verdict)
	assert.NotEmpty(t, decision.Reason)
}

func TestNewEngineRejectsBadPattern(t *testing.T) {
	_, err := NewEngine(Rules{DenyPatterns: []string{"[unclosed"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid deny pattern")

	_, err = NewEngine(Rules{SuspiciousPatterns: []string{"[unclosed"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid suspicious pattern")
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "allow", Allow.String())
	assert.Equal(t, "deny", Deny.String())
	assert.Equal(t, "requires_approval", RequiresApproval.String())
	assert.Equal(t, "unknown", Verdict(42).String())
}

func TestLoadRules(t *testing.T) {
	t.Run("EmptyPathUsesDefaults", func(t *testing.T) {
		rules, err := LoadRules("")
		require.NoError(t, err)
		assert.Contains(t, rules.Deny, "crypto-locker")
		assert.Contains(t, rules.Suspicious, "requests")
	})

	t.Run("FromFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		content := `
deny:
  - badpkg
deny_patterns:
  - "^typo-.*$"
suspicious:
  - shadypkg
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0600))

		rules, err := LoadRules(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"badpkg"}, rules.Deny)
		assert.Equal(t, []string{"^typo-.*$"}, rules.DenyPatterns)
		assert.Equal(t, []string{"shadypkg"}, rules.Suspicious)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})

	t.Run("MalformedYAML", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("deny: {not a list"), 0600))

		_, err := LoadRules(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse rules file")
	})
}
