// Package policy provides the sandbox's policy decision logic.
//
// The policy package decides, per request, whether a package installation
// or code execution may proceed: deny-list matches are refused, suspicious
// packages require explicit approval, everything else is allowed. Rule
// sets are fixed at engine construction and the engine itself is a pure,
// side-effect-free function over the request, safe for concurrent use.
//
// Usage:
//
//	rules, err := policy.LoadRules("rules.yaml")
//	engine, err := policy.NewEngine(rules)
//	decision := engine.Decide(policy.Request{
//	    Kind:    policy.KindPackageInstall,
//	    Package: "requests",
//	})
package policy
