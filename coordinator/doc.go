// Package coordinator provides the sandbox façade.
//
// The coordinator walks each request through validation, policy decision,
// execution, and classification, guaranteeing exactly one structured
// outcome per request. Rejected requests never consume an execution
// context; policy denials and unapproved approval-required requests fail
// closed. There is no retry, deduplication, or caching: every invocation
// is an independent request with a fresh identity.
package coordinator
