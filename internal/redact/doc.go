// Package redact removes secrets from unit text before it is sent to any
// backend.
//
// Detection uses regex heuristics covering common secret shapes: API keys,
// JWTs, private keys, AWS access key IDs and secret access keys, bearer
// tokens, credentials in connection strings, and provider-specific tokens
// (Anthropic, OpenAI, Google, GitHub, Slack).
//
// Path-based redaction is also supported: units from files whose paths match
// configured glob patterns have their entire text replaced with [REDACTED]
// rather than being scanned line by line.
package redact
