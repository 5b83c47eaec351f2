// Package providers implements the Backend interface for each supported
// completion service.
//
// Supported backends: OpenAI, Google Gemini (through the genai SDK), Anthropic
// (Claude), and the default code server, which is either the form-encoded
// in-house endpoint or a local OpenAI-compatible server such as Ollama.
//
// Requests are never retried. Non-success responses surface as
// [*StatusError] or [*AuthError] so callers can log them and move on.
//
// Use [Select] to obtain the backend a run should use from its credentials.
package providers
