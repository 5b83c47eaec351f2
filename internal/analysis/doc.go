// Package analysis sends extracted units to a completion backend.
//
// A [Dispatcher] handles one unit at a time. For every requested model, in
// order, it builds the code-with-issues prompt, the code-only prompt, or
// both, and blocks on each backend call before moving on. Every answer is
// reported to the [Sink] as a [Message]. Failed calls are logged and never
// stop the run; requests are not retried.
package analysis
