// Package logging builds the zap logger shared by every codeward component.
//
// Records go to stderr with a console encoder so they never interleave with
// the status lines and reports written to stdout.
package logging
