// Package workspace loads an analysis target into parsed, diagnosed files.
//
// A target is a folder, a go.mod file (its module folder), a single source
// file, or source text read from stdin. Go modules are loaded with
// golang.org/x/tools/go/packages so diagnostics reflect the whole package;
// single files are compiled in isolation. Python and JavaScript files are
// grouped into one project per language.
package workspace
