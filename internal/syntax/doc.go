// Package syntax turns source files into declarations and diagnostics.
//
// Go files are declaration-style: a function is keyed by its receiver, name
// and formatted parameter list, and diagnostics come from go/types and a
// fixed set of go/analysis passes. Python and JavaScript are block-style:
// tree-sitter supplies the declarations, keyed by keyword and name, and
// reports syntax errors as diagnostics.
//
// Every [Decl] carries the data change detection needs: its signature key,
// the raw body text and a normalized shape used for structural equivalence.
package syntax
