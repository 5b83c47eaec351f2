// Package prompts holds the prompt templates sent to analysis backends.
//
// Templates are organized by language (English, German) and detail level
// (concise, detailed). A [Catalog] is loaded once per job and treated as
// immutable afterwards; catalogs read from YAML fall back to the built-in
// templates for every entry they leave empty.
package prompts
