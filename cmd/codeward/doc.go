// Codeward sends source code to language-model backends for review.
//
// It splits folders, projects or single files into classes, functions or the
// methods changed since the last commit, attaches filtered compiler
// diagnostics, and logs one answer per unit and model. A shared lock keeps
// concurrent runs from flooding a single code server.
//
// Usage:
//
//	codeward run nightly.toml             # run every job in a job file
//	codeward analyze ./src                # analyze a folder with the global config
//	codeward analyze -g git-diff .        # analyze methods changed since HEAD
//	codeward analyze --lang go -          # analyze source read from stdin
//	codeward lock status                  # show who holds the shared lock
//	codeward job init nightly.toml        # write a job file template
package main
