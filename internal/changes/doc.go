// Package changes finds the functions that changed between the two most
// recent commits of a repository.
//
// Functions are matched across revisions by signature key. A key present
// only in the new revision is Added; a key in both whose bodies are not
// structurally equivalent is Modified and carries the old declaration.
// Unchanged functions and deletions are never reported.
package changes
