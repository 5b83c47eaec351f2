// Package issues filters diagnostic strings against an ignore list.
//
// An [IgnoreList] is an ordered set of literal substrings. A diagnostic that
// contains any entry verbatim is suppressed; the survivors are counted and
// joined into the issue text handed to the analysis prompts.
package issues
