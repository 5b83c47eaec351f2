package syntax

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Language identifies a supported source language.
type Language string

const (
	Go         Language = "go"
	Python     Language = "python"
	JavaScript Language = "javascript"
)

var extensions = map[string]Language{
	".go":  Go,
	".py":  Python,
	".js":  JavaScript,
	".mjs": JavaScript,
	".cjs": JavaScript,
}

// LanguageFor returns the language of path by extension.
func LanguageFor(path string) (Language, bool) {
	lang, ok := extensions[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// Recognized reports whether path has a supported source extension.
func Recognized(path string) bool {
	_, ok := LanguageFor(path)
	return ok
}

// Extension returns the canonical file extension for lang.
func (l Language) Extension() string {
	switch l {
	case Python:
		return ".py"
	case JavaScript:
		return ".js"
	default:
		return ".go"
	}
}

// ParseLanguage accepts a language name or a file extension.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "go", "golang":
		return Go, nil
	case "py", "python":
		return Python, nil
	case "js", "mjs", "cjs", "javascript", "node":
		return JavaScript, nil
	default:
		return "", fmt.Errorf("unsupported language %q (supported: go, python, javascript)", s)
	}
}

// Pos is a resolved position. Line and Col are 1-based; Col counts bytes.
type Pos struct {
	Offset int
	Line   int
	Col    int
}

// Span is the byte range [Start, End) of a declaration.
type Span struct {
	Start Pos
	End   Pos
}

// Contains reports whether p falls inside s. A position on the closing
// byte belongs to the span.
func (s Span) Contains(p Pos) bool {
	return p.Offset >= s.Start.Offset && p.Offset <= s.End.Offset
}

// DeclKind separates type-level from function-level declarations.
type DeclKind int

const (
	KindType DeclKind = iota + 1
	KindFunc
)

func (k DeclKind) String() string {
	switch k {
	case KindType:
		return "type"
	case KindFunc:
		return "func"
	default:
		return "unknown"
	}
}

// Decl is one declaration found in a file.
type Decl struct {
	Kind DeclKind
	// Name is the display name, e.g. "Server", "(*Server).Start" or "Greeter.hello".
	Name string
	// Key matches a function across two revisions of the same file.
	Key string
	// Spans lists the ranges the declaration covers. The first is primary; Go
	// types add one span per method declared on them in the same file.
	Spans []Span
	// Text is the declaration source, leading comments included.
	Text string
	// Body is the raw body text of a function, empty for types.
	Body string
	// Shape is the body with formatting and comments normalized away.
	Shape string
}

// Covers reports whether p lies in any span of d.
func (d *Decl) Covers(p Pos) bool {
	for _, s := range d.Spans {
		if s.Contains(p) {
			return true
		}
	}
	return false
}

// Equivalent reports whether d and other have structurally equal bodies.
func (d *Decl) Equivalent(other *Decl) bool {
	return d.Shape == other.Shape
}

// Severity of a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one compiler or analyzer finding.
type Diagnostic struct {
	Path     string
	Pos      Pos
	Severity Severity
	Message  string
	// Source names the analyzer that produced the finding, empty for
	// compiler errors.
	Source string
}

func (d Diagnostic) String() string {
	s := fmt.Sprintf("%s:%d:%d: %s: %s", d.Path, d.Pos.Line, d.Pos.Col, d.Severity, d.Message)
	if d.Source != "" {
		s += " [" + d.Source + "]"
	}
	return s
}

// File is a parsed source file.
type File struct {
	// Path is the display path, relative to the workspace root when known.
	Path string
	Lang Language
	Src  []byte
	// Decls are in source order of their primary span.
	Decls       []*Decl
	Diagnostics []Diagnostic

	lineStarts []int
}

func newFile(path string, lang Language, src []byte) *File {
	f := &File{Path: path, Lang: lang, Src: src, lineStarts: []int{0}}
	for i, b := range src {
		if b == '\n' {
			f.lineStarts = append(f.lineStarts, i+1)
		}
	}
	return f
}

// Position resolves a 1-based line and column into a Pos.
func (f *File) Position(line, col int) Pos {
	if line < 1 {
		line = 1
	}
	if col < 1 {
		col = 1
	}
	if line > len(f.lineStarts) {
		return Pos{Offset: len(f.Src), Line: line, Col: col}
	}
	off := f.lineStarts[line-1] + col - 1
	if off > len(f.Src) {
		off = len(f.Src)
	}
	return Pos{Offset: off, Line: line, Col: col}
}

// PositionAt resolves a byte offset into a Pos.
func (f *File) PositionAt(offset int) Pos {
	if offset < 0 {
		offset = 0
	}
	if offset > len(f.Src) {
		offset = len(f.Src)
	}
	i := sort.Search(len(f.lineStarts), func(i int) bool { return f.lineStarts[i] > offset }) - 1
	return Pos{Offset: offset, Line: i + 1, Col: offset - f.lineStarts[i] + 1}
}

// AddDiagnostic records a finding at line:col.
func (f *File) AddDiagnostic(line, col int, sev Severity, msg, source string) {
	f.Diagnostics = append(f.Diagnostics, Diagnostic{
		Path:     f.Path,
		Pos:      f.Position(line, col),
		Severity: sev,
		Message:  msg,
		Source:   source,
	})
}

// SortDiagnostics orders diagnostics by position, keeping insertion order
// for findings at the same place.
func (f *File) SortDiagnostics() {
	sort.SliceStable(f.Diagnostics, func(i, j int) bool {
		return f.Diagnostics[i].Pos.Offset < f.Diagnostics[j].Pos.Offset
	})
}

// DiagnosticsIn returns the string form of every diagnostic covered by d.
func (f *File) DiagnosticsIn(d *Decl) []string {
	var out []string
	for _, diag := range f.Diagnostics {
		if d.Covers(diag.Pos) {
			out = append(out, diag.String())
		}
	}
	return out
}

// AllDiagnostics returns the string form of every diagnostic in f.
func (f *File) AllDiagnostics() []string {
	out := make([]string, 0, len(f.Diagnostics))
	for _, diag := range f.Diagnostics {
		out = append(out, diag.String())
	}
	return out
}

// Select returns the declarations of the given kind in source order.
func (f *File) Select(kind DeclKind) []*Decl {
	var out []*Decl
	for _, d := range f.Decls {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Keyed maps signature key to function declaration. When two functions share
// a key the first one wins.
func (f *File) Keyed() map[string]*Decl {
	m := make(map[string]*Decl)
	for _, d := range f.Decls {
		if d.Kind != KindFunc || d.Key == "" {
			continue
		}
		if _, dup := m[d.Key]; !dup {
			m[d.Key] = d
		}
	}
	return m
}

// ParseFile parses and checks src as a standalone compilation unit. The
// language is taken from the extension of path.
func ParseFile(ctx context.Context, path string, src []byte) (*File, error) {
	lang, ok := LanguageFor(path)
	if !ok {
		return nil, fmt.Errorf("unsupported source file: %s", path)
	}
	return Parse(ctx, lang, path, src)
}

// Parse is ParseFile with an explicit language.
func Parse(ctx context.Context, lang Language, path string, src []byte) (*File, error) {
	switch lang {
	case Go:
		return parseGo(path, src, true), nil
	case Python, JavaScript:
		return parseBlock(ctx, grammars[lang], path, src)
	default:
		return nil, fmt.Errorf("unsupported language %q", lang)
	}
}

// Outline parses src for its declarations only. Go files are not
// type-checked, so only syntax errors are reported.
func Outline(ctx context.Context, path string, src []byte) (*File, error) {
	lang, ok := LanguageFor(path)
	if !ok {
		return nil, fmt.Errorf("unsupported source file: %s", path)
	}
	if lang == Go {
		return parseGo(path, src, false), nil
	}
	return parseBlock(ctx, grammars[lang], path, src)
}

func sortDecls(decls []*Decl) {
	sort.SliceStable(decls, func(i, j int) bool {
		return decls[i].Spans[0].Start.Offset < decls[j].Spans[0].Start.Offset
	})
}
