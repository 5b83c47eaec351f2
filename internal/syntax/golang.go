package syntax

import (
	"errors"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"runtime"
	"strings"
)

// parseGo compiles a single Go file in isolation. Imports are resolved from
// source; anything else the file references lives outside the compilation
// and shows up as an error. Without check only the syntax is examined.
func parseGo(path string, src []byte, check bool) *File {
	file := newFile(path, Go, src)
	fset := token.NewFileSet()
	af, err := parser.ParseFile(fset, path, src, parser.ParseComments|parser.AllErrors)
	var list scanner.ErrorList
	if errors.As(err, &list) {
		for _, e := range list {
			file.AddDiagnostic(e.Pos.Line, e.Pos.Column, SeverityError, e.Msg, "")
		}
	} else if err != nil {
		file.AddDiagnostic(1, 1, SeverityError, err.Error(), "")
	}
	if af == nil || af.Name == nil || af.Name.Name == "" {
		file.SortDiagnostics()
		return file
	}
	if !check {
		file.Decls = goDecls(fset, af, src)
		file.SortDiagnostics()
		return file
	}

	info := NewTypesInfo()
	typeErrors := 0
	conf := types.Config{
		Importer:    importer.ForCompiler(fset, "source", nil),
		FakeImportC: true,
		Error: func(err error) {
			var te types.Error
			if !errors.As(err, &te) {
				return
			}
			p := te.Fset.Position(te.Pos)
			file.AddDiagnostic(p.Line, p.Column, SeverityError, te.Msg, "")
			typeErrors++
		},
	}
	pkg, _ := conf.Check(af.Name.Name, fset, []*ast.File{af}, info)

	if err == nil && typeErrors == 0 && pkg != nil {
		gp := GoPackage{
			Fset:  fset,
			Files: []*ast.File{af},
			Types: pkg,
			Info:  info,
			Sizes: types.SizesFor("gc", runtime.GOARCH),
		}
		gp.Analyze(func(pos token.Position, analyzer, msg string) {
			file.AddDiagnostic(pos.Line, pos.Column, SeverityWarning, msg, analyzer)
		})
	}

	file.Decls = goDecls(fset, af, src)
	file.SortDiagnostics()
	return file
}

// NewGoFile builds a File from a syntax tree the caller already parsed and
// type-checked. Diagnostics are left to the caller.
func NewGoFile(fset *token.FileSet, af *ast.File, src []byte, path string) *File {
	file := newFile(path, Go, src)
	file.Decls = goDecls(fset, af, src)
	return file
}

// NewTypesInfo returns a types.Info with every map the analysis passes read.
func NewTypesInfo() *types.Info {
	return &types.Info{
		Types:        make(map[ast.Expr]types.TypeAndValue),
		Instances:    make(map[*ast.Ident]types.Instance),
		Defs:         make(map[*ast.Ident]types.Object),
		Uses:         make(map[*ast.Ident]types.Object),
		Implicits:    make(map[ast.Node]types.Object),
		Selections:   make(map[*ast.SelectorExpr]*types.Selection),
		Scopes:       make(map[ast.Node]*types.Scope),
		FileVersions: make(map[*ast.File]string),
	}
}

func goDecls(fset *token.FileSet, af *ast.File, src []byte) []*Decl {
	pos := func(p token.Pos) Pos {
		pp := fset.Position(p)
		return Pos{Offset: pp.Offset, Line: pp.Line, Col: pp.Column}
	}
	text := func(s Span) string {
		if s.Start.Offset < 0 || s.End.Offset > len(src) || s.Start.Offset > s.End.Offset {
			return ""
		}
		return string(src[s.Start.Offset:s.End.Offset])
	}

	type method struct {
		recv ast.Expr
		decl *Decl
	}
	var decls []*Decl
	typeDecls := make(map[string]*Decl)
	var methods []method

	for _, d := range af.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			start := d.Pos()
			if d.Doc != nil {
				start = d.Doc.Pos()
			}
			span := Span{Start: pos(start), End: pos(d.End())}
			name := d.Name.Name
			if d.Recv != nil && len(d.Recv.List) > 0 {
				name = "(" + types.ExprString(d.Recv.List[0].Type) + ")." + name
			}
			fn := &Decl{
				Kind:  KindFunc,
				Name:  name,
				Key:   name + "(" + formatParams(d.Type) + ")",
				Spans: []Span{span},
				Text:  text(span),
			}
			if d.Body != nil {
				body := Span{Start: pos(d.Body.Lbrace), End: pos(d.Body.Rbrace + 1)}
				fn.Body = text(body)
				fn.Shape = goShape([]byte(fn.Body))
			}
			if d.Recv != nil && len(d.Recv.List) > 0 {
				methods = append(methods, method{recv: d.Recv.List[0].Type, decl: fn})
			}
			decls = append(decls, fn)

		case *ast.GenDecl:
			if d.Tok != token.TYPE {
				continue
			}
			for _, spec := range d.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				var node ast.Node = ts
				var doc *ast.CommentGroup = ts.Doc
				if len(d.Specs) == 1 {
					node, doc = d, d.Doc
				}
				start := node.Pos()
				if doc != nil {
					start = doc.Pos()
				}
				span := Span{Start: pos(start), End: pos(node.End())}
				td := &Decl{
					Kind:  KindType,
					Name:  ts.Name.Name,
					Key:   "type " + ts.Name.Name,
					Spans: []Span{span},
					Text:  text(span),
				}
				typeDecls[ts.Name.Name] = td
				decls = append(decls, td)
			}
		}
	}

	// A type unit also covers the methods declared on it in this file.
	for _, m := range methods {
		td, ok := typeDecls[receiverBase(m.recv)]
		if !ok {
			continue
		}
		td.Spans = append(td.Spans, m.decl.Spans[0])
		td.Text += "\n\n" + m.decl.Text
	}

	sortDecls(decls)
	return decls
}

func formatParams(ft *ast.FuncType) string {
	if ft == nil || ft.Params == nil {
		return ""
	}
	var parts []string
	for _, field := range ft.Params.List {
		typ := types.ExprString(field.Type)
		if len(field.Names) == 0 {
			parts = append(parts, typ)
			continue
		}
		for _, n := range field.Names {
			parts = append(parts, n.Name+" "+typ)
		}
	}
	return strings.Join(parts, ", ")
}

func receiverBase(expr ast.Expr) string {
	for {
		switch e := expr.(type) {
		case *ast.StarExpr:
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		case *ast.IndexExpr:
			expr = e.X
		case *ast.IndexListExpr:
			expr = e.X
		case *ast.Ident:
			return e.Name
		default:
			return ""
		}
	}
}

// goShape reduces a body to its token sequence. Comments, whitespace and
// semicolons (inserted or explicit) do not take part.
func goShape(body []byte) string {
	fset := token.NewFileSet()
	tf := fset.AddFile("", -1, len(body))
	var s scanner.Scanner
	s.Init(tf, body, nil, 0)

	var b strings.Builder
	for {
		_, tok, lit := s.Scan()
		if tok == token.EOF {
			break
		}
		if tok == token.SEMICOLON {
			continue
		}
		if lit != "" {
			b.WriteString(lit)
		} else {
			b.WriteString(tok.String())
		}
		b.WriteByte(' ')
	}
	return b.String()
}
