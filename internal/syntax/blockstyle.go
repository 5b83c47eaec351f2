package syntax

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
)

// grammar describes the declarations of a block-style language.
type grammar struct {
	lang     Language
	language func() *sitter.Language
	// classes lists node types that declare a type.
	classes map[string]bool
	// funcs maps node types that declare a function to their key keyword.
	funcs map[string]string
}

var grammars = map[Language]*grammar{
	Python: {
		lang:     Python,
		language: python.GetLanguage,
		classes:  map[string]bool{"class_definition": true},
		funcs:    map[string]string{"function_definition": "def"},
	},
	JavaScript: {
		lang:     JavaScript,
		language: javascript.GetLanguage,
		classes:  map[string]bool{"class_declaration": true},
		funcs: map[string]string{
			"function_declaration":           "function",
			"generator_function_declaration": "function*",
			"method_definition":              "method",
		},
	},
}

func parseBlock(ctx context.Context, g *grammar, path string, src []byte) (*File, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(g.language())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	defer tree.Close()

	file := newFile(path, g.lang, src)
	root := tree.RootNode()
	g.collect(file, root, "")
	syntaxErrors(file, root)
	sortDecls(file.Decls)
	file.SortDiagnostics()
	return file, nil
}

// collect walks n in pre-order. Declarations nested in a class are
// qualified with the class name.
func (g *grammar) collect(file *File, n *sitter.Node, scope string) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		typ := child.Type()
		nameNode := child.ChildByFieldName("name")

		switch {
		case g.classes[typ] && nameNode != nil:
			name := qualify(scope, nameNode.Content(file.Src))
			file.Decls = append(file.Decls, &Decl{
				Kind:  KindType,
				Name:  name,
				Key:   "class " + name,
				Spans: []Span{nodeSpan(file, child)},
				Text:  child.Content(file.Src),
			})
			g.collect(file, child, name)
			continue

		case g.funcs[typ] != "" && nameNode != nil:
			name := qualify(scope, nameNode.Content(file.Src))
			fn := &Decl{
				Kind:  KindFunc,
				Name:  name,
				Key:   g.funcs[typ] + " " + name,
				Spans: []Span{nodeSpan(file, child)},
				Text:  child.Content(file.Src),
			}
			if body := child.ChildByFieldName("body"); body != nil {
				fn.Body = body.Content(file.Src)
				fn.Shape = leafShape(body, file.Src)
			}
			file.Decls = append(file.Decls, fn)
			g.collect(file, child, name)
			continue
		}
		g.collect(file, child, scope)
	}
}

func qualify(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + "." + name
}

func nodeSpan(file *File, n *sitter.Node) Span {
	return Span{
		Start: file.PositionAt(int(n.StartByte())),
		End:   file.PositionAt(int(n.EndByte())),
	}
}

// leafShape joins the leaf tokens under n, skipping comments.
func leafShape(n *sitter.Node, src []byte) string {
	var b strings.Builder
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n.Type() == "comment" {
			return
		}
		if n.ChildCount() == 0 {
			b.WriteString(n.Content(src))
			b.WriteByte(' ')
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(n)
	return b.String()
}

// syntaxErrors records ERROR and MISSING nodes. The parser recovers past
// errors, so one bad statement does not hide the rest of the file.
func syntaxErrors(file *File, root *sitter.Node) {
	if !root.HasError() {
		return
	}
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		switch {
		case n.IsMissing():
			p := n.StartPoint()
			file.AddDiagnostic(int(p.Row)+1, int(p.Column)+1, SeverityError, fmt.Sprintf("missing %q", n.Type()), "")
			return
		case n.IsError():
			p := n.StartPoint()
			file.AddDiagnostic(int(p.Row)+1, int(p.Column)+1, SeverityError, "syntax error near "+excerpt(n.Content(file.Src)), "")
			return
		}
		if !n.HasError() {
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
}

func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > 40 {
		s = s[:40] + "..."
	}
	return fmt.Sprintf("%q", s)
}
