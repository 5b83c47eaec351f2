package syntax

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"os"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/assign"
	"golang.org/x/tools/go/analysis/passes/bools"
	"golang.org/x/tools/go/analysis/passes/defers"
	"golang.org/x/tools/go/analysis/passes/nilfunc"
	"golang.org/x/tools/go/analysis/passes/shift"
	"golang.org/x/tools/go/analysis/passes/stringintconv"
	"golang.org/x/tools/go/analysis/passes/unreachable"
)

// Analyzers are the vet passes whose findings become diagnostics. None of
// them depends on facts from other packages, so each package can be
// analyzed on its own.
var Analyzers = []*analysis.Analyzer{
	assign.Analyzer,
	bools.Analyzer,
	defers.Analyzer,
	nilfunc.Analyzer,
	shift.Analyzer,
	stringintconv.Analyzer,
	unreachable.Analyzer,
}

// GoPackage is a type-checked Go package.
type GoPackage struct {
	Fset  *token.FileSet
	Files []*ast.File
	Types *types.Package
	Info  *types.Info
	Sizes types.Sizes
}

// Analyze runs Analyzers over p. Findings are reported in analyzer order;
// a pass that fails or panics is skipped.
func (p GoPackage) Analyze(report func(pos token.Position, analyzer, msg string)) []error {
	r := &runner{pkg: p, results: make(map[*analysis.Analyzer]any), failed: make(map[*analysis.Analyzer]error)}
	var errs []error
	for _, a := range Analyzers {
		r.report = func(d analysis.Diagnostic) {
			report(p.Fset.Position(d.Pos), a.Name, d.Message)
		}
		if _, err := r.run(a); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

type runner struct {
	pkg     GoPackage
	results map[*analysis.Analyzer]any
	failed  map[*analysis.Analyzer]error
	report  func(analysis.Diagnostic)
}

func (r *runner) run(a *analysis.Analyzer) (any, error) {
	if res, ok := r.results[a]; ok {
		return res, nil
	}
	if err, ok := r.failed[a]; ok {
		return nil, err
	}

	deps := make(map[*analysis.Analyzer]any, len(a.Requires))
	for _, req := range a.Requires {
		res, err := r.run(req)
		if err != nil {
			r.failed[a] = err
			return nil, err
		}
		deps[req] = res
	}

	pass := &analysis.Pass{
		Analyzer:          a,
		Fset:              r.pkg.Fset,
		Files:             r.pkg.Files,
		Pkg:               r.pkg.Types,
		TypesInfo:         r.pkg.Info,
		TypesSizes:        r.pkg.Sizes,
		ResultOf:          deps,
		Report:            r.report,
		ReadFile:          os.ReadFile,
		ImportObjectFact:  func(types.Object, analysis.Fact) bool { return false },
		ExportObjectFact:  func(types.Object, analysis.Fact) {},
		ImportPackageFact: func(*types.Package, analysis.Fact) bool { return false },
		ExportPackageFact: func(analysis.Fact) {},
		AllObjectFacts:    func() []analysis.ObjectFact { return nil },
		AllPackageFacts:   func() []analysis.PackageFact { return nil },
	}

	res, err := safeRun(a, pass)
	if err != nil {
		r.failed[a] = err
		return nil, err
	}
	r.results[a] = res
	return res, nil
}

func safeRun(a *analysis.Analyzer, pass *analysis.Pass) (res any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("analyzer %s panicked: %v", a.Name, p)
		}
	}()
	res, err = a.Run(pass)
	if err != nil {
		err = fmt.Errorf("analyzer %s: %w", a.Name, err)
	}
	return res, err
}
