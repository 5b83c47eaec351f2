package workspace

import (
	"context"
	"errors"
	"fmt"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/tools/go/packages"

	"github.com/dshills/codeward/internal/gitctx"
	"github.com/dshills/codeward/internal/logging"
	"github.com/dshills/codeward/internal/syntax"
)

// ErrTargetNotFound is returned when the analysis target does not exist.
var ErrTargetNotFound = errors.New("target not found")

// Project is an ordered group of files: a Go package, or all files of one
// block-style language.
type Project struct {
	Name  string
	Lang  syntax.Language
	Files []*syntax.File
}

// Workspace is a loaded target.
type Workspace struct {
	Root     string
	Projects []*Project
	// Single is set when the target was one document rather than a folder.
	Single bool
}

// Files returns every file in project order, then file order.
func (w *Workspace) Files() []*syntax.File {
	var files []*syntax.File
	for _, p := range w.Projects {
		files = append(files, p.Files...)
	}
	return files
}

// Loader loads targets.
type Loader struct {
	Include []string
	Exclude []string
	Logger  *zap.Logger
}

var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
	"testdata":     true,
}

const goLoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedCompiledGoFiles |
	packages.NeedSyntax |
	packages.NeedTypes |
	packages.NeedTypesInfo |
	packages.NeedTypesSizes

// Load resolves target and loads it.
func (l *Loader) Load(ctx context.Context, target string) (*Workspace, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", target, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrTargetNotFound, target)
		}
		return nil, fmt.Errorf("stat %s: %w", target, err)
	}
	switch {
	case info.IsDir():
		return l.loadFolder(ctx, abs)
	case filepath.Base(abs) == "go.mod":
		return l.loadFolder(ctx, filepath.Dir(abs))
	default:
		return l.loadFile(ctx, abs)
	}
}

// LoadSource loads in-memory source, e.g. read from stdin, as one document.
func (l *Loader) LoadSource(ctx context.Context, name string, lang syntax.Language, src []byte) (*Workspace, error) {
	if name == "" {
		name = "snippet" + lang.Extension()
	}
	f, err := syntax.Parse(ctx, lang, name, src)
	if err != nil {
		return nil, err
	}
	return &Workspace{
		Projects: []*Project{{Name: name, Lang: lang, Files: []*syntax.File{f}}},
		Single:   true,
	}, nil
}

func (l *Loader) loadFile(ctx context.Context, abs string) (*Workspace, error) {
	lang, ok := syntax.LanguageFor(abs)
	if !ok {
		return nil, fmt.Errorf("unsupported source file: %s", abs)
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", abs, err)
	}
	name := filepath.Base(abs)
	f, err := syntax.Parse(ctx, lang, name, src)
	if err != nil {
		return nil, err
	}
	return &Workspace{
		Root:     filepath.Dir(abs),
		Projects: []*Project{{Name: name, Lang: lang, Files: []*syntax.File{f}}},
		Single:   true,
	}, nil
}

func (l *Loader) loadFolder(ctx context.Context, dir string) (*Workspace, error) {
	log := logging.OrNop(l.Logger)
	files, err := l.sourceFiles(dir)
	if err != nil {
		return nil, err
	}

	byLang := make(map[syntax.Language][]string)
	for _, rel := range files {
		lang, _ := syntax.LanguageFor(rel)
		byLang[lang] = append(byLang[lang], rel)
	}

	ws := &Workspace{Root: dir}
	if goFiles := byLang[syntax.Go]; len(goFiles) > 0 {
		projects, err := l.loadGoPackages(ctx, dir, goFiles)
		if err != nil {
			log.Warn("go package load failed, compiling files in isolation", zap.String("dir", dir), zap.Error(err))
			projects = l.parseEach(ctx, dir, syntax.Go, "go", goFiles)
		}
		ws.Projects = append(ws.Projects, projects...)
	}
	for _, lang := range []syntax.Language{syntax.Python, syntax.JavaScript} {
		if rels := byLang[lang]; len(rels) > 0 {
			ws.Projects = append(ws.Projects, l.parseEach(ctx, dir, lang, string(lang), rels)...)
		}
	}

	log.Debug("workspace loaded", zap.String("root", dir), zap.Int("projects", len(ws.Projects)), zap.Int("files", len(ws.Files())))
	return ws, nil
}

// sourceFiles lists recognized source files below dir, relative and sorted.
// Inside a git work tree ignored files are skipped.
func (l *Loader) sourceFiles(dir string) ([]string, error) {
	var candidates []string
	if listed, err := gitctx.ListFiles(dir, l.Include, l.Exclude); err == nil {
		candidates = listed
	} else {
		walked, err := walkFiles(dir, l.Include, l.Exclude)
		if err != nil {
			return nil, err
		}
		candidates = walked
	}

	var files []string
	for _, rel := range candidates {
		if !syntax.Recognized(rel) || inSkippedDir(rel) {
			continue
		}
		files = append(files, rel)
	}
	return files, nil
}

func walkFiles(dir string, include, exclude []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && (strings.HasPrefix(d.Name(), ".") || skipDirs[d.Name()]) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if len(include) > 0 && !gitctx.MatchesAny(rel, include) {
			return nil
		}
		if gitctx.MatchesAny(rel, exclude) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

func inSkippedDir(rel string) bool {
	parts := strings.Split(rel, "/")
	for _, p := range parts[:len(parts)-1] {
		if skipDirs[p] {
			return true
		}
	}
	return false
}

func (l *Loader) parseEach(ctx context.Context, dir string, lang syntax.Language, name string, rels []string) []*Project {
	log := logging.OrNop(l.Logger)
	proj := &Project{Name: name, Lang: lang}
	for _, rel := range rels {
		src, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			log.Warn("skipping unreadable file", zap.String("file", rel), zap.Error(err))
			continue
		}
		f, err := syntax.Parse(ctx, lang, rel, src)
		if err != nil {
			log.Warn("skipping unparsable file", zap.String("file", rel), zap.Error(err))
			continue
		}
		proj.Files = append(proj.Files, f)
	}
	if len(proj.Files) == 0 {
		return nil
	}
	return []*Project{proj}
}

// loadGoPackages loads the module below dir with its test variants. Test
// variants repeat the files of the package under test, so every file is taken
// from the first package that compiles it. Files no package compiles, such as
// those excluded by build constraints, are compiled in isolation.
func (l *Loader) loadGoPackages(ctx context.Context, dir string, rels []string) ([]*Project, error) {
	log := logging.OrNop(l.Logger)
	allowed := make(map[string]bool, len(rels))
	for _, rel := range rels {
		allowed[rel] = true
	}

	cfg := &packages.Config{
		Context: ctx,
		Mode:    goLoadMode,
		Dir:     dir,
		Tests:   true,
	}
	pkgs, err := packages.Load(cfg, "./...")
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}
	sort.Slice(pkgs, func(i, j int) bool { return pkgs[i].ID < pkgs[j].ID })

	var projects []*Project
	byPath := make(map[string]*Project)
	claimed := make(map[string]bool)
	for _, p := range pkgs {
		byAbs := make(map[string]*syntax.File)
		var files []*syntax.File
		for i, af := range p.Syntax {
			if af == nil || i >= len(p.CompiledGoFiles) {
				continue
			}
			abs := p.CompiledGoFiles[i]
			rel, err := filepath.Rel(dir, abs)
			if err != nil || strings.HasPrefix(rel, "..") {
				continue
			}
			rel = filepath.ToSlash(rel)
			if !allowed[rel] || claimed[rel] {
				continue
			}
			src, err := os.ReadFile(abs)
			if err != nil {
				log.Warn("skipping unreadable file", zap.String("file", rel), zap.Error(err))
				continue
			}
			claimed[rel] = true
			f := syntax.NewGoFile(p.Fset, af, src, rel)
			files = append(files, f)
			byAbs[abs] = f
		}
		if len(files) == 0 {
			continue
		}

		for _, e := range p.Errors {
			file, line, col := splitPos(e.Pos)
			if f := byAbs[file]; f != nil {
				f.AddDiagnostic(line, col, syntax.SeverityError, e.Msg, "")
				continue
			}
			log.Debug("package error outside loaded files", zap.String("package", p.ID), zap.String("error", e.Error()))
		}

		if len(p.Errors) == 0 && !p.IllTyped && p.Types != nil && p.TypesInfo != nil {
			gp := syntax.GoPackage{Fset: p.Fset, Files: p.Syntax, Types: p.Types, Info: p.TypesInfo, Sizes: p.TypesSizes}
			errs := gp.Analyze(func(pos token.Position, analyzer, msg string) {
				if f := byAbs[pos.Filename]; f != nil {
					f.AddDiagnostic(pos.Line, pos.Column, syntax.SeverityWarning, msg, analyzer)
				}
			})
			for _, err := range errs {
				log.Debug("analyzer skipped", zap.String("package", p.ID), zap.Error(err))
			}
		}

		proj := byPath[p.PkgPath]
		if proj == nil {
			proj = &Project{Name: p.PkgPath, Lang: syntax.Go}
			byPath[p.PkgPath] = proj
			projects = append(projects, proj)
		}
		proj.Files = append(proj.Files, files...)
	}

	for _, proj := range projects {
		sort.Slice(proj.Files, func(i, j int) bool { return proj.Files[i].Path < proj.Files[j].Path })
		for _, f := range proj.Files {
			f.SortDiagnostics()
		}
	}

	var rest []string
	for _, rel := range rels {
		if !claimed[rel] {
			rest = append(rest, rel)
		}
	}
	if len(rest) > 0 {
		log.Info("compiling files outside the active build in isolation", zap.Strings("files", rest))
		projects = append(projects, l.parseEach(ctx, dir, syntax.Go, "go", rest)...)
	}
	return projects, nil
}

// splitPos parses "file:line:col" or "file:line". Drive letters and other
// colons in the file name are kept.
func splitPos(s string) (file string, line, col int) {
	rest := s
	var nums []int
	for i := 0; i < 2; i++ {
		idx := strings.LastIndex(rest, ":")
		if idx < 0 {
			break
		}
		n, err := strconv.Atoi(rest[idx+1:])
		if err != nil {
			break
		}
		nums = append([]int{n}, nums...)
		rest = rest[:idx]
	}
	switch len(nums) {
	case 2:
		return rest, nums[0], nums[1]
	case 1:
		return rest, nums[0], 1
	default:
		return s, 1, 1
	}
}
