package yaegiengine

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"regexp"
	"strconv"
)

// importSpec is one parsed import declaration.
type importSpec struct {
	// Name is the identifier the import binds in the file scope.
	Name string
	Path string
}

var majorVersion = regexp.MustCompile(`^v[0-9]+$`)

// parseImports returns the import declarations leading src.
func parseImports(src string) ([]importSpec, error) {
	f, err := parser.ParseFile(token.NewFileSet(), "", "package p\n"+src, parser.ImportsOnly)
	if err != nil {
		return nil, err
	}
	specs := make([]importSpec, 0, len(f.Imports))
	for _, imp := range f.Imports {
		p, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		name := defaultName(p)
		if imp.Name != nil {
			name = imp.Name.Name
		}
		specs = append(specs, importSpec{Name: name, Path: p})
	}
	return specs, nil
}

// defaultName returns the package name an import path conventionally binds.
func defaultName(importPath string) string {
	base := path.Base(importPath)
	if majorVersion.MatchString(base) {
		if dir := path.Dir(importPath); dir != "." {
			return path.Base(dir)
		}
	}
	return base
}

// parseBody parses src as the statement list of a function body.
func parseBody(src string) ([]ast.Stmt, bool) {
	f, err := parser.ParseFile(token.NewFileSet(), "", "package p\nfunc _() {\n"+src+"\n}", 0)
	if err != nil || len(f.Decls) == 0 {
		return nil, false
	}
	fn, ok := f.Decls[len(f.Decls)-1].(*ast.FuncDecl)
	if !ok || fn.Body == nil {
		return nil, false
	}
	return fn.Body.List, true
}

// declaredNames returns the identifiers src declares at its top level.
func declaredNames(src string) []string {
	var names []string
	add := func(id *ast.Ident) {
		if id != nil && id.Name != "_" {
			names = append(names, id.Name)
		}
	}

	if f, err := parser.ParseFile(token.NewFileSet(), "", "package p\n"+src, 0); err == nil {
		for _, d := range f.Decls {
			switch d := d.(type) {
			case *ast.FuncDecl:
				if d.Recv == nil {
					add(d.Name)
				}
			case *ast.GenDecl:
				genDeclNames(d, add)
			}
		}
		return names
	}

	stmts, ok := parseBody(src)
	if !ok {
		return nil
	}
	for _, s := range stmts {
		switch s := s.(type) {
		case *ast.AssignStmt:
			if s.Tok != token.DEFINE {
				continue
			}
			for _, lhs := range s.Lhs {
				if id, ok := lhs.(*ast.Ident); ok {
					add(id)
				}
			}
		case *ast.DeclStmt:
			if g, ok := s.Decl.(*ast.GenDecl); ok {
				genDeclNames(g, add)
			}
		}
	}
	return names
}

func genDeclNames(g *ast.GenDecl, add func(*ast.Ident)) {
	for _, spec := range g.Specs {
		switch spec := spec.(type) {
		case *ast.ValueSpec:
			for _, id := range spec.Names {
				add(id)
			}
		case *ast.TypeSpec:
			add(spec.Name)
		}
	}
}

// producesValue reports whether the last statement of src is an expression.
func producesValue(src string) bool {
	stmts, ok := parseBody(src)
	if !ok || len(stmts) == 0 {
		return false
	}
	_, ok = stmts[len(stmts)-1].(*ast.ExprStmt)
	return ok
}
