package codegen

import (
	"context"
	"errors"
	"fmt"
	"go/types"
	"path/filepath"
	"reflect"
	"sort"

	"golang.org/x/tools/go/packages"

	"github.com/syssam/fixgen/schema"
	"github.com/syssam/fixgen/schema/rule"
)

// Package is a loaded Go package holding struct types with rule tags.
type Package struct {
	Path  string // import path.
	Name  string // package name.
	Dir   string // directory of the package sources.
	Types []*Type
}

// Type is a struct type with at least one tagged field.
type Type struct {
	Name   string
	Fields []*Field
}

// Field is a tagged struct field.
type Field struct {
	GoName string     // Go field name.
	Name   string     // schema field name.
	Type   types.Type // type-checked field type.
	Tag    string     // raw rule tag value.
}

// Load loads the packages matching patterns and collects their tagged
// struct types. Packages without tagged types are omitted.
func Load(ctx context.Context, cfg *Config, patterns ...string) ([]*Package, error) {
	pcfg := &packages.Config{
		Context:    ctx,
		Mode:       packages.NeedName | packages.NeedFiles | packages.NeedTypes | packages.NeedSyntax | packages.NeedTypesInfo,
		BuildFlags: cfg.BuildFlags,
		Dir:        cfg.Dir,
	}
	pkgs, err := packages.Load(pcfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("codegen: loading %v: %w", patterns, err)
	}
	var (
		out  []*Package
		errs []error
	)
	for _, p := range pkgs {
		for _, e := range p.Errors {
			errs = append(errs, fmt.Errorf("codegen: %s: %s", p.PkgPath, e.Msg))
		}
		if len(p.Errors) > 0 || p.Types == nil {
			continue
		}
		typs, err := Inspect(p.Types)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(typs) == 0 {
			continue
		}
		dir := cfg.Dir
		if len(p.GoFiles) > 0 {
			dir = filepath.Dir(p.GoFiles[0])
		}
		out = append(out, &Package{Path: p.PkgPath, Name: p.Name, Dir: dir, Types: typs})
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

// Inspect returns the tagged struct types declared at the top level of pkg,
// sorted by name. Malformed tags are reported with their field.
func Inspect(pkg *types.Package) ([]*Type, error) {
	scope := pkg.Scope()
	names := scope.Names()
	sort.Strings(names)
	var (
		out  []*Type
		errs []error
	)
	for _, name := range names {
		tn, ok := scope.Lookup(name).(*types.TypeName)
		if !ok || tn.IsAlias() {
			continue
		}
		named, ok := tn.Type().(*types.Named)
		if !ok || named.TypeParams().Len() > 0 {
			continue
		}
		st, ok := named.Underlying().(*types.Struct)
		if !ok {
			continue
		}
		t := &Type{Name: name}
		for i := range st.NumFields() {
			v := st.Field(i)
			tag, ok := reflect.StructTag(st.Tag(i)).Lookup(rule.TagName)
			if !ok || tag == "-" || v.Embedded() {
				continue
			}
			if _, err := rule.ParseTag(tag); err != nil {
				errs = append(errs, fmt.Errorf("codegen: %s.%s.%s: %w", pkg.Path(), name, v.Name(), err))
				continue
			}
			t.Fields = append(t.Fields, &Field{
				GoName: v.Name(),
				Name:   schema.FieldName(v.Name()),
				Type:   v.Type(),
				Tag:    tag,
			})
		}
		if len(t.Fields) > 0 {
			out = append(out, t)
		}
	}
	return out, errors.Join(errs...)
}
