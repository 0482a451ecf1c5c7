package codegen

import (
	"bytes"
	"fmt"
	"go/types"

	"github.com/dave/jennifer/jen"
	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	schemaPkg = "github.com/syssam/fixgen/schema"
	header    = "Code generated by fixgen. DO NOT EDIT."
)

var title = cases.Title(language.Und, cases.NoLower)

// FileName returns the name of the file generated for t.
func FileName(t *Type) string {
	return inflect.Underscore(t.Name) + "_fixgen.go"
}

// SchemaFunc returns the name of the generated schema constructor of t.
func SchemaFunc(t *Type) string { return title.String(t.Name) + "Schema" }

func schemaVar(t *Type) string { return "fixgen" + title.String(t.Name) + "Schema" }

// Render returns the source of the schema file of t, declared in pkg.
func Render(pkg *Package, t *Type) ([]byte, error) {
	f := jen.NewFilePathName(pkg.Path, pkg.Name)
	f.HeaderComment(header)

	f.Var().Id(schemaVar(t)).Op("=").Qual(schemaPkg, "MustFor").Types(jen.Id(t.Name)).CallFunc(func(g *jen.Group) {
		for _, fd := range t.Fields {
			g.Line().Add(bindField(pkg, t, fd))
		}
		g.Line()
	})

	f.Commentf("%s returns the fixgen schema of %s.", SchemaFunc(t), t.Name)
	f.Func().Id(SchemaFunc(t)).Params().Op("*").Qual(schemaPkg, "Schema").Block(
		jen.Return(jen.Id(schemaVar(t))),
	)

	f.Comment("FixgenSchema implements schema.Provider.")
	f.Func().Params(jen.Op("*").Id(t.Name)).Id("FixgenSchema").Params().Op("*").Qual(schemaPkg, "Schema").Block(
		jen.Return(jen.Id(schemaVar(t))),
	)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("codegen: rendering %s: %w", t.Name, err)
	}
	return buf.Bytes(), nil
}

// bindField renders:
//
//	schema.BindTag("name", func(t *T) *V { return &t.Name }, "tag")
func bindField(pkg *Package, t *Type, fd *Field) jen.Code {
	return jen.Qual(schemaPkg, "BindTag").Call(
		jen.Lit(fd.Name),
		jen.Func().Params(jen.Id("t").Op("*").Id(t.Name)).Op("*").Add(TypeCode(pkg.Path, fd.Type)).Block(
			jen.Return(jen.Op("&").Id("t").Dot(fd.GoName)),
		),
		jen.Lit(fd.Tag),
	)
}

// TypeCode returns the Go expression of typ as seen from package path.
func TypeCode(path string, typ types.Type) jen.Code {
	switch t := typ.(type) {
	case *types.Basic:
		return jen.Id(t.Name())
	case *types.Named:
		obj := t.Obj()
		if obj.Pkg() == nil {
			return jen.Id(obj.Name())
		}
		var code *jen.Statement
		if obj.Pkg().Path() == path {
			code = jen.Id(obj.Name())
		} else {
			code = jen.Qual(obj.Pkg().Path(), obj.Name())
		}
		if args := t.TypeArgs(); args.Len() > 0 {
			params := make([]jen.Code, args.Len())
			for i := range args.Len() {
				params[i] = TypeCode(path, args.At(i))
			}
			code = code.Types(params...)
		}
		return code
	case *types.Alias:
		return TypeCode(path, types.Unalias(t))
	case *types.Pointer:
		return jen.Op("*").Add(TypeCode(path, t.Elem()))
	case *types.Slice:
		return jen.Index().Add(TypeCode(path, t.Elem()))
	case *types.Array:
		return jen.Index(jen.Lit(int(t.Len()))).Add(TypeCode(path, t.Elem()))
	case *types.Map:
		return jen.Map(TypeCode(path, t.Key())).Add(TypeCode(path, t.Elem()))
	case *types.Struct:
		return jen.StructFunc(func(g *jen.Group) {
			for i := range t.NumFields() {
				v := t.Field(i)
				g.Id(v.Name()).Add(TypeCode(path, v.Type()))
			}
		})
	case *types.Interface:
		if t.Empty() {
			return jen.Interface()
		}
	}
	return jen.Id(types.TypeString(typ, func(p *types.Package) string {
		if p.Path() == path {
			return ""
		}
		return p.Name()
	}))
}
