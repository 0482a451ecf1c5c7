package codegen

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const appSource = `package app

type Color string

type Point struct{ X, Y int }

type Box[T any] struct {
	V T ` + "`fixgen:\"basic\"`" + `
}

type Alias = Point

type User struct {
	Name      string          ` + "`fixgen:\"string,min_len=3\"`" + `
	Color     Color           ` + "`fixgen:\"enum,values=red|blue\"`" + `
	Tags      []string        ` + "`fixgen:\"list;string\"`" + `
	Grid      [2]int          ` + "`fixgen:\"array,min_size=2,max_size=2;int\"`" + `
	Scores    map[string]*int ` + "`fixgen:\"map;int\"`" + `
	Anon      struct{ A int } ` + "`fixgen:\"basic\"`" + `
	Any       interface{}     ` + "`fixgen:\"custom,ref=x\"`" + `
	Skip      int             ` + "`fixgen:\"-\"`" + `
	Plain     int
	CreatedAt int64 ` + "`fixgen:\"int\"`" + `
	Point     ` + "`fixgen:\"nested\"`" + `
}

type untagged struct{ A int }
`

func check(t *testing.T, path, src string) *types.Package {
	t.Helper()
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "app.go", src, 0)
	require.NoError(t, err)
	pkg, err := (&types.Config{}).Check(path, fset, []*ast.File{f}, nil)
	require.NoError(t, err)
	return pkg
}

func TestInspect(t *testing.T) {
	pkg := check(t, "example.com/app", appSource)
	typs, err := Inspect(pkg)
	require.NoError(t, err)
	require.Len(t, typs, 1)
	u := typs[0]
	assert.Equal(t, "User", u.Name)

	type row struct{ GoName, Name, Tag string }
	var got []row
	for _, f := range u.Fields {
		got = append(got, row{f.GoName, f.Name, f.Tag})
	}
	want := []row{
		{"Name", "name", "string,min_len=3"},
		{"Color", "color", "enum,values=red|blue"},
		{"Tags", "tags", "list;string"},
		{"Grid", "grid", "array,min_size=2,max_size=2;int"},
		{"Scores", "scores", "map;int"},
		{"Anon", "anon", "basic"},
		{"Any", "any", "custom,ref=x"},
		{"CreatedAt", "created_at", "int"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}

	t.Run("malformed tags", func(t *testing.T) {
		pkg := check(t, "example.com/bad", "package bad\n\ntype Bad struct {\n\tN int `fixgen:\"int,min=x\"`\n}\n")
		_, err := Inspect(pkg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "example.com/bad.Bad.N")
	})
}

func TestRender(t *testing.T) {
	pkg := check(t, "example.com/app", appSource)
	typs, err := Inspect(pkg)
	require.NoError(t, err)
	src, err := Render(&Package{Path: "example.com/app", Name: "app"}, typs[0])
	require.NoError(t, err)
	out := string(src)

	for _, want := range []string{
		"// Code generated by fixgen. DO NOT EDIT.",
		"package app",
		`"github.com/syssam/fixgen/schema"`,
		"var fixgenUserSchema = schema.MustFor[User](",
		`schema.BindTag("name", func(t *User) *string {`,
		"return &t.Name",
		`schema.BindTag("color", func(t *User) *Color {`,
		`func(t *User) *[]string {`,
		`func(t *User) *[2]int {`,
		`func(t *User) *map[string]*int {`,
		`func(t *User) *interface{} {`,
		`"map;int"`,
		`schema.BindTag("created_at", func(t *User) *int64 {`,
		"func UserSchema() *schema.Schema {",
		"func (*User) FixgenSchema() *schema.Schema {",
		"return fixgenUserSchema",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Plain")
	assert.NotContains(t, out, "Skip")

	_, err = parser.ParseFile(token.NewFileSet(), "user_fixgen.go", src, parser.AllErrors)
	assert.NoError(t, err, "rendered source must parse:\n%s", out)
}

func TestTypeCode(t *testing.T) {
	other := types.NewPackage("example.com/other", "other")
	id := types.NewNamed(types.NewTypeName(token.NoPos, other, "ID", nil), types.Typ[types.String], nil)
	local := types.NewPackage("example.com/app", "app")
	color := types.NewNamed(types.NewTypeName(token.NoPos, local, "Color", nil), types.Typ[types.String], nil)

	tests := []struct {
		typ  types.Type
		want string
	}{
		{types.Typ[types.Int], "int"},
		{types.NewPointer(color), "*Color"},
		{id, "other.ID"},
		{types.NewSlice(types.NewMap(types.Typ[types.String], types.Typ[types.Int])), "[]map[string]int"},
		{types.NewArray(types.Typ[types.Uint8], 3), "[3]uint8"},
		{types.NewInterfaceType(nil, nil), "interface{}"},
		{types.Universe.Lookup("error").Type(), "error"},
		{types.NewChan(types.SendRecv, types.Typ[types.Int]), "chan int"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, fmt.Sprintf("%#v", TypeCode("example.com/app", tt.typ)))
		})
	}
}

func TestNames(t *testing.T) {
	assert.Equal(t, "user_profile_fixgen.go", FileName(&Type{Name: "UserProfile"}))
	assert.Equal(t, "UserProfileSchema", SchemaFunc(&Type{Name: "UserProfile"}))
	assert.Equal(t, "UserSchema", SchemaFunc(&Type{Name: "user"}))
	assert.Equal(t, "fixgenUserSchema", schemaVar(&Type{Name: "user"}))
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/app\n\ngo 1.24\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.go"), []byte(appSource), 0o644))
	ctx := context.Background()

	t.Run("dry run", func(t *testing.T) {
		files, err := Generate(ctx, &Config{Dir: dir, DryRun: true}, "./...")
		require.NoError(t, err)
		require.Len(t, files, 1)
		assert.Equal(t, "user_fixgen.go", filepath.Base(files[0].Path))
		assert.True(t, files[0].Changed)
		assert.NoFileExists(t, files[0].Path)
	})

	t.Run("write then skip unchanged files", func(t *testing.T) {
		pkgs, err := Load(ctx, &Config{Dir: dir}, "./...")
		require.NoError(t, err)
		require.Len(t, pkgs, 1)
		pkg := pkgs[0]
		assert.Equal(t, "example.com/app", pkg.Path)

		f, err := generateFile(pkg, pkg.Types[0], false)
		require.NoError(t, err)
		assert.True(t, f.Changed)
		written, err := os.ReadFile(f.Path)
		require.NoError(t, err)
		assert.Equal(t, f.Content, written)

		f, err = generateFile(pkg, pkg.Types[0], false)
		require.NoError(t, err)
		assert.False(t, f.Changed)
	})
}
