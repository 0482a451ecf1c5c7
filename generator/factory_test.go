package generator

import (
	"bytes"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/fixgen"
	"github.com/syssam/fixgen/config"
	"github.com/syssam/fixgen/schema"
	"github.com/syssam/fixgen/schema/rule"
)

type profile struct {
	Age    int
	Name   string
	Nick   *string
	Tags   []int
	Grid   [2]int
	Scores map[string]int
	Point  struct{ X int }
	Any    any
}

// joinGen joins its arguments. It needs one argument, two under MAX_VALUE.
type joinGen struct {
	args   []string
	remark fixgen.Remark
}

func (g *joinGen) Generate() (any, error) { return strings.Join(g.args, "-"), nil }

func (g *joinGen) Arity(r fixgen.Remark) int {
	if r == fixgen.MaxValue {
		return 2
	}
	return 1
}

func (g *joinGen) SetArgs(args []string) error {
	g.args = args
	return nil
}

func (g *joinGen) SetRemark(r fixgen.Remark) { g.remark = r }

// copyGen copies the value of another field once it is written.
type copyGen struct {
	from string
	view fixgen.View
}

func (g *copyGen) Bind(v fixgen.View) { g.view = v }

func (g *copyGen) Ready() bool { return g.view.IsSet(g.from) }

func (g *copyGen) Generate() (any, error) {
	v, _ := g.view.Get(g.from)
	return v, nil
}

type mapView map[string]any

func (m mapView) Get(field string) (any, bool) {
	v, ok := m[field]
	return v, ok
}

func (m mapView) IsSet(field string) bool {
	_, ok := m[field]
	return ok
}

func bindField[V any](name string, ref func(*profile) *V, rules ...rule.Rule) *schema.Field {
	return schema.Bind(name, ref, rules...)
}

func buildUnit(t *testing.T, f *Factory, field *schema.Field) (*Unit, error) {
	t.Helper()
	info, err := rule.Resolve(field.Name, field.Rules, nil)
	require.NoError(t, err)
	return f.Build(info, field)
}

func mustGenerate(t *testing.T, u *Unit) any {
	t.Helper()
	v, err := u.Generate()
	require.NoError(t, err)
	return v
}

func TestFactoryBasic(t *testing.T) {
	age := bindField("age", func(p *profile) *int { return &p.Age }, rule.Int(7, 7))

	t.Run("builds builtin generators", func(t *testing.T) {
		u, err := buildUnit(t, &Factory{}, age)
		require.NoError(t, err)
		assert.Equal(t, "age", u.Field)
		assert.Equal(t, rule.KindBasic, u.Kind)
		assert.False(t, u.Dependent())
		assert.Equal(t, 7, mustGenerate(t, u))
	})

	t.Run("merges engine configuration", func(t *testing.T) {
		f := &Factory{Merger: &config.Merger{
			Fields: map[string]rule.Params{"age": rule.Int(9, 9).Descriptor().Params},
		}}
		u, err := buildUnit(t, f, age)
		require.NoError(t, err)
		assert.Equal(t, 9, mustGenerate(t, u))
	})

	t.Run("NULL on a non-nillable field falls back to MIN", func(t *testing.T) {
		var logs bytes.Buffer
		f := &Factory{
			Merger: &config.Merger{GlobalRemark: fixgen.NullValue},
			Logger: slog.New(slog.NewTextHandler(&logs, nil)),
		}
		field := bindField("age", func(p *profile) *int { return &p.Age }, rule.Int(3, 5))
		u, err := buildUnit(t, f, field)
		require.NoError(t, err)
		assert.Equal(t, 3, mustGenerate(t, u))
		assert.Equal(t, fixgen.MinValue, u.Params.RemarkOr(fixgen.NotDefined))
		assert.Contains(t, logs.String(), "NULL_VALUE requested for a non-nillable type")
	})

	t.Run("NULL on a nillable field", func(t *testing.T) {
		nick := bindField("nick", func(p *profile) **string { return &p.Nick }, rule.Basic().Remark(fixgen.NullValue))
		u, err := buildUnit(t, &Factory{}, nick)
		require.NoError(t, err)
		assert.Equal(t, (*string)(nil), mustGenerate(t, u))
	})

	t.Run("no builtin generator", func(t *testing.T) {
		for _, field := range []*schema.Field{
			bindField("point", func(p *profile) *struct{ X int } { return &p.Point }, rule.Basic()),
			bindField("any", func(p *profile) *any { return &p.Any }, rule.Basic()),
		} {
			_, err := buildUnit(t, &Factory{}, field)
			require.Error(t, err)
			assert.True(t, fixgen.IsResolutionError(err))
			assert.Contains(t, err.Error(), "no builtin generator and no custom rule")
			assert.Equal(t, field.Name, fixgen.FieldOf(err))
		}
	})

	t.Run("invalid configuration", func(t *testing.T) {
		empty := ""
		f := &Factory{Merger: &config.Merger{Fields: map[string]rule.Params{"name": {Charset: &empty}}}}
		name := bindField("name", func(p *profile) *string { return &p.Name }, rule.Basic())
		_, err := buildUnit(t, f, name)
		require.Error(t, err)
		assert.True(t, fixgen.IsResolutionError(err))
		assert.Contains(t, err.Error(), "invalid configuration: empty charset")
	})

	t.Run("type registrations replace builtins", func(t *testing.T) {
		reg := NewRegistry()
		require.NoError(t, reg.RegisterType(reflect.TypeFor[struct{ X int }](), func() any {
			return fixgen.GeneratorFunc(func() (any, error) { return struct{ X int }{X: 42}, nil })
		}))
		point := bindField("point", func(p *profile) *struct{ X int } { return &p.Point }, rule.Basic())
		u, err := buildUnit(t, &Factory{Registry: reg}, point)
		require.NoError(t, err)
		assert.Equal(t, struct{ X int }{X: 42}, mustGenerate(t, u))
	})

	t.Run("missing rule", func(t *testing.T) {
		_, err := (&Factory{}).Build(nil, age)
		assert.True(t, fixgen.IsResolutionError(err))
	})
}

func TestFactoryCustom(t *testing.T) {
	reg := NewRegistry().
		MustRegister("join", func() any { return &joinGen{} }).
		MustRegister("copy", func() any { return &copyGen{from: "age"} }).
		MustRegister("const", func() any { return fixgen.GeneratorFunc(func() (any, error) { return "c", nil }) }).
		MustRegister("broken", func() any { return 42 })
	name := func(r rule.Rule) *schema.Field {
		return bindField("name", func(p *profile) *string { return &p.Name }, r)
	}

	t.Run("arguments", func(t *testing.T) {
		u, err := buildUnit(t, &Factory{Registry: reg}, name(rule.Custom("join").Args("a")))
		require.NoError(t, err)
		assert.Equal(t, "a", mustGenerate(t, u))
	})

	t.Run("arity depends on the remark", func(t *testing.T) {
		_, err := buildUnit(t, &Factory{Registry: reg}, name(rule.Custom("join").Args("a").Remark(fixgen.MaxValue)))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expects 2 argument(s) under MAX_VALUE, got 1")

		u, err := buildUnit(t, &Factory{Registry: reg}, name(rule.Custom("join").Args("a", "b").Remark(fixgen.MaxValue)))
		require.NoError(t, err)
		assert.Equal(t, "a-b", mustGenerate(t, u))
		assert.Equal(t, fixgen.MaxValue, u.Gen.(*customGenerator).gen.(*joinGen).remark)
	})

	t.Run("explicit arguments take precedence", func(t *testing.T) {
		f := &Factory{
			Registry: reg,
			TypeArgs: map[reflect.Type][]string{reflect.TypeFor[string](): {"type"}},
		}
		u, err := buildUnit(t, f, name(rule.Custom("join").Args("declared")))
		require.NoError(t, err)
		assert.Equal(t, "type", mustGenerate(t, u))

		f.FieldArgs = map[string][]string{"name": {"field"}}
		u, err = buildUnit(t, f, name(rule.Custom("join").Args("declared")))
		require.NoError(t, err)
		assert.Equal(t, "field", mustGenerate(t, u))
	})

	t.Run("arguments to a generator without arguments", func(t *testing.T) {
		_, err := buildUnit(t, &Factory{Registry: reg}, name(rule.Custom("const").Args("x")))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not accept arguments")
	})

	t.Run("unknown reference", func(t *testing.T) {
		_, err := buildUnit(t, &Factory{Registry: reg}, name(rule.Custom("missing")))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `no generator registered as "missing"`)
	})

	t.Run("constructor without generator", func(t *testing.T) {
		_, err := buildUnit(t, &Factory{Registry: reg}, name(rule.Custom("broken")))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "int does not implement fixgen.Generator")
	})

	t.Run("inline constructor", func(t *testing.T) {
		u, err := buildUnit(t, &Factory{}, name(rule.CustomFunc(func() any { return &joinGen{} }).Args("z")))
		require.NoError(t, err)
		assert.Equal(t, "z", mustGenerate(t, u))
	})

	t.Run("NULL for a generator without remark support", func(t *testing.T) {
		nick := bindField("nick", func(p *profile) **string { return &p.Nick }, rule.Custom("const").Remark(fixgen.NullValue))
		u, err := buildUnit(t, &Factory{Registry: reg}, nick)
		require.NoError(t, err)
		assert.Equal(t, (*string)(nil), mustGenerate(t, u))
	})

	t.Run("values are converted to the field type", func(t *testing.T) {
		nick := bindField("nick", func(p *profile) **string { return &p.Nick }, rule.Custom("const"))
		u, err := buildUnit(t, &Factory{Registry: reg}, nick)
		require.NoError(t, err)
		v := mustGenerate(t, u)
		require.IsType(t, (*string)(nil), v)
		assert.Equal(t, "c", *v.(*string))
	})

	t.Run("dependent generators are bound to the view", func(t *testing.T) {
		view := mapView{}
		u, err := buildUnit(t, &Factory{Registry: reg, View: view}, name(rule.Custom("copy")))
		require.NoError(t, err)
		assert.True(t, u.Dependent())
		assert.False(t, u.IsReady())
		view["age"] = "42"
		assert.True(t, u.IsReady())
		assert.Equal(t, "42", mustGenerate(t, u))
	})
}

func TestFactoryNested(t *testing.T) {
	point := bindField("point", func(p *profile) *struct{ X int } { return &p.Point }, rule.Nested())

	t.Run("without support", func(t *testing.T) {
		_, err := buildUnit(t, &Factory{}, point)
		assert.True(t, fixgen.IsResolutionError(err))
	})

	t.Run("delegates to the engine", func(t *testing.T) {
		var gotField string
		f := &Factory{Nested: func(field string, typ reflect.Type) (fixgen.Generator, error) {
			gotField = field
			return fixgen.GeneratorFunc(func() (any, error) { return struct{ X int }{X: 1}, nil }), nil
		}}
		u, err := buildUnit(t, f, point)
		require.NoError(t, err)
		assert.Equal(t, "point", gotField)
		assert.Equal(t, struct{ X int }{X: 1}, mustGenerate(t, u))
	})
}

func TestFactoryCollection(t *testing.T) {
	t.Run("slice with inline element", func(t *testing.T) {
		tags := bindField("tags", func(p *profile) *[]int { return &p.Tags }, rule.Collection(rule.Int(2, 2)).Size(3, 3))
		u, err := buildUnit(t, &Factory{}, tags)
		require.NoError(t, err)
		require.Len(t, u.Elems, 1)
		assert.Equal(t, []int{2, 2, 2}, mustGenerate(t, u))
	})

	t.Run("slice with companion element", func(t *testing.T) {
		tags := bindField("tags", func(p *profile) *[]int { return &p.Tags },
			rule.Collection(nil).Size(1, 1), rule.Int(5, 5))
		u, err := buildUnit(t, &Factory{}, tags)
		require.NoError(t, err)
		assert.Equal(t, []int{5}, mustGenerate(t, u))
	})

	t.Run("map with default key", func(t *testing.T) {
		scores := bindField("scores", func(p *profile) *map[string]int { return &p.Scores },
			rule.Map(nil, rule.Int(1, 1)).Size(2, 2))
		u, err := buildUnit(t, &Factory{}, scores)
		require.NoError(t, err)
		require.Len(t, u.Elems, 2)
		v := mustGenerate(t, u).(map[string]int)
		assert.Len(t, v, 2)
		for _, n := range v {
			assert.Equal(t, 1, n)
		}
	})

	t.Run("array length", func(t *testing.T) {
		grid := bindField("grid", func(p *profile) *[2]int { return &p.Grid }, rule.Array(rule.Int(4, 4)).Size(1, 5))
		u, err := buildUnit(t, &Factory{}, grid)
		require.NoError(t, err)
		assert.Equal(t, [2]int{4, 4}, mustGenerate(t, u))

		grid = bindField("grid", func(p *profile) *[2]int { return &p.Grid }, rule.Array(rule.Int(4, 4)).Size(3, 5))
		_, err = buildUnit(t, &Factory{}, grid)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "array length 2 outside size range [3, 5]")
	})

	t.Run("collection rule on a scalar", func(t *testing.T) {
		name := bindField("name", func(p *profile) *string { return &p.Name }, rule.Collection(rule.Basic()))
		_, err := buildUnit(t, &Factory{}, name)
		require.Error(t, err)
		assert.True(t, fixgen.IsResolutionError(err))
		assert.Contains(t, err.Error(), "cannot fill string")
	})

	t.Run("NULL collection", func(t *testing.T) {
		tags := bindField("tags", func(p *profile) *[]int { return &p.Tags },
			rule.Collection(rule.Basic()).Remark(fixgen.NullValue))
		u, err := buildUnit(t, &Factory{}, tags)
		require.NoError(t, err)
		assert.Equal(t, []int(nil), mustGenerate(t, u))
	})

	t.Run("field remark stays on the top-level generator", func(t *testing.T) {
		tags := bindField("tags", func(p *profile) *[]int { return &p.Tags },
			rule.Collection(rule.Int(1, 9).Remark(fixgen.MinValue)).Size(1, 4))
		f := &Factory{Merger: &config.Merger{FieldRemarks: map[string]fixgen.Remark{"tags": fixgen.MaxValue}}}
		u, err := buildUnit(t, f, tags)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 1, 1, 1}, mustGenerate(t, u))
	})

	t.Run("dependent elements", func(t *testing.T) {
		reg := NewRegistry().MustRegister("copy", func() any { return &copyGen{from: "age"} })
		tags := bindField("tags", func(p *profile) *[]int { return &p.Tags }, rule.Collection(rule.Custom("copy")).Size(2, 2))
		view := mapView{}
		u, err := buildUnit(t, &Factory{Registry: reg, View: view}, tags)
		require.NoError(t, err)
		assert.True(t, u.Dependent())
		assert.False(t, u.IsReady())
		view["age"] = 3
		assert.True(t, u.IsReady())
		assert.Equal(t, []int{3, 3}, mustGenerate(t, u))
	})
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	ctor := func() any { return &joinGen{} }
	require.NoError(t, reg.Register("b", ctor))
	require.NoError(t, reg.Register("a", ctor))
	assert.Error(t, reg.Register("a", ctor))
	assert.Error(t, reg.Register("", ctor))
	assert.Error(t, reg.Register("c", nil))
	assert.Equal(t, []string{"a", "b"}, reg.Names())

	_, ok := reg.Lookup("a")
	assert.True(t, ok)

	typ := reflect.TypeFor[profile]()
	require.NoError(t, reg.RegisterType(typ, ctor))
	assert.Error(t, reg.RegisterType(typ, ctor))
	_, ok = reg.LookupType(typ)
	assert.True(t, ok)

	var nilReg *Registry
	_, ok = nilReg.Lookup("a")
	assert.False(t, ok)
	_, ok = nilReg.LookupType(typ)
	assert.False(t, ok)

	assert.Panics(t, func() { reg.MustRegister("a", ctor) })
}
