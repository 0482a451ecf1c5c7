package generator

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/syssam/fixgen"
	"github.com/syssam/fixgen/config"
	"github.com/syssam/fixgen/schema"
	"github.com/syssam/fixgen/schema/rule"
)

// NestedFunc builds the generator of a nested object of type typ stored in
// field. It is provided by the engine, which populates nested objects by
// running itself recursively.
type NestedFunc func(field string, typ reflect.Type) (fixgen.Generator, error)

// Factory builds the generator units of resolved rules.
//
// A Factory is configured for one run: View is bound to every dependent
// generator it builds.
type Factory struct {
	Merger   *config.Merger
	Registry *Registry
	View     fixgen.View
	Nested   NestedFunc

	// FieldArgs and TypeArgs hold explicit generator arguments. They take
	// precedence over the arguments declared on rules, field before type.
	FieldArgs map[string][]string
	TypeArgs  map[reflect.Type][]string

	Logger *slog.Logger
}

// Build returns the unit generating field f under the resolved rule info.
// It fails with a *fixgen.ResolutionError when no generator can be built.
func (f *Factory) Build(info *rule.Info, field *schema.Field) (*Unit, error) {
	if info == nil || info.Rule == nil {
		return nil, fixgen.NewResolutionError(field.Name, field.Type.String(), "no rule")
	}
	return f.build(field.Name, field.Type, info.Rule, info.Elem, info.Key, true)
}

// build returns the unit of descriptor d producing values of typ. elem and
// key are the element and key rules of collection descriptors.
func (f *Factory) build(field string, typ reflect.Type, d, elem, key *rule.Descriptor, top bool) (*Unit, error) {
	params := f.Merger.Merge(config.Request{
		Field:    field,
		Type:     typ,
		Kind:     d.Kind,
		Declared: d.EffectiveParams(),
		Top:      top,
	})
	remark := params.RemarkOr(fixgen.RandomValue)
	if remark == fixgen.NullValue && !schema.Nillable(typ) {
		f.logger().Warn("NULL_VALUE requested for a non-nillable type, using MIN_VALUE",
			"field", field, "type", typ.String())
		remark = fixgen.MinValue
		params = params.WithRemark(remark)
	}
	u := &Unit{Field: field, Kind: d.Kind, Type: typ, Params: params}
	var err error
	switch d.Kind {
	case rule.KindBasic:
		err = f.basic(u, remark)
	case rule.KindCustom:
		err = f.custom(u, d, remark)
	case rule.KindNested:
		err = f.nested(u, remark)
	case rule.KindCollection, rule.KindArray, rule.KindMap:
		err = f.collection(u, elem, key, remark)
	default:
		err = fixgen.NewResolutionError(field, typ.String(), fmt.Sprintf("unsupported rule kind %s", d.Kind))
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (f *Factory) basic(u *Unit, remark fixgen.Remark) error {
	if ctor, ok := f.Registry.LookupType(u.Type); ok {
		return f.attach(u, ctor, nil, remark)
	}
	g, err := newBasic(u.Type, u.Params, remark)
	switch {
	case errors.Is(err, errNoBuiltin):
		return fixgen.NewResolutionError(u.Field, u.Type.String(), "no builtin generator and no custom rule")
	case err != nil:
		return resolutionError(u, "invalid configuration", err)
	}
	u.Gen = g
	return nil
}

func (f *Factory) custom(u *Unit, d *rule.Descriptor, remark fixgen.Remark) error {
	ctor := Constructor(d.New)
	if ctor == nil {
		var ok bool
		if ctor, ok = f.Registry.Lookup(d.Ref); !ok {
			return fixgen.NewResolutionError(u.Field, u.Type.String(),
				fmt.Sprintf("no generator registered as %q", d.Ref))
		}
	}
	return f.attach(u, ctor, d.Args, remark)
}

// attach instantiates a custom generator and wires its capabilities.
func (f *Factory) attach(u *Unit, ctor Constructor, declared []string, remark fixgen.Remark) error {
	gen, err := instantiate(ctor)
	if err != nil {
		return resolutionError(u, "invalid custom generator", err)
	}
	args := f.args(u.Field, u.Type, declared)
	if ac, ok := gen.(fixgen.ArgsConsumer); ok {
		if n := ac.Arity(remark); n != fixgen.AnyArity && n != len(args) {
			return fixgen.NewResolutionError(u.Field, u.Type.String(),
				fmt.Sprintf("generator %T expects %d argument(s) under %s, got %d", gen, n, remark, len(args)))
		}
		if err := ac.SetArgs(args); err != nil {
			return resolutionError(u, fmt.Sprintf("generator %T rejected its arguments", gen), err)
		}
	} else if len(args) > 0 {
		return fixgen.NewResolutionError(u.Field, u.Type.String(),
			fmt.Sprintf("generator %T does not accept arguments", gen))
	}
	ra, aware := gen.(fixgen.RemarkAware)
	if aware {
		ra.SetRemark(remark)
	}
	if dep, ok := gen.(fixgen.Dependent); ok {
		dep.Bind(f.View)
		u.Ready = dep.Ready
	}
	u.Gen = &customGenerator{typ: u.Type, gen: gen, null: remark == fixgen.NullValue && !aware}
	return nil
}

func (f *Factory) args(field string, typ reflect.Type, declared []string) []string {
	if a, ok := f.FieldArgs[field]; ok {
		return a
	}
	if a, ok := f.TypeArgs[typ]; ok {
		return a
	}
	return declared
}

func (f *Factory) nested(u *Unit, remark fixgen.Remark) error {
	if remark == fixgen.NullValue {
		u.Gen = &nullGenerator{typ: u.Type}
		return nil
	}
	if f.Nested == nil {
		return fixgen.NewResolutionError(u.Field, u.Type.String(), "nested objects are not supported here")
	}
	g, err := f.Nested(u.Field, u.Type)
	if err != nil {
		return err
	}
	u.Gen = g
	return nil
}

func (f *Factory) collection(u *Unit, elem, key *rule.Descriptor, remark fixgen.Remark) error {
	if remark == fixgen.NullValue {
		u.Gen = &nullGenerator{typ: u.Type}
		return nil
	}
	shape, err := ShapeOf(u.Type, u.Kind)
	if err != nil {
		return resolutionError(u, "invalid collection type", err)
	}
	if elem == nil {
		return fixgen.NewResolutionError(u.Field, u.Type.String(), "collection rule without element rule")
	}
	min, max := value(u.Params.MinSize, rule.DefaultMinSize), value(u.Params.MaxSize, rule.DefaultMaxSize)
	if min < 0 || min > max {
		return fixgen.NewResolutionError(u.Field, u.Type.String(), fmt.Sprintf("invalid size range [%d, %d]", min, max))
	}
	if shape.Fixed >= 0 {
		if shape.Fixed < min || shape.Fixed > max {
			return fixgen.NewResolutionError(u.Field, u.Type.String(),
				fmt.Sprintf("array length %d outside size range [%d, %d]", shape.Fixed, min, max))
		}
		min, max = shape.Fixed, shape.Fixed
	}
	eu, err := f.build(u.Field, shape.Elem, elem, elem.Elem, elem.Key, false)
	if err != nil {
		return err
	}
	g := &CollectionGenerator{
		Type:       u.Type,
		MinSize:    min,
		MaxSize:    max,
		Remark:     remark,
		StallLimit: value(u.Params.StallLimit, rule.DefaultStallLimit),
		New:        shape.NewContainer,
		Elem:       eu.Gen,
	}
	u.Elems = []*Unit{eu}
	if u.Kind == rule.KindMap {
		if key == nil {
			key = rule.Basic().Descriptor()
		}
		ku, err := f.build(u.Field, shape.Key, key, key.Elem, key.Key, false)
		if err != nil {
			return err
		}
		g.Key = ku.Gen
		u.Elems = []*Unit{ku, eu}
	}
	u.Gen = g
	return nil
}

func (f *Factory) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}

func resolutionError(u *Unit, message string, cause error) *fixgen.ResolutionError {
	err := fixgen.NewResolutionError(u.Field, u.Type.String(), message)
	err.Cause = cause
	return err
}
