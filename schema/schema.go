package schema

import (
	"fmt"
	"reflect"

	"github.com/syssam/fixgen/schema/rule"
)

// Field describes one generated field of a target type.
type Field struct {
	Name  string             // field name used by rules, options and views.
	Type  reflect.Type       // Go type of the field.
	Rules []*rule.Descriptor // declared rules, possibly several grouped variants.

	// Get returns the current field value of target.
	Get func(target any) any
	// Set writes value into the field of target. A nil value stores
	// the zero value.
	Set func(target any, value any) error
}

// Nillable reports whether the field type can represent the absence of a value.
func (f *Field) Nillable() bool { return Nillable(f.Type) }

// Nillable reports whether values of t can be nil.
func Nillable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return true
	default:
		return false
	}
}

// Schema is the explicit descriptor of a target struct type.
// It is built once per type and shared by all runs.
type Schema struct {
	Name   string       // type name.
	Type   reflect.Type // struct type (never a pointer).
	Fields []*Field

	index map[string]*Field
}

// New returns the schema of the struct type typ.
func New(typ reflect.Type, fields ...*Field) (*Schema, error) {
	if typ == nil {
		return nil, fmt.Errorf("schema: nil type")
	}
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema: %s is not a struct type", typ)
	}
	s := &Schema{
		Name:   typ.Name(),
		Type:   typ,
		Fields: make([]*Field, 0, len(fields)),
		index:  make(map[string]*Field, len(fields)),
	}
	for _, f := range fields {
		switch {
		case f == nil:
			continue
		case f.Name == "":
			return nil, fmt.Errorf("schema: %s: field without name", s.Name)
		case f.Type == nil || f.Get == nil || f.Set == nil:
			return nil, fmt.Errorf("schema: %s.%s: field requires type, getter and setter", s.Name, f.Name)
		}
		if _, ok := s.index[f.Name]; ok {
			return nil, fmt.Errorf("schema: %s: duplicate field %q", s.Name, f.Name)
		}
		s.index[f.Name] = f
		s.Fields = append(s.Fields, f)
	}
	return s, nil
}

// For returns the schema of T.
//
//	schema.For[User](
//	    schema.Bind("name", func(u *User) *string { return &u.Name }, rule.String(3, 10)),
//	    schema.Bind("age", func(u *User) *int { return &u.Age }, rule.Int(18, 99)),
//	)
func For[T any](fields ...*Field) (*Schema, error) {
	return New(reflect.TypeFor[T](), fields...)
}

// MustFor is like For but panics on error.
func MustFor[T any](fields ...*Field) *Schema {
	s, err := For[T](fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Field returns the named field.
func (s *Schema) Field(name string) (*Field, bool) {
	f, ok := s.index[name]
	return f, ok
}

// NewTarget allocates a new zero target and returns a pointer to it.
func (s *Schema) NewTarget() any {
	return reflect.New(s.Type).Interface()
}

// Check reports whether target can be populated with this schema.
func (s *Schema) Check(target any) error {
	t := reflect.TypeOf(target)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem() != s.Type {
		return fmt.Errorf("schema: target must be *%s, got %T", s.Type, target)
	}
	if reflect.ValueOf(target).IsNil() {
		return fmt.Errorf("schema: target *%s is nil", s.Type)
	}
	return nil
}

// Bind returns a field accessed through ref, which returns a pointer
// to the field inside a target.
func Bind[T, V any](name string, ref func(*T) *V, rules ...rule.Rule) *Field {
	typ := reflect.TypeFor[V]()
	return &Field{
		Name:  name,
		Type:  typ,
		Rules: rule.Descriptors(rules...),
		Get: func(target any) any {
			return *ref(target.(*T))
		},
		Set: func(target any, value any) error {
			t, ok := target.(*T)
			if !ok {
				return fmt.Errorf("field %s: target is %T, not %T", name, target, t)
			}
			if v, ok := value.(V); ok {
				*ref(t) = v
				return nil
			}
			return Assign(reflect.ValueOf(ref(t)).Elem(), value)
		},
	}
}

// BindTag is like Bind but parses the rules from a struct tag value.
// It panics if the tag is malformed, and is meant for generated code.
func BindTag[T, V any](name string, ref func(*T) *V, tag string) *Field {
	f := Bind(name, ref)
	f.Rules = rule.MustParseTag(tag)
	return f
}

// Assign stores value into dst, converting between types sharing the
// same kind (a named string type and string, int and a named int).
func Assign(dst reflect.Value, value any) error {
	if value == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	v := reflect.ValueOf(value)
	switch {
	case v.Type().AssignableTo(dst.Type()):
		dst.Set(v)
	case v.Kind() == dst.Kind() && v.Type().ConvertibleTo(dst.Type()):
		dst.Set(v.Convert(dst.Type()))
	case dst.Kind() == reflect.Pointer && v.Type().AssignableTo(dst.Type().Elem()):
		p := reflect.New(dst.Type().Elem())
		p.Elem().Set(v)
		dst.Set(p)
	default:
		return fmt.Errorf("cannot assign %s to %s", v.Type(), dst.Type())
	}
	return nil
}
