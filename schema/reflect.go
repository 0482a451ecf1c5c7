package schema

import (
	"fmt"
	"reflect"
	"unsafe"

	"github.com/go-openapi/inflect"

	"github.com/syssam/fixgen/schema/rule"
)

// FieldName returns the schema name of a Go struct field:
// CreatedAt becomes created_at.
func FieldName(goName string) string {
	return inflect.Underscore(goName)
}

// FromStruct builds the schema of a struct type from its `fixgen` tags.
// Fields without a tag, or tagged "-", are not part of the schema.
//
// Unexported fields are supported: this adapter is the only place that
// writes around Go's visibility rules.
func FromStruct(typ reflect.Type) (*Schema, error) {
	if typ == nil {
		return nil, fmt.Errorf("schema: nil type")
	}
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema: %s is not a struct type", typ)
	}
	var fields []*Field
	for i := range typ.NumField() {
		sf := typ.Field(i)
		tag, ok := sf.Tag.Lookup(rule.TagName)
		if !ok || tag == "-" || sf.Anonymous {
			continue
		}
		rules, err := rule.ParseTag(tag)
		if err != nil {
			return nil, fmt.Errorf("schema: %s.%s: %w", typ.Name(), sf.Name, err)
		}
		fields = append(fields, structField(typ, sf, rules))
	}
	return New(typ, fields...)
}

func structField(typ reflect.Type, sf reflect.StructField, rules []*rule.Descriptor) *Field {
	index := sf.Index
	name := FieldName(sf.Name)
	return &Field{
		Name:  name,
		Type:  sf.Type,
		Rules: rules,
		Get: func(target any) any {
			return fieldValue(target, index).Interface()
		},
		Set: func(target any, value any) error {
			if t := reflect.TypeOf(target); t == nil || t.Kind() != reflect.Pointer || t.Elem() != typ {
				return fmt.Errorf("field %s: target is %T, not *%s", name, target, typ)
			}
			return Assign(fieldValue(target, index), value)
		},
	}
}

// fieldValue returns an addressable, settable value of the field at index.
func fieldValue(target any, index []int) reflect.Value {
	v := reflect.ValueOf(target).Elem().FieldByIndex(index)
	if !v.CanSet() {
		v = reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem()
	}
	return v
}
