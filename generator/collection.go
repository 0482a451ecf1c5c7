package generator

import (
	"fmt"
	"reflect"

	"github.com/syssam/fixgen"
	"github.com/syssam/fixgen/schema"
	"github.com/syssam/fixgen/schema/rule"
)

// Container is a collection being filled by a CollectionGenerator.
type Container interface {
	// Len returns the number of distinct elements held.
	Len() int
	// Insert adds one element. The key is nil for containers other than maps.
	// Inserting a duplicate into a set or an existing key into a map
	// leaves Len unchanged.
	Insert(key, value any) error
	// Value returns the filled collection.
	Value() any
}

// CollectionGenerator fills a container with generated elements until it
// holds the target size. Containers deduplicating their elements (sets,
// maps) may need more insertions than their size; StallLimit consecutive
// insertions that do not grow the container fail with a
// *fixgen.CollectionSizeError.
type CollectionGenerator struct {
	Type       reflect.Type // collection type.
	MinSize    int
	MaxSize    int
	Remark     fixgen.Remark // MinValue and MaxValue pick the bound sizes.
	StallLimit int

	// New returns an empty container for the target size.
	New func(size int) Container
	// Elem generates elements, or map values.
	Elem fixgen.Generator
	// Key generates map keys. It is nil for other containers.
	Key fixgen.Generator
}

// Generate implements fixgen.Generator.
func (g *CollectionGenerator) Generate() (any, error) {
	size := sizeIn(g.MinSize, g.MaxSize, g.Remark)
	c := g.New(size)
	stalls := 0
	for c.Len() < size {
		n := c.Len()
		if err := g.insert(c); err != nil {
			return nil, err
		}
		if c.Len() > n {
			stalls = 0
			continue
		}
		if stalls++; stalls >= g.StallLimit {
			return nil, &fixgen.CollectionSizeError{Target: size, Size: c.Len(), Stalls: stalls}
		}
	}
	return c.Value(), nil
}

func (g *CollectionGenerator) insert(c Container) error {
	var key any
	if g.Key != nil {
		k, err := g.Key.Generate()
		if err != nil {
			return fmt.Errorf("generating key: %w", err)
		}
		key = k
	}
	v, err := g.Elem.Generate()
	if err != nil {
		return fmt.Errorf("generating element: %w", err)
	}
	return c.Insert(key, v)
}

// Shape describes the container layout of a collection type.
type Shape struct {
	Type  reflect.Type // collection type, pointers removed.
	Elem  reflect.Type // element type; the value type for maps.
	Key   reflect.Type // key type of maps; the element type of sets.
	Set   bool         // map used as a set: map[T]struct{} or map[T]bool.
	Fixed int          // length of array types, -1 otherwise.
	Ptr   bool         // the field holds a pointer to the collection.
}

// ShapeOf returns the layout of typ filled under a rule of kind k.
func ShapeOf(typ reflect.Type, k rule.Kind) (*Shape, error) {
	s := &Shape{Type: typ, Fixed: -1}
	if typ.Kind() == reflect.Pointer {
		s.Type, s.Ptr = typ.Elem(), true
	}
	t := s.Type
	switch {
	case t.Kind() == reflect.Slice && k != rule.KindMap:
		s.Elem = t.Elem()
	case t.Kind() == reflect.Array && k == rule.KindArray:
		s.Elem, s.Fixed = t.Elem(), t.Len()
	case t.Kind() == reflect.Map && k == rule.KindMap:
		s.Key, s.Elem = t.Key(), t.Elem()
	case t.Kind() == reflect.Map && k == rule.KindCollection && isSetValue(t.Elem()):
		s.Key, s.Elem, s.Set = t.Key(), t.Key(), true
	default:
		return nil, fmt.Errorf("%s rule cannot fill %s", k, typ)
	}
	return s, nil
}

func isSetValue(t reflect.Type) bool {
	return t.Kind() == reflect.Bool || (t.Kind() == reflect.Struct && t.Size() == 0)
}

// NewContainer returns an empty container of the given shape.
func (s *Shape) NewContainer(size int) Container {
	var c Container
	switch {
	case s.Set:
		c = &setContainer{v: reflect.MakeMapWithSize(s.Type, size)}
	case s.Type.Kind() == reflect.Map:
		c = &mapContainer{v: reflect.MakeMapWithSize(s.Type, size)}
	case s.Fixed >= 0:
		c = &arrayContainer{v: reflect.New(s.Type).Elem()}
	default:
		c = &sliceContainer{v: reflect.MakeSlice(s.Type, 0, size)}
	}
	if s.Ptr {
		return &pointerContainer{Container: c, typ: s.Type}
	}
	return c
}

type sliceContainer struct {
	v reflect.Value
}

func (c *sliceContainer) Len() int { return c.v.Len() }

func (c *sliceContainer) Insert(_, value any) error {
	e := reflect.New(c.v.Type().Elem()).Elem()
	if err := schema.Assign(e, value); err != nil {
		return err
	}
	c.v = reflect.Append(c.v, e)
	return nil
}

func (c *sliceContainer) Value() any { return c.v.Interface() }

type arrayContainer struct {
	v reflect.Value
	n int
}

func (c *arrayContainer) Len() int { return c.n }

func (c *arrayContainer) Insert(_, value any) error {
	if c.n >= c.v.Len() {
		return fmt.Errorf("array %s is full", c.v.Type())
	}
	if err := schema.Assign(c.v.Index(c.n), value); err != nil {
		return err
	}
	c.n++
	return nil
}

func (c *arrayContainer) Value() any { return c.v.Interface() }

type setContainer struct {
	v reflect.Value
}

func (c *setContainer) Len() int { return c.v.Len() }

func (c *setContainer) Insert(_, value any) error {
	k := reflect.New(c.v.Type().Key()).Elem()
	if err := schema.Assign(k, value); err != nil {
		return err
	}
	present := reflect.New(c.v.Type().Elem()).Elem()
	if present.Kind() == reflect.Bool {
		present.SetBool(true)
	}
	c.v.SetMapIndex(k, present)
	return nil
}

func (c *setContainer) Value() any { return c.v.Interface() }

type mapContainer struct {
	v reflect.Value
}

func (c *mapContainer) Len() int { return c.v.Len() }

func (c *mapContainer) Insert(key, value any) error {
	k := reflect.New(c.v.Type().Key()).Elem()
	if err := schema.Assign(k, key); err != nil {
		return fmt.Errorf("key: %w", err)
	}
	v := reflect.New(c.v.Type().Elem()).Elem()
	if err := schema.Assign(v, value); err != nil {
		return err
	}
	c.v.SetMapIndex(k, v)
	return nil
}

func (c *mapContainer) Value() any { return c.v.Interface() }

type pointerContainer struct {
	Container
	typ reflect.Type
}

func (c *pointerContainer) Value() any {
	p := reflect.New(c.typ)
	p.Elem().Set(reflect.ValueOf(c.Container.Value()))
	return p.Interface()
}
