package generator

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/syssam/fixgen"
	"github.com/syssam/fixgen/schema"
)

// Constructor returns a fresh generator instance. The returned value must
// implement fixgen.Generator.
type Constructor func() any

// Registry holds custom generators, by name for custom rules and by Go
// type for basic rules on types without a builtin generator.
// It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Constructor
	byType map[reflect.Type]Constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Constructor),
		byType: make(map[reflect.Type]Constructor),
	}
}

// Register adds the constructor of the generator referenced as name.
func (r *Registry) Register(name string, ctor Constructor) error {
	if name == "" {
		return fmt.Errorf("generator: empty generator name")
	}
	if ctor == nil {
		return fmt.Errorf("generator: nil constructor for %q", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("generator: %q already registered", name)
	}
	r.byName[name] = ctor
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, ctor Constructor) *Registry {
	if err := r.Register(name, ctor); err != nil {
		panic(err)
	}
	return r
}

// RegisterType adds the constructor used by basic rules on fields of typ.
// It takes precedence over the builtin generators.
func (r *Registry) RegisterType(typ reflect.Type, ctor Constructor) error {
	if typ == nil || ctor == nil {
		return fmt.Errorf("generator: nil type or constructor")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byType[typ]; ok {
		return fmt.Errorf("generator: type %s already registered", typ)
	}
	r.byType[typ] = ctor
	return nil
}

// Lookup returns the constructor registered as name.
func (r *Registry) Lookup(name string) (Constructor, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.byName[name]
	return ctor, ok
}

// LookupType returns the constructor registered for typ.
func (r *Registry) LookupType(typ reflect.Type) (Constructor, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctor, ok := r.byType[typ]
	return ctor, ok
}

// Names returns the registered generator names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// instantiate calls ctor and checks the result is a generator.
func instantiate(ctor Constructor) (fixgen.Generator, error) {
	v := ctor()
	if v == nil {
		return nil, fmt.Errorf("constructor returned nil")
	}
	g, ok := v.(fixgen.Generator)
	if !ok {
		return nil, fmt.Errorf("%T does not implement fixgen.Generator", v)
	}
	return g, nil
}

// customGenerator adapts a custom generator to a field: the produced value
// is checked against the field type, and NULL yields nil for generators
// that do not handle remarks themselves.
type customGenerator struct {
	typ  reflect.Type
	gen  fixgen.Generator
	null bool
}

func (g *customGenerator) Generate() (any, error) {
	if g.null {
		return reflect.Zero(g.typ).Interface(), nil
	}
	v, err := g.gen.Generate()
	if err != nil {
		return nil, err
	}
	if v == nil {
		return reflect.Zero(g.typ).Interface(), nil
	}
	dst := reflect.New(g.typ).Elem()
	if err := schema.Assign(dst, v); err != nil {
		return nil, err
	}
	return dst.Interface(), nil
}
