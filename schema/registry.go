package schema

import (
	"fmt"
	"reflect"
	"sync"
)

// Provider is implemented by types that declare their own schema,
// typically through generated code.
type Provider interface {
	FixgenSchema() *Schema
}

// Registry resolves the schema of target types. Explicitly registered
// schemas win over Provider implementations, which win over struct tags.
// A Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	schemas map[reflect.Type]*Schema
}

// NewRegistry returns a registry holding the given schemas.
func NewRegistry(schemas ...*Schema) (*Registry, error) {
	r := &Registry{schemas: make(map[reflect.Type]*Schema)}
	if err := r.Register(schemas...); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds schemas to the registry. Registering a second schema for
// the same type is an error.
func (r *Registry) Register(schemas ...*Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.schemas == nil {
		r.schemas = make(map[reflect.Type]*Schema)
	}
	for _, s := range schemas {
		if s == nil {
			continue
		}
		if _, ok := r.schemas[s.Type]; ok {
			return fmt.Errorf("schema: %s already registered", s.Type)
		}
		r.schemas[s.Type] = s
	}
	return nil
}

// Lookup returns the schema of typ (a struct type or a pointer to one).
func (r *Registry) Lookup(typ reflect.Type) (*Schema, error) {
	if typ == nil {
		return nil, fmt.Errorf("schema: nil type")
	}
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	r.mu.RLock()
	s, ok := r.schemas[typ]
	r.mu.RUnlock()
	if ok {
		return s, nil
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("schema: %s is not a struct type", typ)
	}
	var err error
	if p, ok := reflect.New(typ).Interface().(Provider); ok {
		if s = p.FixgenSchema(); s == nil {
			return nil, fmt.Errorf("schema: %s provides a nil schema", typ)
		}
	} else if s, err = FromStruct(typ); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.schemas == nil {
		r.schemas = make(map[reflect.Type]*Schema)
	}
	if cached, ok := r.schemas[typ]; ok {
		return cached, nil
	}
	r.schemas[typ] = s
	return s, nil
}
