package scheduler

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/syssam/fixgen/schema"
)

// State is the per-run view of the target being populated. Field writes
// and reads of written fields go through its lock, which is the only
// synchronization point between the workers of one run.
//
// State implements fixgen.View.
type State struct {
	mu      sync.RWMutex
	target  any
	fields  map[string]*schema.Field
	written map[string]struct{}
}

// NewState returns the state of one run over target, a pointer to the
// struct described by fields.
func NewState(target any, fields []*schema.Field) *State {
	s := &State{
		target:  target,
		fields:  make(map[string]*schema.Field, len(fields)),
		written: make(map[string]struct{}, len(fields)),
	}
	for _, f := range fields {
		s.fields[f.Name] = f
	}
	return s
}

// Target returns the populated target.
func (s *State) Target() any { return s.target }

// TypeName returns the name of the target type.
func (s *State) TypeName() string {
	t := reflect.TypeOf(s.target)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}

// Get implements fixgen.View. Only fields written by this run are visible.
func (s *State) Get(field string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.written[field]; !ok {
		return nil, false
	}
	return s.fields[field].Get(s.target), true
}

// IsSet implements fixgen.View.
func (s *State) IsSet(field string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.written[field]
	return ok
}

// Set writes value into field. A field is written at most once per run.
func (s *State) Set(f *schema.Field, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.written[f.Name]; ok {
		return fmt.Errorf("field %s already written", f.Name)
	}
	if err := f.Set(s.target, value); err != nil {
		return err
	}
	s.written[f.Name] = struct{}{}
	return nil
}

// Written returns the number of fields written so far.
func (s *State) Written() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.written)
}
