package generator

import (
	"reflect"

	"github.com/syssam/fixgen"
	"github.com/syssam/fixgen/schema/rule"
)

// Unit is a built generator together with the capabilities the scheduler
// dispatches on. Capabilities are detected once, when the unit is built.
type Unit struct {
	Field  string           // field the unit generates.
	Kind   rule.Kind        // kind of the resolved rule.
	Type   reflect.Type     // Go type of the produced values.
	Gen    fixgen.Generator // value producer.
	Params rule.Params      // effective configuration.

	// Ready is the readiness predicate of a dependent generator,
	// nil when the generator is not dependent.
	Ready func() bool
	// Elems are the element units of a collection: the element, or the
	// key and value of a map.
	Elems []*Unit
}

// Dependent reports whether the unit, or any of its element units,
// waits on other fields.
func (u *Unit) Dependent() bool {
	if u.Ready != nil {
		return true
	}
	for _, e := range u.Elems {
		if e.Dependent() {
			return true
		}
	}
	return false
}

// IsReady evaluates the readiness predicates of the unit and of its
// element units.
func (u *Unit) IsReady() bool {
	if u.Ready != nil && !u.Ready() {
		return false
	}
	for _, e := range u.Elems {
		if !e.IsReady() {
			return false
		}
	}
	return true
}

// Generate produces one value.
func (u *Unit) Generate() (any, error) { return u.Gen.Generate() }
