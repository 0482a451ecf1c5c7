// Package config merges generator configuration layers and loads the
// process-wide configuration file.
//
// # Layers
//
// The effective configuration of a generator is merged property by
// property, lowest precedence first:
//
//  1. the kind defaults (rule.Defaults) overlaid with the params declared
//     on the rule itself;
//  2. the process-wide Global configuration, per rule kind then per Go type;
//  3. per-type configuration of the engine;
//  4. per-field configuration of the engine;
//  5. the global remark, then the per-field remark of the engine.
//
// A layer only overrides the properties it sets.
//
// # Remarks
//
// A remark declared on a rule is only a baseline. The remark of the Global
// file, the engine's global remark and its per-field remarks all override
// it, so a file setting `remark: random` replaces a `remark=min` declared
// in a struct tag.
package config

import (
	"maps"
	"reflect"
	"strings"

	"github.com/syssam/fixgen"
	"github.com/syssam/fixgen/schema/rule"
)

// Merger merges the configuration layers of one engine.
// A Merger is immutable once built and safe for concurrent use.
type Merger struct {
	Global       *Global
	Types        map[reflect.Type]rule.Params
	Fields       map[string]rule.Params
	GlobalRemark fixgen.Remark
	FieldRemarks map[string]fixgen.Remark
}

// Request identifies the generator being configured.
type Request struct {
	Field    string       // field name (dotted path for nested fields).
	Type     reflect.Type // Go type produced by the generator.
	Kind     rule.Kind    // rule kind of the generator.
	Declared rule.Params  // params declared on the rule, remark applied.
	// Top is false for element, key and value generators of collections.
	// The per-field remark only applies to the top-level generator.
	Top bool
}

// Layers returns the configuration layers of req, lowest precedence first.
func (m *Merger) Layers(req Request) []rule.Params {
	layers := []rule.Params{rule.Defaults(req.Kind), req.Declared}
	if m == nil {
		return layers
	}
	if m.Global != nil {
		layers = append(layers, m.Global.params(req.Kind, req.Type)...)
	}
	if p, ok := m.Types[req.Type]; ok {
		layers = append(layers, p)
	} else if p, ok := m.Types[deref(req.Type)]; ok {
		layers = append(layers, p)
	}
	if p, ok := m.Fields[req.Field]; ok {
		layers = append(layers, p)
	}
	if m.GlobalRemark.Defined() {
		layers = append(layers, rule.Params{}.WithRemark(m.GlobalRemark))
	}
	if r, ok := m.FieldRemarks[req.Field]; ok && req.Top {
		layers = append(layers, rule.Params{}.WithRemark(r))
	}
	return layers
}

// Merge returns the effective configuration of req.
func (m *Merger) Merge(req Request) rule.Params {
	var p rule.Params
	for _, l := range m.Layers(req) {
		p = p.Merge(l)
	}
	return p
}

// Scoped returns the merger applying to the fields of a nested object
// stored in field prefix: per-field entries "prefix.name" become "name".
func (m *Merger) Scoped(prefix string) *Merger {
	if m == nil {
		return nil
	}
	scoped := &Merger{
		Global:       m.Global,
		Types:        m.Types,
		GlobalRemark: m.GlobalRemark,
		Fields:       make(map[string]rule.Params),
		FieldRemarks: make(map[string]fixgen.Remark),
	}
	p := prefix + "."
	for k, v := range m.Fields {
		if name, ok := strings.CutPrefix(k, p); ok && name != "" {
			scoped.Fields[name] = v
		}
	}
	for k, v := range m.FieldRemarks {
		if name, ok := strings.CutPrefix(k, p); ok && name != "" {
			scoped.FieldRemarks[name] = v
		}
	}
	return scoped
}

// Clone returns a deep copy of the merger maps.
func (m *Merger) Clone() *Merger {
	if m == nil {
		return &Merger{}
	}
	return &Merger{
		Global:       m.Global,
		Types:        maps.Clone(m.Types),
		Fields:       maps.Clone(m.Fields),
		GlobalRemark: m.GlobalRemark,
		FieldRemarks: maps.Clone(m.FieldRemarks),
	}
}

func deref(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}
