package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/syssam/fixgen"
	"github.com/syssam/fixgen/schema/rule"
)

// Global is the process-wide configuration shared by engines.
// It is immutable once loaded; reloading produces a new value.
//
// Example file:
//
//	max_attempts: 50
//	workers: 4
//	kinds:
//	  collection:
//	    min_size: 2
//	    max_size: 8
//	types:
//	  string:
//	    charset: abcdef
//	  time.Time:
//	    after: 2020-01-01T00:00:00Z
type Global struct {
	MaxAttempts int           `yaml:"max_attempts,omitempty" validate:"gte=0"`
	Workers     int           `yaml:"workers,omitempty" validate:"gte=0,lte=1024"`
	MaxDepth    int           `yaml:"max_depth,omitempty" validate:"gte=0"`
	Remark      fixgen.Remark `yaml:"remark,omitempty"`

	// Kinds holds params per rule kind name ("basic", "collection", ...).
	Kinds map[string]rule.Params `yaml:"kinds,omitempty" validate:"dive"`
	// Types holds params per Go type name as printed by reflect ("int", "time.Time").
	Types map[string]rule.Params `yaml:"types,omitempty" validate:"dive"`
}

var validate = validator.New()

// Load reads and validates the configuration file at path.
func Load(path string) (*Global, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	g, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return g, nil
}

// Parse decodes and validates a YAML configuration. Unknown keys are errors.
func Parse(data []byte) (*Global, error) {
	g := &Global{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(g); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks field constraints and kind names.
func (g *Global) Validate() error {
	if err := validate.Struct(g); err != nil {
		return err
	}
	for name := range g.Kinds {
		if _, err := ParseKind(name); err != nil {
			return err
		}
	}
	return nil
}

// ParseKind returns the rule kind with the given name.
func ParseKind(name string) (rule.Kind, error) {
	for k := rule.KindBasic; k.Valid(); k++ {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown rule kind %q", name)
}

// params returns the global layers applying to a generator.
func (g *Global) params(kind rule.Kind, typ reflect.Type) []rule.Params {
	var layers []rule.Params
	if g.Remark.Defined() {
		layers = append(layers, rule.Params{}.WithRemark(g.Remark))
	}
	if p, ok := g.Kinds[kind.String()]; ok {
		layers = append(layers, p)
	}
	if typ != nil {
		if p, ok := g.Types[deref(typ).String()]; ok {
			layers = append(layers, p)
		}
		if p, ok := g.Types[typ.String()]; ok && typ.Kind() == reflect.Pointer {
			layers = append(layers, p)
		}
	}
	return layers
}
