package fixture

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/syssam/fixgen"
	"github.com/syssam/fixgen/config"
	"github.com/syssam/fixgen/generator"
	"github.com/syssam/fixgen/schema"
	"github.com/syssam/fixgen/schema/rule"
)

// Default engine settings.
const (
	DefaultMaxAttempts = 100
	DefaultWorkers     = 1
	DefaultMaxDepth    = 3
)

// Config holds the settings of an Engine. Zero values select the
// settings of the Global configuration, then the package defaults.
type Config struct {
	Groups       []string
	Remark       fixgen.Remark
	FieldRemarks map[string]fixgen.Remark
	TypeConfig   map[reflect.Type]rule.Params
	FieldConfig  map[string]rule.Params
	FieldArgs    map[string][]string
	TypeArgs     map[reflect.Type][]string

	MaxAttempts int
	Workers     int
	MaxDepth    int

	Global     *config.Global
	Generators *generator.Registry
	Schemas    *schema.Registry
	Logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Config) error

// WithGroups includes the rules of the named groups. Without it only
// rules of rule.DefaultGroup apply.
func WithGroups(names ...string) Option {
	return func(c *Config) error {
		for _, n := range names {
			if n == "" {
				return fixgen.NewConfigError("Groups", nil, "group name cannot be empty")
			}
		}
		c.Groups = append(c.Groups, names...)
		return nil
	}
}

// WithRemark sets the remark of every generator.
func WithRemark(r fixgen.Remark) Option {
	return func(c *Config) error {
		if !r.Defined() {
			return fixgen.NewConfigError("Remark", r, "remark must be defined")
		}
		if c.Remark.Defined() && c.Remark != r {
			return fixgen.NewConfigError("Remark", r, fmt.Sprintf("conflicts with remark %s set earlier", c.Remark))
		}
		c.Remark = r
		return nil
	}
}

// WithFieldRemark sets the remark of the top-level generator of field.
// Nested fields are addressed by their dotted path ("address.city").
func WithFieldRemark(field string, r fixgen.Remark) Option {
	return func(c *Config) error {
		if field == "" {
			return fixgen.NewConfigError("FieldRemark", r, "field name cannot be empty")
		}
		if !r.Defined() {
			return fixgen.NewConfigError("FieldRemark", field, "remark must be defined")
		}
		if prev, ok := c.FieldRemarks[field]; ok && prev != r {
			return fixgen.NewConfigError("FieldRemark", field,
				fmt.Sprintf("remark %s conflicts with remark %s set earlier", r, prev))
		}
		if c.FieldRemarks == nil {
			c.FieldRemarks = make(map[string]fixgen.Remark)
		}
		c.FieldRemarks[field] = r
		return nil
	}
}

// WithTypeConfig sets the configuration of every generator producing
// values of typ. Repeated calls for the same type merge.
func WithTypeConfig(typ reflect.Type, p rule.Params) Option {
	return func(c *Config) error {
		if typ == nil {
			return fixgen.NewConfigError("TypeConfig", nil, "type cannot be nil")
		}
		if c.TypeConfig == nil {
			c.TypeConfig = make(map[reflect.Type]rule.Params)
		}
		c.TypeConfig[typ] = c.TypeConfig[typ].Merge(p)
		return nil
	}
}

// WithFieldConfig sets the configuration of the generators of field,
// element generators included. Repeated calls for the same field merge.
func WithFieldConfig(field string, p rule.Params) Option {
	return func(c *Config) error {
		if field == "" {
			return fixgen.NewConfigError("FieldConfig", nil, "field name cannot be empty")
		}
		if c.FieldConfig == nil {
			c.FieldConfig = make(map[string]rule.Params)
		}
		c.FieldConfig[field] = c.FieldConfig[field].Merge(p)
		return nil
	}
}

// WithFieldArgs sets the arguments of the custom generators of field.
func WithFieldArgs(field string, args ...string) Option {
	return func(c *Config) error {
		if field == "" {
			return fixgen.NewConfigError("FieldArgs", nil, "field name cannot be empty")
		}
		if c.FieldArgs == nil {
			c.FieldArgs = make(map[string][]string)
		}
		c.FieldArgs[field] = slices.Clone(args)
		return nil
	}
}

// WithTypeArgs sets the arguments of the custom generators producing
// values of typ.
func WithTypeArgs(typ reflect.Type, args ...string) Option {
	return func(c *Config) error {
		if typ == nil {
			return fixgen.NewConfigError("TypeArgs", nil, "type cannot be nil")
		}
		if c.TypeArgs == nil {
			c.TypeArgs = make(map[reflect.Type][]string)
		}
		c.TypeArgs[typ] = slices.Clone(args)
		return nil
	}
}

// WithMaxAttempts bounds the number of scheduling passes of a run.
func WithMaxAttempts(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return fixgen.NewConfigError("MaxAttempts", n, "must be positive")
		}
		c.MaxAttempts = n
		return nil
	}
}

// WithWorkers sets the number of fields generated in parallel.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return fixgen.NewConfigError("Workers", n, "must be positive")
		}
		c.Workers = n
		return nil
	}
}

// WithMaxDepth bounds the nesting of nested objects. Nested fields
// below the bound are left nil, or fail when they cannot be nil.
func WithMaxDepth(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return fixgen.NewConfigError("MaxDepth", n, "must be positive")
		}
		c.MaxDepth = n
		return nil
	}
}

// WithGlobal sets the process-wide configuration.
func WithGlobal(g *config.Global) Option {
	return func(c *Config) error {
		if g == nil {
			return fixgen.NewConfigError("Global", nil, "global configuration cannot be nil")
		}
		if err := g.Validate(); err != nil {
			return fmt.Errorf("%w: %w", fixgen.NewConfigError("Global", nil, "invalid global configuration"), err)
		}
		c.Global = g
		return nil
	}
}

// WithGenerators sets the registry of custom generators.
func WithGenerators(r *generator.Registry) Option {
	return func(c *Config) error {
		if r == nil {
			return fixgen.NewConfigError("Generators", nil, "registry cannot be nil")
		}
		c.Generators = r
		return nil
	}
}

// WithSchemas sets the registry resolving target schemas.
func WithSchemas(r *schema.Registry) Option {
	return func(c *Config) error {
		if r == nil {
			return fixgen.NewConfigError("Schemas", nil, "registry cannot be nil")
		}
		c.Schemas = r
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return fixgen.NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// defaults fills unset settings from the global configuration and the
// package defaults.
func (c *Config) defaults() {
	g := c.Global
	if g == nil {
		g = &config.Global{}
	}
	c.MaxAttempts = first(c.MaxAttempts, g.MaxAttempts, DefaultMaxAttempts)
	c.Workers = first(c.Workers, g.Workers, DefaultWorkers)
	c.MaxDepth = first(c.MaxDepth, g.MaxDepth, DefaultMaxDepth)
	if c.Generators == nil {
		c.Generators = generator.NewRegistry()
	}
	if c.Schemas == nil {
		c.Schemas, _ = schema.NewRegistry()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

func first(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
