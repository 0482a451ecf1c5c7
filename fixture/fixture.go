package fixture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/syssam/fixgen"
	"github.com/syssam/fixgen/config"
	"github.com/syssam/fixgen/generator"
	"github.com/syssam/fixgen/schema"
	"github.com/syssam/fixgen/schema/rule"
	"github.com/syssam/fixgen/scheduler"
)

var tracer = otel.Tracer("fixgen.fixture")

// Engine populates targets with generated values. An Engine is immutable
// once built and safe for concurrent use; every Populate call is an
// independent run.
type Engine struct {
	cfg    Config
	groups rule.Groups
	merger *config.Merger
	logger *slog.Logger
}

// New returns an engine configured by opts. All option errors are
// reported together.
func New(opts ...Option) (*Engine, error) {
	var cfg Config
	if err := cfg.ApplyAll(opts...); err != nil {
		return nil, err
	}
	cfg.defaults()
	return &Engine{
		cfg:    cfg,
		groups: rule.NewGroups(cfg.Groups...),
		merger: &config.Merger{
			Global:       cfg.Global,
			Types:        cfg.TypeConfig,
			Fields:       cfg.FieldConfig,
			GlobalRemark: cfg.Remark,
			FieldRemarks: cfg.FieldRemarks,
		},
		logger: cfg.Logger,
	}, nil
}

// Config returns a copy of the engine settings, defaults applied.
func (e *Engine) Config() Config { return e.cfg }

// Populate writes generated values into the fields of target, a non-nil
// pointer to a struct.
//
// Rule validation and generator resolution errors are returned before any
// field is written. Otherwise every field with an applicable rule is
// written, or a *fixgen.AggregateError listing every failed and every
// never-ready field is returned.
func (e *Engine) Populate(ctx context.Context, target any) (err error) {
	typ := reflect.TypeOf(target)
	ctx, span := tracer.Start(ctx, "fixture.Populate")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "populate failed")
		}
		span.End()
	}()
	if typ == nil || typ.Kind() != reflect.Pointer || reflect.ValueOf(target).IsNil() {
		return fmt.Errorf("fixture: target must be a non-nil pointer to a struct, got %T", target)
	}
	s, err := e.cfg.Schemas.Lookup(typ)
	if err != nil {
		return err
	}
	if err := s.Check(target); err != nil {
		return err
	}
	span.SetAttributes(
		attribute.String("fixgen.type", s.Type.String()),
		attribute.Int("fixgen.fields", len(s.Fields)),
		attribute.Int("fixgen.workers", e.cfg.Workers),
	)
	logger := e.logger.With("type", s.Type.String())
	res, err := e.run(ctx, &run{target: target, schema: s, merger: e.merger, logger: logger})
	span.SetAttributes(attribute.Int("fixgen.attempts", res.Attempts))
	if err != nil {
		logger.Error("populate failed", "attempts", res.Attempts, "error", err)
		return err
	}
	logger.Info("populated", "fields", res.Executed, "attempts", res.Attempts)
	return nil
}

// Generate returns a new T populated by an engine configured by opts.
func Generate[T any](ctx context.Context, opts ...Option) (*T, error) {
	e, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return GenerateWith[T](ctx, e)
}

// GenerateWith returns a new T populated by e.
func GenerateWith[T any](ctx context.Context, e *Engine) (*T, error) {
	v := new(T)
	if err := e.Populate(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// run is one (possibly nested) populate run.
type run struct {
	target any
	schema *schema.Schema
	merger *config.Merger
	logger *slog.Logger
	depth  int
	prefix string // dotted path of the object, with a trailing dot.
}

func (e *Engine) run(ctx context.Context, r *run) (scheduler.Result, error) {
	state := scheduler.NewState(r.target, r.schema.Fields)
	tasks, err := e.tasks(ctx, r, state)
	if err != nil {
		return scheduler.Result{}, err
	}
	return scheduler.Run(ctx, state, tasks, scheduler.Options{
		MaxAttempts: e.cfg.MaxAttempts,
		Workers:     e.cfg.Workers,
		Prefix:      r.prefix,
		Logger:      r.logger,
	})
}

// tasks resolves the rules of every field of r and builds their units.
// Nested objects are built down to MaxDepth, so a malformed rule anywhere
// in the object graph fails here, before any generator runs.
func (e *Engine) tasks(ctx context.Context, r *run, state *scheduler.State) ([]scheduler.Task, error) {
	f := &generator.Factory{
		Merger:    r.merger,
		Registry:  e.cfg.Generators,
		View:      state,
		Nested:    e.nested(ctx, r),
		FieldArgs: scoped(e.cfg.FieldArgs, r.prefix),
		TypeArgs:  e.cfg.TypeArgs,
		Logger:    r.logger,
	}
	tasks := make([]scheduler.Task, 0, len(r.schema.Fields))
	for _, field := range r.schema.Fields {
		info, err := rule.Resolve(field.Name, field.Rules, e.groups)
		if err != nil {
			return nil, qualify(err, r.prefix)
		}
		if info == nil {
			r.logger.Debug("no rule selected, field skipped", "field", r.prefix+field.Name)
			continue
		}
		u, err := f.Build(info, field)
		if err != nil {
			return nil, qualify(err, r.prefix)
		}
		tasks = append(tasks, scheduler.Task{Field: field, Unit: u})
	}
	return tasks, nil
}

// nested returns the builder of nested object generators for the fields
// of r. Nested objects are populated by a run of their own, with the
// configuration scoped to the field.
func (e *Engine) nested(ctx context.Context, r *run) generator.NestedFunc {
	return func(field string, typ reflect.Type) (fixgen.Generator, error) {
		path := r.prefix + field
		if r.depth+1 > e.cfg.MaxDepth {
			if schema.Nillable(typ) {
				r.logger.Debug("nesting depth exceeded, field left nil", "field", path, "max_depth", e.cfg.MaxDepth)
				return fixgen.GeneratorFunc(func() (any, error) {
					return reflect.Zero(typ).Interface(), nil
				}), nil
			}
			return nil, fixgen.NewResolutionError(path, typ.String(),
				fmt.Sprintf("nesting depth exceeds %d", e.cfg.MaxDepth))
		}
		s, err := e.cfg.Schemas.Lookup(typ)
		if err != nil {
			resErr := fixgen.NewResolutionError(path, typ.String(), "nested object without schema")
			resErr.Cause = err
			return nil, resErr
		}
		ptr := typ.Kind() == reflect.Pointer
		child := &run{
			schema: s,
			merger: r.merger.Scoped(field),
			logger: r.logger,
			depth:  r.depth + 1,
			prefix: path + ".",
		}
		// Build the subtree once against a scratch target; generation
		// builds it again for every produced object.
		scratch := *child
		scratch.target = s.NewTarget()
		if _, err := e.tasks(ctx, &scratch, scheduler.NewState(scratch.target, s.Fields)); err != nil {
			return nil, err
		}
		return fixgen.GeneratorFunc(func() (any, error) {
			target := s.NewTarget()
			c := *child
			c.target = target
			if _, err := e.run(ctx, &c); err != nil {
				return nil, err
			}
			if ptr {
				return target, nil
			}
			return reflect.ValueOf(target).Elem().Interface(), nil
		}), nil
	}
}

// qualify prefixes the field name of validation and resolution errors
// raised inside nested objects.
func qualify(err error, prefix string) error {
	if prefix == "" {
		return err
	}
	var ruleErr *fixgen.RuleValidationError
	if errors.As(err, &ruleErr) && !strings.HasPrefix(ruleErr.Field, prefix) {
		ruleErr.Field = prefix + ruleErr.Field
	}
	var resErr *fixgen.ResolutionError
	if errors.As(err, &resErr) && !strings.HasPrefix(resErr.Field, prefix) {
		resErr.Field = prefix + resErr.Field
	}
	return err
}

// scoped returns the entries of m under prefix, with the prefix removed.
func scoped[V any](m map[string]V, prefix string) map[string]V {
	if prefix == "" || len(m) == 0 {
		return m
	}
	out := make(map[string]V)
	for k, v := range m {
		if name, ok := strings.CutPrefix(k, prefix); ok && name != "" {
			out[name] = v
		}
	}
	return out
}
