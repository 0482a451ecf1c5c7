// Package scheduler executes the generation tasks of one run.
//
// Tasks whose generator waits on other fields are retried on later passes
// until they become ready or the attempt budget runs out. Generator
// failures are recorded and never retried. A run either writes every
// field of the target or returns one *fixgen.AggregateError.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/syssam/fixgen"
	"github.com/syssam/fixgen/generator"
	"github.com/syssam/fixgen/schema"
)

// DefaultMaxAttempts is the attempt budget used when none is configured.
const DefaultMaxAttempts = 100

// Task generates one field of the target.
type Task struct {
	Field *schema.Field
	Unit  *generator.Unit
}

// Options configures a run.
type Options struct {
	// MaxAttempts bounds the number of scheduling passes.
	MaxAttempts int
	// Workers is the number of task buckets processed in parallel
	// during a pass. Values below 2 run sequentially.
	Workers int
	// Prefix qualifies the field names reported in errors, for nested
	// objects ("address." for the fields of field address).
	Prefix string
	Logger *slog.Logger
}

// Result summarizes a run.
type Result struct {
	Attempts int // scheduling passes performed.
	Executed int // fields written.
	Failed   int // fields whose generator failed.
	Pending  int // fields never ready.
}

type outcome int

const (
	waiting outcome = iota
	executed
	failed
)

// step is one entry of the ordered scheduling decision list. The first
// step whose predicate holds decides the outcome of a task.
type step struct {
	name string
	when func(*Task) bool
	do   func(*Task) (outcome, error)
}

// job is a task with its scheduling order.
type job struct {
	*Task
	order int
}

// run holds the mutable state of one Run call.
type run struct {
	state  *State
	opts   Options
	logger *slog.Logger
	steps  []step

	buckets [][]job
	errs    []error
	result  Result
}

// Run executes tasks against state until every task has executed or
// failed, or until MaxAttempts passes have been made.
func Run(ctx context.Context, state *State, tasks []Task, opts Options) (Result, error) {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	r := &run{state: state, opts: opts, logger: opts.Logger}
	r.steps = []step{
		{name: "wait", when: r.notReady, do: r.wait},
		{name: "execute", when: always, do: r.execute},
	}
	if err := r.partition(tasks); err != nil {
		return r.result, err
	}
	span := trace.SpanFromContext(ctx)
	for r.result.Attempts < opts.MaxAttempts && r.remaining() > 0 {
		r.result.Attempts++
		r.pass()
		span.AddEvent("scheduling_pass", trace.WithAttributes(
			attribute.Int("attempt", r.result.Attempts),
			attribute.Int("pending", r.remaining()),
		))
	}
	for _, j := range r.pendingJobs() {
		r.errs = append(r.errs, &fixgen.NonTerminationError{Field: r.name(j.Task), Attempts: r.result.Attempts})
	}
	r.result.Pending = r.remaining()
	r.result.Executed = state.Written()
	return r.result, fixgen.NewAggregateError(state.TypeName(), r.errs...)
}

// partition splits tasks into disjoint buckets, one per worker.
func (r *run) partition(tasks []Task) error {
	n := min(r.opts.Workers, max(len(tasks), 1))
	r.buckets = make([][]job, n)
	seen := make(map[string]struct{}, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		if _, ok := seen[t.Field.Name]; ok {
			return fmt.Errorf("scheduler: field %s scheduled twice", t.Field.Name)
		}
		seen[t.Field.Name] = struct{}{}
		r.buckets[i%n] = append(r.buckets[i%n], job{Task: t, order: i})
	}
	return nil
}

// pass makes one scheduling pass over the remaining tasks. Buckets are
// processed in parallel; the pass ends when every bucket is done.
func (r *run) pass() {
	type scan struct {
		pending []job
		errs    []error
	}
	scans := make([]scan, len(r.buckets))
	if len(r.buckets) == 1 {
		scans[0].pending, scans[0].errs = r.scan(r.buckets[0])
	} else {
		var g errgroup.Group
		g.SetLimit(r.opts.Workers)
		for i, b := range r.buckets {
			g.Go(func() error {
				scans[i].pending, scans[i].errs = r.scan(b)
				return nil
			})
		}
		_ = g.Wait()
	}
	for i, s := range scans {
		r.buckets[i] = s.pending
		r.errs = append(r.errs, s.errs...)
		r.result.Failed += len(s.errs)
	}
	r.logger.Debug("scheduling pass done", "attempt", r.result.Attempts, "pending", r.remaining())
}

// scan processes one bucket sequentially and returns its pending jobs
// and the failures it recorded.
func (r *run) scan(bucket []job) (pending []job, errs []error) {
	for _, j := range bucket {
		switch o, err := r.decide(j.Task); o {
		case waiting:
			pending = append(pending, j)
		case failed:
			errs = append(errs, err)
		}
	}
	return pending, errs
}

// decide applies the first matching step to t. Panics raised by the
// generator, its readiness predicate or the field setter fail the task.
func (r *run) decide(t *Task) (o outcome, err error) {
	defer func() {
		if p := recover(); p != nil {
			o, err = failed, fixgen.NewExecutionError(r.name(t), fmt.Errorf("panic: %v", p))
		}
	}()
	for _, s := range r.steps {
		if s.when(t) {
			return s.do(t)
		}
	}
	return waiting, nil
}

func (r *run) notReady(t *Task) bool { return !t.Unit.IsReady() }

func (r *run) wait(t *Task) (outcome, error) {
	r.logger.Debug("field not ready", "field", r.name(t), "attempt", r.result.Attempts)
	return waiting, nil
}

func (r *run) execute(t *Task) (outcome, error) {
	v, err := t.Unit.Generate()
	if err != nil {
		return failed, fixgen.NewExecutionError(r.name(t), err)
	}
	if err := r.state.Set(t.Field, v); err != nil {
		return failed, fixgen.NewExecutionError(r.name(t), fmt.Errorf("writing value: %w", err))
	}
	return executed, nil
}

func always(*Task) bool { return true }

func (r *run) name(t *Task) string { return r.opts.Prefix + t.Field.Name }

func (r *run) remaining() int {
	n := 0
	for _, b := range r.buckets {
		n += len(b)
	}
	return n
}

// pendingJobs returns the jobs still pending, in task order.
func (r *run) pendingJobs() []job {
	var jobs []job
	for _, b := range r.buckets {
		jobs = append(jobs, b...)
	}
	slices.SortFunc(jobs, func(a, b job) int { return a.order - b.order })
	return jobs
}
