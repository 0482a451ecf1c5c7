package scheduler_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/fixgen"
	"github.com/syssam/fixgen/generator"
	"github.com/syssam/fixgen/schema"
	"github.com/syssam/fixgen/scheduler"
)

type order struct {
	ID    int
	Total int
	Label string
}

var (
	idField    = schema.Bind("id", func(o *order) *int { return &o.ID })
	totalField = schema.Bind("total", func(o *order) *int { return &o.Total })
	labelField = schema.Bind("label", func(o *order) *string { return &o.Label })
	allFields  = []*schema.Field{idField, totalField, labelField}
)

func value(v any) fixgen.Generator {
	return fixgen.GeneratorFunc(func() (any, error) { return v, nil })
}

func task(f *schema.Field, gen fixgen.Generator, ready func() bool) scheduler.Task {
	return scheduler.Task{Field: f, Unit: &generator.Unit{Field: f.Name, Type: f.Type, Gen: gen, Ready: ready}}
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	t.Run("independent fields", func(t *testing.T) {
		o := &order{}
		state := scheduler.NewState(o, allFields)
		res, err := scheduler.Run(ctx, state, []scheduler.Task{
			task(idField, value(1), nil),
			task(totalField, value(2), nil),
			task(labelField, value("x"), nil),
		}, scheduler.Options{})
		require.NoError(t, err)
		assert.Equal(t, order{ID: 1, Total: 2, Label: "x"}, *o)
		assert.Equal(t, scheduler.Result{Attempts: 1, Executed: 3}, res)
	})

	t.Run("dependent fields wait for their inputs", func(t *testing.T) {
		o := &order{}
		state := scheduler.NewState(o, allFields)
		double := fixgen.GeneratorFunc(func() (any, error) {
			id, ok := state.Get("id")
			if !ok {
				return nil, errors.New("id not visible")
			}
			return id.(int) * 2, nil
		})
		res, err := scheduler.Run(ctx, state, []scheduler.Task{
			task(totalField, double, func() bool { return state.IsSet("id") }),
			task(idField, value(21), nil),
		}, scheduler.Options{})
		require.NoError(t, err)
		assert.Equal(t, 42, o.Total)
		assert.Equal(t, 2, res.Attempts)
	})

	t.Run("never ready fields exhaust the budget", func(t *testing.T) {
		o := &order{}
		state := scheduler.NewState(o, allFields)
		polls := 0
		res, err := scheduler.Run(ctx, state, []scheduler.Task{
			task(totalField, value(1), func() bool { polls++; return false }),
			task(idField, value(7), nil),
			task(labelField, value("l"), func() bool { return false }),
		}, scheduler.Options{MaxAttempts: 5})
		require.Error(t, err)
		assert.Equal(t, 5, polls)
		assert.Equal(t, 5, res.Attempts)
		assert.Equal(t, 2, res.Pending)
		assert.Equal(t, 7, o.ID, "ready fields are still written")

		var agg *fixgen.AggregateError
		require.ErrorAs(t, err, &agg)
		assert.Equal(t, "order", agg.Type)
		assert.Equal(t, []string{"total", "label"}, agg.Fields())
		assert.True(t, fixgen.IsNonTerminationError(err))
		var nt *fixgen.NonTerminationError
		require.ErrorAs(t, agg.Errors[0], &nt)
		assert.Equal(t, 5, nt.Attempts)
	})

	t.Run("failures are recorded and never retried", func(t *testing.T) {
		o := &order{}
		state := scheduler.NewState(o, allFields)
		calls := 0
		failing := fixgen.GeneratorFunc(func() (any, error) {
			calls++
			return nil, assert.AnError
		})
		res, err := scheduler.Run(ctx, state, []scheduler.Task{
			task(idField, failing, nil),
			task(labelField, value("ok"), nil),
		}, scheduler.Options{MaxAttempts: 10})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
		assert.Equal(t, 1, res.Failed)
		assert.Equal(t, 1, res.Executed)
		assert.Equal(t, "ok", o.Label)
		assert.True(t, fixgen.IsExecutionError(err))
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("dependents of a failed field never run", func(t *testing.T) {
		state := scheduler.NewState(&order{}, allFields)
		_, err := scheduler.Run(ctx, state, []scheduler.Task{
			task(idField, fixgen.GeneratorFunc(func() (any, error) { return nil, assert.AnError }), nil),
			task(totalField, value(1), func() bool { return state.IsSet("id") }),
		}, scheduler.Options{MaxAttempts: 3})
		var agg *fixgen.AggregateError
		require.ErrorAs(t, err, &agg)
		require.Len(t, agg.Errors, 2)
		assert.True(t, fixgen.IsExecutionError(agg.Errors[0]))
		assert.True(t, fixgen.IsNonTerminationError(agg.Errors[1]))
	})

	t.Run("panics become execution errors", func(t *testing.T) {
		state := scheduler.NewState(&order{}, allFields)
		_, err := scheduler.Run(ctx, state, []scheduler.Task{
			task(idField, fixgen.GeneratorFunc(func() (any, error) { panic("boom") }), nil),
			task(totalField, value(1), func() bool { panic("ready boom") }),
		}, scheduler.Options{})
		var agg *fixgen.AggregateError
		require.ErrorAs(t, err, &agg)
		require.Len(t, agg.Errors, 2)
		assert.Contains(t, agg.Errors[0].Error(), "panic: boom")
		assert.Contains(t, agg.Errors[1].Error(), "panic: ready boom")
	})

	t.Run("write failures", func(t *testing.T) {
		state := scheduler.NewState(&order{}, allFields)
		_, err := scheduler.Run(ctx, state, []scheduler.Task{
			task(idField, value("not an int"), nil),
		}, scheduler.Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "writing value")
	})

	t.Run("prefix qualifies field names", func(t *testing.T) {
		state := scheduler.NewState(&order{}, allFields)
		_, err := scheduler.Run(ctx, state, []scheduler.Task{
			task(idField, value(1), func() bool { return false }),
		}, scheduler.Options{MaxAttempts: 1, Prefix: "parent."})
		var agg *fixgen.AggregateError
		require.ErrorAs(t, err, &agg)
		assert.Equal(t, []string{"parent.id"}, agg.Fields())
	})

	t.Run("duplicate fields", func(t *testing.T) {
		state := scheduler.NewState(&order{}, allFields)
		_, err := scheduler.Run(ctx, state, []scheduler.Task{
			task(idField, value(1), nil),
			task(idField, value(2), nil),
		}, scheduler.Options{})
		assert.ErrorContains(t, err, "scheduled twice")
	})

	t.Run("no tasks", func(t *testing.T) {
		res, err := scheduler.Run(ctx, scheduler.NewState(&order{}, allFields), nil, scheduler.Options{})
		require.NoError(t, err)
		assert.Zero(t, res)
	})
}

type chain struct {
	V [16]int
}

func TestRunWorkers(t *testing.T) {
	const n = 16
	fields := make([]*schema.Field, n)
	for i := range n {
		fields[i] = schema.Bind(fmt.Sprintf("v%d", i), func(c *chain) *int { return &c.V[i] })
	}

	for _, workers := range []int{1, 2, 4, 32} {
		t.Run(fmt.Sprintf("%d workers", workers), func(t *testing.T) {
			c := &chain{}
			state := scheduler.NewState(c, fields)
			var polls atomic.Int64
			tasks := make([]scheduler.Task, 0, n)
			// Declared in reverse order: each field depends on its predecessor.
			for i := n - 1; i >= 0; i-- {
				var ready func() bool
				gen := value(1)
				if i > 0 {
					prev := fields[i-1].Name
					ready = func() bool {
						polls.Add(1)
						return state.IsSet(prev)
					}
					gen = fixgen.GeneratorFunc(func() (any, error) {
						v, _ := state.Get(prev)
						return v.(int) + 1, nil
					})
				}
				tasks = append(tasks, task(fields[i], gen, ready))
			}
			res, err := scheduler.Run(context.Background(), state, tasks, scheduler.Options{Workers: workers})
			require.NoError(t, err)
			assert.Equal(t, n, res.Executed)
			assert.LessOrEqual(t, res.Attempts, n)
			for i := range n {
				assert.Equal(t, i+1, c.V[i])
			}
			assert.Positive(t, polls.Load())
		})
	}
}

func TestState(t *testing.T) {
	o := &order{}
	state := scheduler.NewState(o, allFields)
	assert.Equal(t, "order", state.TypeName())
	assert.Same(t, o, state.Target())

	o.ID = 3
	_, ok := state.Get("id")
	assert.False(t, ok, "unwritten fields are hidden")
	assert.False(t, state.IsSet("id"))

	require.NoError(t, state.Set(idField, 5))
	v, ok := state.Get("id")
	require.True(t, ok)
	assert.Equal(t, 5, v)
	assert.True(t, state.IsSet("id"))
	assert.Equal(t, 1, state.Written())

	assert.ErrorContains(t, state.Set(idField, 6), "already written")
	assert.Equal(t, 5, o.ID)

	_, ok = state.Get("missing")
	assert.False(t, ok)
}
