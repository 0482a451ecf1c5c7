package rule

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/syssam/fixgen"
)

// DefaultGroup is the group of rules declared without an explicit group.
const DefaultGroup = "DEFAULT"

// Descriptor describes how one field (or one collection element) is generated.
// Descriptors are built once and never modified afterwards.
type Descriptor struct {
	Kind   Kind          // rule family.
	Group  string        // variant selector, DefaultGroup if not set.
	Remark fixgen.Remark // value choice declared on the rule.
	Params Params        // kind specific bounds.

	Ref  string     // name of a registered custom generator.
	New  func() any // inline custom generator constructor.
	Args []string   // arguments for custom generators.

	Elem *Descriptor // element (or map value) rule.
	Key  *Descriptor // map key rule.

	Err error // accumulated builder error.
}

// Descriptor implements the Rule interface.
func (d *Descriptor) Descriptor() *Descriptor { return d }

// String returns a short description of the rule.
func (d *Descriptor) String() string {
	if d == nil {
		return "<nil>"
	}
	s := d.Kind.String()
	if d.Ref != "" {
		s += "(" + d.Ref + ")"
	}
	if d.Group != DefaultGroup {
		s += "@" + d.Group
	}
	return s
}

// EffectiveParams returns the declared params with the declared remark applied.
func (d *Descriptor) EffectiveParams() Params {
	return d.Params.WithRemark(d.Remark)
}

// Rule is implemented by rule builders and by descriptors themselves.
type Rule interface {
	Descriptor() *Descriptor
}

// Builder is the fluent builder for rule descriptors.
type Builder struct {
	desc *Descriptor
}

func newBuilder(k Kind) *Builder {
	return &Builder{desc: &Descriptor{Kind: k, Group: DefaultGroup}}
}

// Basic returns a rule whose generator is chosen from the field's Go type.
//
//	rule.Basic().Remark(fixgen.MaxValue)
func Basic() *Builder { return newBuilder(KindBasic) }

// Int returns a basic rule bounded to [min, max].
//
//	rule.Int(18, 99)
func Int(min, max int64) *Builder { return Basic().Range(min, max) }

// Uint returns a basic rule bounded to [min, max] for unsigned fields.
func Uint(min, max uint64) *Builder { return Basic().URange(min, max) }

// Float returns a basic rule bounded to [min, max] for floating point fields.
func Float(min, max float64) *Builder { return Basic().FloatRange(min, max) }

// String returns a basic rule for strings with a length in [minLen, maxLen].
func String(minLen, maxLen int) *Builder { return Basic().Len(minLen, maxLen) }

// Time returns a basic rule for times in [after, before].
func Time(after, before time.Time) *Builder { return Basic().Between(after, before) }

// Duration returns a basic rule for durations in [min, max].
func Duration(min, max time.Duration) *Builder { return Basic().DurationRange(min, max) }

// Enum returns a basic rule choosing among the given values.
// MinValue selects the first value and MaxValue the last.
func Enum(values ...string) *Builder { return Basic().Values(values...) }

// Custom returns a rule using the generator registered under ref.
//
//	rule.Custom("email").Args("example.com")
func Custom(ref string) *Builder {
	b := newBuilder(KindCustom)
	if ref == "" {
		b.fail(errors.New("custom rule requires a generator reference"))
	}
	b.desc.Ref = ref
	return b
}

// CustomFunc returns a rule using a generator created by ctor.
// The value returned by ctor must implement fixgen.Generator.
func CustomFunc(ctor func() any) *Builder {
	b := newBuilder(KindCustom)
	if ctor == nil {
		b.fail(errors.New("custom rule requires a constructor"))
	}
	b.desc.New = ctor
	return b
}

// Nested returns a rule populating a nested struct (or pointer to struct).
func Nested() *Builder { return newBuilder(KindNested) }

// Collection returns a rule filling a slice or a set. A nil elem means
// that the element rule is declared as a companion rule on the same field.
//
//	rule.Collection(rule.String(3, 8)).Size(2, 4)
func Collection(elem Rule) *Builder { return newBuilder(KindCollection).Elem(elem) }

// Array returns a rule filling a fixed-size array or a slice.
func Array(elem Rule) *Builder { return newBuilder(KindArray).Elem(elem) }

// Map returns a rule filling a map. A nil key selects a basic key rule;
// a nil value means that the value rule is declared as a companion rule.
func Map(key, value Rule) *Builder { return newBuilder(KindMap).Key(key).Elem(value) }

// Group sets the variant group of the rule.
func (b *Builder) Group(name string) *Builder {
	if name == "" {
		b.fail(errors.New("group name cannot be empty"))
		return b
	}
	b.desc.Group = name
	return b
}

// Remark sets the declared remark of the rule.
func (b *Builder) Remark(r fixgen.Remark) *Builder {
	b.desc.Remark = r
	return b
}

// Range sets integer bounds. Non-negative bounds also apply to unsigned
// fields, and every bound applies to floating point fields.
func (b *Builder) Range(min, max int64) *Builder {
	if min > max {
		b.fail(fmt.Errorf("invalid range [%d, %d]", min, max))
		return b
	}
	b.desc.Params.IntMin, b.desc.Params.IntMax = ptr(min), ptr(max)
	if min >= 0 {
		b.desc.Params.UintMin, b.desc.Params.UintMax = ptr(uint64(min)), ptr(uint64(max))
	}
	b.desc.Params.FloatMin, b.desc.Params.FloatMax = ptr(float64(min)), ptr(float64(max))
	return b
}

// Min sets the lower integer bound.
func (b *Builder) Min(min int64) *Builder {
	if p := b.desc.Params.IntMax; p != nil && *p < min {
		b.fail(fmt.Errorf("invalid range [%d, %d]", min, *p))
		return b
	}
	b.desc.Params.IntMin = ptr(min)
	if min >= 0 {
		b.desc.Params.UintMin = ptr(uint64(min))
	}
	b.desc.Params.FloatMin = ptr(float64(min))
	return b
}

// Max sets the upper integer bound.
func (b *Builder) Max(max int64) *Builder {
	if p := b.desc.Params.IntMin; p != nil && *p > max {
		b.fail(fmt.Errorf("invalid range [%d, %d]", *p, max))
		return b
	}
	b.desc.Params.IntMax = ptr(max)
	if max >= 0 {
		b.desc.Params.UintMax = ptr(uint64(max))
	}
	b.desc.Params.FloatMax = ptr(float64(max))
	return b
}

// URange sets unsigned integer bounds.
func (b *Builder) URange(min, max uint64) *Builder {
	if min > max {
		b.fail(fmt.Errorf("invalid range [%d, %d]", min, max))
		return b
	}
	b.desc.Params.UintMin, b.desc.Params.UintMax = ptr(min), ptr(max)
	return b
}

// FloatRange sets floating point bounds.
func (b *Builder) FloatRange(min, max float64) *Builder {
	if math.IsNaN(min) || math.IsNaN(max) || min > max {
		b.fail(fmt.Errorf("invalid range [%g, %g]", min, max))
		return b
	}
	b.desc.Params.FloatMin, b.desc.Params.FloatMax = ptr(min), ptr(max)
	return b
}

// Len sets string (and byte slice) length bounds.
func (b *Builder) Len(min, max int) *Builder {
	if min < 0 || min > max {
		b.fail(fmt.Errorf("invalid length range [%d, %d]", min, max))
		return b
	}
	b.desc.Params.MinLen, b.desc.Params.MaxLen = ptr(min), ptr(max)
	return b
}

// Charset sets the characters string generators draw from.
func (b *Builder) Charset(chars string) *Builder {
	if chars == "" {
		b.fail(errors.New("charset cannot be empty"))
		return b
	}
	b.desc.Params.Charset = ptr(chars)
	return b
}

// Between sets time bounds.
func (b *Builder) Between(after, before time.Time) *Builder {
	if before.Before(after) {
		b.fail(fmt.Errorf("invalid time range [%s, %s]", after.Format(time.RFC3339), before.Format(time.RFC3339)))
		return b
	}
	b.desc.Params.After, b.desc.Params.Before = ptr(after), ptr(before)
	return b
}

// DurationRange sets duration bounds.
func (b *Builder) DurationRange(min, max time.Duration) *Builder {
	if min > max {
		b.fail(fmt.Errorf("invalid duration range [%s, %s]", min, max))
		return b
	}
	b.desc.Params.DurMin, b.desc.Params.DurMax = ptr(min), ptr(max)
	return b
}

// Values sets the allowed values of an enum-like field.
func (b *Builder) Values(values ...string) *Builder {
	if len(values) == 0 {
		b.fail(errors.New("enum rule requires at least one value"))
		return b
	}
	b.desc.Params.Values = slices.Clone(values)
	return b
}

// Size sets the collection size bounds.
func (b *Builder) Size(min, max int) *Builder {
	if min < 0 || min > max {
		b.fail(fmt.Errorf("invalid size range [%d, %d]", min, max))
		return b
	}
	b.desc.Params.MinSize, b.desc.Params.MaxSize = ptr(min), ptr(max)
	return b
}

// StallLimit sets how many consecutive insertions may leave a collection
// unchanged before generation fails.
func (b *Builder) StallLimit(n int) *Builder {
	if n <= 0 {
		b.fail(fmt.Errorf("stall limit must be positive, got %d", n))
		return b
	}
	b.desc.Params.StallLimit = ptr(n)
	return b
}

// Args sets the arguments passed to a custom generator.
func (b *Builder) Args(args ...string) *Builder {
	b.desc.Args = slices.Clone(args)
	return b
}

// Elem sets the element rule of a collection (or the value rule of a map).
func (b *Builder) Elem(r Rule) *Builder {
	if r == nil {
		return b
	}
	if !b.desc.Kind.IsCollection() {
		b.fail(fmt.Errorf("%s rule cannot have an element rule", b.desc.Kind))
		return b
	}
	d := r.Descriptor()
	if d.Err != nil {
		b.fail(fmt.Errorf("element rule: %w", d.Err))
	}
	b.desc.Elem = d
	return b
}

// Key sets the key rule of a map.
func (b *Builder) Key(r Rule) *Builder {
	if r == nil {
		return b
	}
	if b.desc.Kind != KindMap {
		b.fail(fmt.Errorf("%s rule cannot have a key rule", b.desc.Kind))
		return b
	}
	d := r.Descriptor()
	if d.Err != nil {
		b.fail(fmt.Errorf("key rule: %w", d.Err))
	}
	b.desc.Key = d
	return b
}

// Descriptor returns the built descriptor.
func (b *Builder) Descriptor() *Descriptor { return b.desc }

func (b *Builder) fail(err error) {
	b.desc.Err = errors.Join(b.desc.Err, err)
}

// Descriptors converts rules to their descriptors, skipping nil rules.
func Descriptors(rules ...Rule) []*Descriptor {
	descs := make([]*Descriptor, 0, len(rules))
	for _, r := range rules {
		if r == nil {
			continue
		}
		if d := r.Descriptor(); d != nil {
			descs = append(descs, d)
		}
	}
	return descs
}
