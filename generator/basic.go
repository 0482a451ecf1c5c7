package generator

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/fixgen"
	"github.com/syssam/fixgen/schema/rule"
)

var (
	timeType     = reflect.TypeFor[time.Time]()
	durationType = reflect.TypeFor[time.Duration]()
	uuidType     = reflect.TypeFor[uuid.UUID]()
)

// errNoBuiltin is returned by newBasic when no builtin generator handles a type.
var errNoBuiltin = errors.New("no builtin generator")

// EnumValuer is implemented by enum-like types listing their values.
type EnumValuer interface {
	Values() []string
}

// newBasic returns the builtin generator producing values of typ.
func newBasic(typ reflect.Type, p rule.Params, remark fixgen.Remark) (fixgen.Generator, error) {
	if remark == fixgen.NullValue {
		return &nullGenerator{typ: typ}, nil
	}
	if typ.Kind() == reflect.Pointer {
		// NULL was handled above; the pointee never sees it.
		base, err := newBasic(typ.Elem(), p, remark)
		if err != nil {
			return nil, err
		}
		return &pointerGenerator{typ: typ, base: base}, nil
	}
	switch typ {
	case timeType:
		return newTime(p, remark)
	case durationType:
		return newInt(typ, p.DurMin, p.DurMax, remark, int64Bounds)
	case uuidType:
		return &uuidGenerator{remark: remark}, nil
	}
	if values := enumValues(typ, p); values != nil {
		if typ.Kind() != reflect.String {
			return nil, fmt.Errorf("enum values require a string type, got %s", typ)
		}
		if len(values) == 0 {
			return nil, errors.New("enum rule without values")
		}
		return &enumGenerator{typ: typ, values: values, remark: remark}, nil
	}
	switch typ.Kind() {
	case reflect.Bool:
		return &boolGenerator{typ: typ, remark: remark}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return newInt(typ, p.IntMin, p.IntMax, remark, nil)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return newUint(typ, p, remark)
	case reflect.Float32, reflect.Float64:
		return newFloat(typ, p, remark)
	case reflect.String:
		return newString(typ, p, remark)
	case reflect.Slice:
		if typ.Elem().Kind() == reflect.Uint8 {
			return newBytes(typ, p, remark)
		}
	}
	return nil, errNoBuiltin
}

// enumValues returns the declared values, the values listed by a string
// type implementing EnumValuer, or nil if the type is not enum-like.
func enumValues(typ reflect.Type, p rule.Params) []string {
	if p.Values != nil {
		return p.Values
	}
	if typ.Kind() == reflect.String && typ.Implements(reflect.TypeFor[EnumValuer]()) {
		if v, ok := reflect.Zero(typ).Interface().(EnumValuer); ok {
			if values := v.Values(); values != nil {
				return values
			}
			return []string{}
		}
	}
	return nil
}

// nullGenerator produces the typed zero value of a nillable type.
type nullGenerator struct {
	typ reflect.Type
}

func (g *nullGenerator) Generate() (any, error) {
	return reflect.Zero(g.typ).Interface(), nil
}

type pointerGenerator struct {
	typ  reflect.Type
	base fixgen.Generator
}

func (g *pointerGenerator) Generate() (any, error) {
	v, err := g.base.Generate()
	if err != nil {
		return nil, err
	}
	p := reflect.New(g.typ.Elem())
	p.Elem().Set(reflect.ValueOf(v))
	return p.Interface(), nil
}

type boolGenerator struct {
	typ    reflect.Type
	remark fixgen.Remark
}

func (g *boolGenerator) Generate() (any, error) {
	var v bool
	switch g.remark {
	case fixgen.MinValue:
	case fixgen.MaxValue:
		v = true
	default:
		v = rand.IntN(2) == 1
	}
	return reflect.ValueOf(v).Convert(g.typ).Interface(), nil
}

type intGenerator struct {
	typ      reflect.Type
	min, max int64
	remark   fixgen.Remark
}

func (g *intGenerator) Generate() (any, error) {
	var v int64
	switch g.remark {
	case fixgen.MinValue:
		v = g.min
	case fixgen.MaxValue:
		v = g.max
	default:
		v = intIn(g.min, g.max)
	}
	return reflect.ValueOf(v).Convert(g.typ).Interface(), nil
}

// boundsFunc returns the representable range of a type.
type boundsFunc func(reflect.Type) (int64, int64)

func int64Bounds(reflect.Type) (int64, int64) {
	return math.MinInt64, math.MaxInt64
}

func intBounds(typ reflect.Type) (int64, int64) {
	bits := typ.Bits()
	return -1 << (bits - 1), 1<<(bits-1) - 1
}

func newInt[T ~int64](typ reflect.Type, lo, hi *T, remark fixgen.Remark, bounds boundsFunc) (fixgen.Generator, error) {
	if bounds == nil {
		bounds = intBounds
	}
	min, max := bounds(typ)
	if lo != nil {
		if int64(*lo) > max {
			return nil, fmt.Errorf("lower bound %d exceeds the range of %s", *lo, typ)
		}
		min = maxOf(min, int64(*lo))
	}
	if hi != nil {
		if int64(*hi) < min {
			return nil, fmt.Errorf("upper bound %d is below the range of %s", *hi, typ)
		}
		max = minOf(max, int64(*hi))
	}
	if min > max {
		return nil, fmt.Errorf("invalid range [%d, %d]", min, max)
	}
	return &intGenerator{typ: typ, min: min, max: max, remark: remark}, nil
}

type uintGenerator struct {
	typ      reflect.Type
	min, max uint64
	remark   fixgen.Remark
}

func (g *uintGenerator) Generate() (any, error) {
	var v uint64
	switch g.remark {
	case fixgen.MinValue:
		v = g.min
	case fixgen.MaxValue:
		v = g.max
	default:
		v = uintIn(g.min, g.max)
	}
	return reflect.ValueOf(v).Convert(g.typ).Interface(), nil
}

func newUint(typ reflect.Type, p rule.Params, remark fixgen.Remark) (fixgen.Generator, error) {
	min, max := uint64(0), uint64(math.MaxUint64)>>(64-typ.Bits())
	if p.UintMin != nil {
		if *p.UintMin > max {
			return nil, fmt.Errorf("lower bound %d exceeds the range of %s", *p.UintMin, typ)
		}
		min = *p.UintMin
	}
	if p.UintMax != nil {
		max = minOf(max, *p.UintMax)
	}
	if min > max {
		return nil, fmt.Errorf("invalid range [%d, %d]", min, max)
	}
	return &uintGenerator{typ: typ, min: min, max: max, remark: remark}, nil
}

type floatGenerator struct {
	typ      reflect.Type
	min, max float64
	remark   fixgen.Remark
}

func (g *floatGenerator) Generate() (any, error) {
	var v float64
	switch g.remark {
	case fixgen.MinValue:
		v = g.min
	case fixgen.MaxValue:
		v = g.max
	default:
		v = floatIn(g.min, g.max)
	}
	return reflect.ValueOf(v).Convert(g.typ).Interface(), nil
}

func newFloat(typ reflect.Type, p rule.Params, remark fixgen.Remark) (fixgen.Generator, error) {
	limit := math.MaxFloat64
	if typ.Kind() == reflect.Float32 {
		limit = math.MaxFloat32
	}
	min, max := -limit, limit
	if p.FloatMin != nil {
		min = math.Max(min, *p.FloatMin)
	}
	if p.FloatMax != nil {
		max = math.Min(max, *p.FloatMax)
	}
	if min > max {
		return nil, fmt.Errorf("invalid range [%g, %g]", min, max)
	}
	return &floatGenerator{typ: typ, min: min, max: max, remark: remark}, nil
}

type stringGenerator struct {
	typ            reflect.Type
	minLen, maxLen int
	charset        []rune
	remark         fixgen.Remark
}

// Generate returns a random string. MinValue yields the shortest string
// made of the first charset rune, MaxValue the longest string made of the
// last one.
func (g *stringGenerator) Generate() (any, error) {
	n := sizeIn(g.minLen, g.maxLen, g.remark)
	var s string
	switch g.remark {
	case fixgen.MinValue:
		s = strings.Repeat(string(g.charset[0]), n)
	case fixgen.MaxValue:
		s = strings.Repeat(string(g.charset[len(g.charset)-1]), n)
	default:
		var b strings.Builder
		b.Grow(n)
		for range n {
			b.WriteRune(g.charset[rand.IntN(len(g.charset))])
		}
		s = b.String()
	}
	return reflect.ValueOf(s).Convert(g.typ).Interface(), nil
}

func lengths(p rule.Params) (int, int, error) {
	min, max := value(p.MinLen, rule.DefaultMinLen), value(p.MaxLen, rule.DefaultMaxLen)
	if min < 0 || min > max {
		return 0, 0, fmt.Errorf("invalid length range [%d, %d]", min, max)
	}
	return min, max, nil
}

func newString(typ reflect.Type, p rule.Params, remark fixgen.Remark) (fixgen.Generator, error) {
	min, max, err := lengths(p)
	if err != nil {
		return nil, err
	}
	charset := []rune(value(p.Charset, rule.DefaultCharset))
	if len(charset) == 0 {
		return nil, errors.New("empty charset")
	}
	return &stringGenerator{typ: typ, minLen: min, maxLen: max, charset: charset, remark: remark}, nil
}

type bytesGenerator struct {
	typ            reflect.Type
	minLen, maxLen int
	remark         fixgen.Remark
}

func (g *bytesGenerator) Generate() (any, error) {
	n := sizeIn(g.minLen, g.maxLen, g.remark)
	b := make([]byte, n)
	switch g.remark {
	case fixgen.MinValue:
	case fixgen.MaxValue:
		for i := range b {
			b[i] = math.MaxUint8
		}
	default:
		for i := range b {
			b[i] = byte(rand.UintN(math.MaxUint8 + 1))
		}
	}
	return reflect.ValueOf(b).Convert(g.typ).Interface(), nil
}

func newBytes(typ reflect.Type, p rule.Params, remark fixgen.Remark) (fixgen.Generator, error) {
	min, max, err := lengths(p)
	if err != nil {
		return nil, err
	}
	return &bytesGenerator{typ: typ, minLen: min, maxLen: max, remark: remark}, nil
}

type enumGenerator struct {
	typ    reflect.Type
	values []string
	remark fixgen.Remark
}

func (g *enumGenerator) Generate() (any, error) {
	var v string
	switch g.remark {
	case fixgen.MinValue:
		v = g.values[0]
	case fixgen.MaxValue:
		v = g.values[len(g.values)-1]
	default:
		v = g.values[rand.IntN(len(g.values))]
	}
	return reflect.ValueOf(v).Convert(g.typ).Interface(), nil
}

type timeGenerator struct {
	after, before time.Time
	remark        fixgen.Remark
}

func (g *timeGenerator) Generate() (any, error) {
	switch g.remark {
	case fixgen.MinValue:
		return g.after, nil
	case fixgen.MaxValue:
		return g.before, nil
	}
	if span := g.before.Sub(g.after); span < math.MaxInt64 {
		return g.after.Add(time.Duration(intIn(0, int64(span)))), nil
	}
	// span does not fit a Duration; draw whole seconds first
	sec := intIn(g.after.Unix(), g.before.Unix()-1)
	t := time.Unix(sec, intIn(0, int64(time.Second)-1)).In(g.after.Location())
	return t, nil
}

func newTime(p rule.Params, remark fixgen.Remark) (fixgen.Generator, error) {
	if p.After == nil || p.Before == nil {
		return nil, errors.New("time bounds are not configured")
	}
	if p.Before.Before(*p.After) {
		return nil, fmt.Errorf("invalid time range [%s, %s]", p.After.Format(time.RFC3339), p.Before.Format(time.RFC3339))
	}
	return &timeGenerator{after: *p.After, before: *p.Before, remark: remark}, nil
}

type uuidGenerator struct {
	remark fixgen.Remark
}

func (g *uuidGenerator) Generate() (any, error) {
	switch g.remark {
	case fixgen.MinValue:
		return uuid.Nil, nil
	case fixgen.MaxValue:
		var max uuid.UUID
		for i := range max {
			max[i] = math.MaxUint8
		}
		return max, nil
	default:
		return uuid.NewRandom()
	}
}

func value[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

func minOf[T int64 | uint64](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func maxOf[T int64 | uint64](a, b T) T {
	if a > b {
		return a
	}
	return b
}
