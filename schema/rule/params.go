package rule

import (
	"time"

	"github.com/syssam/fixgen"
)

// Default values used when no layer configures a property.
const (
	DefaultMinLen     = 1
	DefaultMaxLen     = 16
	DefaultMinSize    = 1
	DefaultMaxSize    = 5
	DefaultStallLimit = 100
	DefaultFloatMin   = -1e6
	DefaultFloatMax   = 1e6
	DefaultDurMax     = 24 * time.Hour

	// DefaultCharset is used by string generators.
	DefaultCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var (
	defaultAfter  = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
	defaultBefore = time.Date(2100, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// Params holds generator configuration. A nil property is unset and
// leaves the value of lower layers in place.
//
// Integer bounds are clamped to the range of the field's Go type; unset
// integer bounds default to that range.
type Params struct {
	Remark *fixgen.Remark `yaml:"remark,omitempty" json:"remark,omitempty"`

	IntMin   *int64   `yaml:"int_min,omitempty" json:"int_min,omitempty"`
	IntMax   *int64   `yaml:"int_max,omitempty" json:"int_max,omitempty"`
	UintMin  *uint64  `yaml:"uint_min,omitempty" json:"uint_min,omitempty"`
	UintMax  *uint64  `yaml:"uint_max,omitempty" json:"uint_max,omitempty"`
	FloatMin *float64 `yaml:"float_min,omitempty" json:"float_min,omitempty"`
	FloatMax *float64 `yaml:"float_max,omitempty" json:"float_max,omitempty"`

	MinLen  *int    `yaml:"min_len,omitempty" json:"min_len,omitempty" validate:"omitempty,gte=0"`
	MaxLen  *int    `yaml:"max_len,omitempty" json:"max_len,omitempty" validate:"omitempty,gte=0"`
	Charset *string `yaml:"charset,omitempty" json:"charset,omitempty" validate:"omitempty,min=1"`

	After  *time.Time     `yaml:"after,omitempty" json:"after,omitempty"`
	Before *time.Time     `yaml:"before,omitempty" json:"before,omitempty"`
	DurMin *time.Duration `yaml:"duration_min,omitempty" json:"duration_min,omitempty"`
	DurMax *time.Duration `yaml:"duration_max,omitempty" json:"duration_max,omitempty"`

	Values []string `yaml:"values,omitempty" json:"values,omitempty"`

	MinSize    *int `yaml:"min_size,omitempty" json:"min_size,omitempty" validate:"omitempty,gte=0"`
	MaxSize    *int `yaml:"max_size,omitempty" json:"max_size,omitempty" validate:"omitempty,gte=0"`
	StallLimit *int `yaml:"stall_limit,omitempty" json:"stall_limit,omitempty" validate:"omitempty,gt=0"`
}

// Defaults returns the hard-coded configuration for generators of kind k.
func Defaults(k Kind) Params {
	p := Params{Remark: ptr(fixgen.RandomValue)}
	switch k {
	case KindCollection, KindArray, KindMap:
		p.MinSize = ptr(DefaultMinSize)
		p.MaxSize = ptr(DefaultMaxSize)
		p.StallLimit = ptr(DefaultStallLimit)
	case KindBasic:
		p.FloatMin = ptr(float64(DefaultFloatMin))
		p.FloatMax = ptr(float64(DefaultFloatMax))
		p.MinLen = ptr(DefaultMinLen)
		p.MaxLen = ptr(DefaultMaxLen)
		p.Charset = ptr(DefaultCharset)
		p.After = ptr(defaultAfter)
		p.Before = ptr(defaultBefore)
		p.DurMin = ptr(time.Duration(0))
		p.DurMax = ptr(DefaultDurMax)
	}
	return p
}

// Merge returns a copy of p where every property set in o replaces the
// value of p. Unset properties of o, including a NotDefined remark,
// never clear a value of p.
func (p Params) Merge(o Params) Params {
	if o.Remark != nil && o.Remark.Defined() {
		p.Remark = o.Remark
	}
	pick(&p.IntMin, o.IntMin)
	pick(&p.IntMax, o.IntMax)
	pick(&p.UintMin, o.UintMin)
	pick(&p.UintMax, o.UintMax)
	pick(&p.FloatMin, o.FloatMin)
	pick(&p.FloatMax, o.FloatMax)
	pick(&p.MinLen, o.MinLen)
	pick(&p.MaxLen, o.MaxLen)
	pick(&p.Charset, o.Charset)
	pick(&p.After, o.After)
	pick(&p.Before, o.Before)
	pick(&p.DurMin, o.DurMin)
	pick(&p.DurMax, o.DurMax)
	pick(&p.MinSize, o.MinSize)
	pick(&p.MaxSize, o.MaxSize)
	pick(&p.StallLimit, o.StallLimit)
	if o.Values != nil {
		p.Values = o.Values
	}
	return p
}

// RemarkOr returns the configured remark, or def when unset.
func (p Params) RemarkOr(def fixgen.Remark) fixgen.Remark {
	if p.Remark == nil || !p.Remark.Defined() {
		return def
	}
	return *p.Remark
}

// WithRemark returns a copy of p with the remark replaced.
func (p Params) WithRemark(r fixgen.Remark) Params {
	if r.Defined() {
		p.Remark = ptr(r)
	}
	return p
}

func pick[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

func ptr[T any](v T) *T { return &v }
