package fixgen

import (
	"fmt"
	"strings"
)

// Remark selects which value a generator produces: a boundary, a random
// value inside the bounds, or no value at all.
type Remark uint8

const (
	// NotDefined leaves the choice to lower configuration layers.
	NotDefined Remark = iota
	// MinValue pins the generated value (or collection size) to the lower bound.
	MinValue
	// MaxValue pins the generated value (or collection size) to the upper bound.
	MaxValue
	// RandomValue picks a value uniformly inside the bounds.
	RandomValue
	// NullValue produces the absence of a value (nil).
	NullValue
)

var remarkNames = [...]string{
	NotDefined:  "NOT_DEFINED",
	MinValue:    "MIN_VALUE",
	MaxValue:    "MAX_VALUE",
	RandomValue: "RANDOM_VALUE",
	NullValue:   "NULL_VALUE",
}

// String implements fmt.Stringer.
func (r Remark) String() string {
	if int(r) < len(remarkNames) {
		return remarkNames[r]
	}
	return fmt.Sprintf("Remark(%d)", r)
}

// Defined reports whether r carries a choice.
func (r Remark) Defined() bool { return r != NotDefined && int(r) < len(remarkNames) }

// ParseRemark parses a remark name. Both the canonical form ("MIN_VALUE")
// and the short form ("min") are accepted, case-insensitively.
func ParseRemark(s string) (Remark, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NOT_DEFINED":
		return NotDefined, nil
	case "MIN_VALUE", "MIN":
		return MinValue, nil
	case "MAX_VALUE", "MAX":
		return MaxValue, nil
	case "RANDOM_VALUE", "RANDOM":
		return RandomValue, nil
	case "NULL_VALUE", "NULL":
		return NullValue, nil
	default:
		return NotDefined, fmt.Errorf("fixgen: unknown remark %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Remark) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Remark) UnmarshalText(text []byte) error {
	v, err := ParseRemark(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
