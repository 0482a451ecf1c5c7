package rule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/syssam/fixgen"
)

// TagName is the struct tag key holding rule declarations.
const TagName = "fixgen"

// ParseTag parses rule declarations from a struct tag value.
//
// Rules are separated by ';'. Each rule starts with a kind, followed by
// comma separated key=value options. List values (values, args) are
// separated by '|':
//
//	fixgen:"int,min=1,max=10,group=admin;int,min=100,max=200,group=root"
//	fixgen:"list,min_size=2,max_size=2;string,min_len=3,max_len=3"
//	fixgen:"enum,values=red|green|blue,remark=min"
//	fixgen:"custom,ref=email,args=example.com"
//
// Recognized kinds are basic, int, uint, float, string, bool, time,
// duration, enum, uuid, bytes (all basic rules), custom, nested, list, set,
// collection, array and map. A value of "-" disables generation.
func ParseTag(tag string) ([]*Descriptor, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" || tag == "-" {
		return nil, nil
	}
	var descs []*Descriptor
	for i, part := range strings.Split(tag, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := parseRule(part)
		if err != nil {
			return nil, fmt.Errorf("rule %d %q: %w", i+1, part, err)
		}
		descs = append(descs, d)
	}
	return descs, nil
}

// MustParseTag is like ParseTag but panics on error. It is used by
// generated schema code.
func MustParseTag(tag string) []*Descriptor {
	descs, err := ParseTag(tag)
	if err != nil {
		panic(fmt.Sprintf("rule: parsing tag %q: %v", tag, err))
	}
	return descs
}

func parseRule(s string) (*Descriptor, error) {
	opts := strings.Split(s, ",")
	b, err := builderFor(strings.ToLower(strings.TrimSpace(opts[0])))
	if err != nil {
		return nil, err
	}
	for _, opt := range opts[1:] {
		key, value, ok := strings.Cut(strings.TrimSpace(opt), "=")
		if !ok {
			return nil, fmt.Errorf("option %q is not key=value", opt)
		}
		if err := applyOption(b, strings.ToLower(strings.TrimSpace(key)), strings.TrimSpace(value)); err != nil {
			return nil, err
		}
	}
	d := b.Descriptor()
	if d.Kind == KindCustom && d.Ref == "" {
		return nil, fmt.Errorf("custom rule requires ref=<name>")
	}
	if d.Err != nil {
		return nil, d.Err
	}
	return d, nil
}

func builderFor(kind string) (*Builder, error) {
	switch kind {
	case "basic", "auto", "int", "uint", "float", "string", "bool", "time", "duration", "enum", "uuid", "bytes":
		return Basic(), nil
	case "custom":
		return newBuilder(KindCustom), nil
	case "nested":
		return Nested(), nil
	case "list", "set", "collection", "slice":
		return newBuilder(KindCollection), nil
	case "array":
		return newBuilder(KindArray), nil
	case "map":
		return newBuilder(KindMap), nil
	default:
		return nil, fmt.Errorf("unknown rule kind %q", kind)
	}
}

func applyOption(b *Builder, key, value string) error {
	p := &b.desc.Params
	switch key {
	case "group":
		b.Group(value)
	case "remark":
		r, err := fixgen.ParseRemark(value)
		if err != nil {
			return err
		}
		b.Remark(r)
	case "min", "max":
		if err := parseBound(p, key == "min", value); err != nil {
			return err
		}
	case "min_len", "max_len", "min_size", "max_size", "stall":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("option %s: %w", key, err)
		}
		if n < 0 {
			return fmt.Errorf("option %s: negative value %d", key, n)
		}
		switch key {
		case "min_len":
			p.MinLen = ptr(n)
		case "max_len":
			p.MaxLen = ptr(n)
		case "min_size":
			p.MinSize = ptr(n)
		case "max_size":
			p.MaxSize = ptr(n)
		case "stall":
			b.StallLimit(n)
		}
	case "charset":
		b.Charset(value)
	case "after", "before":
		t, err := parseTime(value)
		if err != nil {
			return fmt.Errorf("option %s: %w", key, err)
		}
		if key == "after" {
			p.After = ptr(t)
		} else {
			p.Before = ptr(t)
		}
	case "values":
		b.Values(splitList(value)...)
	case "ref":
		b.desc.Ref = value
	case "args":
		b.Args(splitList(value)...)
	case "key":
		kb, err := builderFor(strings.ToLower(value))
		if err != nil {
			return fmt.Errorf("option key: %w", err)
		}
		b.Key(kb)
	default:
		return fmt.Errorf("unknown option %q", key)
	}
	return validateBounds(p)
}

// parseBound stores a min/max option under every interpretation it
// parses as; the generator picks the one matching the field type.
func parseBound(p *Params, lower bool, value string) error {
	if d, err := time.ParseDuration(value); err == nil && strings.IndexFunc(value, isUnit) >= 0 {
		if lower {
			p.DurMin = ptr(d)
		} else {
			p.DurMax = ptr(d)
		}
		return nil
	}
	var parsed bool
	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		parsed = true
		if lower {
			p.IntMin = ptr(i)
		} else {
			p.IntMax = ptr(i)
		}
	}
	if u, err := strconv.ParseUint(value, 10, 64); err == nil {
		parsed = true
		if lower {
			p.UintMin = ptr(u)
		} else {
			p.UintMax = ptr(u)
		}
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		parsed = true
		if lower {
			p.FloatMin = ptr(f)
		} else {
			p.FloatMax = ptr(f)
		}
	}
	if !parsed {
		return fmt.Errorf("invalid bound %q", value)
	}
	return nil
}

func validateBounds(p *Params) error {
	switch {
	case p.IntMin != nil && p.IntMax != nil && *p.IntMin > *p.IntMax:
		return fmt.Errorf("invalid range [%d, %d]", *p.IntMin, *p.IntMax)
	case p.UintMin != nil && p.UintMax != nil && *p.UintMin > *p.UintMax:
		return fmt.Errorf("invalid range [%d, %d]", *p.UintMin, *p.UintMax)
	case p.FloatMin != nil && p.FloatMax != nil && *p.FloatMin > *p.FloatMax:
		return fmt.Errorf("invalid range [%g, %g]", *p.FloatMin, *p.FloatMax)
	case p.MinLen != nil && p.MaxLen != nil && *p.MinLen > *p.MaxLen:
		return fmt.Errorf("invalid length range [%d, %d]", *p.MinLen, *p.MaxLen)
	case p.MinSize != nil && p.MaxSize != nil && *p.MinSize > *p.MaxSize:
		return fmt.Errorf("invalid size range [%d, %d]", *p.MinSize, *p.MaxSize)
	case p.DurMin != nil && p.DurMax != nil && *p.DurMin > *p.DurMax:
		return fmt.Errorf("invalid duration range [%s, %s]", *p.DurMin, *p.DurMax)
	case p.After != nil && p.Before != nil && p.Before.Before(*p.After):
		return fmt.Errorf("invalid time range [%s, %s]", p.After.Format(time.RFC3339), p.Before.Format(time.RFC3339))
	}
	return nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.DateTime, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q", s)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func isUnit(r rune) bool {
	return r == 'h' || r == 'm' || r == 's' || r == 'u' || r == 'µ' || r == 'n'
}
