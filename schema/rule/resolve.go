package rule

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/syssam/fixgen"
)

// Groups is the set of rule groups included in a run.
type Groups map[string]struct{}

// NewGroups returns the include set for names. An empty list includes
// only DefaultGroup.
func NewGroups(names ...string) Groups {
	if len(names) == 0 {
		names = []string{DefaultGroup}
	}
	g := make(Groups, len(names))
	for _, n := range names {
		g[n] = struct{}{}
	}
	return g
}

// Contains reports whether the group is included.
func (g Groups) Contains(name string) bool {
	if len(g) == 0 {
		return name == DefaultGroup
	}
	_, ok := g[name]
	return ok
}

// String returns the sorted group names.
func (g Groups) String() string {
	names := make([]string, 0, len(g))
	for n := range g {
		names = append(names, n)
	}
	sort.Strings(names)
	return "[" + strings.Join(names, " ") + "]"
}

// Info is the rule resolved for one field.
type Info struct {
	Rule *Descriptor // the field rule; for collections the container rule.
	Elem *Descriptor // element (map value) rule of a collection rule.
	Key  *Descriptor // key rule of a map rule, nil selects a basic key.
}

// IsCollection reports whether the field is collection-shaped.
func (i *Info) IsCollection() bool { return i != nil && i.Rule.Kind.IsCollection() }

// Resolve selects the single rule applying to a field out of its
// declarations, keeping only variants whose group is included.
//
// It returns nil, nil when no variant is included; the field is then
// left untouched. Malformed declarations and ambiguous groupings return
// a *fixgen.RuleValidationError.
func Resolve(field string, rules []*Descriptor, groups Groups) (*Info, error) {
	units, colls, err := validate(field, rules)
	if err != nil {
		return nil, err
	}
	if len(colls) == 0 {
		unit, err := selectGroup(field, units, groups)
		if err != nil || unit == nil {
			return nil, err
		}
		return &Info{Rule: unit}, nil
	}
	coll, err := selectGroup(field, colls, groups)
	if err != nil || coll == nil {
		return nil, err
	}
	info := &Info{Rule: coll, Elem: coll.Elem, Key: coll.Key}
	if info.Elem != nil {
		return info, nil
	}
	elem, err := selectGroup(field, units, groups)
	if err != nil {
		return nil, err
	}
	if elem == nil {
		return nil, fixgen.NewRuleValidationError(field,
			fmt.Sprintf("%s rule has no element rule in groups %s", coll.Kind, groups), nil)
	}
	info.Elem = elem
	return info, nil
}

// validate checks the declarations of one field and splits them into
// unit and collection-shaped rules.
func validate(field string, rules []*Descriptor) (units, colls []*Descriptor, err error) {
	for _, d := range rules {
		if d == nil {
			continue
		}
		if d.Err != nil {
			return nil, nil, fixgen.NewRuleValidationError(field, "malformed "+d.Kind.String()+" rule", d.Err)
		}
		if !d.Kind.Valid() {
			return nil, nil, fixgen.NewRuleValidationError(field, fmt.Sprintf("unknown rule kind %d", d.Kind), nil)
		}
		if d.Kind.IsCollection() {
			colls = append(colls, d)
		} else {
			units = append(units, d)
		}
	}
	if k := families(units); len(k) > 1 {
		return nil, nil, fixgen.NewRuleValidationError(field,
			fmt.Sprintf("conflicting rule families %v", k), nil)
	}
	if k := families(colls); len(k) > 1 {
		return nil, nil, fixgen.NewRuleValidationError(field,
			fmt.Sprintf("conflicting collection rule families %v", k), nil)
	}
	for _, c := range colls {
		switch {
		case c.Elem == nil && len(units) == 0:
			return nil, nil, fixgen.NewRuleValidationError(field,
				fmt.Sprintf("%s rule requires an element rule", c.Kind), nil)
		case c.Elem != nil && len(units) > 0:
			return nil, nil, fixgen.NewRuleValidationError(field,
				fmt.Sprintf("%s rule declares its element rule both inline and as a companion rule", c.Kind), nil)
		}
		if err := validateNested(field, c); err != nil {
			return nil, nil, err
		}
	}
	return units, colls, nil
}

// validateNested checks inline element and key rules of a collection rule.
func validateNested(field string, d *Descriptor) error {
	for _, sub := range []*Descriptor{d.Elem, d.Key} {
		if sub == nil {
			continue
		}
		if sub.Err != nil {
			return fixgen.NewRuleValidationError(field, "malformed "+sub.Kind.String()+" element rule", sub.Err)
		}
		if sub.Kind.IsCollection() {
			if sub.Elem == nil {
				return fixgen.NewRuleValidationError(field,
					fmt.Sprintf("nested %s rule requires an inline element rule", sub.Kind), nil)
			}
			if err := validateNested(field, sub); err != nil {
				return err
			}
		}
	}
	return nil
}

// selectGroup returns the only rule whose group is included.
func selectGroup(field string, rules []*Descriptor, groups Groups) (*Descriptor, error) {
	var matched []*Descriptor
	for _, d := range rules {
		if groups.Contains(d.Group) {
			matched = append(matched, d)
		}
	}
	switch len(matched) {
	case 0:
		return nil, nil
	case 1:
		return matched[0], nil
	default:
		names := make([]string, len(matched))
		for i, d := range matched {
			names[i] = d.Group
		}
		return nil, fixgen.NewRuleValidationError(field,
			fmt.Sprintf("ambiguous grouping: %d %s rules match groups %v", len(matched), matched[0].Kind, names), nil)
	}
}

func families(rules []*Descriptor) []Kind {
	var kinds []Kind
	for _, d := range rules {
		if !slices.Contains(kinds, d.Kind) {
			kinds = append(kinds, d.Kind)
		}
	}
	return kinds
}
