package rule

import "fmt"

// Kind is the rule family of a descriptor.
type Kind uint8

const (
	// KindBasic rules pick a builtin generator from the field's Go type.
	KindBasic Kind = iota + 1
	// KindCustom rules use a user-supplied generator.
	KindCustom
	// KindNested rules populate a nested struct with the whole engine.
	KindNested
	// KindCollection rules fill slices and sets.
	KindCollection
	// KindArray rules fill fixed-size arrays (and slices).
	KindArray
	// KindMap rules fill maps with generated keys and values.
	KindMap
)

var kindNames = [...]string{
	KindBasic:      "basic",
	KindCustom:     "custom",
	KindNested:     "nested",
	KindCollection: "collection",
	KindArray:      "array",
	KindMap:        "map",
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool { return k > 0 && int(k) < len(kindNames) }

// IsCollection reports whether rules of this kind describe a container
// and therefore need an element rule.
func (k Kind) IsCollection() bool {
	return k == KindCollection || k == KindArray || k == KindMap
}
