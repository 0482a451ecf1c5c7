// Package generator builds the value generators of resolved rules.
//
// # Builtin generators
//
// Basic rules dispatch on the Go type of the field: signed and unsigned
// integers, floats, bool, string, []byte, time.Time, time.Duration,
// uuid.UUID, enum-like string types and pointers to any of those. Named
// types are produced from their underlying kind.
//
// Every builtin honors the effective remark: MinValue and MaxValue always
// produce the same value for a given configuration, RandomValue draws
// uniformly within the configured bounds and NullValue produces nil.
//
// # Collections
//
// CollectionGenerator fills slices, sets, maps and fixed arrays to an
// exact size. The element (and key) generators are built recursively, so
// collections of collections are supported when the inner rules are
// declared inline.
//
// # Custom generators
//
// Custom generators are registered by name in a Registry and referenced
// by custom rules, or registered for a Go type. The Factory detects the
// optional capabilities of the instantiated generator once:
// fixgen.ArgsConsumer, fixgen.RemarkAware and fixgen.Dependent.
package generator
