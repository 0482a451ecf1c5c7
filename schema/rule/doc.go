// Package rule provides the rule descriptors attached to schema fields and
// the resolver selecting the single rule applying to a field.
//
// # Declaring Rules
//
// Rules are built with fluent builders:
//
//	rule.Int(18, 99)                              // bounded integer
//	rule.String(3, 12).Charset("abc")             // bounded string
//	rule.Enum("draft", "published")               // one of the values
//	rule.Basic().Remark(fixgen.MaxValue)          // upper bound of the type
//	rule.Custom("email").Args("example.com")      // registered generator
//	rule.Nested()                                 // nested struct
//	rule.Collection(rule.Int(1, 9)).Size(2, 4)    // slice or set
//	rule.Map(nil, rule.String(1, 4)).Size(1, 3)   // map with basic keys
//
// or parsed from a struct tag:
//
//	Age int `fixgen:"int,min=18,max=99"`
//
// # Groups
//
// A field may declare several variants of a rule, one per group:
//
//	rule.Int(1, 10),
//	rule.Int(100, 200).Group("admin"),
//
// Resolve keeps the variants whose group is included. No match skips the
// field and more than one match is an error.
//
// # Collections
//
// A collection, array or map rule needs an element rule, declared inline
// (rule.Collection(rule.Int(1, 9))) or as a companion unit rule on the same
// field (rule.Collection(nil) next to rule.Int(1, 9)).
package rule
