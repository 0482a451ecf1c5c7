// Package fixture populates Go structs with synthetic values.
//
// An Engine resolves the rule of every field of the target, merges the
// configuration layers applying to it, builds its generator and runs the
// scheduler:
//
//	type User struct {
//		Name  string   `fixgen:"string,min_len=3,max_len=12"`
//		Age   int      `fixgen:"int,min=18,max=99;int,min=60,max=99,group=senior"`
//		Tags  []string `fixgen:"list,min_size=2,max_size=2;string,min_len=3,max_len=3"`
//		Email string   `fixgen:"custom,ref=email"`
//	}
//
//	engine, err := fixture.New(
//		fixture.WithGenerators(registry),
//		fixture.WithFieldRemark("name", fixgen.MaxValue),
//	)
//	...
//	var u User
//	err = engine.Populate(ctx, &u)
//
// # Groups
//
// A field may declare several variants of its rule, each in a group. Only
// the variants whose group is included by WithGroups apply; without
// WithGroups only the rules of rule.DefaultGroup apply. Exactly one variant
// may apply to a field.
//
// # Nested objects
//
// Fields declared with a nested rule are populated by a run of their own.
// Per-field options address their fields by dotted path ("address.city").
// Nesting is bounded by WithMaxDepth.
//
// # Errors
//
// Populate returns a *fixgen.RuleValidationError or a
// *fixgen.ResolutionError before writing anything when the rules cannot be
// resolved. Failures during generation are collected into one
// *fixgen.AggregateError.
package fixture
