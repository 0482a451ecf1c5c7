package fixgen

// Generator produces one value per invocation.
//
// Implementations used through a custom rule may additionally implement
// Dependent, ArgsConsumer or RemarkAware. The engine detects these
// capabilities once, when the generator is built.
type Generator interface {
	Generate() (any, error)
}

// GeneratorFunc adapts an ordinary function to the Generator interface.
type GeneratorFunc func() (any, error)

// Generate calls f().
func (f GeneratorFunc) Generate() (any, error) { return f() }

// View is a read-only accessor to the target being populated.
// Only fields already written by the current run are visible.
type View interface {
	// Get returns the current value of the named field and whether
	// the field has already been written by this run.
	Get(field string) (any, bool)
	// IsSet reports whether the named field has been written by this run.
	IsSet(field string) bool
}

// Dependent is implemented by generators that need sibling field values.
// Bind is called once before the run starts; Ready is polled on every
// scheduling pass until it returns true.
type Dependent interface {
	Generator
	Bind(View)
	Ready() bool
}

// AnyArity may be returned by ArgsConsumer.Arity to accept any number
// of arguments.
const AnyArity = -1

// ArgsConsumer is implemented by generators that accept string arguments.
type ArgsConsumer interface {
	Generator
	// Arity returns the number of arguments required under the given remark,
	// or AnyArity.
	Arity(Remark) int
	SetArgs(args []string) error
}

// RemarkAware is implemented by generators that honor the effective remark.
type RemarkAware interface {
	Generator
	SetRemark(Remark)
}
