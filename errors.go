package fixgen

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors matched by the typed errors below through errors.Is.
var (
	// ErrInvalidRule indicates malformed or ambiguous rule declarations.
	ErrInvalidRule = errors.New("fixgen: invalid rule")
	// ErrNoGenerator indicates that no generator could be built for a field.
	ErrNoGenerator = errors.New("fixgen: no generator")
	// ErrGeneration indicates that a generator or a field write failed.
	ErrGeneration = errors.New("fixgen: generation failed")
	// ErrNonTermination indicates that the attempt budget ran out.
	ErrNonTermination = errors.New("fixgen: attempts exhausted")
	// ErrCollectionSize indicates that a collection could not reach its size.
	ErrCollectionSize = errors.New("fixgen: collection size unreachable")
	// ErrConfig indicates an invalid or conflicting configuration.
	ErrConfig = errors.New("fixgen: invalid configuration")
)

// RuleValidationError reports malformed or ambiguous rule declarations
// on a field. It aborts a run before any generator executes.
type RuleValidationError struct {
	Field   string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *RuleValidationError) Error() string {
	var b strings.Builder
	b.WriteString("fixgen: invalid rule")
	if e.Field != "" {
		b.WriteString(" on field ")
		b.WriteString(e.Field)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *RuleValidationError) Unwrap() error { return e.Cause }

// Is reports whether the target matches ErrInvalidRule.
func (e *RuleValidationError) Is(target error) bool { return target == ErrInvalidRule }

// NewRuleValidationError returns a new RuleValidationError.
func NewRuleValidationError(field, message string, cause error) *RuleValidationError {
	return &RuleValidationError{Field: field, Message: message, Cause: cause}
}

// ResolutionError reports that no generator could be built for a field,
// or that a custom generator violates its declared capability contract.
type ResolutionError struct {
	Field   string
	Type    string // Go type of the field
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	var b strings.Builder
	b.WriteString("fixgen: cannot resolve generator")
	if e.Field != "" {
		b.WriteString(" for field ")
		b.WriteString(e.Field)
	}
	if e.Type != "" {
		b.WriteString(" (")
		b.WriteString(e.Type)
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ResolutionError) Unwrap() error { return e.Cause }

// Is reports whether the target matches ErrNoGenerator.
func (e *ResolutionError) Is(target error) bool { return target == ErrNoGenerator }

// NewResolutionError returns a new ResolutionError.
func NewResolutionError(field, typ, message string) *ResolutionError {
	return &ResolutionError{Field: field, Type: typ, Message: message}
}

// ExecutionError records a generator failure, or a failed write of the
// generated value, for one field.
type ExecutionError struct {
	Field string
	Err   error
}

// Error implements the error interface.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("fixgen: generating field %s: %v", e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExecutionError) Unwrap() error { return e.Err }

// Is reports whether the target matches ErrGeneration.
func (e *ExecutionError) Is(target error) bool { return target == ErrGeneration }

// NewExecutionError returns a new ExecutionError.
func NewExecutionError(field string, err error) *ExecutionError {
	return &ExecutionError{Field: field, Err: err}
}

// NonTerminationError reports a field that was still waiting on an unmet
// dependency when the attempt budget ran out.
type NonTerminationError struct {
	Field    string
	Attempts int
}

// Error implements the error interface.
func (e *NonTerminationError) Error() string {
	return fmt.Sprintf("fixgen: field %s not ready after %d attempts", e.Field, e.Attempts)
}

// Is reports whether the target matches ErrNonTermination.
func (e *NonTerminationError) Is(target error) bool { return target == ErrNonTermination }

// CollectionSizeError reports that a collection stopped growing before
// reaching its target size.
type CollectionSizeError struct {
	Target int // requested size
	Size   int // size reached
	Stalls int // consecutive insertions that did not grow the container
}

// Error implements the error interface.
func (e *CollectionSizeError) Error() string {
	return fmt.Sprintf("fixgen: collection size %d unreachable (reached %d, %d consecutive stalled insertions)",
		e.Target, e.Size, e.Stalls)
}

// Is reports whether the target matches ErrCollectionSize.
func (e *CollectionSizeError) Is(target error) bool { return target == ErrCollectionSize }

// ConfigError represents an invalid or conflicting configuration.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("fixgen: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("fixgen: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches ErrConfig.
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// NewConfigError returns a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{Option: option, Value: value, Message: message}
}

// AggregateError collects every failure of one generation run.
type AggregateError struct {
	Type   string // name of the populated type
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	var sb strings.Builder
	sb.WriteString("fixgen: populating ")
	if e.Type != "" {
		sb.WriteString(e.Type)
	} else {
		sb.WriteString("target")
	}
	fmt.Fprintf(&sb, " failed with %d error(s):", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error { return e.Errors }

// Fields returns the names of the fields that failed, in error order.
func (e *AggregateError) Fields() []string {
	fields := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		if name := FieldOf(err); name != "" {
			fields = append(fields, name)
		}
	}
	return fields
}

// NewAggregateError returns an AggregateError holding the non-nil errors,
// or nil if there are none.
func NewAggregateError(typ string, errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return &AggregateError{Type: typ, Errors: filtered}
}

// FieldOf returns the field name an error is tagged with, if any.
func FieldOf(err error) string {
	var (
		execErr *ExecutionError
		ntErr   *NonTerminationError
		ruleErr *RuleValidationError
		resErr  *ResolutionError
	)
	switch {
	case errors.As(err, &execErr):
		return execErr.Field
	case errors.As(err, &ntErr):
		return ntErr.Field
	case errors.As(err, &ruleErr):
		return ruleErr.Field
	case errors.As(err, &resErr):
		return resErr.Field
	}
	return ""
}

// IsRuleValidationError reports whether err is a RuleValidationError.
func IsRuleValidationError(err error) bool {
	var e *RuleValidationError
	return errors.As(err, &e)
}

// IsResolutionError reports whether err is a ResolutionError.
func IsResolutionError(err error) bool {
	var e *ResolutionError
	return errors.As(err, &e)
}

// IsExecutionError reports whether err is, or aggregates, an ExecutionError.
func IsExecutionError(err error) bool {
	var e *ExecutionError
	return errors.As(err, &e)
}

// IsNonTerminationError reports whether err is, or aggregates, a NonTerminationError.
func IsNonTerminationError(err error) bool {
	var e *NonTerminationError
	return errors.As(err, &e)
}

// IsCollectionSizeError reports whether err is, or wraps, a CollectionSizeError.
func IsCollectionSizeError(err error) bool {
	var e *CollectionSizeError
	return errors.As(err, &e)
}

// IsConfigError reports whether err is a ConfigError.
func IsConfigError(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}
