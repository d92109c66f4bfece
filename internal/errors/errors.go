// Package errors wraps the standard library errors package with categorized,
// context-carrying errors.
//
// Packages import this in place of the standard "errors" so that sentinel
// checks and enrichment share a single import:
//
//	return errors.New(err).
//	    Component("records").
//	    Category(errors.CategoryDatabase).
//	    Context("operation", "create").
//	    Build()
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"sort"
	"strings"
)

// Category groups errors by the subsystem that failed.
type Category string

const (
	CategoryGeneric        Category = "generic"
	CategoryValidation     Category = "validation"
	CategoryDatabase       Category = "database"
	CategoryAuthentication Category = "authentication"
	CategoryNetwork        Category = "network"
	CategoryConfiguration  Category = "configuration"
	CategoryGeneration     Category = "generation"
	CategoryNotFound       Category = "not-found"
)

// EnhancedError is an error annotated with a component, a category and
// free-form context.
type EnhancedError struct {
	Err       error
	component string
	category  Category
	context   map[string]any
}

func (e *EnhancedError) Error() string {
	if e.Err == nil {
		return string(e.category)
	}
	return e.Err.Error()
}

func (e *EnhancedError) Unwrap() error { return e.Err }

// GetComponent returns the component that produced the error.
func (e *EnhancedError) GetComponent() string { return e.component }

// GetCategory returns the error category.
func (e *EnhancedError) GetCategory() Category { return e.category }

// GetContext returns a copy of the error context.
func (e *EnhancedError) GetContext() map[string]any {
	return maps.Clone(e.context)
}

// Detail renders the error with its component, category and sorted context,
// for logs and error reports.
func (e *EnhancedError) Detail() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s/%s] %s", e.component, e.category, e.Error())
	keys := make([]string, 0, len(e.context))
	for k := range e.context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.context[k])
	}
	return b.String()
}

// ErrorBuilder assembles an EnhancedError.
type ErrorBuilder struct {
	err *EnhancedError
}

// New starts building an enhanced error around err.
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: &EnhancedError{
		Err:       err,
		component: "unknown",
		category:  CategoryGeneric,
		context:   make(map[string]any),
	}}
}

// Newf starts building an enhanced error from a format string.
func Newf(format string, args ...any) *ErrorBuilder {
	return New(fmt.Errorf(format, args...))
}

func (b *ErrorBuilder) Component(name string) *ErrorBuilder {
	b.err.component = name
	return b
}

func (b *ErrorBuilder) Category(c Category) *ErrorBuilder {
	b.err.category = c
	return b
}

func (b *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	b.err.context[key] = value
	return b
}

func (b *ErrorBuilder) Build() *EnhancedError {
	return b.err
}

// CategoryOf returns the category of the first EnhancedError in err's chain,
// or CategoryGeneric.
func CategoryOf(err error) Category {
	var ee *EnhancedError
	if As(err, &ee) {
		return ee.category
	}
	return CategoryGeneric
}

// NewStd creates a plain error, equivalent to the standard errors.New.
func NewStd(text string) error { return stderrors.New(text) }

func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }

func Unwrap(err error) error { return stderrors.Unwrap(err) }

func Join(errs ...error) error { return stderrors.Join(errs...) }
