// Package errors provides structured error handling for the FTP connector.
//
// Every error carries an ErrorType so callers can decide how to surface it:
// schema and no-match errors are user configuration problems, enumeration
// errors wrap a transport failure, and partition errors signal an internal
// inconsistency that is never retried.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeNotFound represents resource not found errors
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeTimeout represents timeout errors
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeConnection represents connection errors
	ErrorTypeConnection ErrorType = "connection"
	// ErrorTypeAuthentication represents authentication errors
	ErrorTypeAuthentication ErrorType = "authentication"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeFile represents file operation errors
	ErrorTypeFile ErrorType = "file"
	// ErrorTypeSchema represents a malformed or ambiguous column specification
	ErrorTypeSchema ErrorType = "schema"
	// ErrorTypeEnumeration wraps a transport failure during remote path listing
	ErrorTypeEnumeration ErrorType = "enumeration"
	// ErrorTypeNoMatch means the configured roots yielded zero files
	ErrorTypeNoMatch ErrorType = "no_match"
	// ErrorTypePartition represents an internal inconsistency while building sub-tasks
	ErrorTypePartition ErrorType = "partition"
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Detail returns a detail value previously attached with WithDetail.
func (e *Error) Detail(key string) (interface{}, bool) {
	if e.Details == nil {
		return nil, false
	}
	v, ok := e.Details[key]
	return v, ok
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsRetryable returns true if the error is retryable.
// Only the outermost structured error decides.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	switch e.Type {
	case ErrorTypeTimeout, ErrorTypeConnection:
		return true
	default:
		return false
	}
}

// IsType checks if any structured error in the chain is of the given type.
// Joined errors such as FieldErrors are searched branch by branch.
func IsType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}
	if e, ok := err.(*Error); ok && e.Type == errType {
		return true
	}
	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range x.Unwrap() {
			if IsType(inner, errType) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return IsType(x.Unwrap(), errType)
	}
	return false
}

// TypeOf returns the type of the outermost structured error, or "" if none.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}

// TypeOr returns the type of the outermost structured error, or fallback.
func TypeOr(err error, fallback ErrorType) ErrorType {
	if t := TypeOf(err); t != "" {
		return t
	}
	return fallback
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// FieldErrors collects the first blocking error per configuration field.
// The zero value is ready to use.
type FieldErrors struct {
	fields map[string]error
}

// Add records err for field unless the field already has an error.
func (fe *FieldErrors) Add(field string, err error) {
	if err == nil {
		return
	}
	if fe.fields == nil {
		fe.fields = make(map[string]error)
	}
	if _, exists := fe.fields[field]; exists {
		return
	}
	fe.fields[field] = err
}

// Has reports whether field already carries an error.
func (fe *FieldErrors) Has(field string) bool {
	_, ok := fe.fields[field]
	return ok
}

// Get returns the error recorded for field.
func (fe *FieldErrors) Get(field string) error {
	return fe.fields[field]
}

// Fields returns the names of the failing fields in sorted order.
func (fe *FieldErrors) Fields() []string {
	names := make([]string, 0, len(fe.fields))
	for name := range fe.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of failing fields.
func (fe *FieldErrors) Len() int {
	return len(fe.fields)
}

// Err returns nil when no field failed, otherwise the FieldErrors itself.
func (fe *FieldErrors) Err() error {
	if fe == nil || len(fe.fields) == 0 {
		return nil
	}
	return fe
}

// Error implements the error interface
func (fe *FieldErrors) Error() string {
	parts := make([]string, 0, len(fe.fields))
	for _, name := range fe.Fields() {
		parts = append(parts, fmt.Sprintf("%s: %v", name, fe.fields[name]))
	}
	return "invalid configuration: " + strings.Join(parts, "; ")
}

// Unwrap exposes every field error to errors.Is and errors.As.
func (fe *FieldErrors) Unwrap() []error {
	errs := make([]error, 0, len(fe.fields))
	for _, name := range fe.Fields() {
		errs = append(errs, fe.fields[name])
	}
	return errs
}

// captureStack captures the current call stack
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
