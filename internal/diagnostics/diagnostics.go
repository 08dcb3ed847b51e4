// Package diagnostics defines the structured errors and warnings the
// compiler front end accumulates, and the report they are collected in.
package diagnostics

import (
	"fmt"
	"sort"

	"github.com/funvibe/datalog/internal/token"
)

// Severity of a diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// ErrorCode identifies a diagnostic kind. T codes come from the type
// environment and type analysis, C codes from component instantiation,
// R codes from reference resolution.
type ErrorCode string

const (
	ErrT001 ErrorCode = "T001" // type mismatch
	ErrT002 ErrorCode = "T002" // ambiguous type
	ErrT003 ErrorCode = "T003" // duplicate sum branch
	ErrC001 ErrorCode = "C001" // redefinition of type
	ErrC002 ErrorCode = "C002" // redefinition of relation
	ErrC003 ErrorCode = "C003" // redefinition of IO directive
	ErrC004 ErrorCode = "C004" // instantiation depth exceeded
	ErrR001 ErrorCode = "R001" // unresolved reference
	ErrP001 ErrorCode = "P001" // syntax error
)

var messages = map[ErrorCode]string{
	ErrT001: "unable to deduce type for %s",
	ErrT002: "ambiguous type for %s, could be any of %s",
	ErrT003: "duplicate branch %s in sum type %s",
	ErrC001: "redefinition of type %s",
	ErrC002: "redefinition of relation %s",
	ErrC003: "redefinition of IO directive %s",
	ErrC004: "component instantiation limit reached",
	ErrR001: "unresolved reference to %s",
	ErrP001: "syntax error: %s",
}

// Followup is a secondary message pointing at related source, e.g. the
// previous definition in a redefinition error.
type Followup struct {
	Message string
	Loc     token.Token
}

// Diagnostic is a single reported issue tagged with a source location.
type Diagnostic struct {
	Severity  Severity
	Code      ErrorCode
	Message   string
	Loc       token.Token
	Followups []Followup
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s [%s]: %s", d.Loc, d.Severity, d.Code, d.Message)
}

// NewError builds an error diagnostic from a code's message template.
func NewError(code ErrorCode, loc token.Token, args ...interface{}) Diagnostic {
	return Diagnostic{
		Severity: Error,
		Code:     code,
		Message:  fmt.Sprintf(messages[code], args...),
		Loc:      loc,
	}
}

// NewWarning builds a warning diagnostic from a code's message template.
func NewWarning(code ErrorCode, loc token.Token, args ...interface{}) Diagnostic {
	d := NewError(code, loc, args...)
	d.Severity = Warning
	return d
}

// WithFollowup attaches a secondary message to the diagnostic.
func (d Diagnostic) WithFollowup(message string, loc token.Token) Diagnostic {
	d.Followups = append(d.Followups, Followup{Message: message, Loc: loc})
	return d
}

// Report accumulates diagnostics across passes. It is append-only and does
// not deduplicate; passes keep going after reporting so one run surfaces as
// many issues as possible.
type Report struct {
	diagnostics []Diagnostic
}

func NewReport() *Report {
	return &Report{}
}

func (r *Report) Add(d Diagnostic) {
	r.diagnostics = append(r.diagnostics, d)
}

// AddError is a shorthand for Add(NewError(...)).
func (r *Report) AddError(code ErrorCode, loc token.Token, args ...interface{}) {
	r.Add(NewError(code, loc, args...))
}

// All returns the diagnostics in the order they were reported.
func (r *Report) All() []Diagnostic {
	return r.diagnostics
}

// Sorted returns the diagnostics in source order, the order the driver
// renders them in.
func (r *Report) Sorted() []Diagnostic {
	res := append([]Diagnostic(nil), r.diagnostics...)
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Loc.Before(res[j].Loc)
	})
	return res
}

// Errors counts the error-severity diagnostics.
func (r *Report) Errors() int {
	n := 0
	for _, d := range r.diagnostics {
		if d.Severity == Error {
			n++
		}
	}
	return n
}

// Warnings counts the warning-severity diagnostics.
func (r *Report) Warnings() int {
	n := 0
	for _, d := range r.diagnostics {
		if d.Severity == Warning {
			n++
		}
	}
	return n
}
