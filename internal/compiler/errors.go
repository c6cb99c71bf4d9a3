package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCyclicRequirement matches every cycle error with errors.Is.
var ErrCyclicRequirement = errors.New("cyclic requirement")

// ErrorKind classifies configuration errors.
type ErrorKind int

const (
	MissingInput ErrorKind = iota
	UnknownOutcome
	InvalidRequirement
	MissingTable
	CrossTable
	CyclicRequirement
)

func (k ErrorKind) String() string {
	switch k {
	case MissingInput:
		return "missing input"
	case UnknownOutcome:
		return "unknown outcome"
	case InvalidRequirement:
		return "invalid requirement"
	case MissingTable:
		return "missing table"
	case CrossTable:
		return "cross-table dependency"
	case CyclicRequirement:
		return "cyclic requirement"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is a configuration error found while compiling a job.
type Error struct {
	Kind      ErrorKind
	Component string
	Detail    string
	// Cycle lists the component names of a dependency cycle, first and
	// last being the same.
	Cycle []string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Component != "" {
		fmt.Fprintf(&b, " in component %q", e.Component)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if len(e.Cycle) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Cycle, " -> "))
	}
	return b.String()
}

func (e *Error) Is(target error) bool {
	return target == ErrCyclicRequirement && e.Kind == CyclicRequirement
}

func newError(kind ErrorKind, component, format string, args ...any) *Error {
	return &Error{Kind: kind, Component: component, Detail: fmt.Sprintf(format, args...)}
}
