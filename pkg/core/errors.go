package core

import (
	"errors"
	"fmt"
)

// Structural error kinds. A StructuralError wraps exactly one of these so
// callers can test with errors.Is while still getting the offending name.
var (
	ErrNoRoot               = errors.New("no root link")
	ErrMultipleRoots        = errors.New("multiple root links")
	ErrMultipleParents      = errors.New("link has multiple parent joints")
	ErrCycle                = errors.New("cycle in link graph")
	ErrDisconnected         = errors.New("link unreachable from root")
	ErrUnknownLink          = errors.New("joint references unknown link")
	ErrUnknownJoint         = errors.New("transmission references unknown joint")
	ErrActuatedFixedJoint   = errors.New("transmission targets a zero-DOF joint")
	ErrDuplicateName        = errors.New("duplicate name")
	ErrUnsupportedJointType = errors.New("unsupported joint type")
)

// Evaluation-time and model-construction errors.
var (
	ErrSingularMassMatrix = errors.New("mass matrix not positive definite")
	ErrAmbiguousMode      = errors.New("overlapping mode guards")
	ErrUnsupportedContact = errors.New("unsupported collision geometry pair")
)

// ErrModelNotFound is returned by catalog backends when a lookup misses.
var ErrModelNotFound = errors.New("model not found")

// ParseError reports malformed input. It aborts the whole compile; no
// partial record set is returned.
type ParseError struct {
	Element string
	Attr    string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Attr != "" {
		return fmt.Sprintf("parse <%s> attribute %q: %v", e.Element, e.Attr, e.Err)
	}
	return fmt.Sprintf("parse <%s>: %v", e.Element, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StructuralError reports a violated tree invariant with the name of the
// first offending link or joint found. Unrecoverable.
type StructuralError struct {
	Kind error
	Name string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%v: %q", e.Kind, e.Name)
}

func (e *StructuralError) Unwrap() error { return e.Kind }

// NewStructuralError builds a StructuralError around one of the Err*
// sentinels above.
func NewStructuralError(kind error, name string) *StructuralError {
	return &StructuralError{Kind: kind, Name: name}
}
