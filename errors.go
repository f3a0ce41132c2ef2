package main

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors, used as errors.Is targets for the typed errors below.
var (
	ErrInvalidParameter      = errors.New("invalid parameter")
	ErrAddressSpaceExhausted = errors.New("address space exhausted")
	ErrLayout                = errors.New("layout failed")
	ErrInvariantViolated     = errors.New("topology invariant violated")
)

// InvalidParameterError reports a build input that cannot produce a fat-tree.
type InvalidParameterError struct {
	Param  string
	Value  interface{}
	Reason string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Param, e.Value, e.Reason)
}

func (e *InvalidParameterError) Unwrap() error {
	return ErrInvalidParameter
}

// NewInvalidParameterError creates a new invalid parameter error.
func NewInvalidParameterError(param string, value interface{}, reason string) *InvalidParameterError {
	return &InvalidParameterError{Param: param, Value: value, Reason: reason}
}

// AddressSpaceExhaustedError reports a base network too small for the link set.
type AddressSpaceExhaustedError struct {
	Network   string
	PrefixLen int
	Needed    int
	Available uint64
}

func (e *AddressSpaceExhaustedError) Error() string {
	return fmt.Sprintf("%s holds %d /%d subnets, %d links need addressing",
		e.Network, e.Available, e.PrefixLen, e.Needed)
}

func (e *AddressSpaceExhaustedError) Unwrap() error {
	return ErrAddressSpaceExhausted
}

// LayoutError is a non-fatal visualization failure.
type LayoutError struct {
	Node   string
	Reason string
}

func (e *LayoutError) Error() string {
	if e.Node == "" {
		return "layout: " + e.Reason
	}
	return fmt.Sprintf("layout %s: %s", e.Node, e.Reason)
}

func (e *LayoutError) Unwrap() error {
	return ErrLayout
}

// InvariantError collects every structural check that failed after a build.
type InvariantError struct {
	Violations []string
}

func (e *InvariantError) Error() string {
	if len(e.Violations) == 1 {
		return "invariant violated: " + e.Violations[0]
	}
	return fmt.Sprintf("invariants violated:\n  - %s", strings.Join(e.Violations, "\n  - "))
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolated
}
