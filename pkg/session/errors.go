package session

import (
	"errors"
	"fmt"
)

// Provisioning failures. Each ProvisioningError matches exactly one of
// these with errors.Is.
var (
	ErrAllocation = errors.New("no room available")
	ErrIssuance   = errors.New("token issuance failed")
	ErrDispatch   = errors.New("bot dispatch failed")
)

// ProvisioningError reports the step at which provisioning stopped.
type ProvisioningError struct {
	// Step is the last state reached before the failure.
	Step State
	Err  error
}

// Error implements the error interface.
func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("session: failed after %s: %v", e.Step, e.Err)
}

// Unwrap returns the underlying error.
func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// Kind returns the sentinel the error wraps, or nil.
func (e *ProvisioningError) Kind() error {
	for _, s := range []error{ErrAllocation, ErrIssuance, ErrDispatch} {
		if errors.Is(e.Err, s) {
			return s
		}
	}
	return nil
}

func fail(step State, kind, cause error) *ProvisioningError {
	return &ProvisioningError{Step: step, Err: fmt.Errorf("%w: %w", kind, cause)}
}

// Warning is a non-fatal resolution problem: a referenced option was
// missing, so the corresponding start parameter is left unset.
type Warning struct {
	Service string `json:"service"`
	Option  string `json:"option"`
}

// String implements fmt.Stringer.
func (w Warning) String() string {
	return fmt.Sprintf("%s.%s not set", w.Service, w.Option)
}
