// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dynenc

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every error returned by this package matches at most
// one of them under errors.Is. The typed errors below carry the details
// and are reachable with errors.As.
var (
	// ErrIntegrity means a loaded module does not hash to the expected
	// digest, or defines code the digest does not cover.
	ErrIntegrity = errors.New("hash mismatch")

	// ErrMalformedArtifact means an artifact could not be decoded,
	// parsed or evaluated as a module.
	ErrMalformedArtifact = errors.New("malformed artifact")

	// ErrHasher means the hash function failed.
	ErrHasher = errors.New("hasher failed")

	// ErrInvalidSource means a capability or script dependency source
	// is not a single well-formed function declaration.
	ErrInvalidSource = errors.New("invalid source")

	// ErrInvalidDependency means a dependency name or value cannot be
	// bound into a module.
	ErrInvalidDependency = errors.New("invalid dependency")

	// ErrBinding means a module's factory could not bind its formal
	// parameters to the supplied values.
	ErrBinding = errors.New("binding failed")

	// ErrCall means module code failed while running a capability or
	// script dependency.
	ErrCall = errors.New("call failed")
)

// IntegrityError reports a failed verification. Expected and Actual
// are empty when the failure was structural (Reason says which).
type IntegrityError struct {
	Expected string
	Actual   string
	Reason   string
}

func (e *IntegrityError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", ErrIntegrity, e.Reason)
	}
	return fmt.Sprintf("%s: expected %s, computed %s", ErrIntegrity, e.Expected, e.Actual)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrity }

// MalformedArtifactError reports an artifact that is not a valid
// module.
type MalformedArtifactError struct {
	Reason string
	Err    error
}

func (e *MalformedArtifactError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrMalformedArtifact, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrMalformedArtifact, e.Reason)
}

func (e *MalformedArtifactError) Is(target error) bool { return target == ErrMalformedArtifact }

func (e *MalformedArtifactError) Unwrap() error { return e.Err }

// malformed builds a MalformedArtifactError. A cause that already
// matches another sentinel is folded into the reason instead of being
// wrapped, so the result matches ErrMalformedArtifact alone.
func malformed(err error, format string, args ...any) *MalformedArtifactError {
	reason := fmt.Sprintf(format, args...)
	if err != nil && matchesSentinel(err) {
		return &MalformedArtifactError{Reason: reason + ": " + err.Error()}
	}
	return &MalformedArtifactError{Reason: reason, Err: err}
}

var sentinels = []error{
	ErrIntegrity,
	ErrMalformedArtifact,
	ErrHasher,
	ErrInvalidSource,
	ErrInvalidDependency,
	ErrBinding,
	ErrCall,
}

func matchesSentinel(err error) bool {
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// HasherError wraps a failure of the hash function.
type HasherError struct {
	Err error
}

func (e *HasherError) Error() string {
	return fmt.Sprintf("%s: %v", ErrHasher, e.Err)
}

func (e *HasherError) Is(target error) bool { return target == ErrHasher }

func (e *HasherError) Unwrap() error { return e.Err }

// SourceError reports an unusable function source. Name is the
// capability or dependency the source was given for.
type SourceError struct {
	Name   string
	Reason string
	Err    error
}

func (e *SourceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s for %s: %s: %v", ErrInvalidSource, e.Name, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s for %s: %s", ErrInvalidSource, e.Name, e.Reason)
}

func (e *SourceError) Is(target error) bool { return target == ErrInvalidSource }

func (e *SourceError) Unwrap() error { return e.Err }

// DependencyError reports a dependency that cannot be bound.
type DependencyError struct {
	Name   string
	Reason string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrInvalidDependency, e.Name, e.Reason)
}

func (e *DependencyError) Unwrap() error { return ErrInvalidDependency }
