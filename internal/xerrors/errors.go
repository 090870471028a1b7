/*
 * Copyright 2024 The Memsched Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package xerrors defines the error taxonomy shared by every scheduling
// component, per the error handling design: internal-invariant violations,
// external-oracle failures, and verification failures.
package xerrors

import "fmt"

// Kind classifies why an operation failed.
type Kind int

const (
	// Internal marks a bug: a counter went negative, an emitted count
	// mismatched the expected count, or a repricing pass produced an
	// inconsistent entry. Non-recoverable; surfaced immediately.
	Internal Kind = iota
	// Oracle marks a failure propagated unchanged from the points-to
	// oracle or the heap simulator.
	Oracle
	// Verification marks a missing/duplicated instruction, an
	// out-of-order dependency, or a computation-set mismatch.
	Verification
)

func (k Kind) String() string {
	switch k {
	case Internal:
		return "internal"
	case Oracle:
		return "oracle"
	case Verification:
		return "verification"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by every scheduling component.
// It names the offending instruction, by name and id, whenever one is
// available.
type Error struct {
	Kind     Kind
	Op       string
	InstName string
	InstID   int64
	HasInst  bool
	Msg      string
	Err      error
}

func (e *Error) Error() string {
	var prefix string
	if e.HasInst {
		prefix = fmt.Sprintf("%s: %s (instruction %q #%d): %s", e.Kind, e.Op, e.InstName, e.InstID, e.Msg)
	} else {
		prefix = fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", prefix, e.Err)
	}
	return prefix
}

func (e *Error) Unwrap() error { return e.Err }

// Internalf builds an internal-invariant-violation error not tied to a
// specific instruction.
func Internalf(op, format string, args ...interface{}) *Error {
	return &Error{Kind: Internal, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// InternalOnInst builds an internal-invariant-violation error naming the
// offending instruction.
func InternalOnInst(op, instName string, instID int64, format string, args ...interface{}) *Error {
	return &Error{
		Kind: Internal, Op: op, InstName: instName, InstID: instID, HasInst: true,
		Msg: fmt.Sprintf(format, args...),
	}
}

// Wrap propagates an external-oracle failure unchanged.
func Wrap(op string, err error) *Error {
	return &Error{Kind: Oracle, Op: op, Msg: "external collaborator failed", Err: err}
}

// Verificationf builds a verification-failure error.
func Verificationf(op, format string, args ...interface{}) *Error {
	return &Error{Kind: Verification, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// VerificationOnInst builds a verification-failure error naming the
// offending instruction.
func VerificationOnInst(op, instName string, instID int64, format string, args ...interface{}) *Error {
	return &Error{
		Kind: Verification, Op: op, InstName: instName, InstID: instID, HasInst: true,
		Msg: fmt.Sprintf(format, args...),
	}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, k Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == k
}
