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

package memsched

import "github.com/latticeflow/memsched/internal/xerrors"

// Error is returned by every exported operation in this package. Its
// Kind distinguishes an internal-invariant violation from a propagated
// external-collaborator failure or a verification failure.
type Error = xerrors.Error

// IsInternalError reports whether err is a bug-indicating internal
// invariant violation (a counter went negative, an emitted count
// mismatched the expected count). Non-recoverable.
func IsInternalError(err error) bool {
	return xerrors.IsKind(err, xerrors.Internal)
}

// IsOracleError reports whether err was propagated unchanged from the
// points-to oracle or the heap simulator.
func IsOracleError(err error) bool {
	return xerrors.IsKind(err, xerrors.Oracle)
}

// IsVerificationError reports whether err describes a missing or
// duplicated instruction, an out-of-order dependency, or a
// computation-set mismatch.
func IsVerificationError(err error) bool {
	return xerrors.IsKind(err, xerrors.Verification)
}
