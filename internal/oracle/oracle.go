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

// Package oracle declares the external contracts the scheduler consumes
// but does not implement itself: alias analysis, value sizing, and heap
// simulation. Callers with a real analysis pipeline supply their own;
// the reference subpackage ships minimal stand-ins for tests and for
// callers with none of their own.
package oracle

import "github.com/latticeflow/memsched/internal/ir"

// PointsTo resolves, for any operand or instruction, the abstract
// values it touches.
type PointsTo interface {
	// OperandValues returns the flattened, deduplicated set of values
	// reachable from the given operand slot.
	OperandValues(op ir.OperandRef) ([]ir.Value, error)
	// DefinedValues returns the values defined by inst, including every
	// tuple-element sub-value.
	DefinedValues(inst *ir.Instruction) ([]ir.Value, error)
	// LiveOutValues returns the values reachable from comp's root that
	// are considered implicitly used at end-of-computation.
	LiveOutValues(comp *ir.Computation) ([]ir.Value, error)
}

// SizeFunc maps a value to its size in bytes. Must be pure.
type SizeFunc func(ir.Value) (uint64, error)

// HeapSimulator scores a candidate sequence by its peak live memory.
type HeapSimulator interface {
	PeakMemory(
		comp *ir.Computation,
		seq ir.Sequence,
		pt PointsTo,
		size SizeFunc,
		subcomputationMemory map[*ir.Computation]uint64,
	) (uint64, error)
}
