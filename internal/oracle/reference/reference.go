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

// Package reference ships deliberately simple implementations of the
// oracle interfaces, enough to exercise real numbers in tests and in
// callers with no analysis pipeline of their own. Neither is the
// sophisticated alias or allocation-packing analysis a production
// compiler would run.
package reference

import (
	"github.com/latticeflow/memsched/internal/ir"
	"github.com/latticeflow/memsched/internal/oracle"
)

// PointsTo assumes no aliasing beyond the obvious: an operand's values
// are exactly the values its producing instruction defines.
type PointsTo struct{}

// New returns a PointsTo oracle.
func New() *PointsTo {
	return &PointsTo{}
}

func definedValues(inst *ir.Instruction) []ir.Value {
	n := inst.NumValues()
	vals := make([]ir.Value, n)
	for i := 0; i < n; i++ {
		var idx ir.ShapeIndex
		if n > 1 {
			idx = ir.ShapeIndex{i}
		}
		vals[i] = ir.NewValue(inst.ID(), idx)
	}
	return vals
}

// OperandValues returns the values defined by the instruction occupying
// the given operand slot.
func (*PointsTo) OperandValues(op ir.OperandRef) ([]ir.Value, error) {
	return definedValues(op.Operand()), nil
}

// DefinedValues returns the values defined by inst.
func (*PointsTo) DefinedValues(inst *ir.Instruction) ([]ir.Value, error) {
	return definedValues(inst), nil
}

// LiveOutValues returns the values defined by comp's root, or nil if
// comp has no root.
func (*PointsTo) LiveOutValues(comp *ir.Computation) ([]ir.Value, error) {
	if comp.Root == nil {
		return nil, nil
	}
	return definedValues(comp.Root), nil
}

// UniformSize returns a SizeFunc that reports the same size for every
// value, for tests that don't care about byte accounting.
func UniformSize(n uint64) oracle.SizeFunc {
	return func(ir.Value) (uint64, error) { return n, nil }
}

// HeapSimulator first counts each value's uses, then walks the sequence
// maintaining a running live-set total: it adds a value's size when the
// value is defined and subtracts it the moment its last use retires,
// reporting the maximum total seen. Operands of parameters and constants
// are not counted as uses.
// It is not allocation-packing aware: live values are assumed to sum
// linearly, never reused or aliased to the same physical offset.
type HeapSimulator struct{}

// NewHeapSimulator returns a HeapSimulator.
func NewHeapSimulator() *HeapSimulator {
	return &HeapSimulator{}
}

// PeakMemory simulates executing seq and returns the maximum live-set
// total observed.
func (*HeapSimulator) PeakMemory(
	comp *ir.Computation,
	seq ir.Sequence,
	pt oracle.PointsTo,
	size oracle.SizeFunc,
	subcomputationMemory map[*ir.Computation]uint64,
) (uint64, error) {
	useCount := make(map[ir.Value]int)

	addUse := func(v ir.Value) {
		useCount[v]++
	}

	for _, inst := range seq {
		if inst.IsIgnorable() {
			continue
		}
		for idx := range inst.Operands() {
			vals, err := pt.OperandValues(ir.OperandRef{User: inst, Index: idx})
			if err != nil {
				return 0, err
			}
			for _, v := range vals {
				if ignorableValue(comp, v) {
					continue
				}
				addUse(v)
			}
		}
	}
	if comp.Root != nil {
		liveOut, err := pt.LiveOutValues(comp)
		if err != nil {
			return 0, err
		}
		for _, v := range liveOut {
			if ignorableValue(comp, v) {
				continue
			}
			addUse(v)
		}
	}

	var live, peak uint64
	bump := func() {
		if live > peak {
			peak = live
		}
	}

	for _, inst := range seq {
		var callCharge uint64
		for _, callee := range inst.CalledComputations() {
			if m, ok := subcomputationMemory[callee]; ok && m > callCharge {
				callCharge = m
			}
		}
		if callCharge > 0 {
			live += callCharge
			bump()
			live -= callCharge
		}

		if !inst.IsIgnorable() {
			defs, err := pt.DefinedValues(inst)
			if err != nil {
				return 0, err
			}
			for _, v := range defs {
				s, err := size(v)
				if err != nil {
					return 0, err
				}
				live += s
			}
			bump()
		}

		if inst.IsIgnorable() {
			continue
		}
		for idx := range inst.Operands() {
			vals, err := pt.OperandValues(ir.OperandRef{User: inst, Index: idx})
			if err != nil {
				return 0, err
			}
			for _, v := range vals {
				if ignorableValue(comp, v) {
					continue
				}
				useCount[v]--
				if useCount[v] == 0 {
					s, err := size(v)
					if err != nil {
						return 0, err
					}
					live -= s
				}
			}
		}
	}

	return peak, nil
}

func ignorableValue(comp *ir.Computation, v ir.Value) bool {
	def, ok := comp.ByID(v.DefID)
	return ok && def.IsIgnorable()
}
