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

// Package depview precomputes, for one computation, the per-instruction
// value usage and definition sets a scheduler needs without repeatedly
// querying the points-to oracle.
package depview

import (
	"github.com/latticeflow/memsched/internal/ir"
	"github.com/latticeflow/memsched/internal/oracle"
	"github.com/latticeflow/memsched/internal/xerrors"
)

// View is the immutable, per-computation dependency view. It borrows
// the computation and the points-to oracle by reference for its
// lifetime; neither may be mutated while a View built from them is in
// use.
type View struct {
	comp      *ir.Computation
	uses      map[ir.InstructionID][]ir.Value
	defs      map[ir.InstructionID][]ir.Value
	ignorable map[ir.Value]bool
	// initialUseCount is the number of instructions using each value,
	// plus one implicit use for every live-out value. Never mutated
	// after Build returns; schedulers copy it before decrementing.
	initialUseCount map[ir.Value]int
}

// Build precomputes the dependency view of comp via the points-to
// oracle pt.
func Build(comp *ir.Computation, pt oracle.PointsTo) (*View, error) {
	v := &View{
		comp:            comp,
		uses:            make(map[ir.InstructionID][]ir.Value),
		defs:            make(map[ir.InstructionID][]ir.Value),
		ignorable:       make(map[ir.Value]bool),
		initialUseCount: make(map[ir.Value]int),
	}

	for _, inst := range comp.Instructions() {
		defs, err := pt.DefinedValues(inst)
		if err != nil {
			return nil, xerrors.Wrap("depview.Build", err)
		}
		v.defs[inst.ID()] = defs
		for _, d := range defs {
			v.ignorable[d] = inst.IsIgnorable()
		}

		seen := make(map[ir.Value]struct{})
		var uses []ir.Value
		for idx := range inst.Operands() {
			vals, err := pt.OperandValues(ir.OperandRef{User: inst, Index: idx})
			if err != nil {
				return nil, xerrors.Wrap("depview.Build", err)
			}
			for _, val := range vals {
				if _, dup := seen[val]; dup {
					continue
				}
				seen[val] = struct{}{}
				uses = append(uses, val)
				v.initialUseCount[val]++
			}
		}
		v.uses[inst.ID()] = uses
	}

	if comp.Root != nil {
		liveOut, err := pt.LiveOutValues(comp)
		if err != nil {
			return nil, xerrors.Wrap("depview.Build", err)
		}
		for _, val := range liveOut {
			v.initialUseCount[val]++
		}
	}

	return v, nil
}

// Uses returns the deduplicated set of values reachable from any
// operand of inst.
func (v *View) Uses(inst *ir.Instruction) []ir.Value {
	return v.uses[inst.ID()]
}

// Defs returns the values defined by inst.
func (v *View) Defs(inst *ir.Instruction) []ir.Value {
	return v.defs[inst.ID()]
}

// IsIgnorable reports whether val was defined by an ignorable
// instruction (a parameter or a constant).
func (v *View) IsIgnorable(val ir.Value) bool {
	return v.ignorable[val]
}

// InitialUnscheduledUseCounts returns a fresh copy of the initial
// per-value use counts, safe for a scheduler to mutate as it retires
// uses.
func (v *View) InitialUnscheduledUseCounts() map[ir.Value]int {
	out := make(map[ir.Value]int, len(v.initialUseCount))
	for k, val := range v.initialUseCount {
		out[k] = val
	}
	return out
}
