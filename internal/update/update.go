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

// Package update incrementally reconciles a previously computed module
// schedule with a module that has since had instructions added or
// removed, preserving the relative order of surviving instructions.
package update

import (
	"github.com/oleiade/lane"

	"github.com/latticeflow/memsched/internal/ir"
	"github.com/latticeflow/memsched/internal/verify"
	"github.com/latticeflow/memsched/internal/xerrors"
)

// IDSchedule is the previous schedule restated as ordered instruction
// ids per computation, the form a caller persists across a mutation of
// the module.
type IDSchedule map[*ir.Computation][]ir.InstructionID

// Schedule merges newly added instructions into every non-fusion
// computation's schedule and drops ones that no longer exist, then
// verifies the result.
func Schedule(m *ir.Module, prior IDSchedule, ms *ir.ModuleSchedule) error {
	for _, comp := range m.NonFusionComputations() {
		if err := updateComputation(comp, prior[comp], ms); err != nil {
			return err
		}
	}
	return verify.Verify(m, ms)
}

func updateComputation(comp *ir.Computation, oldIDs []ir.InstructionID, ms *ir.ModuleSchedule) error {
	const op = "update.Schedule"

	current := comp.Instructions()
	currentByID := make(map[ir.InstructionID]*ir.Instruction, len(current))
	for _, inst := range current {
		currentByID[inst.ID()] = inst
	}

	oldSet := make(map[ir.InstructionID]struct{}, len(oldIDs))
	for _, id := range oldIDs {
		oldSet[id] = struct{}{}
	}

	unscheduledOperandCount := make(map[ir.InstructionID]int)
	newUsers := make(map[ir.InstructionID][]*ir.Instruction)
	var newInsts []*ir.Instruction

	for _, inst := range current {
		if _, isOld := oldSet[inst.ID()]; isOld {
			continue
		}
		newInsts = append(newInsts, inst)
		unscheduledOperandCount[inst.ID()] = len(inst.Operands())
		for _, operand := range inst.Operands() {
			newUsers[operand.ID()] = append(newUsers[operand.ID()], inst)
		}
	}

	worklist := lane.NewQueue()
	for _, inst := range newInsts {
		if unscheduledOperandCount[inst.ID()] == 0 {
			worklist.Enqueue(inst)
		}
	}

	seq := make(ir.Sequence, 0, len(current))
	emitted := make(map[ir.InstructionID]struct{}, len(current))

	drain := func() error {
		for !worklist.Empty() {
			inst := worklist.Dequeue().(*ir.Instruction)
			if _, done := emitted[inst.ID()]; done {
				continue
			}
			emitted[inst.ID()] = struct{}{}
			seq = append(seq, inst)
			for _, user := range newUsers[inst.ID()] {
				c, ok := unscheduledOperandCount[user.ID()]
				if !ok || c <= 0 {
					return xerrors.InternalOnInst(op, user.Name(), int64(user.ID()), "operand count would go negative")
				}
				c--
				unscheduledOperandCount[user.ID()] = c
				if c == 0 {
					worklist.Enqueue(user)
				}
			}
		}
		return nil
	}

	if err := drain(); err != nil {
		return err
	}

	for _, id := range oldIDs {
		inst, stillPresent := currentByID[id]
		if !stillPresent {
			continue
		}
		worklist.Enqueue(inst)
		if err := drain(); err != nil {
			return err
		}
	}

	ms.Set(comp, seq)
	return nil
}
