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

package sched

import (
	"github.com/latticeflow/memsched/internal/depview"
	"github.com/latticeflow/memsched/internal/ir"
	"github.com/latticeflow/memsched/internal/oracle"
	"github.com/latticeflow/memsched/internal/xerrors"
)

// List produces a memory-minimizing order for one computation by
// repeatedly emitting the ready instruction with the largest
// (bytes-freed, user-count) priority.
type List struct{}

// NewList returns a List scheduler.
func NewList() *List {
	return &List{}
}

// Schedule implements the ready-queue algorithm: seed the queue with
// every zero-predecessor instruction, repeatedly pop the maximum, and
// reprice exactly the instructions whose freed-bytes term could have
// changed (the users of the just-emitted instruction's operands).
func (l *List) Schedule(
	comp *ir.Computation,
	view *depview.View,
	size oracle.SizeFunc,
	subcomputationMemory map[*ir.Computation]uint64,
) (ir.Sequence, error) {
	const op = "sched.List.Schedule"

	insns := comp.Instructions()
	n := len(insns)

	useCount := view.InitialUnscheduledUseCounts()
	predCount := make(map[ir.InstructionID]int, n)
	for _, inst := range insns {
		predCount[inst.ID()] = len(inst.Operands()) + len(inst.ControlPredecessors())
	}

	bytesDefinedOf := func(inst *ir.Instruction) (int64, error) {
		var total int64
		for _, v := range view.Defs(inst) {
			if view.IsIgnorable(v) {
				continue
			}
			s, err := size(v)
			if err != nil {
				return 0, xerrors.Wrap(op, err)
			}
			total += int64(s)
		}
		return total, nil
	}
	bytesFreedOf := func(inst *ir.Instruction) (int64, error) {
		var total int64
		for _, v := range view.Uses(inst) {
			if view.IsIgnorable(v) {
				continue
			}
			if useCount[v] == 1 {
				s, err := size(v)
				if err != nil {
					return 0, xerrors.Wrap(op, err)
				}
				total += int64(s)
			}
		}
		return total, nil
	}

	q := newReadyQueue()
	insertReady := func(inst *ir.Instruction) error {
		bd, err := bytesDefinedOf(inst)
		if err != nil {
			return err
		}
		bf, err := bytesFreedOf(inst)
		if err != nil {
			return err
		}
		q.Insert(inst, bd, subcomputationCharge(inst, subcomputationMemory), bf)
		return nil
	}

	for _, inst := range insns {
		if predCount[inst.ID()] == 0 {
			if err := insertReady(inst); err != nil {
				return nil, err
			}
		}
	}

	seq := make(ir.Sequence, 0, n)
	for !q.Empty() {
		b := q.PopMax()
		seq = append(seq, b)

		reprice := false
		for _, v := range view.Uses(b) {
			cur, ok := useCount[v]
			if !ok || cur <= 0 {
				return nil, xerrors.InternalOnInst(op, b.Name(), int64(b.ID()), "use count for %s would go negative", v)
			}
			cur--
			useCount[v] = cur
			if cur == 1 {
				reprice = true
			}
		}

		successors := make([]*ir.Instruction, 0, len(b.Users())+len(b.ControlSuccessors()))
		successors = append(successors, b.Users()...)
		successors = append(successors, b.ControlSuccessors()...)
		for _, s := range successors {
			c, ok := predCount[s.ID()]
			if !ok || c <= 0 {
				return nil, xerrors.InternalOnInst(op, s.Name(), int64(s.ID()), "predecessor count would go negative")
			}
			c--
			predCount[s.ID()] = c
			if c == 0 {
				if err := insertReady(s); err != nil {
					return nil, err
				}
			}
		}

		if reprice {
			seen := make(map[ir.InstructionID]struct{})
			for _, operand := range b.Operands() {
				for _, user := range operand.Users() {
					if _, dup := seen[user.ID()]; dup {
						continue
					}
					seen[user.ID()] = struct{}{}
					if !q.Contains(user.ID()) {
						continue
					}
					bf, err := bytesFreedOf(user)
					if err != nil {
						return nil, err
					}
					q.Reprice(user.ID(), bf)
				}
			}
		}
	}

	if len(seq) != n {
		return nil, xerrors.Internalf(op, "emitted %d instructions, expected %d", len(seq), n)
	}
	return seq, nil
}

// subcomputationCharge returns the memory an instruction's called
// computations contribute to its priority: the largest recorded peak
// among them, not their sum, since only one call is active at a time.
func subcomputationCharge(inst *ir.Instruction, subcomputationMemory map[*ir.Computation]uint64) int64 {
	var max int64
	for _, callee := range inst.CalledComputations() {
		if m, ok := subcomputationMemory[callee]; ok && int64(m) > max {
			max = int64(m)
		}
	}
	return max
}
