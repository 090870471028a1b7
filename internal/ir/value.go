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

package ir

import "fmt"

// OperandRef identifies one operand slot: the User's Index-th operand.
// The points-to oracle resolves values over operand slots rather than
// over instructions directly, since two slots of the same user may
// carry different operands.
type OperandRef struct {
	User  *Instruction
	Index int
}

// Operand returns the instruction occupying this operand slot.
func (r OperandRef) Operand() *Instruction {
	return r.User.operands[r.Index]
}

func (r OperandRef) String() string {
	return fmt.Sprintf("%s/operand[%d]", r.User, r.Index)
}

// Sequence is a total order over one computation's instructions.
type Sequence []*Instruction

// Position returns a lookup table from instruction id to its index
// within the sequence, for O(1) position comparisons.
func (s Sequence) Position() map[InstructionID]int {
	pos := make(map[InstructionID]int, len(s))
	for i, inst := range s {
		pos[inst.id] = i
	}
	return pos
}

// ModuleSchedule maps every non-fusion computation of a module to its
// schedule.
type ModuleSchedule struct {
	order     []*Computation
	schedules map[*Computation]Sequence
}

// NewModuleSchedule creates an empty module schedule.
func NewModuleSchedule() *ModuleSchedule {
	return &ModuleSchedule{schedules: make(map[*Computation]Sequence)}
}

// Set records seq as c's schedule.
func (ms *ModuleSchedule) Set(c *Computation, seq Sequence) {
	if _, ok := ms.schedules[c]; !ok {
		ms.order = append(ms.order, c)
	}
	ms.schedules[c] = seq
}

// Get returns c's schedule, if one has been recorded.
func (ms *ModuleSchedule) Get(c *Computation) (Sequence, bool) {
	seq, ok := ms.schedules[c]
	return seq, ok
}

// Computations returns every computation with a recorded schedule, in
// the order they were first set.
func (ms *ModuleSchedule) Computations() []*Computation {
	return ms.order
}

// Len returns the number of computations with a recorded schedule.
func (ms *ModuleSchedule) Len() int {
	return len(ms.schedules)
}
