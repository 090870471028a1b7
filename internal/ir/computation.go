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

import "github.com/oleiade/lane"

// Computation is a maximal subgraph of instructions forming one callable
// unit with a designated root.
type Computation struct {
	Name      string
	IsFusion  bool
	Root      *Instruction
	insns     []*Instruction
	byID      map[InstructionID]*Instruction
	nextLocal InstructionID
	// allocIDFn, when set, is used instead of the local counter so that
	// ids stay unique across every computation of the owning module.
	allocIDFn func() InstructionID
	// module, when set, is the owning module; see NumUniqueInstructionIDs.
	module *Module
}

// NewComputation creates an empty, module-less computation whose
// instruction ids are only unique within itself. Use Module.NewComputation
// to get module-wide unique ids instead.
func NewComputation(name string) *Computation {
	return &Computation{Name: name, byID: make(map[InstructionID]*Instruction)}
}

// MarkFusion marks the computation as a fusion computation: it is
// excluded from the call graph and skipped by the module scheduler.
func (c *Computation) MarkFusion() {
	c.IsFusion = true
}

// AddInstruction appends a new instruction to the computation. operands
// must already belong to this computation. The instruction's id is
// assigned by the owning Module when the computation was created with
// Module.NewComputation, or locally otherwise; callers that build a
// Computation standalone
// (e.g. in tests) get a monotonically increasing local id.
func (c *Computation) AddInstruction(name string, op Opcode, operands ...*Instruction) *Instruction {
	inst := &Instruction{
		id:        c.allocID(),
		name:      name,
		op:        op,
		operands:  append([]*Instruction(nil), operands...),
		numValues: 1,
	}
	for _, o := range operands {
		o.users = append(o.users, inst)
	}
	c.insns = append(c.insns, inst)
	c.byID[inst.id] = inst
	return inst
}

// NumUniqueInstructionIDs returns the count of unique instruction ids in
// scope for this computation's overflow-guard clamps: the owning
// module's module-wide count when the computation belongs to one, or
// this computation's own instruction count for a module-less
// computation (e.g. one built directly via NewComputation in tests).
func (c *Computation) NumUniqueInstructionIDs() int {
	if c.module != nil {
		return c.module.NumUniqueInstructionIDs()
	}
	return len(c.insns)
}

func (c *Computation) allocID() InstructionID {
	if c.allocIDFn != nil {
		return c.allocIDFn()
	}
	id := c.nextLocal
	c.nextLocal++
	return id
}

// SetNumValues marks inst as defining n logical buffers (tuple-shaped
// output); n must be >= 1.
func (c *Computation) SetNumValues(inst *Instruction, n int) {
	inst.numValues = n
}

// AddControlEdge records that pred must be scheduled before succ,
// independent of any data dependency between them.
func (c *Computation) AddControlEdge(pred, succ *Instruction) {
	pred.ctrlSucc = append(pred.ctrlSucc, succ)
	succ.ctrlPred = append(succ.ctrlPred, pred)
}

// AddCalledComputation records that inst invokes callee (e.g. a loop
// body or a conditional branch).
func (c *Computation) AddCalledComputation(inst *Instruction, callee *Computation) {
	inst.calls = append(inst.calls, callee)
}

// SetRoot designates inst as the computation's root instruction.
func (c *Computation) SetRoot(inst *Instruction) {
	c.Root = inst
}

// Instructions returns every instruction in the computation, in
// insertion order. This is not a schedule: it carries no ordering
// guarantee beyond "the order instructions were added."
func (c *Computation) Instructions() []*Instruction {
	return c.insns
}

// InstructionCount returns the number of instructions in the
// computation.
func (c *Computation) InstructionCount() int {
	return len(c.insns)
}

// ByID looks up an instruction by its id.
func (c *Computation) ByID(id InstructionID) (*Instruction, bool) {
	inst, ok := c.byID[id]
	return inst, ok
}

// PostOrder returns the computation's natural post-order: every
// instruction, each preceded by all of its operands and control
// predecessors, visited deterministically (insertion order drives which
// unvisited root each DFS starts from; operands are visited in their own
// recorded order). This is the sequence the post-order scheduler returns
// verbatim, and the traversal other schedulers build on.
//
// The walk uses an explicit lane.Stack instead of recursion so that
// scheduling arbitrarily deep computations never risks a goroutine stack
// overflow.
func (c *Computation) PostOrder() []*Instruction {
	visited := make(map[InstructionID]struct{}, len(c.insns))
	order := make([]*Instruction, 0, len(c.insns))

	var visitFrom func(root *Instruction)
	visitFrom = func(root *Instruction) {
		type frame struct {
			inst     *Instruction
			expanded bool
		}
		st := lane.NewStack()
		st.Push(&frame{inst: root})

		for !st.Empty() {
			top := st.Head().(*frame)
			if _, ok := visited[top.inst.id]; ok {
				st.Pop()
				continue
			}
			if !top.expanded {
				top.expanded = true
				deps := make([]*Instruction, 0, len(top.inst.operands)+len(top.inst.ctrlPred))
				deps = append(deps, top.inst.operands...)
				deps = append(deps, top.inst.ctrlPred...)
				for i := len(deps) - 1; i >= 0; i-- {
					if _, ok := visited[deps[i].id]; !ok {
						st.Push(&frame{inst: deps[i]})
					}
				}
				continue
			}
			st.Pop()
			if _, ok := visited[top.inst.id]; ok {
				continue
			}
			visited[top.inst.id] = struct{}{}
			order = append(order, top.inst)
		}
	}

	for _, inst := range c.insns {
		if _, ok := visited[inst.id]; !ok {
			visitFrom(inst)
		}
	}
	return order
}
