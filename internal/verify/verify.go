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

// Package verify checks a module schedule for completeness and
// topological validity, returning the first violation found.
package verify

import (
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/latticeflow/memsched/internal/ir"
	"github.com/latticeflow/memsched/internal/xerrors"
)

const op = "verify.Verify"

// Verify checks that ms covers exactly m's non-fusion computations, and
// that each computation's schedule is complete and respects every
// operand and control edge.
func Verify(m *ir.Module, ms *ir.ModuleSchedule) error {
	nonFusion := m.NonFusionComputations()
	nfSet := make(map[*ir.Computation]struct{}, len(nonFusion))
	for _, c := range nonFusion {
		nfSet[c] = struct{}{}
	}

	scheduled := make(map[*ir.Computation]struct{}, ms.Len())
	for _, c := range ms.Computations() {
		scheduled[c] = struct{}{}
	}

	for c := range nfSet {
		if _, ok := scheduled[c]; !ok {
			return xerrors.Verificationf(op, "computation %q missing from module schedule", c.Name)
		}
	}
	for c := range scheduled {
		if _, ok := nfSet[c]; !ok {
			return xerrors.Verificationf(op, "module schedule contains unexpected computation %q", c.Name)
		}
	}

	for _, comp := range nonFusion {
		seq, _ := ms.Get(comp)
		if err := verifyComputation(comp, seq); err != nil {
			return err
		}
	}
	return nil
}

func verifyComputation(comp *ir.Computation, seq ir.Sequence) error {
	want := comp.Instructions()
	if len(seq) != len(want) {
		return xerrors.Verificationf(op, "computation %q: schedule has %d instructions, expected %d",
			comp.Name, len(seq), len(want))
	}

	pos := make(map[ir.InstructionID]int, len(seq))
	for i, inst := range seq {
		if _, dup := pos[inst.ID()]; dup {
			return xerrors.VerificationOnInst(op, inst.Name(), int64(inst.ID()),
				"appears more than once in computation %q's schedule", comp.Name)
		}
		pos[inst.ID()] = i
	}
	for _, inst := range want {
		if _, ok := pos[inst.ID()]; !ok {
			return xerrors.VerificationOnInst(op, inst.Name(), int64(inst.ID()),
				"missing from computation %q's schedule", comp.Name)
		}
	}

	if err := checkAcyclic(comp); err != nil {
		return err
	}

	checkEdge := func(a, b *ir.Instruction) error {
		if pos[a.ID()] >= pos[b.ID()] {
			return xerrors.Verificationf(op, "computation %q: %s does not precede %s", comp.Name, a, b)
		}
		return nil
	}

	for _, inst := range want {
		for _, operand := range inst.Operands() {
			if err := checkEdge(operand, inst); err != nil {
				return err
			}
		}
		for _, pred := range inst.ControlPredecessors() {
			if err := checkEdge(pred, inst); err != nil {
				return err
			}
		}
	}

	return nil
}

// checkAcyclic is a second, library-backed confirmation that a
// computation's operand/control dependency graph is acyclic, run ahead
// of the position-based edge checks in verifyComputation.
func checkAcyclic(comp *ir.Computation) error {
	insns := comp.Instructions()
	idx := make(map[ir.InstructionID]int64, len(insns))
	g := simple.NewDirectedGraph()
	for i, inst := range insns {
		idx[inst.ID()] = int64(i)
		g.AddNode(simple.Node(int64(i)))
	}

	addEdge := func(from, to *ir.Instruction) {
		f, t := idx[from.ID()], idx[to.ID()]
		if f == t || g.HasEdgeFromTo(f, t) {
			return
		}
		g.SetEdge(simple.Edge{F: simple.Node(f), T: simple.Node(t)})
	}

	for _, inst := range insns {
		for _, operand := range inst.Operands() {
			addEdge(operand, inst)
		}
		for _, pred := range inst.ControlPredecessors() {
			addEdge(pred, inst)
		}
	}

	if _, err := topo.Sort(g); err != nil {
		return xerrors.Verificationf(op, "computation %q: dependency graph is cyclic: %v", comp.Name, err)
	}
	return nil
}
