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
	"sort"

	"github.com/oleiade/lane"

	"github.com/latticeflow/memsched/internal/depview"
	"github.com/latticeflow/memsched/internal/ir"
	"github.com/latticeflow/memsched/internal/oracle"
	"github.com/latticeflow/memsched/internal/xerrors"
)

// DFS produces a deterministic order by post-order traversal from the
// root, visiting operands in decreasing order of a two-level transitive
// heuristic that tends to defer high-fan-out, large-footprint subtrees.
type DFS struct {
	// ClampExtraUsers replaces the default extra-users clamp (the
	// module-wide unique instruction-id count). ClampTotalSize further
	// caps the total-size clamp, which is otherwise the running
	// cumulative size. Zero means "use the default"; tests use a fixed
	// override to keep expected scores independent of unrelated fixture
	// growth.
	ClampExtraUsers int64
	ClampTotalSize  int64
}

// NewDFS returns a DFS scheduler using the default, computed clamps.
func NewDFS() *DFS {
	return &DFS{}
}

type dfsScore struct {
	extraUsers int64
	totalSize  int64
}

// The transitive fold double-counts on a DAG: a node reachable via
// multiple paths contributes its weight once per path. This is
// preserved verbatim rather than fixed — see the clamps below — per an
// unresolved open question about whether the heuristic should instead
// use a bounded longest-path metric.
func (d *DFS) computeScores(comp *ir.Computation, order []*ir.Instruction, view *depview.View, size oracle.SizeFunc) (map[ir.InstructionID]dfsScore, error) {
	scores := make(map[ir.InstructionID]dfsScore, len(order))
	clampUsers := int64(comp.NumUniqueInstructionIDs())
	if d.ClampExtraUsers > 0 {
		clampUsers = d.ClampExtraUsers
	}
	var cumulative int64

	for _, inst := range order {
		if inst.IsIgnorable() {
			scores[inst.ID()] = dfsScore{}
			continue
		}

		var extraUsers, totalSize int64
		if u := len(inst.Users()) - 1; u > 0 {
			extraUsers = int64(u)
		}
		for _, v := range view.Defs(inst) {
			if view.IsIgnorable(v) {
				continue
			}
			s, err := size(v)
			if err != nil {
				return nil, xerrors.Wrap("sched.DFS.computeScores", err)
			}
			totalSize += int64(s)
		}
		cumulative += totalSize

		seen := make(map[ir.InstructionID]struct{}, len(inst.Operands()))
		for _, o := range inst.Operands() {
			if _, dup := seen[o.ID()]; dup {
				continue
			}
			seen[o.ID()] = struct{}{}
			os := scores[o.ID()]
			extraUsers += os.extraUsers
			totalSize += os.totalSize
		}

		cumulativeClamp := cumulative
		if d.ClampTotalSize > 0 && cumulativeClamp > d.ClampTotalSize {
			cumulativeClamp = d.ClampTotalSize
		}
		if totalSize > cumulativeClamp {
			totalSize = cumulativeClamp
		}
		if extraUsers > clampUsers {
			extraUsers = clampUsers
		}
		scores[inst.ID()] = dfsScore{extraUsers: extraUsers, totalSize: totalSize}
	}
	return scores, nil
}

// Schedule implements the heuristic-ordered DFS.
func (d *DFS) Schedule(comp *ir.Computation, view *depview.View, size oracle.SizeFunc) (ir.Sequence, error) {
	const op = "sched.DFS.Schedule"

	natural := comp.PostOrder()
	scores, err := d.computeScores(comp, natural, view, size)
	if err != nil {
		return nil, err
	}

	less := func(a, b *ir.Instruction) bool {
		sa, sb := scores[a.ID()], scores[b.ID()]
		if sa.extraUsers != sb.extraUsers {
			return sa.extraUsers > sb.extraUsers
		}
		if sa.totalSize != sb.totalSize {
			return sa.totalSize > sb.totalSize
		}
		return a.Name() < b.Name()
	}

	n := comp.InstructionCount()
	visited := make(map[ir.InstructionID]struct{}, n)
	result := make([]*ir.Instruction, 0, n)

	type frame struct {
		inst     *ir.Instruction
		expanded bool
	}

	visitFrom := func(root *ir.Instruction) {
		st := lane.NewStack()
		st.Push(&frame{inst: root})
		for !st.Empty() {
			top := st.Head().(*frame)
			if _, ok := visited[top.inst.ID()]; ok {
				st.Pop()
				continue
			}
			if !top.expanded {
				top.expanded = true

				operands := make([]*ir.Instruction, 0, len(top.inst.Operands()))
				seen := make(map[ir.InstructionID]struct{})
				for _, o := range top.inst.Operands() {
					if _, dup := seen[o.ID()]; dup {
						continue
					}
					seen[o.ID()] = struct{}{}
					operands = append(operands, o)
				}
				sort.Slice(operands, func(i, j int) bool { return less(operands[i], operands[j]) })

				deps := make([]*ir.Instruction, 0, len(operands)+len(top.inst.ControlPredecessors()))
				deps = append(deps, operands...)
				deps = append(deps, top.inst.ControlPredecessors()...)
				for i := len(deps) - 1; i >= 0; i-- {
					if _, ok := visited[deps[i].ID()]; !ok {
						st.Push(&frame{inst: deps[i]})
					}
				}
				continue
			}
			st.Pop()
			if _, ok := visited[top.inst.ID()]; ok {
				continue
			}
			visited[top.inst.ID()] = struct{}{}
			result = append(result, top.inst)
		}
	}

	if comp.Root != nil {
		visitFrom(comp.Root)
	}
	for _, inst := range comp.Instructions() {
		if _, ok := visited[inst.ID()]; !ok {
			visitFrom(inst)
		}
	}

	if len(result) != n {
		return nil, xerrors.Internalf(op, "emitted %d instructions, expected %d", len(result), n)
	}
	return result, nil
}
