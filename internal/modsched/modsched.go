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

// Package modsched orchestrates per-computation scheduling across a
// whole module, in call-graph post-order, so that a callee's peak
// memory is always known before any of its callers is scheduled.
package modsched

import (
	"github.com/oleiade/lane"

	"github.com/latticeflow/memsched/internal/ir"
	"github.com/latticeflow/memsched/internal/oracle"
	"github.com/latticeflow/memsched/internal/xerrors"
)

// Algorithm picks a single-computation scheduling strategy.
type Algorithm func(comp *ir.Computation, pt oracle.PointsTo, size oracle.SizeFunc, sim oracle.HeapSimulator, subcomputationMemory map[*ir.Computation]uint64) (ir.Sequence, error)

// Schedule runs algo over every non-fusion computation of m, in
// call-graph post-order, threading a subcomputation-memory map so that
// when instruction I calls computation C, peak_memory(C) is already
// recorded by the time I's own computation is scored.
func Schedule(
	m *ir.Module,
	algo Algorithm,
	pt oracle.PointsTo,
	size oracle.SizeFunc,
	sim oracle.HeapSimulator,
) (*ir.ModuleSchedule, error) {
	const op = "modsched.Schedule"

	cg := ir.BuildCallGraph(m)
	order, err := cg.PostOrder()
	if err != nil {
		return nil, xerrors.Wrap(op, err)
	}

	q := lane.NewQueue()
	for _, c := range order {
		q.Enqueue(c)
	}

	result := ir.NewModuleSchedule()
	subcomputationMemory := make(map[*ir.Computation]uint64, len(order))

	for !q.Empty() {
		comp := q.Dequeue().(*ir.Computation)

		seq, err := algo(comp, pt, size, sim, subcomputationMemory)
		if err != nil {
			return nil, err
		}

		peak, err := sim.PeakMemory(comp, seq, pt, size, subcomputationMemory)
		if err != nil {
			return nil, xerrors.Wrap(op, err)
		}

		result.Set(comp, seq)
		subcomputationMemory[comp] = peak
	}

	return result, nil
}
