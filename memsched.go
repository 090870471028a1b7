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

// Package memsched schedules the instructions of a dataflow compiler's
// computations into an order that attempts to minimize peak live
// memory, given an externally supplied alias analysis, size function,
// and heap simulator.
package memsched

import (
	"github.com/latticeflow/memsched/internal/depview"
	"github.com/latticeflow/memsched/internal/ir"
	"github.com/latticeflow/memsched/internal/modsched"
	"github.com/latticeflow/memsched/internal/oracle"
	"github.com/latticeflow/memsched/internal/sched"
	"github.com/latticeflow/memsched/internal/update"
	"github.com/latticeflow/memsched/internal/verify"
)

// Re-exported so callers don't need to import internal/ir or
// internal/oracle directly for the common types.
type (
	Module         = ir.Module
	Computation    = ir.Computation
	Instruction    = ir.Instruction
	Value          = ir.Value
	Sequence       = ir.Sequence
	ModuleSchedule = ir.ModuleSchedule
	IDSchedule     = map[*ir.Computation][]ir.InstructionID

	PointsTo      = oracle.PointsTo
	SizeFunc      = oracle.SizeFunc
	HeapSimulator = oracle.HeapSimulator
)

// NewModuleSchedule creates an empty module schedule.
func NewModuleSchedule() *ModuleSchedule {
	return ir.NewModuleSchedule()
}

func algorithmFor(cfg *config) modsched.Algorithm {
	switch cfg.algorithm {
	case List:
		return func(comp *ir.Computation, pt oracle.PointsTo, size oracle.SizeFunc, _ oracle.HeapSimulator, subMem map[*ir.Computation]uint64) (ir.Sequence, error) {
			view, err := depview.Build(comp, pt)
			if err != nil {
				return nil, err
			}
			return sched.NewList().Schedule(comp, view, size, subMem)
		}
	case DFS:
		return func(comp *ir.Computation, pt oracle.PointsTo, size oracle.SizeFunc, _ oracle.HeapSimulator, _ map[*ir.Computation]uint64) (ir.Sequence, error) {
			view, err := depview.Build(comp, pt)
			if err != nil {
				return nil, err
			}
			d := &sched.DFS{ClampExtraUsers: cfg.dfsClampUsers, ClampTotalSize: cfg.dfsClampSize}
			return d.Schedule(comp, view, size)
		}
	case PostOrder:
		return func(comp *ir.Computation, _ oracle.PointsTo, _ oracle.SizeFunc, _ oracle.HeapSimulator, _ map[*ir.Computation]uint64) (ir.Sequence, error) {
			return sched.NewPostOrder().Schedule(comp)
		}
	default:
		drv := sched.NewDriver(cfg.logger)
		drv.ClampExtraUsers = cfg.dfsClampUsers
		drv.ClampTotalSize = cfg.dfsClampSize
		drv.VerboseLevel = cfg.verboseLevel
		return drv.Schedule
	}
}

// ScheduleModule schedules every non-fusion computation of m, in
// call-graph post-order, threading the subcomputation-memory map the
// module scheduler owns for the duration of this call.
func ScheduleModule(m *ir.Module, pt oracle.PointsTo, size oracle.SizeFunc, sim oracle.HeapSimulator, opts ...Option) (*ir.ModuleSchedule, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return modsched.Schedule(m, algorithmFor(cfg), pt, size, sim)
}

// ScheduleOneComputation schedules a single computation in isolation,
// always via the default multi-strategy driver with an empty
// subcomputation-memory map — it never takes an algorithm override,
// matching the fixed behavior of the single-computation entry point
// this package's module scheduler otherwise wraps.
func ScheduleOneComputation(comp *ir.Computation, pt oracle.PointsTo, size oracle.SizeFunc, sim oracle.HeapSimulator) (ir.Sequence, error) {
	return sched.NewDriver(nil).Schedule(comp, pt, size, sim, map[*ir.Computation]uint64{})
}

// ComputeIDSchedule restates ms as ordered instruction ids per
// computation, the form a caller persists across a mutation of the
// module for later use with UpdateSchedule.
func ComputeIDSchedule(ms *ir.ModuleSchedule) IDSchedule {
	out := make(IDSchedule, ms.Len())
	for _, c := range ms.Computations() {
		seq, _ := ms.Get(c)
		ids := make([]ir.InstructionID, len(seq))
		for i, inst := range seq {
			ids[i] = inst.ID()
		}
		out[c] = ids
	}
	return out
}

// UpdateSchedule incrementally merges the current state of m into ms,
// given the id schedule recorded before m was mutated, and verifies the
// result before returning.
func UpdateSchedule(m *ir.Module, prior IDSchedule, ms *ir.ModuleSchedule) error {
	return update.Schedule(m, update.IDSchedule(prior), ms)
}

// VerifySchedule checks ms for completeness and topological validity
// against m.
func VerifySchedule(m *ir.Module, ms *ir.ModuleSchedule) error {
	return verify.Verify(m, ms)
}
