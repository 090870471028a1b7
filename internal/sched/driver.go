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

// Package sched holds the three single-computation scheduling
// strategies (list, DFS, natural post-order) and the multi-strategy
// driver that picks among them.
package sched

import (
	"log"
	"os"

	"github.com/latticeflow/memsched/internal/depview"
	"github.com/latticeflow/memsched/internal/ir"
	"github.com/latticeflow/memsched/internal/oracle"
	"github.com/latticeflow/memsched/internal/xerrors"
)

// Logger is the package-level trace logger. Callers may redirect it
// (e.g. to silence it or raise its verbosity); there is no
// structured-logging dependency to wire in its place.
var Logger = log.New(os.Stderr, "memsched: ", log.LstdFlags)

// Driver runs List, DFS, and PostOrder, scores each with the supplied
// heap simulator, and returns the minimum-peak sequence. Ties favor
// List, then DFS, then PostOrder.
type Driver struct {
	logger          *log.Logger
	ClampExtraUsers int64
	ClampTotalSize  int64
	// VerboseLevel gates the trace lines below, mirroring VLOG(2): both
	// only print at VerboseLevel >= 2.
	VerboseLevel int
}

// NewDriver returns a Driver. A nil logger falls back to the package
// Logger.
func NewDriver(logger *log.Logger) *Driver {
	if logger == nil {
		logger = Logger
	}
	return &Driver{logger: logger}
}

// Schedule runs all three strategies for comp and returns the
// minimum-peak result. Any strategy or simulator error aborts the run;
// no partial result is returned.
func (d *Driver) Schedule(
	comp *ir.Computation,
	pt oracle.PointsTo,
	size oracle.SizeFunc,
	sim oracle.HeapSimulator,
	subcomputationMemory map[*ir.Computation]uint64,
) (ir.Sequence, error) {
	const op = "sched.Driver.Schedule"

	view, err := depview.Build(comp, pt)
	if err != nil {
		return nil, err
	}

	listSeq, err := NewList().Schedule(comp, view, size, subcomputationMemory)
	if err != nil {
		return nil, err
	}
	dfs := &DFS{ClampExtraUsers: d.ClampExtraUsers, ClampTotalSize: d.ClampTotalSize}
	dfsSeq, err := dfs.Schedule(comp, view, size)
	if err != nil {
		return nil, err
	}
	postSeq, err := NewPostOrder().Schedule(comp)
	if err != nil {
		return nil, err
	}

	listPeak, err := sim.PeakMemory(comp, listSeq, pt, size, subcomputationMemory)
	if err != nil {
		return nil, xerrors.Wrap(op, err)
	}
	dfsPeak, err := sim.PeakMemory(comp, dfsSeq, pt, size, subcomputationMemory)
	if err != nil {
		return nil, xerrors.Wrap(op, err)
	}
	postPeak, err := sim.PeakMemory(comp, postSeq, pt, size, subcomputationMemory)
	if err != nil {
		return nil, xerrors.Wrap(op, err)
	}

	if d.VerboseLevel >= 2 {
		d.logger.Printf("computation %q candidates: list=%d dfs=%d post_order=%d",
			comp.Name, listPeak, dfsPeak, postPeak)
	}

	best, bestPeak, bestName := listSeq, listPeak, "list"
	if dfsPeak < bestPeak {
		best, bestPeak, bestName = dfsSeq, dfsPeak, "dfs"
	}
	if postPeak < bestPeak {
		best, bestPeak, bestName = postSeq, postPeak, "post_order"
	}

	if d.VerboseLevel >= 2 {
		d.logger.Printf("computation %q chose %s (peak=%d bytes)", comp.Name, bestName, bestPeak)
	}
	return best, nil
}
