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
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticeflow/memsched/internal/depview"
	"github.com/latticeflow/memsched/internal/ir"
	"github.com/latticeflow/memsched/internal/irtest"
	"github.com/latticeflow/memsched/internal/oracle"
	"github.com/latticeflow/memsched/internal/oracle/reference"
)

func TestDriverTiesFavorList(t *testing.T) {
	c := ir.NewComputation("diamond")
	a := c.AddInstruction("A", ir.Generic)
	b := c.AddInstruction("B", ir.Generic, a)
	cc := c.AddInstruction("C", ir.Generic, a)
	d := c.AddInstruction("D", ir.Generic, b, cc)
	c.SetRoot(d)

	pt := reference.New()
	size := irtest.SizeFuncFrom(diamondSizes(a, b, cc, d))
	sim := reference.NewHeapSimulator()

	seq, err := NewDriver(nil).Schedule(c, pt, size, sim, nil)
	require.NoError(t, err)
	require.Equal(t, ir.Sequence{a, b, cc, d}, seq)
}

func TestDriverChoosesMinimumPeakAmongAllThreeStrategies(t *testing.T) {
	cfg := irtest.DefaultConfig()
	pt := reference.New()
	sim := reference.NewHeapSimulator()

	for i := 0; i < 10; i++ {
		comp, sizes := irtest.RandomComputation("fuzz", cfg)
		size := irtest.SizeFuncFrom(sizes)

		view, err := depview.Build(comp, pt)
		require.NoError(t, err)

		listSeq, err := NewList().Schedule(comp, view, size, nil)
		require.NoError(t, err)
		dfsSeq, err := NewDFS().Schedule(comp, view, size)
		require.NoError(t, err)
		postSeq, err := NewPostOrder().Schedule(comp)
		require.NoError(t, err)

		listPeak, err := sim.PeakMemory(comp, listSeq, pt, size, nil)
		require.NoError(t, err)
		dfsPeak, err := sim.PeakMemory(comp, dfsSeq, pt, size, nil)
		require.NoError(t, err)
		postPeak, err := sim.PeakMemory(comp, postSeq, pt, size, nil)
		require.NoError(t, err)

		min := listPeak
		if dfsPeak < min {
			min = dfsPeak
		}
		if postPeak < min {
			min = postPeak
		}

		chosen, err := NewDriver(nil).Schedule(comp, pt, size, sim, nil)
		require.NoError(t, err)
		chosenPeak, err := sim.PeakMemory(comp, chosen, pt, size, nil)
		require.NoError(t, err)

		require.Equal(t, min, chosenPeak)
	}
}

type erroringHeapSimulator struct{}

func (erroringHeapSimulator) PeakMemory(*ir.Computation, ir.Sequence, oracle.PointsTo, oracle.SizeFunc, map[*ir.Computation]uint64) (uint64, error) {
	return 0, errors.New("boom")
}

func TestDriverWrapsSimulatorErrors(t *testing.T) {
	c := ir.NewComputation("single")
	a := c.AddInstruction("A", ir.Generic)
	c.SetRoot(a)

	_, err := NewDriver(nil).Schedule(c, reference.New(), irtest.SizeFuncFrom(nil), erroringHeapSimulator{}, nil)
	require.Error(t, err)
}
