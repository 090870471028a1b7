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

package memsched

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticeflow/memsched/internal/ir"
	"github.com/latticeflow/memsched/internal/irtest"
	"github.com/latticeflow/memsched/internal/oracle/reference"
	"github.com/latticeflow/memsched/internal/sched"
)

func buildDiamondModule(t *testing.T) (*Module, *Computation, map[Value]uint64) {
	t.Helper()
	m := ir.NewModule("diamond")
	comp := m.NewComputation("comp")
	a := comp.AddInstruction("A", ir.Generic)
	b := comp.AddInstruction("B", ir.Generic, a)
	cc := comp.AddInstruction("C", ir.Generic, a)
	d := comp.AddInstruction("D", ir.Generic, b, cc)
	comp.SetRoot(d)

	sizes := map[Value]uint64{
		{DefID: a.ID()}:  1,
		{DefID: b.ID()}:  1,
		{DefID: cc.ID()}: 2,
		{DefID: d.ID()}:  1,
	}
	return m, comp, sizes
}

func TestScheduleModuleEndToEndVerifies(t *testing.T) {
	m, _, sizes := buildDiamondModule(t)
	size := irtest.SizeFuncFrom(sizes)
	pt := reference.New()
	sim := reference.NewHeapSimulator()

	ms, err := ScheduleModule(m, pt, size, sim)
	require.NoError(t, err)
	require.NoError(t, VerifySchedule(m, ms))
}

func TestScheduleOneComputationMatchesDriver(t *testing.T) {
	_, comp, sizes := buildDiamondModule(t)
	size := irtest.SizeFuncFrom(sizes)
	pt := reference.New()
	sim := reference.NewHeapSimulator()

	seq, err := ScheduleOneComputation(comp, pt, size, sim)
	require.NoError(t, err)
	require.Len(t, seq, comp.InstructionCount())

	want, err := sched.NewDriver(nil).Schedule(comp, pt, size, sim, nil)
	require.NoError(t, err)
	require.Equal(t, want, seq)
}

func TestScheduleModuleAlgorithmOverridesEachProduceValidSchedules(t *testing.T) {
	pt := reference.New()
	sim := reference.NewHeapSimulator()

	for _, algo := range []Algorithm{Default, List, DFS, PostOrder} {
		m, _, sizes := buildDiamondModule(t)
		size := irtest.SizeFuncFrom(sizes)
		ms, err := ScheduleModule(m, pt, size, sim, WithAlgorithm(algo))
		require.NoError(t, err, "algorithm %s", algo)
		require.NoError(t, VerifySchedule(m, ms), "algorithm %s", algo)
	}
}

func TestUpdateScheduleRoundTripOnUnmutatedModule(t *testing.T) {
	cfg := irtest.DefaultConfig()
	m, sizes := irtest.RandomModule("mod", cfg, 2)
	size := irtest.SizeFuncFrom(sizes)
	pt := reference.New()
	sim := reference.NewHeapSimulator()

	ms, err := ScheduleModule(m, pt, size, sim)
	require.NoError(t, err)
	require.NoError(t, VerifySchedule(m, ms))

	prior := ComputeIDSchedule(ms)
	require.NoError(t, UpdateSchedule(m, prior, ms))
	require.NoError(t, VerifySchedule(m, ms))
}

func TestScheduleModuleIsDeterministic(t *testing.T) {
	cfg := irtest.DefaultConfig()
	m, sizes := irtest.RandomModule("mod", cfg, 2)
	size := irtest.SizeFuncFrom(sizes)
	pt := reference.New()
	sim := reference.NewHeapSimulator()

	// Two runs over the exact same module and oracles must produce
	// byte-identical schedules; building two independently random
	// modules would not exercise this, since even identically
	// configured random graphs can differ in topology.
	ms1, err := ScheduleModule(m, pt, size, sim)
	require.NoError(t, err)
	ms2, err := ScheduleModule(m, pt, size, sim)
	require.NoError(t, err)

	require.Equal(t, len(ms1.Computations()), len(ms2.Computations()))
	for i, c1 := range ms1.Computations() {
		c2 := ms2.Computations()[i]
		require.Same(t, c1, c2)
		seq1, _ := ms1.Get(c1)
		seq2, _ := ms2.Get(c2)
		require.Equal(t, seq1, seq2)
	}
}

func TestVerifyScheduleRejectsIncompleteSchedule(t *testing.T) {
	m, comp, _ := buildDiamondModule(t)
	ms := NewModuleSchedule()
	ms.Set(comp, Sequence{}) // nothing scheduled
	require.Error(t, VerifySchedule(m, ms))
}

func TestIsKindHelpersClassifyErrors(t *testing.T) {
	m, comp, _ := buildDiamondModule(t)
	ms := NewModuleSchedule()
	ms.Set(comp, Sequence{})

	err := VerifySchedule(m, ms)
	require.Error(t, err)
	require.True(t, IsVerificationError(err))
	require.False(t, IsInternalError(err))
	require.False(t, IsOracleError(err))
}
