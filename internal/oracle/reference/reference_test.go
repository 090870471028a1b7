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

package reference

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticeflow/memsched/internal/ir"
)

func TestHeapSimulatorDiamondPeak(t *testing.T) {
	// A; B,C take A; D takes B,C. defs: A=1 B=1 C=2 D=1.
	// Sequence A,B,C,D: peak after C joins B is 1(A)+1(B)+2(C)=4,
	// A retires once both B and C have consumed it.
	c := ir.NewComputation("diamond")
	a := c.AddInstruction("A", ir.Generic)
	b := c.AddInstruction("B", ir.Generic, a)
	cc := c.AddInstruction("C", ir.Generic, a)
	d := c.AddInstruction("D", ir.Generic, b, cc)
	c.SetRoot(d)

	sizes := map[ir.Value]uint64{
		{DefID: a.ID()}:  1,
		{DefID: b.ID()}:  1,
		{DefID: cc.ID()}: 2,
		{DefID: d.ID()}:  1,
	}
	size := func(v ir.Value) (uint64, error) { return sizes[v], nil }

	sim := NewHeapSimulator()
	pt := New()
	peak, err := sim.PeakMemory(c, ir.Sequence{a, b, cc, d}, pt, size, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(4), peak)
}

func TestHeapSimulatorChargesMaxSubcomputation(t *testing.T) {
	c := ir.NewComputation("caller")
	w := c.AddInstruction("W", ir.Generic)
	c.SetRoot(w)

	sub1 := ir.NewComputation("sub1")
	sub2 := ir.NewComputation("sub2")
	c.AddCalledComputation(w, sub1)
	c.AddCalledComputation(w, sub2)

	subMem := map[*ir.Computation]uint64{sub1: 100, sub2: 40}
	size := func(ir.Value) (uint64, error) { return 0, nil }

	sim := NewHeapSimulator()
	peak, err := sim.PeakMemory(c, ir.Sequence{w}, New(), size, subMem)
	require.NoError(t, err)
	require.Equal(t, uint64(100), peak)
}

func TestPointsToResolvesParameterAndConstantValues(t *testing.T) {
	c := ir.NewComputation("params")
	p := c.AddInstruction("P", ir.Parameter)
	k := c.AddInstruction("K", ir.Constant)
	b := c.AddInstruction("B", ir.Generic, p, k)
	c.SetRoot(b)

	pt := New()
	vals, err := pt.OperandValues(ir.OperandRef{User: b, Index: 0})
	require.NoError(t, err)
	require.Equal(t, []ir.Value{{DefID: p.ID()}}, vals)

	vals, err = pt.DefinedValues(k)
	require.NoError(t, err)
	require.Equal(t, []ir.Value{{DefID: k.ID()}}, vals)
}
