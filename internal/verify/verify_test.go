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

package verify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticeflow/memsched/internal/ir"
)

func TestVerifyAcceptsValidSchedule(t *testing.T) {
	m := ir.NewModule("m")
	comp := m.NewComputation("comp")
	a := comp.AddInstruction("A", ir.Generic)
	b := comp.AddInstruction("B", ir.Generic, a)
	comp.SetRoot(b)

	ms := ir.NewModuleSchedule()
	ms.Set(comp, ir.Sequence{a, b})
	require.NoError(t, Verify(m, ms))
}

func TestVerifyRejectsOutOfOrderOperand(t *testing.T) {
	m := ir.NewModule("m")
	comp := m.NewComputation("comp")
	a := comp.AddInstruction("A", ir.Generic)
	b := comp.AddInstruction("B", ir.Generic, a)
	comp.SetRoot(b)

	ms := ir.NewModuleSchedule()
	ms.Set(comp, ir.Sequence{b, a}) // B scheduled before its own operand
	require.Error(t, Verify(m, ms))
}

func TestVerifyRejectsIncompleteSchedule(t *testing.T) {
	m := ir.NewModule("m")
	comp := m.NewComputation("comp")
	a := comp.AddInstruction("A", ir.Generic)
	b := comp.AddInstruction("B", ir.Generic, a)
	comp.SetRoot(b)

	ms := ir.NewModuleSchedule()
	ms.Set(comp, ir.Sequence{a}) // missing B
	require.Error(t, Verify(m, ms))
}

func TestVerifyRejectsDuplicateInSchedule(t *testing.T) {
	m := ir.NewModule("m")
	comp := m.NewComputation("comp")
	a := comp.AddInstruction("A", ir.Generic)
	comp.SetRoot(a)

	ms := ir.NewModuleSchedule()
	ms.Set(comp, ir.Sequence{a, a})
	require.Error(t, Verify(m, ms))
}

func TestVerifyRejectsMissingComputation(t *testing.T) {
	m := ir.NewModule("m")
	comp := m.NewComputation("comp")
	a := comp.AddInstruction("A", ir.Generic)
	comp.SetRoot(a)

	ms := ir.NewModuleSchedule() // comp never scheduled
	require.Error(t, Verify(m, ms))
}

func TestVerifyRejectsUnexpectedComputation(t *testing.T) {
	m := ir.NewModule("m")
	comp := m.NewComputation("comp")
	a := comp.AddInstruction("A", ir.Generic)
	comp.SetRoot(a)

	stray := ir.NewComputation("stray")
	sa := stray.AddInstruction("A", ir.Generic)
	stray.SetRoot(sa)

	ms := ir.NewModuleSchedule()
	ms.Set(comp, ir.Sequence{a})
	ms.Set(stray, ir.Sequence{sa})
	require.Error(t, Verify(m, ms))
}

func TestVerifyHandlesEmptyAndSingleInstructionComputations(t *testing.T) {
	m := ir.NewModule("m")
	empty := m.NewComputation("empty")
	single := m.NewComputation("single")
	a := single.AddInstruction("A", ir.Generic)
	single.SetRoot(a)

	ms := ir.NewModuleSchedule()
	ms.Set(empty, ir.Sequence{})
	ms.Set(single, ir.Sequence{a})
	require.NoError(t, Verify(m, ms))
}
