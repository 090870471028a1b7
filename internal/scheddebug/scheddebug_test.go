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

package scheddebug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticeflow/memsched/internal/ir"
)

func buildSample() *ir.ModuleSchedule {
	c := ir.NewComputation("comp")
	a := c.AddInstruction("A", ir.Generic)
	b := c.AddInstruction("B", ir.Generic, a)
	c.SetRoot(b)

	ms := ir.NewModuleSchedule()
	ms.Set(c, ir.Sequence{a, b})
	return ms
}

func TestDumpContainsComputationAndInstructionNames(t *testing.T) {
	out := Dump(buildSample())
	require.Contains(t, out, "comp")
	require.Contains(t, out, "A.")
	require.Contains(t, out, "B.")
}

func TestDOTProducesAValidLookingDigraph(t *testing.T) {
	out := DOT(buildSample())
	require.True(t, strings.HasPrefix(out, "digraph module {\n"))
	require.Contains(t, out, `cluster_comp`)
	require.Contains(t, out, "->")
	require.True(t, strings.HasSuffix(out, "}\n"))
}
