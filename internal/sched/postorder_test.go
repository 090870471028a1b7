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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticeflow/memsched/internal/ir"
)

func TestPostOrderDelegatesToComputationPostOrder(t *testing.T) {
	c := ir.NewComputation("diamond")
	a := c.AddInstruction("A", ir.Generic)
	b := c.AddInstruction("B", ir.Generic, a)
	cc := c.AddInstruction("C", ir.Generic, a)
	d := c.AddInstruction("D", ir.Generic, b, cc)
	c.SetRoot(d)

	seq, err := NewPostOrder().Schedule(c)
	require.NoError(t, err)
	require.Equal(t, ir.Sequence(c.PostOrder()), seq)
	require.Equal(t, ir.Sequence{a, b, cc, d}, seq)
}

func TestPostOrderOnEmptyComputation(t *testing.T) {
	c := ir.NewComputation("empty")
	seq, err := NewPostOrder().Schedule(c)
	require.NoError(t, err)
	require.Empty(t, seq)
}
