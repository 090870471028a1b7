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

// Package irtest generates randomized DAG-shaped computations and
// modules for the property-based tests of the sched and root packages.
package irtest

import (
	"fmt"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/latticeflow/memsched/internal/ir"
	"github.com/latticeflow/memsched/internal/oracle"
)

// Config bounds the shape of a generated computation.
type Config struct {
	InstructionCount int
	MaxFanIn         int
	MaxValueSize     int
	ParameterChance  float64
}

// DefaultConfig returns a small, fast-to-schedule default shape.
func DefaultConfig() Config {
	return Config{InstructionCount: 12, MaxFanIn: 3, MaxValueSize: 64, ParameterChance: 0.2}
}

// RandomComputation builds a standalone random DAG of
// cfg.InstructionCount instructions: each instruction past the first
// picks a random number of distinct earlier instructions as operands,
// guaranteeing acyclicity by construction. The last instruction is the
// root. Returns the sizes it assigned so a caller can build a SizeFunc
// with SizeFuncFrom.
func RandomComputation(name string, cfg Config) (*ir.Computation, map[ir.Value]uint64) {
	comp := ir.NewComputation(name)
	sizes := PopulateComputation(comp, name, cfg)
	return comp, sizes
}

// PopulateComputation fills an already-created computation (standalone
// or module-bound, via ir.NewComputation or Module.NewComputation) with
// a random DAG of instructions, and designates the last one as root.
func PopulateComputation(comp *ir.Computation, namePrefix string, cfg Config) map[ir.Value]uint64 {
	n := cfg.InstructionCount
	if n <= 0 {
		n = 1
	}
	maxFanIn := cfg.MaxFanIn
	if maxFanIn <= 0 {
		maxFanIn = 1
	}

	sizes := make(map[ir.Value]uint64)
	insts := make([]*ir.Instruction, 0, n)

	for i := 0; i < n; i++ {
		op := ir.Generic
		var operands []*ir.Instruction

		if i == 0 {
			if gofakeit.Float64Range(0, 1) < cfg.ParameterChance {
				op = ir.Parameter
			}
		} else {
			fanIn := maxFanIn
			if fanIn > i {
				fanIn = i
			}
			fanIn = gofakeit.Number(1, fanIn)
			seen := make(map[int]struct{}, fanIn)
			for len(operands) < fanIn {
				idx := gofakeit.Number(0, i-1)
				if _, dup := seen[idx]; dup {
					continue
				}
				seen[idx] = struct{}{}
				operands = append(operands, insts[idx])
			}
			if gofakeit.Float64Range(0, 1) < cfg.ParameterChance {
				op = ir.Constant
			}
		}

		inst := comp.AddInstruction(fmt.Sprintf("%s.v%d", namePrefix, i), op, operands...)
		insts = append(insts, inst)

		if !inst.IsIgnorable() {
			sizes[ir.Value{DefID: inst.ID()}] = uint64(gofakeit.Number(1, cfg.MaxValueSize))
		}
	}

	comp.SetRoot(insts[len(insts)-1])
	return sizes
}

// SizeFuncFrom returns a SizeFunc backed by sizes, reporting zero for
// any value not present (the ignorable case).
func SizeFuncFrom(sizes map[ir.Value]uint64) oracle.SizeFunc {
	return func(v ir.Value) (uint64, error) {
		return sizes[v], nil
	}
}

// RandomModule builds numLeaves independent random computations plus
// an entry computation whose instructions call them, so property tests
// can exercise the module scheduler's call-graph post-order and
// subcomputation-memory accounting.
func RandomModule(name string, cfg Config, numLeaves int) (*ir.Module, map[ir.Value]uint64) {
	m := ir.NewModule(name)
	sizes := make(map[ir.Value]uint64)

	leaves := make([]*ir.Computation, 0, numLeaves)
	for i := 0; i < numLeaves; i++ {
		leafName := fmt.Sprintf("%s.leaf%d", name, i)
		leaf := m.NewComputation(leafName)
		for v, s := range PopulateComputation(leaf, leafName, cfg) {
			sizes[v] = s
		}
		leaves = append(leaves, leaf)
	}

	entry := m.NewComputation(name + ".entry")
	var prevCaller *ir.Instruction
	for i, leaf := range leaves {
		caller := entry.AddInstruction(fmt.Sprintf("%s.call%d", name, i), ir.Generic)
		entry.AddCalledComputation(caller, leaf)
		if prevCaller != nil {
			entry.AddControlEdge(prevCaller, caller)
		}
		prevCaller = caller
	}
	if prevCaller != nil {
		entry.SetRoot(prevCaller)
	}
	m.SetEntry(entry)

	return m, sizes
}
