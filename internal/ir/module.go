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

package ir

// Module is a set of computations with one designated entry.
type Module struct {
	Name              string
	Entry             *Computation
	computations      []*Computation
	nextInstructionID InstructionID
}

// NewModule creates an empty module.
func NewModule(name string) *Module {
	return &Module{Name: name}
}

// AddComputation registers c as belonging to the module. The first
// computation added becomes the entry unless SetEntry is called
// explicitly afterward.
func (m *Module) AddComputation(c *Computation) {
	m.computations = append(m.computations, c)
	if m.Entry == nil {
		m.Entry = c
	}
}

// SetEntry designates c as the module's entry computation. c must
// already have been added via AddComputation.
func (m *Module) SetEntry(c *Computation) {
	m.Entry = c
}

// Computations returns every computation in the module, in the order
// they were added.
func (m *Module) Computations() []*Computation {
	return m.computations
}

// NonFusionComputations returns every computation in the module that is
// not marked as a fusion computation, in the order they were added.
func (m *Module) NonFusionComputations() []*Computation {
	out := make([]*Computation, 0, len(m.computations))
	for _, c := range m.computations {
		if !c.IsFusion {
			out = append(out, c)
		}
	}
	return out
}

// NumUniqueInstructionIDs returns the number of instruction ids the
// module has allocated across all of its computations. Overflow-guard
// clamps (e.g. the DFS scheduler's extra-users clamp) use this as a
// module-wide bound rather than any single computation's instruction
// count.
func (m *Module) NumUniqueInstructionIDs() int {
	return int(m.nextInstructionID)
}
