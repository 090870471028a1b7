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

// NewComputation creates an empty computation, registers it with the
// module, and wires its instruction-id allocator to the module's shared
// counter so that instruction ids are unique across the whole module
// rather than merely within one computation.
func (m *Module) NewComputation(name string) *Computation {
	c := &Computation{
		Name:      name,
		byID:      make(map[InstructionID]*Instruction),
		allocIDFn: m.allocInstructionID,
		module:    m,
	}
	m.AddComputation(c)
	return c
}

func (m *Module) allocInstructionID() InstructionID {
	id := m.nextInstructionID
	m.nextInstructionID++
	return id
}
