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

// Package scheddebug renders a module schedule for diagnostics: a
// structure dump for logging, and a Graphviz DOT rendering for visual
// inspection.
package scheddebug

import (
	"fmt"
	"strings"

	"github.com/davecgh/go-spew/spew"

	"github.com/latticeflow/memsched/internal/ir"
)

// Dump renders every computation's schedule as an ordered list of
// instruction names, via spew.Sdump.
func Dump(ms *ir.ModuleSchedule) string {
	summary := make(map[string][]string, ms.Len())
	for _, c := range ms.Computations() {
		seq, _ := ms.Get(c)
		names := make([]string, len(seq))
		for i, inst := range seq {
			names[i] = inst.String()
		}
		summary[c.Name] = names
	}
	return spew.Sdump(summary)
}

// DOT renders ms as a Graphviz digraph: one cluster per computation,
// with an edge chaining its instructions in schedule order.
func DOT(ms *ir.ModuleSchedule) string {
	var b strings.Builder
	b.WriteString("digraph module {\n")
	for _, c := range ms.Computations() {
		seq, _ := ms.Get(c)
		fmt.Fprintf(&b, "  subgraph \"cluster_%s\" {\n    label=%q;\n", c.Name, c.Name)
		var prev string
		for _, inst := range seq {
			node := nodeID(c, inst)
			fmt.Fprintf(&b, "    %q;\n", node)
			if prev != "" {
				fmt.Fprintf(&b, "    %q -> %q;\n", prev, node)
			}
			prev = node
		}
		b.WriteString("  }\n")
	}
	b.WriteString("}\n")
	return b.String()
}

func nodeID(c *ir.Computation, inst *ir.Instruction) string {
	return fmt.Sprintf("%s::%s", c.Name, inst.String())
}
