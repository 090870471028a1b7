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

import (
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// CallGraph is the module's call graph, restricted to non-fusion
// computations: an edge runs from callee to caller, so that a
// topological order of the graph is a valid call-graph post-order (every
// callee appears before every one of its callers).
type CallGraph struct {
	g        *simple.DirectedGraph
	idOf     map[*Computation]int64
	compOf   map[int64]*Computation
}

// BuildCallGraph constructs the call graph for m, skipping fusion
// computations entirely: they are never nodes, and edges into or out of
// them are never added, matching how the module scheduler itself treats
// them. A call from a computation to itself is not added as an edge
// either.
func BuildCallGraph(m *Module) *CallGraph {
	cg := &CallGraph{
		g:      simple.NewDirectedGraph(),
		idOf:   make(map[*Computation]int64),
		compOf: make(map[int64]*Computation),
	}

	var nextID int64
	for _, c := range m.NonFusionComputations() {
		id := nextID
		nextID++
		cg.idOf[c] = id
		cg.compOf[id] = c
		cg.g.AddNode(simple.Node(id))
	}

	for _, caller := range m.NonFusionComputations() {
		callerID := cg.idOf[caller]
		for _, inst := range caller.Instructions() {
			for _, callee := range inst.CalledComputations() {
				if callee.IsFusion {
					continue
				}
				calleeID, ok := cg.idOf[callee]
				if !ok {
					continue
				}
				if calleeID == callerID {
					continue
				}
				if cg.g.HasEdgeFromTo(calleeID, callerID) {
					continue
				}
				cg.g.SetEdge(simple.Edge{F: simple.Node(calleeID), T: simple.Node(callerID)})
			}
		}
	}

	return cg
}

// PostOrder returns the module's non-fusion computations ordered so
// that every callee precedes every one of its callers. Computations
// with no call relation between them keep the order in which they were
// added to the module, so the result is the same on every call. It
// returns an error if the call graph has a cycle through two or more
// computations; a computation that calls itself is never added as an
// edge (see BuildCallGraph) and so is not reported.
func (cg *CallGraph) PostOrder() ([]*Computation, error) {
	order, err := topo.SortStabilized(cg.g, func(nodes []graph.Node) {
		sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
	})
	if err != nil {
		return nil, err
	}
	out := make([]*Computation, 0, len(order))
	for _, n := range order {
		out = append(out, cg.compOf[n.ID()])
	}
	return out, nil
}

// Graph exposes the underlying gonum graph, e.g. for a verifier that
// wants its own independent acyclicity check.
func (cg *CallGraph) Graph() graph.Directed {
	return cg.g
}
