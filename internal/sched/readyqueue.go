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
	"container/heap"

	"github.com/latticeflow/memsched/internal/ir"
)

// readyEntry is one ready-queue handle. bytesDefined and
// subcomputationCharge are cached at construction time and never
// recomputed; only the freed-bytes term changes as uses retire, so
// repricing only touches that term.
type readyEntry struct {
	inst                 *ir.Instruction
	bytesDefined         int64
	subcomputationCharge int64
	bytesFreed           int64
	userCount            int
	seq                  int64
	index                int // heap index, maintained by container/heap
}

func (e *readyEntry) priority() (int64, int) {
	return e.bytesFreed - e.bytesDefined - e.subcomputationCharge, e.userCount
}

// entryLess reports whether a strictly outranks b: larger (bytesFreed,
// userCount) first, ties broken by earlier insertion sequence.
func entryLess(a, b *readyEntry) bool {
	ap1, ap2 := a.priority()
	bp1, bp2 := b.priority()
	if ap1 != bp1 {
		return ap1 > bp1
	}
	if ap2 != bp2 {
		return ap2 > bp2
	}
	return a.seq < b.seq
}

// readyQueue is a mutable indexed priority queue: container/heap gives
// O(log n) push/pop, and the stored heap index on each handle lets
// readyQueue reprice an arbitrary live entry in O(log n) via heap.Fix
// instead of erase-then-reinsert into a fresh structure.
//
// github.com/oleiade/lane's PQueue cannot serve this role: it takes a
// single int priority with no arbitrary-entry access. lane is used in
// this package only for the DFS scheduler's traversal stack.
type readyQueue struct {
	entries []*readyEntry
	byInst  map[ir.InstructionID]*readyEntry
	nextSeq int64
}

func newReadyQueue() *readyQueue {
	return &readyQueue{byInst: make(map[ir.InstructionID]*readyEntry)}
}

func (q *readyQueue) Len() int { return len(q.entries) }

func (q *readyQueue) Less(i, j int) bool { return entryLess(q.entries[i], q.entries[j]) }

func (q *readyQueue) Swap(i, j int) {
	q.entries[i], q.entries[j] = q.entries[j], q.entries[i]
	q.entries[i].index = i
	q.entries[j].index = j
}

func (q *readyQueue) Push(x interface{}) {
	e := x.(*readyEntry)
	e.index = len(q.entries)
	q.entries = append(q.entries, e)
}

func (q *readyQueue) Pop() interface{} {
	n := len(q.entries)
	e := q.entries[n-1]
	q.entries[n-1] = nil
	q.entries = q.entries[:n-1]
	e.index = -1
	return e
}

// Insert adds inst to the ready queue with the given cached construction
// values.
func (q *readyQueue) Insert(inst *ir.Instruction, bytesDefined, subcomputationCharge, bytesFreed int64) {
	e := &readyEntry{
		inst:                 inst,
		bytesDefined:         bytesDefined,
		subcomputationCharge: subcomputationCharge,
		bytesFreed:           bytesFreed,
		userCount:            inst.UserCount(),
		seq:                  q.nextSeq,
	}
	q.nextSeq++
	heap.Push(q, e)
	q.byInst[inst.ID()] = e
}

// PopMax removes and returns the highest-priority ready instruction.
func (q *readyQueue) PopMax() *ir.Instruction {
	e := heap.Pop(q).(*readyEntry)
	delete(q.byInst, e.inst.ID())
	return e.inst
}

// Empty reports whether the queue has no ready instructions.
func (q *readyQueue) Empty() bool { return len(q.entries) == 0 }

// Contains reports whether inst currently has a live entry.
func (q *readyQueue) Contains(id ir.InstructionID) bool {
	_, ok := q.byInst[id]
	return ok
}

// Reprice updates the bytesFreed term of inst's entry and re-heapifies
// around it. It is a no-op if inst has no live entry.
func (q *readyQueue) Reprice(id ir.InstructionID, bytesFreed int64) {
	e, ok := q.byInst[id]
	if !ok {
		return
	}
	if e.bytesFreed == bytesFreed {
		return
	}
	e.bytesFreed = bytesFreed
	heap.Fix(q, e.index)
}
