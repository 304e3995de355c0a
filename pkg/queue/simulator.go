// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package queue

import (
	"github.com/consensys/go-witness/pkg/query"
	"github.com/consensys/go-witness/pkg/util/fault"
)

// Simulator is an append-only log of items, along with the queue state after
// each item was absorbed.  The state after i items is retained for every i,
// such that boundary states can later be extracted at any point.
type Simulator[T query.Encodable] struct {
	absorber Absorber
	items    []T
	// tails[i] is the tail after absorbing the first i items, hence tails[0]
	// is the empty digest.
	tails []Digest
}

// NewSimulator constructs an empty queue simulator using a given absorber.
func NewSimulator[T query.Encodable](absorber Absorber) *Simulator[T] {
	return &Simulator[T]{absorber, nil, []Digest{{}}}
}

// NewSimulatorFrom constructs a queue simulator populated with the given items.
func NewSimulatorFrom[T query.Encodable](absorber Absorber, items []T) *Simulator[T] {
	sim := NewSimulator[T](absorber)
	//
	for _, item := range items {
		sim.Append(item)
	}
	//
	return sim
}

// Append absorbs one item, records it and returns the resulting state.
func (p *Simulator[T]) Append(item T) State {
	var (
		n    = len(p.items)
		tail = p.absorber.Absorb(p.tails[n], item.Encode())
	)
	//
	p.items = append(p.items, item)
	p.tails = append(p.tails, tail)
	//
	return State{p.tails[0], tail, uint32(n + 1)}
}

// Len returns the number of items absorbed so far.
func (p *Simulator[T]) Len() uint {
	return uint(len(p.items))
}

// Item returns the ith item absorbed.
func (p *Simulator[T]) Item(index uint) T {
	return p.items[index]
}

// Items returns all absorbed items.  The returned slice must not be modified.
func (p *Simulator[T]) Items() []T {
	return p.items[:len(p.items):len(p.items)]
}

// StateAt returns the state of this queue after the first index items had been
// absorbed.  Requesting a state beyond the number of items is an error.
func (p *Simulator[T]) StateAt(index uint) (State, error) {
	if index > p.Len() {
		return State{}, fault.Contract("queue state %d out-of-range (length %d)", index, p.Len())
	}
	//
	return State{p.tails[0], p.tails[index], uint32(index)}, nil
}

// Final returns the state of this queue after all items were absorbed.
func (p *Simulator[T]) Final() State {
	n := len(p.items)
	//
	return State{p.tails[0], p.tails[n], uint32(n)}
}

// Split returns the state of the sub-queue covering items [from, to).  Its
// head is the tail before item from, and its tail the tail after item to-1.
func (p *Simulator[T]) Split(from, to uint) (State, error) {
	if from > to || to > p.Len() {
		return State{}, fault.Contract("queue split [%d,%d) out-of-range (length %d)", from, to, p.Len())
	}
	//
	return State{p.tails[from], p.tails[to], uint32(to - from)}, nil
}

// Recompute rederives every recorded state from scratch and checks it matches
// what was recorded on the way in.
func (p *Simulator[T]) Recompute() error {
	var tail Digest
	//
	for i, item := range p.items {
		tail = p.absorber.Absorb(tail, item.Encode())
		//
		if tail != p.tails[i+1] {
			return fault.Consistency(i, "", "queue state recomputation mismatch (expected %s, got %s)",
				p.tails[i+1], tail)
		}
	}
	//
	return nil
}

// Absorber returns the absorber used by this queue.
func (p *Simulator[T]) Absorber() Absorber {
	return p.absorber
}
