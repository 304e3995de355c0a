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
package instance

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/go-witness/pkg/circuit"
	"github.com/consensys/go-witness/pkg/query"
	"github.com/consensys/go-witness/pkg/queue"
	"github.com/consensys/go-witness/pkg/scan"
	"github.com/consensys/go-witness/pkg/util/field"
)

// Boundary records the state of a named queue immediately before and
// immediately after the elements consumed by an instance.
type Boundary struct {
	Name   string
	Before queue.State
	After  queue.State
}

// ClosedForm is the public input of a single circuit instance, which binds
// the instance to its neighbours.  Specifically, the After state of every
// queue in one instance must equal the Before state of the same queue in the
// next instance of the same type.
type ClosedForm struct {
	Type           circuit.Type
	Index          uint
	StartFlag      bool
	CompletionFlag bool
	Queues         []Boundary
	// Additional digests carried between instances (e.g. a rolling hash).
	Outputs []queue.Digest
}

// Boundary returns the boundary of the queue with the given name, or false if
// there is none.
func (p *ClosedForm) Boundary(name string) (Boundary, bool) {
	for _, b := range p.Queues {
		if b.Name == name {
			return b, true
		}
	}
	//
	return Boundary{}, false
}

// Preimage returns the sequence of field elements committed to by this closed
// form.  Digests are split into two 16-byte halves, so that every element is
// canonical.
func (p *ClosedForm) Preimage() []fr.Element {
	var elements []fr.Element
	//
	elements = appendUint(elements, uint64(p.Type), uint64(p.Index), flag(p.StartFlag), flag(p.CompletionFlag))
	//
	for _, b := range p.Queues {
		elements = appendState(elements, b.Before)
		elements = appendState(elements, b.After)
	}
	//
	for _, d := range p.Outputs {
		elements = appendDigest(elements, d)
	}
	//
	return elements
}

// Commitment returns the MiMC hash of this closed form's preimage.
func (p *ClosedForm) Commitment() fr.Element {
	return field.HashElements(p.Preimage()...)
}

func appendState(elements []fr.Element, state queue.State) []fr.Element {
	elements = appendDigest(elements, state.Head)
	elements = appendDigest(elements, state.Tail)
	//
	return appendUint(elements, uint64(state.Length))
}

func appendDigest(elements []fr.Element, d queue.Digest) []fr.Element {
	var hi, lo fr.Element
	//
	hi.SetBytes(d[:16])
	lo.SetBytes(d[16:])
	//
	return append(elements, hi, lo)
}

func appendUint(elements []fr.Element, values ...uint64) []fr.Element {
	for _, v := range values {
		var e fr.Element
		//
		e.SetUint64(v)
		elements = append(elements, e)
	}
	//
	return elements
}

func flag(b bool) uint64 {
	if b {
		return 1
	}
	//
	return 0
}

// boundary extracts the states of a queue around a given range.
func boundary[T query.Encodable](name string, q *queue.Simulator[T], r scan.Range) (Boundary, error) {
	before, err := q.StateAt(r.Start)
	if err != nil {
		return Boundary{}, err
	}
	//
	after, err := q.StateAt(r.End)
	//
	return Boundary{name, before, after}, err
}
