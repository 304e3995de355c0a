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
package recursion

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/go-witness/pkg/circuit"
	"github.com/consensys/go-witness/pkg/queue"
	"github.com/consensys/go-witness/pkg/scan"
	"github.com/consensys/go-witness/pkg/util/fault"
	"github.com/consensys/go-witness/pkg/util/field"
)

// AGGREGATION_ELEMENTS is the number of field elements in the preimage of an
// aggregation.
const AGGREGATION_ELEMENTS = 9

// Aggregation is a node of the recursion tree for one circuit type.  A leaf
// folds a range of base proofs, whilst a node folds a range of leaves or
// nodes.  Either way, it covers a contiguous range of the request queue and
// commits to that sub-queue.
type Aggregation struct {
	Layer    LayerKind
	Type     circuit.Type
	Requests scan.Range
	State    queue.State
	Children []*Aggregation
}

// Preimage returns the field elements committed to by this aggregation.
func (p *Aggregation) Preimage() []fr.Element {
	var elements = make([]fr.Element, AGGREGATION_ELEMENTS)
	//
	elements[0].SetUint64(uint64(p.Type))
	elements[1].SetUint64(uint64(p.Layer))
	elements[2].SetBytes(p.State.Head[:16])
	elements[3].SetBytes(p.State.Head[16:])
	elements[4].SetBytes(p.State.Tail[:16])
	elements[5].SetBytes(p.State.Tail[16:])
	elements[6].SetUint64(uint64(p.State.Length))
	elements[7].SetUint64(uint64(p.Requests.Start))
	elements[8].SetUint64(uint64(p.Requests.End))
	//
	return elements
}

// Commitment returns the MiMC hash of this aggregation's preimage.
func (p *Aggregation) Commitment() fr.Element {
	return field.HashElements(p.Preimage()...)
}

// Aggregate builds the recursion tree over a request queue, where each leaf
// folds at most fanIn requests and each node at most fanIn children.  Levels
// of nodes are added until a single node remains, which is the root.
func Aggregate(q *Queue, fanIn uint) (*Aggregation, error) {
	if fanIn < 2 {
		return nil, fault.Contract("fan-in %d is too small", fanIn)
	}
	//
	var level []*Aggregation
	// Leaves
	for start := uint(0); start < q.Len() || len(level) == 0; start += fanIn {
		leaf, err := aggregation(q, LEAF, scan.Range{Start: start, End: min(start+fanIn, q.Len())}, nil)
		if err != nil {
			return nil, err
		}
		//
		level = append(level, leaf)
	}
	// Nodes
	for len(level) > 1 || level[0].Layer == LEAF {
		var next []*Aggregation
		//
		for start := 0; start < len(level); start += int(fanIn) {
			children := level[start:min(start+int(fanIn), len(level))]
			span := scan.Range{Start: children[0].Requests.Start, End: children[len(children)-1].Requests.End}
			//
			node, err := aggregation(q, NODE, span, children)
			if err != nil {
				return nil, err
			}
			//
			next = append(next, node)
		}
		//
		level = next
	}
	//
	return level[0], nil
}

func aggregation(q *Queue, layer LayerKind, r scan.Range, children []*Aggregation) (*Aggregation, error) {
	state, err := q.Split(r.Start, r.End)
	if err != nil {
		return nil, err
	}
	//
	return &Aggregation{layer, q.Type, r, state, children}, nil
}

// Leaves returns the leaves of this tree, in order.
func (p *Aggregation) Leaves() []*Aggregation {
	if p.Layer == LEAF {
		return []*Aggregation{p}
	}
	//
	var leaves []*Aggregation
	//
	for _, c := range p.Children {
		leaves = append(leaves, c.Leaves()...)
	}
	//
	return leaves
}
