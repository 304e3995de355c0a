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
	"bytes"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/go-witness/pkg/circuit"
	"github.com/consensys/go-witness/pkg/instance"
	"github.com/consensys/go-witness/pkg/queue"
	"github.com/consensys/go-witness/pkg/util/fault"
	"github.com/consensys/go-witness/pkg/witness"
	"github.com/stretchr/testify/require"
)

func Test_Layer_01(t *testing.T) {
	for k := BASE; k < NUM_LAYERS; k++ {
		l, err := ParseLayerKind(k.String())
		require.NoError(t, err)
		require.Equal(t, k, l)
	}
	//
	_, err := ParseLayerKind("root")
	require.Error(t, err)
}

func Test_Queues_01(t *testing.T) {
	set := assembled(t, 200)
	keys := &KeyCommitments{}
	require.NoError(t, keys.Set(baseKey(circuit.RAM_PERMUTATION)))
	//
	queues := BuildQueues(set, keys, queue.MiMC{})
	require.Len(t, queues, int(circuit.NUM_TYPES))
	//
	for i, ty := range circuit.TYPES {
		require.Equal(t, ty, queues[i].Type)
		require.Equal(t, uint(len(set.Of(ty))), queues[i].Len())
		//
		for j, c := range set.ClosedForms(ty) {
			require.Equal(t, c.Commitment(), queues[i].Item(uint(j)).Commitment)
			require.Equal(t, keys[ty], queues[i].Item(uint(j)).KeyCommitment)
		}
	}
	//
	require.Equal(t, baseKey(circuit.RAM_PERMUTATION).Commitment(), keys[circuit.RAM_PERMUTATION])
	require.True(t, keys[circuit.MAIN_VM].IsZero())
}

func Test_Queues_02(t *testing.T) {
	var (
		keys KeyCommitments
		c    fr.Element
	)
	// Only base layer keys are requested.
	require.True(t, fault.IsKind(keys.Set(&VerificationKey{LEAF, circuit.MAIN_VM, nil}), fault.CONTRACT_VIOLATION))
	// The same instance under different keys gives different requests.
	c.SetUint64(3)
	lhs := Request{circuit.MAIN_VM, baseKey(circuit.MAIN_VM).Commitment(), c}
	rhs := Request{circuit.MAIN_VM, (&VerificationKey{BASE, circuit.MAIN_VM, []byte{1}}).Commitment(), c}
	require.NotEqual(t, lhs.Encode(), rhs.Encode())
	require.Len(t, lhs.Encode(), 1+2*fr.Bytes)
}

func Test_Aggregate_01(t *testing.T) {
	_, err := Aggregate(requestQueue(3), 1)
	require.True(t, fault.IsKind(err, fault.CONTRACT_VIOLATION))
}

func Test_Aggregate_02(t *testing.T) {
	// A single leaf still gets a node root
	root := check_Aggregate(t, requestQueue(0), 4)
	require.Len(t, root.Leaves(), 1)
	require.Equal(t, uint(0), root.Requests.Len())
	//
	root = check_Aggregate(t, requestQueue(3), 4)
	require.Len(t, root.Leaves(), 1)
	require.Len(t, root.Children, 1)
}

func Test_Aggregate_03(t *testing.T) {
	root := check_Aggregate(t, requestQueue(10), 2)
	// 5 leaves, then 3, 2 and 1 node(s)
	require.Len(t, root.Leaves(), 5)
	require.Equal(t, 3, depth(root))
}

func Test_Aggregate_04(t *testing.T) {
	for n := range uint(40) {
		for fanIn := uint(2); fanIn < 6; fanIn++ {
			check_Aggregate(t, requestQueue(n), fanIn)
		}
	}
}

func Test_Registry_01(t *testing.T) {
	var (
		registry = NewRegistry(map[LayerKind]Backend{BASE: echoBackend{}, LEAF: echoBackend{}})
		proof    = echoProof(BASE, circuit.MAIN_VM, 1)
		vk       = &VerificationKey{BASE, circuit.MAIN_VM, nil}
	)
	//
	require.True(t, registry.Verify(BASE, proof, vk))
	// Layer mismatches
	require.False(t, registry.Verify(LEAF, proof, vk))
	require.False(t, registry.Verify(BASE, proof, &VerificationKey{LEAF, circuit.MAIN_VM, nil}))
	// Type mismatch
	require.False(t, registry.Verify(BASE, proof, &VerificationKey{BASE, circuit.RAM_PERMUTATION, nil}))
	// No backend
	require.False(t, registry.Verify(NODE, echoProof(NODE, circuit.MAIN_VM, 1),
		&VerificationKey{NODE, circuit.MAIN_VM, nil}))
	// Bad proof
	proof.Payload[0] ^= 1
	require.False(t, registry.Verify(BASE, proof, vk))
}

func Test_Registry_02(t *testing.T) {
	// Registries cannot be altered via the map they were built from
	backends := map[LayerKind]Backend{BASE: echoBackend{}}
	registry := NewRegistry(backends)
	delete(backends, BASE)
	//
	require.True(t, registry.Verify(BASE, echoProof(BASE, circuit.MAIN_VM, 2),
		&VerificationKey{BASE, circuit.MAIN_VM, nil}))
}

func Test_NodeWitness_01(t *testing.T) {
	var (
		q        = requestQueue(5)
		root     = check_Aggregate(t, q, 2)
		registry = NewRegistry(map[LayerKind]Backend{BASE: echoBackend{}, LEAF: echoBackend{}, NODE: echoBackend{}})
	)
	// Leaves
	for _, leaf := range root.Leaves() {
		var proofs []*Proof
		//
		for i := leaf.Requests.Start; i < leaf.Requests.End; i++ {
			c := q.Item(i).Commitment
			proofs = append(proofs, &Proof{BASE, q.Type, c, c.Marshal()})
		}
		//
		w := LeafWitness(q, leaf, proofs, baseKey(q.Type))
		require.Equal(t, BASE, w.Layer)
		require.NotContains(t, w.VerifyAll(registry), false)
		// A key other than the one requested is refused.
		w = LeafWitness(q, leaf, proofs, &VerificationKey{BASE, q.Type, []byte{1}})
		require.NotContains(t, w.VerifyAll(registry), true)
	}
	// Root (whose children are nodes)
	var proofs []*Proof
	//
	for _, c := range root.Children {
		commitment := c.Commitment()
		proofs = append(proofs, &Proof{c.Layer, q.Type, commitment, commitment.Marshal()})
	}
	//
	w := NodeWitnessOf(root, proofs, &VerificationKey{NODE, q.Type, nil})
	require.Equal(t, NODE, w.Layer)
	require.NotContains(t, w.VerifyAll(registry), false)
	// Swapping two proofs breaks both
	proofs[0], proofs[1] = proofs[1], proofs[0]
	require.Equal(t, []bool{false, false}, w.VerifyAll(registry))
}

func Test_NodeWitness_02(t *testing.T) {
	var (
		registry = NewRegistry(map[LayerKind]Backend{BASE: echoBackend{}})
		c1, c2   fr.Element
	)
	//
	c1.SetUint64(1)
	c2.SetUint64(2)
	// Missing proof fails
	w := NodeWitness{
		Layer:       BASE,
		Commitments: []fr.Element{c1, c2},
		Proofs:      []*Proof{echoProof(BASE, circuit.MAIN_VM, 1)},
		Key:         baseKey(circuit.MAIN_VM),
	}
	require.Equal(t, []bool{true, false}, w.VerifyAll(registry))
	// Nil proofs and keys are refused rather than dereferenced.
	w.Proofs = []*Proof{nil, echoProof(BASE, circuit.MAIN_VM, 2)}
	require.Equal(t, []bool{false, true}, w.VerifyAll(registry))
	w.Key = nil
	require.Equal(t, []bool{false, false}, w.VerifyAll(registry))
}

func Test_Registry_03(t *testing.T) {
	registry := NewRegistry(map[LayerKind]Backend{BASE: echoBackend{}})
	//
	require.False(t, registry.Verify(BASE, nil, baseKey(circuit.MAIN_VM)))
	require.False(t, registry.Verify(BASE, echoProof(BASE, circuit.MAIN_VM, 1), nil))
	require.False(t, registry.Verify(BASE, nil, nil))
}

// ============================================================================
// Test Helpers
// ============================================================================

// Accepts a proof whose payload is the encoding of its commitment.
type echoBackend struct{}

func (echoBackend) Verify(proof *Proof, _ *VerificationKey) bool {
	return bytes.Equal(proof.Commitment.Marshal(), proof.Payload)
}

func echoProof(layer LayerKind, ty circuit.Type, value uint64) *Proof {
	var c fr.Element
	//
	c.SetUint64(value)
	//
	return &Proof{layer, ty, c, c.Marshal()}
}

func baseKey(ty circuit.Type) *VerificationKey {
	return &VerificationKey{BASE, ty, nil}
}

func requestQueue(n uint) *Queue {
	var (
		q   = &Queue{circuit.MAIN_VM, queue.NewSimulator[Request](queue.MiMC{})}
		key = baseKey(circuit.MAIN_VM).Commitment()
	)
	//
	for i := range n {
		var c fr.Element
		//
		c.SetUint64(uint64(i) * 7)
		q.Append(Request{circuit.MAIN_VM, key, c})
	}
	//
	return q
}

func assembled(t *testing.T, cycles uint) *instance.Set {
	artifact := witness.NewFullTraceArtifact()
	//
	require.NoError(t, witness.GenerateTrace(witness.TraceShape{Cycles: cycles, Slots: 4, Contracts: 2}, artifact))
	require.NoError(t, artifact.Process(witness.DefaultConfig()))
	//
	assembler, err := instance.NewAssembler(artifact, circuit.DefaultGeometry())
	require.NoError(t, err)
	//
	set, err := assembler.Assemble()
	require.NoError(t, err)
	//
	return set
}

func depth(p *Aggregation) int {
	if p.Layer == LEAF {
		return 0
	}
	//
	return 1 + depth(p.Children[0])
}

// Aggregate and check every node covers exactly its children, with the queue
// state matching that of the covered requests.
func check_Aggregate(t *testing.T, q *Queue, fanIn uint) *Aggregation {
	root, err := Aggregate(q, fanIn)
	require.NoError(t, err)
	require.Equal(t, NODE, root.Layer)
	require.Equal(t, uint(0), root.Requests.Start)
	require.Equal(t, q.Len(), root.Requests.End)
	require.Equal(t, q.Final(), root.State)
	//
	check_Node(t, q, root, fanIn)
	// Leaves partition the queue
	var next uint
	//
	for _, leaf := range root.Leaves() {
		require.Equal(t, next, leaf.Requests.Start)
		require.LessOrEqual(t, leaf.Requests.Len(), fanIn)
		next = leaf.Requests.End
	}
	//
	require.Equal(t, q.Len(), next)
	//
	return root
}

func check_Node(t *testing.T, q *Queue, p *Aggregation, fanIn uint) {
	state, err := q.Split(p.Requests.Start, p.Requests.End)
	require.NoError(t, err)
	require.Equal(t, state, p.State)
	//
	if p.Layer == LEAF {
		require.Empty(t, p.Children)
		return
	}
	//
	require.NotEmpty(t, p.Children)
	require.LessOrEqual(t, len(p.Children), int(fanIn))
	require.Equal(t, p.Requests.Start, p.Children[0].Requests.Start)
	require.Equal(t, p.Requests.End, p.Children[len(p.Children)-1].Requests.End)
	//
	for _, c := range p.Children {
		check_Node(t, q, c, fanIn)
	}
}
