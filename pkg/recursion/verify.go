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
	"github.com/consensys/go-witness/pkg/util"
	"github.com/consensys/go-witness/pkg/util/field"
	log "github.com/sirupsen/logrus"
)

// Proof is an opaque proof at some layer, for some circuit type, of the
// statement whose public input has a given commitment.
type Proof struct {
	Layer      LayerKind
	Type       circuit.Type
	Commitment fr.Element
	Payload    []byte
}

// VerificationKey is an opaque verification key for proofs at some layer,
// for some circuit type.
type VerificationKey struct {
	Layer   LayerKind
	Type    circuit.Type
	Payload []byte
}

// Commitment returns the commitment to this key, which binds its layer, its
// circuit type and its payload.
func (vk *VerificationKey) Commitment() fr.Element {
	bytes := append([]byte{byte(vk.Layer), byte(vk.Type)}, vk.Payload...)
	//
	return field.HashToElement(bytes)
}

// Backend verifies proofs produced by an external proof system.
type Backend interface {
	// Verify a proof against a verification key.  Any failure (including a
	// payload which cannot be decoded) gives false.
	Verify(proof *Proof, vk *VerificationKey) bool
}

// Registry determines which backend verifies the proofs of each layer.  A
// registry cannot be modified once constructed.
type Registry struct {
	backends [NUM_LAYERS]Backend
}

// NewRegistry constructs a registry from a given assignment of backends to
// layers.  Layers without a backend reject every proof.
func NewRegistry(backends map[LayerKind]Backend) *Registry {
	var r Registry
	//
	for layer, b := range backends {
		if layer < NUM_LAYERS {
			r.backends[layer] = b
		}
	}
	//
	return &r
}

// Verify a proof at a given layer against a given verification key.  This is
// advisory, hence failure is reported as false rather than an error.  The
// proof and key must both belong to the given layer and agree on the circuit
// type.
func (p *Registry) Verify(layer LayerKind, proof *Proof, vk *VerificationKey) bool {
	switch {
	case layer >= NUM_LAYERS || p.backends[layer] == nil:
		log.Debugf("no backend for %s layer", layer)
		return false
	case proof == nil || vk == nil:
		log.Debugf("missing proof or key at %s layer", layer)
		return false
	case proof.Layer != layer || vk.Layer != layer:
		log.Debugf("%s proof with %s key checked at %s layer", proof.Layer, vk.Layer, layer)
		return false
	case proof.Type != vk.Type:
		log.Debugf("%s proof with %s key", proof.Type, vk.Type)
		return false
	}
	//
	return p.backends[layer].Verify(proof, vk)
}

// NodeWitness holds what a leaf or node needs to fold its inputs: the
// proofs of the layer below, the commitments they are expected to carry, and
// the key they verify against.  A leaf additionally knows the commitment to
// the key its requests were made for.
type NodeWitness struct {
	Layer         LayerKind
	Commitments   []fr.Element
	Proofs        []*Proof
	Key           *VerificationKey
	KeyCommitment util.Option[fr.Element]
}

// LeafWitness constructs the witness of a leaf, given the proofs of the base
// instances it covers.
func LeafWitness(q *Queue, leaf *Aggregation, proofs []*Proof, key *VerificationKey) *NodeWitness {
	var (
		commitments []fr.Element
		expected    = util.None[fr.Element]()
	)
	//
	for i := leaf.Requests.Start; i < leaf.Requests.End; i++ {
		commitments = append(commitments, q.Item(i).Commitment)
		expected = util.Some(q.Item(i).KeyCommitment)
	}
	//
	return &NodeWitness{BASE, commitments, proofs, key, expected}
}

// NodeWitnessOf constructs the witness of a node, given the proofs of its
// children.
func NodeWitnessOf(node *Aggregation, proofs []*Proof, key *VerificationKey) *NodeWitness {
	var (
		commitments = make([]fr.Element, len(node.Children))
		layer       = NODE
	)
	//
	for i, c := range node.Children {
		commitments[i] = c.Commitment()
		layer = c.Layer
	}
	//
	return &NodeWitness{layer, commitments, proofs, key, util.None[fr.Element]()}
}

// VerifyAll verifies every proof of this witness, reporting the outcome for
// each.  A proof fails if it is missing, does not verify, or does not carry
// the expected commitment.  Every proof fails if the key is not the one
// requested.
func (p *NodeWitness) VerifyAll(registry *Registry) []bool {
	var (
		results = make([]bool, len(p.Commitments))
		trusted = p.Key != nil
	)
	//
	if trusted {
		actual := p.Key.Commitment()
		expected := p.KeyCommitment.UnwrapOr(actual)
		trusted = expected.Equal(&actual)
	}
	//
	for i := range results {
		if trusted && i < len(p.Proofs) && p.Proofs[i] != nil && p.Proofs[i].Commitment.Equal(&p.Commitments[i]) {
			results[i] = registry.Verify(p.Layer, p.Proofs[i], p.Key)
		}
		//
		if !results[i] {
			log.Debugf("%s proof %d failed verification", p.Layer, i)
		}
	}
	//
	return results
}
