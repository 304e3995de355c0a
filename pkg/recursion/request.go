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
	"github.com/consensys/go-witness/pkg/instance"
	"github.com/consensys/go-witness/pkg/queue"
	"github.com/consensys/go-witness/pkg/util/fault"
)

// Request asks for a lower-layer proof to be folded, identifying it by the
// commitment to its public input.  The commitment to the verification key of
// that proof is carried alongside, so that a leaf can only fold proofs made
// with the expected key.
type Request struct {
	Type          circuit.Type
	KeyCommitment fr.Element
	Commitment    fr.Element
}

// Encode implementation for Encodable interface.
func (r Request) Encode() []byte {
	var (
		key        = r.KeyCommitment.Bytes()
		commitment = r.Commitment.Bytes()
		bytes      = make([]byte, 0, 1+2*fr.Bytes)
	)
	//
	bytes = append(bytes, byte(r.Type))
	bytes = append(bytes, key[:]...)
	//
	return append(bytes, commitment[:]...)
}

// KeyCommitments holds the commitment to the base layer verification key of
// every circuit type.  A type whose key is not known has a zero commitment.
type KeyCommitments [circuit.NUM_TYPES]fr.Element

// Set the commitment for the type of a given base layer verification key.
func (p *KeyCommitments) Set(vk *VerificationKey) error {
	if vk.Layer != BASE {
		return fault.Contract("%s key given for base layer", vk.Layer)
	} else if vk.Type >= circuit.NUM_TYPES {
		return fault.Contract("unknown circuit %s", vk.Type)
	}
	//
	p[vk.Type] = vk.Commitment()
	//
	return nil
}

// Queue is the queue of recursion requests for a single circuit type, in
// instance order.
type Queue struct {
	Type circuit.Type
	*queue.Simulator[Request]
}

// BuildQueues constructs one recursion request queue per circuit type, where
// each request refers to the closed form of one base instance and to the
// verification key for its type.
func BuildQueues(set *instance.Set, keys *KeyCommitments, absorber queue.Absorber) []*Queue {
	queues := make([]*Queue, len(circuit.TYPES))
	//
	for i, t := range circuit.TYPES {
		q := &Queue{t, queue.NewSimulator[Request](absorber)}
		//
		for _, c := range set.ClosedForms(t) {
			q.Append(Request{t, keys[t], c.Commitment()})
		}
		//
		queues[i] = q
	}
	//
	return queues
}
