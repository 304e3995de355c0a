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
package groth16

import (
	"bytes"
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/go-witness/pkg/circuit"
	"github.com/consensys/go-witness/pkg/recursion"
	"github.com/consensys/go-witness/pkg/util"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Keys holds the compiled circuit and the proving / verifying keys for
// proofs at one layer, for one circuit type, over preimages of a fixed size.
type Keys struct {
	Layer recursion.LayerKind
	Type  circuit.Type
	cs    constraint.ConstraintSystem
	pk    groth16.ProvingKey
	vk    groth16.VerifyingKey
}

// Compile the commitment circuit for preimages of n elements.
func Compile(n uint) (constraint.ConstraintSystem, error) {
	var (
		stats = util.NewPerfStats()
		c     = CommitmentCircuit{Preimage: make([]frontend.Variable, n)}
	)
	//
	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &c)
	if err != nil {
		return nil, errors.Wrapf(err, "compiling commitment circuit")
	}
	//
	stats.Log("Compiling commitment circuit")
	log.Debugf("commitment circuit over %d elements has %d constraints", n, cs.GetNbConstraints())
	//
	return cs, nil
}

// Setup compiles the commitment circuit for preimages of n elements, and runs
// the (trusted) groth16 setup on it.
func Setup(layer recursion.LayerKind, t circuit.Type, n uint) (*Keys, error) {
	cs, err := Compile(n)
	if err != nil {
		return nil, err
	}
	//
	stats := util.NewPerfStats()
	//
	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return nil, errors.Wrapf(err, "groth16 setup")
	}
	//
	stats.Log("Groth16 setup")
	//
	return &Keys{layer, t, cs, pk, vk}, nil
}

// Prove that the given preimage hashes to the given commitment.
func (p *Keys) Prove(preimage []fr.Element, commitment fr.Element) (*recursion.Proof, error) {
	var (
		stats      = util.NewPerfStats()
		assignment = CommitmentCircuit{Commitment: toBig(commitment), Preimage: make([]frontend.Variable, len(preimage))}
		buffer     bytes.Buffer
	)
	//
	for i := range preimage {
		assignment.Preimage[i] = toBig(preimage[i])
	}
	//
	witness, err := frontend.NewWitness(&assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, errors.Wrapf(err, "building witness")
	}
	//
	proof, err := groth16.Prove(p.cs, p.pk, witness)
	if err != nil {
		return nil, errors.Wrapf(err, "groth16 prove")
	}
	//
	if _, err := proof.WriteTo(&buffer); err != nil {
		return nil, err
	}
	//
	stats.Log("Groth16 prove")
	//
	return &recursion.Proof{Layer: p.Layer, Type: p.Type, Commitment: commitment, Payload: buffer.Bytes()}, nil
}

// VerificationKey returns the serialised verifying key of these keys.
func (p *Keys) VerificationKey() (*recursion.VerificationKey, error) {
	var buffer bytes.Buffer
	//
	if _, err := p.vk.WriteTo(&buffer); err != nil {
		return nil, err
	}
	//
	return &recursion.VerificationKey{Layer: p.Layer, Type: p.Type, Payload: buffer.Bytes()}, nil
}

// WriteTo serialises the constraint system and proving key of these keys.
func (p *Keys) WriteTo(w io.Writer) (int64, error) {
	var n int64
	//
	for _, part := range []io.WriterTo{p.cs, p.pk, p.vk} {
		m, err := part.WriteTo(w)
		//
		n += m
		//
		if err != nil {
			return n, err
		}
	}
	//
	return n, nil
}

// ReadKeys deserialises keys previously written with WriteTo.
func ReadKeys(layer recursion.LayerKind, t circuit.Type, r io.Reader) (*Keys, error) {
	var (
		cs = groth16.NewCS(ecc.BN254)
		pk = groth16.NewProvingKey(ecc.BN254)
		vk = groth16.NewVerifyingKey(ecc.BN254)
	)
	//
	for _, part := range []io.ReaderFrom{cs, pk, vk} {
		if _, err := part.ReadFrom(r); err != nil {
			return nil, errors.Wrapf(err, "reading keys")
		}
	}
	//
	return &Keys{layer, t, cs, pk, vk}, nil
}

// Backend verifies groth16 proofs of the commitment circuit over BN254.
type Backend struct{}

// Verify implementation for the recursion.Backend interface.
func (Backend) Verify(proof *recursion.Proof, key *recursion.VerificationKey) bool {
	var (
		p          = groth16.NewProof(ecc.BN254)
		vk         = groth16.NewVerifyingKey(ecc.BN254)
		assignment = CommitmentCircuit{Commitment: toBig(proof.Commitment)}
	)
	//
	if _, err := p.ReadFrom(bytes.NewReader(proof.Payload)); err != nil {
		log.Debugf("malformed proof: %s", err)
		return false
	} else if _, err := vk.ReadFrom(bytes.NewReader(key.Payload)); err != nil {
		log.Debugf("malformed verification key: %s", err)
		return false
	}
	//
	public, err := frontend.NewWitness(&assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		log.Debugf("malformed public witness: %s", err)
		return false
	}
	//
	if err := groth16.Verify(p, vk, public); err != nil {
		log.Debugf("groth16 verification failed: %s", err)
		return false
	}
	//
	return true
}

func toBig(e fr.Element) *big.Int {
	return e.BigInt(new(big.Int))
}
