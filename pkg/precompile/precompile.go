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
package precompile

import (
	"github.com/consensys/go-witness/pkg/query"
	"github.com/consensys/go-witness/pkg/util/fault"
	"github.com/holiman/uint256"
)

// WORD_BYTES is the size of a single word in a precompile payload.
const WORD_BYTES = 32

// Round is a single step of a precompile computation, which is exactly the
// unit of work performed by one round of the corresponding circuit.  This
// interface is sealed.
type Round interface {
	// Destination identifies the precompile this round belongs to.
	Destination() query.Destination
	// seals the interface
	isRound()
}

// Witness captures everything needed to prove a single precompile call: the
// request in the log queue, the payload handed over, and the sequence of
// rounds (including their intermediate states) needed to compute the result.
type Witness struct {
	Request query.LogQuery
	Call    query.PrecompileCall
	Rounds  []Round
	// Success indicates the precompile produced a result, rather than
	// rejecting its inputs.
	Success bool
	// Output of the precompile (empty when unsuccessful).
	Output []byte
}

// Destination returns the precompile this witness is for.
func (p *Witness) Destination() query.Destination {
	// Checked during generation
	dst, _ := query.PrecompileAt(p.Call.Address)
	return dst
}

// generator computes the rounds of a precompile, returning whether it
// succeeded together with its output.
type generator func(payload []byte) ([]Round, bool, []byte, error)

var generators = map[query.Destination]generator{
	query.KECCAK256:        keccakRounds,
	query.SHA256:           sha256Rounds,
	query.ECRECOVER:        ecrecoverRounds,
	query.SECP256R1_VERIFY: p256Rounds,
	query.ECADD:            ecaddRounds,
	query.ECMUL:            ecmulRounds,
	query.ECPAIRING:        ecpairingRounds,
	query.MODEXP:           modexpRounds,
}

// Generate expands a precompile call into its round witness.  The request
// and the call must agree on timestamp and address.  Inputs which the
// precompile rejects (e.g. a point not on the curve) do not cause an error,
// but yield an unsuccessful witness.  A payload of the wrong size for its
// precompile is malformed.
func Generate(request query.LogQuery, call query.PrecompileCall) (*Witness, error) {
	if request.Timestamp != call.Timestamp {
		return nil, fault.Contract("request at %d paired with call at %d", request.Timestamp, call.Timestamp)
	} else if request.Address != call.Address {
		return nil, fault.Contract("request for %s paired with call to %s", request.Address.Hex(), call.Address.Hex())
	}
	//
	dst, ok := query.PrecompileAt(call.Address)
	if !ok {
		return nil, fault.Malformed("unknown precompile %s", call.Address.Hex())
	}
	//
	rounds, success, output, err := generators[dst](call.Payload)
	if err != nil {
		return nil, err
	}
	//
	return &Witness{request, call, rounds, success, output}, nil
}

// words splits a payload into exactly n words, or fails if it has the wrong
// size.
func words(dst query.Destination, payload []byte, n int) ([]uint256.Int, error) {
	if len(payload) != n*WORD_BYTES {
		return nil, fault.Malformed("%s payload has %d bytes (expected %d)", dst, len(payload), n*WORD_BYTES)
	}
	//
	result := make([]uint256.Int, n)
	//
	for i := range result {
		result[i].SetBytes32(payload[i*WORD_BYTES : (i+1)*WORD_BYTES])
	}
	//
	return result, nil
}
