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
	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/consensys/go-witness/pkg/query"
	"github.com/consensys/go-witness/pkg/util/fault"
	"github.com/holiman/uint256"
)

// PAIR_BYTES is the size of a single (G1, G2) pair in an ecpairing payload.
const PAIR_BYTES = 6 * WORD_BYTES

// EcAddRound adds two points on the bn254 curve.
type EcAddRound struct {
	Lhs, Rhs bn254.G1Affine
	Result   bn254.G1Affine
	Valid    bool
}

// Destination implementation for Round interface.
func (r *EcAddRound) Destination() query.Destination {
	return query.ECADD
}

func (r *EcAddRound) isRound() {}

// EcMulRound multiplies a point on the bn254 curve by a scalar.
type EcMulRound struct {
	Point  bn254.G1Affine
	Scalar uint256.Int
	Result bn254.G1Affine
	Valid  bool
}

// Destination implementation for Round interface.
func (r *EcMulRound) Destination() query.Destination {
	return query.ECMUL
}

func (r *EcMulRound) isRound() {}

// PairingRound consumes one (G1, G2) pair, multiplying its Miller loop into
// the running accumulator.  The last round of a call applies the final
// exponentiation to determine the result.
type PairingRound struct {
	Index       uint
	P           bn254.G1Affine
	Q           bn254.G2Affine
	Accumulator bn254.GT
	Valid       bool
	Last        bool
	// Result of the pairing check (only meaningful in the last round).
	Result bool
}

// Destination implementation for Round interface.
func (r *PairingRound) Destination() query.Destination {
	return query.ECPAIRING
}

func (r *PairingRound) isRound() {}

// Payload is x1|y1|x2|y2.  The output is x|y.
func ecaddRounds(payload []byte) ([]Round, bool, []byte, error) {
	if len(payload) != 4*WORD_BYTES {
		return nil, false, nil, fault.Malformed("ecadd payload has %d bytes", len(payload))
	}
	//
	var (
		round   EcAddRound
		lhsOk   = readG1(&round.Lhs, payload[:2*WORD_BYTES])
		rhsOk   = readG1(&round.Rhs, payload[2*WORD_BYTES:])
		rounds  = []Round{&round}
		success = lhsOk && rhsOk
	)
	//
	if !success {
		return rounds, false, nil, nil
	}
	//
	round.Result.Add(&round.Lhs, &round.Rhs)
	round.Valid = true
	//
	return rounds, true, writeG1(&round.Result), nil
}

// Payload is x|y|scalar.  The output is x|y.
func ecmulRounds(payload []byte) ([]Round, bool, []byte, error) {
	if len(payload) != 3*WORD_BYTES {
		return nil, false, nil, fault.Malformed("ecmul payload has %d bytes", len(payload))
	}
	//
	var round EcMulRound
	//
	round.Scalar.SetBytes32(payload[2*WORD_BYTES:])
	//
	if !readG1(&round.Point, payload[:2*WORD_BYTES]) {
		return []Round{&round}, false, nil, nil
	}
	//
	round.Result.ScalarMultiplication(&round.Point, round.Scalar.ToBig())
	round.Valid = true
	//
	return []Round{&round}, true, writeG1(&round.Result), nil
}

// Payload is zero or more (x|y|qx_im|qx_re|qy_im|qy_re) pairs.  The output is
// a word holding one if the product of pairings is one.
func ecpairingRounds(payload []byte) ([]Round, bool, []byte, error) {
	if len(payload)%PAIR_BYTES != 0 {
		return nil, false, nil, fault.Malformed("ecpairing payload has %d bytes", len(payload))
	}
	//
	var (
		n      = max(1, len(payload)/PAIR_BYTES)
		rounds = make([]Round, n)
		acc    bn254.GT
	)
	//
	acc.SetOne()
	//
	for i := range n {
		round := &PairingRound{Index: uint(i), Last: i == n-1, Valid: true}
		//
		if len(payload) > 0 {
			pair := payload[i*PAIR_BYTES : (i+1)*PAIR_BYTES]
			round.Valid = readG1(&round.P, pair[:2*WORD_BYTES]) && readG2(&round.Q, pair[2*WORD_BYTES:])
		}
		//
		if !round.Valid {
			// An invalid pair aborts the call.
			return append(rounds[:i], round), false, nil, nil
		} else if !round.P.IsInfinity() && !round.Q.IsInfinity() {
			ml, err := bn254.MillerLoop([]bn254.G1Affine{round.P}, []bn254.G2Affine{round.Q})
			if err != nil {
				return nil, false, nil, err
			}
			//
			acc.Mul(&acc, &ml)
		}
		//
		round.Accumulator = acc
		//
		if round.Last {
			final := bn254.FinalExponentiation(&acc)
			round.Result = final.IsOne()
		}
		//
		rounds[i] = round
	}
	//
	result := make([]byte, WORD_BYTES)
	//
	if rounds[n-1].(*PairingRound).Result {
		result[WORD_BYTES-1] = 1
	}
	//
	return rounds, true, result, nil
}

// readG1 reads a point in G1, where (0,0) is the point at infinity.  This
// fails if either coordinate is not canonical, or the point is not on the
// curve.
func readG1(p *bn254.G1Affine, bytes []byte) bool {
	if !readFp(&p.X, bytes[:WORD_BYTES]) || !readFp(&p.Y, bytes[WORD_BYTES:2*WORD_BYTES]) {
		return false
	}
	//
	return p.IsOnCurve()
}

// readG2 reads a point in G2, where each coordinate is given imaginary part
// first.  The point must additionally lie in the prime order subgroup.
func readG2(q *bn254.G2Affine, bytes []byte) bool {
	ok := readFp(&q.X.A1, bytes[:WORD_BYTES]) &&
		readFp(&q.X.A0, bytes[WORD_BYTES:2*WORD_BYTES]) &&
		readFp(&q.Y.A1, bytes[2*WORD_BYTES:3*WORD_BYTES]) &&
		readFp(&q.Y.A0, bytes[3*WORD_BYTES:4*WORD_BYTES])
	//
	return ok && (q.IsInfinity() || (q.IsOnCurve() && q.IsInSubGroup()))
}

func readFp(e *fp.Element, bytes []byte) bool {
	return e.SetBytesCanonical(bytes) == nil
}

func writeG1(p *bn254.G1Affine) []byte {
	x, y := p.X.Bytes(), p.Y.Bytes()
	//
	return append(x[:], y[:]...)
}
