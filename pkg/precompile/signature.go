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
	"crypto/ecdsa"
	"crypto/elliptic"

	"github.com/consensys/go-witness/pkg/query"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// EcrecoverRound recovers the signer of a message hash from a secp256k1
// signature.
type EcrecoverRound struct {
	Hash    common.Hash
	V       uint256.Int
	R, S    uint256.Int
	Signer  common.Address
	Success bool
}

// Destination implementation for Round interface.
func (r *EcrecoverRound) Destination() query.Destination {
	return query.ECRECOVER
}

func (r *EcrecoverRound) isRound() {}

// P256Round verifies a secp256r1 signature of a message hash against a given
// public key.
type P256Round struct {
	Hash  common.Hash
	R, S  uint256.Int
	X, Y  uint256.Int
	Valid bool
}

// Destination implementation for Round interface.
func (r *P256Round) Destination() query.Destination {
	return query.SECP256R1_VERIFY
}

func (r *P256Round) isRound() {}

// Payload is hash|v|r|s.  The output is the signer address as a word.
func ecrecoverRounds(payload []byte) ([]Round, bool, []byte, error) {
	w, err := words(query.ECRECOVER, payload, 4)
	if err != nil {
		return nil, false, nil, err
	}
	//
	round := &EcrecoverRound{Hash: common.Hash(w[0].Bytes32()), V: w[1], R: w[2], S: w[3]}
	//
	if w[1].IsUint64() && (w[1].Uint64() == 27 || w[1].Uint64() == 28) {
		v := byte(w[1].Uint64() - 27)
		//
		if crypto.ValidateSignatureValues(v, w[2].ToBig(), w[3].ToBig(), false) {
			sig := make([]byte, 0, 65)
			sig = append(sig, payload[2*WORD_BYTES:4*WORD_BYTES]...)
			sig = append(sig, v)
			//
			if pub, err := crypto.SigToPub(round.Hash[:], sig); err == nil {
				round.Signer = crypto.PubkeyToAddress(*pub)
				round.Success = true
			}
		}
	}
	//
	if !round.Success {
		return []Round{round}, false, nil, nil
	}
	//
	return []Round{round}, true, common.LeftPadBytes(round.Signer[:], WORD_BYTES), nil
}

// Payload is hash|r|s|x|y.  The output is a word holding one on success.
func p256Rounds(payload []byte) ([]Round, bool, []byte, error) {
	w, err := words(query.SECP256R1_VERIFY, payload, 5)
	if err != nil {
		return nil, false, nil, err
	}
	//
	var (
		round = &P256Round{Hash: common.Hash(w[0].Bytes32()), R: w[1], S: w[2], X: w[3], Y: w[4]}
		curve = elliptic.P256()
		x, y  = w[3].ToBig(), w[4].ToBig()
		r, s  = w[1].ToBig(), w[2].ToBig()
		n     = curve.Params().N
	)
	//
	if r.Sign() > 0 && s.Sign() > 0 && r.Cmp(n) < 0 && s.Cmp(n) < 0 && curve.IsOnCurve(x, y) {
		key := ecdsa.PublicKey{Curve: curve, X: x, Y: y}
		round.Valid = ecdsa.Verify(&key, round.Hash[:], r, s)
	}
	//
	if !round.Valid {
		return []Round{round}, false, nil, nil
	}
	//
	return []Round{round}, true, common.LeftPadBytes([]byte{1}, WORD_BYTES), nil
}
