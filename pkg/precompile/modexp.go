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
	"github.com/holiman/uint256"
)

// MODEXP_ROUNDS is the number of rounds for any modexp call, being one per
// exponent bit.
const MODEXP_ROUNDS = 256

// ModexpRound performs one square-and-multiply step, processing exponent bits
// from most to least significant.
type ModexpRound struct {
	Index uint
	Bit   bool
	// Accumulator after this round.
	Accumulator uint256.Int
}

// Destination implementation for Round interface.
func (r *ModexpRound) Destination() query.Destination {
	return query.MODEXP
}

func (r *ModexpRound) isRound() {}

// Payload is base|exp|mod.  The output is base^exp % mod, where a modulus of
// zero gives zero.
func modexpRounds(payload []byte) ([]Round, bool, []byte, error) {
	w, err := words(query.MODEXP, payload, 3)
	if err != nil {
		return nil, false, nil, err
	}
	//
	var (
		base, exp, mod = &w[0], &w[1], &w[2]
		rounds         = make([]Round, MODEXP_ROUNDS)
		acc            uint256.Int
	)
	// NOTE: Mod is zero when mod is zero.
	acc.Mod(uint256.NewInt(1), mod)
	//
	for i := range MODEXP_ROUNDS {
		k := MODEXP_ROUNDS - 1 - i
		bit := (exp[k/64]>>(k%64))&1 == 1
		acc.MulMod(&acc, &acc, mod)
		//
		if bit {
			acc.MulMod(&acc, base, mod)
		}
		//
		rounds[i] = &ModexpRound{uint(i), bit, acc}
	}
	//
	result := acc.Bytes32()
	//
	return rounds, true, result[:], nil
}
