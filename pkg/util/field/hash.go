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
package field

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
)

// LIMB_BYTES determines how many bytes are packed into each element hashed.
const LIMB_BYTES = 31

// HashToElement hashes an arbitrary sequence of bytes into the bn254 scalar
// field using MiMC, by hashing its limbs.
func HashToElement(data []byte) fr.Element {
	return HashElements(Limbs(data)...)
}

// Limbs packs an arbitrary sequence of bytes into 31-byte limbs (the last of
// which is zero-padded on the left), followed by the length.  Hence, distinct
// inputs always give distinct element sequences, and every element is
// canonical.
func Limbs(data []byte) []fr.Element {
	elements := make([]fr.Element, 0, (len(data)+LIMB_BYTES-1)/LIMB_BYTES+1)
	//
	for i := 0; i < len(data); i += LIMB_BYTES {
		var limb fr.Element
		//
		limb.SetBytes(data[i:min(i+LIMB_BYTES, len(data))])
		elements = append(elements, limb)
	}
	//
	var n fr.Element
	//
	n.SetUint64(uint64(len(data)))
	//
	return append(elements, n)
}

// HashElements hashes a sequence of field elements using MiMC.
func HashElements(elements ...fr.Element) fr.Element {
	var (
		h      = mimc.NewMiMC()
		result fr.Element
	)
	//
	for i := range elements {
		bytes := elements[i].Bytes()
		// Elements are canonical, hence this cannot fail.
		if _, err := h.Write(bytes[:]); err != nil {
			panic(err)
		}
	}
	//
	result.SetBytes(h.Sum(nil))
	//
	return result
}

// DeriveChallenge derives a verifier challenge from a set of commitments
// (e.g. queue tails), in the style of Fiat-Shamir.
func DeriveChallenge(commitments ...[]byte) fr.Element {
	elements := make([]fr.Element, len(commitments))
	//
	for i, c := range commitments {
		elements[i] = HashToElement(c)
	}
	//
	return HashElements(elements...)
}
