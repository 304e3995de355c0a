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
	"bytes"
	"slices"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Encodable captures anything with a canonical byte encoding.
type Encodable interface {
	Encode() []byte
}

// ArePermutationOf checks whether or not a given destination sequence is a
// permutation of a given source sequence, by comparing their grand products
// under a given challenge.  That is, ∏(γ - h(dst_i)) = ∏(γ - h(src_i)) where h
// hashes the canonical encoding of each item into the field.  The check is
// sound with overwhelming probability provided γ was chosen after both
// sequences were fixed (e.g. derived from the final states of their queues).
func ArePermutationOf[T Encodable](dst []T, src []T, gamma fr.Element) bool {
	if len(dst) != len(src) {
		return false
	}
	//
	lhs := GrandProduct(Fingerprints(dst), gamma)
	rhs := GrandProduct(Fingerprints(src), gamma)
	//
	return lhs.Equal(&rhs)
}

// AreSortedPermutationOf checks whether a given destination sequence is a
// permutation of a given source sequence deterministically.  This operates by
// cloning the encodings of both, sorting them and checking they are the same.
// It is slower than the grand product, but is not probabilistic.
func AreSortedPermutationOf[T Encodable](dst []T, src []T) bool {
	if len(dst) != len(src) {
		return false
	}
	//
	lhs := sortedEncodings(dst)
	rhs := sortedEncodings(src)
	//
	for i := range lhs {
		if !bytes.Equal(lhs[i], rhs[i]) {
			return false
		}
	}
	//
	return true
}

// GrandProduct computes ∏(γ - f_i) for a given set of fingerprints f_i.
func GrandProduct(fingerprints []fr.Element, gamma fr.Element) fr.Element {
	var (
		acc  fr.Element
		term fr.Element
	)
	//
	acc.SetOne()
	//
	for i := range fingerprints {
		term.Sub(&gamma, &fingerprints[i])
		acc.Mul(&acc, &term)
	}
	//
	return acc
}

// Fingerprints hashes the encoding of each item into the field.
func Fingerprints[T Encodable](items []T) []fr.Element {
	fingerprints := make([]fr.Element, len(items))
	//
	for i, item := range items {
		fingerprints[i] = HashToElement(item.Encode())
	}
	//
	return fingerprints
}

func sortedEncodings[T Encodable](items []T) [][]byte {
	encodings := make([][]byte, len(items))
	//
	for i, item := range items {
		encodings[i] = item.Encode()
	}
	//
	slices.SortFunc(encodings, bytes.Compare)
	//
	return encodings
}
