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
package util

import "math/rand/v2"

// GenerateRandomInputs generates n random inputs in the range 0..m, using a
// given source of randomness.
func GenerateRandomInputs(rng *rand.Rand, n, m uint) []uint {
	items := make([]uint, n)

	for i := uint(0); i < n; i++ {
		items[i] = rng.UintN(m)
	}

	return items
}

// GenerateRandomBytes generates n random bytes, using a given source of
// randomness.
func GenerateRandomBytes(rng *rand.Rand, n uint) []byte {
	bytes := make([]byte, n)
	//
	for i, b := range GenerateRandomInputs(rng, n, 256) {
		bytes[i] = byte(b)
	}
	//
	return bytes
}
