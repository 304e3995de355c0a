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
	"crypto/sha256"
	"encoding/binary"

	"github.com/consensys/go-witness/pkg/query"
	"golang.org/x/crypto/sha3"
)

const (
	// KECCAK_RATE is the number of bytes absorbed per keccak round.
	KECCAK_RATE = 136
	// SHA256_BLOCK is the number of bytes absorbed per sha256 round.
	SHA256_BLOCK = 64
)

// BlockRound absorbs a single padded block into a hash function.  The last
// round of a call carries the digest.
type BlockRound struct {
	Hash   query.Destination
	Index  uint
	Block  []byte
	Digest []byte
}

// Destination implementation for Round interface.
func (r *BlockRound) Destination() query.Destination {
	return r.Hash
}

func (r *BlockRound) isRound() {}

func keccakRounds(payload []byte) ([]Round, bool, []byte, error) {
	hasher := sha3.NewLegacyKeccak256()
	hasher.Write(payload)
	digest := hasher.Sum(nil)
	// pad10*1 with the original keccak domain byte
	padded := make([]byte, (len(payload)/KECCAK_RATE+1)*KECCAK_RATE)
	copy(padded, payload)
	padded[len(payload)] ^= 0x01
	padded[len(padded)-1] ^= 0x80
	//
	return blockRounds(query.KECCAK256, padded, KECCAK_RATE, digest), true, digest, nil
}

func sha256Rounds(payload []byte) ([]Round, bool, []byte, error) {
	digest := sha256.Sum256(payload)
	//
	return blockRounds(query.SHA256, sha256Padding(payload), SHA256_BLOCK, digest[:]), true, digest[:], nil
}

// Message, then 0x80, then zeros, then the bit length.
func sha256Padding(payload []byte) []byte {
	padded := make([]byte, ((len(payload)+8)/SHA256_BLOCK+1)*SHA256_BLOCK)
	copy(padded, payload)
	padded[len(payload)] = 0x80
	binary.BigEndian.PutUint64(padded[len(padded)-8:], uint64(len(payload))*8)
	//
	return padded
}

func blockRounds(hash query.Destination, padded []byte, size int, digest []byte) []Round {
	var (
		n      = len(padded) / size
		rounds = make([]Round, n)
	)
	//
	for i := range n {
		round := &BlockRound{Hash: hash, Index: uint(i), Block: padded[i*size : (i+1)*size]}
		//
		if i == n-1 {
			round.Digest = digest
		}
		//
		rounds[i] = round
	}
	//
	return rounds
}
