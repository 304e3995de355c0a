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

	"github.com/consensys/go-witness/pkg/query"
	"github.com/consensys/go-witness/pkg/util/fault"
)

// CodeWitness captures everything needed to decommit a single code hash: the
// fresh decommittment itself, the code being unpacked, and the sha256 rounds
// over that code.
type CodeWitness struct {
	Decommittment query.DecommittmentQuery
	Code          query.CodeBlob
	Rounds        []Round
	// Digest is the sha256 of the code.
	Digest []byte
}

// Decommit expands a fresh decommittment into the rounds needed to hash its
// code.  The blob must be for the hash being decommitted, and must contain at
// least one word.
func Decommit(decommit query.DecommittmentQuery, code query.CodeBlob) (*CodeWitness, error) {
	if !decommit.IsFresh {
		return nil, fault.Contract("decommittment at %d is not fresh", decommit.Timestamp)
	} else if !decommit.CodeHash.Eq(&code.CodeHash) {
		return nil, fault.Contract("decommittment of %s paired with code for %s", decommit.CodeHash.Hex(),
			code.CodeHash.Hex())
	} else if len(code.Words) == 0 {
		return nil, fault.Malformed("empty code for %s", code.CodeHash.Hex())
	}
	//
	var (
		bytes  = code.Bytes()
		digest = sha256.Sum256(bytes)
		rounds = blockRounds(query.SHA256, sha256Padding(bytes), SHA256_BLOCK, digest[:])
	)
	//
	return &CodeWitness{decommit, code, rounds, digest[:]}, nil
}
