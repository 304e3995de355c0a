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
package query

import (
	"fmt"

	"github.com/holiman/uint256"
)

// CodeBlob supplies the words of the code with a given hash, so that a fresh
// decommittment of that hash can be expanded into hashing rounds.  Like a
// PrecompileCall, a blob is a side channel: it is not part of any queue.
type CodeBlob struct {
	Timestamp uint32        `json:"timestamp"`
	CodeHash  uint256.Int   `json:"codeHash"`
	Words     []uint256.Int `json:"words"`
}

// Kind implementation for Query interface.
func (q CodeBlob) Kind() Kind {
	return CODE
}

// Time implementation for Query interface.
func (q CodeBlob) Time() uint32 {
	return q.Timestamp
}

// Encode implementation for Encodable interface.
func (q CodeBlob) Encode() []byte {
	buf := make([]byte, 0, 40+32*len(q.Words))
	buf = putUint32(buf, q.Timestamp)
	buf = putWord(buf, &q.CodeHash)
	buf = putUint32(buf, uint32(len(q.Words)))
	//
	for i := range q.Words {
		buf = putWord(buf, &q.Words[i])
	}
	//
	return buf
}

// Bytes returns the code as a contiguous sequence of big-endian words.
func (q CodeBlob) Bytes() []byte {
	buf := make([]byte, 0, 32*len(q.Words))
	//
	for i := range q.Words {
		buf = putWord(buf, &q.Words[i])
	}
	//
	return buf
}

func (q CodeBlob) String() string {
	return fmt.Sprintf("code(@%d %s, %d words)", q.Timestamp, q.CodeHash.Hex(), len(q.Words))
}

func (q CodeBlob) isQuery() {}
