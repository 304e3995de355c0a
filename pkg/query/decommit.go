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

// DecommittmentQuery records a request to decommit (i.e. unpack) the code with
// a given hash into a memory page.
type DecommittmentQuery struct {
	Timestamp uint32      `json:"timestamp"`
	CodeHash  uint256.Int `json:"codeHash"`
	Page      uint32      `json:"page"`
	// IsFresh marks the first request for a given hash, which is the only one
	// actually decommitted.  It is assigned during deduplication.
	IsFresh bool `json:"isFresh"`
}

// Kind implementation for Query interface.
func (q DecommittmentQuery) Kind() Kind {
	return DECOMMITTMENT
}

// Time implementation for Query interface.
func (q DecommittmentQuery) Time() uint32 {
	return q.Timestamp
}

// Encode implementation for Encodable interface.
func (q DecommittmentQuery) Encode() []byte {
	buf := make([]byte, 0, 41)
	buf = putUint32(buf, q.Timestamp)
	buf = putUint32(buf, q.Page)
	buf = putWord(buf, &q.CodeHash)
	//
	return putFlags(buf, q.IsFresh)
}

func (q DecommittmentQuery) String() string {
	return fmt.Sprintf("decommit(@%d %s -> page %d)", q.Timestamp, q.CodeHash.Hex(), q.Page)
}

func (q DecommittmentQuery) isQuery() {}
