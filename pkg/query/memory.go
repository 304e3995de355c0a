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

// MemoryQuery records a single access to VM memory.  A location is identified
// by its page and the word index within that page.
type MemoryQuery struct {
	Timestamp uint32 `json:"timestamp"`
	Page      uint32 `json:"page"`
	Index     uint32 `json:"index"`
	// RW is true for writes, false for reads.
	RW bool `json:"rw"`
	// IsPointer marks values which hold a fat pointer rather than raw data.
	IsPointer bool        `json:"isPointer"`
	Value     uint256.Int `json:"value"`
}

// Kind implementation for Query interface.
func (q MemoryQuery) Kind() Kind {
	return MEMORY
}

// Time implementation for Query interface.
func (q MemoryQuery) Time() uint32 {
	return q.Timestamp
}

// Encode implementation for Encodable interface.
func (q MemoryQuery) Encode() []byte {
	buf := make([]byte, 0, 45)
	buf = putUint32(buf, q.Timestamp)
	buf = putUint32(buf, q.Page)
	buf = putUint32(buf, q.Index)
	buf = putFlags(buf, q.RW, q.IsPointer)
	//
	return putWord(buf, &q.Value)
}

// CompareLocation orders two memory queries by (page, index).
func CompareLocation(lhs, rhs *MemoryQuery) int {
	if c := cmpUint32(lhs.Page, rhs.Page); c != 0 {
		return c
	}
	//
	return cmpUint32(lhs.Index, rhs.Index)
}

// LocationKey returns a printable identifier for the location accessed.
func (q MemoryQuery) LocationKey() string {
	return fmt.Sprintf("%d:%d", q.Page, q.Index)
}

func (q MemoryQuery) String() string {
	var op = "read"
	//
	if q.RW {
		op = "write"
	}
	//
	return fmt.Sprintf("mem(%s @%d [%s] %s)", op, q.Timestamp, q.LocationKey(), q.Value.Hex())
}

func (q MemoryQuery) isQuery() {}

func cmpUint32(lhs, rhs uint32) int {
	switch {
	case lhs < rhs:
		return -1
	case lhs > rhs:
		return 1
	}
	//
	return 0
}
