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
	"encoding/binary"

	"github.com/holiman/uint256"
)

// Kind identifies which variant of query a given record is.  The set of
// kinds is closed and every consumer matches them exhaustively.
type Kind uint8

const (
	// MEMORY identifies a MemoryQuery.
	MEMORY Kind = iota
	// LOG identifies a LogQuery (storage, events, messages, precompile
	// requests).
	LOG
	// DECOMMITTMENT identifies a DecommittmentQuery.
	DECOMMITTMENT
	// PRECOMPILE identifies a PrecompileCall.
	PRECOMPILE
	// CODE identifies a CodeBlob.
	CODE
)

func (k Kind) String() string {
	switch k {
	case MEMORY:
		return "memory"
	case LOG:
		return "log"
	case DECOMMITTMENT:
		return "decommittment"
	case PRECOMPILE:
		return "precompile"
	case CODE:
		return "code"
	}
	//
	panic("unreachable")
}

// Encodable captures anything which has a deterministic byte encoding, and can
// therefore be absorbed into a queue.
type Encodable interface {
	// Encode this record into its canonical byte representation.
	Encode() []byte
}

// Query is one event observed by the VM, in trace order.  Queries are
// immutable records.  This interface is sealed: the only implementations are
// MemoryQuery, LogQuery, DecommittmentQuery, PrecompileCall and CodeBlob.
type Query interface {
	Encodable
	// Kind of this query.
	Kind() Kind
	// Time returns the VM timestamp at which this query was issued.
	Time() uint32
	// seals the interface
	isQuery()
}

// Encoding helpers shared by all variants.

func putUint32(buf []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(buf, v)
}

func putUint16(buf []byte, v uint16) []byte {
	return binary.BigEndian.AppendUint16(buf, v)
}

func putWord(buf []byte, w *uint256.Int) []byte {
	var bytes = w.Bytes32()
	//
	return append(buf, bytes[:]...)
}

func putFlags(buf []byte, flags ...bool) []byte {
	var b byte
	//
	for i, f := range flags {
		if f {
			b |= 1 << i
		}
	}
	//
	return append(buf, b)
}
