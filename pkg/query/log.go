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
	"bytes"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Routing tags carried in the AuxByte of a LogQuery.  These determine which
// destination queue a log query is demultiplexed into.
const (
	STORAGE_AUX_BYTE           uint8 = 0
	EVENT_AUX_BYTE             uint8 = 1
	L1_MESSAGE_AUX_BYTE        uint8 = 2
	PRECOMPILE_AUX_BYTE        uint8 = 3
	TRANSIENT_STORAGE_AUX_BYTE uint8 = 4
)

// ROLLUP_SHARD_ID identifies the (only supported) rollup storage shard.
const ROLLUP_SHARD_ID uint8 = 0

// LogQuery records a storage access, an emitted event or L1 message, or a
// precompile request.  Rollback queries are appended when a frame reverts, and
// carry the timestamp of the forward query they undo.
type LogQuery struct {
	Timestamp    uint32         `json:"timestamp"`
	TxNumber     uint16         `json:"txNumber"`
	ShardId      uint8          `json:"shardId"`
	AuxByte      uint8          `json:"auxByte"`
	Address      common.Address `json:"address"`
	Key          uint256.Int    `json:"key"`
	ReadValue    uint256.Int    `json:"readValue"`
	WrittenValue uint256.Int    `json:"writtenValue"`
	// RW is true for writes, false for reads.
	RW        bool `json:"rw"`
	Rollback  bool `json:"rollback"`
	IsService bool `json:"isService"`
}

// Kind implementation for Query interface.
func (q LogQuery) Kind() Kind {
	return LOG
}

// Time implementation for Query interface.
func (q LogQuery) Time() uint32 {
	return q.Timestamp
}

// Encode implementation for Encodable interface.
func (q LogQuery) Encode() []byte {
	buf := make([]byte, 0, 125)
	buf = putUint32(buf, q.Timestamp)
	buf = putUint16(buf, q.TxNumber)
	buf = append(buf, q.ShardId, q.AuxByte)
	buf = append(buf, q.Address.Bytes()...)
	buf = putWord(buf, &q.Key)
	buf = putWord(buf, &q.ReadValue)
	buf = putWord(buf, &q.WrittenValue)
	//
	return putFlags(buf, q.RW, q.Rollback, q.IsService)
}

// StorageKey returns a printable identifier for the slot accessed.
func (q LogQuery) StorageKey() string {
	return fmt.Sprintf("%s/%s", q.Address.Hex(), q.Key.Hex())
}

// TransientKey returns a printable identifier for the transient slot
// accessed, which is scoped to a single transaction.
func (q LogQuery) TransientKey() string {
	return fmt.Sprintf("%s/%s#%d", q.Address.Hex(), q.Key.Hex(), q.TxNumber)
}

func (q LogQuery) String() string {
	var op = "read"
	//
	if q.RW {
		op = "write"
	}
	//
	if q.Rollback {
		op = "rollback " + op
	}
	//
	return fmt.Sprintf("log(%s @%d aux=%d %s %s->%s)", op, q.Timestamp, q.AuxByte, q.StorageKey(),
		q.ReadValue.Hex(), q.WrittenValue.Hex())
}

func (q LogQuery) isQuery() {}

// CompareStorageKey orders two log queries by (shard, address, key).
func CompareStorageKey(lhs, rhs *LogQuery) int {
	if lhs.ShardId != rhs.ShardId {
		return cmpUint32(uint32(lhs.ShardId), uint32(rhs.ShardId))
	} else if c := bytes.Compare(lhs.Address[:], rhs.Address[:]); c != 0 {
		return c
	}
	//
	return lhs.Key.Cmp(&rhs.Key)
}

// CompareTransientKey orders two log queries by (shard, address, key,
// transaction number).  Transient storage is reset between transactions, hence
// the same slot in different transactions is a different key.
func CompareTransientKey(lhs, rhs *LogQuery) int {
	if c := CompareStorageKey(lhs, rhs); c != 0 {
		return c
	}
	//
	return cmpUint32(uint32(lhs.TxNumber), uint32(rhs.TxNumber))
}

// CompareTime orders two log queries by (timestamp, rollback), such that a
// rollback immediately follows the forward query it undoes.
func CompareTime(lhs, rhs *LogQuery) int {
	if c := cmpUint32(lhs.Timestamp, rhs.Timestamp); c != 0 {
		return c
	} else if lhs.Rollback == rhs.Rollback {
		return 0
	} else if rhs.Rollback {
		return -1
	}
	//
	return 1
}
