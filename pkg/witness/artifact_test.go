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
package witness

import (
	"testing"

	"github.com/consensys/go-witness/pkg/query"
	"github.com/consensys/go-witness/pkg/queue"
	"github.com/consensys/go-witness/pkg/sorter"
	"github.com/consensys/go-witness/pkg/util/fault"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func Test_Artifact_01(t *testing.T) {
	artifact := NewFullTraceArtifact()
	require.Equal(t, COLLECTING, artifact.Stage())
	require.NoError(t, artifact.Process(DefaultConfig()))
	require.Equal(t, PROCESSED, artifact.Stage())
	//
	require.Equal(t, uint(0), artifact.LogQueue().Len())
	require.True(t, artifact.Storage().Deduplicated.Final().IsEmpty())
	require.Empty(t, artifact.Precompiles(query.KECCAK256))
}

func Test_Artifact_02(t *testing.T) {
	for seed := range uint64(10) {
		check_RandomTrace(t, TraceShape{Cycles: 400, Slots: 6, Contracts: 4, Seed: seed}, DefaultConfig())
	}
}

func Test_Artifact_03(t *testing.T) {
	config := Config{sorter.NeverElide{}, queue.Blake2b{}}
	//
	for seed := range uint64(5) {
		check_RandomTrace(t, TraceShape{Cycles: 300, Slots: 3, Contracts: 2, Seed: seed}, config)
	}
}

func Test_Artifact_04(t *testing.T) {
	// Cycles cannot go backwards.
	artifact := NewFullTraceArtifact()
	require.NoError(t, artifact.OnQuery(5, memoryWrite(1)))
	err := artifact.OnQuery(4, memoryWrite(2))
	require.True(t, fault.IsKind(err, fault.CONTRACT_VIOLATION))
}

func Test_Artifact_05(t *testing.T) {
	// Log timestamps cannot go backwards, except for rollbacks.
	artifact := NewFullTraceArtifact()
	require.NoError(t, artifact.OnQuery(1, storageWrite(1, 0, 5)))
	require.NoError(t, artifact.OnQuery(1, storageWrite(2, 5, 6)))
	require.NoError(t, artifact.OnQuery(2, rollback(storageWrite(2, 5, 6))))
	//
	err := artifact.OnQuery(3, storageWrite(1, 5, 7))
	require.True(t, fault.IsKind(err, fault.CONTRACT_VIOLATION))
}

func Test_Artifact_06(t *testing.T) {
	artifact := NewFullTraceArtifact()
	call := query.PrecompileCall{Timestamp: 1, Address: query.SHA256_ADDRESS}
	require.NoError(t, artifact.OnQuery(1, call))
	require.True(t, fault.IsKind(artifact.OnQuery(1, call), fault.CONTRACT_VIOLATION))
}

func Test_Artifact_07(t *testing.T) {
	// Request without a call
	artifact := NewFullTraceArtifact()
	require.NoError(t, artifact.OnQuery(1, request(1, query.SHA256_ADDRESS)))
	//
	err := artifact.Process(DefaultConfig())
	require.True(t, fault.IsKind(err, fault.MALFORMED_INPUT))
	require.Equal(t, FAILED, artifact.Stage())
	// Cannot process again
	require.True(t, fault.IsKind(artifact.Process(DefaultConfig()), fault.CONTRACT_VIOLATION))
}

func Test_Artifact_08(t *testing.T) {
	// Call without a request
	artifact := NewFullTraceArtifact()
	require.NoError(t, artifact.OnQuery(1, query.PrecompileCall{Timestamp: 1, Address: query.SHA256_ADDRESS}))
	require.True(t, fault.IsKind(artifact.Process(DefaultConfig()), fault.MALFORMED_INPUT))
}

func Test_Artifact_09(t *testing.T) {
	artifact := NewFullTraceArtifact()
	require.NoError(t, artifact.OnQuery(1, request(1, query.SHA256_ADDRESS)))
	require.NoError(t, artifact.OnQuery(1, query.PrecompileCall{Timestamp: 1, Address: query.SHA256_ADDRESS,
		Payload: []byte("abc")}))
	require.NoError(t, artifact.Process(DefaultConfig()))
	//
	witnesses := artifact.Precompiles(query.SHA256)
	require.Len(t, witnesses, 1)
	require.Len(t, witnesses[0].Rounds, 1)
	// No more queries accepted
	require.True(t, fault.IsKind(artifact.OnQuery(2, memoryWrite(1)), fault.CONTRACT_VIOLATION))
	require.True(t, fault.IsKind(artifact.Process(DefaultConfig()), fault.CONTRACT_VIOLATION))
}

func Test_Artifact_10(t *testing.T) {
	// Reverted writes are elided, unless observed.
	for _, observed := range []bool{false, true} {
		artifact := NewFullTraceArtifact()
		require.NoError(t, artifact.OnQuery(1, storageWrite(1, 0, 5)))
		//
		if observed {
			require.NoError(t, artifact.OnQuery(2, storageRead(2, 5)))
		}
		//
		require.NoError(t, artifact.OnQuery(3, storageWrite(3, 5, 0)))
		require.NoError(t, artifact.Process(DefaultConfig()))
		//
		dedup := artifact.Storage().Result.Deduplicated
		if observed {
			require.Len(t, dedup, 1)
		} else {
			require.Empty(t, dedup)
		}
	}
}

func Test_Artifact_11(t *testing.T) {
	// Inconsistent storage is caught.
	artifact := NewFullTraceArtifact()
	require.NoError(t, artifact.OnQuery(1, storageWrite(1, 0, 5)))
	require.NoError(t, artifact.OnQuery(2, storageRead(2, 4)))
	//
	err := artifact.Process(DefaultConfig())
	require.True(t, fault.IsKind(err, fault.CONSISTENCY_FAILURE))
	require.Contains(t, err.Error(), "storage sorter")
}

func Test_Artifact_12(t *testing.T) {
	// A fresh decommittment must have its code supplied.
	hash := *uint256.NewInt(0xc0de)
	artifact := NewFullTraceArtifact()
	require.NoError(t, artifact.OnQuery(1, query.DecommittmentQuery{Timestamp: 1, CodeHash: hash, Page: 3}))
	//
	err := artifact.Process(DefaultConfig())
	require.True(t, fault.IsKind(err, fault.MALFORMED_INPUT))
	require.Contains(t, err.Error(), "code decommitter")
}

func Test_Artifact_13(t *testing.T) {
	// The same hash cannot be given different code.
	hash := *uint256.NewInt(0xc0de)
	artifact := NewFullTraceArtifact()
	require.NoError(t, artifact.OnQuery(1, GenerateCode(1, hash, 2)))
	require.NoError(t, artifact.OnQuery(1, GenerateCode(2, hash, 2)))
	//
	err := artifact.OnQuery(2, GenerateCode(3, hash, 3))
	require.True(t, fault.IsKind(err, fault.CONTRACT_VIOLATION))
	// Code for a hash never decommitted is ignored.
	require.NoError(t, artifact.Process(DefaultConfig()))
	require.Empty(t, artifact.DecommittedCode())
}

// ============================================================================
// Test Helpers
// ============================================================================

func check_RandomTrace(t *testing.T, shape TraceShape, config Config) {
	artifact := NewFullTraceArtifact()
	require.NoError(t, GenerateTrace(shape, artifact))
	require.NoError(t, artifact.Process(config))
	// Every log query is demuxed exactly once
	total := uint(0)
	//
	for dst := range query.NUM_DESTINATIONS {
		total += artifact.DemuxedQueue(dst).Len()
		require.Len(t, artifact.DemuxedOrigin(dst), int(artifact.DemuxedQueue(dst).Len()))
	}
	//
	require.Equal(t, artifact.LogQueue().Len(), total)
	require.Len(t, artifact.LogCycles(), int(total))
	// Deduplicated storage keys are distinct keys of the source.
	storage := artifact.Storage()
	keys := make(map[string]bool)
	//
	for _, q := range storage.Source.Items() {
		keys[q.StorageKey()] = true
	}
	//
	for _, q := range storage.Result.Deduplicated {
		require.True(t, keys[q.StorageKey()])
	}
	//
	require.LessOrEqual(t, len(storage.Result.Deduplicated), len(keys))
	// One fresh decommittment per hash
	require.LessOrEqual(t, artifact.Decommittments().Deduplicated.Len(), uint(max(1, shape.Contracts)))
	// Each fresh decommittment has its code hashed.
	require.Len(t, artifact.DecommittedCode(), int(artifact.Decommittments().Deduplicated.Len()))
	// Sorted queues have the same length as their source.
	require.Equal(t, artifact.Memory().Source.Len(), artifact.Memory().Sorted.Len())
	require.Equal(t, artifact.MemoryQueue().Final(), artifact.Memory().Source.Final())
	// Precompile witnesses follow requests.
	for _, dst := range query.PRECOMPILES {
		require.Len(t, artifact.Precompiles(dst), int(artifact.DemuxedQueue(dst).Len()))
	}
}

func memoryWrite(ts uint32) query.MemoryQuery {
	return query.MemoryQuery{Timestamp: ts, Page: 1, RW: true, Value: *uint256.NewInt(uint64(ts))}
}

func storageWrite(ts uint32, from, to uint64) query.LogQuery {
	q := storageRead(ts, from)
	q.RW = true
	q.WrittenValue = *uint256.NewInt(to)
	//
	return q
}

func storageRead(ts uint32, value uint64) query.LogQuery {
	return query.LogQuery{
		Timestamp:    ts,
		AuxByte:      query.STORAGE_AUX_BYTE,
		Address:      common.BytesToAddress([]byte{1}),
		Key:          *uint256.NewInt(7),
		ReadValue:    *uint256.NewInt(value),
		WrittenValue: *uint256.NewInt(value),
	}
}

func rollback(q query.LogQuery) query.LogQuery {
	q.Rollback = true
	return q
}

func request(ts uint32, address common.Address) query.LogQuery {
	return query.LogQuery{Timestamp: ts, AuxByte: query.PRECOMPILE_AUX_BYTE, Address: address}
}
