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
package json

import (
	"bytes"
	"strings"
	"testing"

	"github.com/consensys/go-witness/pkg/query"
	"github.com/consensys/go-witness/pkg/util/fault"
	"github.com/consensys/go-witness/pkg/witness"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func Test_Json_01(t *testing.T) {
	var (
		value, _ = uint256.FromHex("0xffffffffffffffffffffffffffffffff00000000000000000000000000000001")
		queries  = []query.Query{
			query.MemoryQuery{Timestamp: 1, Page: 2, Index: 3, RW: true, Value: *value},
			query.LogQuery{Timestamp: 2, Address: query.ECADD_ADDRESS, Key: *value, WrittenValue: *value, RW: true},
			query.DecommittmentQuery{Timestamp: 3, CodeHash: *value, Page: 9},
			query.PrecompileCall{Timestamp: 4, Address: query.SHA256_ADDRESS, Payload: []byte{1, 2, 3}},
			query.CodeBlob{Timestamp: 3, CodeHash: *value, Words: []uint256.Int{*value, *uint256.NewInt(7)}},
		}
	)
	//
	for i, q := range queries {
		record, err := ToRecord(uint32(i), q)
		require.NoError(t, err)
		require.Equal(t, q.Kind().String(), record.Kind)
		//
		decoded, err := FromRecord(record)
		require.NoError(t, err)
		require.Equal(t, q, decoded)
	}
}

func Test_Json_02(t *testing.T) {
	// A generated trace read back gives the same queues.
	for seed := range uint64(3) {
		var (
			buffer   bytes.Buffer
			writer   = NewWriter(&buffer)
			expected = witness.NewFullTraceArtifact()
			actual   = witness.NewFullTraceArtifact()
			shape    = witness.TraceShape{Cycles: 200, Slots: 4, Contracts: 3, Seed: seed}
		)
		//
		require.NoError(t, witness.GenerateTrace(shape, writer))
		require.NoError(t, writer.Flush())
		require.NoError(t, witness.GenerateTrace(shape, expected))
		//
		n, err := ReadTrace(&buffer, actual)
		require.NoError(t, err)
		require.Equal(t, writer.Count(), n)
		//
		require.Equal(t, expected.LastCycle(), actual.LastCycle())
		require.Equal(t, expected.MemoryQueue().Final(), actual.MemoryQueue().Final())
		require.Equal(t, expected.LogQueue().Final(), actual.LogQueue().Final())
		require.Equal(t, expected.DecommittmentQueue().Final(), actual.DecommittmentQueue().Final())
		require.NoError(t, actual.Process(witness.DefaultConfig()))
	}
}

func Test_Json_03(t *testing.T) {
	check_Malformed(t, `{"cycle": 0, "kind": "memory", "query": {"timestamp": 1}`)
	check_Malformed(t, `{"cycle": 0, "kind": "register", "query": {}}`)
	check_Malformed(t, `{"cycle": 0, "kind": "memory"}`)
	check_Malformed(t, `{"cycle": 0, "kind": "log", "query": {"timestamp": "x"}}`)
	check_Malformed(t, `{"cycle": 0, "kind": "log", "query": {"address": 1}}`)
}

func Test_Json_04(t *testing.T) {
	// Tracer failures are reported against their record.
	input := strings.Join([]string{
		`{"cycle": 1, "kind": "memory", "query": {"timestamp": 5}}`,
		`{"cycle": 0, "kind": "memory", "query": {"timestamp": 6}}`,
	}, "\n")
	//
	n, err := ReadTrace(strings.NewReader(input), witness.NewFullTraceArtifact())
	require.Equal(t, uint(1), n)
	require.True(t, fault.IsKind(err, fault.CONTRACT_VIOLATION))
	require.Contains(t, err.Error(), "record 1")
}

// ============================================================================
// Test Helpers
// ============================================================================

func check_Malformed(t *testing.T, input string) {
	_, err := ReadTrace(strings.NewReader(input), witness.NewFullTraceArtifact())
	require.True(t, fault.IsKind(err, fault.MALFORMED_INPUT), "expected malformed input, got %v", err)
}
