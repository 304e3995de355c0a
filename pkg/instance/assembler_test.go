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
package instance

import (
	"math"
	"testing"

	"github.com/consensys/go-witness/pkg/circuit"
	"github.com/consensys/go-witness/pkg/query"
	"github.com/consensys/go-witness/pkg/queue"
	"github.com/consensys/go-witness/pkg/util/fault"
	"github.com/consensys/go-witness/pkg/witness"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func Test_Assembler_01(t *testing.T) {
	_, err := NewAssembler(witness.NewFullTraceArtifact(), circuit.DefaultGeometry())
	require.True(t, fault.IsKind(err, fault.CONTRACT_VIOLATION))
	//
	artifact := processed(t, 0)
	_, err = NewAssembler(artifact, circuit.DefaultGeometry().With(circuit.ECADD, 0))
	require.True(t, fault.IsKind(err, fault.CAPACITY_EXHAUSTED))
}

func Test_Assembler_02(t *testing.T) {
	// Every type of an empty job has exactly one empty instance.
	set := check_Assemble(t, processed(t, 0), circuit.DefaultGeometry())
	require.Equal(t, uint(circuit.NUM_TYPES), set.Len())
	//
	for _, ty := range circuit.TYPES {
		instances := set.Of(ty)
		require.Len(t, instances, 1)
		require.Equal(t, uint(0), instances[0].Size())
		require.True(t, instances[0].ClosedForm().StartFlag)
		require.True(t, instances[0].ClosedForm().CompletionFlag)
	}
}

func Test_Assembler_03(t *testing.T) {
	for seed := range uint64(5) {
		artifact := processed(t, 300, seed)
		set := check_Assemble(t, artifact, smallGeometry())
		check_RoundTrip(t, artifact, set)
	}
}

func Test_Assembler_04(t *testing.T) {
	for seed := range uint64(5) {
		artifact := processed(t, 300, seed)
		set := check_Assemble(t, artifact, circuit.DefaultGeometry())
		// Everything (except precompiles) fits into a single instance
		for _, ty := range circuit.TYPES {
			if !ty.IsPrecompile() {
				require.Len(t, set.Of(ty), 1)
			}
		}
		//
		check_RoundTrip(t, artifact, set)
	}
}

func Test_Assembler_05(t *testing.T) {
	// Reprocessing gives bit-identical instances.
	lhs := check_Assemble(t, processed(t, 200, 3), smallGeometry())
	rhs := check_Assemble(t, processed(t, 200, 3), smallGeometry())
	//
	for _, ty := range circuit.TYPES {
		require.Equal(t, lhs.ClosedForms(ty), rhs.ClosedForms(ty))
		//
		for i, c := range lhs.ClosedForms(ty) {
			require.Equal(t, c.Commitment(), rhs.ClosedForms(ty)[i].Commitment())
		}
	}
}

func Test_Assembler_06(t *testing.T) {
	// Calls of 1, 2 and 1 rounds packed into instances of 3 rounds.
	artifact := keccakArtifact(t, 0, KECCAK_BLOCK, 0)
	set := check_Assemble(t, artifact, circuit.DefaultGeometry().With(circuit.KECCAK256, 3))
	instances := set.Of(circuit.KECCAK256)
	//
	require.Len(t, instances, 2)
	require.Len(t, instances[0].(*PrecompileInstance).Witnesses, 2)
	require.Equal(t, uint(3), instances[0].Size())
	require.Len(t, instances[1].(*PrecompileInstance).Witnesses, 1)
	require.Equal(t, uint(1), instances[1].Size())
}

func Test_Assembler_07(t *testing.T) {
	// A call which cannot fit into any instance.
	artifact := keccakArtifact(t, 2*KECCAK_BLOCK)
	assembler, err := NewAssembler(artifact, circuit.DefaultGeometry().With(circuit.KECCAK256, 2))
	require.NoError(t, err)
	//
	_, err = assembler.Assemble()
	require.True(t, fault.IsKind(err, fault.CAPACITY_EXHAUSTED))
}

func Test_Assembler_08(t *testing.T) {
	artifact := processed(t, 300, 1)
	geometry := smallGeometry().WithMaxInstances(circuit.RAM_PERMUTATION, 1)
	assembler, err := NewAssembler(artifact, geometry)
	require.NoError(t, err)
	//
	_, err = assembler.Assemble()
	require.True(t, fault.IsKind(err, fault.CAPACITY_EXHAUSTED))
}

func Test_Assembler_09(t *testing.T) {
	// Code of 1, 2 and 1 rounds packed into instances of 3 rounds.
	artifact := codeArtifact(t, 1, 2, 1)
	set := check_Assemble(t, artifact, circuit.DefaultGeometry().With(circuit.CODE_DECOMMITTER, 3))
	instances := set.Of(circuit.CODE_DECOMMITTER)
	fresh := artifact.Decommittments().Deduplicated
	//
	require.Len(t, instances, 2)
	require.Len(t, instances[0].(*CodeDecommitterInstance).Witnesses, 2)
	require.Equal(t, uint(3), instances[0].Size())
	require.Len(t, instances[1].(*CodeDecommitterInstance).Witnesses, 1)
	require.Equal(t, uint(1), instances[1].Size())
	// Instances consume the deduplicated queue
	b, ok := instances[1].ClosedForm().Boundary("decommittments")
	require.True(t, ok)
	require.Equal(t, fresh.Final(), b.After)
	require.Equal(t, uint32(2), b.Before.Length)
	// The repeated request is not decommitted again.
	require.Equal(t, uint(4), artifact.DecommittmentQueue().Len())
	require.Equal(t, uint(3), fresh.Len())
}

func Test_Assembler_10(t *testing.T) {
	// Code which cannot fit into any instance.
	artifact := codeArtifact(t, 3)
	assembler, err := NewAssembler(artifact, circuit.DefaultGeometry().With(circuit.CODE_DECOMMITTER, 2))
	require.NoError(t, err)
	//
	_, err = assembler.Assemble()
	require.True(t, fault.IsKind(err, fault.CAPACITY_EXHAUSTED))
}

func Test_Assembler_11(t *testing.T) {
	// A query on the largest cycle number lands in the last window.
	var (
		artifact = witness.NewFullTraceArtifact()
		write    = query.MemoryQuery{Timestamp: 1, Page: 1, RW: true, Value: *uint256.NewInt(5)}
		read     = query.MemoryQuery{Timestamp: 2, Page: 1, Value: *uint256.NewInt(5)}
	)
	//
	require.NoError(t, artifact.OnQuery(0, write))
	require.NoError(t, artifact.OnQuery(math.MaxUint32, read))
	require.NoError(t, artifact.Process(witness.DefaultConfig()))
	//
	set := check_Assemble(t, artifact, circuit.DefaultGeometry().With(circuit.MAIN_VM, 1<<31))
	windows := set.Of(circuit.MAIN_VM)
	//
	require.Len(t, windows, 2)
	require.Equal(t, []query.MemoryQuery{write}, windows[0].(*VMInstance).Memory)
	require.Equal(t, []query.MemoryQuery{read}, windows[1].(*VMInstance).Memory)
	require.Equal(t, uint64(1)<<32, uint64(windows[1].(*VMInstance).Cycles.End))
	check_RoundTrip(t, artifact, set)
}

func Test_ClosedForm_01(t *testing.T) {
	var (
		state = queue.State{Head: queue.Digest{1}, Tail: queue.Digest{2}, Length: 3}
		lhs   = ClosedForm{Type: circuit.ECADD, Queues: []Boundary{{"q", queue.State{}, state}}}
		rhs   = lhs
	)
	// two flags, type, index, then two states (5 elements each)
	require.Len(t, lhs.Preimage(), 14)
	require.Equal(t, lhs.Commitment(), rhs.Commitment())
	//
	rhs.CompletionFlag = true
	require.NotEqual(t, lhs.Commitment(), rhs.Commitment())
	//
	b, ok := lhs.Boundary("q")
	require.True(t, ok)
	require.Equal(t, state, b.After)
	//
	_, ok = lhs.Boundary("r")
	require.False(t, ok)
}

// ============================================================================
// Test Helpers
// ============================================================================

const KECCAK_BLOCK = 136

func processed(t *testing.T, cycles uint, seed ...uint64) *witness.FullTraceArtifact {
	artifact := witness.NewFullTraceArtifact()
	shape := witness.TraceShape{Cycles: cycles, Slots: 5, Contracts: 3}
	//
	if len(seed) > 0 {
		shape.Seed = seed[0]
	}
	//
	require.NoError(t, witness.GenerateTrace(shape, artifact))
	require.NoError(t, artifact.Process(witness.DefaultConfig()))
	//
	return artifact
}

// Construct an artifact with one keccak call per given payload size.
func keccakArtifact(t *testing.T, sizes ...int) *witness.FullTraceArtifact {
	artifact := witness.NewFullTraceArtifact()
	//
	for i, n := range sizes {
		ts := uint32(i + 1)
		req := query.LogQuery{Timestamp: ts, AuxByte: query.PRECOMPILE_AUX_BYTE, Address: query.KECCAK256_ADDRESS}
		call := query.PrecompileCall{Timestamp: ts, Address: query.KECCAK256_ADDRESS, Payload: make([]byte, n)}
		//
		require.NoError(t, artifact.OnQuery(ts, req))
		require.NoError(t, artifact.OnQuery(ts, call))
	}
	//
	require.NoError(t, artifact.Process(witness.DefaultConfig()))
	//
	return artifact
}

// Construct an artifact decommitting one piece of code per given number of
// sha256 rounds, where the first is requested twice.
func codeArtifact(t *testing.T, rounds ...uint) *witness.FullTraceArtifact {
	artifact := witness.NewFullTraceArtifact()
	//
	for i, n := range rounds {
		var (
			ts   = uint32(i + 1)
			hash = *uint256.NewInt(0xa0 + uint64(i))
			// An odd number of words leaves room for padding in the last block.
			code = witness.GenerateCode(ts, hash, 2*n-1)
		)
		//
		require.NoError(t, artifact.OnQuery(ts, code))
		require.NoError(t, artifact.OnQuery(ts, query.DecommittmentQuery{Timestamp: ts, CodeHash: hash, Page: ts}))
	}
	//
	repeat := query.DecommittmentQuery{Timestamp: uint32(len(rounds) + 1), CodeHash: *uint256.NewInt(0xa0), Page: 9}
	require.NoError(t, artifact.OnQuery(repeat.Timestamp, repeat))
	require.NoError(t, artifact.Process(witness.DefaultConfig()))
	//
	return artifact
}

func smallGeometry() circuit.Geometry {
	g := circuit.DefaultGeometry()
	//
	for _, ty := range circuit.TYPES {
		if !ty.IsPrecompile() {
			g = g.With(ty, 7)
		}
	}
	// Enough for a single call (or piece of code) of each kind generated
	return g.With(circuit.KECCAK256, 4).With(circuit.SHA256, 5).With(circuit.CODE_DECOMMITTER, 8)
}

// Assemble and check the closed forms are chained correctly.
func check_Assemble(t *testing.T, artifact *witness.FullTraceArtifact, geometry circuit.Geometry) *Set {
	assembler, err := NewAssembler(artifact, geometry)
	require.NoError(t, err)
	//
	set, err := assembler.Assemble()
	require.NoError(t, err)
	//
	for _, ty := range circuit.TYPES {
		forms := set.ClosedForms(ty)
		require.NotEmpty(t, forms)
		//
		for i, c := range forms {
			require.Equal(t, ty, c.Type)
			require.Equal(t, uint(i), c.Index)
			require.Equal(t, i == 0, c.StartFlag)
			require.Equal(t, i == len(forms)-1, c.CompletionFlag)
			require.LessOrEqual(t, set.Of(ty)[i].Size(), geometry.Capacity(ty))
			//
			for j, b := range c.Queues {
				if i == 0 {
					require.Equal(t, uint32(0), b.Before.Length)
				} else {
					// End of one instance is the start of the next.
					require.Equal(t, forms[i-1].Queues[j].After, b.Before)
				}
			}
		}
	}
	//
	return set
}

// Concatenating the chunks of every instance reproduces every stream.
func check_RoundTrip(t *testing.T, artifact *witness.FullTraceArtifact, set *Set) {
	var (
		memory    []query.MemoryQuery
		logs      []query.LogQuery
		decommits []query.DecommittmentQuery
		demuxed   []query.LogQuery
	)
	//
	for _, inst := range set.Of(circuit.MAIN_VM) {
		vm := inst.(*VMInstance)
		memory = append(memory, vm.Memory...)
		logs = append(logs, vm.Logs...)
		decommits = append(decommits, vm.Decommittments...)
	}
	//
	check_Equal(t, artifact.MemoryQueue().Items(), memory)
	check_Equal(t, artifact.LogQueue().Items(), logs)
	check_Equal(t, artifact.DecommittmentQueue().Items(), decommits)
	//
	for _, inst := range set.Of(circuit.LOG_DEMUXER) {
		demuxed = append(demuxed, inst.(*DemuxInstance).Logs...)
	}
	//
	check_Equal(t, artifact.LogQueue().Items(), demuxed)
	//
	check_SorterRoundTrip(t, artifact.Storage(), set.Of(circuit.STORAGE_SORTER))
	check_SorterRoundTrip(t, artifact.TransientStorage(), set.Of(circuit.TRANSIENT_STORAGE_SORTER))
	check_SorterRoundTrip(t, artifact.Events(), set.Of(circuit.EVENTS_SORTER))
	check_SorterRoundTrip(t, artifact.L1Messages(), set.Of(circuit.L1_MESSAGES_SORTER))
	check_SorterRoundTrip(t, artifact.Decommittments(), set.Of(circuit.CODE_DECOMMITTMENTS_SORTER))
	check_SorterRoundTrip(t, artifact.Memory(), set.Of(circuit.RAM_PERMUTATION))
	// Precompile calls appear exactly once, in order.
	for _, dst := range query.PRECOMPILES {
		var calls []uint32
		//
		for _, inst := range set.Of(circuit.ForDestination(dst)) {
			for _, w := range inst.(*PrecompileInstance).Witnesses {
				calls = append(calls, w.Call.Timestamp)
			}
		}
		//
		require.Len(t, calls, len(artifact.Precompiles(dst)))
		//
		for i, w := range artifact.Precompiles(dst) {
			require.Equal(t, w.Call.Timestamp, calls[i])
		}
	}
	// Fresh decommittments are hashed exactly once, in order.
	var unpacked []query.DecommittmentQuery
	//
	for _, inst := range set.Of(circuit.CODE_DECOMMITTER) {
		for _, w := range inst.(*CodeDecommitterInstance).Witnesses {
			unpacked = append(unpacked, w.Decommittment)
		}
	}
	//
	check_Equal(t, artifact.Decommittments().Deduplicated.Items(), unpacked)
	// Rolling hash over all messages
	var (
		rolling queue.Digest
		hashers = set.Of(circuit.L1_MESSAGES_HASHER)
	)
	//
	for _, m := range artifact.L1Messages().Deduplicated.Items() {
		rolling = RollHash(rolling, m)
	}
	//
	require.Equal(t, rolling, hashers[len(hashers)-1].(*HasherInstance).After)
}

func check_SorterRoundTrip[Q query.Encodable](t *testing.T, stream *witness.SortedStream[Q], instances []Instance) {
	var unsorted, sorted, dedup []Q
	//
	for i, inst := range instances {
		s := inst.(*SorterInstance[Q])
		unsorted = append(unsorted, s.Unsorted...)
		sorted = append(sorted, s.Sorted...)
		dedup = append(dedup, s.Deduplicated...)
		// Carry is the last sorted item of the previous chunk.
		require.Equal(t, i > 0, s.Carry.HasValue())
		//
		if i > 0 {
			prev := instances[i-1].(*SorterInstance[Q])
			require.Equal(t, prev.Sorted[len(prev.Sorted)-1], s.Carry.Unwrap())
		}
	}
	//
	check_Equal(t, stream.Source.Items(), unsorted)
	check_Equal(t, stream.Result.Sorted, sorted)
	check_Equal(t, stream.Deduplicated.Items(), dedup)
	// Final boundary matches the final queue states
	last := instances[len(instances)-1].ClosedForm()
	unsortedEnd, _ := last.Boundary("unsorted")
	sortedEnd, _ := last.Boundary("sorted")
	dedupEnd, _ := last.Boundary("deduplicated")
	require.Equal(t, stream.Source.Final(), unsortedEnd.After)
	require.Equal(t, stream.Sorted.Final(), sortedEnd.After)
	require.Equal(t, stream.Deduplicated.Final(), dedupEnd.After)
}

// Compare two slices, treating nil and empty as the same.
func check_Equal[T any](t *testing.T, expected []T, actual []T) {
	require.Equal(t, len(expected), len(actual))
	//
	if len(expected) > 0 {
		require.Equal(t, expected, actual)
	}
}
