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
package queue

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/go-witness/pkg/query"
	"github.com/consensys/go-witness/pkg/util/fault"
	"github.com/consensys/go-witness/pkg/util/field"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func Test_Simulator_01(t *testing.T) {
	sim := NewSimulator[query.MemoryQuery](MiMC{})
	//
	require.Equal(t, uint(0), sim.Len())
	require.True(t, sim.Final().IsEmpty())
	//
	s, err := sim.StateAt(0)
	require.NoError(t, err)
	require.Equal(t, sim.Final(), s)
	//
	_, err = sim.StateAt(1)
	require.True(t, fault.IsKind(err, fault.CONTRACT_VIOLATION))
}

func Test_Simulator_02(t *testing.T) {
	check_Prefixes(t, MiMC{}, memoryQueries(10))
}

func Test_Simulator_03(t *testing.T) {
	check_Prefixes(t, Blake2b{}, memoryQueries(100))
}

func Test_Simulator_04(t *testing.T) {
	// States of a prefix do not depend on anything appended afterwards.
	var (
		items = memoryQueries(20)
		lhs   = NewSimulatorFrom(MiMC{}, items[:12])
		rhs   = NewSimulatorFrom(MiMC{}, items)
	)
	//
	for i := uint(0); i <= 12; i++ {
		l, err := lhs.StateAt(i)
		require.NoError(t, err)
		r, err := rhs.StateAt(i)
		require.NoError(t, err)
		require.Equal(t, l, r)
	}
	// Different item at position 12 gives different state at 13
	other := items[12]
	other.Value.AddUint64(&other.Value, 1)
	lhs.Append(other)
	l, _ := lhs.StateAt(13)
	r, _ := rhs.StateAt(13)
	require.NotEqual(t, l.Tail, r.Tail)
}

func Test_Simulator_05(t *testing.T) {
	var (
		items = memoryQueries(10)
		sim   = NewSimulatorFrom(Blake2b{}, items)
	)
	// Consecutive splits share boundaries
	a, err := sim.Split(0, 4)
	require.NoError(t, err)
	b, err := sim.Split(4, 10)
	require.NoError(t, err)
	require.Equal(t, a.Tail, b.Head)
	require.Equal(t, sim.Final().Tail, b.Tail)
	require.Equal(t, uint32(6), b.Length)
	//
	_, err = sim.Split(5, 4)
	require.Error(t, err)
	_, err = sim.Split(4, 11)
	require.Error(t, err)
}

func Test_Simulator_06(t *testing.T) {
	sim := NewSimulatorFrom(MiMC{}, memoryQueries(5))
	require.NoError(t, sim.Recompute())
	// Corrupt a recorded tail
	sim.tails[3][0] ^= 1
	err := sim.Recompute()
	require.True(t, fault.IsKind(err, fault.CONSISTENCY_FAILURE))
	f, _ := fault.As(err)
	require.Equal(t, 2, f.Index)
}

func Test_Absorber_01(t *testing.T) {
	for _, name := range []string{"mimc", "blake2b"} {
		a, err := AbsorberByName(name)
		require.NoError(t, err)
		require.Equal(t, name, a.Name())
	}
	//
	_, err := AbsorberByName("sha1")
	require.Error(t, err)
}

func Test_Absorber_02(t *testing.T) {
	// Trailing zero bytes are not ambiguous with shorter items.
	var tail Digest
	//
	require.NotEqual(t, MiMC{}.Absorb(tail, []byte{1}), MiMC{}.Absorb(tail, []byte{1, 0}))
	require.NotEqual(t, MiMC{}.Absorb(tail, nil), MiMC{}.Absorb(tail, []byte{0}))
}

func Test_Absorber_03(t *testing.T) {
	// Absorbing an item into the empty tail hashes zero, then its limbs.
	var (
		item   = make([]byte, 40)
		tail   Digest
		zero   fr.Element
		digest = field.HashElements(append([]fr.Element{zero}, field.Limbs(item)...)...)
	)
	//
	require.Equal(t, Digest(digest.Bytes()), MiMC{}.Absorb(tail, item))
	// Absorbing is a pure function of its arguments.
	next := MiMC{}.Absorb(MiMC{}.Absorb(tail, item), item)
	require.Equal(t, next, MiMC{}.Absorb(MiMC{}.Absorb(tail, item), item))
	require.NotEqual(t, next, MiMC{}.Absorb(tail, item))
}

// ===================================================================
// Test Helpers
// ===================================================================

func check_Prefixes(t *testing.T, absorber Absorber, items []query.MemoryQuery) {
	sim := NewSimulator[query.MemoryQuery](absorber)
	//
	for i, item := range items {
		s := sim.Append(item)
		r, err := sim.StateAt(uint(i + 1))
		require.NoError(t, err)
		require.Equal(t, s, r)
		// Recompute prefix from scratch
		fresh := NewSimulatorFrom(absorber, items[:i+1])
		require.Equal(t, s, fresh.Final())
	}
	//
	require.NoError(t, sim.Recompute())
}

func memoryQueries(n int) []query.MemoryQuery {
	items := make([]query.MemoryQuery, n)
	//
	for i := range items {
		items[i] = query.MemoryQuery{
			Timestamp: uint32(i),
			Page:      uint32(i % 3),
			Index:     uint32(i % 7),
			RW:        i%2 == 0,
			Value:     *uint256.NewInt(uint64(i * i)),
		}
	}
	//
	return items
}
