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
	"math/rand/v2"

	"github.com/consensys/go-witness/pkg/query"
	"github.com/consensys/go-witness/pkg/util"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// TraceShape determines the kind of random trace generated.
type TraceShape struct {
	// Number of VM cycles
	Cycles uint
	// Number of distinct storage slots accessed
	Slots uint
	// Number of distinct code hashes decommitted
	Contracts uint
	// Seed for the random number generator
	Seed uint64
}

// traceGenerator produces a random (but internally consistent) trace.  Log
// queries are grouped into frames, and a frame is occasionally reverted by
// emitting rollbacks for its writes in reverse order.
type traceGenerator struct {
	shape  TraceShape
	rng    *rand.Rand
	tracer Tracer
	cycle  uint32
	// Clocks per category
	memoryClock, logClock, decommitClock uint32
	memory                               map[[2]uint32]uint256.Int
	storage                              map[uint64]uint256.Int
	transient                            map[uint64]uint256.Int
	// Code hashes whose code has been supplied
	supplied map[uint64]bool
	// Forward log queries of the current frame which can be rolled back.
	frame []query.LogQuery
}

// GenerateTrace feeds a random trace of the given shape into a tracer.
func GenerateTrace(shape TraceShape, tracer Tracer) error {
	g := &traceGenerator{
		shape:     shape,
		rng:       rand.New(rand.NewPCG(shape.Seed, shape.Seed^0x9e3779b97f4a7c15)),
		tracer:    tracer,
		memory:    make(map[[2]uint32]uint256.Int),
		storage:   make(map[uint64]uint256.Int),
		transient: make(map[uint64]uint256.Int),
		supplied:  make(map[uint64]bool),
	}
	//
	for range shape.Cycles {
		if err := g.step(); err != nil {
			return err
		}
		//
		g.cycle += 1 + uint32(g.rng.IntN(2))
	}
	//
	return nil
}

func (p *traceGenerator) step() error {
	switch n := p.rng.IntN(20); {
	case n < 6:
		return p.memoryAccess()
	case n < 11:
		return p.storageAccess(query.STORAGE_AUX_BYTE, p.storage)
	case n < 12:
		return p.storageAccess(query.TRANSIENT_STORAGE_AUX_BYTE, p.transient)
	case n < 13:
		return p.emit(query.EVENT_AUX_BYTE)
	case n < 14:
		return p.emit(query.L1_MESSAGE_AUX_BYTE)
	case n < 16:
		return p.decommit()
	case n < 18:
		return p.precompileCall()
	case n < 19:
		// commit frame
		p.frame = nil
		return nil
	default:
		return p.revert()
	}
}

func (p *traceGenerator) memoryAccess() error {
	var (
		location = [2]uint32{1 + uint32(p.rng.IntN(3)), uint32(p.rng.IntN(8))}
		value    = p.memory[location]
		rw       = p.rng.IntN(2) == 0
	)
	//
	if rw {
		value = *uint256.NewInt(p.rng.Uint64N(4))
		p.memory[location] = value
	}
	//
	p.memoryClock++
	//
	return p.tracer.OnQuery(p.cycle, query.MemoryQuery{
		Timestamp: p.memoryClock, Page: location[0], Index: location[1], RW: rw, Value: value,
	})
}

func (p *traceGenerator) storageAccess(aux uint8, state map[uint64]uint256.Int) error {
	var (
		slot    = p.rng.Uint64N(uint64(max(1, p.shape.Slots)))
		current = state[slot]
		q       = p.logQuery(aux)
	)
	//
	q.Key = *uint256.NewInt(slot)
	q.ReadValue = current
	q.WrittenValue = current
	//
	if p.rng.IntN(2) == 0 {
		q.RW = true
		q.WrittenValue = *uint256.NewInt(p.rng.Uint64N(3))
		state[slot] = q.WrittenValue
		p.frame = append(p.frame, q)
	}
	//
	return p.tracer.OnQuery(p.cycle, q)
}

func (p *traceGenerator) emit(aux uint8) error {
	q := p.logQuery(aux)
	q.RW = true
	q.Key = *uint256.NewInt(p.rng.Uint64())
	q.WrittenValue = *uint256.NewInt(p.rng.Uint64())
	p.frame = append(p.frame, q)
	//
	return p.tracer.OnQuery(p.cycle, q)
}

func (p *traceGenerator) revert() error {
	for i := len(p.frame) - 1; i >= 0; i-- {
		q := p.frame[i]
		q.Rollback = true
		//
		switch q.AuxByte {
		case query.STORAGE_AUX_BYTE:
			p.storage[q.Key.Uint64()] = q.ReadValue
		case query.TRANSIENT_STORAGE_AUX_BYTE:
			p.transient[q.Key.Uint64()] = q.ReadValue
		}
		//
		if err := p.tracer.OnQuery(p.cycle, q); err != nil {
			return err
		}
	}
	//
	p.frame = nil
	//
	return nil
}

func (p *traceGenerator) decommit() error {
	var (
		hash     = uint64(p.rng.IntN(int(max(1, p.shape.Contracts))))
		codeHash = *uint256.NewInt(0xc0de0000 + hash)
	)
	//
	p.decommitClock++
	//
	if !p.supplied[hash] {
		p.supplied[hash] = true
		//
		if err := p.tracer.OnQuery(p.cycle, GenerateCode(p.decommitClock, codeHash, 1+uint(hash%5)*7)); err != nil {
			return err
		}
	}
	//
	return p.tracer.OnQuery(p.cycle, query.DecommittmentQuery{
		Timestamp: p.decommitClock,
		CodeHash:  codeHash,
		Page:      uint32(1000 + hash),
	})
}

// GenerateCode constructs a blob of n words for a given code hash.  The words
// are derived from the hash, so the same hash always yields the same code.
func GenerateCode(timestamp uint32, hash uint256.Int, n uint) query.CodeBlob {
	words := make([]uint256.Int, n)
	//
	for i := range words {
		words[i].SetUint64(uint64(i))
		words[i].Xor(&words[i], &hash)
	}
	//
	return query.CodeBlob{Timestamp: timestamp, CodeHash: hash, Words: words}
}

func (p *traceGenerator) precompileCall() error {
	var (
		address common.Address
		payload []byte
	)
	//
	switch p.rng.IntN(4) {
	case 0:
		address, payload = query.KECCAK256_ADDRESS, util.GenerateRandomBytes(p.rng, uint(p.rng.IntN(300)))
	case 1:
		address, payload = query.SHA256_ADDRESS, util.GenerateRandomBytes(p.rng, uint(p.rng.IntN(200)))
	case 2:
		address, payload = query.MODEXP_ADDRESS, util.GenerateRandomBytes(p.rng, 3*32)
	default:
		// Adding two points at infinity
		address, payload = query.ECADD_ADDRESS, make([]byte, 4*32)
	}
	//
	q := p.logQuery(query.PRECOMPILE_AUX_BYTE)
	q.Address = address
	//
	if err := p.tracer.OnQuery(p.cycle, q); err != nil {
		return err
	}
	//
	return p.tracer.OnQuery(p.cycle, query.PrecompileCall{Timestamp: q.Timestamp, Address: address, Payload: payload})
}

func (p *traceGenerator) logQuery(aux uint8) query.LogQuery {
	p.logClock++
	//
	return query.LogQuery{
		Timestamp: p.logClock,
		AuxByte:   aux,
		Address:   common.BytesToAddress([]byte{0xca, 0xfe}),
	}
}
