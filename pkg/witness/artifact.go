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
	"fmt"
	"slices"

	"github.com/consensys/go-witness/pkg/precompile"
	"github.com/consensys/go-witness/pkg/query"
	"github.com/consensys/go-witness/pkg/queue"
	"github.com/consensys/go-witness/pkg/sorter"
	"github.com/consensys/go-witness/pkg/util/fault"
	"github.com/holiman/uint256"
)

// Stage identifies how far along a trace artifact is.
type Stage uint8

const (
	// COLLECTING indicates queries are still being accepted.
	COLLECTING Stage = iota
	// PROCESSED indicates all derived streams have been computed and checked.
	PROCESSED
	// FAILED indicates processing failed, and the artifact is unusable.
	FAILED
)

func (s Stage) String() string {
	switch s {
	case COLLECTING:
		return "collecting"
	case PROCESSED:
		return "processed"
	case FAILED:
		return "failed"
	}
	//
	panic("unreachable")
}

// Tracer is implemented by anything which accepts the queries emitted by the
// VM, in execution order.  The cycle counter is non-decreasing across calls.
type Tracer interface {
	OnQuery(cycle uint32, q query.Query) error
}

// FullTraceArtifact collects every query emitted whilst executing a block,
// and subsequently derives everything needed to assemble circuit instances
// from them.  An artifact is filled by a single producer.  Once processed, it
// is immutable and can be shared freely.
type FullTraceArtifact struct {
	stage Stage
	// Most recent cycle seen
	cycle uint32
	// Raw queues, in trace order, with the cycle each query was emitted in.
	memory         []query.MemoryQuery
	memoryCycles   []uint32
	logs           []query.LogQuery
	logCycles      []uint32
	decommits      []query.DecommittmentQuery
	decommitCycles []uint32
	calls          map[uint32]query.PrecompileCall
	code           map[uint256.Int]query.CodeBlob
	// Derived (once processed)
	config        Config
	memoryQueue   *queue.Simulator[query.MemoryQuery]
	logQueue      *queue.Simulator[query.LogQuery]
	decommitQueue *queue.Simulator[query.DecommittmentQuery]
	demuxed       *sorter.Demuxed
	demuxQueues   [query.NUM_DESTINATIONS]*queue.Simulator[query.LogQuery]
	storage       *SortedStream[query.LogQuery]
	transient     *SortedStream[query.LogQuery]
	events        *SortedStream[query.LogQuery]
	messages      *SortedStream[query.LogQuery]
	decommitted   *SortedStream[query.DecommittmentQuery]
	ram           *SortedStream[query.MemoryQuery]
	precompiles   [query.NUM_DESTINATIONS][]*precompile.Witness
	unpacked      []*precompile.CodeWitness
}

// NewFullTraceArtifact constructs an empty artifact, ready to collect
// queries.
func NewFullTraceArtifact() *FullTraceArtifact {
	return &FullTraceArtifact{
		calls: make(map[uint32]query.PrecompileCall),
		code:  make(map[uint256.Int]query.CodeBlob),
	}
}

// OnQuery implementation for the Tracer interface.  This checks that cycles
// do not decrease, and that timestamps do not decrease within each category.
// Rollbacks are exempt, since they carry the timestamp of the query they
// undo.
func (p *FullTraceArtifact) OnQuery(cycle uint32, q query.Query) error {
	if p.stage != COLLECTING {
		return fault.Contract("query received by %s artifact", p.stage)
	} else if cycle < p.cycle {
		return fault.Contract("cycle %d follows cycle %d", cycle, p.cycle)
	}
	//
	p.cycle = cycle
	//
	switch q := q.(type) {
	case query.MemoryQuery:
		if n := len(p.memory); n > 0 && q.Timestamp < p.memory[n-1].Timestamp {
			return p.regression(n, q.LocationKey(), q.Timestamp, p.memory[n-1].Timestamp)
		}
		//
		p.memory = append(p.memory, q)
		p.memoryCycles = append(p.memoryCycles, cycle)
	case query.LogQuery:
		if !q.Rollback {
			if last, ok := p.lastForwardLog(); ok && q.Timestamp < last {
				return p.regression(len(p.logs), q.StorageKey(), q.Timestamp, last)
			}
		} else if q.AuxByte == query.PRECOMPILE_AUX_BYTE {
			return fault.Malformed("rollback of precompile request at %d", q.Timestamp)
		}
		//
		p.logs = append(p.logs, q)
		p.logCycles = append(p.logCycles, cycle)
	case query.DecommittmentQuery:
		if n := len(p.decommits); n > 0 && q.Timestamp < p.decommits[n-1].Timestamp {
			return p.regression(n, q.CodeHash.Hex(), q.Timestamp, p.decommits[n-1].Timestamp)
		}
		//
		p.decommits = append(p.decommits, q)
		p.decommitCycles = append(p.decommitCycles, cycle)
	case query.PrecompileCall:
		if _, ok := p.calls[q.Timestamp]; ok {
			return fault.Contract("multiple precompile calls at %d", q.Timestamp)
		}
		//
		p.calls[q.Timestamp] = q
	case query.CodeBlob:
		if prev, ok := p.code[q.CodeHash]; ok && !slices.Equal(prev.Words, q.Words) {
			return fault.Contract("conflicting code for %s", q.CodeHash.Hex())
		} else if !ok {
			p.code[q.CodeHash] = q
		}
	default:
		panic(fmt.Sprintf("unknown query %s", q.Kind()))
	}
	//
	return nil
}

func (p *FullTraceArtifact) regression(index int, key string, timestamp, last uint32) error {
	return fault.ContractAt(index, key, "timestamp %d follows timestamp %d", timestamp, last)
}

func (p *FullTraceArtifact) lastForwardLog() (uint32, bool) {
	for i := len(p.logs) - 1; i >= 0; i-- {
		if !p.logs[i].Rollback {
			return p.logs[i].Timestamp, true
		}
	}
	//
	return 0, false
}

// Stage returns the current stage of this artifact.
func (p *FullTraceArtifact) Stage() Stage {
	return p.stage
}

// Config returns the configuration this artifact was processed with.
func (p *FullTraceArtifact) Config() Config {
	return p.config
}

// LastCycle returns the last cycle on which a query was received.
func (p *FullTraceArtifact) LastCycle() uint32 {
	return p.cycle
}

// MemoryQueue returns the raw memory queue.
func (p *FullTraceArtifact) MemoryQueue() *queue.Simulator[query.MemoryQuery] {
	return p.memoryQueue
}

// MemoryCycles returns the cycle on which each memory query was emitted.
func (p *FullTraceArtifact) MemoryCycles() []uint32 {
	return p.memoryCycles
}

// LogQueue returns the raw log queue.
func (p *FullTraceArtifact) LogQueue() *queue.Simulator[query.LogQuery] {
	return p.logQueue
}

// LogCycles returns the cycle on which each log query was emitted.
func (p *FullTraceArtifact) LogCycles() []uint32 {
	return p.logCycles
}

// DecommittmentQueue returns the raw decommittment queue.
func (p *FullTraceArtifact) DecommittmentQueue() *queue.Simulator[query.DecommittmentQuery] {
	return p.decommitQueue
}

// DecommittmentCycles returns the cycle on which each decommittment was
// requested.
func (p *FullTraceArtifact) DecommittmentCycles() []uint32 {
	return p.decommitCycles
}

// DemuxedQueue returns the queue for a given destination of the log
// demuxer.
func (p *FullTraceArtifact) DemuxedQueue(dst query.Destination) *queue.Simulator[query.LogQuery] {
	return p.demuxQueues[dst]
}

// DemuxedOrigin returns, for each query routed to a given destination, its
// index within the raw log queue.
func (p *FullTraceArtifact) DemuxedOrigin(dst query.Destination) []uint32 {
	return p.demuxed.Origin[dst]
}

// Storage returns the sorted rollup storage stream.
func (p *FullTraceArtifact) Storage() *SortedStream[query.LogQuery] {
	return p.storage
}

// TransientStorage returns the sorted transient storage stream.
func (p *FullTraceArtifact) TransientStorage() *SortedStream[query.LogQuery] {
	return p.transient
}

// Events returns the sorted events stream.
func (p *FullTraceArtifact) Events() *SortedStream[query.LogQuery] {
	return p.events
}

// L1Messages returns the sorted L1 messages stream.
func (p *FullTraceArtifact) L1Messages() *SortedStream[query.LogQuery] {
	return p.messages
}

// Decommittments returns the sorted decommittments stream.
func (p *FullTraceArtifact) Decommittments() *SortedStream[query.DecommittmentQuery] {
	return p.decommitted
}

// Memory returns the sorted memory stream.
func (p *FullTraceArtifact) Memory() *SortedStream[query.MemoryQuery] {
	return p.ram
}

// DecommittedCode returns the round witness of every fresh decommittment, in
// the order of the deduplicated decommittment queue.
func (p *FullTraceArtifact) DecommittedCode() []*precompile.CodeWitness {
	return p.unpacked
}

// Precompiles returns the round witnesses of every call to a given
// precompile, in request order.
func (p *FullTraceArtifact) Precompiles(dst query.Destination) []*precompile.Witness {
	return p.precompiles[dst]
}
