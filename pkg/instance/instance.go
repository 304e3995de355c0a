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
	"github.com/consensys/go-witness/pkg/precompile"
	"github.com/consensys/go-witness/pkg/query"
	"github.com/consensys/go-witness/pkg/queue"
	"github.com/consensys/go-witness/pkg/scan"
	"github.com/consensys/go-witness/pkg/util"
)

// Instance is the witness for a single base-layer circuit instance.  It
// holds the chunk of data the instance consumes, along with its closed form.
// Instances are never mutated once assembled.
type Instance interface {
	// ClosedForm returns the public input of this instance.
	ClosedForm() *ClosedForm
	// Size returns how much of its capacity this instance uses.
	Size() uint
}

// VMInstance executes a window of cycles.  It consumes every query emitted
// within that window.
type VMInstance struct {
	closed         ClosedForm
	Cycles         scan.Range
	Memory         []query.MemoryQuery
	Logs           []query.LogQuery
	Decommittments []query.DecommittmentQuery
}

// ClosedForm implementation for Instance interface.
func (p *VMInstance) ClosedForm() *ClosedForm {
	return &p.closed
}

// Size implementation for Instance interface.
func (p *VMInstance) Size() uint {
	return p.Cycles.Len()
}

// DemuxInstance splits a chunk of the log queue into its destination queues.
type DemuxInstance struct {
	closed ClosedForm
	Logs   []query.LogQuery
	// Range of each destination queue produced by this chunk.
	Outputs [query.NUM_DESTINATIONS]scan.Range
}

// ClosedForm implementation for Instance interface.
func (p *DemuxInstance) ClosedForm() *ClosedForm {
	return &p.closed
}

// Size implementation for Instance interface.
func (p *DemuxInstance) Size() uint {
	return uint(len(p.Logs))
}

// SorterInstance sorts (and deduplicates) a chunk of a queue.  The unsorted
// and sorted chunks cover the same positions of their respective queues.
// Deduplicated items are emitted by the instance holding the last sorted
// item of their key group.  Since a key group can span chunks, the last
// sorted item of the previous chunk is carried over.
type SorterInstance[Q query.Encodable] struct {
	closed       ClosedForm
	Unsorted     []Q
	Sorted       []Q
	Deduplicated []Q
	Carry        util.Option[Q]
}

// ClosedForm implementation for Instance interface.
func (p *SorterInstance[Q]) ClosedForm() *ClosedForm {
	return &p.closed
}

// Size implementation for Instance interface.
func (p *SorterInstance[Q]) Size() uint {
	return uint(len(p.Unsorted))
}

// PrecompileInstance proves a sequence of whole precompile calls.
type PrecompileInstance struct {
	closed    ClosedForm
	Witnesses []*precompile.Witness
}

// ClosedForm implementation for Instance interface.
func (p *PrecompileInstance) ClosedForm() *ClosedForm {
	return &p.closed
}

// Size implementation for Instance interface.
func (p *PrecompileInstance) Size() uint {
	var rounds uint
	//
	for _, w := range p.Witnesses {
		rounds += uint(len(w.Rounds))
	}
	//
	return rounds
}

// CodeDecommitterInstance hashes the code of a sequence of whole fresh
// decommittments.
type CodeDecommitterInstance struct {
	closed    ClosedForm
	Witnesses []*precompile.CodeWitness
}

// ClosedForm implementation for Instance interface.
func (p *CodeDecommitterInstance) ClosedForm() *ClosedForm {
	return &p.closed
}

// Size implementation for Instance interface.
func (p *CodeDecommitterInstance) Size() uint {
	var rounds uint
	//
	for _, w := range p.Witnesses {
		rounds += uint(len(w.Rounds))
	}
	//
	return rounds
}

// HasherInstance extends the rolling keccak hash of L1 messages by a chunk of
// (deduplicated) messages.
type HasherInstance struct {
	closed   ClosedForm
	Messages []query.LogQuery
	// Rolling hash before and after this chunk.
	Before, After queue.Digest
}

// ClosedForm implementation for Instance interface.
func (p *HasherInstance) ClosedForm() *ClosedForm {
	return &p.closed
}

// Size implementation for Instance interface.
func (p *HasherInstance) Size() uint {
	return uint(len(p.Messages))
}
