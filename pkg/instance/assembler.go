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
	"github.com/consensys/go-witness/pkg/circuit"
	"github.com/consensys/go-witness/pkg/query"
	"github.com/consensys/go-witness/pkg/queue"
	"github.com/consensys/go-witness/pkg/scan"
	"github.com/consensys/go-witness/pkg/util"
	"github.com/consensys/go-witness/pkg/util/fault"
	"github.com/consensys/go-witness/pkg/witness"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/sha3"
)

// Set holds every instance assembled for a job, as one ordered list per
// circuit type.
type Set struct {
	instances [circuit.NUM_TYPES][]Instance
}

// Of returns the instances of a given circuit type, in order.
func (p *Set) Of(t circuit.Type) []Instance {
	return p.instances[t]
}

// Len returns the total number of instances across all types.
func (p *Set) Len() uint {
	var n uint
	//
	for _, instances := range p.instances {
		n += uint(len(instances))
	}
	//
	return n
}

// ClosedForms returns the closed forms of every instance of a given type.
func (p *Set) ClosedForms(t circuit.Type) []*ClosedForm {
	forms := make([]*ClosedForm, len(p.instances[t]))
	//
	for i, inst := range p.instances[t] {
		forms[i] = inst.ClosedForm()
	}
	//
	return forms
}

// Assembler cuts the streams of a processed artifact into circuit instances,
// according to a given geometry.
type Assembler struct {
	artifact *witness.FullTraceArtifact
	geometry circuit.Geometry
}

// NewAssembler constructs an assembler for a given artifact and geometry.
// The artifact must have been successfully processed.
func NewAssembler(artifact *witness.FullTraceArtifact, geometry circuit.Geometry) (*Assembler, error) {
	if artifact.Stage() != witness.PROCESSED {
		return nil, fault.Contract("cannot assemble %s artifact", artifact.Stage())
	} else if err := geometry.Validate(); err != nil {
		return nil, fault.Capacity("%s", err)
	}
	//
	return &Assembler{artifact, geometry}, nil
}

// Assemble every instance.  Every circuit type receives at least one
// instance, where a type with nothing to do receives exactly one empty
// instance flagged as both start and completion.
func (p *Assembler) Assemble() (*Set, error) {
	var (
		set   Set
		stats = util.NewPerfStats()
		a     = p.artifact
	)
	//
	for _, t := range circuit.TYPES {
		var (
			instances []Instance
			err       error
		)
		//
		switch t {
		case circuit.MAIN_VM:
			instances, err = p.assembleVM()
		case circuit.LOG_DEMUXER:
			instances, err = p.assembleDemux()
		case circuit.CODE_DECOMMITTMENTS_SORTER:
			instances, err = assembleSorter(t, p.geometry.Capacity(t), a.Decommittments())
		case circuit.CODE_DECOMMITTER:
			instances, err = p.assembleCodeDecommitter()
		case circuit.RAM_PERMUTATION:
			instances, err = assembleSorter(t, p.geometry.Capacity(t), a.Memory())
		case circuit.STORAGE_SORTER:
			instances, err = assembleSorter(t, p.geometry.Capacity(t), a.Storage())
		case circuit.EVENTS_SORTER:
			instances, err = assembleSorter(t, p.geometry.Capacity(t), a.Events())
		case circuit.L1_MESSAGES_SORTER:
			instances, err = assembleSorter(t, p.geometry.Capacity(t), a.L1Messages())
		case circuit.TRANSIENT_STORAGE_SORTER:
			instances, err = assembleSorter(t, p.geometry.Capacity(t), a.TransientStorage())
		case circuit.L1_MESSAGES_HASHER:
			instances, err = p.assembleHasher()
		default:
			instances, err = p.assemblePrecompile(t)
		}
		//
		if err != nil {
			return nil, errors.Wrapf(err, "%s", t)
		} else if limit := p.geometry.MaxInstances(t); limit != circuit.UNLIMITED && uint(len(instances)) > limit {
			return nil, fault.Capacity("%s requires %d instances (limit %d)", t, len(instances), limit)
		}
		//
		log.Debugf("assembled %d %s instance(s)", len(instances), t)
		set.instances[t] = instances
	}
	//
	stats.Log("assembly")
	//
	return &set, nil
}

// chunks splits n elements into consecutive ranges holding at most capacity
// elements each.  Zero elements gives one empty range.
func chunks(n, capacity uint) []scan.Range {
	var ranges []scan.Range
	//
	for start := uint(0); start < n; start += capacity {
		ranges = append(ranges, scan.Range{Start: start, End: min(start+capacity, n)})
	}
	//
	if len(ranges) == 0 {
		ranges = append(ranges, scan.Range{})
	}
	//
	return ranges
}

// closedForm constructs the closed form of the ith of n instances.
func closedForm(t circuit.Type, i, n int, queues ...Boundary) ClosedForm {
	return ClosedForm{Type: t, Index: uint(i), StartFlag: i == 0, CompletionFlag: i == n-1, Queues: queues}
}

// The VM is divided into fixed-size windows of cycles.  Each window consumes
// exactly the queries emitted during its cycles.
func (p *Assembler) assembleVM() ([]Instance, error) {
	var (
		a         = p.artifact
		total     uint
		instances []Instance
		memory    = scan.NewKeyRange(a.MemoryCycles())
		logs      = scan.NewKeyRange(a.LogCycles())
		decommits = scan.NewKeyRange(a.DecommittmentCycles())
	)
	//
	if a.MemoryQueue().Len()+a.LogQueue().Len()+a.DecommittmentQueue().Len() > 0 {
		total = uint(a.LastCycle()) + 1
	}
	//
	windows := chunks(total, p.geometry.Capacity(circuit.MAIN_VM))
	//
	for i, w := range windows {
		var (
			inst = &VMInstance{Cycles: w}
			last = i == len(windows)-1
			// The last window can end beyond the largest cycle number.
			within = func(s *scan.AdvancingRange[uint32]) (scan.Range, error) {
				if last {
					return s.GetTail(uint32(w.Start))
				}
				//
				return s.GetRange(uint32(w.Start), uint32(w.End))
			}
		)
		//
		mr, err1 := within(memory)
		lr, err2 := within(logs)
		dr, err3 := within(decommits)
		//
		if err := firstError(err1, err2, err3); err != nil {
			return nil, err
		}
		//
		mb, err1 := boundary("memory", a.MemoryQueue(), mr)
		lb, err2 := boundary("log", a.LogQueue(), lr)
		db, err3 := boundary("decommittments", a.DecommittmentQueue(), dr)
		//
		if err := firstError(err1, err2, err3); err != nil {
			return nil, err
		}
		//
		inst.Memory = a.MemoryQueue().Items()[mr.Start:mr.End]
		inst.Logs = a.LogQueue().Items()[lr.Start:lr.End]
		inst.Decommittments = a.DecommittmentQueue().Items()[dr.Start:dr.End]
		inst.closed = closedForm(circuit.MAIN_VM, i, len(windows), mb, lb, db)
		instances = append(instances, inst)
	}
	//
	return instances, nil
}

// The log queue is cut into chunks, where each chunk produces a (possibly
// empty) range of every destination queue.
func (p *Assembler) assembleDemux() ([]Instance, error) {
	var (
		a         = p.artifact
		scanners  [query.NUM_DESTINATIONS]*scan.AdvancingRange[uint32]
		ranges    = chunks(a.LogQueue().Len(), p.geometry.Capacity(circuit.LOG_DEMUXER))
		instances []Instance
	)
	//
	for dst := range query.NUM_DESTINATIONS {
		scanners[dst] = scan.NewKeyRange(a.DemuxedOrigin(dst))
	}
	//
	for i, r := range ranges {
		inst := &DemuxInstance{Logs: a.LogQueue().Items()[r.Start:r.End]}
		//
		input, err := boundary("log", a.LogQueue(), r)
		if err != nil {
			return nil, err
		}
		//
		queues := []Boundary{input}
		//
		for dst := range query.NUM_DESTINATIONS {
			out, err := scanners[dst].GetRange(uint32(r.Start), uint32(r.End))
			if err != nil {
				return nil, err
			}
			//
			b, err := boundary(dst.String(), a.DemuxedQueue(dst), out)
			if err != nil {
				return nil, err
			}
			//
			inst.Outputs[dst] = out
			queues = append(queues, b)
		}
		//
		inst.closed = closedForm(circuit.LOG_DEMUXER, i, len(ranges), queues...)
		instances = append(instances, inst)
	}
	//
	return instances, nil
}

// The source and sorted queues are cut at the same positions.  The items
// deduplicated within a chunk are those whose key group ends within it.
func assembleSorter[Q query.Encodable](t circuit.Type, capacity uint, s *witness.SortedStream[Q]) ([]Instance,
	error) {
	var (
		ends      = scan.NewKeyRange(s.Result.Ends)
		ranges    = chunks(s.Source.Len(), capacity)
		instances []Instance
	)
	//
	for i, r := range ranges {
		out, err := ends.GetRange(uint32(r.Start+1), uint32(r.End+1))
		if err != nil {
			return nil, err
		}
		//
		ub, err1 := boundary("unsorted", s.Source, r)
		sb, err2 := boundary("sorted", s.Sorted, r)
		db, err3 := boundary("deduplicated", s.Deduplicated, out)
		//
		if err := firstError(err1, err2, err3); err != nil {
			return nil, err
		}
		//
		inst := &SorterInstance[Q]{
			Unsorted:     s.Source.Items()[r.Start:r.End],
			Sorted:       s.Result.Sorted[r.Start:r.End],
			Deduplicated: s.Result.Deduplicated[out.Start:out.End],
			Carry:        util.None[Q](),
		}
		//
		if r.Start > 0 {
			inst.Carry = util.Some(s.Result.Sorted[r.Start-1])
		}
		//
		inst.closed = closedForm(t, i, len(ranges), ub, sb, db)
		instances = append(instances, inst)
	}
	//
	return instances, nil
}

// Calls are packed greedily, such that no call is split across instances.
func (p *Assembler) assemblePrecompile(t circuit.Type) ([]Instance, error) {
	var (
		dst       = destinationOf(t)
		witnesses = p.artifact.Precompiles(dst)
		instances []Instance
	)
	//
	ranges, err := pack(t, p.geometry.Capacity(t), len(witnesses), func(i int) (uint, uint32) {
		return uint(len(witnesses[i].Rounds)), witnesses[i].Call.Timestamp
	})
	if err != nil {
		return nil, err
	}
	//
	for i, r := range ranges {
		b, err := boundary("requests", p.artifact.DemuxedQueue(dst), r)
		if err != nil {
			return nil, err
		}
		//
		instances = append(instances, &PrecompileInstance{
			closed:    closedForm(t, i, len(ranges), b),
			Witnesses: witnesses[r.Start:r.End:r.End],
		})
	}
	//
	return instances, nil
}

// Fresh decommittments are packed greedily, such that the rounds hashing one
// piece of code are never split across instances.  Each instance consumes
// the corresponding range of the deduplicated decommittment queue.
func (p *Assembler) assembleCodeDecommitter() ([]Instance, error) {
	var (
		t         = circuit.CODE_DECOMMITTER
		witnesses = p.artifact.DecommittedCode()
		fresh     = p.artifact.Decommittments().Deduplicated
		instances []Instance
	)
	//
	ranges, err := pack(t, p.geometry.Capacity(t), len(witnesses), func(i int) (uint, uint32) {
		return uint(len(witnesses[i].Rounds)), witnesses[i].Decommittment.Timestamp
	})
	if err != nil {
		return nil, err
	}
	//
	for i, r := range ranges {
		b, err := boundary("decommittments", fresh, r)
		if err != nil {
			return nil, err
		}
		//
		instances = append(instances, &CodeDecommitterInstance{
			closed:    closedForm(t, i, len(ranges), b),
			Witnesses: witnesses[r.Start:r.End:r.End],
		})
	}
	//
	return instances, nil
}

// pack divides n items into consecutive ranges, such that the total size of
// each range fits within capacity and no item is split.  Zero items gives one
// empty range.  An item larger than capacity cannot be packed at all.
func pack(t circuit.Type, capacity uint, n int, item func(int) (uint, uint32)) ([]scan.Range, error) {
	var (
		ranges []scan.Range
		start  uint
		total  uint
	)
	//
	for i := range n {
		size, timestamp := item(i)
		//
		if size > capacity {
			return nil, fault.Capacity("%s item at %d needs %d rounds (capacity %d)", t, timestamp, size, capacity)
		} else if total+size > capacity {
			ranges = append(ranges, scan.Range{Start: start, End: uint(i)})
			start, total = uint(i), 0
		}
		//
		total += size
	}
	//
	return append(ranges, scan.Range{Start: start, End: uint(n)}), nil
}

// The rolling hash chains each (deduplicated) L1 message onto the previous
// digest, hence can be computed chunk by chunk.
func (p *Assembler) assembleHasher() ([]Instance, error) {
	var (
		messages  = p.artifact.L1Messages().Deduplicated
		ranges    = chunks(messages.Len(), p.geometry.Capacity(circuit.L1_MESSAGES_HASHER))
		rolling   queue.Digest
		instances []Instance
	)
	//
	for i, r := range ranges {
		inst := &HasherInstance{Messages: messages.Items()[r.Start:r.End], Before: rolling}
		//
		for _, m := range inst.Messages {
			rolling = RollHash(rolling, m)
		}
		//
		b, err := boundary("messages", messages, r)
		if err != nil {
			return nil, err
		}
		//
		inst.After = rolling
		inst.closed = closedForm(circuit.L1_MESSAGES_HASHER, i, len(ranges), b)
		inst.closed.Outputs = []queue.Digest{inst.Before, inst.After}
		instances = append(instances, inst)
	}
	//
	return instances, nil
}

// RollHash extends a rolling keccak hash by one L1 message.
func RollHash(digest queue.Digest, message query.LogQuery) queue.Digest {
	var (
		result queue.Digest
		hasher = sha3.NewLegacyKeccak256()
	)
	//
	hasher.Write(digest[:])
	hasher.Write(message.Encode())
	copy(result[:], hasher.Sum(nil))
	//
	return result
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	//
	return nil
}

func destinationOf(t circuit.Type) query.Destination {
	for _, dst := range query.PRECOMPILES {
		if circuit.ForDestination(dst) == t {
			return dst
		}
	}
	//
	panic("unreachable")
}

// Ensure every instance kind satisfies the interface.
var (
	_ Instance = &VMInstance{}
	_ Instance = &DemuxInstance{}
	_ Instance = &SorterInstance[query.LogQuery]{}
	_ Instance = &PrecompileInstance{}
	_ Instance = &HasherInstance{}
)
