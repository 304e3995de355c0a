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
	"sort"

	"github.com/consensys/go-witness/pkg/precompile"
	"github.com/consensys/go-witness/pkg/query"
	"github.com/consensys/go-witness/pkg/queue"
	"github.com/consensys/go-witness/pkg/sorter"
	"github.com/consensys/go-witness/pkg/util"
	"github.com/consensys/go-witness/pkg/util/fault"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Config determines how an artifact is processed.
type Config struct {
	// Policy for eliding reverted storage keys.  This must match what the
	// storage sorting circuits accept.
	Policy sorter.ElisionPolicy
	// Absorber used for every queue commitment.
	Absorber queue.Absorber
}

// DefaultConfig returns the configuration used in production.
func DefaultConfig() Config {
	return Config{sorter.ElideUnobservedReverts{}, queue.MiMC{}}
}

// Identifiers for the jobs making up the processing of an artifact.
const (
	commitJob = iota
	demuxJob
	storageJob
	transientJob
	eventsJob
	messagesJob
	decommitJob
	memoryJob
	codeJob
	recomputeJob
	// Precompile jobs follow, one per destination.
	precompileJobs
)

type job struct {
	id   uint
	deps []uint
	name string
	run  func() error
}

// Jobs implementation for util.ParBatchJob interface.
func (p *job) Jobs() []uint {
	return []uint{p.id}
}

// Dependencies implementation for util.ParBatchJob interface.
func (p *job) Dependencies() []uint {
	return p.deps
}

// Run implementation for util.ParBatchJob interface.
func (p *job) Run() error {
	stats := util.NewPerfStats()
	err := p.run()
	//
	stats.Log(p.name)
	//
	return errors.Wrapf(err, "%s", p.name)
}

// Process derives every stream needed for circuit assembly, and cross-checks
// each of them.  Independent stages are executed in parallel.  On failure, the
// artifact moves to the FAILED stage and cannot be used further.  An artifact
// can only be processed once.
func (p *FullTraceArtifact) Process(config Config) error {
	if p.stage != COLLECTING {
		return fault.Contract("cannot process %s artifact", p.stage)
	}
	//
	stats := util.NewPerfStats()
	p.config = config
	//
	if err := util.ParExec(p.jobs()); err != nil {
		p.stage = FAILED
		log.Debugf("processing failed: %s", err)
		//
		return err
	}
	//
	p.stage = PROCESSED
	stats.Log("processing")
	log.Debugf("processed %d memory, %d log and %d decommittment queries (%d precompile calls)",
		len(p.memory), len(p.logs), len(p.decommits), len(p.calls))
	//
	return nil
}

func (p *FullTraceArtifact) jobs() []*job {
	var (
		absorber = p.config.Absorber
		jobs     = []*job{
			{commitJob, nil, "queue commitment", p.commitQueues},
			{demuxJob, nil, "log demuxer", p.demux},
			{storageJob, []uint{demuxJob}, "storage sorter", func() (err error) {
				p.storage, err = newSortedStream(absorber, p.demuxed.Queries[query.ROLLUP_STORAGE],
					func(s []query.LogQuery) (*sorter.Result[query.LogQuery], error) {
						return sorter.SortStorage(s, p.config.Policy)
					}, func(s []query.LogQuery, r *sorter.Result[query.LogQuery]) error {
						return sorter.VerifyStorage(s, p.config.Policy, r)
					})
				return err
			}},
			{transientJob, []uint{demuxJob}, "transient storage sorter", func() (err error) {
				p.transient, err = newSortedStream(absorber, p.demuxed.Queries[query.TRANSIENT_STORAGE],
					func(s []query.LogQuery) (*sorter.Result[query.LogQuery], error) {
						return sorter.SortTransientStorage(s, p.config.Policy)
					}, func(s []query.LogQuery, r *sorter.Result[query.LogQuery]) error {
						return sorter.VerifyTransientStorage(s, p.config.Policy, r)
					})
				return err
			}},
			{eventsJob, []uint{demuxJob}, "events sorter", func() (err error) {
				p.events, err = newSortedStream(absorber, p.demuxed.Queries[query.EVENTS], sorter.SortLogs,
					sorter.VerifyLogs)
				return err
			}},
			{messagesJob, []uint{demuxJob}, "l1 messages sorter", func() (err error) {
				p.messages, err = newSortedStream(absorber, p.demuxed.Queries[query.L1_MESSAGES], sorter.SortLogs,
					sorter.VerifyLogs)
				return err
			}},
			{decommitJob, nil, "decommittments sorter", func() (err error) {
				p.decommitted, err = newSortedStream(absorber, p.decommits, sorter.SortDecommittments,
					sorter.VerifyDecommittments)
				return err
			}},
			{memoryJob, nil, "ram permutation", func() (err error) {
				p.ram, err = newSortedStream(absorber, p.memory, sorter.SortMemory, sorter.VerifyMemory)
				return err
			}},
			{codeJob, []uint{decommitJob}, "code decommitter", p.unpack},
		}
		all = []uint{commitJob, demuxJob, storageJob, transientJob, eventsJob, messagesJob, decommitJob, memoryJob,
			codeJob}
	)
	//
	for i, dst := range query.PRECOMPILES {
		id := uint(precompileJobs + i)
		jobs = append(jobs, &job{id, []uint{demuxJob}, dst.String() + " rounds", func() error {
			return p.expand(dst)
		}})
		all = append(all, id)
	}
	//
	return append(jobs, &job{recomputeJob, all, "queue recomputation", p.recompute})
}

func (p *FullTraceArtifact) commitQueues() error {
	absorber := p.config.Absorber
	p.memoryQueue = queue.NewSimulatorFrom(absorber, p.memory)
	p.logQueue = queue.NewSimulatorFrom(absorber, p.logs)
	p.decommitQueue = queue.NewSimulatorFrom(absorber, p.decommits)
	//
	return nil
}

func (p *FullTraceArtifact) demux() error {
	demuxed, err := sorter.Demux(p.logs)
	if err != nil {
		return err
	}
	//
	p.demuxed = demuxed
	//
	for dst := range query.NUM_DESTINATIONS {
		p.demuxQueues[dst] = queue.NewSimulatorFrom(p.config.Absorber, demuxed.Queries[dst])
	}
	// Every call must be requested
	requested := 0
	//
	for _, dst := range query.PRECOMPILES {
		requested += len(demuxed.Queries[dst])
	}
	//
	if requested != len(p.calls) {
		return p.unrequestedCall()
	}
	//
	return nil
}

// Identify a precompile call which was never requested, in a deterministic
// fashion.
func (p *FullTraceArtifact) unrequestedCall() error {
	var timestamps []uint32
	//
	for ts := range p.calls {
		timestamps = append(timestamps, ts)
	}
	//
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })
	//
	for _, ts := range timestamps {
		if !p.isRequested(ts) {
			return fault.Malformed("precompile call at %d was not requested", ts)
		}
	}
	// Must be the other way around then.
	return fault.Malformed("precompile request without call")
}

func (p *FullTraceArtifact) isRequested(timestamp uint32) bool {
	for _, dst := range query.PRECOMPILES {
		for _, q := range p.demuxed.Queries[dst] {
			if q.Timestamp == timestamp {
				return true
			}
		}
	}
	//
	return false
}

func (p *FullTraceArtifact) expand(dst query.Destination) error {
	var (
		requests  = p.demuxed.Queries[dst]
		witnesses = make([]*precompile.Witness, len(requests))
		rounds    = 0
	)
	//
	for i, request := range requests {
		call, ok := p.calls[request.Timestamp]
		if !ok {
			return fault.Malformed("precompile request at %d without call", request.Timestamp)
		}
		//
		w, err := precompile.Generate(request, call)
		if err != nil {
			return err
		}
		//
		witnesses[i] = w
		rounds += len(w.Rounds)
	}
	//
	p.precompiles[dst] = witnesses
	//
	if len(requests) > 0 {
		log.Debugf("expanded %d %s calls into %d rounds", len(requests), dst, rounds)
	}
	//
	return nil
}

// unpack expands every fresh decommittment into the rounds hashing its code.
func (p *FullTraceArtifact) unpack() error {
	var (
		fresh  = p.decommitted.Result.Deduplicated
		rounds = 0
	)
	//
	p.unpacked = make([]*precompile.CodeWitness, len(fresh))
	//
	for i, d := range fresh {
		code, ok := p.code[d.CodeHash]
		if !ok {
			return fault.Malformed("no code for %s decommitted at %d", d.CodeHash.Hex(), d.Timestamp)
		}
		//
		w, err := precompile.Decommit(d, code)
		if err != nil {
			return err
		}
		//
		p.unpacked[i] = w
		rounds += len(w.Rounds)
	}
	//
	if len(fresh) > 0 {
		log.Debugf("expanded %d code decommittments into %d rounds", len(fresh), rounds)
	}
	//
	return nil
}

func (p *FullTraceArtifact) recompute() error {
	if err := p.memoryQueue.Recompute(); err != nil {
		return errors.Wrap(err, "memory queue")
	} else if err := p.logQueue.Recompute(); err != nil {
		return errors.Wrap(err, "log queue")
	} else if err := p.decommitQueue.Recompute(); err != nil {
		return errors.Wrap(err, "decommittment queue")
	}
	//
	for dst, q := range p.demuxQueues {
		if err := q.Recompute(); err != nil {
			return errors.Wrapf(err, "%s queue", query.Destination(dst))
		}
	}
	//
	for _, s := range []*SortedStream[query.LogQuery]{p.storage, p.transient, p.events, p.messages} {
		if err := s.recompute(); err != nil {
			return err
		}
	}
	//
	if err := p.decommitted.recompute(); err != nil {
		return err
	}
	//
	return p.ram.recompute()
}
