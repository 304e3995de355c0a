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
package util

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ParBatchJob represents an atomic division of work which is composed of one or
// more jobs.  The idea is that all of these jobs must be computed together in
// one large batch, and cannot be further broken down.
type ParBatchJob interface {
	// Get the job identifiers for all jobs in this batch.
	Jobs() []uint
	// Get the jobs on which at least one job in this batch depends.  In
	// otherwords, all of the returned jobs must be complete before this batch
	// can run.
	Dependencies() []uint
	// Run this batch job
	Run() error
}

// ParExec executes a set of jobs in parallel using go-routines.  Execution
// proceeds in waves: every batch whose dependencies are complete runs
// concurrently with the others in its wave.  The first error encountered is
// returned, and no further waves are started.
func ParExec[J ParBatchJob](worklist []J) error {
	var ready []J
	// Initialise the done set
	todo := initToDoList(worklist)
	// Iterate until all batches complete
	for len(worklist) > 0 {
		ready, worklist = selectBatches(todo, worklist)
		//
		if len(ready) == 0 {
			return fmt.Errorf("no job is ready to run (%d remaining)", len(worklist))
		}
		// Execute next wave
		var group errgroup.Group
		//
		for _, batch := range ready {
			group.Go(batch.Run)
		}
		//
		if err := group.Wait(); err != nil {
			return err
		}
		// Mark all jobs in wave as done
		for _, batch := range ready {
			for _, j := range batch.Jobs() {
				todo[j] = false
			}
		}
	}
	// Done
	return nil
}

// Initialise the set of jobs which remain to be completed.  Jobs which are not
// present in the batch are assumed to be already completed.
func initToDoList[J ParBatchJob](batches []J) []bool {
	n := uint(0)
	// Determine largest job identifier
	for _, b := range batches {
		for _, j := range b.Jobs() {
			n = max(n, j+1)
		}
	}
	// Construct todo list
	todo := make([]bool, n)
	// Initialise jobs
	for _, b := range batches {
		for _, j := range b.Jobs() {
			todo[j] = true
		}
	}
	// Done
	return todo
}

// Split the worklist into those batches which are "ready", and those which
// are not.  A batch is ready if all of its dependencies are completed.
func selectBatches[J ParBatchJob](todo []bool, worklist []J) ([]J, []J) {
	var ready, waiting []J
	//
	for _, b := range worklist {
		if readyJob(todo, b) {
			ready = append(ready, b)
		} else {
			waiting = append(waiting, b)
		}
	}
	//
	return ready, waiting
}

// ReadyJob determines whether or not a given batch job is ready to run, or not.
// Specifically, a job is ready when all its dependencies have been completed.
func readyJob[J ParBatchJob](todo []bool, batch J) bool {
	// Check dependencies
	for _, j := range batch.Dependencies() {
		if j < uint(len(todo)) && todo[j] {
			// Dependent job remains to be done.  Therefore, this job is not
			// ready to run.
			return false
		}
	}
	// All dependencies done, so this batch is ready.
	return true
}
