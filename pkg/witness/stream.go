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
	"github.com/consensys/go-witness/pkg/query"
	"github.com/consensys/go-witness/pkg/queue"
	"github.com/consensys/go-witness/pkg/sorter"
	"github.com/consensys/go-witness/pkg/util/fault"
	"github.com/consensys/go-witness/pkg/util/field"
)

// SortedStream bundles the outcome of sorting one queue with the queues
// committing to its source, sorted and deduplicated forms.
type SortedStream[Q query.Encodable] struct {
	Source       *queue.Simulator[Q]
	Result       *sorter.Result[Q]
	Sorted       *queue.Simulator[Q]
	Deduplicated *queue.Simulator[Q]
}

// newSortedStream sorts a source queue, then cross-checks the result and
// checks the sorted queue is a permutation of the source using a grand
// product.  The challenge for the latter is derived from both queue
// commitments.
func newSortedStream[Q query.Encodable](absorber queue.Absorber, source []Q,
	sort func([]Q) (*sorter.Result[Q], error), verify func([]Q, *sorter.Result[Q]) error) (*SortedStream[Q], error) {
	//
	result, err := sort(source)
	if err != nil {
		return nil, err
	} else if err = verify(source, result); err != nil {
		return nil, err
	}
	//
	stream := &SortedStream[Q]{
		Source:       queue.NewSimulatorFrom(absorber, source),
		Result:       result,
		Sorted:       queue.NewSimulatorFrom(absorber, result.Sorted),
		Deduplicated: queue.NewSimulatorFrom(absorber, result.Deduplicated),
	}
	//
	gamma := field.DeriveChallenge(stream.Source.Final().Encode(), stream.Sorted.Final().Encode())
	//
	if !field.ArePermutationOf(result.Sorted, source, gamma) {
		return nil, fault.Consistency(fault.NO_INDEX, "", "grand product differs between source and sorted queues")
	}
	//
	return stream, nil
}

// recompute re-derives every queue state of this stream.
func (p *SortedStream[Q]) recompute() error {
	for _, q := range []*queue.Simulator[Q]{p.Source, p.Sorted, p.Deduplicated} {
		if err := q.Recompute(); err != nil {
			return err
		}
	}
	//
	return nil
}
