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
package sorter

import (
	"slices"

	"github.com/consensys/go-witness/pkg/query"
)

// Result captures the outcome of sorting (and possibly deduplicating) a single
// queue.  The sorted queue is a permutation of the source queue, where Origin
// records the source index of each sorted item.  Each deduplicated item is
// paired with the exclusive end of its key group within the sorted queue.
// These ends are strictly increasing, hence a chunk of the sorted queue
// [s,e) determines the deduplicated items it produces by scanning Ends.
type Result[Q query.Encodable] struct {
	Sorted       []Q
	Origin       []uint32
	Deduplicated []Q
	Ends         []uint32
}

// emit appends a deduplicated item for the key group ending at end.
func (p *Result[Q]) emit(item Q, end uint) {
	p.Deduplicated = append(p.Deduplicated, item)
	p.Ends = append(p.Ends, uint32(end))
}

// sortBy stably sorts a queue according to a given comparator, returning the
// sorted items alongside their source indices.  The source is not modified.
func sortBy[Q query.Encodable](source []Q, cmp func(*Q, *Q) int) Result[Q] {
	var (
		origin = make([]uint32, len(source))
		sorted = make([]Q, len(source))
	)
	//
	for i := range origin {
		origin[i] = uint32(i)
	}
	//
	slices.SortStableFunc(origin, func(l, r uint32) int {
		return cmp(&source[l], &source[r])
	})
	//
	for i, j := range origin {
		sorted[i] = source[j]
	}
	//
	return Result[Q]{Sorted: sorted, Origin: origin}
}

// groups splits a sorted queue into maximal runs of items with the same key,
// returned as the (exclusive) end of each run.
func groups[Q any](sorted []Q, sameKey func(*Q, *Q) bool) []uint {
	var ends []uint
	//
	for i := 1; i <= len(sorted); i++ {
		if i == len(sorted) || !sameKey(&sorted[i-1], &sorted[i]) {
			ends = append(ends, uint(i))
		}
	}
	//
	return ends
}
