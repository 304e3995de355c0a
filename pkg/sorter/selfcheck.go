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
	"bytes"
	"sort"

	"github.com/consensys/go-witness/pkg/query"
	"github.com/consensys/go-witness/pkg/util/fault"
	"github.com/consensys/go-witness/pkg/util/field"
)

// checker captures what is needed to cross-check the result of sorting a
// particular kind of queue.
type checker[Q query.Encodable] struct {
	// less orders queries in the same way as the sort under test.
	less func(*Q, *Q) bool
	// key orders queries by key only.
	key func(*Q, *Q) int
	// name gives a printable key for a query.
	name func(*Q) string
	// dedup derives the deduplicated item (if any) for a key group, given
	// the group in sorted order and the source index of each item.  This is
	// nil for queues which are not deduplicated.
	dedup func(group []Q, origin []int) (Q, bool)
}

// VerifyStorage cross-checks the result of SortStorage under a given elision
// policy.
func VerifyStorage(source []query.LogQuery, policy ElisionPolicy, result *Result[query.LogQuery]) error {
	return storageChecker(storageKeying, policy).verify(source, result)
}

// VerifyTransientStorage cross-checks the result of SortTransientStorage under
// a given elision policy.
func VerifyTransientStorage(source []query.LogQuery, policy ElisionPolicy, result *Result[query.LogQuery]) error {
	return storageChecker(transientKeying, policy).verify(source, result)
}

// VerifyLogs cross-checks the result of SortLogs.
func VerifyLogs(source []query.LogQuery, result *Result[query.LogQuery]) error {
	return checker[query.LogQuery]{
		less:  func(l, r *query.LogQuery) bool { return query.CompareTime(l, r) < 0 },
		key:   func(l, r *query.LogQuery) int { return int(l.Timestamp) - int(r.Timestamp) },
		name:  logKey,
		dedup: survivingEntry,
	}.verify(source, result)
}

// VerifyDecommittments cross-checks the result of SortDecommittments.
func VerifyDecommittments(source []query.DecommittmentQuery, result *Result[query.DecommittmentQuery]) error {
	return checker[query.DecommittmentQuery]{
		less:  func(l, r *query.DecommittmentQuery) bool { return compareDecommittment(l, r) < 0 },
		key:   func(l, r *query.DecommittmentQuery) int { return l.CodeHash.Cmp(&r.CodeHash) },
		name:  func(q *query.DecommittmentQuery) string { return q.CodeHash.Hex() },
		dedup: freshDecommittment,
	}.verify(source, result)
}

// VerifyMemory cross-checks the result of SortMemory.
func VerifyMemory(source []query.MemoryQuery, result *Result[query.MemoryQuery]) error {
	return checker[query.MemoryQuery]{
		less: func(l, r *query.MemoryQuery) bool { return compareMemory(l, r) < 0 },
		key:  query.CompareLocation,
		name: func(q *query.MemoryQuery) string { return q.LocationKey() },
	}.verify(source, result)
}

func storageChecker(k keying, policy ElisionPolicy) checker[query.LogQuery] {
	return checker[query.LogQuery]{
		less: func(l, r *query.LogQuery) bool {
			if c := k.compare(l, r); c != 0 {
				return c < 0
			}
			//
			return query.CompareTime(l, r) < 0
		},
		key:   k.compare,
		name:  k.name,
		dedup: func(group []query.LogQuery, origin []int) (query.LogQuery, bool) { return foldKey(group, origin, policy) },
	}
}

// foldKey folds the accesses to a single storage key in execution order,
// without validating them, to determine the entry (if any) it contributes.
func foldKey(group []query.LogQuery, origin []int, policy ElisionPolicy) (query.LogQuery, bool) {
	var (
		history KeyHistory
		order   = make([]int, len(group))
		latest  = -1
	)
	//
	for i := range order {
		order[i] = i
	}
	//
	sort.Slice(order, func(i, j int) bool { return origin[order[i]] < origin[order[j]] })
	//
	history.Initial = group[order[0]].ReadValue
	history.Final = history.Initial
	//
	for _, i := range order {
		q := &group[i]
		//
		switch {
		case q.Rollback:
			history.Rollbacks++
			history.Final = q.ReadValue
		case q.RW:
			history.Writes++
			history.Final = q.WrittenValue
		default:
			history.Reads++
			history.Observed = history.Observed || !history.Final.Eq(&history.Initial)
		}
		//
		if !q.Rollback && (latest < 0 || q.Timestamp >= group[latest].Timestamp) {
			latest = i
		}
	}
	//
	if latest < 0 || (history.IsReverted() && policy.Elide(&history)) {
		return query.LogQuery{}, false
	}
	//
	entry := group[latest]
	entry.ReadValue = history.Initial
	entry.WrittenValue = history.Final
	entry.RW = !history.Initial.Eq(&history.Final)
	entry.Rollback = false
	entry.IsService = false
	//
	return entry, true
}

// survivingEntry returns the entry of a log group, unless it was rolled back.
func survivingEntry(group []query.LogQuery, _ []int) (query.LogQuery, bool) {
	if len(group) != 1 || group[0].Rollback {
		return query.LogQuery{}, false
	}
	//
	return group[0], true
}

// freshDecommittment returns the earliest request of a decommittment group,
// marked fresh.
func freshDecommittment(group []query.DecommittmentQuery, _ []int) (query.DecommittmentQuery, bool) {
	first := group[0]
	first.IsFresh = true
	//
	return first, true
}

// verify a sort result against its source queue, using an independent sorting
// algorithm.  Specifically, this checks: (1) the sorted queue matches (item by
// item) an independent stable sort of the source queue; (2) the origin of
// each sorted item is correct and origins form a permutation; (3) the sorted
// queue is a permutation of the source queue as multisets; (4) the
// deduplicated queue and its group ends match (item by item) those derived
// independently from the independent sort.
func (p checker[Q]) verify(source []Q, result *Result[Q]) error {
	var (
		n        = len(source)
		order    = make([]int, n)
		expected = make([]Q, n)
		seen     = make([]bool, n)
	)
	//
	if len(result.Sorted) != n || len(result.Origin) != n {
		return fault.Consistency(fault.NO_INDEX, "", "sorted queue has %d items (expected %d)", len(result.Sorted), n)
	}
	//
	for i := range order {
		order[i] = i
	}
	//
	sort.SliceStable(order, func(i, j int) bool { return p.less(&source[order[i]], &source[order[j]]) })
	//
	for i, j := range order {
		expected[i] = source[j]
	}
	//
	for i := range expected {
		var (
			actual = result.Sorted[i].Encode()
			origin = int(result.Origin[i])
		)
		//
		if !bytes.Equal(expected[i].Encode(), actual) {
			return fault.Consistency(i, p.name(&result.Sorted[i]), "sorted queue differs from independent sort")
		} else if origin >= n || seen[origin] || !bytes.Equal(source[origin].Encode(), actual) {
			return fault.Consistency(i, p.name(&result.Sorted[i]), "incorrect origin %d", origin)
		}
		//
		seen[origin] = true
	}
	//
	if !field.AreSortedPermutationOf(result.Sorted, source) {
		return fault.Consistency(fault.NO_INDEX, "", "sorted queue is not a permutation of its source")
	} else if len(result.Ends) != len(result.Deduplicated) {
		return fault.Consistency(fault.NO_INDEX, "", "%d group ends for %d deduplicated items",
			len(result.Ends), len(result.Deduplicated))
	}
	//
	return p.verifyDeduplicated(expected, order, result)
}

// verifyDeduplicated derives the deduplicated queue from an independently
// sorted queue, and compares it item by item against the one produced.
func (p checker[Q]) verifyDeduplicated(sorted []Q, origin []int, result *Result[Q]) error {
	var (
		n     = len(sorted)
		index = 0
		start = 0
	)
	//
	for end := 1; end <= n && p.dedup != nil; end++ {
		if end < n && p.key(&sorted[end-1], &sorted[end]) == 0 {
			continue
		}
		//
		item, ok := p.dedup(sorted[start:end], origin[start:end])
		start = end
		//
		if !ok {
			continue
		} else if index >= len(result.Deduplicated) {
			return fault.Consistency(index, p.name(&item), "deduplicated queue is missing an item")
		}
		//
		actual := result.Deduplicated[index]
		//
		if !bytes.Equal(item.Encode(), actual.Encode()) {
			return fault.Consistency(index, p.name(&actual), "deduplicated item differs from independent derivation")
		} else if result.Ends[index] != uint32(end) {
			return fault.Consistency(index, p.name(&actual), "group end %d (expected %d)", result.Ends[index], end)
		}
		//
		index++
	}
	//
	if index != len(result.Deduplicated) {
		return fault.Consistency(index, "", "deduplicated queue has %d items (expected %d)",
			len(result.Deduplicated), index)
	}
	//
	return nil
}
