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
	"github.com/consensys/go-witness/pkg/util/fault"
	"github.com/holiman/uint256"
)

// keying determines how storage queries are grouped into keys.  Persistent
// storage is keyed by slot, whilst transient storage is additionally keyed by
// transaction.
type keying struct {
	compare func(*query.LogQuery, *query.LogQuery) int
	name    func(*query.LogQuery) string
	// zeroed indicates every key starts at zero.
	zeroed bool
}

var (
	storageKeying   = keying{query.CompareStorageKey, (*query.LogQuery).StorageKey, false}
	transientKeying = keying{query.CompareTransientKey, (*query.LogQuery).TransientKey, true}
)

// SortStorage sorts the rollup storage queue by (key, timestamp, rollback) and
// collapses each key into a single entry.  A key whose value changed yields a
// write from its initial to its final value.  A key which was only read
// yields a read.  A key which was written but ends at its initial value is
// dropped or retained as a read, as the elision policy decides.
func SortStorage(source []query.LogQuery, policy ElisionPolicy) (*Result[query.LogQuery], error) {
	return sortStorage(source, policy, storageKeying)
}

// SortTransientStorage is as for SortStorage, except the key additionally
// includes the transaction number and every key starts at zero.
func SortTransientStorage(source []query.LogQuery, policy ElisionPolicy) (*Result[query.LogQuery], error) {
	return sortStorage(source, policy, transientKeying)
}

func sortStorage(source []query.LogQuery, policy ElisionPolicy, k keying) (*Result[query.LogQuery], error) {
	result := sortBy(source, func(l, r *query.LogQuery) int {
		if c := k.compare(l, r); c != 0 {
			return c
		}
		//
		return query.CompareTime(l, r)
	})
	//
	sameKey := func(l, r *query.LogQuery) bool { return k.compare(l, r) == 0 }
	start := uint(0)
	//
	for _, end := range groups(result.Sorted, sameKey) {
		history, last, err := replay(&result, start, end, k)
		//
		if err != nil {
			return nil, err
		}
		//
		entry := result.Sorted[last]
		entry.ReadValue = history.Initial
		entry.WrittenValue = history.Final
		entry.RW = !history.Initial.Eq(&history.Final)
		entry.Rollback = false
		entry.IsService = false
		//
		if !history.IsReverted() || !policy.Elide(&history) {
			result.emit(entry, end)
		}
		//
		start = end
	}
	//
	return &result, nil
}

// replay the key group sorted[start:end] in execution (i.e. source) order to
// determine its history.  The index (in sorted order) of the latest forward
// query is also returned.
func replay(result *Result[query.LogQuery], start, end uint, k keying) (KeyHistory, uint, error) {
	var (
		history KeyHistory
		order   = make([]uint, 0, end-start)
		current uint256.Int
		last    = start
		clock   uint32
	)
	// Sorted order places each rollback immediately after its forward query,
	// hence a rollback is matched here.
	for i := start; i < end; i++ {
		q := &result.Sorted[i]
		//
		if q.Rollback {
			if i == start || !isUndoneBy(&result.Sorted[i-1], q) {
				return history, 0, fault.Consistency(int(result.Origin[i]), k.name(q),
					"rollback at %d without matching write", q.Timestamp)
			}
		} else if i > start && !result.Sorted[i-1].Rollback && result.Sorted[i-1].Timestamp == q.Timestamp {
			return history, 0, fault.ContractAt(int(result.Origin[i]), k.name(q),
				"repeated timestamp %d for key", q.Timestamp)
		}
		//
		if !q.Rollback && q.Timestamp >= result.Sorted[last].Timestamp {
			last = i
		}
		//
		order = append(order, i)
	}
	//
	slices.SortFunc(order, func(l, r uint) int {
		return int(result.Origin[l]) - int(result.Origin[r])
	})
	//
	for n, i := range order {
		q := &result.Sorted[i]
		//
		if n == 0 {
			if q.Rollback {
				return history, 0, fault.Consistency(int(result.Origin[i]), k.name(q),
					"rollback precedes its write")
			} else if k.zeroed && !q.ReadValue.IsZero() {
				return history, 0, fault.Consistency(int(result.Origin[i]), k.name(q),
					"transient key starts at %s", q.ReadValue.Hex())
			}
			//
			history.Initial = q.ReadValue
			current = q.ReadValue
		}
		//
		if !q.Rollback {
			if n > 0 && q.Timestamp <= clock {
				return history, 0, fault.ContractAt(int(result.Origin[i]), k.name(q),
					"timestamp %d does not follow %d", q.Timestamp, clock)
			}
			//
			clock = q.Timestamp
		}
		//
		switch {
		case q.Rollback:
			if !current.Eq(&q.WrittenValue) {
				return history, 0, fault.Consistency(int(result.Origin[i]), k.name(q),
					"rollback of %s when key holds %s", q.WrittenValue.Hex(), current.Hex())
			}
			//
			history.Rollbacks++
			current = q.ReadValue
		case !current.Eq(&q.ReadValue):
			return history, 0, fault.Consistency(int(result.Origin[i]), k.name(q),
				"read %s when key holds %s", q.ReadValue.Hex(), current.Hex())
		case q.RW:
			history.Writes++
			current = q.WrittenValue
		default:
			history.Reads++
			history.Observed = history.Observed || !current.Eq(&history.Initial)
		}
	}
	//
	history.Final = current
	//
	return history, last, nil
}

// isUndoneBy checks whether a given forward query is undone by a given
// rollback.
func isUndoneBy(forward, rollback *query.LogQuery) bool {
	return !forward.Rollback && forward.RW && forward.Timestamp == rollback.Timestamp
}
