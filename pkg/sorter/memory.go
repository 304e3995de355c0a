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
	"github.com/consensys/go-witness/pkg/query"
	"github.com/consensys/go-witness/pkg/util/fault"
	"github.com/holiman/uint256"
)

// SortMemory sorts the memory queue by (page, index, timestamp) for the RAM
// permutation.  Memory is not deduplicated, but every read must return the
// value most recently written to that location (or zero if none).
func SortMemory(source []query.MemoryQuery) (*Result[query.MemoryQuery], error) {
	var (
		result  = sortBy(source, compareMemory)
		current uint256.Int
	)
	//
	for i := range result.Sorted {
		q := &result.Sorted[i]
		//
		if i == 0 || query.CompareLocation(&result.Sorted[i-1], q) != 0 {
			current.Clear()
		} else if q.Timestamp <= result.Sorted[i-1].Timestamp {
			return nil, fault.ContractAt(int(result.Origin[i]), q.LocationKey(), "repeated timestamp %d", q.Timestamp)
		}
		//
		if q.RW {
			current = q.Value
		} else if !current.Eq(&q.Value) {
			return nil, fault.Consistency(int(result.Origin[i]), q.LocationKey(),
				"read %s when location holds %s", q.Value.Hex(), current.Hex())
		}
	}
	//
	return &result, nil
}

func compareMemory(l, r *query.MemoryQuery) int {
	if c := query.CompareLocation(l, r); c != 0 {
		return c
	} else if l.Timestamp < r.Timestamp {
		return -1
	} else if l.Timestamp > r.Timestamp {
		return 1
	}
	//
	return 0
}
