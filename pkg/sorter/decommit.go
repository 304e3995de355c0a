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
)

// SortDecommittments sorts the decommittment queue by (code hash, timestamp).
// Only the first request for each hash is retained (and marked fresh), since
// later requests reuse the page it was decommitted into.  All requests for the
// same hash must target the same page and have strictly increasing
// timestamps.
func SortDecommittments(source []query.DecommittmentQuery) (*Result[query.DecommittmentQuery], error) {
	result := sortBy(source, compareDecommittment)
	sameHash := func(l, r *query.DecommittmentQuery) bool { return l.CodeHash.Eq(&r.CodeHash) }
	start := uint(0)
	//
	for _, end := range groups(result.Sorted, sameHash) {
		var first = result.Sorted[start]
		//
		for i := start + 1; i < end; i++ {
			prev, next := &result.Sorted[i-1], &result.Sorted[i]
			//
			if next.Page != first.Page {
				return nil, fault.Consistency(int(result.Origin[i]), next.CodeHash.Hex(),
					"decommitted into page %d, previously page %d", next.Page, first.Page)
			} else if next.Timestamp <= prev.Timestamp {
				return nil, fault.ContractAt(int(result.Origin[i]), next.CodeHash.Hex(),
					"repeated timestamp %d", next.Timestamp)
			}
		}
		//
		first.IsFresh = true
		result.emit(first, end)
		start = end
	}
	//
	return &result, nil
}

func compareDecommittment(l, r *query.DecommittmentQuery) int {
	if c := l.CodeHash.Cmp(&r.CodeHash); c != 0 {
		return c
	} else if l.Timestamp < r.Timestamp {
		return -1
	} else if l.Timestamp > r.Timestamp {
		return 1
	}
	//
	return 0
}
