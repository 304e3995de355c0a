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
	"fmt"

	"github.com/consensys/go-witness/pkg/query"
	"github.com/consensys/go-witness/pkg/util/fault"
)

// SortLogs sorts an events (or L1 messages) queue by (timestamp, rollback),
// and removes every entry which was rolled back.  Since every forward entry
// has a unique timestamp, each entry together with its rollback (if any) forms
// a single key group.
func SortLogs(source []query.LogQuery) (*Result[query.LogQuery], error) {
	result := sortBy(source, query.CompareTime)
	sameKey := func(l, r *query.LogQuery) bool { return l.Timestamp == r.Timestamp }
	start := uint(0)
	//
	for _, end := range groups(result.Sorted, sameKey) {
		var (
			forward = &result.Sorted[start]
			key     = logKey(forward)
		)
		//
		switch {
		case forward.Rollback:
			return nil, fault.Consistency(int(result.Origin[start]), key, "rollback without matching entry")
		case end-start > 2 || (end-start == 2 && !result.Sorted[start+1].Rollback):
			return nil, fault.ContractAt(int(result.Origin[start+1]), key, "repeated timestamp %d", forward.Timestamp)
		case end-start == 2 && result.Origin[start+1] < result.Origin[start]:
			return nil, fault.Consistency(int(result.Origin[start+1]), key, "rollback precedes its entry")
		case end-start == 1:
			result.emit(*forward, end)
		}
		//
		start = end
	}
	//
	return &result, nil
}

func logKey(q *query.LogQuery) string {
	return fmt.Sprintf("@%d", q.Timestamp)
}
