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
	log "github.com/sirupsen/logrus"
)

// Demuxed holds the log queue split into its destination queues.  For each
// destination, the index of every routed query within the original log queue
// is retained.  These indices are strictly increasing, hence can be scanned
// when cutting the original queue into chunks.
type Demuxed struct {
	Queries [query.NUM_DESTINATIONS][]query.LogQuery
	Origin  [query.NUM_DESTINATIONS][]uint32
}

// Route determines the destination of a single log query, based on its
// routing tag, shard and (for precompiles) address.
func Route(q *query.LogQuery) (query.Destination, error) {
	switch q.AuxByte {
	case query.STORAGE_AUX_BYTE:
		if q.ShardId != query.ROLLUP_SHARD_ID {
			return 0, fault.Malformed("storage query for unsupported shard %d", q.ShardId)
		}
		//
		return query.ROLLUP_STORAGE, nil
	case query.EVENT_AUX_BYTE:
		return query.EVENTS, nil
	case query.L1_MESSAGE_AUX_BYTE:
		return query.L1_MESSAGES, nil
	case query.TRANSIENT_STORAGE_AUX_BYTE:
		return query.TRANSIENT_STORAGE, nil
	case query.PRECOMPILE_AUX_BYTE:
		if dst, ok := query.PrecompileAt(q.Address); ok {
			return dst, nil
		}
		//
		return 0, fault.Malformed("precompile request for unknown address %s", q.Address.Hex())
	}
	//
	return 0, fault.Malformed("unknown routing tag %d", q.AuxByte)
}

// Demux routes each query of the log queue into exactly one destination
// queue, in a single pass which preserves the relative order of queries in
// each destination.
func Demux(queries []query.LogQuery) (*Demuxed, error) {
	var demuxed Demuxed
	//
	for i := range queries {
		dst, err := Route(&queries[i])
		//
		if err != nil {
			if f, ok := fault.As(err); ok {
				f.Index = i
			}
			//
			return nil, err
		}
		//
		demuxed.Queries[dst] = append(demuxed.Queries[dst], queries[i])
		demuxed.Origin[dst] = append(demuxed.Origin[dst], uint32(i))
	}
	//
	for dst := range query.NUM_DESTINATIONS {
		if n := len(demuxed.Queries[dst]); n > 0 {
			log.Debugf("demuxed %d queries to %s", n, dst)
		}
	}
	//
	return &demuxed, nil
}
