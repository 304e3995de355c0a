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
package json

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/consensys/go-witness/pkg/query"
	"github.com/consensys/go-witness/pkg/util/fault"
	"github.com/consensys/go-witness/pkg/witness"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Record is a single query of a trace, as it appears in JSON notation.  For
// example, {"cycle": 3, "kind": "memory", "query": {"timestamp": 7, ...}} is a
// memory query issued in cycle 3.  A trace is a stream of such records.
type Record struct {
	Cycle uint32          `json:"cycle"`
	Kind  string          `json:"kind"`
	Query json.RawMessage `json:"query"`
}

// ReadTrace parses a trace expressed in JSON notation, feeding each query in
// turn to a given tracer.  This returns the number of records read.
func ReadTrace(r io.Reader, tracer witness.Tracer) (uint, error) {
	var (
		decoder = json.NewDecoder(bufio.NewReader(r))
		n       uint
	)
	//
	for {
		var record Record
		//
		if err := decoder.Decode(&record); err == io.EOF {
			break
		} else if err != nil {
			return n, fault.Malformed("record %d: %s", n, err)
		}
		//
		q, err := FromRecord(record)
		if err != nil {
			return n, errors.Wrapf(err, "record %d", n)
		} else if err = tracer.OnQuery(record.Cycle, q); err != nil {
			return n, errors.Wrapf(err, "record %d", n)
		}
		//
		n++
	}
	//
	log.Debugf("read %d trace records", n)
	//
	return n, nil
}

// FromRecord decodes the query held in a given record.
func FromRecord(record Record) (query.Query, error) {
	switch record.Kind {
	case query.MEMORY.String():
		return decode[query.MemoryQuery](record)
	case query.LOG.String():
		return decode[query.LogQuery](record)
	case query.DECOMMITTMENT.String():
		return decode[query.DecommittmentQuery](record)
	case query.PRECOMPILE.String():
		return decode[query.PrecompileCall](record)
	case query.CODE.String():
		return decode[query.CodeBlob](record)
	}
	//
	return nil, fault.Malformed("unknown query kind \"%s\"", record.Kind)
}

func decode[Q query.Query](record Record) (query.Query, error) {
	var q Q
	//
	if len(record.Query) == 0 {
		return nil, fault.Malformed("missing %s query", record.Kind)
	} else if err := json.Unmarshal(record.Query, &q); err != nil {
		return nil, fault.Malformed("invalid %s query (%s)", record.Kind, err)
	}
	//
	return q, nil
}
