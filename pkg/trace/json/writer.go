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
)

// Writer writes queries out as a trace in JSON notation, one record per line.
// Since a writer is a witness.Tracer, it can record a trace directly as it is
// produced.
type Writer struct {
	buffer  *bufio.Writer
	encoder *json.Encoder
	count   uint
}

// NewWriter constructs a trace writer for a given sink.  The writer must be
// flushed once the trace is complete.
func NewWriter(w io.Writer) *Writer {
	buffer := bufio.NewWriter(w)
	//
	return &Writer{buffer, json.NewEncoder(buffer), 0}
}

// OnQuery implementation for witness.Tracer interface.
func (p *Writer) OnQuery(cycle uint32, q query.Query) error {
	record, err := ToRecord(cycle, q)
	if err != nil {
		return err
	}
	//
	p.count++
	//
	return p.encoder.Encode(&record)
}

// Count returns the number of records written so far.
func (p *Writer) Count() uint {
	return p.count
}

// Flush any buffered records to the underlying sink.
func (p *Writer) Flush() error {
	return p.buffer.Flush()
}

// ToRecord encodes a query issued in a given cycle as a record.
func ToRecord(cycle uint32, q query.Query) (Record, error) {
	var (
		bytes []byte
		err   error
	)
	// Encode via pointers so that word values use their own JSON notation.
	switch q := q.(type) {
	case query.MemoryQuery:
		bytes, err = json.Marshal(&q)
	case query.LogQuery:
		bytes, err = json.Marshal(&q)
	case query.DecommittmentQuery:
		bytes, err = json.Marshal(&q)
	case query.PrecompileCall:
		bytes, err = json.Marshal(&q)
	case query.CodeBlob:
		bytes, err = json.Marshal(&q)
	default:
		panic("unreachable")
	}
	//
	return Record{cycle, q.Kind().String(), bytes}, err
}
