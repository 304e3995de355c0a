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
package queue

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Digest is the fixed-size value an Absorber folds items into.
type Digest [32]byte

func (d Digest) String() string {
	return "0x" + hex.EncodeToString(d[:])
}

// State summarises a (sub-)queue.  The head is the tail of the queue before
// the first item of this queue was absorbed, whilst the tail is the digest
// after the last item.  Two queues are equal iff their states are equal.
type State struct {
	Head   Digest
	Tail   Digest
	Length uint32
}

// IsEmpty checks whether this state describes a queue without items.
func (s State) IsEmpty() bool {
	return s.Length == 0
}

// Encode the state into a deterministic sequence of bytes.
func (s State) Encode() []byte {
	buf := make([]byte, 0, 68)
	buf = append(buf, s.Head[:]...)
	buf = append(buf, s.Tail[:]...)
	//
	return binary.BigEndian.AppendUint32(buf, s.Length)
}

func (s State) String() string {
	return fmt.Sprintf("{head=%s, tail=%s, len=%d}", s.Head, s.Tail, s.Length)
}
