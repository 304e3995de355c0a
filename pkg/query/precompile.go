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
package query

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Addresses of the precompiles known to the VM.
var (
	ECRECOVER_ADDRESS        = common.BytesToAddress([]byte{0x01})
	SHA256_ADDRESS           = common.BytesToAddress([]byte{0x02})
	MODEXP_ADDRESS           = common.BytesToAddress([]byte{0x05})
	ECADD_ADDRESS            = common.BytesToAddress([]byte{0x06})
	ECMUL_ADDRESS            = common.BytesToAddress([]byte{0x07})
	ECPAIRING_ADDRESS        = common.BytesToAddress([]byte{0x08})
	SECP256R1_VERIFY_ADDRESS = common.BytesToAddress([]byte{0x01, 0x00})
	KECCAK256_ADDRESS        = common.BytesToAddress([]byte{0x80, 0x10})
)

// PrecompileCall records the payload handed to a precompile.  Each call is
// paired with the LogQuery (with PRECOMPILE_AUX_BYTE) which requested it, via
// their shared timestamp.
type PrecompileCall struct {
	Timestamp uint32         `json:"timestamp"`
	Address   common.Address `json:"address"`
	Payload   []byte         `json:"payload"`
}

// Kind implementation for Query interface.
func (q PrecompileCall) Kind() Kind {
	return PRECOMPILE
}

// Time implementation for Query interface.
func (q PrecompileCall) Time() uint32 {
	return q.Timestamp
}

// Encode implementation for Encodable interface.
func (q PrecompileCall) Encode() []byte {
	buf := make([]byte, 0, 28+len(q.Payload))
	buf = putUint32(buf, q.Timestamp)
	buf = append(buf, q.Address.Bytes()...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(q.Payload)))
	//
	return append(buf, q.Payload...)
}

func (q PrecompileCall) String() string {
	return fmt.Sprintf("call(@%d %s, %d bytes)", q.Timestamp, q.Address.Hex(), len(q.Payload))
}

func (q PrecompileCall) isQuery() {}
