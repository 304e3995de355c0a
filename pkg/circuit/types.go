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
package circuit

import (
	"fmt"

	"github.com/consensys/go-witness/pkg/query"
)

// Type identifies a kind of base-layer circuit.  Each type consumes a
// specific slice of the witness, and instances of the same type are chained
// together by their queue states.
type Type uint8

const (
	// MAIN_VM executes a window of VM cycles.
	MAIN_VM Type = iota
	// CODE_DECOMMITTMENTS_SORTER sorts and deduplicates code decommittments.
	CODE_DECOMMITTMENTS_SORTER
	// CODE_DECOMMITTER hashes the code of every fresh decommittment.
	CODE_DECOMMITTER
	// LOG_DEMUXER splits the log queue by destination.
	LOG_DEMUXER
	// RAM_PERMUTATION checks memory consistency.
	RAM_PERMUTATION
	// STORAGE_SORTER sorts and deduplicates rollup storage accesses.
	STORAGE_SORTER
	// EVENTS_SORTER sorts events and removes rolled back ones.
	EVENTS_SORTER
	// L1_MESSAGES_SORTER sorts L1 messages and removes rolled back ones.
	L1_MESSAGES_SORTER
	// TRANSIENT_STORAGE_SORTER sorts and deduplicates transient storage.
	TRANSIENT_STORAGE_SORTER
	KECCAK256
	SHA256
	ECRECOVER
	SECP256R1_VERIFY
	ECADD
	ECMUL
	ECPAIRING
	MODEXP
	// L1_MESSAGES_HASHER computes the linear hash of all L1 messages.
	L1_MESSAGES_HASHER
	// NUM_TYPES is the number of circuit types.
	NUM_TYPES
)

var typeNames = [NUM_TYPES]string{
	"main_vm", "code_decommittments_sorter", "code_decommitter", "log_demuxer", "ram_permutation", "storage_sorter",
	"events_sorter", "l1_messages_sorter", "transient_storage_sorter", "keccak256", "sha256", "ecrecover",
	"secp256r1_verify", "ecadd", "ecmul", "ecpairing", "modexp", "l1_messages_hasher",
}

// TYPES lists all circuit types in their canonical order.
var TYPES = func() []Type {
	types := make([]Type, NUM_TYPES)
	for i := range types {
		types[i] = Type(i)
	}
	//
	return types
}()

func (t Type) String() string {
	if t < NUM_TYPES {
		return typeNames[t]
	}
	//
	return fmt.Sprintf("type(%d)", uint8(t))
}

// IsPrecompile determines whether this circuit type proves precompile
// rounds.
func (t Type) IsPrecompile() bool {
	return t >= KECCAK256 && t <= MODEXP
}

// ParseType determines the circuit type with the given name.
func ParseType(name string) (Type, error) {
	for i, n := range typeNames {
		if n == name {
			return Type(i), nil
		}
	}
	//
	return 0, fmt.Errorf("unknown circuit type \"%s\"", name)
}

// ForDestination returns the circuit type which consumes a given destination
// queue of the log demuxer.
func ForDestination(dst query.Destination) Type {
	switch dst {
	case query.ROLLUP_STORAGE:
		return STORAGE_SORTER
	case query.EVENTS:
		return EVENTS_SORTER
	case query.L1_MESSAGES:
		return L1_MESSAGES_SORTER
	case query.TRANSIENT_STORAGE:
		return TRANSIENT_STORAGE_SORTER
	case query.KECCAK256:
		return KECCAK256
	case query.SHA256:
		return SHA256
	case query.ECRECOVER:
		return ECRECOVER
	case query.SECP256R1_VERIFY:
		return SECP256R1_VERIFY
	case query.ECADD:
		return ECADD
	case query.ECMUL:
		return ECMUL
	case query.ECPAIRING:
		return ECPAIRING
	case query.MODEXP:
		return MODEXP
	}
	//
	panic("unreachable")
}
