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
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Destination identifies one of the queues into which the log queue is
// demultiplexed.
type Destination uint8

const (
	ROLLUP_STORAGE Destination = iota
	EVENTS
	L1_MESSAGES
	TRANSIENT_STORAGE
	KECCAK256
	SHA256
	ECRECOVER
	SECP256R1_VERIFY
	ECADD
	ECMUL
	ECPAIRING
	MODEXP
	// NUM_DESTINATIONS is the number of destinations.
	NUM_DESTINATIONS
)

// PRECOMPILES lists the precompile destinations in a fixed order.
var PRECOMPILES = []Destination{KECCAK256, SHA256, ECRECOVER, SECP256R1_VERIFY, ECADD, ECMUL, ECPAIRING, MODEXP}

var destinationNames = [NUM_DESTINATIONS]string{
	"rollup_storage", "events", "l1_messages", "transient_storage", "keccak256", "sha256", "ecrecover",
	"secp256r1_verify", "ecadd", "ecmul", "ecpairing", "modexp",
}

func (d Destination) String() string {
	if d < NUM_DESTINATIONS {
		return destinationNames[d]
	}
	//
	return fmt.Sprintf("destination(%d)", uint8(d))
}

// IsPrecompile checks whether this destination is a precompile queue.
func (d Destination) IsPrecompile() bool {
	return d >= KECCAK256 && d < NUM_DESTINATIONS
}

// PrecompileAt determines the precompile destination for a given address, or
// returns false if the address is not a known precompile.
func PrecompileAt(address common.Address) (Destination, bool) {
	switch address {
	case KECCAK256_ADDRESS:
		return KECCAK256, true
	case SHA256_ADDRESS:
		return SHA256, true
	case ECRECOVER_ADDRESS:
		return ECRECOVER, true
	case SECP256R1_VERIFY_ADDRESS:
		return SECP256R1_VERIFY, true
	case ECADD_ADDRESS:
		return ECADD, true
	case ECMUL_ADDRESS:
		return ECMUL, true
	case ECPAIRING_ADDRESS:
		return ECPAIRING, true
	case MODEXP_ADDRESS:
		return MODEXP, true
	}
	//
	return 0, false
}
