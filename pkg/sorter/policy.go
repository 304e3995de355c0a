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

	"github.com/holiman/uint256"
)

// KeyHistory summarises all accesses made to a single storage key, as
// determined when replaying them in execution order.
type KeyHistory struct {
	// Value of the key before the first access.
	Initial uint256.Int
	// Value of the key after the last access.
	Final uint256.Int
	// Number of forward reads.
	Reads uint
	// Number of forward writes (including those later rolled back).
	Writes uint
	// Number of rollbacks.
	Rollbacks uint
	// Observed is set when a read happened whilst the key held a value other
	// than its initial value.
	Observed bool
}

// IsReverted determines whether the key was written to, but holds its
// initial value at the end.
func (h *KeyHistory) IsReverted() bool {
	return h.Writes > 0 && h.Initial.Eq(&h.Final)
}

// ElisionPolicy decides whether a reverted key can be dropped from the
// deduplicated queue altogether.  This decision must match exactly what the
// companion sorting circuit accepts, hence it is injected rather than fixed.
// A policy is only consulted for keys where IsReverted() holds.
type ElisionPolicy interface {
	// Name identifies this policy.
	Name() string
	// Elide returns true if the key should be dropped.
	Elide(history *KeyHistory) bool
}

// ElideUnobservedReverts drops a reverted key unless some read observed it
// holding an intermediate value.  Eliding such a key would hide that the read
// happened.
type ElideUnobservedReverts struct{}

// Name implementation for ElisionPolicy interface.
func (ElideUnobservedReverts) Name() string {
	return "unobserved"
}

// Elide implementation for ElisionPolicy interface.
func (ElideUnobservedReverts) Elide(history *KeyHistory) bool {
	return !history.Observed
}

// ElideAllReverts drops every reverted key.
type ElideAllReverts struct{}

// Name implementation for ElisionPolicy interface.
func (ElideAllReverts) Name() string {
	return "all"
}

// Elide implementation for ElisionPolicy interface.
func (ElideAllReverts) Elide(*KeyHistory) bool {
	return true
}

// NeverElide retains every reverted key as a read.
type NeverElide struct{}

// Name implementation for ElisionPolicy interface.
func (NeverElide) Name() string {
	return "never"
}

// Elide implementation for ElisionPolicy interface.
func (NeverElide) Elide(*KeyHistory) bool {
	return false
}

// PolicyByName returns the elision policy with the given name.
func PolicyByName(name string) (ElisionPolicy, error) {
	for _, p := range []ElisionPolicy{ElideUnobservedReverts{}, ElideAllReverts{}, NeverElide{}} {
		if p.Name() == name {
			return p, nil
		}
	}
	//
	return nil, fmt.Errorf("unknown elision policy \"%s\"", name)
}
