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
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/go-witness/pkg/util/field"
	"golang.org/x/crypto/blake2b"
)

// Absorber is the capability the core needs from the proving backend's queue
// commitment scheme: folding one encoded item into a running tail digest.  An
// absorber must be a pure function of its arguments.
type Absorber interface {
	// Name identifies the scheme (e.g. for command-line selection).
	Name() string
	// Absorb returns the tail obtained by absorbing item after tail.
	Absorb(tail Digest, item []byte) Digest
}

// MiMC absorbs items using the MiMC sponge over the bn254 scalar field.  The
// tail is absorbed first, followed by the limbs of the item.
type MiMC struct{}

// Name implementation for Absorber interface.
func (MiMC) Name() string {
	return "mimc"
}

// Absorb implementation for Absorber interface.
func (MiMC) Absorb(tail Digest, item []byte) Digest {
	var elem fr.Element
	// Tail is produced by this hasher, hence already reduced.  However, the
	// initial tail is all zeros which is also fine.
	elem.SetBytes(tail[:])
	elem = field.HashElements(append([]fr.Element{elem}, field.Limbs(item)...)...)
	//
	return elem.Bytes()
}

// Blake2b absorbs items by hashing the tail followed by the item.  It is much
// faster than MiMC, but not circuit friendly.
type Blake2b struct{}

// Name implementation for Absorber interface.
func (Blake2b) Name() string {
	return "blake2b"
}

// Absorb implementation for Absorber interface.
func (Blake2b) Absorb(tail Digest, item []byte) Digest {
	buf := make([]byte, 0, len(tail)+len(item))
	buf = append(buf, tail[:]...)
	buf = append(buf, item...)
	//
	return blake2b.Sum256(buf)
}

// AbsorberByName returns the absorber with the given name.
func AbsorberByName(name string) (Absorber, error) {
	switch name {
	case "mimc":
		return MiMC{}, nil
	case "blake2b":
		return Blake2b{}, nil
	}
	//
	return nil, fmt.Errorf("unknown absorber \"%s\"", name)
}
