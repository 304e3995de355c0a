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
package groth16

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
)

// CommitmentCircuit proves knowledge of a preimage whose MiMC hash is the
// (public) commitment.  This is the statement every layer of the recursion
// tree reduces to once its public input is collapsed to a single element.
type CommitmentCircuit struct {
	Commitment frontend.Variable `gnark:",public"`
	Preimage   []frontend.Variable
}

// Define the constraints of this circuit.
func (c *CommitmentCircuit) Define(api frontend.API) error {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	//
	h.Write(c.Preimage...)
	api.AssertIsEqual(c.Commitment, h.Sum())
	//
	return nil
}
