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
package cmd

import (
	"encoding/json"
	"os"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/go-witness/pkg/circuit"
	"github.com/consensys/go-witness/pkg/recursion"
	"github.com/consensys/go-witness/pkg/util/fault"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

// proofFile is the JSON notation for a proof (or, without a commitment, a
// verification key).
type proofFile struct {
	Layer      string        `json:"layer"`
	Type       string        `json:"type"`
	Commitment hexutil.Bytes `json:"commitment,omitempty"`
	Payload    hexutil.Bytes `json:"payload"`
}

func writeProofFile(filename string, proof *recursion.Proof) error {
	return writeJsonFile(filename, proofFile{proof.Layer.String(), proof.Type.String(), proof.Commitment.Marshal(),
		proof.Payload})
}

func readProofFile(filename string) (*recursion.Proof, error) {
	var (
		file       proofFile
		commitment fr.Element
	)
	//
	if err := readJsonFile(filename, &file); err != nil {
		return nil, err
	}
	//
	layer, t, err := parseLayerAndType(file)
	if err != nil {
		return nil, err
	} else if err = commitment.SetBytesCanonical(file.Commitment); err != nil {
		return nil, fault.Malformed("invalid commitment (%s)", err)
	}
	//
	return &recursion.Proof{Layer: layer, Type: t, Commitment: commitment, Payload: file.Payload}, nil
}

func writeKeyFile(filename string, vk *recursion.VerificationKey) error {
	return writeJsonFile(filename, proofFile{vk.Layer.String(), vk.Type.String(), nil, vk.Payload})
}

func readKeyFile(filename string) (*recursion.VerificationKey, error) {
	var file proofFile
	//
	if err := readJsonFile(filename, &file); err != nil {
		return nil, err
	}
	//
	layer, t, err := parseLayerAndType(file)
	if err != nil {
		return nil, err
	}
	//
	return &recursion.VerificationKey{Layer: layer, Type: t, Payload: file.Payload}, nil
}

func parseLayerAndType(file proofFile) (recursion.LayerKind, circuit.Type, error) {
	layer, err := recursion.ParseLayerKind(file.Layer)
	if err != nil {
		return 0, 0, fault.Malformed("%s", err)
	}
	//
	t, err := circuit.ParseType(file.Type)
	if err != nil {
		return 0, 0, fault.Malformed("%s", err)
	}
	//
	return layer, t, nil
}

func writeJsonFile(filename string, value any) error {
	bytes, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	//
	return os.WriteFile(filename, bytes, 0644)
}

func readJsonFile(filename string, value any) error {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return errors.Wrapf(err, "reading %s", filename)
	} else if err = json.Unmarshal(bytes, value); err != nil {
		return fault.Malformed("%s: %s", filename, err)
	}
	//
	return nil
}
