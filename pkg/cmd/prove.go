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
	"fmt"
	"os"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/go-witness/pkg/recursion"
	"github.com/consensys/go-witness/pkg/recursion/groth16"
	"github.com/consensys/go-witness/pkg/util/fault"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var proveCmd = &cobra.Command{
	Use:   "prove [flags] keys_file trace_file proof_file",
	Short: "Prove one instance (or aggregation) of a given trace.",
	Long: `Prove the commitment of one base instance, leaf or node built from a given
	trace, using keys generated by setup.  Instances and leaves are selected
	by index, whilst the node layer proves the root of the recursion tree.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 3 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		//
		var (
			layer, t      = getLayerAndType(cmd)
			index         = GetUint(cmd, "index")
			artifact, set = assembleTraceFile(cmd, args[1])
			preimage      []fr.Element
		)
		//
		switch layer {
		case recursion.BASE:
			forms := set.ClosedForms(t)
			if index >= uint(len(forms)) {
				exitOnError(fault.Contract("%s has %d instance(s)", t, len(forms)))
			}
			//
			preimage = forms[index].Preimage()
		case recursion.LEAF, recursion.NODE:
			q := recursion.BuildQueues(set, getKeyCommitments(cmd), artifact.Config().Absorber)[t]
			root, err := recursion.Aggregate(q, GetUint(cmd, "fan-in"))
			exitOnError(err)
			//
			if layer == recursion.NODE {
				preimage = root.Preimage()
			} else if leaves := root.Leaves(); index < uint(len(leaves)) {
				preimage = leaves[index].Preimage()
			} else {
				exitOnError(fault.Contract("%s has %d leaves", t, len(leaves)))
			}
		default:
			exitOnError(fault.Contract("cannot prove %s layer", layer))
		}
		//
		file, err := os.Open(args[0])
		exitOnError(err)
		//
		defer file.Close()
		//
		keys, err := groth16.ReadKeys(layer, t, file)
		exitOnError(err)
		//
		log.Debugf("proving %s %s commitment over %d elements", layer, t, len(preimage))
		//
		proof, err := keys.Prove(preimage, hashPreimage(preimage))
		exitOnError(err)
		exitOnError(writeProofFile(args[2], proof))
	},
}

func init() {
	rootCmd.AddCommand(proveCmd)
	proveCmd.Flags().String("layer", "base", "recursion layer (base, leaf, node)")
	proveCmd.Flags().String("type", "main_vm", "circuit type")
	proveCmd.Flags().Uint("index", 0, "index of instance (or leaf) to prove")
	proveCmd.Flags().Uint("fan-in", 32, "number of proofs folded by each leaf / node")
	proveCmd.Flags().StringArray("vk", nil, "base layer verification key file (repeatable)")
}
