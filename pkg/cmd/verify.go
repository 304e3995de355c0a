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

	"github.com/consensys/go-witness/pkg/recursion"
	"github.com/consensys/go-witness/pkg/recursion/groth16"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [flags] vk_file proof_file(s)",
	Short: "Verify one or more proofs against a verification key.",
	Long: `Verify one or more proofs against a verification key.  Proofs are checked
	at the layer of the verification key, and must agree with it on the
	circuit type.  The outcome of each is reported.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) < 2 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		//
		var (
			backends = make(map[recursion.LayerKind]recursion.Backend)
			failed   bool
		)
		//
		for layer := recursion.BASE; layer < recursion.SCHEDULER; layer++ {
			backends[layer] = groth16.Backend{}
		}
		//
		registry := recursion.NewRegistry(backends)
		vk, err := readKeyFile(args[0])
		exitOnError(err)
		//
		for _, filename := range args[1:] {
			proof, err := readProofFile(filename)
			exitOnError(err)
			//
			if registry.Verify(vk.Layer, proof, vk) {
				fmt.Printf("%s: valid\n", filename)
			} else {
				fmt.Printf("%s: invalid\n", filename)
				//
				failed = true
			}
		}
		//
		if failed {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
