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

	"github.com/consensys/go-witness/pkg/circuit"
	"github.com/consensys/go-witness/pkg/recursion"
	"github.com/consensys/go-witness/pkg/recursion/groth16"
	"github.com/consensys/go-witness/pkg/util/fault"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup [flags] keys_file vk_file",
	Short: "Generate proving and verification keys for a layer.",
	Long: `Generate groth16 proving and verification keys for the commitment circuit of
	a given layer and circuit type.  Base layer circuits commit to the closed
	form of an instance, whose size depends on the circuit type and must be
	given.  Other layers commit to an aggregation.  NOTE: the setup is not
	trusted and is intended for testing only.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 2 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		//
		layer, t := getLayerAndType(cmd)
		elements := GetUint(cmd, "elements")
		//
		if layer != recursion.BASE {
			elements = recursion.AGGREGATION_ELEMENTS
		} else if elements == 0 {
			exitOnError(fault.Contract("base layer requires --elements"))
		}
		//
		keys, err := groth16.Setup(layer, t, elements)
		exitOnError(err)
		// Write proving key
		file, err := os.Create(args[0])
		exitOnError(err)
		//
		defer file.Close()
		//
		_, err = keys.WriteTo(file)
		exitOnError(err)
		// Write verification key
		vk, err := keys.VerificationKey()
		exitOnError(err)
		exitOnError(writeKeyFile(args[1], vk))
	},
}

// Determine the layer and circuit type from the command-line flags.
func getLayerAndType(cmd *cobra.Command) (recursion.LayerKind, circuit.Type) {
	layer, err := recursion.ParseLayerKind(GetString(cmd, "layer"))
	exitOnError(err)
	//
	t, err := circuit.ParseType(GetString(cmd, "type"))
	exitOnError(err)
	//
	return layer, t
}

func init() {
	rootCmd.AddCommand(setupCmd)
	setupCmd.Flags().String("layer", "base", "recursion layer (base, leaf, node)")
	setupCmd.Flags().String("type", "main_vm", "circuit type")
	setupCmd.Flags().Uint("elements", 0, "number of elements committed to (base layer only)")
}
