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

	"github.com/consensys/go-witness/pkg/trace/json"
	"github.com/consensys/go-witness/pkg/witness"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate [flags] trace_file",
	Short: "generate a random (but well-formed) trace.",
	Long: `Generate a random trace which respects every invariant of the VM, and write
	it out in JSON notation.  This is useful for testing and benchmarking.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		//
		shape := witness.TraceShape{
			Cycles:    GetUint(cmd, "cycles"),
			Slots:     GetUint(cmd, "slots"),
			Contracts: GetUint(cmd, "contracts"),
			Seed:      GetUint64(cmd, "seed"),
		}
		//
		file, err := os.Create(args[0])
		exitOnError(err)
		//
		defer file.Close()
		//
		writer := json.NewWriter(file)
		exitOnError(witness.GenerateTrace(shape, writer))
		exitOnError(writer.Flush())
		//
		fmt.Printf("wrote %d queries over %d cycles\n", writer.Count(), shape.Cycles)
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().Uint("cycles", 1000, "number of VM cycles")
	generateCmd.Flags().Uint("slots", 16, "number of distinct storage slots")
	generateCmd.Flags().Uint("contracts", 4, "number of distinct contracts")
	generateCmd.Flags().Uint64("seed", 0, "seed for random number generation")
}
