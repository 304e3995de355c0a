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
	"fmt"
	"os"

	"github.com/consensys/go-witness/pkg/circuit"
	"github.com/consensys/go-witness/pkg/instance"
	"github.com/consensys/go-witness/pkg/recursion"
	"github.com/consensys/go-witness/pkg/util/termio"
	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] trace_file",
	Short: "Build the circuit instances for a given trace.",
	Long: `Build the circuit instances for a given trace, according to the circuit
	geometry.  This reports the number of instances of each circuit type, along
	with the root of its recursion tree.  Optionally, the closed form of every
	instance can be written out.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		//
		var (
			artifact, set = assembleTraceFile(cmd, args[0])
			queues        = recursion.BuildQueues(set, getKeyCommitments(cmd), artifact.Config().Absorber)
			fanIn         = GetUint(cmd, "fan-in")
			output        = GetString(cmd, "output")
		)
		//
		table := termio.NewTable("type", "instances", "leaves", "root")
		//
		for _, q := range queues {
			root, err := recursion.Aggregate(q, fanIn)
			exitOnError(err)
			//
			commitment := root.Commitment()
			table.AddRow(q.Type.String(), fmt.Sprint(q.Len()), fmt.Sprint(len(root.Leaves())), commitment.Text(16))
		}
		//
		printTable(table)
		//
		if output != "" {
			bytes, err := json.MarshalIndent(summarise(set), "", "  ")
			exitOnError(err)
			exitOnError(os.WriteFile(output, bytes, 0644))
		}
	},
}

// instanceSummary is the JSON notation for an assembled instance.
type instanceSummary struct {
	Type       string `json:"type"`
	Index      uint   `json:"index"`
	Size       uint   `json:"size"`
	Start      bool   `json:"start"`
	Complete   bool   `json:"complete"`
	Commitment string `json:"commitment"`
}

func summarise(set *instance.Set) []instanceSummary {
	var summaries []instanceSummary
	//
	for _, t := range circuit.TYPES {
		for _, inst := range set.Of(t) {
			var (
				closed     = inst.ClosedForm()
				commitment = closed.Commitment()
			)
			//
			summaries = append(summaries, instanceSummary{
				t.String(), closed.Index, inst.Size(), closed.StartFlag, closed.CompletionFlag,
				commitment.Text(16),
			})
		}
	}
	//
	return summaries
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().Uint("fan-in", 32, "number of proofs folded by each leaf / node")
	buildCmd.Flags().StringP("output", "o", "", "write closed forms to file")
	buildCmd.Flags().StringArray("vk", nil, "base layer verification key file (repeatable)")
}
