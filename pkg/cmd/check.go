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

	"github.com/consensys/go-witness/pkg/query"
	"github.com/consensys/go-witness/pkg/util/termio"
	"github.com/consensys/go-witness/pkg/witness"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] trace_file",
	Short: "Check a given trace can be processed.",
	Long: `Check a given trace can be processed.  This demultiplexes, sorts and
	deduplicates every query stream, expands every precompile call and runs all
	self-checks.  A summary of each stream is printed on success.`,
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) != 1 {
			fmt.Println(cmd.UsageString())
			os.Exit(1)
		}
		//
		var (
			artifact = readTraceFile(cmd, args[0])
			table    = termio.NewTable("stream", "queries", "deduplicated")
		)
		//
		table.AddRow("memory", fmt.Sprint(artifact.MemoryQueue().Len()),
			fmt.Sprint(artifact.Memory().Deduplicated.Len()))
		table.AddRow("decommittments", fmt.Sprint(artifact.DecommittmentQueue().Len()),
			fmt.Sprint(artifact.Decommittments().Deduplicated.Len()))
		table.AddRow("log", fmt.Sprint(artifact.LogQueue().Len()), "-")
		//
		for dst := query.Destination(0); dst < query.NUM_DESTINATIONS; dst++ {
			table.AddRow(dst.String(), fmt.Sprint(artifact.DemuxedQueue(dst).Len()), dedupOf(artifact, dst))
		}
		//
		printTable(table)
	},
}

// Determine the number of deduplicated queries for a given destination, where
// this makes sense.
func dedupOf(artifact *witness.FullTraceArtifact, dst query.Destination) string {
	switch dst {
	case query.ROLLUP_STORAGE:
		return fmt.Sprint(artifact.Storage().Deduplicated.Len())
	case query.TRANSIENT_STORAGE:
		return fmt.Sprint(artifact.TransientStorage().Deduplicated.Len())
	case query.EVENTS:
		return fmt.Sprint(artifact.Events().Deduplicated.Len())
	case query.L1_MESSAGES:
		return fmt.Sprint(artifact.L1Messages().Deduplicated.Len())
	}
	//
	return "-"
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
