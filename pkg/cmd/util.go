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
	"github.com/consensys/go-witness/pkg/circuit"
	"github.com/consensys/go-witness/pkg/instance"
	"github.com/consensys/go-witness/pkg/queue"
	"github.com/consensys/go-witness/pkg/recursion"
	"github.com/consensys/go-witness/pkg/sorter"
	"github.com/consensys/go-witness/pkg/trace/json"
	"github.com/consensys/go-witness/pkg/util"
	"github.com/consensys/go-witness/pkg/util/fault"
	"github.com/consensys/go-witness/pkg/util/field"
	"github.com/consensys/go-witness/pkg/util/termio"
	"github.com/consensys/go-witness/pkg/witness"
	"github.com/spf13/cobra"
)

// GetFlag gets an expected flag, or exits if an error arises.
func GetFlag(cmd *cobra.Command, flag string) bool {
	r, err := cmd.Flags().GetBool(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetUint gets an expected unsigned integer, or exits if an error arises.
func GetUint(cmd *cobra.Command, flag string) uint {
	r, err := cmd.Flags().GetUint(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetUint64 gets an expected 64bit unsigned integer, or exits if an error
// arises.
func GetUint64(cmd *cobra.Command, flag string) uint64 {
	r, err := cmd.Flags().GetUint64(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetString gets an expected string, or exits if an error arises.
func GetString(cmd *cobra.Command, flag string) string {
	r, err := cmd.Flags().GetString(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// GetStringArray gets an expected string array, or exits if an error arises.
func GetStringArray(cmd *cobra.Command, flag string) []string {
	r, err := cmd.Flags().GetStringArray(flag)
	if err != nil {
		fmt.Println(err)
		os.Exit(2)
	}

	return r
}

// Determine the processing configuration from the command-line flags.
func getConfig(cmd *cobra.Command) witness.Config {
	policy, err := sorter.PolicyByName(GetString(cmd, "policy"))
	exitOnError(err)
	//
	absorber, err := queue.AbsorberByName(GetString(cmd, "absorber"))
	exitOnError(err)
	//
	return witness.Config{Policy: policy, Absorber: absorber}
}

// Determine the circuit geometry from the command-line flags.
func getGeometry(cmd *cobra.Command) circuit.Geometry {
	filename := GetString(cmd, "geometry")
	//
	if filename == "" {
		return circuit.DefaultGeometry()
	}
	//
	geometry, err := circuit.LoadGeometry(filename)
	exitOnError(err)
	//
	return geometry
}

// Determine the verification key commitment of every circuit type from the
// base layer key files given on the command line.  Types without a key file
// have a zero commitment.
func getKeyCommitments(cmd *cobra.Command) *recursion.KeyCommitments {
	var keys recursion.KeyCommitments
	//
	for _, filename := range GetStringArray(cmd, "vk") {
		vk, err := readKeyFile(filename)
		exitOnError(err)
		exitOnError(keys.Set(vk))
	}
	//
	return &keys
}

// Read a trace file and process it.
func readTraceFile(cmd *cobra.Command, filename string) *witness.FullTraceArtifact {
	var (
		artifact = witness.NewFullTraceArtifact()
		stats    = util.NewPerfStats()
	)
	//
	file, err := os.Open(filename)
	exitOnError(err)
	//
	defer file.Close()
	//
	_, err = json.ReadTrace(file, artifact)
	exitOnError(err)
	//
	stats.Log("Reading trace file")
	exitOnError(artifact.Process(getConfig(cmd)))
	//
	return artifact
}

// Read a trace file, process it and assemble its instances.
func assembleTraceFile(cmd *cobra.Command, filename string) (*witness.FullTraceArtifact, *instance.Set) {
	artifact := readTraceFile(cmd, filename)
	//
	assembler, err := instance.NewAssembler(artifact, getGeometry(cmd))
	exitOnError(err)
	//
	set, err := assembler.Assemble()
	exitOnError(err)
	//
	return artifact, set
}

// Report an error (if any) and exit.  Faults determine the exit code, so that
// callers can distinguish a bad trace from a bad configuration.
func exitOnError(err error) {
	if err == nil {
		return
	}
	//
	fmt.Println(err)
	//
	if f, ok := fault.As(err); ok {
		os.Exit(3 + int(f.Kind))
	}
	//
	os.Exit(2)
}

func hashPreimage(preimage []fr.Element) fr.Element {
	return field.HashElements(preimage...)
}

// Print a table to stdout, fitting it to the terminal (if there is one).
func printTable(table *termio.Table) {
	if width, ok := termio.TerminalWidth(); ok {
		table.FitTo(width)
	}
	//
	table.Print(os.Stdout)
}
