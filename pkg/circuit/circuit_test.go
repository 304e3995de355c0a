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
package circuit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/consensys/go-witness/pkg/query"
	"github.com/stretchr/testify/require"
)

func Test_Type_01(t *testing.T) {
	for _, ty := range TYPES {
		parsed, err := ParseType(ty.String())
		require.NoError(t, err)
		require.Equal(t, ty, parsed)
	}
	//
	_, err := ParseType("fft")
	require.Error(t, err)
}

func Test_Type_02(t *testing.T) {
	for _, dst := range query.PRECOMPILES {
		ty := ForDestination(dst)
		require.True(t, ty.IsPrecompile())
		require.Equal(t, dst.String(), ty.String())
	}
	//
	require.Equal(t, STORAGE_SORTER, ForDestination(query.ROLLUP_STORAGE))
	require.False(t, L1_MESSAGES_HASHER.IsPrecompile())
	require.False(t, CODE_DECOMMITTER.IsPrecompile())
}

func Test_Geometry_01(t *testing.T) {
	g := DefaultGeometry()
	require.NoError(t, g.Validate())
	require.Equal(t, uint(5713), g.Capacity(MAIN_VM))
	//
	h := g.With(MAIN_VM, 10).WithMaxInstances(MAIN_VM, 2)
	require.Equal(t, uint(10), h.Capacity(MAIN_VM))
	require.Equal(t, uint(2), h.MaxInstances(MAIN_VM))
	// Original unchanged
	require.Equal(t, uint(5713), g.Capacity(MAIN_VM))
	require.Equal(t, uint(UNLIMITED), g.MaxInstances(MAIN_VM))
	//
	require.Error(t, g.With(ECADD, 0).Validate())
}

func Test_Geometry_02(t *testing.T) {
	g := DefaultGeometry().With(KECCAK256, 3).WithMaxInstances(ECPAIRING, 1)
	bytes, err := json.Marshal(g)
	require.NoError(t, err)
	//
	filename := filepath.Join(t.TempDir(), "geometry.json")
	require.NoError(t, os.WriteFile(filename, bytes, 0o600))
	//
	h, err := LoadGeometry(filename)
	require.NoError(t, err)
	require.Equal(t, g, h)
}

func Test_Geometry_03(t *testing.T) {
	var g Geometry
	//
	require.NoError(t, json.Unmarshal([]byte(`{"sha256":{"capacity":7}}`), &g))
	require.Equal(t, uint(7), g.Capacity(SHA256))
	require.Equal(t, DefaultGeometry().Capacity(MODEXP), g.Capacity(MODEXP))
	//
	require.Error(t, json.Unmarshal([]byte(`{"blake":{"capacity":7}}`), &g))
	require.Error(t, json.Unmarshal([]byte(`{"sha256":{"capacity":0}}`), &g))
}
