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
package recursion

import "fmt"

// LayerKind identifies a layer of the recursion tree.  Base proofs are folded
// by leaves, leaves (and nodes) by nodes, and the roots of every circuit type
// by the scheduler.
type LayerKind uint8

const (
	BASE LayerKind = iota
	LEAF
	NODE
	SCHEDULER
	// NUM_LAYERS is the number of layer kinds.
	NUM_LAYERS
)

var layerNames = [NUM_LAYERS]string{"base", "leaf", "node", "scheduler"}

func (k LayerKind) String() string {
	if k < NUM_LAYERS {
		return layerNames[k]
	}
	//
	return fmt.Sprintf("layer(%d)", uint8(k))
}

// ParseLayerKind determines the layer with the given name.
func ParseLayerKind(name string) (LayerKind, error) {
	for i, n := range layerNames {
		if n == name {
			return LayerKind(i), nil
		}
	}
	//
	return 0, fmt.Errorf("unknown layer \"%s\"", name)
}
