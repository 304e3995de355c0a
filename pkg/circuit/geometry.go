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
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// UNLIMITED indicates there is no limit on the number of instances of a
// given circuit type.
const UNLIMITED = 0

// Limits determines how much a given circuit type can hold.  Capacity is
// measured in the unit natural to that type: cycles for the VM, queue
// elements for demuxing and sorting, and rounds for precompiles.
type Limits struct {
	Capacity     uint `json:"capacity"`
	MaxInstances uint `json:"max_instances,omitempty"`
}

// Geometry fixes the capacity of every circuit type.  A geometry is an
// immutable value, and is shared freely between concurrent jobs.
type Geometry struct {
	limits [NUM_TYPES]Limits
}

var defaultCapacities = [NUM_TYPES]uint{
	MAIN_VM:                    5713,
	CODE_DECOMMITTMENTS_SORTER: 117500,
	CODE_DECOMMITTER:           2048,
	LOG_DEMUXER:                58750,
	RAM_PERMUTATION:            136714,
	STORAGE_SORTER:             46921,
	EVENTS_SORTER:              31287,
	L1_MESSAGES_SORTER:         31287,
	TRANSIENT_STORAGE_SORTER:   50875,
	KECCAK256:                  293,
	SHA256:                     2087,
	ECRECOVER:                  2,
	SECP256R1_VERIFY:           4,
	ECADD:                      1,
	ECMUL:                      1,
	ECPAIRING:                  4,
	MODEXP:                     6400,
	L1_MESSAGES_HASHER:         774,
}

// DefaultGeometry returns the geometry used in production, with no limits on
// the number of instances.
func DefaultGeometry() Geometry {
	var g Geometry
	//
	for i, c := range defaultCapacities {
		g.limits[i] = Limits{c, UNLIMITED}
	}
	//
	return g
}

// Capacity returns the capacity of a single instance of a given type.
func (g Geometry) Capacity(t Type) uint {
	return g.limits[t].Capacity
}

// MaxInstances returns the maximum number of instances of a given type, or
// UNLIMITED.
func (g Geometry) MaxInstances(t Type) uint {
	return g.limits[t].MaxInstances
}

// With returns a copy of this geometry where a given type has a given
// capacity.
func (g Geometry) With(t Type, capacity uint) Geometry {
	g.limits[t].Capacity = capacity
	return g
}

// WithMaxInstances returns a copy of this geometry where a given type has a
// limited number of instances.
func (g Geometry) WithMaxInstances(t Type, n uint) Geometry {
	g.limits[t].MaxInstances = n
	return g
}

// Validate checks every capacity is non-zero.
func (g Geometry) Validate() error {
	for _, t := range TYPES {
		if g.limits[t].Capacity == 0 {
			return fmt.Errorf("zero capacity for %s", t)
		}
	}
	//
	return nil
}

// MarshalJSON encodes a geometry as an object keyed by circuit type name.
func (g Geometry) MarshalJSON() ([]byte, error) {
	m := make(map[string]Limits)
	//
	for _, t := range TYPES {
		m[t.String()] = g.limits[t]
	}
	//
	return json.Marshal(m)
}

// UnmarshalJSON decodes a geometry from an object keyed by circuit type name.
// Types not mentioned keep their default limits.
func (g *Geometry) UnmarshalJSON(bytes []byte) error {
	var m map[string]Limits
	//
	if err := json.Unmarshal(bytes, &m); err != nil {
		return err
	}
	//
	*g = DefaultGeometry()
	//
	for name, limits := range m {
		t, err := ParseType(name)
		if err != nil {
			return err
		}
		//
		g.limits[t] = limits
	}
	//
	return g.Validate()
}

// LoadGeometry reads a geometry from a JSON file.
func LoadGeometry(filename string) (Geometry, error) {
	var g Geometry
	//
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return g, err
	}
	//
	if err = json.Unmarshal(bytes, &g); err != nil {
		return g, errors.Wrapf(err, "invalid geometry %s", filename)
	}
	//
	return g, nil
}
