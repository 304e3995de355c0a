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
package scan

import (
	"fmt"
	"math"

	"github.com/consensys/go-witness/pkg/util/fault"
)

// Range is a half-open range [Start, End) of indices into an array.
type Range struct {
	Start uint
	End   uint
}

// Len returns the number of indices covered by this range.
func (r Range) Len() uint {
	return r.End - r.Start
}

func (r Range) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// AdvancingRange finds ranges in an array without iterating over the entire
// array every time.  Every element has a key (e.g. a cycle number) and keys are
// assumed to be in non-decreasing order.  Successive requests must not move
// either end of the requested window backwards, hence each cursor only ever
// advances and all requests together take O(n) time for n elements.
type AdvancingRange[T any] struct {
	data []T
	key  func(T) uint32
	// cursors
	start uint
	end   uint
	// previously requested window
	lo uint32
	hi uint32
}

// NewAdvancingRange constructs a scanner over a given array, using a given
// function to extract the key of each element.
func NewAdvancingRange[T any](data []T, key func(T) uint32) *AdvancingRange[T] {
	return &AdvancingRange[T]{data: data, key: key}
}

// NewKeyRange constructs a scanner over an array of keys.
func NewKeyRange(keys []uint32) *AdvancingRange[uint32] {
	return NewAdvancingRange(keys, func(k uint32) uint32 { return k })
}

// GetRange returns the range of elements whose key lies within [lo, hi).  It
// is an error for lo or hi to be less than in the previous call, or for lo to
// exceed hi.
func (p *AdvancingRange[T]) GetRange(lo uint32, hi uint32) (Range, error) {
	if lo < p.lo || hi < p.hi {
		return Range{}, fault.Contract("scanner window [%d,%d) regresses from [%d,%d)", lo, hi, p.lo, p.hi)
	} else if lo > hi {
		return Range{}, fault.Contract("scanner window [%d,%d) is inverted", lo, hi)
	}
	//
	p.lo, p.hi = lo, hi
	p.start = p.advance(p.start, lo)
	p.end = p.advance(max(p.start, p.end), hi)
	//
	return Range{p.start, p.end}, nil
}

// GetTail returns the range of every remaining element whose key is at least
// lo.  This is the only way to include elements keyed math.MaxUint32.  No
// further window can be requested afterwards, except another tail.
func (p *AdvancingRange[T]) GetTail(lo uint32) (Range, error) {
	if lo < p.lo {
		return Range{}, fault.Contract("scanner tail [%d,..) regresses from [%d,%d)", lo, p.lo, p.hi)
	}
	//
	p.lo, p.hi = lo, math.MaxUint32
	p.start = p.advance(p.start, lo)
	p.end = uint(len(p.data))
	//
	return Range{p.start, p.end}, nil
}

// GetSlice returns the elements whose key lies within [lo, hi), subject to the
// same constraints as GetRange.
func (p *AdvancingRange[T]) GetSlice(lo uint32, hi uint32) ([]T, error) {
	r, err := p.GetRange(lo, hi)
	//
	if err != nil {
		return nil, err
	}
	//
	return p.data[r.Start:r.End], nil
}

// Move a cursor forward past all elements with key below a given bound.
func (p *AdvancingRange[T]) advance(cursor uint, bound uint32) uint {
	for cursor < uint(len(p.data)) && p.key(p.data[cursor]) < bound {
		cursor++
	}
	//
	return cursor
}
