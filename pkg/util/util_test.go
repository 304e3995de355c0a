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
package util

import (
	"errors"
	"math/rand/v2"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_ParExec_01(t *testing.T) {
	var (
		order []uint
		jobs  = []*testJob{{id: 0}, {id: 1, deps: []uint{0}}, {id: 2, deps: []uint{0}}, {id: 3, deps: []uint{1, 2}}}
		count atomic.Int32
	)
	//
	for _, j := range jobs {
		j.count = &count
		j.others = jobs
	}
	//
	require.NoError(t, ParExec(jobs))
	require.Equal(t, int32(4), count.Load())
	// Dependencies ran first
	for _, j := range jobs {
		for _, d := range j.deps {
			require.Less(t, jobs[d].wave, j.wave)
		}
		//
		order = append(order, j.wave)
	}
	//
	require.Equal(t, []uint{1, 2, 2, 3}, order)
}

func Test_ParExec_02(t *testing.T) {
	var count atomic.Int32
	//
	jobs := []*testJob{{id: 0, fail: true, count: &count}, {id: 1, deps: []uint{0}, count: &count}}
	require.Error(t, ParExec(jobs))
	require.Equal(t, int32(1), count.Load())
}

func Test_ParExec_03(t *testing.T) {
	var count atomic.Int32
	// Cyclic dependencies never become ready.
	jobs := []*testJob{{id: 0, deps: []uint{1}, count: &count}, {id: 1, deps: []uint{0}, count: &count}}
	require.Error(t, ParExec(jobs))
}

func Test_Option_01(t *testing.T) {
	require.Equal(t, 3, Some(3).Unwrap())
	require.True(t, None[int]().IsEmpty())
	require.Equal(t, 4, None[int]().UnwrapOr(4))
	require.Panics(t, func() { None[int]().Unwrap() })
}

func Test_Random_01(t *testing.T) {
	var (
		lhs = GenerateRandomInputs(rand.New(rand.NewPCG(1, 2)), 100, 3)
		rhs = GenerateRandomInputs(rand.New(rand.NewPCG(1, 2)), 100, 3)
	)
	// Same seed, same inputs
	require.Equal(t, lhs, rhs)
	//
	for _, v := range lhs {
		require.Less(t, v, uint(3))
	}
	//
	require.Len(t, GenerateRandomBytes(rand.New(rand.NewPCG(3, 4)), 17), 17)
}

// ============================================================================
// Test Helpers
// ============================================================================

type testJob struct {
	id     uint
	deps   []uint
	fail   bool
	wave   uint
	count  *atomic.Int32
	// all jobs, used to determine the wave
	others []*testJob
}

func (p *testJob) Jobs() []uint {
	return []uint{p.id}
}

func (p *testJob) Dependencies() []uint {
	return p.deps
}

func (p *testJob) Run() error {
	p.count.Add(1)
	// Waves are numbered from one, after the deepest dependency.
	p.wave = 1
	//
	for _, d := range p.deps {
		p.wave = max(p.wave, p.others[d].wave+1)
	}
	//
	if p.fail {
		return errors.New("failed")
	}
	//
	return nil
}
