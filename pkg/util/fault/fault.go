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
package fault

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure raised by the witness generation core.  Kinds
// determine how a caller should react: contract violations and consistency
// failures abort the job, capacity failures indicate a misconfigured geometry
// and malformed inputs indicate a bad trace producer.
type Kind uint8

const (
	// CONTRACT_VIOLATION indicates a caller broke a precondition (e.g. a
	// regressing scanner range, or a timestamp which does not increase).
	CONTRACT_VIOLATION Kind = iota
	// CONSISTENCY_FAILURE indicates a self-check failed, such as a mismatch
	// between an independently recomputed sort and the produced one.
	CONSISTENCY_FAILURE
	// CAPACITY_EXHAUSTED indicates the geometry cannot hold the job.
	CAPACITY_EXHAUSTED
	// MALFORMED_INPUT indicates a record which cannot be interpreted.
	MALFORMED_INPUT
)

func (k Kind) String() string {
	switch k {
	case CONTRACT_VIOLATION:
		return "contract violation"
	case CONSISTENCY_FAILURE:
		return "consistency failure"
	case CAPACITY_EXHAUSTED:
		return "capacity exhausted"
	case MALFORMED_INPUT:
		return "malformed input"
	}
	//
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// NO_INDEX signals an error which is not associated with any particular
// element of a stream.
const NO_INDEX = -1

// Error is the concrete error type raised by the core.  Consistency failures
// carry the offending index and key, such that a failure can be reproduced.
type Error struct {
	// Kind of failure
	Kind Kind
	// Human readable description
	Message string
	// Index of the offending element (or NO_INDEX).
	Index int
	// Key of the offending element (or empty).
	Key string
}

func (e *Error) Error() string {
	var msg = fmt.Sprintf("%s: %s", e.Kind, e.Message)
	//
	if e.Index != NO_INDEX {
		msg = fmt.Sprintf("%s (index %d)", msg, e.Index)
	}
	//
	if e.Key != "" {
		msg = fmt.Sprintf("%s (key %s)", msg, e.Key)
	}
	//
	return msg
}

// Contract constructs a contract violation.
func Contract(format string, args ...any) error {
	return &Error{CONTRACT_VIOLATION, fmt.Sprintf(format, args...), NO_INDEX, ""}
}

// ContractAt constructs a contract violation at a given index / key.
func ContractAt(index int, key string, format string, args ...any) error {
	return &Error{CONTRACT_VIOLATION, fmt.Sprintf(format, args...), index, key}
}

// Consistency constructs a consistency failure at a given index / key.
func Consistency(index int, key string, format string, args ...any) error {
	return &Error{CONSISTENCY_FAILURE, fmt.Sprintf(format, args...), index, key}
}

// Capacity constructs a capacity failure.
func Capacity(format string, args ...any) error {
	return &Error{CAPACITY_EXHAUSTED, fmt.Sprintf(format, args...), NO_INDEX, ""}
}

// Malformed constructs a malformed input failure.
func Malformed(format string, args ...any) error {
	return &Error{MALFORMED_INPUT, fmt.Sprintf(format, args...), NO_INDEX, ""}
}

// As extracts the underlying fault (if any) from an error, looking through
// any wrapping added on the way up.
func As(err error) (*Error, bool) {
	var f *Error
	//
	if errors.As(err, &f) {
		return f, true
	}
	//
	return nil, false
}

// IsKind checks whether a given error is (or wraps) a fault of the given kind.
func IsKind(err error, kind Kind) bool {
	if f, ok := As(err); ok {
		return f.Kind == kind
	}
	//
	return false
}
