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
package termio

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Table is useful for printing summaries to the terminal.  Columns are right
// aligned, and cells which exceed their column's width are truncated.
type Table struct {
	widths []uint
	rows   [][]string
}

// NewTable constructs a new table with a given header row.
func NewTable(headers ...string) *Table {
	var table = &Table{make([]uint, len(headers)), nil}
	//
	table.AddRow(headers...)
	//
	return table
}

// AddRow appends a row to this table, which must have one value per column.
func (p *Table) AddRow(vals ...string) {
	if len(vals) != len(p.widths) {
		panic("incorrect number of columns")
	}
	// Update column widths
	for i, val := range vals {
		p.widths[i] = max(p.widths[i], uint(len(val)))
	}
	//
	p.rows = append(p.rows, vals)
}

// Height returns the number of rows in this table (including the header).
func (p *Table) Height() uint {
	return uint(len(p.rows))
}

// SetMaxWidth puts an upper bound on the width of a given column.
func (p *Table) SetMaxWidth(col uint, width uint) {
	p.widths[col] = min(p.widths[col], max(width, 2))
}

// Width returns the number of characters in each printed line.
func (p *Table) Width() uint {
	var width uint
	//
	for _, w := range p.widths {
		width += w + 3
	}
	//
	return width
}

// FitTo shrinks the last column of this table such that each printed line
// fits within a given width (where possible).
func (p *Table) FitTo(width uint) {
	var (
		last   = uint(len(p.widths) - 1)
		excess = p.Width()
	)
	//
	if excess > width {
		excess -= width
		//
		if p.widths[last] > excess {
			p.SetMaxWidth(last, p.widths[last]-excess)
		} else {
			p.SetMaxWidth(last, 2)
		}
	}
}

// Print this table to a given writer.
func (p *Table) Print(w io.Writer) {
	for _, row := range p.rows {
		var builder strings.Builder
		//
		for j, col := range row {
			width := int(p.widths[j])
			// Print data
			if len(col) > width {
				fmt.Fprintf(&builder, " %*s..", width-2, col[0:width-2])
			} else {
				fmt.Fprintf(&builder, " %*s", width, col)
			}
			//
			builder.WriteString(" |")
		}
		//
		fmt.Fprintln(w, builder.String())
	}
}

// TerminalWidth returns the width of the terminal attached to stdout, or false
// if stdout is not a terminal.
func TerminalWidth() (uint, bool) {
	var fd = int(os.Stdout.Fd())
	//
	if !term.IsTerminal(fd) {
		return 0, false
	}
	//
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return 0, false
	}
	//
	return uint(width), true
}
