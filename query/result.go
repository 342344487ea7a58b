// Copyright (c) 2023 The KBase Project and its Contributors
// Copyright (c) 2023 Cohere Consulting, LLC
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package query

import (
	"fmt"
	"slices"

	"github.com/itchyny/gojq"
)

// the assembled results of a query: file metadata records for all searched
// projects, in project order
type Result struct {
	// projects searched, in order
	Projects []string `json:"projects"`
	// data category searched
	DataCategory string `json:"data_category"`
	// one file metadata record per row
	Rows []map[string]any `json:"rows"`
}

// returns the number of rows
func (r Result) Len() int {
	return len(r.Rows)
}

// returns the values in the given column (nil where a row lacks it)
func (r Result) Column(name string) []any {
	column := make([]any, len(r.Rows))
	for i, row := range r.Rows {
		column[i] = row[name]
	}
	return column
}

// returns the names of all columns present in any row, sorted
func (r Result) Columns() []string {
	var names []string
	for _, row := range r.Rows {
		for name := range row {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	slices.Sort(names)
	return names
}

// applies a jq expression to the rows (as a JSON array) and returns the
// values it produces
func (r Result) Select(expression string) ([]any, error) {
	parsed, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}

	input := make([]any, len(r.Rows))
	for i, row := range r.Rows {
		input[i] = row
	}

	values := make([]any, 0)
	iter := code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := v.(error); isErr {
			return nil, fmt.Errorf("jq: %w", err)
		}
		values = append(values, v)
	}
	return values, nil
}
