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

package gdc

import (
	"fmt"
	"log/slog"
	"slices"
)

// the closed vocabulary of data types produced by the GDC harmonization
// pipeline
var HarmonizedDataTypes = []string{
	"Gene Expression Quantification",
	"Copy Number Segment",
	"Masked Copy Number Segment",
	"Isoform Expression Quantification",
	"miRNA Expression Quantification",
	"Biospecimen Supplement",
	"Gene Level Copy Number Scores",
	"Clinical Supplement",
	"Masked Somatic Mutation",
}

// checks that the given list of projects is non-empty and that every project
// is known to the GDC (asking the GDC for its project list on each call)
func (c *Client) ValidateProjects(projects []string) error {
	if len(projects) == 0 {
		return &InvalidProjectError{
			Message: "no projects were given",
		}
	}
	validProjects, err := c.Projects()
	if err != nil {
		return err
	}
	for _, project := range projects {
		if !slices.Contains(validProjects, project) {
			return &InvalidProjectError{
				Project: project,
				Message: "not a GDC project",
			}
		}
	}
	return nil
}

// checks that the given data type belongs to the harmonized vocabulary
func ValidateDataType(dataType string) error {
	if !slices.Contains(HarmonizedDataTypes, dataType) {
		return &InvalidParameterError{
			Parameter: "data_type",
			Value:     dataType,
			Message:   "not a harmonized data type",
		}
	}
	return nil
}

// checks that the given data category is present in the category summary of
// every one of the given projects. This costs one GDC request per project.
func (c *Client) ValidateDataCategory(projects []string, category string, legacy bool) error {
	if category == "" {
		return &InvalidParameterError{
			Parameter: "data_category",
			Message:   "no data category was given",
		}
	}
	for _, project := range projects {
		summary, err := c.CategorySummary(project, legacy)
		if err != nil {
			return err
		}
		if _, found := FindCategory(summary, category); !found {
			validCategories := make([]string, len(summary))
			for i, s := range summary {
				validCategories[i] = s.DataCategory
			}
			slog.Debug(fmt.Sprintf("Data categories for %s: %v", project, validCategories))
			return &InvalidParameterError{
				Parameter: "data_category",
				Value:     category,
				Message:   fmt.Sprintf("not available for project %s", project),
			}
		}
	}
	return nil
}
