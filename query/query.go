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

// Package query builds GDC file searches from a small set of logical filters,
// validating them against live GDC reference data, and assembles the results
// of per-project searches into a single table.
package query

import (
	"fmt"
	"log/slog"
	"maps"
	"strings"

	"github.com/kbase/gdc/config"
	"github.com/kbase/gdc/gdc"
)

// FilterSpec maps each logical filter name onto the GDC field it filters.
// Names absent from this table are never translated into predicates.
var FilterSpec = map[string]string{
	"projects":              "cases.project.project_id",
	"data_category":         "files.data_category",
	"data_type":             "files.data_type",
	"workflow_type":         "files.analysis.workflow_type",
	"file_type":             "files.file_type",
	"experimental_strategy": "files.experimental_strategy",
	"platform":              "files.platform",
	"data_format":           "files.data_format",
}

// order in which validated filters appear in a filter expression
var filterOrder = []string{
	"data_category",
	"data_type",
	"workflow_type",
	"file_type",
	"experimental_strategy",
	"platform",
	"data_format",
}

// The GDC only serves clinical records as BCR XML "Clinical Supplement"
// files, so queries for the Clinical category always filter on these.
const (
	ClinicalDataType   = "Clinical Supplement"
	ClinicalDataFormat = "BCR XML"
)

// search parameters supplied by a caller
type Params struct {
	Projects             []string `json:"projects" doc:"GDC project IDs (e.g. TCGA-BRCA)"`
	DataCategory         string   `json:"data_category" example:"Transcriptome Profiling" doc:"GDC data category"`
	DataType             string   `json:"data_type,omitempty" example:"Gene Expression Quantification" doc:"harmonized data type"`
	WorkflowType         string   `json:"workflow_type,omitempty" example:"STAR - Counts" doc:"analysis workflow type"`
	FileType             string   `json:"file_type,omitempty" doc:"file type"`
	ExperimentalStrategy string   `json:"experimental_strategy,omitempty" example:"RNA-Seq" doc:"experimental strategy"`
	Platform             string   `json:"platform,omitempty" example:"Illumina" doc:"sequencing or array platform"`
	DataFormat           string   `json:"data_format,omitempty" example:"TSV" doc:"file data format"`
	SampleType           string   `json:"sample_type,omitempty" doc:"sample type (recorded, not filtered)"`
	Barcode              string   `json:"barcode,omitempty" doc:"case barcode (recorded, not filtered)"`
	Access               string   `json:"access,omitempty" doc:"access level (recorded, not filtered)"`
	Legacy               bool     `json:"legacy,omitempty" doc:"search the legacy GDC namespace"`
}

// a single "value in set" predicate
type Predicate struct {
	Op      string           `json:"op"`
	Content PredicateContent `json:"content"`
}

type PredicateContent struct {
	Field string   `json:"field"`
	Value []string `json:"value"`
}

// a conjunction of predicates, in the GDC filter format
type FilterExpression struct {
	Op      string      `json:"op"`
	Content []Predicate `json:"content"`
}

// fields and nested objects requested from a file search
type ResponseShape struct {
	Fields []string
	Expand []string
}

// A Query holds validated search parameters for one or more projects. It is
// created by New and doesn't change afterward.
type Query struct {
	// client used for validation and searches
	Client *gdc.Client
	// projects searched, in order
	Projects []string
	// data category searched
	DataCategory string
	// if true, searches use the legacy namespace
	Legacy bool
	// accepted but not used as filters
	SampleType, Barcode, Access string
	// number of hits requested per project (0 = the category's file count)
	MaxResults int
	// if set, called after each project is searched
	OnProject func(project string, hits int)

	validParam map[string]string
}

// creates a new query, validating the projects and data category against the
// GDC and the data type against the harmonized vocabulary
func New(client *gdc.Client, params Params) (*Query, error) {
	err := client.ValidateProjects(params.Projects)
	if err != nil {
		return nil, err
	}
	err = client.ValidateDataCategory(params.Projects, params.DataCategory, params.Legacy)
	if err != nil {
		return nil, err
	}

	validParam := make(map[string]string)
	if params.DataCategory == "Clinical" {
		if params.DataType != "" && params.DataType != ClinicalDataType {
			slog.Warn(fmt.Sprintf("Ignoring data type '%s' for Clinical data (using '%s')",
				params.DataType, ClinicalDataType))
		}
		if params.DataFormat != "" && params.DataFormat != ClinicalDataFormat {
			slog.Warn(fmt.Sprintf("Ignoring data format '%s' for Clinical data (using '%s')",
				params.DataFormat, ClinicalDataFormat))
		}
		validParam["data_type"] = ClinicalDataType
		validParam["data_format"] = ClinicalDataFormat
	} else {
		if params.DataType != "" {
			err = gdc.ValidateDataType(params.DataType)
			if err != nil {
				return nil, err
			}
			validParam["data_type"] = params.DataType
		}
		setIfPresent(validParam, "data_format", params.DataFormat)
	}
	validParam["data_category"] = params.DataCategory
	setIfPresent(validParam, "workflow_type", params.WorkflowType)
	setIfPresent(validParam, "file_type", params.FileType)
	setIfPresent(validParam, "experimental_strategy", params.ExperimentalStrategy)
	setIfPresent(validParam, "platform", params.Platform)

	return &Query{
		Client:       client,
		Projects:     params.Projects,
		DataCategory: params.DataCategory,
		Legacy:       params.Legacy,
		SampleType:   params.SampleType,
		Barcode:      params.Barcode,
		Access:       params.Access,
		MaxResults:   config.Gdc.MaxResults,
		validParam:   validParam,
	}, nil
}

func setIfPresent(validParam map[string]string, name, value string) {
	if value != "" {
		validParam[name] = value
	}
}

// returns a copy of the validated filters, keyed by logical filter name
func (q *Query) ValidParam() map[string]string {
	return maps.Clone(q.validParam)
}

func predicate(name, value string) Predicate {
	return Predicate{
		Op: "in",
		Content: PredicateContent{
			Field: FilterSpec[name],
			Value: []string{value},
		},
	}
}

// builds the filter expression for the given project: a project predicate
// followed by one predicate per validated filter
func (q *Query) BuildFilterExpression(project string) FilterExpression {
	expr := FilterExpression{
		Op:      "and",
		Content: []Predicate{predicate("projects", project)},
	}
	for _, name := range filterOrder {
		if value, found := q.validParam[name]; found && value != "" {
			expr.Content = append(expr.Content, predicate(name, value))
		}
	}
	return expr
}

// selects the fields and nested objects requested for the given data
// category and namespace
func SelectResponseShape(category string, legacy bool) ResponseShape {
	if category == "Protein expression" && legacy {
		return ResponseShape{
			Fields: []string{
				"archive.revision", "archive.file_name", "md5sum", "state",
				"data_category", "file_id", "platform", "file_name", "file_size",
				"submitter_id", "data_type",
			},
			Expand: []string{"cases.samples.portions", "cases.project", "center", "analysis"},
		}
	}
	if category == "Clinical" || category == "Biospecimen" {
		return ResponseShape{
			Expand: []string{"cases", "cases.project", "center", "analysis"},
		}
	}
	return ResponseShape{
		Expand: []string{"cases.project", "center", "analysis", "cases.samples"},
	}
}

// searches for the files in the given project matching the query
func (q *Query) Execute(project string) (gdc.FileSearchResponse, error) {
	fileCount, err := q.Client.CategoryCount(project, q.DataCategory, "file_count", q.Legacy)
	if err != nil {
		return gdc.FileSearchResponse{}, err
	}
	size := q.MaxResults
	if size == 0 {
		size = fileCount
	} else if fileCount > size {
		slog.Warn(fmt.Sprintf("Project %s has %d %s files; only %d requested (max_results)",
			project, fileCount, q.DataCategory, size))
	}

	shape := SelectResponseShape(q.DataCategory, q.Legacy)
	request := gdc.FileSearchRequest{
		Filters: q.BuildFilterExpression(project),
		Format:  "JSON",
		Size:    size,
		Fields:  strings.Join(shape.Fields, ","),
		Expand:  strings.Join(shape.Expand, ","),
	}
	slog.Info(fmt.Sprintf("Searching %s for %s files...", project, q.DataCategory))
	return q.Client.Files(request, q.Legacy)
}

// searches every project in order, returning all hits in a single table.
// Any failed search aborts the run.
func (q *Query) Run() (Result, error) {
	result := Result{
		Projects:     q.Projects,
		DataCategory: q.DataCategory,
		Rows:         make([]map[string]any, 0),
	}
	for _, project := range q.Projects {
		response, err := q.Execute(project)
		if err != nil {
			return Result{}, err
		}
		hits := make([]map[string]any, 0, len(response.Data.Hits))
		for _, hit := range response.Data.Hits {
			if hit == nil { // null entries carry no file
				continue
			}
			hit["acl"] = nil // everything found here is open access
			hit["project"] = project
			hits = append(hits, hit)
		}
		result.Rows = append(result.Rows, hits...)
		if q.OnProject != nil {
			q.OnProject(project, len(hits))
		}
	}
	return result, nil
}
