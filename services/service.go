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

package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kbase/gdc/gdc"
	"github.com/kbase/gdc/journal"
	"github.com/kbase/gdc/manifest"
	"github.com/kbase/gdc/query"
)

// this type encodes a JSON object for responding to root queries
type ServiceInfoResponse struct {
	Name          string `json:"name" example:"GDC" doc:"The name of the service API"`
	Version       string `json:"version" example:"1.0.0" doc:"The version string (major.minor.patch)"`
	Uptime        int    `json:"uptime" example:"345600" doc:"The time the service has been up (seconds)"`
	Documentation string `json:"documentation" example:"/docs" doc:"The OpenAPI documentation endpoint"`
	GdcURL        string `json:"gdc_url" example:"https://api.gdc.cancer.gov/" doc:"The GDC API in use"`
}

// a response listing GDC projects (GET)
type ProjectsResponse struct {
	Projects []string `json:"projects" doc:"IDs of all GDC projects"`
}

// a response listing a project's data categories (GET)
type CategoriesResponse struct {
	Project    string                    `json:"project" example:"TCGA-BRCA" doc:"the GDC project ID"`
	Legacy     bool                      `json:"legacy" doc:"true if the legacy namespace was consulted"`
	Categories []gdc.DataCategorySummary `json:"data_categories" doc:"case and file counts per data category"`
}

// a request for a file search or manifest (POST)
type FileSearchRequest struct {
	query.Params
	MaxResults int    `json:"max_results,omitempty" minimum:"0" doc:"number of files requested per project (default: configured max_results)"`
	All        bool   `json:"all,omitempty" doc:"request every file in the data category"`
	Select     string `json:"jq,omitempty" example:".[].file_id" doc:"a jq expression applied to the resulting rows"`
}

// a response for a file search (POST)
type FileSearchResponse struct {
	Projects     []string         `json:"projects" doc:"the projects searched"`
	DataCategory string           `json:"data_category" doc:"the data category searched"`
	Count        int              `json:"count" doc:"the number of files found"`
	Rows         []map[string]any `json:"rows" doc:"file metadata records"`
	Selected     []any            `json:"selected,omitempty" doc:"values produced by the jq expression, if given"`
}

// a response for a manifest request (POST)
type ManifestResponse struct {
	Manifest string           `json:"manifest" doc:"path of the tab-separated manifest"`
	Package  string           `json:"package,omitempty" doc:"path of the Frictionless data package describing the files"`
	Entries  []manifest.Entry `json:"entries" doc:"manifest entries"`
}

// a response listing download records (GET)
type DownloadsResponse struct {
	Start     time.Time        `json:"start" doc:"beginning of the time range"`
	Stop      time.Time        `json:"stop" doc:"end of the time range"`
	Downloads []journal.Record `json:"downloads" doc:"downloads that started and finished within the time range"`
}

// a response for a single download record (GET)
type DownloadResponse struct {
	Id     uuid.UUID      `json:"id" doc:"the UUID of the download"`
	Record journal.Record `json:"record" doc:"the download record"`
}

// Service defines the interface for our GDC search service.
type Service interface {
	// Starts the service on the selected port, returning an error that indicates
	// success or failure.
	Start(port int) error
	// Gracefully shuts down the service without interrupting active connections.
	Shutdown(ctx context.Context) error
	// Closes down the service, freeing all resources.
	Close()
}
