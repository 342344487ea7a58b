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

// Package gdc is a client for the Genomic Data Commons (GDC) REST API. It
// fetches the reference data (projects, per-project data category summaries)
// used to validate search parameters, and it runs file searches.
package gdc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kbase/gdc/auth"
	"github.com/kbase/gdc/config"
)

// a client for the GDC REST API
type Client struct {
	// HTTP client (HSTS-enabled, refuses HTTPS -> HTTP redirects)
	Client http.Client
	// root URL of the API
	BaseURL string
	// number of projects fetched when listing projects (one page only)
	ProjectPageSize int
	// GDC authentication token, sent as X-Auth-Token if present
	Token string
}

// creates a client for the GDC API at the given URL with the given request
// timeout (0 indicates no timeout)
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		Client:          SecureHttpClient(timeout),
		BaseURL:         baseURL,
		ProjectPageSize: 1000,
	}
}

// creates a client for the GDC API using the configuration, reading the
// GDC authentication token if one is configured
func NewClientFromConfig() (*Client, error) {
	c := NewClient(config.Gdc.URL, time.Duration(config.Gdc.Timeout)*time.Second)
	c.ProjectPageSize = config.Gdc.ProjectPageSize
	if config.Gdc.TokenFile != "" {
		token, err := auth.ReadTokenFile(config.Gdc.TokenFile, config.Service.Secret)
		if err != nil {
			return nil, err
		}
		c.Token = token
	}
	return c, nil
}

// status information reported by the GDC API
type Status struct {
	Commit      string `json:"commit"`
	DataRelease string `json:"data_release"`
	Status      string `json:"status"`
	Tag         string `json:"tag"`
	Version     int    `json:"version"`
}

// per-project summary of a data category
type DataCategorySummary struct {
	DataCategory string `json:"data_category"`
	CaseCount    int    `json:"case_count"`
	FileCount    int    `json:"file_count"`
}

// pagination information attached to GDC search results
type Pagination struct {
	Count int `json:"count"`
	Total int `json:"total"`
	Size  int `json:"size"`
	From  int `json:"from"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// the body of a file search (POST /files)
type FileSearchRequest struct {
	// a GDC filter expression
	Filters any `json:"filters"`
	// response format ("JSON")
	Format string `json:"format"`
	// maximum number of hits returned
	Size int `json:"size"`
	// comma-separated list of fields to return (optional)
	Fields string `json:"fields,omitempty"`
	// comma-separated list of nested objects to expand (optional)
	Expand string `json:"expand,omitempty"`
}

// the response to a file search
type FileSearchResponse struct {
	Data struct {
		// file metadata records, as returned
		Hits       []map[string]any `json:"hits"`
		Pagination Pagination       `json:"pagination"`
	} `json:"data"`
	Warnings map[string]any `json:"warnings,omitempty"`
}

// returns the status of the GDC API
func (c *Client) Status() (Status, error) {
	var status Status
	body, err := c.get([]string{"status"}, url.Values{})
	if err != nil {
		return status, err
	}
	err = json.Unmarshal(body, &status)
	return status, err
}

// returns the IDs of the projects known to the GDC, fetched in a single page
// of ProjectPageSize entries. Projects beyond that page are not returned.
func (c *Client) Projects() ([]string, error) {
	params := url.Values{}
	params.Add("size", strconv.Itoa(c.ProjectPageSize))
	params.Add("format", "json")
	params.Add("fields", "project_id")
	body, err := c.get([]string{"projects"}, params)
	if err != nil {
		return nil, err
	}

	var results struct {
		Data struct {
			Hits []struct {
				ProjectId string `json:"project_id"`
			} `json:"hits"`
			Pagination Pagination `json:"pagination"`
		} `json:"data"`
	}
	err = json.Unmarshal(body, &results)
	if err != nil {
		return nil, err
	}
	if results.Data.Pagination.Total > len(results.Data.Hits) {
		slog.Debug(fmt.Sprintf("GDC lists %d projects; only the first %d are visible",
			results.Data.Pagination.Total, len(results.Data.Hits)))
	}

	projects := make([]string, len(results.Data.Hits))
	for i, hit := range results.Data.Hits {
		projects[i] = hit.ProjectId
	}
	return projects, nil
}

// fetches the data category summary for the given project from the current
// or legacy namespace. Summaries are fetched anew on every call.
func (c *Client) CategorySummary(project string, legacy bool) ([]DataCategorySummary, error) {
	params := url.Values{}
	params.Add("expand", "summary,summary.data_categories")
	body, err := c.get(namespaced(legacy, "projects", project), params)
	if err != nil {
		return nil, err
	}

	var results struct {
		Data struct {
			Summary struct {
				DataCategories []DataCategorySummary `json:"data_categories"`
			} `json:"summary"`
		} `json:"data"`
	}
	err = json.Unmarshal(body, &results)
	if err != nil {
		return nil, err
	}
	return results.Data.Summary.DataCategories, nil
}

// returns the first entry in the summary whose data category matches the
// given one, and true; or an empty summary and false if there's no match
func FindCategory(summary []DataCategorySummary, category string) (DataCategorySummary, bool) {
	for _, s := range summary {
		if s.DataCategory == category {
			return s, true
		}
	}
	return DataCategorySummary{}, false
}

// returns the case count ("case_count") or file count ("file_count") for the
// given data category within the given project
func (c *Client) CategoryCount(project, category, item string, legacy bool) (int, error) {
	summary, err := c.CategorySummary(project, legacy)
	if err != nil {
		return 0, err
	}
	found, ok := FindCategory(summary, category)
	if !ok {
		return 0, &InvalidParameterError{
			Parameter: "data_category",
			Value:     category,
			Message:   fmt.Sprintf("not available for project %s", project),
		}
	}
	switch item {
	case "case_count":
		return found.CaseCount, nil
	case "file_count":
		return found.FileCount, nil
	default:
		return 0, fmt.Errorf("Invalid category count item: '%s'", item)
	}
}

// searches for files in the current or legacy namespace
func (c *Client) Files(request FileSearchRequest, legacy bool) (FileSearchResponse, error) {
	var response FileSearchResponse
	data, err := json.Marshal(request)
	if err != nil {
		return response, err
	}
	body, err := c.post(namespaced(legacy, "files"), bytes.NewReader(data))
	if err != nil {
		return response, err
	}
	err = json.Unmarshal(body, &response)
	return response, err
}

//-----------
// Internals
//-----------

// returns the resource path for the given elements, prefixed with "legacy"
// if requested
func namespaced(legacy bool, elements ...string) []string {
	if legacy {
		return append([]string{"legacy"}, elements...)
	}
	return elements
}

// returns the full URL for the given resource path and query parameters
func (c *Client) resourceURL(resource []string, values url.Values) (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", err
	}
	u = u.JoinPath(resource...)
	u.RawQuery = values.Encode()
	return u.String(), nil
}

// performs a GET request on the given resource, returning the resulting
// response body and/or error
func (c *Client) get(path []string, values url.Values) ([]byte, error) {
	res, err := c.resourceURL(path, values)
	if err != nil {
		return nil, err
	}
	slog.Debug(fmt.Sprintf("GET: %s", res))
	req, err := http.NewRequest(http.MethodGet, res, http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(req, path)
}

// performs a POST request on the given resource, returning the resulting
// response body and/or error
func (c *Client) post(path []string, body io.Reader) ([]byte, error) {
	res, err := c.resourceURL(path, url.Values{})
	if err != nil {
		return nil, err
	}
	slog.Debug(fmt.Sprintf("POST: %s", res))
	req, err := http.NewRequest(http.MethodPost, res, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path)
}

func (c *Client) do(req *http.Request, path []string) ([]byte, error) {
	if c.Token != "" {
		req.Header.Set("X-Auth-Token", c.Token)
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case 200, 201, 204:
		return io.ReadAll(resp.Body)
	case 503:
		return nil, &UnavailableError{}
	default:
		data, _ := io.ReadAll(resp.Body)
		var errResponse struct {
			Message string `json:"message"`
		}
		message := string(data)
		if json.Unmarshal(data, &errResponse) == nil && errResponse.Message != "" {
			message = errResponse.Message
		}
		return nil, &RequestError{
			Resource: strings.Join(path, "/"),
			Status:   resp.StatusCode,
			Message:  message,
		}
	}
}
