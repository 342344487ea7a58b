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

// Package frictionless describes GDC files as Frictionless data resources
// gathered into a data package (https://specs.frictionlessdata.io/).
package frictionless

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"unicode"
)

// the GDC portal page for a file is this prefix followed by its ID
const PortalFilesURL = "https://portal.gdc.cancer.gov/files/"

// a Frictionless data package describing the files found by a search
// (https://specs.frictionlessdata.io/data-package/)
type DataPackage struct {
	// people or organizations responsible for the package
	Contributors []Contributor `json:"contributors,omitempty"`
	// creation time (RFC 3339)
	Created string `json:"created,omitempty"`
	// a Markdown description of the package
	Description string `json:"description,omitempty"`
	// keywords to assist catalog searches
	Keywords []string `json:"keywords,omitempty"`
	// licenses under which the package is distributed (optional)
	Licenses []DataLicense `json:"licenses,omitempty"`
	// the name of the package (lowercase letters, digits, '-', '_', '.')
	Name string `json:"name"`
	// "data-package"
	Profile string `json:"profile,omitempty"`
	// one resource per file
	Resources []DataResource `json:"resources"`
	// where the package's contents came from
	Sources []DataSource `json:"sources,omitempty"`
	// a one-line title
	Title string `json:"title,omitempty"`
}

// a Frictionless data resource describing a single GDC file
// (https://specs.frictionlessdata.io/data-resource/)
type DataResource struct {
	// file size in bytes
	Bytes int64 `json:"bytes"`
	// the file's data type
	Description string `json:"description,omitempty"`
	// the lowercased GDC data format (e.g. "tsv", "bcr xml")
	Format string `json:"format"`
	// MD5 checksum (other algorithms are prefixed with "<algorithm>:")
	Hash string `json:"hash"`
	// GDC file UUID
	Id string `json:"id"`
	// the file name, lowercased and stripped of its suffix
	Name string `json:"name"`
	// location of the file relative to the download directory
	Path string `json:"path"`
	// where the file can be found at the GDC
	Sources []DataSource `json:"sources,omitempty"`
	// the original file name
	Title string `json:"title,omitempty"`
	// the project the file belongs to
	Project string `json:"project,omitempty"`
	// the GDC data category of the file
	DataCategory string `json:"data_category,omitempty"`
}

// returns the name of the hashing algorithm used for the resource's hash
func (res DataResource) HashAlgorithm() string {
	if colon := strings.Index(res.Hash, ":"); colon != -1 {
		return res.Hash[:colon]
	}
	return "md5"
}

type DataSource struct {
	// a URI or relative path pointing to the source (optional)
	Path  string `json:"path,omitempty"`
	Title string `json:"title"`
}

type DataLicense struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Title string `json:"title,omitempty"`
}

type Contributor struct {
	Email        string `json:"email,omitempty"`
	Organization string `json:"organization,omitempty"`
	Path         string `json:"path,omitempty"`
	// "author", "publisher", "maintainer", "wrangler", or "contributor"
	Role  string `json:"role"`
	Title string `json:"title"`
}

// converts a file name to a legal Frictionless resource name: lowercased,
// without its suffix, and with each run of illegal characters replaced by '_'
func ResourceName(fileName string) string {
	name := strings.ToLower(fileName)
	if lastDot := strings.LastIndex(name, "."); lastDot > 0 {
		name = name[:lastDot]
	}
	isInvalid := func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c) && c != '_' && c != '-' && c != '.'
	}
	var b strings.Builder
	inRun := false
	for _, c := range name {
		if isInvalid(c) {
			if !inRun {
				b.WriteRune('_')
			}
			inRun = true
		} else {
			b.WriteRune(c)
			inRun = false
		}
	}
	return b.String()
}

// creates a data resource from a GDC file search hit
func ResourceFromHit(hit map[string]any, category string) (DataResource, error) {
	fileId, _ := hit["file_id"].(string)
	if fileId == "" {
		fileId, _ = hit["id"].(string)
	}
	if fileId == "" {
		return DataResource{}, fmt.Errorf("file record has no file_id")
	}
	fileName, _ := hit["file_name"].(string)
	if fileName == "" {
		return DataResource{}, fmt.Errorf("file %s has no file_name", fileId)
	}
	var size int64
	switch s := hit["file_size"].(type) {
	case float64:
		size = int64(s)
	case int:
		size = int64(s)
	case int64:
		size = s
	}
	hash, _ := hit["md5sum"].(string)
	format, _ := hit["data_format"].(string)
	dataType, _ := hit["data_type"].(string)
	project, _ := hit["project"].(string)

	return DataResource{
		Bytes:       size,
		Description: dataType,
		Format:      strings.ToLower(format),
		Hash:        hash,
		Id:          fileId,
		Name:        ResourceName(fileName),
		// gdc-client stores each file in a directory named for its UUID
		Path: path.Join(fileId, fileName),
		Sources: []DataSource{
			{
				Path:  PortalFilesURL + fileId,
				Title: "NCI Genomic Data Commons",
			},
		},
		Title:        fileName,
		Project:      project,
		DataCategory: category,
	}, nil
}

// renders the package as a generic descriptor suitable for datapackage.New;
// numbers are kept as json.Number so that byte counts of a megabyte or more
// still validate as integers
func (p DataPackage) Descriptor() (map[string]any, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var descriptor map[string]any
	err = decoder.Decode(&descriptor)
	return descriptor, err
}
