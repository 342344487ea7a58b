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

// Package manifest writes the tab-separated manifests consumed by gdc-client
// and the Frictionless data packages that accompany them.
package manifest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/frictionlessdata/datapackage-go/datapackage"

	"github.com/kbase/gdc/frictionless"
	"github.com/kbase/gdc/query"
)

// manifest columns, in order
var Columns = []string{"id", "file_name", "md5sum", "file_size", "state"}

// result columns from which the manifest columns are taken, in order
var sourceColumns = []string{"file_id", "file_name", "md5sum", "file_size", "state"}

// a single manifest row
type Entry struct {
	Id       string `json:"id"`
	FileName string `json:"file_name"`
	Md5sum   string `json:"md5sum"`
	FileSize int64  `json:"file_size"`
	State    string `json:"state"`
}

// creates the given directory (and any missing parents) if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// returns the name of the manifest file for the given project
func FileName(project string) string {
	return fmt.Sprintf("gdc_%s.manifest.txt", project)
}

// returns the name of the data package descriptor for the given project
func PackageFileName(project string) string {
	return fmt.Sprintf("gdc_%s.datapackage.json", project)
}

// renders a result value as manifest text
func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}

// writes a manifest for every row of the given result into the given
// directory, naming it for the given project, and returns its path
func Write(result query.Result, project, directory string) (string, error) {
	if err := EnsureDir(directory); err != nil {
		return "", err
	}
	path := filepath.Join(directory, FileName(project))
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	writer.Comma = '\t'
	if err := writer.Write(Columns); err != nil {
		return "", err
	}
	record := make([]string, len(sourceColumns))
	for _, row := range result.Rows {
		for i, column := range sourceColumns {
			record[i] = formatValue(row[column])
		}
		if err := writer.Write(record); err != nil {
			return "", err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}
	slog.Debug(fmt.Sprintf("Wrote %d entries to manifest %s", result.Len(), path))
	return path, file.Close()
}

// reads the entries of the manifest at the given path
func Read(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = '\t'
	reader.FieldsPerRecord = len(Columns)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading manifest header: %w", err)
	}
	if strings.Join(header, "\t") != strings.Join(Columns, "\t") {
		return nil, fmt.Errorf("invalid manifest header: %s", strings.Join(header, " "))
	}

	entries := make([]Entry, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		var size int64
		if record[3] != "" {
			size, err = strconv.ParseInt(record[3], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid file_size for %s: %s", record[0], record[3])
			}
		}
		entries = append(entries, Entry{
			Id:       record[0],
			FileName: record[1],
			Md5sum:   record[2],
			FileSize: size,
			State:    record[4],
		})
	}
	return entries, nil
}

// writes a Frictionless data package describing every file in the given
// result into the given directory, and returns its path
func WritePackage(result query.Result, project, directory string) (string, error) {
	if result.Len() == 0 {
		return "", fmt.Errorf("no files found for project %s", project)
	}
	if err := EnsureDir(directory); err != nil {
		return "", err
	}

	resources := make([]frictionless.DataResource, len(result.Rows))
	for i, row := range result.Rows {
		resource, err := frictionless.ResourceFromHit(row, result.DataCategory)
		if err != nil {
			return "", err
		}
		resources[i] = resource
	}
	pkg := frictionless.DataPackage{
		Name:        frictionless.ResourceName("gdc_" + project + ".manifest"),
		Title:       fmt.Sprintf("GDC %s files for %s", result.DataCategory, strings.Join(result.Projects, ", ")),
		Created:     time.Now().Format(time.RFC3339),
		Profile:     "data-package",
		Keywords:    []string{"gdc", "manifest", result.DataCategory},
		Description: fmt.Sprintf("Files in manifest %s", FileName(project)),
		Resources:   resources,
		Sources: []frictionless.DataSource{
			{Path: "https://portal.gdc.cancer.gov", Title: "NCI Genomic Data Commons"},
		},
	}
	descriptor, err := pkg.Descriptor()
	if err != nil {
		return "", err
	}
	dataPackage, err := datapackage.New(descriptor, ".")
	if err != nil {
		return "", fmt.Errorf("creating data package: %w", err)
	}

	path := filepath.Join(directory, PackageFileName(project))
	err = dataPackage.SaveDescriptor(path)
	if err != nil {
		return "", fmt.Errorf("writing data package: %w", err)
	}
	return path, nil
}
