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

package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/frictionlessdata/datapackage-go/datapackage"
	"github.com/frictionlessdata/datapackage-go/validator"
	"github.com/stretchr/testify/assert"

	"github.com/kbase/gdc/query"
)

// returns a result shaped like the output of a transcriptome search
func testResult() query.Result {
	return query.Result{
		Projects:     []string{"TCGA-BRCA"},
		DataCategory: "Transcriptome Profiling",
		Rows: []map[string]any{
			{
				"file_id":     "7d3f2b9c-0b1e-4c44-8d2e-000000000005",
				"file_name":   "a5c1f6f0.rna_seq.augmented_star_gene_counts.tsv",
				"md5sum":      "0123456789abcdef0123456789abcdef",
				"file_size":   4251233.0,
				"state":       "released",
				"data_format": "TSV",
				"acl":         nil,
				"project":     "TCGA-BRCA",
			},
			{
				"file_id":     "7d3f2b9c-0b1e-4c44-8d2e-000000000006",
				"file_name":   "b9e2c7a1.rna_seq.augmented_star_gene_counts.tsv",
				"md5sum":      "fedcba9876543210fedcba9876543210",
				"file_size":   12000000000.0,
				"state":       "released",
				"data_format": "TSV",
				"acl":         nil,
				"project":     "TCGA-BRCA",
			},
			{
				"file_id":   "7d3f2b9c-0b1e-4c44-8d2e-000000000007",
				"file_name": "c0ffee00.FPKM.txt.gz",
				"file_size": 512345.0,
				"project":   "TCGA-BRCA",
			},
		},
	}
}

func TestFileName(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("gdc_TCGA-BRCA.manifest.txt", FileName("TCGA-BRCA"))
	assert.Equal("gdc_TCGA-BRCA.datapackage.json", PackageFileName("TCGA-BRCA"))
}

func TestEnsureDirIsIdempotent(t *testing.T) {
	assert := assert.New(t)
	dir := filepath.Join(t.TempDir(), "GDCdata", "Transcriptome_Profiling")
	assert.Nil(EnsureDir(dir))
	assert.Nil(EnsureDir(dir))
	entries, err := os.ReadDir(filepath.Dir(dir))
	assert.Nil(err)
	assert.Len(entries, 1)
	info, err := os.Stat(dir)
	assert.Nil(err)
	assert.True(info.IsDir())
}

func TestWrite(t *testing.T) {
	assert := assert.New(t)
	dir := filepath.Join(t.TempDir(), "manifests")
	result := testResult()

	path, err := Write(result, "TCGA-BRCA", dir)
	assert.Nil(err)
	assert.Equal(filepath.Join(dir, "gdc_TCGA-BRCA.manifest.txt"), path)

	data, err := os.ReadFile(path)
	assert.Nil(err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	assert.Len(lines, result.Len()+1)
	assert.Equal("id\tfile_name\tmd5sum\tfile_size\tstate", lines[0])
	assert.Equal("7d3f2b9c-0b1e-4c44-8d2e-000000000005\t"+
		"a5c1f6f0.rna_seq.augmented_star_gene_counts.tsv\t"+
		"0123456789abcdef0123456789abcdef\t4251233\treleased", lines[1])
	assert.Contains(lines[2], "\t12000000000\t")
	assert.Equal("7d3f2b9c-0b1e-4c44-8d2e-000000000007\tc0ffee00.FPKM.txt.gz\t\t512345\t", lines[3])

	// writing again replaces the manifest
	result.Rows = result.Rows[:1]
	_, err = Write(result, "TCGA-BRCA", dir)
	assert.Nil(err)
	entries, err := Read(path)
	assert.Nil(err)
	assert.Len(entries, 1)
}

func TestWriteEmptyResult(t *testing.T) {
	assert := assert.New(t)
	path, err := Write(query.Result{}, "TARGET-AML", t.TempDir())
	assert.Nil(err)
	data, err := os.ReadFile(path)
	assert.Nil(err)
	assert.Equal("id\tfile_name\tmd5sum\tfile_size\tstate\n", string(data))
}

func TestRead(t *testing.T) {
	assert := assert.New(t)
	path, err := Write(testResult(), "TCGA-BRCA", t.TempDir())
	assert.Nil(err)

	entries, err := Read(path)
	assert.Nil(err)
	assert.Len(entries, 3)
	assert.Equal(Entry{
		Id:       "7d3f2b9c-0b1e-4c44-8d2e-000000000006",
		FileName: "b9e2c7a1.rna_seq.augmented_star_gene_counts.tsv",
		Md5sum:   "fedcba9876543210fedcba9876543210",
		FileSize: 12000000000,
		State:    "released",
	}, entries[1])
}

func TestReadRejectsBadManifests(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	_, err := Read(filepath.Join(dir, "missing.txt"))
	assert.NotNil(err)

	badHeader := filepath.Join(dir, "header.txt")
	assert.Nil(os.WriteFile(badHeader, []byte("file_id\tfile_name\tmd5sum\tfile_size\tstate\n"), 0644))
	_, err = Read(badHeader)
	assert.NotNil(err)

	badSize := filepath.Join(dir, "size.txt")
	assert.Nil(os.WriteFile(badSize,
		[]byte("id\tfile_name\tmd5sum\tfile_size\tstate\nabc\tx.tsv\t00\t1e6\treleased\n"), 0644))
	_, err = Read(badSize)
	assert.NotNil(err)
}

func TestWritePackage(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	result := testResult()
	result.Rows[2]["md5sum"] = "00000000000000000000000000000000"

	path, err := WritePackage(result, "TCGA-BRCA", dir)
	assert.Nil(err)
	assert.Equal(filepath.Join(dir, "gdc_TCGA-BRCA.datapackage.json"), path)

	data, err := os.ReadFile(path)
	assert.Nil(err)
	pkg, err := datapackage.FromString(string(data), dir, validator.InMemoryLoader())
	assert.Nil(err)
	assert.Equal("gdc_tcga-brca", pkg.Descriptor()["name"])
	assert.Equal([]string{
		"a5c1f6f0.rna_seq.augmented_star_gene_counts",
		"b9e2c7a1.rna_seq.augmented_star_gene_counts",
		"c0ffee00.fpkm.txt",
	}, pkg.ResourceNames())
	resource := pkg.GetResource("c0ffee00.fpkm.txt")
	assert.NotNil(resource)
	assert.Equal(json.Number("512345"), resource.Descriptor()["bytes"])
	resource = pkg.GetResource("b9e2c7a1.rna_seq.augmented_star_gene_counts")
	assert.NotNil(resource)
	assert.Equal(json.Number("12000000000"), resource.Descriptor()["bytes"])

	_, err = WritePackage(query.Result{}, "TARGET-AML", dir)
	assert.NotNil(err)
}

func TestWritePackageFileSizes(t *testing.T) {
	assert := assert.New(t)
	for _, size := range []float64{1024, 999999, 1000000, 4249002, 12000000000} {
		dir := t.TempDir()
		result := query.Result{
			Projects:     []string{"TCGA-LUAD"},
			DataCategory: "Transcriptome Profiling",
			Rows: []map[string]any{
				{
					"file_id":     "7d3f2b9c-0b1e-4c44-8d2e-000000000008",
					"file_name":   "d00dfeed.star_gene_counts.tsv",
					"md5sum":      "0123456789abcdef0123456789abcdef",
					"file_size":   size,
					"state":       "released",
					"data_format": "TSV",
					"project":     "TCGA-LUAD",
				},
			},
		}
		path, err := WritePackage(result, "TCGA-LUAD", dir)
		assert.Nil(err, "file size %v", size)

		data, err := os.ReadFile(path)
		assert.Nil(err)
		pkg, err := datapackage.FromString(string(data), dir, validator.InMemoryLoader())
		assert.Nil(err)
		if pkg != nil {
			resource := pkg.GetResource("d00dfeed.star_gene_counts")
			assert.NotNil(resource)
			assert.Equal(json.Number(fmt.Sprintf("%.0f", size)), resource.Descriptor()["bytes"])
		}
	}
}
