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

package frictionless

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResourceName(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("nationwidechildrens.org_clinical.tcga-a1-a0sb",
		ResourceName("nationwidechildrens.org_clinical.TCGA-A1-A0SB.xml"))
	assert.Equal("star_gene_counts_1_", ResourceName("STAR gene counts (1).tsv"))
	assert.Equal("counts", ResourceName("counts"))
	assert.Equal(".hidden", ResourceName(".hidden"))
}

func TestResourceFromHit(t *testing.T) {
	assert := assert.New(t)
	hit := map[string]any{
		"file_id":     "7d3f2b9c-0b1e-4c44-8d2e-000000000005",
		"file_name":   "a5c1f6f0.rna_seq.augmented_star_gene_counts.tsv",
		"file_size":   4251233.0,
		"md5sum":      "0123456789abcdef0123456789abcdef",
		"data_format": "TSV",
		"data_type":   "Gene Expression Quantification",
		"project":     "TCGA-BRCA",
		"acl":         nil,
	}
	res, err := ResourceFromHit(hit, "Transcriptome Profiling")
	assert.Nil(err)
	assert.Equal(int64(4251233), res.Bytes)
	assert.Equal("tsv", res.Format)
	assert.Equal("md5", res.HashAlgorithm())
	assert.Equal("a5c1f6f0.rna_seq.augmented_star_gene_counts", res.Name)
	assert.Equal("7d3f2b9c-0b1e-4c44-8d2e-000000000005/"+
		"a5c1f6f0.rna_seq.augmented_star_gene_counts.tsv", res.Path)
	assert.Equal(PortalFilesURL+"7d3f2b9c-0b1e-4c44-8d2e-000000000005", res.Sources[0].Path)
	assert.Equal("TCGA-BRCA", res.Project)
	assert.Equal("Transcriptome Profiling", res.DataCategory)

	_, err = ResourceFromHit(map[string]any{"file_name": "x.tsv"}, "Clinical")
	assert.NotNil(err)
	_, err = ResourceFromHit(map[string]any{"file_id": "abc"}, "Clinical")
	assert.NotNil(err)
}

func TestHashAlgorithm(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("sha256", DataResource{Hash: "sha256:abcd"}.HashAlgorithm())
}

func TestDescriptor(t *testing.T) {
	assert := assert.New(t)
	p := DataPackage{
		Name:    "gdc_tcga-brca",
		Profile: "data-package",
		Resources: []DataResource{
			{Id: "a", Name: "a", Path: "a/a.xml", Format: "bcr xml", Hash: "00", Bytes: 3},
		},
	}
	descriptor, err := p.Descriptor()
	assert.Nil(err)
	assert.Equal("gdc_tcga-brca", descriptor["name"])
	resources, ok := descriptor["resources"].([]any)
	assert.True(ok)
	assert.Len(resources, 1)
	assert.Equal("a/a.xml", resources[0].(map[string]any)["path"])
	assert.Equal(json.Number("3"), resources[0].(map[string]any)["bytes"])
	assert.NotContains(descriptor, "contributors")

	// large byte counts must not turn into exponent notation
	p.Resources[0].Bytes = 12000000000
	descriptor, err = p.Descriptor()
	assert.Nil(err)
	resources = descriptor["resources"].([]any)
	assert.Equal(json.Number("12000000000"), resources[0].(map[string]any)["bytes"])
}
