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

package gdctest

import (
	"fmt"
)

// returns a file metadata record shaped like a GDC file search hit
func File(project, fileId, fileName, category, dataType, dataFormat, workflow string,
	size int) map[string]any {
	hit := map[string]any{
		"id":            fileId,
		"file_id":       fileId,
		"file_name":     fileName,
		"md5sum":        fmt.Sprintf("%032x", size),
		"file_size":     size,
		"state":         "released",
		"access":        "open",
		"acl":           []any{"open"},
		"data_category": category,
		"data_type":     dataType,
		"data_format":   dataFormat,
		"cases": []any{
			map[string]any{
				"project": map[string]any{"project_id": project},
			},
		},
	}
	if workflow != "" {
		hit["analysis"] = map[string]any{"workflow_type": workflow}
		hit["experimental_strategy"] = "RNA-Seq"
		hit["platform"] = "Illumina"
	}
	return hit
}

// returns a fixture with two TCGA projects, each with clinical and
// transcriptome profiling files, plus a legacy-only protein expression
// category for TCGA-BRCA
func DefaultFixture() Fixture {
	return Fixture{
		Projects: map[string][]Category{
			"TCGA-BRCA": {
				{DataCategory: "Clinical", CaseCount: 1098, FileCount: 3},
				{DataCategory: "Biospecimen", CaseCount: 1098, FileCount: 1},
				{DataCategory: "Transcriptome Profiling", CaseCount: 1095, FileCount: 3},
			},
			"TCGA-LUAD": {
				{DataCategory: "Clinical", CaseCount: 585, FileCount: 2},
				{DataCategory: "Transcriptome Profiling", CaseCount: 518, FileCount: 1},
			},
			"TARGET-AML": {
				{DataCategory: "Clinical", CaseCount: 2492, FileCount: 0},
			},
		},
		LegacyProjects: map[string][]Category{
			"TCGA-BRCA": {
				{DataCategory: "Clinical", CaseCount: 1098, FileCount: 3},
				{DataCategory: "Protein expression", CaseCount: 887, FileCount: 1},
			},
			"TCGA-LUAD": {
				{DataCategory: "Clinical", CaseCount: 585, FileCount: 2},
			},
			"TARGET-AML": {},
		},
		Files: map[string][]map[string]any{
			"TCGA-BRCA": {
				File("TCGA-BRCA", "2c4a1a3e-1b7a-4a51-9a0f-000000000001",
					"nationwidechildrens.org_clinical.TCGA-A1-A0SB.xml",
					"Clinical", "Clinical Supplement", "BCR XML", "", 58716),
				File("TCGA-BRCA", "2c4a1a3e-1b7a-4a51-9a0f-000000000002",
					"nationwidechildrens.org_clinical.TCGA-A1-A0SD.xml",
					"Clinical", "Clinical Supplement", "BCR XML", "", 61234),
				File("TCGA-BRCA", "2c4a1a3e-1b7a-4a51-9a0f-000000000003",
					"nationwidechildrens.org_clinical.TCGA-A1-A0SE.xml",
					"Clinical", "Clinical Supplement", "BCR XML", "", 60001),
				File("TCGA-BRCA", "2c4a1a3e-1b7a-4a51-9a0f-000000000004",
					"nationwidechildrens.org_biospecimen.TCGA-A1-A0SB.xml",
					"Biospecimen", "Biospecimen Supplement", "BCR XML", "", 91010),
				File("TCGA-BRCA", "7d3f2b9c-0b1e-4c44-8d2e-000000000005",
					"a5c1f6f0.rna_seq.augmented_star_gene_counts.tsv",
					"Transcriptome Profiling", "Gene Expression Quantification", "TSV",
					"STAR - Counts", 4251233),
				File("TCGA-BRCA", "7d3f2b9c-0b1e-4c44-8d2e-000000000006",
					"b9e2c7a1.rna_seq.augmented_star_gene_counts.tsv",
					"Transcriptome Profiling", "Gene Expression Quantification", "TSV",
					"STAR - Counts", 4250118),
				File("TCGA-BRCA", "7d3f2b9c-0b1e-4c44-8d2e-000000000007",
					"c0ffee00.FPKM.txt.gz",
					"Transcriptome Profiling", "Gene Expression Quantification", "TXT",
					"HTSeq - FPKM", 512345),
			},
			"TCGA-LUAD": {
				File("TCGA-LUAD", "5e8d0c77-3a6b-4f0e-b1d2-000000000011",
					"nationwidechildrens.org_clinical.TCGA-05-4244.xml",
					"Clinical", "Clinical Supplement", "BCR XML", "", 47211),
				File("TCGA-LUAD", "5e8d0c77-3a6b-4f0e-b1d2-000000000012",
					"nationwidechildrens.org_clinical.TCGA-05-4249.xml",
					"Clinical", "Clinical Supplement", "BCR XML", "", 49876),
				File("TCGA-LUAD", "5e8d0c77-3a6b-4f0e-b1d2-000000000013",
					"d00dfeed.rna_seq.augmented_star_gene_counts.tsv",
					"Transcriptome Profiling", "Gene Expression Quantification", "TSV",
					"STAR - Counts", 4249002),
			},
		},
	}
}
