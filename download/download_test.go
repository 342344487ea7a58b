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

package download

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kbase/gdc/config"
	"github.com/kbase/gdc/manifest"
	"github.com/kbase/gdc/query"
)

// a stand-in for gdc-client that records its arguments (and any token it's
// given) next to itself
const fakeClient = `#!/bin/sh
here=$(dirname "$0")
echo "$@" > "$here/args.txt"
while [ $# -gt 0 ]; do
  if [ "$1" = "-t" ]; then cat "$2" > "$here/token.txt"; fi
  shift
done
echo "Successfully downloaded"
`

// a stand-in for gdc-client that always fails
const failingClient = `#!/bin/sh
echo "ERROR: manifest rejected" >&2
exit 3
`

// writes an executable script into a temporary directory and returns its path
func writeClient(t *testing.T, script string) string {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts can't stand in for gdc-client on Windows")
	}
	path := filepath.Join(t.TempDir(), "gdc-client")
	assert.Nil(t, os.WriteFile(path, []byte(script), 0755))
	return path
}

func testResult() query.Result {
	return query.Result{
		Projects:     []string{"TCGA-LUAD", "TCGA-BRCA"},
		DataCategory: "Transcriptome Profiling",
		Rows: []map[string]any{
			{
				"file_id":   "5e8d0c77-3a6b-4f0e-b1d2-000000000013",
				"file_name": "d00dfeed.rna_seq.augmented_star_gene_counts.tsv",
				"md5sum":    "000000000000000000000000000040cbaa",
				"file_size": 4249002.0,
				"state":     "released",
				"project":   "TCGA-LUAD",
			},
			{
				"file_id":   "7d3f2b9c-0b1e-4c44-8d2e-000000000005",
				"file_name": "a5c1f6f0.rna_seq.augmented_star_gene_counts.tsv",
				"md5sum":    "000000000000000000000000000040ddb1",
				"file_size": 4251233.0,
				"state":     "released",
				"project":   "TCGA-BRCA",
			},
		},
	}
}

func TestCategoryDirectory(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(filepath.Join("GDCdata", "Transcriptome_Profiling"),
		CategoryDirectory("GDCdata", "Transcriptome Profiling"))
	assert.Equal(filepath.Join("GDCdata", "Simple_Nucleotide_Variation"),
		CategoryDirectory("GDCdata", "Simple Nucleotide\tVariation"))
	assert.Equal(filepath.Join("GDCdata", "Copy__Number_Variation"),
		CategoryDirectory("GDCdata", "Copy  Number Variation"))
	assert.Equal(filepath.Join("GDCdata", "Clinical"), CategoryDirectory("GDCdata", "Clinical"))
}

func TestNewDownloader(t *testing.T) {
	assert := assert.New(t)
	defer config.Reset()

	tokenFile := filepath.Join(t.TempDir(), "token.txt")
	assert.Nil(os.WriteFile(tokenFile, []byte("gdc-token\n"), 0600))
	yaml := "gdc:\n  token_file: " + tokenFile + "\n" +
		"download:\n  client: /opt/gdc/gdc-client\n  ignore_errors: true\n"
	assert.Nil(config.Init([]byte(yaml)))

	d, err := NewDownloader()
	assert.Nil(err)
	assert.Equal("/opt/gdc/gdc-client", d.Client)
	assert.Equal("gdc-token", d.Token)
	assert.True(d.IgnoreErrors)

	assert.Nil(config.Init([]byte("gdc:\n  token_file: /no/such/token.txt\n")))
	_, err = NewDownloader()
	assert.NotNil(err)
}

func TestDownload(t *testing.T) {
	assert := assert.New(t)
	client := writeClient(t, fakeClient)
	dir := t.TempDir()

	d := Downloader{Client: client}
	report, err := d.Download(context.Background(), testResult(), dir)
	assert.Nil(err)
	assert.Nil(report.Failure)
	assert.Equal(filepath.Join(dir, "gdc_TCGA-LUAD.manifest.txt"), report.Manifest)
	assert.Equal(filepath.Join(dir, "Transcriptome_Profiling"), report.Directory)
	assert.Equal(2, report.Files)
	assert.Equal(int64(4249002+4251233), report.Bytes)
	assert.Contains(report.Output, "Successfully downloaded")

	info, err := os.Stat(report.Directory)
	assert.Nil(err)
	assert.True(info.IsDir())
	entries, err := manifest.Read(report.Manifest)
	assert.Nil(err)
	assert.Len(entries, 2)

	args, err := os.ReadFile(filepath.Join(filepath.Dir(client), "args.txt"))
	assert.Nil(err)
	assert.Equal("download -m "+report.Manifest+" -d "+report.Directory,
		strings.TrimSpace(string(args)))
	_, err = os.Stat(filepath.Join(filepath.Dir(client), "token.txt"))
	assert.True(os.IsNotExist(err))

	// downloading again reuses the category directory
	_, err = d.Download(context.Background(), testResult(), dir)
	assert.Nil(err)
}

func TestDownloadWithToken(t *testing.T) {
	assert := assert.New(t)
	client := writeClient(t, fakeClient)

	d := Downloader{Client: client, Token: "controlled-access-token"}
	_, err := d.Download(context.Background(), testResult(), t.TempDir())
	assert.Nil(err)

	args, err := os.ReadFile(filepath.Join(filepath.Dir(client), "args.txt"))
	assert.Nil(err)
	assert.Contains(string(args), " -t ")
	token, err := os.ReadFile(filepath.Join(filepath.Dir(client), "token.txt"))
	assert.Nil(err)
	assert.Equal("controlled-access-token", string(token))
}

func TestDownloadFailure(t *testing.T) {
	assert := assert.New(t)
	client := writeClient(t, failingClient)

	d := Downloader{Client: client}
	report, err := d.Download(context.Background(), testResult(), t.TempDir())
	assert.IsType(&ClientError{}, err)
	clientErr := err.(*ClientError)
	assert.Equal(3, clientErr.ExitCode)
	assert.Contains(clientErr.Stderr, "manifest rejected")
	assert.Contains(err.Error(), "exited with status 3")
	assert.NotEmpty(report.Manifest)

	// failures can be ignored
	d.IgnoreErrors = true
	report, err = d.Download(context.Background(), testResult(), t.TempDir())
	assert.Nil(err)
	assert.IsType(&ClientError{}, report.Failure)
}

func TestDownloadMissingClient(t *testing.T) {
	assert := assert.New(t)
	d := Downloader{Client: filepath.Join(t.TempDir(), "no-such-client")}
	_, err := d.Download(context.Background(), testResult(), t.TempDir())
	assert.IsType(&ClientError{}, err)
	assert.Equal(-1, err.(*ClientError).ExitCode)
	assert.Contains(err.Error(), "Could not run")
}

func TestDownloadWithoutProjects(t *testing.T) {
	assert := assert.New(t)
	d := Downloader{Client: "gdc-client"}
	_, err := d.Download(context.Background(), query.Result{}, t.TempDir())
	assert.NotNil(err)
}
