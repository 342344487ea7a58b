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

package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/frictionlessdata/datapackage-go/datapackage"
	"github.com/frictionlessdata/datapackage-go/validator"
	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kbase/gdc/config"
	"github.com/kbase/gdc/download"
	"github.com/kbase/gdc/gdc"
	"github.com/kbase/gdc/journal"
	"github.com/kbase/gdc/manifest"
	"github.com/kbase/gdc/query"
)

// flags shared by commands that run a file search
type searchFlags struct {
	params query.Params
	size   int
	all    bool
}

func (f *searchFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringSliceVarP(&f.params.Projects, "project", "p", nil, "GDC project ID (repeatable, or comma-separated)")
	flags.StringVar(&f.params.DataCategory, "category", "", "GDC data category (e.g. \"Transcriptome Profiling\")")
	flags.StringVar(&f.params.DataType, "data-type", "", "Harmonized data type")
	flags.StringVar(&f.params.WorkflowType, "workflow-type", "", "Analysis workflow type (e.g. \"STAR - Counts\")")
	flags.StringVar(&f.params.FileType, "file-type", "", "File type")
	flags.StringVar(&f.params.ExperimentalStrategy, "experimental-strategy", "", "Experimental strategy (e.g. RNA-Seq)")
	flags.StringVar(&f.params.Platform, "platform", "", "Platform (e.g. Illumina)")
	flags.StringVar(&f.params.DataFormat, "data-format", "", "Data format (e.g. TSV)")
	flags.StringVar(&f.params.SampleType, "sample-type", "", "Sample type (recorded only)")
	flags.StringVar(&f.params.Barcode, "barcode", "", "Case barcode (recorded only)")
	flags.StringVar(&f.params.Access, "access", "", "Access level (recorded only)")
	flags.BoolVar(&f.params.Legacy, "legacy", false, "Use the legacy GDC namespace")
	flags.IntVar(&f.size, "size", 0, "Files requested per project (default: gdc.max_results)")
	flags.BoolVar(&f.all, "all", false, "Request every file in the data category")
	cmd.MarkFlagRequired("project")
	cmd.MarkFlagRequired("category")
}

// validates the search flags and runs the search, showing progress across
// projects on the command's error stream
func (f *searchFlags) run(cmd *cobra.Command) (query.Result, error) {
	if f.size < 0 {
		return query.Result{}, fmt.Errorf("Invalid --size: %d (must be non-negative)", f.size)
	}
	client, err := gdc.NewClientFromConfig()
	if err != nil {
		return query.Result{}, err
	}
	q, err := query.New(client, f.params)
	if err != nil {
		return query.Result{}, err
	}
	if f.all {
		q.MaxResults = 0
	} else if f.size > 0 {
		q.MaxResults = f.size
	}

	bar := progressbar.NewOptions(len(q.Projects),
		progressbar.OptionSetDescription("Searching projects"),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(cmd.ErrOrStderr(), "\n")
		}),
	)
	q.OnProject = func(project string, hits int) {
		bar.Describe(fmt.Sprintf("%s: %d files", project, hits))
		_ = bar.Add(1)
	}
	result, err := q.Run()
	if err != nil {
		_ = bar.Exit()
		return query.Result{}, err
	}
	_ = bar.Finish()
	return result, nil
}

func newSearchCmd() *cobra.Command {
	var flags searchFlags
	var jq string
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search GDC projects for files",
		Long: `Searches each of the given projects for files in a data category, printing
the resulting file records as JSON. A jq expression given with --jq is applied
to the array of records, e.g.

  gdc search -p TCGA-BRCA --category Clinical --jq '.[].file_name'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := flags.run(cmd)
			if err != nil {
				return err
			}
			if jq == "" {
				return printJSON(cmd.OutOrStdout(), result.Rows)
			}
			values, err := result.Select(jq)
			if err != nil {
				return err
			}
			for _, v := range values {
				if s, ok := v.(string); ok {
					fmt.Fprintln(cmd.OutOrStdout(), s)
				} else if err := printJSON(cmd.OutOrStdout(), v); err != nil {
					return err
				}
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&jq, "jq", "", "jq expression applied to the resulting records")
	return cmd
}

func newManifestCmd() *cobra.Command {
	var flags searchFlags
	var directory string
	var withPackage bool
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Write a gdc-client manifest for the files found by a search",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if directory == "" {
				directory = config.Service.ManifestDirectory
			}
			result, err := flags.run(cmd)
			if err != nil {
				return err
			}
			path, err := manifest.Write(result, result.Projects[0], directory)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d files to %s\n", result.Len(), path)
			if withPackage && result.Len() > 0 {
				path, err = manifest.WritePackage(result, result.Projects[0], directory)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote data package %s\n", path)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&directory, "dir", "d", "", "Directory for the manifest (default: service.manifest_dir)")
	cmd.Flags().BoolVar(&withPackage, "package", false, "Also write a Frictionless data package describing the files")
	return cmd
}

func newDownloadCmd() *cobra.Command {
	var flags searchFlags
	var directory string
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the files found by a search with gdc-client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if directory == "" {
				directory = config.Service.ManifestDirectory
			}
			downloader, err := download.NewDownloader()
			if err != nil {
				return err
			}
			result, err := flags.run(cmd)
			if err != nil {
				return err
			}

			record := journal.Record{
				Id:           uuid.New(),
				Projects:     result.Projects,
				DataCategory: result.DataCategory,
				StartTime:    time.Now(),
			}
			report, err := downloader.Download(cmd.Context(), result, directory)
			record.StopTime = time.Now()
			record.ManifestFile = report.Manifest
			record.Directory = report.Directory
			record.NumFiles = report.Files
			record.PayloadSize = report.Bytes
			record.Status = "succeeded"
			if err != nil {
				record.Status = "failed"
				record.Message = err.Error()
			} else if report.Failure != nil {
				record.Status = "failed"
				record.Message = report.Failure.Error()
			} else if result.Len() > 0 {
				record.Package, err = describeDownload(result, directory)
				if err != nil {
					slog.Warn(fmt.Sprintf("Couldn't describe downloaded files: %s", err.Error()))
				}
			}
			if report.Manifest != "" {
				if jerr := recordDownload(record); jerr != nil {
					slog.Warn(fmt.Sprintf("Couldn't record download: %s", jerr.Error()))
				}
			}
			if record.Status == "failed" && report.Failure == nil {
				return fmt.Errorf("%s", record.Message)
			}

			if report.Failure != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "gdc-client failed (ignored): %s\n", report.Failure.Error())
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %d files (%d bytes) into %s (download %s)\n",
				report.Files, report.Bytes, report.Directory, record.Id)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&directory, "dir", "d", "", "Root download directory (default: service.manifest_dir)")
	return cmd
}

// writes and reads back a data package describing the files in a download
func describeDownload(result query.Result, directory string) (*datapackage.Package, error) {
	path, err := manifest.WritePackage(result, result.Projects[0], directory)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return datapackage.FromString(string(data), directory, validator.InMemoryLoader())
}

// adds a download record to the journal in the data directory
func recordDownload(record journal.Record) error {
	if err := os.MkdirAll(config.Service.DataDirectory, 0755); err != nil {
		return err
	}
	if err := journal.Init(); err != nil {
		return err
	}
	defer journal.Finalize()
	return journal.RecordDownload(record)
}
