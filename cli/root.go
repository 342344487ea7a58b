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

// Package cli provides the gdc command-line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbase/gdc/config"
	"github.com/kbase/gdc/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	logFile string

	// closes the log file (if any) when a command finishes
	closeLog func() error
)

// Version information
var Version = "0.1.0"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gdc",
		Short: "Search and download files from the NCI Genomic Data Commons",
		Long: `gdc ` + Version + `
Searches the NCI Genomic Data Commons (GDC) for files by project and data
category, writes gdc-client manifests for the files it finds, and runs
gdc-client to download them.

Configuration is read from a YAML file given with --config:

  service:
    manifest_dir: GDCdata
  gdc:
    url: https://api.gdc.cancer.gov/
    max_results: 2       # files per project (0 = all)
  download:
    client: gdc-client`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initialize()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if closeLog != nil {
				return closeLog()
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write log messages to this file (rotated)")

	rootCmd.Version = Version

	rootCmd.AddCommand(
		newStatusCmd(),
		newProjectsCmd(),
		newCategoriesCmd(),
		newSearchCmd(),
		newManifestCmd(),
		newDownloadCmd(),
		newServeCmd(),
		newJournalCmd(),
	)
	return rootCmd
}

// reads the configuration file (if any) and sets up logging
func initialize() error {
	var yamlData []byte
	if cfgFile != "" {
		var err error
		yamlData, err = os.ReadFile(cfgFile)
		if err != nil {
			return fmt.Errorf("reading configuration: %w", err)
		}
	}
	config.Reset()
	err := config.Init(yamlData)
	if err != nil {
		return fmt.Errorf("initializing configuration: %w", err)
	}

	logConfig := logging.ConfigFromService()
	if verbose {
		logConfig.Level = "debug"
	}
	if logFile != "" {
		logConfig.FilePath = logFile
	}
	closeLog, err = logging.Setup(logConfig)
	if err != nil {
		return err
	}
	slog.Debug(fmt.Sprintf("Using GDC API at %s", config.Gdc.URL))
	return nil
}

// writes the given value to w as indented JSON
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
