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

// Package download fetches the files found by a query by writing a manifest
// and handing it to the gdc-client transfer tool.
package download

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/kbase/gdc/auth"
	"github.com/kbase/gdc/config"
	"github.com/kbase/gdc/manifest"
	"github.com/kbase/gdc/query"
)

// this error type is returned when gdc-client can't be run or exits with a
// nonzero status
type ClientError struct {
	Client   string
	ExitCode int
	Stderr   string
	Message  string
}

func (e ClientError) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("Could not run %s: %s", e.Client, e.Message)
	}
	stderr := strings.TrimSpace(e.Stderr)
	if stderr == "" {
		return fmt.Sprintf("%s exited with status %d", e.Client, e.ExitCode)
	}
	return fmt.Sprintf("%s exited with status %d: %s", e.Client, e.ExitCode, stderr)
}

// runs gdc-client downloads
type Downloader struct {
	// name or path of the gdc-client executable
	Client string
	// GDC authentication token for controlled data (optional)
	Token string
	// if true, failures of gdc-client are logged and otherwise ignored
	IgnoreErrors bool
}

// a summary of a completed download
type Report struct {
	// path of the manifest handed to gdc-client
	Manifest string
	// directory into which files were downloaded
	Directory string
	// number of files in the manifest
	Files int
	// total size of the files in the manifest (bytes)
	Bytes int64
	// output of gdc-client
	Output string
	// set if gdc-client failed and errors are ignored
	Failure error
}

// creates a downloader from the configuration
func NewDownloader() (*Downloader, error) {
	d := &Downloader{
		Client:       config.Download.Client,
		IgnoreErrors: config.Download.IgnoreErrors,
	}
	if config.Gdc.TokenFile != "" {
		token, err := auth.ReadTokenFile(config.Gdc.TokenFile, config.Service.Secret)
		if err != nil {
			return nil, err
		}
		d.Token = token
	}
	return d, nil
}

// returns the directory beneath root into which files in the given data
// category are downloaded; every whitespace character in the category
// becomes an underscore
func CategoryDirectory(root, category string) string {
	name := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, category)
	return filepath.Join(root, name)
}

// writes a manifest for the given result (named for its first project) into
// the given directory and runs gdc-client to download the listed files into a
// subdirectory for the result's data category
func (d *Downloader) Download(ctx context.Context, result query.Result, directory string) (Report, error) {
	if len(result.Projects) == 0 {
		return Report{}, errors.New("No projects in query result")
	}
	manifestFile, err := manifest.Write(result, result.Projects[0], directory)
	if err != nil {
		return Report{}, err
	}
	report := Report{
		Manifest:  manifestFile,
		Directory: CategoryDirectory(directory, result.DataCategory),
		Files:     result.Len(),
	}
	for _, size := range result.Column("file_size") {
		if s, ok := size.(float64); ok {
			report.Bytes += int64(s)
		}
	}
	if err := manifest.EnsureDir(report.Directory); err != nil {
		return Report{}, err
	}

	args := []string{"download", "-m", manifestFile, "-d", report.Directory}
	if d.Token != "" {
		tokenDir, err := os.MkdirTemp("", "gdc-token-")
		if err != nil {
			return Report{}, err
		}
		defer os.RemoveAll(tokenDir)
		tokenFile := filepath.Join(tokenDir, "token.txt")
		if err := auth.WriteTokenFile(tokenFile, d.Token); err != nil {
			return Report{}, err
		}
		args = append(args, "-t", tokenFile)
	}

	slog.Info(fmt.Sprintf("Downloading %d %s files (%d bytes) into %s...",
		report.Files, result.DataCategory, report.Bytes, report.Directory))
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, d.Client, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err = cmd.Run()
	report.Output = stdout.String()
	if err != nil {
		clientErr := &ClientError{
			Client:   d.Client,
			ExitCode: -1,
			Stderr:   stderr.String(),
			Message:  err.Error(),
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
			clientErr.ExitCode = exitErr.ExitCode()
		}
		if !d.IgnoreErrors {
			return report, clientErr
		}
		slog.Warn(fmt.Sprintf("Ignoring download failure: %s", clientErr.Error()))
		report.Failure = clientErr
		return report, nil
	}
	slog.Info(fmt.Sprintf("Downloaded files listed in %s", manifestFile))
	return report, nil
}
