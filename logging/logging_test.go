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

package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(slog.LevelError, ParseLevel("error"))
	assert.Equal(slog.LevelInfo, ParseLevel("info"))
	assert.Equal(slog.LevelInfo, ParseLevel("chatty"))
}

func TestSetupWritesToFile(t *testing.T) {
	assert := assert.New(t)
	defer slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	logFile := filepath.Join(t.TempDir(), "logs", "gdc.log")
	cfg := DefaultConfig()
	cfg.FilePath = logFile
	cfg.Compress = false
	cleanup, err := Setup(cfg)
	assert.Nil(err)

	slog.Info("querying project TCGA-BRCA")
	assert.Nil(cleanup())

	data, err := os.ReadFile(logFile)
	assert.Nil(err)
	assert.Contains(string(data), "querying project TCGA-BRCA")
}

func TestSetupWithoutFile(t *testing.T) {
	assert := assert.New(t)
	defer slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cleanup, err := Setup(DefaultConfig())
	assert.Nil(err)
	assert.Nil(cleanup())
	assert.False(slog.Default().Enabled(context.Background(), slog.LevelDebug))
}
