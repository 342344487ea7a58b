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

package config

type gdcConfig struct {
	// the root URL of the GDC API
	URL string `yaml:"url"`
	// if true, queries go to the frozen legacy namespace
	Legacy bool `yaml:"legacy"`
	// timeout for a single API request in seconds (0 = none)
	Timeout int `yaml:"timeout"`
	// number of hits requested per project query (0 = use the category's
	// file count)
	MaxResults int `yaml:"max_results"`
	// number of projects fetched when validating project IDs
	ProjectPageSize int `yaml:"project_page_size"`
	// file holding a GDC authentication token (optional)
	TokenFile string `yaml:"token_file"`
}
