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

import (
	"fmt"
	"log"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// default GDC API root
const DefaultGdcURL = "https://api.gdc.cancer.gov/"

// default number of hits requested per project query; small by default so
// that an unqualified search stays quick, raise it or use 0 for every file
const DefaultMaxResults = 2

var Service serviceConfig
var Gdc gdcConfig
var Download downloadConfig

type configFile struct {
	Service  serviceConfig  `yaml:"service"`
	Gdc      gdcConfig      `yaml:"gdc"`
	Download downloadConfig `yaml:"download"`
}

// assigns defaults to a configuration before it's unmarshalled
func defaults() configFile {
	var conf configFile
	conf.Service.Port = 8080
	conf.Service.MaxConnections = 100
	conf.Service.DataDirectory = "."
	conf.Service.ManifestDirectory = "GDCdata"
	conf.Service.LogLevel = "info"
	conf.Gdc.URL = DefaultGdcURL
	conf.Gdc.Timeout = 300
	conf.Gdc.MaxResults = DefaultMaxResults
	conf.Gdc.ProjectPageSize = 1000
	conf.Download.Client = "gdc-client"
	return conf
}

func readConfig(bytes []byte) error {
	// Before we do anything else, expand any provided environment variables.
	bytes = []byte(os.ExpandEnv(string(bytes)))

	conf := defaults()
	err := yaml.Unmarshal(bytes, &conf)
	if err != nil {
		log.Printf("Couldn't parse configuration data: %s\n", err)
		return err
	}

	// copy the config data into place
	Service = conf.Service
	Gdc = conf.Gdc
	Download = conf.Download

	return err
}

func validateServiceParameters(params serviceConfig) error {
	if params.Port < 0 || params.Port > 65535 {
		return fmt.Errorf("Invalid port: %d (must be 0-65535)", params.Port)
	}
	if params.MaxConnections <= 0 {
		return fmt.Errorf("Invalid max_connections: %d (must be positive)",
			params.MaxConnections)
	}
	return nil
}

func validateGdcParameters(params gdcConfig) error {
	u, err := url.Parse(params.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("Invalid GDC URL: '%s'", params.URL)
	}
	if params.Timeout < 0 {
		return fmt.Errorf("Invalid GDC timeout: %d (must be non-negative)", params.Timeout)
	}
	if params.MaxResults < 0 {
		return fmt.Errorf("Invalid max_results: %d (must be non-negative)", params.MaxResults)
	}
	if params.ProjectPageSize <= 0 {
		return fmt.Errorf("Invalid project_page_size: %d (must be positive)",
			params.ProjectPageSize)
	}
	return nil
}

func validateConfig() error {
	err := validateServiceParameters(Service)
	if err != nil {
		return err
	}
	err = validateGdcParameters(Gdc)
	if err != nil {
		return err
	}
	if Download.Client == "" {
		return fmt.Errorf("No download client was provided!")
	}
	return nil
}

// Initializes the configuration from the given YAML data. Blank input yields
// the default configuration.
func Init(yamlData []byte) error {

	// Read the configuration from our YAML file.
	err := readConfig(yamlData)
	if err != nil {
		return err
	}

	// Validate the configuration.
	err = validateConfig()
	return err
}

// Resets all configuration globals to their defaults.
func Reset() {
	conf := defaults()
	Service = conf.Service
	Gdc = conf.Gdc
	Download = conf.Download
}

func init() {
	Reset()
}
