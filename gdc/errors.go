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

package gdc

import (
	"fmt"
)

// This error type is returned when a set of projects is empty or contains a
// project the GDC doesn't know about.
type InvalidProjectError struct {
	Project, Message string
}

func (e InvalidProjectError) Error() string {
	if e.Project != "" {
		return fmt.Sprintf("Invalid project '%s': %s", e.Project, e.Message)
	}
	return fmt.Sprintf("Invalid project list: %s", e.Message)
}

// This error type is returned when a search parameter (data type, data
// category) is not recognized or not available for the chosen projects.
type InvalidParameterError struct {
	Parameter, Value, Message string
}

func (e InvalidParameterError) Error() string {
	return fmt.Sprintf("Invalid value '%s' for parameter '%s': %s",
		e.Value, e.Parameter, e.Message)
}

// indicates that the GDC API is currently unavailable
type UnavailableError struct {
}

func (e UnavailableError) Error() string {
	return "Cannot reach the GDC API: unavailable"
}

// this error type is returned when the GDC API answers a request with an
// unexpected status code
type RequestError struct {
	Resource string
	Status   int
	Message  string
}

func (e RequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("GDC request for '%s' failed (%d): %s", e.Resource, e.Status, e.Message)
	}
	return fmt.Sprintf("GDC request for '%s' failed (%d)", e.Resource, e.Status)
}

// this error type is emitted if an endpoint redirects an HTTPS request to an
// HTTP endpoint
type DowngradedRedirectError struct {
	Endpoint string
}

func (e DowngradedRedirectError) Error() string {
	return fmt.Sprintf("The endpoint %s is attempting to downgrade an HTTPS request to HTTP",
		e.Endpoint)
}
