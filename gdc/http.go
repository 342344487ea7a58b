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
	"net/http"
	"time"

	"github.com/StalkR/hsts"
)

// the most redirects followed for a single GDC request
const maxRedirects = 5

// returns an HTTP client for the GDC API with the given timeout. Strict
// transport security is honored, HTTPS redirects (such as those between API
// versions) are followed, and a redirect to plain HTTP is refused.
func SecureHttpClient(timeout time.Duration) http.Client {
	return http.Client{
		Timeout:       timeout,
		Transport:     hsts.New(http.DefaultTransport),
		CheckRedirect: checkRedirect,
	}
}

func checkRedirect(req *http.Request, via []*http.Request) error {
	if req.URL.Scheme == "http" {
		return &DowngradedRedirectError{
			Endpoint: req.URL.Host + req.URL.Path,
		}
	}
	if len(via) >= maxRedirects {
		origin := via[0].URL
		return fmt.Errorf("GDC request to %s%s stopped after %d redirects",
			origin.Host, origin.Path, maxRedirects)
	}
	return nil
}
