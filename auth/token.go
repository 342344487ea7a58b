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

// Package auth reads the GDC authentication token used to access
// controlled data. Token files may be stored in plain text or encrypted with
// a Fernet key.
package auth

import (
	"bytes"
	"errors"
	"os"
	"strings"

	"github.com/fernet/fernet-go"
)

// ReadTokenFile returns the GDC authentication token stored in the file at
// tokenFilePath. If secret is non-empty, it's the encoded Fernet key with
// which the file's content was encrypted and signed.
func ReadTokenFile(tokenFilePath, secret string) (string, error) {
	content, err := os.ReadFile(tokenFilePath)
	if err != nil {
		return "", err
	}

	plainText := content
	if secret != "" {
		key, err := fernet.DecodeKey(secret)
		if err != nil {
			return "", &InvalidSecretError{Message: err.Error()}
		}
		// a negative TTL disables the expiration check
		plainText = fernet.VerifyAndDecrypt(bytes.TrimSpace(content), -1, []*fernet.Key{key})
		if plainText == nil {
			return "", &InvalidTokenFileError{
				Path:    tokenFilePath,
				Message: "could not verify or decrypt contents",
			}
		}
	}

	token := strings.TrimSpace(string(plainText))
	if token == "" {
		return "", &InvalidTokenFileError{
			Path:    tokenFilePath,
			Message: "no token found",
		}
	}
	return token, nil
}

// WriteTokenFile writes the given token in plain text to a file readable
// only by its owner (the format expected by gdc-client).
func WriteTokenFile(path, token string) error {
	if token == "" {
		return errors.New("No GDC token to write")
	}
	return os.WriteFile(path, []byte(token), 0600)
}
