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

// These tests verify that GDC tokens can be read from plain and
// Fernet-encrypted files.
package auth

import (
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/fernet/fernet-go"
	"github.com/stretchr/testify/assert"
)

// runs setup, runs all tests, and does breakdown
func TestMain(m *testing.M) {
	setup()
	status := m.Run()
	breakdown()
	os.Exit(status)
}

// Fernet encryption/decryption key
var TestKey fernet.Key

// temporary testing directory
var TestDir string

// testing GDC token
const TestToken = "7029c1877e9c2dd3dab814cc0f2763af"

func setup() {
	log.Print("Creating testing directory...\n")
	var err error
	TestDir, err = os.MkdirTemp(os.TempDir(), "gdc-auth-tests-")
	if err != nil {
		log.Panicf("Couldn't create testing directory: %s", err.Error())
	}

	err = TestKey.Generate()
	if err != nil {
		log.Panicf("Couldn't generate encryption key: %s", err.Error())
	}

	err = os.WriteFile(filepath.Join(TestDir, "token.txt"), []byte(TestToken+"\n"), 0600)
	if err != nil {
		log.Panicf("Couldn't write plain token file: %s", err.Error())
	}

	encrypted, err := fernet.EncryptAndSign([]byte(TestToken), &TestKey)
	if err != nil {
		log.Panicf("Couldn't encrypt test token: %s", err.Error())
	}
	err = os.WriteFile(filepath.Join(TestDir, "token.dat"), encrypted, 0600)
	if err != nil {
		log.Panicf("Couldn't write encrypted token file: %s", err.Error())
	}
}

func breakdown() {
	if TestDir != "" {
		log.Printf("Deleting testing directory %s...\n", TestDir)
		os.RemoveAll(TestDir)
	}
}

func TestReadPlainTokenFile(t *testing.T) {
	assert := assert.New(t)
	token, err := ReadTokenFile(filepath.Join(TestDir, "token.txt"), "")
	assert.Nil(err)
	assert.Equal(TestToken, token)
}

func TestReadEncryptedTokenFile(t *testing.T) {
	assert := assert.New(t)
	token, err := ReadTokenFile(filepath.Join(TestDir, "token.dat"), TestKey.Encode())
	assert.Nil(err)
	assert.Equal(TestToken, token)
}

func TestReadEncryptedTokenFileWithWrongKey(t *testing.T) {
	assert := assert.New(t)
	var otherKey fernet.Key
	assert.Nil(otherKey.Generate())
	_, err := ReadTokenFile(filepath.Join(TestDir, "token.dat"), otherKey.Encode())
	assert.IsType(&InvalidTokenFileError{}, err)
}

func TestReadTokenFileWithBadSecret(t *testing.T) {
	assert := assert.New(t)
	_, err := ReadTokenFile(filepath.Join(TestDir, "token.dat"), "not-a-fernet-key")
	assert.IsType(&InvalidSecretError{}, err)
}

func TestReadMissingTokenFile(t *testing.T) {
	assert := assert.New(t)
	_, err := ReadTokenFile(filepath.Join(TestDir, "nope.txt"), "")
	assert.NotNil(err)
}

func TestReadEmptyTokenFile(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(TestDir, "empty.txt")
	assert.Nil(os.WriteFile(path, []byte("  \n"), 0600))
	_, err := ReadTokenFile(path, "")
	assert.IsType(&InvalidTokenFileError{}, err)
}

func TestWriteTokenFile(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(TestDir, "written.txt")
	assert.Nil(WriteTokenFile(path, TestToken))
	info, err := os.Stat(path)
	assert.Nil(err)
	assert.Equal(os.FileMode(0600), info.Mode().Perm())
	token, err := ReadTokenFile(path, "")
	assert.Nil(err)
	assert.Equal(TestToken, token)

	assert.NotNil(WriteTokenFile(path, ""))
}
