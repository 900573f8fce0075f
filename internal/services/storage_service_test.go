// internal/services/storage_service_test.go
package services

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shoplane/shoplane-backend/internal/config"
)

// memoryFile adapts an in-memory payload to multipart.File.
type memoryFile struct {
	*bytes.Reader
}

func (memoryFile) Close() error { return nil }

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func newLocalStorageService(t *testing.T) *StorageService {
	t.Helper()

	svc, err := NewStorageService(&config.Config{
		Environment: "development",
		Server:      config.ServerConfig{Host: "localhost", Port: "8080"},
	})
	require.NoError(t, err)
	return svc
}

func chdirTemp(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
	return dir
}

func TestUploadFileLocalWritesToDisk(t *testing.T) {
	dir := chdirTemp(t)
	svc := newLocalStorageService(t)

	payload := append(append([]byte{}, pngHeader...), []byte("image body")...)
	file := memoryFile{bytes.NewReader(payload)}
	header := &multipart.FileHeader{Filename: "lamp.png", Size: int64(len(payload))}

	result, err := svc.UploadFile(file, header, svc.GetDefaultUploadOptions("products"))
	require.NoError(t, err)

	assert.Contains(t, result.URL, "http://localhost:8080/uploads/products/")
	assert.True(t, strings.HasPrefix(result.Key, "products/"))
	assert.Equal(t, int64(len(payload)), result.Size)

	written, err := os.ReadFile(filepath.Join(dir, "uploads", filepath.FromSlash(result.Key)))
	require.NoError(t, err)
	assert.Equal(t, payload, written)
}

func TestUploadFileGeneratesDistinctKeys(t *testing.T) {
	chdirTemp(t)
	svc := newLocalStorageService(t)

	keys := make(map[string]bool)
	for i := 0; i < 3; i++ {
		payload := append(append([]byte{}, pngHeader...), byte(i))
		file := memoryFile{bytes.NewReader(payload)}
		header := &multipart.FileHeader{Filename: "lamp.png", Size: int64(len(payload))}

		result, err := svc.UploadFile(file, header, svc.GetDefaultUploadOptions("products"))
		require.NoError(t, err)
		keys[result.Key] = true
	}
	assert.Len(t, keys, 3)
}

func TestUploadFileRejectsDisallowedExtension(t *testing.T) {
	chdirTemp(t)
	svc := newLocalStorageService(t)

	payload := []byte("#!/bin/sh")
	file := memoryFile{bytes.NewReader(payload)}
	header := &multipart.FileHeader{Filename: "script.sh", Size: int64(len(payload))}

	_, err := svc.UploadFile(file, header, svc.GetDefaultUploadOptions("products"))
	assert.Error(t, err)
}

func TestUploadFileRejectsOversizedFile(t *testing.T) {
	chdirTemp(t)
	svc := newLocalStorageService(t)

	file := memoryFile{bytes.NewReader(pngHeader)}
	header := &multipart.FileHeader{Filename: "lamp.png", Size: 11 * 1024 * 1024}

	_, err := svc.UploadFile(file, header, svc.GetDefaultUploadOptions("products"))
	assert.Error(t, err)
}

func TestValidateImageMagicBytes(t *testing.T) {
	svc := newLocalStorageService(t)

	valid := memoryFile{bytes.NewReader(append(append([]byte{}, pngHeader...), []byte("rest")...))}
	require.NoError(t, svc.ValidateImage(valid))

	invalid := memoryFile{bytes.NewReader([]byte("definitely not an image"))}
	assert.Error(t, svc.ValidateImage(invalid))
}
