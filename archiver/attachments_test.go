package archiver

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"discord-archiver/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileExtension(t *testing.T) {
	cases := map[string]string{
		"foobar.jpg":     ".jpg",
		"archive.jpeg":   ".jpeg",
		"notes.txt":      ".txt",
		"foobar":         ".file",
		"weird.a":        ".file",
		"trailing.":      ".file",
		"double.tar.gz":  ".file", // .gz is too short for the suffix rule
		"double.tar.bz2": ".bz2",
	}
	for filename, want := range cases {
		assert.Equal(t, want, fileExtension(filename), "filename %q", filename)
	}
}

func TestOffloadWritesFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("payload-bytes"))
	}))
	defer server.Close()

	root := t.TempDir()
	offloader := NewOffloader(server.Client(), root)

	att := models.Attachment{ID: "0", Filename: "foobar.jpg", URL: server.URL}
	require.NoError(t, offloader.Offload("chan-1", att))

	data, err := os.ReadFile(filepath.Join(root, "chan-1", "0.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "payload-bytes", string(data))
}

func TestOffloadDefaultExtension(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer server.Close()

	root := t.TempDir()
	offloader := NewOffloader(server.Client(), root)

	att := models.Attachment{ID: "7", Filename: "foobar", URL: server.URL}
	require.NoError(t, offloader.Offload("chan-1", att))

	_, err := os.Stat(filepath.Join(root, "chan-1", "7.file"))
	assert.NoError(t, err)
}

func TestOffloadExistingDirectory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer server.Close()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "chan-1"), 0755))
	offloader := NewOffloader(server.Client(), root)

	att := models.Attachment{ID: "1", Filename: "a.png", URL: server.URL}
	assert.NoError(t, offloader.Offload("chan-1", att))
}

func TestOffloadNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	offloader := NewOffloader(server.Client(), t.TempDir())

	att := models.Attachment{ID: "1", Filename: "a.png", URL: server.URL}
	err := offloader.Offload("chan-1", att)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
