package archiver

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"discord-archiver/models"
)

// defaultExtension is used when no extension can be derived from the
// attachment filename.
const defaultExtension = ".file"

var extensionPattern = regexp.MustCompile(`\.\w{3,4}$`)

// Offloader downloads attachments into per-channel directories, one file
// per attachment named {id}{ext}.
type Offloader struct {
	client *http.Client
	root   string
}

// NewOffloader creates an Offloader writing below the given root directory.
func NewOffloader(client *http.Client, root string) *Offloader {
	return &Offloader{client: client, root: root}
}

// Offload streams one attachment from its source URL into
// {root}/{channelID}/{id}{ext}.
func (o *Offloader) Offload(channelID string, att models.Attachment) error {
	dir := filepath.Join(o.root, channelID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create attachment directory: %w", err)
	}

	resp, err := o.client.Get(att.URL)
	if err != nil {
		return fmt.Errorf("failed to download attachment %s: %w", att.ID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d downloading attachment %s", resp.StatusCode, att.ID)
	}

	path := filepath.Join(dir, att.ID+fileExtension(att.Filename))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open attachment file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.Body); err != nil {
		return fmt.Errorf("failed to write attachment %s: %w", att.ID, err)
	}
	return nil
}

// fileExtension derives the stored extension from the trailing .xxx or
// .xxxx of an attachment filename.
func fileExtension(filename string) string {
	if ext := extensionPattern.FindString(filename); ext != "" {
		return ext
	}
	return defaultExtension
}
