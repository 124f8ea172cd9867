// Package storage implements the cover-image bucket on local disk.
package storage

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"taleboard/models"
)

const maxCoverSizeBytes = 10 * 1024 * 1024

// allowedExtensions is the cover upload allow-list. Extension checks are
// backed by content sniffing in Save.
var allowedExtensions = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
}

// Bucket stores cover images under a single directory and serves them from a
// public base URL. Object names embed the owner and upload time, so a retry
// of the same upload overwrites rather than conflicts.
type Bucket struct {
	dir     string
	baseURL string
}

// NewBucket creates the bucket directory if needed.
func NewBucket(dir, baseURL string) (*Bucket, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Bucket{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir returns the bucket's directory, for mounting as a static route.
func (b *Bucket) Dir() string { return b.dir }

// SaveCover writes a cover image for userID and returns its public URL.
// The object name is "<userID>-<unix ms>.<ext>"; an existing object with the
// same name is overwritten.
func (b *Bucket) SaveCover(userID uint, filename string, content []byte) (string, error) {
	if len(content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if len(content) > maxCoverSizeBytes {
		return "", models.NewValidationError("File too large (max 10MB)")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	wantMIME, ok := allowedExtensions[ext]
	if !ok {
		return "", models.NewValidationError("Only png, jpg, jpeg and gif files are allowed")
	}
	if detected := http.DetectContentType(content); detected != wantMIME {
		return "", models.NewValidationError("File content does not match its extension")
	}

	name := fmt.Sprintf("%d-%d%s", userID, time.Now().UnixMilli(), ext)
	path := filepath.Join(b.dir, name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return "", models.NewInternalError(err)
	}

	if err := b.writeThumbnail(path, content); err != nil {
		// The cover itself is stored; a failed thumbnail only costs bandwidth.
		return b.publicURL(name), nil
	}
	return b.publicURL(name), nil
}

// Remove deletes the object behind a public URL previously returned by
// SaveCover. Unknown URLs are ignored.
func (b *Bucket) Remove(publicURL string) error {
	name := strings.TrimPrefix(publicURL, b.baseURL+"/")
	if name == publicURL || name == "" || strings.Contains(name, "/") {
		return nil
	}
	if err := os.Remove(filepath.Join(b.dir, name)); err != nil && !os.IsNotExist(err) {
		return models.NewInternalError(err)
	}
	_ = os.Remove(filepath.Join(b.dir, thumbnailName(name)))
	return nil
}

func (b *Bucket) publicURL(name string) string {
	return b.baseURL + "/" + name
}
