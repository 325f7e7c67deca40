// snapsy/media.go
package snapsy

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxUploadBytes caps a single upload at 200 MiB.
const MaxUploadBytes = 200 << 20

const maxNamePrefixLen = 50

// MediaStore persists uploaded files under sanitized, collision-free names
// inside a single directory. It knows nothing about posts or users.
type MediaStore struct {
	dir      string
	maxBytes int64
}

func NewMediaStore(dir string) (*MediaStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &MediaStore{dir: dir, maxBytes: MaxUploadBytes}, nil
}

func (s *MediaStore) Dir() string { return s.dir }

// Store writes the payload and returns the generated filename. The declared
// MIME type must begin with image/ or video/; anything else fails before a
// byte is written. Oversized payloads fail with ErrPayloadTooLarge and leave
// nothing behind.
func (s *MediaStore) Store(r io.Reader, originalName, mimeType, label string) (string, error) {
	if !strings.HasPrefix(mimeType, "image/") && !strings.HasPrefix(mimeType, "video/") {
		return "", ErrUnsupportedMediaType
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	prefix := sanitizeName(label)
	if prefix == "" {
		base := strings.TrimSuffix(filepath.Base(originalName), filepath.Ext(originalName))
		prefix = sanitizeName(base)
	}
	if prefix == "" {
		prefix = "upload"
	}
	name := prefix + "-" + uuid.New().String() + ext

	dst := filepath.Join(s.dir, name)
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create media file: %w", err)
	}
	n, err := io.Copy(out, io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	if n > s.maxBytes {
		out.Close()
		os.Remove(dst)
		return "", ErrPayloadTooLarge
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("failed to flush media file: %w", err)
	}
	return name, nil
}

// Delete is idempotent: removing a name that is not on disk is a no-op, so
// cleanup of already-missing files never fails.
func (s *MediaStore) Delete(name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete media file: %w", err)
	}
	return nil
}

// Has reports whether the named file is currently present. Readers use this
// to render dangling references as absent rather than failing.
func (s *MediaStore) Has(name string) bool {
	if name == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(s.dir, filepath.Base(name)))
	return err == nil
}

// sanitizeName keeps alphanumerics, hyphen, underscore and space, turns
// anything else into an underscore, collapses whitespace runs to hyphens and
// truncates the result.
func sanitizeName(name string) string {
	if name == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == ' ':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.Join(strings.Fields(b.String()), "-")
	if len(out) > maxNamePrefixLen {
		out = out[:maxNamePrefixLen]
	}
	return out
}
