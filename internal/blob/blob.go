// Package blob stores uploaded document bytes and hands back a stable
// reference the document row keeps as its fileUrl.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("blob not found")
	ErrInvalidRef = errors.New("invalid blob reference")
)

// Object describes what is being stored.
type Object struct {
	Filename    string
	ContentType string
	Size        int64
}

type Store interface {
	// Put writes r and returns the reference to read it back with.
	Put(ctx context.Context, obj Object, r io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	// Delete is best effort; a missing object is not an error.
	Delete(ctx context.Context, ref string) error
}

// NewKey builds uploads/yyyy/mm/dd/<uuid><ext>. The original filename only
// contributes its extension.
func NewKey(filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(filename, "\\", "/")))
	if len(ext) > 16 || strings.ContainsAny(ext, " /") {
		ext = ""
	}
	return fmt.Sprintf("uploads/%04d/%02d/%02d/%s%s", now.Year(), now.Month(), now.Day(), uuid.New(), ext)
}

// cleanRef rejects references that could escape the storage root.
func cleanRef(ref string) (string, error) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "/")
	if ref == "" {
		return "", ErrInvalidRef
	}
	cleaned := path.Clean(ref)
	if cleaned != ref || cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return cleaned, nil
}
