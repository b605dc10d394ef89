// Package resource stores the binary resources an atlas references by path,
// such as shape graphics and background images, and the catalog declaring
// where each shape is placed.
package resource

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/rpgmapper/backend/internal/models"
)

var (
	// ErrNotFound is returned for paths without a stored resource.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidPath is returned for paths that cannot name a resource.
	ErrInvalidPath = errors.New("invalid resource path")
)

// Resource is a blob addressed by path.
type Resource struct {
	Path      string
	MimeType  string
	Data      []byte
	UpdatedAt time.Time
}

// Info returns the metadata of r.
func (r Resource) Info() models.ResourceInfo {
	return models.ResourceInfo{
		Path:      r.Path,
		MimeType:  r.MimeType,
		Size:      int64(len(r.Data)),
		UpdatedAt: r.UpdatedAt,
	}
}

// Store keeps resources keyed by normalized path.
type Store interface {
	// Put stores data at p, replacing any previous resource. An empty mimeType
	// is detected from the path extension and the content.
	Put(ctx context.Context, p string, data []byte, mimeType string) (models.ResourceInfo, error)
	Get(ctx context.Context, p string) (Resource, error)
	// List returns the resources below prefix ordered by path.
	List(ctx context.Context, prefix string) ([]models.ResourceInfo, error)
	Delete(ctx context.Context, p string) error
}

// NormalizePath cleans p into the absolute slash form used as store key.
// "shapes/../tree.svg" becomes "/tree.svg"; the root itself is rejected.
func NormalizePath(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" || strings.ContainsRune(p, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	clean := path.Clean("/" + p)
	if clean == "/" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return clean, nil
}

// DetectMimeType guesses the mime type from the extension, then the content.
func DetectMimeType(p string, data []byte) string {
	if t := mime.TypeByExtension(path.Ext(p)); t != "" {
		return t
	}
	return http.DetectContentType(data)
}

func prepare(p string, data []byte, mimeType string) (Resource, error) {
	key, err := NormalizePath(p)
	if err != nil {
		return Resource{}, err
	}
	if mimeType == "" {
		mimeType = DetectMimeType(key, data)
	}
	return Resource{
		Path:      key,
		MimeType:  mimeType,
		Data:      append([]byte(nil), data...),
		UpdatedAt: time.Now().UTC(),
	}, nil
}

func prefixKey(prefix string) (string, error) {
	if strings.TrimSpace(prefix) == "" || prefix == "/" {
		return "/", nil
	}
	key, err := NormalizePath(prefix)
	if err != nil {
		return "", err
	}
	return key + "/", nil
}

// Importer is implemented by stores that write many resources in one batch.
type Importer interface {
	Import(ctx context.Context, resources []Resource) error
}
