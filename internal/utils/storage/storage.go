package storage

import (
	"context"
	"path/filepath"
	"strings"
)

// AllowImage lists the upload extensions accepted for cover images.
var AllowImage = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// MediaStorage stores derived media files under a storage-relative key and
// hands back a public reference for serving.
type MediaStorage interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromRef(ref string) string
}

func AllowedImage(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AllowImage {
		if ext == allowed {
			return true
		}
	}
	return false
}
