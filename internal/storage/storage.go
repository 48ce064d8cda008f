// Package storage issues presigned uploads against S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultTimeout bounds every call to the object store.
const DefaultTimeout = 5 * time.Second

// PresignedUpload describes how a client uploads an object directly to storage.
type PresignedUpload struct {
	URL     string            `json:"upload_url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
}

// Gateway is the object storage surface used by the image upload flow.
type Gateway interface {
	GenerateKey(projectID uuid.UUID, filename string) string
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (*PresignedUpload, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// GenerateKey builds projects/{projectID}/{random}/{filename} with a sanitized filename.
func GenerateKey(projectID uuid.UUID, filename string) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("projects/%s/%s/%s", projectID, random, SanitizeFilename(filename))
}

// SanitizeFilename keeps ASCII letters, digits, dots, hyphens and underscores.
func SanitizeFilename(filename string) string {
	var b strings.Builder
	for _, r := range filename {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "image"
	}
	return b.String()
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
