// Package blob stores meal plan images, profile pictures and certificates.
package blob

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Key prefixes per object family.
const (
	MealPlanImages           = "meal_plan_images"
	ProfileImages            = "profile_images"
	NutritionistCertificates = "nutritionist_certificates"
)

type Store interface {
	// Upload writes content under key and returns its public URL.
	Upload(ctx context.Context, key string, content []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// File is an uploaded file as read from a multipart request.
type File struct {
	Name    string
	Content []byte
}

func (f *File) Empty() bool {
	return f == nil || len(f.Content) == 0
}

func (f *File) ContentType() string {
	return ContentType(f.Name)
}

// NewKey builds "<prefix>/<owner>_<unix>_<uuid><ext>".
func NewKey(prefix, owner, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("%s/%s_%d_%s%s", prefix, owner, time.Now().Unix(), uuid.NewString(), ext)
}

func ContentType(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// IsImage reports whether the file extension is an accepted image format.
func IsImage(fileName string) bool {
	return strings.HasPrefix(ContentType(fileName), "image/")
}
