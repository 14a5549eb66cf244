package blob

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"diabeater-console/pkg/apperror"
)

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Cloudinary stores blobs as Cloudinary assets. The blob key minus its
// extension becomes the public id inside Folder.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinary(cfg CloudinaryConfig) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary client: %w", err)
	}
	cld.Config.URL.Secure = true
	return &Cloudinary{cld: cld, folder: strings.Trim(cfg.Folder, "/")}, nil
}

func (c *Cloudinary) Upload(ctx context.Context, key string, content []byte, contentType string) (string, error) {
	if key == "" {
		return "", apperror.Validation("blob key cannot be empty")
	}

	params := uploader.UploadParams{
		PublicID:     c.publicID(key),
		Overwrite:    api.Bool(true),
		ResourceType: "auto",
	}
	if strings.HasPrefix(contentType, "image/") {
		params.Transformation = "q_auto"
	}

	resp, err := c.cld.Upload.Upload(ctx, bytes.NewReader(content), params)
	if err != nil {
		return "", apperror.Transient("upload "+key, err)
	}
	if resp.Error.Message != "" {
		return "", apperror.Transient("upload "+key, fmt.Errorf("cloudinary: %s", resp.Error.Message))
	}
	if resp.SecureURL == "" {
		return "", apperror.Transient("upload "+key, fmt.Errorf("cloudinary upload succeeded but secure URL is empty"))
	}
	return resp.SecureURL, nil
}

func (c *Cloudinary) Delete(ctx context.Context, key string) error {
	if key == "" {
		return apperror.Validation("blob key cannot be empty")
	}
	resp, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:   c.publicID(key),
		Invalidate: api.Bool(true),
	})
	if err != nil {
		return apperror.Transient("delete "+key, err)
	}
	if resp.Result != "ok" && resp.Result != "not found" {
		return apperror.Transient("delete "+key, fmt.Errorf("cloudinary destroy returned %q", resp.Result))
	}
	return nil
}

func (c *Cloudinary) publicID(key string) string {
	id := strings.TrimSuffix(key, path.Ext(key))
	if c.folder == "" {
		return id
	}
	return c.folder + "/" + id
}
