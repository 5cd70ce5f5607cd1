// AngelaMos | 2026
// cloudinary.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/wattgrid/marketplace-api/internal/config"
)

var ErrNotConfigured = errors.New("object storage not configured")

type Object struct {
	URL      string
	PublicID string
	Bytes    int
	Format   string
}

type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinary(cfg config.CloudinaryConfig) (*Cloudinary, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, ErrNotConfigured
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	return &Cloudinary{cld: cld, folder: cfg.Folder}, nil
}

// Upload streams r to the configured folder. Nothing touches local disk.
func (c *Cloudinary) Upload(
	ctx context.Context,
	r io.Reader,
	subfolder string,
) (*Object, error) {
	folder := c.folder
	if subfolder != "" {
		folder = folder + "/" + subfolder
	}

	res, err := c.cld.Upload.Upload(ctx, r, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "auto",
	})
	if err != nil {
		return nil, fmt.Errorf("upload object: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("upload object: %s", res.Error.Message)
	}

	return &Object{
		URL:      res.SecureURL,
		PublicID: res.PublicID,
		Bytes:    res.Bytes,
		Format:   res.Format,
	}, nil
}

func (c *Cloudinary) Delete(ctx context.Context, publicID string) error {
	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("delete object: %s", res.Error.Message)
	}
	return nil
}
