package storage

import (
	"context"
	"errors"
	"io"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// MomentPhotoFolder is where moment photos are uploaded.
const MomentPhotoFolder = "moments"

var ErrNotConfigured = errors.New("photo storage is not configured")

type Cloudinary struct {
	CLD *cloudinary.Cloudinary
}

// NewCloudinary returns ErrNotConfigured when any credential is missing.
func NewCloudinary(cloudName, apiKey, apiSecret string) (*Cloudinary, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, ErrNotConfigured
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, err
	}

	return &Cloudinary{CLD: cld}, nil
}

// UploadImage stores the image read from file and returns its HTTPS URL.
func (c *Cloudinary) UploadImage(ctx context.Context, file io.Reader, folder string) (string, error) {
	if c == nil {
		return "", ErrNotConfigured
	}
	resp, err := c.CLD.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       folder,
		ResourceType: "image",
	})
	if err != nil {
		return "", err
	}
	if resp.Error.Message != "" {
		return "", errors.New(resp.Error.Message)
	}
	return resp.SecureURL, nil
}
