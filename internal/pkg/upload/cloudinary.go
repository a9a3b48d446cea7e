package upload

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryUploader stores attachments on Cloudinary.
type CloudinaryUploader struct {
	cld          *cloudinary.Cloudinary
	uploadFolder string
}

// Image validation constants
var (
	AllowedImageTypes = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

	MaxImageSize = int64(10 * 1024 * 1024) // 10MB
)

// NewCloudinaryUploader creates an uploader rooted at uploadFolder.
func NewCloudinaryUploader(cloudName, apiKey, apiSecret, uploadFolder string) (*CloudinaryUploader, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, errors.New("cloudinary credentials are required")
	}

	cloudinaryURL := fmt.Sprintf("cloudinary://%s:%s@%s", apiKey, apiSecret, cloudName)

	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary client: %w", err)
	}

	if uploadFolder == "" {
		uploadFolder = "crimewatch"
	}

	return &CloudinaryUploader{
		cld:          cld,
		uploadFolder: uploadFolder,
	}, nil
}

// Upload stores one attachment under <uploadFolder>/<destPath> and returns
// its secure URL.
func (u *CloudinaryUploader) Upload(ctx context.Context, file File, destPath string) (string, error) {
	if err := validateImageFile(file); err != nil {
		return "", &UploadError{Filename: file.Name(), Err: err}
	}

	uploadParams := uploader.UploadParams{
		PublicID:     u.uploadFolder + "/" + strings.TrimSuffix(destPath, filepath.Ext(destPath)),
		ResourceType: "image",
	}

	result, err := u.cld.Upload.Upload(ctx, file, uploadParams)
	if err != nil {
		return "", &UploadError{Filename: file.Name(), Err: err}
	}

	return result.SecureURL, nil
}

// Delete removes an uploaded asset.
func (u *CloudinaryUploader) Delete(ctx context.Context, publicID string) error {
	if publicID == "" {
		return errors.New("publicID is required")
	}

	destroyParams := uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	}

	_, err := u.cld.Upload.Destroy(ctx, destroyParams)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}

	return nil
}

// validateImageFile checks the file size and extension before any bytes
// leave the device.
func validateImageFile(file File) error {
	if file.Size() > MaxImageSize {
		return fmt.Errorf("image file size exceeds maximum allowed size of %d MB", MaxImageSize/(1024*1024))
	}

	ext := strings.ToLower(filepath.Ext(file.Name()))
	if !isAllowedExtension(ext, AllowedImageTypes) {
		return fmt.Errorf("invalid image file type: %s. Allowed types: %s", ext, strings.Join(AllowedImageTypes, ", "))
	}
	return nil
}

// isAllowedExtension checks if the extension is in the allowed list
func isAllowedExtension(ext string, allowedTypes []string) bool {
	for _, allowed := range allowedTypes {
		if ext == allowed {
			return true
		}
	}
	return false
}
