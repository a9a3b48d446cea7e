// Package upload defines the blob uploader contract: hand it a local file,
// get back a durable retrieval URL.
package upload

import (
	"context"
	"fmt"
	"io"
)

// File is a local attachment handle: readable content plus the original
// filename and byte size, both checked before the upload starts.
type File interface {
	io.Reader
	Name() string
	Size() int64
}

// UploadError wraps a single-file upload failure. The submission pipeline
// drops the file and carries on; callers that upload directly see the error.
type UploadError struct {
	Filename string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Filename, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// Uploader is the blob store contract.
type Uploader interface {
	// Upload stores the file under destPath and returns its retrieval URL.
	Upload(ctx context.Context, file File, destPath string) (string, error)

	// Delete removes a previously uploaded blob by its public id. The
	// submission pipeline never calls this; it exists so callers can
	// compensate for orphaned blobs if they choose to.
	Delete(ctx context.Context, publicID string) error
}
