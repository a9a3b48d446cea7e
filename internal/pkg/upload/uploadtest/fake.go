// Package uploadtest provides a fake Uploader for pipeline and view-model
// tests.
package uploadtest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/communitysafe/crimewatch/internal/pkg/upload"
)

// Uploader records uploads and can be told to fail for selected filenames.
type Uploader struct {
	mu sync.Mutex

	// FailAll makes every upload fail.
	FailAll bool
	// FailNames lists filenames whose upload fails.
	FailNames []string

	uploaded []string
	deleted  []string
}

func New() *Uploader {
	return &Uploader{}
}

func (u *Uploader) Upload(ctx context.Context, file upload.File, destPath string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.FailAll || contains(u.FailNames, file.Name()) {
		return "", &upload.UploadError{Filename: file.Name(), Err: errors.New("simulated upload failure")}
	}

	url := fmt.Sprintf("https://blobs.test/%s", destPath)
	u.uploaded = append(u.uploaded, url)
	return url, nil
}

func (u *Uploader) Delete(ctx context.Context, publicID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deleted = append(u.deleted, publicID)
	return nil
}

// Uploaded returns the URLs handed out so far.
func (u *Uploader) Uploaded() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.uploaded...)
}

// Deleted returns the public ids passed to Delete.
func (u *Uploader) Deleted() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.deleted...)
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// MemFile is an in-memory upload.File.
type MemFile struct {
	*strings.Reader
	name string
}

func NewMemFile(name, content string) *MemFile {
	return &MemFile{Reader: strings.NewReader(content), name: name}
}

func (f *MemFile) Name() string { return f.name }
