package upload

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubFile struct {
	name string
	size int64
}

func (f stubFile) Read(p []byte) (int, error) { return 0, io.EOF }
func (f stubFile) Name() string               { return f.name }
func (f stubFile) Size() int64                { return f.size }

func TestValidateImageFileAcceptsAllowedTypes(t *testing.T) {
	for _, name := range []string{"scene.jpg", "scene.JPEG", "scene.png", "scene.gif", "scene.webp"} {
		require.NoError(t, validateImageFile(stubFile{name: name, size: 1024}), name)
	}
}

func TestValidateImageFileRejectsBadExtension(t *testing.T) {
	err := validateImageFile(stubFile{name: "report.pdf", size: 1024})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid image file type")
}

func TestValidateImageFileRejectsOversizedFile(t *testing.T) {
	err := validateImageFile(stubFile{name: "huge.jpg", size: MaxImageSize + 1})
	require.Error(t, err)
	require.Contains(t, err.Error(), "exceeds maximum allowed size")

	require.NoError(t, validateImageFile(stubFile{name: "fits.jpg", size: MaxImageSize}))
}
