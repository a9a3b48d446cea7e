package submit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/communitysafe/crimewatch/internal/pkg/logger"
	"github.com/communitysafe/crimewatch/internal/pkg/store/storetest"
	"github.com/communitysafe/crimewatch/internal/pkg/submit"
	"github.com/communitysafe/crimewatch/internal/pkg/upload"
	"github.com/communitysafe/crimewatch/internal/pkg/upload/uploadtest"
)

func newPipeline(fake *storetest.Store, up *uploadtest.Uploader) *submit.Pipeline {
	return submit.New(fake, up, logger.New(logger.ERROR))
}

func TestSubmitNoAttachments(t *testing.T) {
	fake := storetest.New()
	up := uploadtest.New()

	id, err := newPipeline(fake, up).Submit(context.Background(), submit.Request{
		Collection: "crime_reports",
		Folder:     "crime_reports",
		Data:       map[string]interface{}{"headline": "Robbery at Mall"},
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	doc, err := fake.Get(context.Background(), "crime_reports", id)
	require.NoError(t, err)
	require.Equal(t, "Robbery at Mall", doc.Data["headline"])
	require.Equal(t, []string{}, doc.Data["imageUrls"])
	require.NotNil(t, doc.Data["timestamp"], "timestamp must be store-assigned")
}

func TestSubmitAllUploadsSucceed(t *testing.T) {
	fake := storetest.New()
	up := uploadtest.New()

	files := []upload.File{
		uploadtest.NewMemFile("a.jpg", "aaa"),
		uploadtest.NewMemFile("b.jpg", "bbb"),
		uploadtest.NewMemFile("c.jpg", "ccc"),
	}

	id, err := newPipeline(fake, up).Submit(context.Background(), submit.Request{
		Collection: "community_tips",
		Folder:     "community_tips",
		Data:       map[string]interface{}{"title": "lighting"},
		Files:      files,
	})
	require.NoError(t, err)

	doc, err := fake.Get(context.Background(), "community_tips", id)
	require.NoError(t, err)
	urls, ok := doc.Data["imageUrls"].([]string)
	require.True(t, ok)
	require.Len(t, urls, len(files))
}

func TestSubmitDropsFailedUploads(t *testing.T) {
	fake := storetest.New()
	up := uploadtest.New()
	up.FailNames = []string{"b.jpg"}

	id, err := newPipeline(fake, up).Submit(context.Background(), submit.Request{
		Collection: "community_tips",
		Folder:     "community_tips",
		Data:       map[string]interface{}{"title": "lighting"},
		Files: []upload.File{
			uploadtest.NewMemFile("a.jpg", "aaa"),
			uploadtest.NewMemFile("b.jpg", "bbb"),
		},
	})
	require.NoError(t, err, "a dropped attachment never aborts the submission")

	doc, err := fake.Get(context.Background(), "community_tips", id)
	require.NoError(t, err)
	urls := doc.Data["imageUrls"].([]string)
	require.Len(t, urls, 1)
}

func TestSubmitAllUploadsFail(t *testing.T) {
	fake := storetest.New()
	up := uploadtest.New()
	up.FailAll = true

	id, err := newPipeline(fake, up).Submit(context.Background(), submit.Request{
		Collection: "community_tips",
		Folder:     "community_tips",
		Data:       map[string]interface{}{"title": "lighting"},
		Files: []upload.File{
			uploadtest.NewMemFile("a.jpg", "aaa"),
			uploadtest.NewMemFile("b.jpg", "bbb"),
		},
	})
	require.NoError(t, err)

	doc, err := fake.Get(context.Background(), "community_tips", id)
	require.NoError(t, err)
	require.Equal(t, []string{}, doc.Data["imageUrls"])
}

func TestSubmitInsertFailureSingleAttempt(t *testing.T) {
	fake := storetest.New()
	fake.InsertErr = errors.New("quota exceeded")
	up := uploadtest.New()

	_, err := newPipeline(fake, up).Submit(context.Background(), submit.Request{
		Collection: "crime_reports",
		Folder:     "crime_reports",
		Data:       map[string]interface{}{"headline": "x"},
		Files:      []upload.File{uploadtest.NewMemFile("a.jpg", "aaa")},
	})
	require.Error(t, err)
	require.Equal(t, 1, fake.InsertCalls(), "no automatic retry")

	// Uploaded blobs stay behind; the pipeline never compensates.
	require.Len(t, up.Uploaded(), 1)
	require.Empty(t, up.Deleted())
}
