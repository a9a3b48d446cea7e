// Package submit implements the create path shared by every record kind:
// upload all attachments, then insert the record referencing whichever
// uploads succeeded.
package submit

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/communitysafe/crimewatch/internal/pkg/logger"
	"github.com/communitysafe/crimewatch/internal/pkg/store"
	"github.com/communitysafe/crimewatch/internal/pkg/upload"
)

// Request describes one submission: the record fields plus zero or more
// local attachments. Folder is the blob path prefix (e.g. "crime_reports").
type Request struct {
	Collection string
	Folder     string
	Data       map[string]interface{}
	Files      []upload.File
}

// Pipeline runs upload-then-insert submissions.
type Pipeline struct {
	store    store.Store
	uploader upload.Uploader
	log      *logger.Logger
}

func New(s store.Store, u upload.Uploader, log *logger.Logger) *Pipeline {
	return &Pipeline{store: s, uploader: u, log: log}
}

// Submit uploads every attachment concurrently, then inserts the record
// once with the URLs that succeeded and a server-assigned timestamp.
//
// DropFailedUploads policy: a failed upload is logged and omitted from
// imageUrls; it never aborts the submission. imageUrls is ordered by upload
// completion, not by input position. The insert is attempted exactly once;
// on insert failure already-uploaded blobs are left in place.
func (p *Pipeline) Submit(ctx context.Context, req Request) (string, error) {
	urls := p.uploadAll(ctx, req.Folder, req.Files)

	data := make(map[string]interface{}, len(req.Data)+2)
	for k, v := range req.Data {
		data[k] = v
	}
	data["imageUrls"] = urls
	data["timestamp"] = store.ServerTimestamp

	id, err := p.store.Insert(ctx, req.Collection, data)
	if err != nil {
		return "", err
	}
	return id, nil
}

// uploadAll fans the uploads out and joins them; the append order under the
// lock is completion order.
func (p *Pipeline) uploadAll(ctx context.Context, folder string, files []upload.File) []string {
	urls := []string{}
	if len(files) == 0 {
		return urls
	}

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, f := range files {
		wg.Add(1)
		go func(f upload.File) {
			defer wg.Done()
			dest := folder + "/" + uuid.NewString() + filepath.Ext(f.Name())
			url, err := p.uploader.Upload(ctx, f, dest)
			if err != nil {
				p.log.Warn("submit: dropping attachment %s: %v", f.Name(), err)
				return
			}
			mu.Lock()
			urls = append(urls, url)
			mu.Unlock()
		}(f)
	}
	wg.Wait()
	return urls
}
