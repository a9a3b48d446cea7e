package tips

import (
	"context"
	"fmt"
	"time"

	"github.com/communitysafe/crimewatch/internal/pkg/feed"
	"github.com/communitysafe/crimewatch/internal/pkg/identity"
	"github.com/communitysafe/crimewatch/internal/pkg/logger"
	"github.com/communitysafe/crimewatch/internal/pkg/store"
	"github.com/communitysafe/crimewatch/internal/pkg/submit"
	"github.com/communitysafe/crimewatch/internal/pkg/upload"
	apperrors "github.com/communitysafe/crimewatch/pkg/errors"
)

// ViewModel mediates between the community tip collections and the UI.
type ViewModel struct {
	store    store.Store
	identity identity.Client
	pipeline *submit.Pipeline
	log      *logger.Logger
	timeout  time.Duration
}

func New(s store.Store, u upload.Uploader, id identity.Client, log *logger.Logger, timeout time.Duration) *ViewModel {
	return &ViewModel{
		store:    s,
		identity: id,
		pipeline: submit.New(s, u, log),
		log:      log,
		timeout:  timeout,
	}
}

// Tips opens the live feed of all community tips, newest first.
func (vm *ViewModel) Tips(ctx context.Context) <-chan feed.State[Tip] {
	f := feed.New(vm.store, store.Query{
		Collection: Collection,
		OrderBy:    "timestamp",
		Desc:       true,
	}, mapTip, vm.log)
	return f.Subscribe(ctx)
}

// LoadDetail opens the tip and its comment thread as two independent live
// subscriptions.
func (vm *ViewModel) LoadDetail(ctx context.Context, tipID string) (<-chan feed.DocState[Tip], <-chan feed.State[Comment], error) {
	tip, err := feed.WatchDoc(ctx, vm.store, Collection, tipID, mapTip, vm.log)
	if err != nil {
		return nil, nil, err
	}

	comments := feed.New(vm.store, store.Query{
		Collection: CommentsCollection,
		Filters:    []store.Filter{{Field: ParentField, Value: tipID}},
		OrderBy:    "timestamp",
		Desc:       true,
	}, mapComment, vm.log).Subscribe(ctx)

	return tip, comments, nil
}

// Submit validates the tip, uploads attachments and inserts the record
// with fresh counters.
func (vm *ViewModel) Submit(ctx context.Context, req SubmitRequest, images []upload.File) (string, error) {
	if err := ValidateSubmitRequest(&req); err != nil {
		return "", err
	}

	principal := vm.identity.CurrentPrincipal()
	if principal == nil {
		return "", apperrors.ErrUnauthorized
	}

	ctx, cancel := vm.callContext(ctx)
	defer cancel()

	id, err := vm.pipeline.Submit(ctx, submit.Request{
		Collection: Collection,
		Folder:     UploadFolder,
		Files:      images,
		Data: map[string]interface{}{
			"title":        req.Title,
			"description":  req.Description,
			"category":     req.Category,
			"location":     req.Location,
			"reportedBy":   principal.ID,
			"reporterName": displayName(principal),
			"status":       StatusActive,
			"latitude":     floatOrNil(req.Latitude),
			"longitude":    floatOrNil(req.Longitude),
			"likes":        int64(0),
			"views":        int64(0),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to submit tip: %w", err)
	}
	vm.log.Info("community tip %s submitted by %s", id, principal.ID)
	return id, nil
}

// AddComment appends a comment to a tip's thread.
func (vm *ViewModel) AddComment(ctx context.Context, tipID, message string) error {
	message, err := ValidateCommentMessage(message)
	if err != nil {
		return err
	}

	principal := vm.identity.CurrentPrincipal()
	if principal == nil {
		return apperrors.ErrUnauthorized
	}

	ctx, cancel := vm.callContext(ctx)
	defer cancel()

	_, err = vm.store.Insert(ctx, CommentsCollection, map[string]interface{}{
		ParentField: tipID,
		"message":   message,
		"userId":    principal.ID,
		"userName":  displayName(principal),
		"timestamp": store.ServerTimestamp,
		"likes":     int64(0),
	})
	if err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	return nil
}

// Like atomically bumps the tip's like counter. Calling twice counts twice;
// there is no per-user dedup.
func (vm *ViewModel) Like(ctx context.Context, tipID string) error {
	ctx, cancel := vm.callContext(ctx)
	defer cancel()
	return vm.store.Increment(ctx, Collection, tipID, "likes", 1)
}

// RecordView atomically bumps the tip's view counter.
func (vm *ViewModel) RecordView(ctx context.Context, tipID string) error {
	ctx, cancel := vm.callContext(ctx)
	defer cancel()
	return vm.store.Increment(ctx, Collection, tipID, "views", 1)
}

// UpdateStatus validates the transition against the current stored status.
func (vm *ViewModel) UpdateStatus(ctx context.Context, tipID, newStatus string) error {
	ctx, cancel := vm.callContext(ctx)
	defer cancel()

	doc, err := vm.store.Get(ctx, Collection, tipID)
	if err != nil {
		return err
	}
	current, _ := doc.OptStringField("status")
	if current == "" {
		current = StatusActive
	}

	if !transitionAllowed(current, newStatus) {
		return fmt.Errorf("%w: %s -> %s", apperrors.ErrTransition, current, newStatus)
	}

	if err := vm.store.Update(ctx, Collection, tipID, map[string]interface{}{"status": newStatus}); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	return nil
}

func transitionAllowed(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (vm *ViewModel) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if vm.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, vm.timeout)
}

func displayName(p *identity.Principal) string {
	if p.DisplayName == "" {
		return "Anonymous"
	}
	return p.DisplayName
}

func floatOrNil(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}
