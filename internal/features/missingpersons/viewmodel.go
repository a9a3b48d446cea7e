package missingpersons

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

// ViewModel mediates between the missing person collections and the UI.
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

// MissingPersons opens the live feed of all notices, newest first.
func (vm *ViewModel) MissingPersons(ctx context.Context) <-chan feed.State[MissingPerson] {
	f := feed.New(vm.store, store.Query{
		Collection: Collection,
		OrderBy:    "timestamp",
		Desc:       true,
	}, mapMissingPerson, vm.log)
	return f.Subscribe(ctx)
}

// LoadDetail opens the notice and its update thread as two independent
// live subscriptions.
func (vm *ViewModel) LoadDetail(ctx context.Context, personID string) (<-chan feed.DocState[MissingPerson], <-chan feed.State[Update], error) {
	person, err := feed.WatchDoc(ctx, vm.store, Collection, personID, mapMissingPerson, vm.log)
	if err != nil {
		return nil, nil, err
	}

	updates := feed.New(vm.store, store.Query{
		Collection: UpdatesCollection,
		Filters:    []store.Filter{{Field: ParentField, Value: personID}},
		OrderBy:    "timestamp",
		Desc:       true,
	}, mapUpdate, vm.log).Subscribe(ctx)

	return person, updates, nil
}

// Submit validates the notice, uploads photos and inserts the record.
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
			"name":             req.Name,
			"age":              req.Age,
			"description":      req.Description,
			"lastSeenLocation": req.LastSeenLocation,
			"lastSeenDate":     req.LastSeenDate,
			"contactInfo":      req.ContactInfo,
			"reportedBy":       principal.ID,
			"reporterName":     displayName(principal),
			"status":           StatusMissing,
			"latitude":         floatOrNil(req.Latitude),
			"longitude":        floatOrNil(req.Longitude),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to submit missing person notice: %w", err)
	}
	vm.log.Info("missing person notice %s submitted by %s", id, principal.ID)
	return id, nil
}

// AddUpdate appends a sighting/update to a notice's thread.
func (vm *ViewModel) AddUpdate(ctx context.Context, personID, message string) error {
	message, err := ValidateUpdateMessage(message)
	if err != nil {
		return err
	}

	principal := vm.identity.CurrentPrincipal()
	if principal == nil {
		return apperrors.ErrUnauthorized
	}

	ctx, cancel := vm.callContext(ctx)
	defer cancel()

	_, err = vm.store.Insert(ctx, UpdatesCollection, map[string]interface{}{
		ParentField: personID,
		"message":   message,
		"userId":    principal.ID,
		"userName":  displayName(principal),
		"timestamp": store.ServerTimestamp,
	})
	if err != nil {
		return fmt.Errorf("failed to add update: %w", err)
	}
	return nil
}

// UpdateStatus validates the transition against the current stored status;
// the write itself remains last-write-wins.
func (vm *ViewModel) UpdateStatus(ctx context.Context, personID, newStatus string) error {
	ctx, cancel := vm.callContext(ctx)
	defer cancel()

	doc, err := vm.store.Get(ctx, Collection, personID)
	if err != nil {
		return err
	}
	current, _ := doc.OptStringField("status")
	if current == "" {
		current = StatusMissing
	}

	if !transitionAllowed(current, newStatus) {
		return fmt.Errorf("%w: %s -> %s", apperrors.ErrTransition, current, newStatus)
	}

	if err := vm.store.Update(ctx, Collection, personID, map[string]interface{}{"status": newStatus}); err != nil {
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
