package crimereports

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

// ViewModel mediates between the crime report collections and the UI. All
// backend clients are injected; nothing here is a process-wide singleton.
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

// Reports opens the live feed of all crime reports, newest first. The
// subscription ends when ctx is cancelled.
func (vm *ViewModel) Reports(ctx context.Context) <-chan feed.State[Report] {
	f := feed.New(vm.store, store.Query{
		Collection: Collection,
		OrderBy:    "timestamp",
		Desc:       true,
	}, mapReport, vm.log)
	return f.Subscribe(ctx)
}

// LoadDetail opens two independent live subscriptions: the report itself
// and its update thread. The two streams interleave arbitrarily; the UI
// must tolerate either arriving first.
func (vm *ViewModel) LoadDetail(ctx context.Context, reportID string) (<-chan feed.DocState[Report], <-chan feed.State[Update], error) {
	report, err := feed.WatchDoc(ctx, vm.store, Collection, reportID, mapReport, vm.log)
	if err != nil {
		return nil, nil, err
	}

	updates := feed.New(vm.store, store.Query{
		Collection: UpdatesCollection,
		Filters:    []store.Filter{{Field: ParentField, Value: reportID}},
		OrderBy:    "timestamp",
		Desc:       true,
	}, mapUpdate, vm.log).Subscribe(ctx)

	return report, updates, nil
}

// Submit validates the form, uploads attachments and inserts the report
// stamped with the current principal. Returns the assigned report id.
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
			"headline":           req.Headline,
			"description":        req.Description,
			"location":           req.Location,
			"crimeType":          req.CrimeType,
			"suspectDescription": req.SuspectDescription,
			"reportedBy":         principal.ID,
			"reporterName":       displayName(principal),
			"status":             StatusPending,
			"latitude":           floatOrNil(req.Latitude),
			"longitude":          floatOrNil(req.Longitude),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to submit report: %w", err)
	}
	vm.log.Info("crime report %s submitted by %s", id, principal.ID)
	return id, nil
}

// AddUpdate appends an update to a report's thread. The new update becomes
// visible through the live updates subscription once the store round-trips
// it; there is no optimistic local insert.
func (vm *ViewModel) AddUpdate(ctx context.Context, reportID, message string) error {
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
		ParentField: reportID,
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

// UpdateStatus moves a report along the PENDING → INVESTIGATING → RESOLVED
// → CLOSED → PENDING cycle. The transition is checked against the current
// stored status, but the write itself remains last-write-wins.
func (vm *ViewModel) UpdateStatus(ctx context.Context, reportID, newStatus string) error {
	ctx, cancel := vm.callContext(ctx)
	defer cancel()

	doc, err := vm.store.Get(ctx, Collection, reportID)
	if err != nil {
		return err
	}
	current, _ := doc.OptStringField("status")
	if current == "" {
		current = StatusPending
	}

	if !transitionAllowed(current, newStatus) {
		return fmt.Errorf("%w: %s -> %s", apperrors.ErrTransition, current, newStatus)
	}

	if err := vm.store.Update(ctx, Collection, reportID, map[string]interface{}{"status": newStatus}); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	return nil
}

// NextStatus returns the status that follows current in the cycle.
func NextStatus(current string) string {
	if next, ok := allowedTransitions[current]; ok && len(next) > 0 {
		return next[0]
	}
	return StatusPending
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
