package dashboard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// EntityKind names an admin list.
type EntityKind string

const (
	EntityProjects EntityKind = "projects"
	EntityVideos   EntityKind = "videos"
	EntityPayments EntityKind = "payments"
	EntityContacts EntityKind = "contacts"
)

// EntityKinds lists every admin list in display order.
func EntityKinds() []EntityKind {
	return []EntityKind{EntityProjects, EntityVideos, EntityPayments, EntityContacts}
}

// ParseEntityKind resolves a path or CLI segment such as "videos".
func ParseEntityKind(value string) (EntityKind, error) {
	kind := EntityKind(strings.ToLower(strings.TrimSpace(value)))
	for _, k := range EntityKinds() {
		if k == kind {
			return k, nil
		}
	}
	return "", &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown list %q", value)}
}

// Video visibility values accepted by SetStatus.
const (
	VisibilityVisible = "visible"
	VisibilityHidden  = "hidden"
)

// ParseVisibility accepts visible/hidden and boolean spellings.
func ParseVisibility(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case VisibilityVisible:
		return true, nil
	case VisibilityHidden:
		return false, nil
	}
	visible, err := strconv.ParseBool(value)
	if err != nil {
		return false, &ValidationError{Field: "value", Message: fmt.Sprintf("invalid visibility %q", value)}
	}
	return visible, nil
}

// AdminBackend is the marketplace API surface used by the admin lists.
type AdminBackend interface {
	ProjectCatalog
	ListVideos(ctx context.Context, search string) ([]Video, error)
	ListPayments(ctx context.Context, search string) ([]Payment, error)
	ListContacts(ctx context.Context, search string) ([]Contact, error)
	UpdateProjectStatus(ctx context.Context, id string, status ProjectStatus) error
	PublishProject(ctx context.Context, id string) error
	SetVideoVisibility(ctx context.Context, id string, visible bool) error
	DeleteProject(ctx context.Context, id string) error
	DeleteVideo(ctx context.Context, id string) error
}

// AdminOptions configures an Admin.
type AdminOptions struct {
	Backend   AdminBackend
	Notifier  Notifier
	Confirmer Confirmer
	Retry     RetryPolicy
	Debounce  time.Duration
	Scheduler Scheduler
	Logger    *zap.Logger
	Telemetry Telemetry
}

// Admin groups the list controllers of the back office. The same controllers serve
// the admin pages and the seller settings pages.
type Admin struct {
	Projects *ListController[Project]
	Videos   *ListController[Video]
	Payments *ListController[Payment]
	Contacts *ListController[Contact]

	backend   AdminBackend
	telemetry Telemetry
}

// SearchResult is a kind-agnostic list snapshot.
type SearchResult struct {
	Kind  EntityKind `json:"kind"`
	Query string     `json:"query"`
	State ListState  `json:"state"`
	Count int        `json:"count"`
	Items any        `json:"items"`
}

// NewAdmin builds the four list controllers over backend.
func NewAdmin(opts AdminOptions) (*Admin, error) {
	if opts.Backend == nil {
		return nil, fmt.Errorf("dashboard: admin: backend is required")
	}
	backend := opts.Backend
	logger := normalizeLogger(opts.Logger)

	projects, err := NewListController(ListOptions[Project]{
		Name: string(EntityProjects),
		Fetch: func(ctx context.Context, query string) ([]Project, error) {
			return backend.ListProjects(ctx, ProjectQuery{Search: query})
		},
		UpdateStatus: func(ctx context.Context, id, value string) error {
			status := ProjectStatus(strings.ToUpper(strings.TrimSpace(value)))
			if !status.Valid() {
				return &ValidationError{Field: "status", Message: fmt.Sprintf("invalid project status %q", value)}
			}
			return backend.UpdateProjectStatus(ctx, id, status)
		},
		Delete:    backend.DeleteProject,
		Confirmer: opts.Confirmer,
		Notifier:  opts.Notifier,
		Debounce:  opts.Debounce,
		Scheduler: opts.Scheduler,
		Retry:     opts.Retry,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	videos, err := NewListController(ListOptions[Video]{
		Name:  string(EntityVideos),
		Fetch: backend.ListVideos,
		UpdateStatus: func(ctx context.Context, id, value string) error {
			visible, err := ParseVisibility(value)
			if err != nil {
				return err
			}
			return backend.SetVideoVisibility(ctx, id, visible)
		},
		Delete:    backend.DeleteVideo,
		Confirmer: opts.Confirmer,
		Notifier:  opts.Notifier,
		Debounce:  opts.Debounce,
		Scheduler: opts.Scheduler,
		Retry:     opts.Retry,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	payments, err := NewListController(ListOptions[Payment]{
		Name:      string(EntityPayments),
		Fetch:     backend.ListPayments,
		Notifier:  opts.Notifier,
		Debounce:  opts.Debounce,
		Scheduler: opts.Scheduler,
		Retry:     opts.Retry,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	contacts, err := NewListController(ListOptions[Contact]{
		Name: string(EntityContacts),
		Fetch: func(ctx context.Context, query string) ([]Contact, error) {
			rows, err := backend.ListContacts(ctx, query)
			if err != nil {
				return nil, err
			}
			return VisibleContacts(rows), nil
		},
		Notifier:             opts.Notifier,
		Debounce:             opts.Debounce,
		Scheduler:            opts.Scheduler,
		TreatNotFoundAsEmpty: true,
		Retry:                opts.Retry,
		Logger:               logger,
	})
	if err != nil {
		return nil, err
	}

	return &Admin{
		Projects:  projects,
		Videos:    videos,
		Payments:  payments,
		Contacts:  contacts,
		backend:   backend,
		telemetry: normalizeTelemetry(opts.Telemetry),
	}, nil
}

// Search loads a list immediately.
func (a *Admin) Search(ctx context.Context, kind EntityKind, query string) (SearchResult, error) {
	switch kind {
	case EntityProjects:
		snap, err := a.Projects.Load(ctx, query)
		return searchResult(kind, snap), err
	case EntityVideos:
		snap, err := a.Videos.Load(ctx, query)
		return searchResult(kind, snap), err
	case EntityPayments:
		snap, err := a.Payments.Load(ctx, query)
		return searchResult(kind, snap), err
	case EntityContacts:
		snap, err := a.Contacts.Load(ctx, query)
		return searchResult(kind, snap), err
	}
	return SearchResult{}, unknownKind(kind)
}

func searchResult[T Entity](kind EntityKind, snap ListSnapshot[T]) SearchResult {
	items := snap.Items
	if items == nil {
		items = []T{}
	}
	return SearchResult{Kind: kind, Query: snap.Query, State: snap.State, Count: len(items), Items: items}
}

// SetStatus changes the status field of a project or the visibility of a video.
func (a *Admin) SetStatus(ctx context.Context, kind EntityKind, id, value string) error {
	var err error
	switch kind {
	case EntityProjects:
		err = a.Projects.SetStatus(ctx, id, value)
	case EntityVideos:
		err = a.Videos.SetStatus(ctx, id, value)
	case EntityPayments, EntityContacts:
		err = fmt.Errorf("%w: %s have no status", ErrNotConfigured, kind)
	default:
		err = unknownKind(kind)
	}
	if err == nil {
		a.telemetry.Record(ctx, "admin.status", map[string]any{"kind": string(kind), "id": id, "value": value})
	}
	return err
}

// Delete removes a project or video after confirmer approves it. A nil confirmer
// falls back to the one configured on the list.
func (a *Admin) Delete(ctx context.Context, kind EntityKind, id string, confirmer Confirmer) error {
	var err error
	switch kind {
	case EntityProjects:
		err = a.Projects.DeleteWith(ctx, id, confirmer)
	case EntityVideos:
		err = a.Videos.DeleteWith(ctx, id, confirmer)
	case EntityPayments, EntityContacts:
		err = fmt.Errorf("%w: %s cannot be deleted", ErrNotConfigured, kind)
	default:
		err = unknownKind(kind)
	}
	if err == nil {
		a.telemetry.Record(ctx, "admin.delete", map[string]any{"kind": string(kind), "id": id})
	}
	return err
}

// Publish requests the DRAFT to ACTIVE transition. The backend enforces it. The call
// is not retried.
func (a *Admin) Publish(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "id", Message: "project id is required"}
	}
	if !a.Projects.acquire(id) {
		return ErrRowBusy
	}
	err := a.backend.PublishProject(ctx, id)
	a.Projects.release(id)
	if err != nil {
		notifyError(ctx, a.Projects.notifier, string(EntityProjects), err)
		return err
	}
	a.telemetry.Record(ctx, "admin.publish", map[string]any{"id": id})
	return a.Projects.refreshAfterMutation(ctx)
}

// Close stops pending debounced searches.
func (a *Admin) Close() {
	a.Projects.Close()
	a.Videos.Close()
	a.Payments.Close()
	a.Contacts.Close()
}

func unknownKind(kind EntityKind) error {
	return &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown list %q", kind)}
}
