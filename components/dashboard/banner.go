package dashboard

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MaxBannerProjects caps the featured carousel.
const MaxBannerProjects = 5

// BannerOptions configures a BannerSelector.
type BannerOptions struct {
	Repository BannerRepository
	Catalog    ProjectCatalog
	Notifier   Notifier
	Retry      RetryPolicy
	Logger     *zap.Logger
	Telemetry  Telemetry
}

// BannerSelector curates the ordered set of featured projects. Local toggles diverge
// from the server only until Save.
type BannerSelector struct {
	repo      BannerRepository
	catalog   ProjectCatalog
	notifier  Notifier
	retry     RetryPolicy
	logger    *zap.Logger
	telemetry Telemetry

	mu       sync.RWMutex
	selected []string
	banner   []Project
	projects []Project
	loaded   bool
}

// NewBannerSelector builds a selector. Repository and Catalog are required.
func NewBannerSelector(opts BannerOptions) (*BannerSelector, error) {
	if opts.Repository == nil {
		return nil, fmt.Errorf("dashboard: banner selector: repository is required")
	}
	if opts.Catalog == nil {
		return nil, fmt.Errorf("dashboard: banner selector: catalog is required")
	}
	retry := opts.Retry
	if retry.Attempts == 0 {
		retry = DefaultRetryPolicy()
	}
	return &BannerSelector{
		repo:      opts.Repository,
		catalog:   opts.Catalog,
		notifier:  normalizeNotifier(opts.Notifier),
		retry:     retry,
		logger:    normalizeLogger(opts.Logger).With(zap.String("component", "banner")),
		telemetry: normalizeTelemetry(opts.Telemetry),
	}, nil
}

// Load fetches the current banner and the project catalog in parallel and resets the
// selection to the server's banner ids.
func (s *BannerSelector) Load(ctx context.Context) error {
	var banner, projects []Project
	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		banner, err = s.repo.FetchBannerProjects(gctx)
		if err != nil {
			return fmt.Errorf("fetch banner projects: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		var err error
		projects, err = s.catalog.ListProjects(gctx, ProjectQuery{})
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}
		return nil
	})
	if err := group.Wait(); err != nil {
		s.logger.Warn("banner load failed", zap.Error(err))
		notifyError(ctx, s.notifier, "banner", err)
		return err
	}

	ids := make([]string, 0, len(banner))
	for _, p := range banner {
		ids = append(ids, p.ID)
	}

	s.mu.Lock()
	s.banner = banner
	s.projects = projects
	s.selected = BannerSelection(ids)
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// BannerSelection deduplicates ids keeping the first occurrence of each and caps the
// result at MaxBannerProjects. Order is never changed.
func BannerSelection(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, min(len(ids), MaxBannerProjects))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
		if len(out) == MaxBannerProjects {
			break
		}
	}
	return out
}

// Toggle removes id when selected, otherwise appends it. Appending to a full set
// returns ErrBannerLimitReached and leaves the selection unchanged.
func (s *BannerSelector) Toggle(ctx context.Context, id string) ([]string, error) {
	if id == "" {
		return s.Selected(), &ValidationError{Field: "projectId", Message: "プロジェクトIDが必要です"}
	}
	if err := s.ensureLoaded(ctx); err != nil {
		return s.Selected(), err
	}
	s.mu.Lock()
	if idx := slices.Index(s.selected, id); idx >= 0 {
		s.selected = slices.Delete(slices.Clone(s.selected), idx, idx+1)
		out := slices.Clone(s.selected)
		s.mu.Unlock()
		s.telemetry.Record(ctx, "banner.toggle", map[string]any{"project_id": id, "selected": false})
		return out, nil
	}
	if len(s.selected) >= MaxBannerProjects {
		out := slices.Clone(s.selected)
		s.mu.Unlock()
		s.notifier.Notify(ctx, NewNotification(LevelWarning, "banner", UserMessage(ErrBannerLimitReached)))
		return out, ErrBannerLimitReached
	}
	s.selected = append(slices.Clone(s.selected), id)
	out := slices.Clone(s.selected)
	s.mu.Unlock()
	s.telemetry.Record(ctx, "banner.toggle", map[string]any{"project_id": id, "selected": true})
	return out, nil
}

// ensureLoaded seeds the selection from the server banner before the first change.
func (s *BannerSelector) ensureLoaded(ctx context.Context) error {
	if s.Loaded() {
		return nil
	}
	return s.Load(ctx)
}

// Save sends the full ordered selection in one call and reloads from the server on
// success. On failure the local selection is kept so the save can be retried. A
// failed reload after a successful save is logged and the saved selection is kept.
func (s *BannerSelector) Save(ctx context.Context) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	ids := s.Selected()
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		return s.repo.SaveBannerProjects(ctx, ids)
	})
	if err != nil {
		s.logger.Warn("banner save failed", zap.Strings("project_ids", ids), zap.Error(err))
		notifyError(ctx, s.notifier, "banner", err)
		return err
	}
	s.telemetry.Record(ctx, "banner.save", map[string]any{"project_ids": ids})
	s.notifier.Notify(ctx, NewNotification(LevelSuccess, "banner", "バナープロジェクトを保存しました"))
	if err := s.Load(ctx); err != nil {
		s.logger.Warn("banner reload after save failed", zap.Error(err))
	}
	return nil
}

// Selected returns the ordered selection.
func (s *BannerSelector) Selected() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.selected)
}

// IsSelected reports whether id is in the selection.
func (s *BannerSelector) IsSelected(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.selected, id)
}

// Catalog returns the projects available for selection.
func (s *BannerSelector) Catalog() []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.projects)
}

// Banner returns the banner projects as last loaded from the server.
func (s *BannerSelector) Banner() []Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.banner)
}

// Loaded reports whether Load has succeeded at least once.
func (s *BannerSelector) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// BannerState is a serializable view of the selector.
type BannerState struct {
	Selected []string  `json:"selected"`
	Banner   []Project `json:"banner"`
	Catalog  []Project `json:"catalog"`
	Limit    int       `json:"limit"`
}

// State returns a copy of the selector state.
func (s *BannerSelector) State() BannerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	selected := slices.Clone(s.selected)
	if selected == nil {
		selected = []string{}
	}
	return BannerState{
		Selected: selected,
		Banner:   slices.Clone(s.banner),
		Catalog:  slices.Clone(s.projects),
		Limit:    MaxBannerProjects,
	}
}
