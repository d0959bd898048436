package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrStaleResponse is returned by Load when a newer fetch was issued before this one
// completed. The newer fetch owns the list.
var ErrStaleResponse = errors.New("dashboard: response superseded by a newer query")

// ListState is the lifecycle of a list page.
type ListState string

const (
	ListIdle    ListState = "idle"
	ListLoading ListState = "loading"
	ListLoaded  ListState = "loaded"
	ListFailed  ListState = "failed"
)

// ListSnapshot is an immutable view of a list page.
type ListSnapshot[T Entity] struct {
	State ListState
	Query string
	Items []T
	Err   error
	// Seq is the sequence number of the latest fetch issued.
	Seq uint64
}

type listActionKind int

const (
	fetchStarted listActionKind = iota + 1
	fetchSucceeded
	fetchFailed
)

type listAction[T Entity] struct {
	kind  listActionKind
	seq   uint64
	query string
	items []T
	err   error
}

// reduceList is the list page transition function. Results tagged with anything but
// the latest issued sequence are dropped.
func reduceList[T Entity](state ListSnapshot[T], action listAction[T]) ListSnapshot[T] {
	switch action.kind {
	case fetchStarted:
		if action.seq <= state.Seq {
			return state
		}
		state.State = ListLoading
		state.Query = action.query
		state.Seq = action.seq
		state.Err = nil
	case fetchSucceeded:
		if action.seq != state.Seq {
			return state
		}
		state.State = ListLoaded
		state.Items = action.items
		state.Err = nil
	case fetchFailed:
		if action.seq != state.Seq {
			return state
		}
		state.State = ListFailed
		state.Err = action.err
	}
	return state
}

// FetchFunc loads the rows matching a free-text query.
type FetchFunc[T Entity] func(ctx context.Context, query string) ([]T, error)

// StatusFunc changes a single status field on a row.
type StatusFunc func(ctx context.Context, id, value string) error

// DeleteFunc removes a row.
type DeleteFunc func(ctx context.Context, id string) error

// Confirmer approves destructive actions.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) { return f(ctx, prompt) }

// AlwaysConfirm approves every prompt. Use it where the caller already confirmed.
var AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

// DeletePrompt is the confirmation text shown before a delete.
const DeletePrompt = "本当に削除しますか？この操作は取り消せません。"

// ListOptions configures a ListController.
type ListOptions[T Entity] struct {
	// Name identifies the list in notifications and logs.
	Name         string
	Fetch        FetchFunc[T]
	UpdateStatus StatusFunc
	Delete       DeleteFunc
	// Confirmer gates Delete. A nil Confirmer declines every delete.
	Confirmer Confirmer
	Notifier  Notifier
	Debounce  time.Duration
	Scheduler Scheduler
	// TreatNotFoundAsEmpty loads an empty list, without logging, when the backend
	// answers 404 for an endpoint it has not shipped.
	TreatNotFoundAsEmpty bool
	Retry                RetryPolicy
	Logger               *zap.Logger
	// OnChange observes every accepted state transition.
	OnChange func(ListSnapshot[T])
}

// ListController drives a searchable admin list with per-row mutations.
type ListController[T Entity] struct {
	opts      ListOptions[T]
	retry     RetryPolicy
	notifier  Notifier
	logger    *zap.Logger
	debouncer *Debouncer

	mu       sync.Mutex
	state    ListSnapshot[T]
	issued   uint64
	updating map[string]struct{}
}

// NewListController builds a controller. Fetch is required.
func NewListController[T Entity](opts ListOptions[T]) (*ListController[T], error) {
	if opts.Fetch == nil {
		return nil, fmt.Errorf("dashboard: list %q: fetch function is required", opts.Name)
	}
	retry := opts.Retry
	if retry.Attempts == 0 {
		retry = DefaultRetryPolicy()
	}
	if opts.Name == "" {
		opts.Name = "list"
	}
	return &ListController[T]{
		opts:      opts,
		retry:     retry,
		notifier:  normalizeNotifier(opts.Notifier),
		logger:    normalizeLogger(opts.Logger).With(zap.String("list", opts.Name)),
		debouncer: NewDebouncer(opts.Debounce, opts.Scheduler),
		state:     ListSnapshot[T]{State: ListIdle},
		updating:  make(map[string]struct{}),
	}, nil
}

// Snapshot returns the current list state.
func (c *ListController[T]) Snapshot() ListSnapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *ListController[T]) snapshotLocked() ListSnapshot[T] {
	snap := c.state
	snap.Items = append([]T(nil), c.state.Items...)
	return snap
}

// Search schedules a fetch for query after the debounce delay. Only the last query
// of a burst is fetched.
func (c *ListController[T]) Search(ctx context.Context, query string) {
	c.debouncer.Trigger(func() {
		if _, err := c.Load(ctx, query); err != nil && !errors.Is(err, ErrStaleResponse) {
			c.logger.Debug("debounced search failed", zap.String("query", query), zap.Error(err))
		}
	})
}

// FlushSearch runs a pending debounced search immediately.
func (c *ListController[T]) FlushSearch() bool {
	return c.debouncer.Flush()
}

// Close cancels any pending debounced search.
func (c *ListController[T]) Close() {
	c.debouncer.Stop()
}

// Load fetches query now. Results superseded by a newer fetch are discarded and
// reported as ErrStaleResponse.
func (c *ListController[T]) Load(ctx context.Context, query string) (ListSnapshot[T], error) {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	c.apply(listAction[T]{kind: fetchStarted, seq: seq, query: query})
	started := c.snapshotLocked()
	c.mu.Unlock()
	c.changed(started)

	items, err := Retry(ctx, c.retry, func(ctx context.Context) ([]T, error) {
		return c.opts.Fetch(ctx, query)
	})
	if err != nil && c.opts.TreatNotFoundAsEmpty && IsNotImplemented(err) {
		items, err = []T{}, nil
	}
	if items == nil {
		items = []T{}
	}

	result := listAction[T]{kind: fetchSucceeded, seq: seq, items: items}
	if err != nil {
		result = listAction[T]{kind: fetchFailed, seq: seq, err: err}
	}
	c.mu.Lock()
	accepted := c.apply(result)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	stale := !accepted
	if !stale {
		c.changed(snap)
	}
	if stale {
		return snap, ErrStaleResponse
	}
	if err != nil {
		c.logger.Warn("list fetch failed", zap.String("query", query), zap.Error(err))
		notifyError(ctx, c.notifier, c.opts.Name, err)
		return snap, err
	}
	return snap, nil
}

// Refresh re-fetches the current query.
func (c *ListController[T]) Refresh(ctx context.Context) (ListSnapshot[T], error) {
	c.mu.Lock()
	query := c.state.Query
	c.mu.Unlock()
	return c.Load(ctx, query)
}

// apply must be called with c.mu held. It reports whether the action changed state.
func (c *ListController[T]) apply(action listAction[T]) bool {
	accepted := action.seq == c.state.Seq
	if action.kind == fetchStarted {
		accepted = action.seq > c.state.Seq
	}
	c.state = reduceList(c.state, action)
	return accepted
}

func (c *ListController[T]) changed(snap ListSnapshot[T]) {
	if c.opts.OnChange != nil {
		c.opts.OnChange(snap)
	}
}

// IsUpdating reports whether id has a mutation in flight.
func (c *ListController[T]) IsUpdating(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, busy := c.updating[id]
	return busy
}

func (c *ListController[T]) acquire(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.updating[id]; busy {
		return false
	}
	c.updating[id] = struct{}{}
	return true
}

func (c *ListController[T]) release(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.updating, id)
}

// SetStatus changes one row's status. Other rows stay actionable while it runs. The
// list is re-fetched on success and left untouched on failure.
func (c *ListController[T]) SetStatus(ctx context.Context, id, value string) error {
	if c.opts.UpdateStatus == nil {
		return ErrNotConfigured
	}
	if !c.acquire(id) {
		return ErrRowBusy
	}
	defer c.release(id)

	err := c.retry.Do(ctx, func(ctx context.Context) error {
		return c.opts.UpdateStatus(ctx, id, value)
	})
	if err != nil {
		c.logger.Warn("status update failed", zap.String("id", id), zap.String("value", value), zap.Error(err))
		notifyError(ctx, c.notifier, c.opts.Name, err)
		return err
	}
	c.notifier.Notify(ctx, NewNotification(LevelSuccess, c.opts.Name, "ステータスを更新しました"))
	return c.refreshAfterMutation(ctx)
}

// Delete removes a row after confirmation. A declined confirmation returns
// ErrDeleteCancelled without calling the backend.
func (c *ListController[T]) Delete(ctx context.Context, id string) error {
	return c.DeleteWith(ctx, id, nil)
}

// DeleteWith is Delete with a per-call confirmer. A nil confirmer falls back to the
// configured one.
func (c *ListController[T]) DeleteWith(ctx context.Context, id string, confirmer Confirmer) error {
	if c.opts.Delete == nil {
		return ErrNotConfigured
	}
	if confirmer == nil {
		confirmer = c.opts.Confirmer
	}
	confirmed := false
	if confirmer != nil {
		ok, err := confirmer.Confirm(ctx, DeletePrompt)
		if err != nil {
			return fmt.Errorf("dashboard: confirm delete: %w", err)
		}
		confirmed = ok
	}
	if !confirmed {
		return ErrDeleteCancelled
	}
	if !c.acquire(id) {
		return ErrRowBusy
	}
	defer c.release(id)

	// Deletes are not retried.
	err := c.opts.Delete(ctx, id)
	if err != nil {
		c.logger.Warn("delete failed", zap.String("id", id), zap.Error(err))
		notifyError(ctx, c.notifier, c.opts.Name, err)
		return err
	}
	c.notifier.Notify(ctx, NewNotification(LevelSuccess, c.opts.Name, "削除しました"))
	return c.refreshAfterMutation(ctx)
}

func (c *ListController[T]) refreshAfterMutation(ctx context.Context) error {
	if _, err := c.Refresh(ctx); err != nil && !errors.Is(err, ErrStaleResponse) {
		return fmt.Errorf("dashboard: refresh %s: %w", c.opts.Name, err)
	}
	return nil
}
