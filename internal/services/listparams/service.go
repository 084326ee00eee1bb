package listparams

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"listkeeper/internal/domain/listparams"
	"listkeeper/internal/messaging"
	"listkeeper/internal/metrics"
	"listkeeper/internal/store/memory"
	"listkeeper/internal/store/repositories"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ResourceConfig holds the defaults of one resource list
type ResourceConfig struct {
	Sort                listparams.Sort
	PerPage             int
	FilterDefaultValues listparams.Filter
}

// Config tunes the service
type Config struct {
	Resources    map[string]ResourceConfig
	BasePath     string
	Debounce     time.Duration
	IdleTTL      time.Duration
	SweepEvery   time.Duration
	RetryInitial time.Duration
	RetryMax     uint64
	Clock        clockwork.Clock
}

// EventPublisher receives committed changes
type EventPublisher interface {
	Publish(ctx context.Context, evt messaging.ParamsChanged) error
}

type listKey struct {
	sessionID string
	resource  string
}

type list struct {
	ctrl     *Controller
	history  *memory.History
	lastUsed time.Time
}

// Service keeps one controller per session and resource
type Service struct {
	ctx       context.Context
	cfg       Config
	repo      repositories.ParamsRepository
	publisher EventPublisher
	clock     clockwork.Clock

	mu    sync.Mutex
	lists map[listKey]*list
}

// NewService creates a list params service. ctx bounds debounced commits;
// publisher may be nil.
func NewService(ctx context.Context, repo repositories.ParamsRepository, publisher EventPublisher, cfg Config) *Service {
	if cfg.BasePath == "" {
		cfg.BasePath = "/"
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.SweepEvery <= 0 {
		cfg.SweepEvery = time.Minute
	}
	if cfg.RetryInitial <= 0 {
		cfg.RetryInitial = 50 * time.Millisecond
	}
	if cfg.RetryMax == 0 {
		cfg.RetryMax = 3
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Service{
		ctx:       ctx,
		cfg:       cfg,
		repo:      repo,
		publisher: publisher,
		clock:     cfg.Clock,
		lists:     make(map[listKey]*list),
	}
}

// Resources lists the configured resource names, sorted
func (s *Service) Resources() []string {
	names := make([]string, 0, len(s.cfg.Resources))
	for name := range s.cfg.Resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Visit moves a session to the list URL carrying search and returns the
// resulting snapshot.
func (s *Service) Visit(ctx context.Context, sessionID, resource, search string) (listparams.Snapshot, error) {
	l, err := s.list(sessionID, resource)
	if err != nil {
		return listparams.Snapshot{}, err
	}
	l.history.Visit(listparams.Location{Pathname: s.pathFor(resource), Search: normalizeSearch(search)})
	return s.snapshot(ctx, l)
}

// Snapshot returns the params of a list at the session's current location
func (s *Service) Snapshot(ctx context.Context, sessionID, resource string) (listparams.Snapshot, error) {
	l, err := s.list(sessionID, resource)
	if err != nil {
		return listparams.Snapshot{}, err
	}
	return s.snapshot(ctx, l)
}

func (s *Service) SetPage(ctx context.Context, sessionID, resource string, page int) (listparams.Location, error) {
	return s.mutate(ctx, "set_page", sessionID, resource, func(c *Controller) error {
		return c.SetPage(ctx, page)
	})
}

func (s *Service) SetPerPage(ctx context.Context, sessionID, resource string, perPage int) (listparams.Location, error) {
	return s.mutate(ctx, "set_per_page", sessionID, resource, func(c *Controller) error {
		return c.SetPerPage(ctx, perPage)
	})
}

func (s *Service) SetSort(ctx context.Context, sessionID, resource string, newSort listparams.Sort) (listparams.Location, error) {
	return s.mutate(ctx, "set_sort", sessionID, resource, func(c *Controller) error {
		return c.SetSort(ctx, newSort)
	})
}

// SetFilters schedules a debounced filter change
func (s *Service) SetFilters(ctx context.Context, sessionID, resource string, filters listparams.Filter) error {
	_, err := s.mutate(ctx, "set_filters", sessionID, resource, func(c *Controller) error {
		return c.SetFilters(ctx, filters)
	})
	return err
}

func (s *Service) ShowFilter(ctx context.Context, sessionID, resource, name string, defaultValue ...any) error {
	_, err := s.mutate(ctx, "show_filter", sessionID, resource, func(c *Controller) error {
		return c.ShowFilter(ctx, name, defaultValue...)
	})
	return err
}

func (s *Service) HideFilter(ctx context.Context, sessionID, resource, name string) error {
	_, err := s.mutate(ctx, "hide_filter", sessionID, resource, func(c *Controller) error {
		return c.HideFilter(ctx, name)
	})
	return err
}

// History returns the locations a session went through on one list
func (s *Service) History(sessionID, resource string) ([]listparams.Location, error) {
	l, err := s.list(sessionID, resource)
	if err != nil {
		return nil, err
	}
	return l.history.Entries(), nil
}

// Forget drops every list of a session, cancelling pending filter changes,
// and deletes its stored params.
func (s *Service) Forget(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	var dropped []*list
	for k, l := range s.lists {
		if k.sessionID == sessionID {
			dropped = append(dropped, l)
			delete(s.lists, k)
		}
	}
	s.mu.Unlock()

	for _, l := range dropped {
		l.ctrl.Close()
		metrics.ActiveLists.Dec()
	}
	if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
		return &ServiceError{Op: "forget", Err: err}
	}
	log.Info().Str("session_id", sessionID).Int("lists", len(dropped)).Msg("session forgotten")
	return nil
}

// Close commits every pending filter change and drops all controllers
func (s *Service) Close() {
	s.mu.Lock()
	lists := s.lists
	s.lists = make(map[listKey]*list)
	s.mu.Unlock()

	for _, l := range lists {
		l.ctrl.Flush()
		metrics.ActiveLists.Dec()
	}
}

func (s *Service) mutate(ctx context.Context, op, sessionID, resource string, fn func(*Controller) error) (listparams.Location, error) {
	l, err := s.list(sessionID, resource)
	if err != nil {
		return listparams.Location{}, err
	}
	if err := fn(l.ctrl); err != nil {
		return listparams.Location{}, &ServiceError{Op: op, Err: err}
	}
	return l.history.Location(), nil
}

func (s *Service) snapshot(ctx context.Context, l *list) (listparams.Snapshot, error) {
	snap, err := l.ctrl.Snapshot(ctx)
	if err != nil {
		return listparams.Snapshot{}, &ServiceError{Op: "snapshot", Err: err}
	}
	return snap, nil
}

// list returns the controller of a session's list, creating it on first use
func (s *Service) list(sessionID, resource string) (*list, error) {
	rc, ok := s.cfg.Resources[resource]
	if !ok {
		return nil, &ServiceError{Op: "lookup", Err: fmt.Errorf("%w: %q", ErrUnknownResource, resource)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := listKey{sessionID: sessionID, resource: resource}
	if l, ok := s.lists[key]; ok {
		l.lastUsed = s.clock.Now()
		return l, nil
	}

	history := memory.NewHistory(listparams.Location{Pathname: s.pathFor(resource)})
	ctrl, err := NewController(s.ctx, Options{
		Resource:            resource,
		FilterDefaultValues: rc.FilterDefaultValues,
		Sort:                rc.Sort,
		PerPage:             rc.PerPage,
		Debounce:            s.cfg.Debounce,
	}, Deps{
		Location:  history,
		Navigator: history,
		Store: retryingStore{
			next:       sessionStore{repo: s.repo, sessionID: sessionID},
			initial:    s.cfg.RetryInitial,
			maxRetries: s.cfg.RetryMax,
		},
		Clock: s.clock,
		Hooks: s.hooks(sessionID),
	})
	if err != nil {
		return nil, &ServiceError{Op: "create_controller", Err: err}
	}

	l := &list{ctrl: ctrl, history: history, lastUsed: s.clock.Now()}
	s.lists[key] = l
	metrics.ActiveLists.Inc()
	return l, nil
}

func (s *Service) hooks(sessionID string) Hooks {
	return Hooks{
		OnCommit: func(ctx context.Context, c Commit) {
			metrics.Commits.WithLabelValues(c.Resource, string(c.Action.Type)).Inc()
			if s.publisher == nil {
				return
			}
			evt := messaging.ParamsChanged{
				SessionID: sessionID,
				Resource:  c.Resource,
				Action:    string(c.Action.Type),
				Params:    c.Params,
				Location:  c.Location.String(),
				At:        s.clock.Now(),
			}
			if err := s.publisher.Publish(ctx, evt); err != nil {
				log.Warn().Err(err).Str("resource", c.Resource).Msg("publish params change failed")
			}
		},
		OnSuperseded: func(resource string) {
			metrics.Superseded.WithLabelValues(resource).Inc()
		},
		OnError: func(resource string, err error) {
			metrics.CommitErrors.WithLabelValues(resource).Inc()
		},
	}
}

func (s *Service) pathFor(resource string) string {
	return path.Join(s.cfg.BasePath, resource)
}

func normalizeSearch(search string) string {
	search = strings.TrimPrefix(search, "?")
	if search == "" {
		return ""
	}
	return "?" + search
}
