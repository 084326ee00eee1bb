package listparams

import (
	"context"
	"fmt"
	"sync"
	"time"

	"listkeeper/internal/core/debounce"
	"listkeeper/internal/core/listquery"
	"listkeeper/internal/domain/listparams"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// LocationSource supplies the location a list is rendered at
type LocationSource interface {
	Location() listparams.Location
}

// Navigator changes the location without reloading
type Navigator interface {
	Push(ctx context.Context, loc listparams.Location) error
}

// ParamsStore persists list params per resource
type ParamsStore interface {
	ListParams(ctx context.Context, resource string) (*listparams.ListParams, error)
	ChangeListParams(ctx context.Context, resource string, params listparams.ListParams) error
}

// Options configures the list a controller serves
type Options struct {
	Resource            string
	FilterDefaultValues listparams.Filter
	Sort                listparams.Sort
	PerPage             int
	Debounce            time.Duration
}

// Commit describes one applied mutation
type Commit struct {
	Resource string
	Action   listquery.Action
	Params   listparams.ListParams
	Location listparams.Location
}

// Hooks observe controller activity. Every member is optional.
type Hooks struct {
	OnCommit     func(ctx context.Context, c Commit)
	OnSuperseded func(resource string)
	OnError      func(resource string, err error)
}

// Deps are the collaborators a controller reads from and writes to
type Deps struct {
	Location  LocationSource
	Navigator Navigator
	Store     ParamsStore
	Clock     clockwork.Clock
	Hooks     Hooks
}

const commitTimeout = 10 * time.Second

type pendingFilters struct {
	filter listparams.Filter
	sig    listparams.RequestSignature
}

type derived struct {
	location listparams.Location
	query    listparams.ListParams
	sig      listparams.RequestSignature
}

// Controller derives the params of one list and applies mutations to them.
// Its methods are safe for concurrent use and keep their identity for the
// controller's whole life.
type Controller struct {
	mu        sync.Mutex
	ctx       context.Context
	opts      Options
	deps      Deps
	displayed listparams.DisplayedFilters
	sig       listparams.RequestSignature
	hasSig    bool
	closed    bool
	filters   *debounce.Debouncer[pendingFilters]
}

// NewController binds a controller to its list options and collaborators.
// ctx bounds the debounced commits that run after a call has returned.
func NewController(ctx context.Context, opts Options, deps Deps) (*Controller, error) {
	if opts.Resource == "" {
		return nil, fmt.Errorf("%w: resource is required", ErrInvalidArgument)
	}
	if deps.Location == nil || deps.Navigator == nil || deps.Store == nil {
		return nil, fmt.Errorf("%w: location, navigator and store are required", ErrInvalidArgument)
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	c := &Controller{
		ctx:       ctx,
		opts:      opts,
		deps:      deps,
		displayed: listparams.DisplayedFilters{},
	}
	c.filters = debounce.New(deps.Clock, opts.Debounce, c.commitFilters)
	return c, nil
}

// Resource is the resource identifier the controller serves.
func (c *Controller) Resource() string { return c.opts.Resource }

// Snapshot returns the current params. While a filter change is waiting for
// its debounce, FilterValues reports the values about to be committed.
func (c *Controller) Snapshot(ctx context.Context) (listparams.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, err := c.derive(ctx)
	if err != nil {
		return listparams.Snapshot{}, err
	}

	displayed := make(listparams.DisplayedFilters, len(c.displayed))
	for k, v := range c.displayed {
		displayed[k] = v
	}
	return listparams.Snapshot{
		Page:             d.query.Page,
		PerPage:          d.query.PerPage,
		Sort:             d.query.Sort,
		Order:            d.query.Order,
		Filter:           d.query.Filter,
		FilterValues:     c.filterValues(d),
		DisplayedFilters: displayed,
		RequestSignature: d.sig,
	}, nil
}

// ChangeParams applies an action to the current params, pushes the result to
// the URL and then to the store.
func (c *Controller) ChangeParams(ctx context.Context, action listquery.Action) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, err := c.derive(ctx)
	if err != nil {
		return err
	}
	return c.commit(ctx, d, action)
}

func (c *Controller) SetSort(ctx context.Context, sort listparams.Sort) error {
	if sort.Field == "" {
		return fmt.Errorf("%w: sort field is required", ErrInvalidArgument)
	}
	if sort.Order != "" {
		order, ok := listparams.ParseOrder(string(sort.Order))
		if !ok {
			return fmt.Errorf("%w: unknown sort order %q", ErrInvalidArgument, sort.Order)
		}
		sort.Order = order
	}
	return c.ChangeParams(ctx, listquery.SortAction(sort))
}

func (c *Controller) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		return fmt.Errorf("%w: page must be positive", ErrInvalidArgument)
	}
	return c.ChangeParams(ctx, listquery.PageAction(page))
}

func (c *Controller) SetPerPage(ctx context.Context, perPage int) error {
	if perPage < 1 {
		return fmt.Errorf("%w: perPage must be positive", ErrInvalidArgument)
	}
	return c.ChangeParams(ctx, listquery.PerPageAction(perPage))
}

// SetFilters schedules a filter change. Calls within the debounce window
// collapse into one commit of the last filters.
func (c *Controller) SetFilters(ctx context.Context, filters listparams.Filter) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, err := c.derive(ctx)
	if err != nil {
		return err
	}
	c.scheduleFilters(d, filters)
	return nil
}

// ShowFilter marks a filter as displayed. With a default value, the value is
// merged into the current filters and committed through SetFilters.
func (c *Controller) ShowFilter(ctx context.Context, name string, defaultValue ...any) error {
	if name == "" {
		return fmt.Errorf("%w: filter name is required", ErrInvalidArgument)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setDisplayed(name, true)
	if len(defaultValue) == 0 {
		return nil
	}
	d, err := c.derive(ctx)
	if err != nil {
		return err
	}
	c.scheduleFilters(d, c.filterValues(d).With(name, defaultValue[0]))
	return nil
}

// HideFilter marks a filter as hidden and removes its value.
func (c *Controller) HideFilter(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: filter name is required", ErrInvalidArgument)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setDisplayed(name, false)
	d, err := c.derive(ctx)
	if err != nil {
		return err
	}
	c.scheduleFilters(d, c.filterValues(d).Without(name))
	return nil
}

// Flush commits a pending filter change immediately.
func (c *Controller) Flush() bool { return c.filters.Flush() }

// Close drops a pending filter change without committing it. A commit whose
// timer already fired and is waiting for the lock is dropped too.
func (c *Controller) Close() bool {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return c.filters.Cancel()
}

func (c *Controller) setDisplayed(name string, shown bool) {
	next := make(listparams.DisplayedFilters, len(c.displayed)+1)
	for k, v := range c.displayed {
		next[k] = v
	}
	next[name] = shown
	c.displayed = next
}

func (c *Controller) scheduleFilters(d derived, filters listparams.Filter) {
	if c.filters.Call(pendingFilters{filter: filters.Clone(), sig: d.sig}) {
		c.superseded()
	}
}

func (c *Controller) filterValues(d derived) listparams.Filter {
	if p, ok := c.filters.Pending(); ok {
		return listquery.RemoveEmpty(p.filter)
	}
	return d.query.Filter.Clone()
}

// derive re-reads every input and recomputes the merged params. A changed
// signature cancels any filter commit scheduled under the old one.
func (c *Controller) derive(ctx context.Context) (derived, error) {
	loc := c.deps.Location.Location()
	stored, err := c.deps.Store.ListParams(ctx, c.opts.Resource)
	if err != nil {
		return derived{}, fmt.Errorf("load params for %s: %w", c.opts.Resource, err)
	}

	sig := listparams.NewRequestSignature(loc, c.opts.Resource, stored, c.opts.FilterDefaultValues, c.opts.Sort, c.opts.PerPage)
	if c.hasSig && sig != c.sig && c.filters.Cancel() {
		c.superseded()
	}
	c.sig, c.hasSig = sig, true

	query := listquery.GetQuery(listquery.Input{
		Location:            loc,
		Params:              stored,
		FilterDefaultValues: c.opts.FilterDefaultValues,
		Sort:                c.opts.Sort,
		PerPage:             c.opts.PerPage,
	})
	return derived{location: loc, query: query, sig: sig}, nil
}

func (c *Controller) commit(ctx context.Context, d derived, action listquery.Action) error {
	next := listquery.Reduce(d.query, action)
	loc := listquery.Location(d.location.Pathname, next)

	if err := c.deps.Navigator.Push(ctx, loc); err != nil {
		return fmt.Errorf("navigate to %s: %w", loc, err)
	}
	if err := c.deps.Store.ChangeListParams(ctx, c.opts.Resource, next); err != nil {
		return fmt.Errorf("store params for %s: %w", c.opts.Resource, err)
	}

	log.Debug().
		Str("resource", c.opts.Resource).
		Str("action", string(action.Type)).
		Str("location", loc.String()).
		Msg("list params committed")

	if c.deps.Hooks.OnCommit != nil {
		c.deps.Hooks.OnCommit(ctx, Commit{Resource: c.opts.Resource, Action: action, Params: next, Location: loc})
	}
	return nil
}

// commitFilters runs when the debounce window closes.
func (c *Controller) commitFilters(p pendingFilters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	ctx, cancel := context.WithTimeout(c.ctx, commitTimeout)
	defer cancel()

	d, err := c.derive(ctx)
	if err != nil {
		c.fail(err)
		return
	}
	if d.sig != p.sig {
		c.superseded()
		return
	}
	if listquery.Equal(p.filter, d.query.Filter) {
		return
	}
	if err := c.commit(ctx, d, listquery.FilterAction(p.filter)); err != nil {
		c.fail(err)
	}
}

func (c *Controller) superseded() {
	log.Debug().Str("resource", c.opts.Resource).Msg("pending filter change superseded")
	if c.deps.Hooks.OnSuperseded != nil {
		c.deps.Hooks.OnSuperseded(c.opts.Resource)
	}
}

func (c *Controller) fail(err error) {
	log.Error().Err(err).Str("resource", c.opts.Resource).Msg("filter commit failed")
	if c.deps.Hooks.OnError != nil {
		c.deps.Hooks.OnError(c.opts.Resource, err)
	}
}
