// Package search owns the search state of one session and drives the gateway.
package search

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vibesearch/internal/domain"
	"github.com/kailas-cloud/vibesearch/internal/domain/property"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/request"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/result"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/state"
)

// DefaultPageSize is the number of results requested per gateway page.
const DefaultPageSize = 25

// Options configures an Orchestrator.
type Options struct {
	PageSize int
	OnChange ChangeFunc
	Logger   *zap.Logger
}

// Orchestrator runs searches and keeps their state.
//
// Every request is tagged with the generation current when it was issued.
// A completion whose generation is no longer current is dropped and returns
// domain.ErrSuperseded. Search and Restore/Reset start a new generation;
// LoadMore does not.
type Orchestrator struct {
	gw       Gateway
	pageSize int
	onChange ChangeFunc
	logger   *zap.Logger

	mu         sync.Mutex
	st         state.State
	hasMore    bool
	nextPage   int
	generation uint64
	searching  int
	loading    bool
	summaries  map[string]property.Summary
}

// New creates an Orchestrator with an empty state.
func New(gw Gateway, opts Options) *Orchestrator {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Orchestrator{
		gw:        gw,
		pageSize:  opts.PageSize,
		onChange:  opts.OnChange,
		logger:    opts.Logger,
		st:        state.Empty(),
		nextPage:  1,
		summaries: map[string]property.Summary{},
	}
}

// Search runs the first page of a new search and replaces the result set.
// An empty query with no images is a no-op that returns the current Ids.
func (o *Orchestrator) Search(
	ctx context.Context, filters *filter.Set, query string, imageURLs []string,
) ([]string, error) {
	if strings.TrimSpace(query) == "" && len(imageURLs) == 0 {
		o.mu.Lock()
		defer o.mu.Unlock()
		return slices.Clone(o.st.ResultIDs), nil
	}
	if filters != nil {
		if inv := filters.Inverted(); len(inv) > 0 {
			o.logger.Warn("Search filters have min above max", zap.Strings("fields", inv))
		}
	}

	o.mu.Lock()
	o.generation++
	gen := o.generation
	o.searching++
	o.st = o.st.Seed(query, filters, imageURLs)
	o.mu.Unlock()

	req := request.Request{Query: query, ImageURLs: imageURLs, Limit: o.pageSize, Page: 1}
	if filters != nil {
		req.Filters = *filters
	}
	results, err := o.gw.Search(ctx, req)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.searching--
	if gen != o.generation {
		return nil, domain.ErrSuperseded
	}
	if err != nil {
		o.st = o.st.ClearResults()
		o.hasMore = false
		o.nextPage = 1
		return nil, fmt.Errorf("search: %w", err)
	}

	result.AssignIDs(results)
	o.st = o.st.WithResults(query, filters, imageURLs, result.IDs(results))
	o.hasMore = len(results) >= o.pageSize
	o.nextPage = 2
	o.summaries = map[string]property.Summary{}
	o.remember(results)
	o.publish()

	o.logger.Debug("Search completed",
		zap.String("type", string(o.st.SearchType)),
		zap.Int("results", len(o.st.ResultIDs)),
		zap.Bool("has_more", o.hasMore),
	)
	return slices.Clone(o.st.ResultIDs), nil
}

// LoadMore fetches a further page of the current search and appends the Ids
// not already present. A call made while another LoadMore or a Search is in
// flight returns domain.ErrLoadInProgress. nil filters reuse the current ones.
// It returns no Ids and no error when no search was performed or the last
// page was short.
func (o *Orchestrator) LoadMore(ctx context.Context, filters *filter.Set, page int) ([]string, error) {
	if page < 2 {
		return nil, domain.InvalidInput("page must be >= 2, got %d", page)
	}

	o.mu.Lock()
	if o.loading || o.searching > 0 {
		o.mu.Unlock()
		return nil, domain.ErrLoadInProgress
	}
	if !o.st.SearchPerformed || !o.hasMore {
		o.mu.Unlock()
		return nil, nil
	}
	o.loading = true
	gen := o.generation
	req := request.Request{
		Query:     o.st.QueryText,
		Filters:   o.st.FilterSet(),
		ImageURLs: slices.Clone(o.st.ImageURLs),
		Limit:     o.pageSize,
		Page:      page,
	}
	o.mu.Unlock()

	if filters != nil {
		req.Filters = *filters
	}
	results, err := o.gw.Search(ctx, req)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.loading = false
	if gen != o.generation {
		return nil, domain.ErrSuperseded
	}
	if err != nil {
		o.hasMore = false
		return nil, fmt.Errorf("load page %d: %w", page, err)
	}

	result.AssignIDs(results)
	var added []string
	o.st, added = o.st.Append(result.IDs(results))
	o.hasMore = len(results) >= o.pageSize
	o.nextPage = page + 1
	o.remember(results)
	if len(added) > 0 {
		o.publish()
	}
	return added, nil
}

// Restore replaces the state with one loaded from storage.
func (o *Orchestrator) Restore(st state.State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.generation++
	o.st = st.Restored()
	n := len(o.st.ResultIDs)
	o.hasMore = n > 0 && n%o.pageSize == 0
	o.nextPage = n/o.pageSize + 1
	o.summaries = map[string]property.Summary{}
}

// Reset drops the state and discards any request in flight.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.generation++
	o.st = state.Empty()
	o.hasMore = false
	o.nextPage = 1
	o.summaries = map[string]property.Summary{}
}

// State returns the current state.
func (o *Orchestrator) State() state.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.st
}

// IDs returns the current result Ids.
func (o *Orchestrator) IDs() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.st.ResultIDs)
}

// HasMore reports whether the gateway may have another page.
func (o *Orchestrator) HasMore() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hasMore
}

// NextPage returns the page LoadMore should request next.
func (o *Orchestrator) NextPage() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.nextPage
}

// Summary returns the card data remembered from search metadata.
func (o *Orchestrator) Summary(id string) (property.Summary, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.summaries[id]
	return s, ok
}

// Ref returns an inline Ref when the summary is known, else a Ref by Id.
func (o *Orchestrator) Ref(id string) property.Ref {
	if s, ok := o.Summary(id); ok {
		return property.Inline(s)
	}
	return property.ByID(id)
}

func (o *Orchestrator) remember(results []result.Result) {
	for _, r := range results {
		if _, ok := o.summaries[r.ID]; !ok {
			o.summaries[r.ID] = r.Summary()
		}
	}
}

// publish must be called with o.mu held.
func (o *Orchestrator) publish() {
	if o.onChange != nil {
		o.onChange(o.st)
	}
}
