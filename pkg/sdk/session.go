package vibesearch

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/vibesearch/internal/usecase/session"
)

// Session is one user's search. It is safe for concurrent use.
type Session struct {
	id     string
	client *Client
	s      *session.Session
}

// SearchRequest holds the inputs of a search. An empty query with no images
// leaves the session unchanged.
type SearchRequest struct {
	Query     string
	Filters   *Filters
	ImageURLs []string
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// State returns the current search.
func (s *Session) State() State {
	return stateFromDomain(s.s.Orchestrator.State(), s.s.Orchestrator.HasMore())
}

// Search runs a new search, replacing the results, and returns both views to
// their first page. A search started while this one runs supersedes it and
// this call returns ErrSuperseded.
func (s *Session) Search(ctx context.Context, req SearchRequest) (_ State, err error) {
	start := time.Now()
	defer func() { s.client.obs.observe("search", start, err, "session", s.id) }()

	if _, err = s.s.Search(ctx, filtersToDomain(req.Filters), req.Query, req.ImageURLs); err != nil {
		return s.State(), fmt.Errorf("search: %w", err)
	}
	return s.State(), nil
}

// LoadMore fetches the next gateway page and returns the Ids it added.
// It returns nothing when the last page was short.
func (s *Session) LoadMore(ctx context.Context) (_ []string, err error) {
	start := time.Now()
	defer func() { s.client.obs.observe("load_more", start, err, "session", s.id) }()

	added, err := s.s.LoadMore(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load more: %w", err)
	}
	return added, nil
}

// Page returns the visible items of a view.
func (s *Session) Page(ctx context.Context, v View) Page {
	cards := s.s.Cards(ctx, v.internal())
	items := make([]Property, len(cards))
	for i, c := range cards {
		items[i] = propertyFromDomain(c)
	}
	p := s.s.Pager(v.internal())
	return Page{
		View:          View(v.internal()),
		Items:         items,
		Total:         len(s.s.Orchestrator.IDs()),
		CanRevealMore: p.CanRevealMore(),
		HasMore:       s.s.Orchestrator.HasMore(),
	}
}

// Reveal shows one more page of a view, loading the next gateway page when
// every loaded result is already visible. On the map view the newly
// visible Ids are projected as well.
func (s *Session) Reveal(ctx context.Context, v View) (_ Page, err error) {
	start := time.Now()
	defer func() { s.client.obs.observe("reveal", start, err, "session", s.id, "view", string(v)) }()

	if err = s.s.Pager(v.internal()).RevealMore(ctx); err != nil {
		return Page{}, fmt.Errorf("reveal: %w", err)
	}
	if v == MapView {
		s.s.ResolveMap(ctx)
	}
	return s.Page(ctx, v), nil
}

// ResolveMap starts projecting the map view's visible Ids and returns the
// placeholder snapshot. Use WaitMap or Updates to follow the fetches.
func (s *Session) ResolveMap(ctx context.Context) MapSnapshot {
	s.s.ResolveMap(ctx)
	return s.MapSnapshot()
}

// MapSnapshot returns the current projection.
func (s *Session) MapSnapshot() MapSnapshot {
	return snapshotFromDomain(s.s.Projector.Snapshot())
}

// WaitMap blocks until every location is final or ctx is done, then returns
// the snapshot.
func (s *Session) WaitMap(ctx context.Context) (MapSnapshot, error) {
	if err := s.s.Projector.Wait(ctx); err != nil {
		return s.MapSnapshot(), fmt.Errorf("wait map: %w", err)
	}
	return s.MapSnapshot(), nil
}

// Updates streams location changes until stop is called or the session is
// evicted. Updates are dropped when the reader falls behind; MapSnapshot
// catches up.
func (s *Session) Updates() (_ <-chan Location, stop func()) {
	in, cancel := s.s.Projector.Subscribe()
	out := make(chan Location, cap(in))
	go func() {
		defer close(out)
		for u := range in {
			select {
			case out <- locationFromDomain(u.Location):
			default:
			}
		}
	}()
	return out, cancel
}

// Reset clears the session and its saved state.
func (s *Session) Reset(ctx context.Context) error {
	return s.client.Reset(ctx, s.id)
}
