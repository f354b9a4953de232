package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/vibesearch/internal/domain"
	"github.com/kailas-cloud/vibesearch/internal/domain/property"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/vibesearch/internal/usecase/mapview"
	"github.com/kailas-cloud/vibesearch/internal/usecase/pager"
	"github.com/kailas-cloud/vibesearch/internal/usecase/persist"
	"github.com/kailas-cloud/vibesearch/internal/usecase/search"
)

// View selects the list or the map pager.
type View string

// Views.
const (
	ListView View = "list"
	MapView  View = "map"
)

// ParseView maps "" to the list view.
func ParseView(s string) (View, error) {
	switch View(strings.ToLower(strings.TrimSpace(s))) {
	case "", ListView:
		return ListView, nil
	case MapView:
		return MapView, nil
	default:
		return "", domain.InvalidInput("view must be \"list\" or \"map\", got %q", s)
	}
}

// Seed carries the inputs a client opens a session with.
type Seed struct {
	Query     string
	ImageURLs []string
	View      View
}

// IsEmpty reports whether the seed has nothing to search for.
func (s Seed) IsEmpty() bool {
	return strings.TrimSpace(s.Query) == "" && len(s.ImageURLs) == 0
}

// Session bundles the search components of one client.
type Session struct {
	ID           string
	Orchestrator *search.Orchestrator
	List         *pager.Pager
	Map          *pager.Pager
	Projector    *mapview.Projector
	Persister    *persist.Persister

	previewer mapview.Previewer
	logger    *zap.Logger

	initOnce sync.Once
	initErr  error

	mu       sync.Mutex
	lastUsed time.Time
}

// Search runs a new search and returns both pagers to their first page.
func (s *Session) Search(
	ctx context.Context, filters *filter.Set, query string, imageURLs []string,
) ([]string, error) {
	ids, err := s.Orchestrator.Search(ctx, filters, query, imageURLs)
	if err != nil {
		return nil, err
	}
	s.List.Reset()
	s.Map.Reset()
	return ids, nil
}

// LoadMore fetches the next gateway page.
func (s *Session) LoadMore(ctx context.Context, filters *filter.Set) ([]string, error) {
	return s.Orchestrator.LoadMore(ctx, filters, s.Orchestrator.NextPage())
}

// Pager returns the pager of a view.
func (s *Session) Pager(v View) *pager.Pager {
	if v == MapView {
		return s.Map
	}
	return s.List
}

// ResolveMap projects the map pager's visible Ids.
func (s *Session) ResolveMap(ctx context.Context) []mapview.Location {
	return s.Projector.Resolve(ctx, s.Map.Visible(), s.Orchestrator.State().QueryText)
}

const cardFanOut = 8

// Cards resolves the visible Ids of a view into summaries. Ids remembered
// from search metadata are used as is; the rest are fetched as previews.
// A failed preview degrades to a card carrying only the Id.
func (s *Session) Cards(ctx context.Context, v View) []property.Summary {
	ids := s.Pager(v).Visible()
	out := make([]property.Summary, len(ids))
	hint := s.Orchestrator.State().QueryText

	var g errgroup.Group
	g.SetLimit(cardFanOut)
	for i, id := range ids {
		if sum, ok := s.Orchestrator.Ref(id).Summary(); ok {
			out[i] = sum
			continue
		}
		g.Go(func() error {
			p, err := s.previewer.Preview(ctx, id, hint)
			if err != nil {
				s.logger.Debug("Preview unavailable", zap.String("id", id), zap.Error(err))
				out[i] = property.Summary{ID: id, Images: []string{}, Features: []string{}}
				return nil
			}
			sum := p.ToSummary()
			if sum.ID == "" {
				sum.ID = id
			}
			out[i] = sum
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// reset drops the in-memory state and the saved state.
func (s *Session) reset(ctx context.Context) error {
	s.Orchestrator.Reset()
	s.List.Reset()
	s.Map.Reset()
	s.Projector.Reset()
	return s.Persister.Clear(ctx)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastUsed = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}
