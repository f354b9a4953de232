// Package mapview projects result Ids onto map locations.
package mapview

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vibesearch/internal/domain"
	"github.com/kailas-cloud/vibesearch/internal/domain/geo"
	"github.com/kailas-cloud/vibesearch/internal/domain/property"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/state"
)

// Previewer fetches a property preview.
type Previewer interface {
	Preview(ctx context.Context, id, queryHint string) (property.Preview, error)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Location is a property placed on the map.
type Location struct {
	ID          string            `json:"id"`
	Property    *property.Summary `json:"property,omitempty"`
	Point       geo.Point         `json:"point"`
	Placeholder bool              `json:"placeholder"`
	HasError    bool              `json:"hasError"`
}

// Update is a change to one location of a projection session.
type Update struct {
	Session  uint64   `json:"session"`
	Location Location `json:"location"`
}

// Snapshot is the current projection.
type Snapshot struct {
	Session   uint64           `json:"session"`
	Locations []Location       `json:"locations"`
	Bounds    *geo.BoundingBox `json:"bounds,omitempty"`
	Pending   int              `json:"pending"`
}

// Options configures a Projector.
type Options struct {
	// Placeholder positions entries before their preview arrives.
	Placeholder geo.FallbackGeocoder
	// Fallback positions resolved entries whose preview has no usable coordinates.
	Fallback   geo.FallbackGeocoder
	MaxRetries int
	Backoff    time.Duration
	Sleep      Sleeper
	Retries    prometheus.Counter
	Logger     *zap.Logger
}

const subscriberBuffer = 256

// Projector resolves Ids into locations, one fetch goroutine per Id.
// Each Resolve starts a new session; updates from older sessions are ignored.
type Projector struct {
	previewer   Previewer
	placeholder geo.FallbackGeocoder
	fallback    geo.FallbackGeocoder
	maxRetries  int
	backoff     time.Duration
	sleep       Sleeper
	retries     prometheus.Counter
	logger      *zap.Logger

	mu      sync.Mutex
	session uint64
	order   []string
	entries map[string]Location
	pending int
	done    chan struct{}
	cancel  context.CancelFunc
	subs    map[int]chan Update
	nextSub int
}

// New creates a Projector.
func New(previewer Previewer, opts Options) *Projector {
	if opts.Placeholder == nil {
		opts.Placeholder = geo.NewCityJitter(geo.SanFrancisco, 0.05, nil)
	}
	if opts.Fallback == nil {
		opts.Fallback = geo.NewUniformBox(geo.ContinentalUS, nil)
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 300 * time.Millisecond
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	done := make(chan struct{})
	close(done)
	return &Projector{
		previewer:   previewer,
		placeholder: opts.Placeholder,
		fallback:    opts.Fallback,
		maxRetries:  opts.MaxRetries,
		backoff:     opts.Backoff,
		sleep:       opts.Sleep,
		retries:     opts.Retries,
		logger:      opts.Logger,
		entries:     map[string]Location{},
		done:        done,
		subs:        map[int]chan Update{},
	}
}

// Resolve starts a new session for ids and returns one placeholder per Id.
// Previews are fetched in the background; queryHint is forwarded to the gateway.
// The fetches outlive ctx's cancellation but keep its values.
func (p *Projector) Resolve(ctx context.Context, ids []string, queryHint string) []Location {
	ids = state.Dedupe(ids)
	fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.session++
	session := p.session
	p.cancel = cancel
	p.order = ids
	p.entries = make(map[string]Location, len(ids))
	p.pending = len(ids)
	p.done = make(chan struct{})
	if len(ids) == 0 {
		close(p.done)
	}
	placeholders := make([]Location, 0, len(ids))
	for _, id := range ids {
		loc := Location{ID: id, Point: p.placeholder.Locate(), Placeholder: true}
		p.entries[id] = loc
		placeholders = append(placeholders, loc)
		p.broadcast(Update{Session: session, Location: loc})
	}
	p.mu.Unlock()

	for _, id := range ids {
		go p.fetch(fetchCtx, session, id, queryHint)
	}
	return placeholders
}

// fetch retries timeouts with a linear backoff; any other failure is final.
func (p *Projector) fetch(ctx context.Context, session uint64, id, queryHint string) {
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			if p.retries != nil {
				p.retries.Inc()
			}
			if err := p.sleep(ctx, time.Duration(attempt)*p.backoff); err != nil {
				return
			}
		}
		preview, err := p.previewer.Preview(ctx, id, queryHint)
		if err == nil {
			p.apply(session, p.resolved(id, preview))
			return
		}
		lastErr = err
		if !errors.Is(err, domain.ErrTimeout) {
			break
		}
	}
	if ctx.Err() != nil {
		return
	}

	p.logger.Warn("Map preview failed", zap.String("id", id), zap.Error(lastErr))
	p.mu.Lock()
	loc, ok := p.entries[id]
	p.mu.Unlock()
	if !ok {
		return
	}
	loc.Placeholder = false
	loc.HasError = true
	p.apply(session, loc)
}

func (p *Projector) resolved(id string, preview property.Preview) Location {
	summary := preview.ToSummary()
	summary.ID = id

	var point geo.Point
	if c := preview.Coordinates; c != nil {
		point = geo.Point{Lat: c.Latitude, Lng: c.Longitude}
	}
	if preview.Coordinates == nil || !point.Valid() {
		point = p.fallback.Locate()
	}
	summary.Coordinates = &property.Coordinates{Latitude: point.Lat, Longitude: point.Lng}
	return Location{ID: id, Property: &summary, Point: point}
}

// apply merges a final entry. Each entry changes at most once per session.
func (p *Projector) apply(session uint64, loc Location) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if session != p.session {
		return
	}
	cur, ok := p.entries[loc.ID]
	if !ok || !cur.Placeholder {
		return
	}
	p.entries[loc.ID] = loc
	p.pending--
	p.broadcast(Update{Session: session, Location: loc})
	if p.pending == 0 {
		close(p.done)
	}
}

// broadcast must be called with p.mu held. Slow subscribers miss updates
// and are expected to catch up from a Snapshot.
func (p *Projector) broadcast(u Update) {
	for _, ch := range p.subs {
		select {
		case ch <- u:
		default:
			p.logger.Debug("Dropping map update for slow subscriber", zap.String("id", u.Location.ID))
		}
	}
}

// Snapshot returns the current locations in Id order and the bounds of the
// resolved entries.
func (p *Projector) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	locs := make([]Location, 0, len(p.order))
	var points []geo.Point
	for _, id := range p.order {
		loc := p.entries[id]
		locs = append(locs, loc)
		if !loc.Placeholder && !loc.HasError {
			points = append(points, loc.Point)
		}
	}
	snap := Snapshot{Session: p.session, Locations: locs, Pending: p.pending}
	if b, ok := geo.ComputeBounds(points); ok {
		snap.Bounds = &b
	}
	return snap
}

// IDs returns the Ids of the current session.
func (p *Projector) IDs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.order)
}

// Subscribe returns a channel of updates and a function that ends the subscription.
func (p *Projector) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, subscriberBuffer)
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch
	p.mu.Unlock()

	return ch, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if _, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(ch)
		}
	}
}

// Wait blocks until every entry of the current session is final or ctx is done.
func (p *Projector) Wait(ctx context.Context) error {
	p.mu.Lock()
	done := p.done
	p.mu.Unlock()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset cancels outstanding fetches and clears the projection.
func (p *Projector) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.session++
	p.order = nil
	p.entries = map[string]Location{}
	if p.pending > 0 {
		close(p.done)
	}
	p.pending = 0
}

// Close cancels outstanding fetches and ends every subscription.
func (p *Projector) Close() {
	p.Reset()
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, ch := range p.subs {
		delete(p.subs, id)
		close(ch)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
