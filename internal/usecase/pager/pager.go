// Package pager reveals an orchestrator's result Ids one page at a time.
package pager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kailas-cloud/vibesearch/internal/domain"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/state"
)

// Page lengths for the two views.
const (
	ListPageLen = 15
	MapPageLen  = 25
)

// Source is the result list a Pager reveals.
type Source interface {
	IDs() []string
	State() state.State
	HasMore() bool
	NextPage() int
	LoadMore(ctx context.Context, filters *filter.Set, page int) ([]string, error)
}

// Pager holds a visible prefix of the source Ids that grows by pageLen.
type Pager struct {
	src     Source
	pageLen int

	mu      sync.Mutex
	visible int
	busy    bool
}

// New creates a Pager showing one page.
func New(src Source, pageLen int) *Pager {
	if pageLen <= 0 {
		pageLen = ListPageLen
	}
	return &Pager{src: src, pageLen: pageLen, visible: pageLen}
}

// PageLen returns the increment of the visible prefix.
func (p *Pager) PageLen() int { return p.pageLen }

// Visible returns the visible prefix. It never contains an Id twice.
func (p *Pager) Visible() []string {
	ids := state.Dedupe(p.src.IDs())
	p.mu.Lock()
	n := min(p.visible, len(ids))
	p.mu.Unlock()
	return ids[:n]
}

// CanRevealMore reports whether RevealMore could show anything new.
func (p *Pager) CanRevealMore() bool {
	ids := state.Dedupe(p.src.IDs())
	p.mu.Lock()
	hidden := p.visible < len(ids)
	p.mu.Unlock()
	return hidden || p.src.HasMore()
}

// RevealMore extends the prefix to the next page boundary. When every known
// Id is already visible and the source has more upstream, it loads the next
// page first. A call made while another is outstanding does nothing.
func (p *Pager) RevealMore(ctx context.Context) error {
	p.mu.Lock()
	if p.busy {
		p.mu.Unlock()
		return nil
	}
	p.busy = true
	cur := p.visible
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.busy = false
		p.mu.Unlock()
	}()

	ids := state.Dedupe(p.src.IDs())
	cur = min(cur, len(ids))
	if cur >= len(ids) && p.src.HasMore() {
		st := p.src.State()
		_, err := p.src.LoadMore(ctx, st.Filters, p.src.NextPage())
		if err != nil && !errors.Is(err, domain.ErrLoadInProgress) {
			return fmt.Errorf("reveal more: %w", err)
		}
		ids = state.Dedupe(p.src.IDs())
	}

	next := (cur/p.pageLen + 1) * p.pageLen
	p.mu.Lock()
	p.visible = max(min(next, len(ids)), p.pageLen)
	p.mu.Unlock()
	return nil
}

// Reset returns the prefix to one page.
func (p *Pager) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visible = p.pageLen
}
