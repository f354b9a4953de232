package search

import (
	"context"

	"github.com/kailas-cloud/vibesearch/internal/domain/search/request"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/result"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/state"
)

// Gateway runs one page of a search.
type Gateway interface {
	Search(ctx context.Context, req request.Request) ([]result.Result, error)
}

// ChangeFunc receives every successful state change. It is called with the
// orchestrator lock held, so it must not block or call back into it.
type ChangeFunc func(st state.State)
