package chi

import (
	domfb "github.com/kailas-cloud/vibesearch/internal/domain/feedback"
	"github.com/kailas-cloud/vibesearch/internal/domain/property"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/filter"
	"github.com/kailas-cloud/vibesearch/internal/domain/search/state"
	domwl "github.com/kailas-cloud/vibesearch/internal/domain/waitlist"
	healthuc "github.com/kailas-cloud/vibesearch/internal/usecase/health"
	"github.com/kailas-cloud/vibesearch/internal/usecase/mapview"
	"github.com/kailas-cloud/vibesearch/internal/usecase/pager"
	"github.com/kailas-cloud/vibesearch/internal/usecase/session"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status string                          `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

type previewResponse struct {
	Apartment property.Preview `json:"apartment"`
}

type detailsResponse struct {
	Apartment property.Detail `json:"apartment"`
}

type uploadResponse struct {
	URLs []string `json:"urls"`
}

type waitlistRequest struct {
	Email string `json:"email"`
	Vibe  string `json:"vibe"`
}

type waitlistResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Vibe      string `json:"vibe"`
	CreatedAt int64  `json:"created_at"`
}

func waitlistToResponse(e domwl.Entry) waitlistResponse {
	return waitlistResponse{ID: e.ID(), Email: e.Email(), Vibe: e.Vibe(), CreatedAt: e.CreatedAt()}
}

type feedbackRequest struct {
	Category string `json:"category"`
	Feedback string `json:"feedback"`
	UserID   string `json:"user_id"`
}

type feedbackResponse struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Feedback  string `json:"feedback"`
	UserID    string `json:"user_id,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

type feedbackListResponse struct {
	Items []feedbackResponse `json:"items"`
}

func feedbackToResponse(e domfb.Entry) feedbackResponse {
	return feedbackResponse{
		ID:        e.ID(),
		Category:  string(e.Category()),
		Feedback:  e.Text(),
		UserID:    e.UserID(),
		CreatedAt: e.CreatedAt(),
	}
}

type searchRequest struct {
	Query     string      `json:"query"`
	Filters   *filter.Set `json:"filters,omitempty"`
	ImageURLs []string    `json:"imageUrls,omitempty"`
}

type moreRequest struct {
	Filters *filter.Set `json:"filters,omitempty"`
}

type pagerInfo struct {
	Visible       int  `json:"visible"`
	PageLen       int  `json:"pageLen"`
	CanRevealMore bool `json:"canRevealMore"`
}

func pagerToInfo(p *pager.Pager) pagerInfo {
	return pagerInfo{
		Visible:       len(p.Visible()),
		PageLen:       p.PageLen(),
		CanRevealMore: p.CanRevealMore(),
	}
}

type sessionResponse struct {
	Session         string      `json:"session"`
	State           state.State `json:"state"`
	SearchPerformed bool        `json:"searchPerformed"`
	HasMore         bool        `json:"hasMore"`
	NextPage        int         `json:"nextPage"`
	List            pagerInfo   `json:"list"`
	Map             pagerInfo   `json:"map"`
	Error           string      `json:"error,omitempty"`
}

func sessionToResponse(s *session.Session) sessionResponse {
	st := s.Orchestrator.State()
	return sessionResponse{
		Session:         s.ID,
		State:           st,
		SearchPerformed: st.SearchPerformed,
		HasMore:         s.Orchestrator.HasMore(),
		NextPage:        s.Orchestrator.NextPage(),
		List:            pagerToInfo(s.List),
		Map:             pagerToInfo(s.Map),
	}
}

type moreResponse struct {
	Added    []string `json:"added"`
	Total    int      `json:"total"`
	HasMore  bool     `json:"hasMore"`
	NextPage int      `json:"nextPage"`
}

type pageResponse struct {
	View          string             `json:"view"`
	Items         []property.Summary `json:"items"`
	Total         int                `json:"total"`
	CanRevealMore bool               `json:"canRevealMore"`
	HasMore       bool               `json:"hasMore"`
}

// Stream message types.
const (
	streamSnapshot  = "snapshot"
	streamUpdate    = "update"
	streamHeartbeat = "heartbeat"
)

type streamMessage struct {
	Type     string            `json:"type"`
	Snapshot *mapview.Snapshot `json:"snapshot,omitempty"`
	Update   *mapview.Update   `json:"update,omitempty"`
	TS       string            `json:"ts,omitempty"`
}
