package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vibesearch/internal/domain"
	"github.com/kailas-cloud/vibesearch/internal/usecase/session"
)

const mapWaitLimit = 15 * time.Second

// OpenSession handles GET /api/sessions/{session}. A new session restores its
// saved state or runs the seed search from ?q= and ?images=. A failed seed
// search still returns the session, with the user message in "error".
func (s *Server) OpenSession(w http.ResponseWriter, r *http.Request) {
	var query, images, viewParam string
	for name, dest := range map[string]*string{"q": &query, "images": &images, "view": &viewParam} {
		if err := bindQuery(r, name, dest); err != nil {
			s.handleDomainError(w, r, err)
			return
		}
	}
	view, err := session.ParseView(viewParam)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	var imageURLs []string
	if images != "" {
		if err := json.Unmarshal([]byte(images), &imageURLs); err != nil {
			s.handleDomainError(w, r, domain.InvalidInput("images must be a JSON array of URLs"))
			return
		}
	}

	sess, err := s.sessions.Open(r.Context(), chi.URLParam(r, "session"), session.Seed{
		Query:     query,
		ImageURLs: imageURLs,
		View:      view,
	})
	if sess == nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := sessionToResponse(sess)
	if err != nil {
		s.logger.Warn("Seed search failed", zap.String("session", sess.ID), zap.Error(err))
		resp.Error = domain.UserMessage(err)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ResetSession handles DELETE /api/sessions/{session}.
func (s *Server) ResetSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Reset(r.Context(), chi.URLParam(r, "session")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles POST /api/sessions/{session}/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeBody(r, &req); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	if _, err := sess.Search(r.Context(), req.Filters, req.Query, req.ImageURLs); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToResponse(sess))
}

// LoadMore handles POST /api/sessions/{session}/more.
func (s *Server) LoadMore(w http.ResponseWriter, r *http.Request) {
	var req moreRequest
	if err := decodeBody(r, &req); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	added, err := sess.LoadMore(r.Context(), req.Filters)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if added == nil {
		added = []string{}
	}
	writeJSON(w, http.StatusOK, moreResponse{
		Added:    added,
		Total:    len(sess.Orchestrator.IDs()),
		HasMore:  sess.Orchestrator.HasMore(),
		NextPage: sess.Orchestrator.NextPage(),
	})
}

// Page handles GET /api/sessions/{session}/page.
func (s *Server) Page(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w, r)
	if !ok {
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, pageToResponse(r.Context(), sess, view))
}

// Reveal handles POST /api/sessions/{session}/reveal. Revealing on the map
// view also re-projects the visible Ids.
func (s *Server) Reveal(w http.ResponseWriter, r *http.Request) {
	view, ok := s.view(w, r)
	if !ok {
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	if err := sess.Pager(view).RevealMore(r.Context()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if view == session.MapView {
		sess.ResolveMap(r.Context())
	}
	writeJSON(w, http.StatusOK, pageToResponse(r.Context(), sess, view))
}

// ResolveMap handles POST /api/sessions/{session}/map. It returns the
// placeholder snapshot; resolved entries follow on the stream.
func (s *Server) ResolveMap(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.ResolveMap(r.Context())
	writeJSON(w, http.StatusAccepted, sess.Projector.Snapshot())
}

// MapSnapshot handles GET /api/sessions/{session}/map. With ?wait=true it
// blocks until every entry is final or a short limit passes.
func (s *Server) MapSnapshot(w http.ResponseWriter, r *http.Request) {
	var wait bool
	if err := bindQuery(r, "wait", &wait); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	if wait {
		ctx, cancel := context.WithTimeout(r.Context(), mapWaitLimit)
		_ = sess.Projector.Wait(ctx)
		cancel()
	}
	writeJSON(w, http.StatusOK, sess.Projector.Snapshot())
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "session"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) view(w http.ResponseWriter, r *http.Request) (session.View, bool) {
	var raw string
	if err := bindQuery(r, "view", &raw); err != nil {
		s.handleDomainError(w, r, err)
		return "", false
	}
	v, err := session.ParseView(raw)
	if err != nil {
		s.handleDomainError(w, r, err)
		return "", false
	}
	return v, true
}

func pageToResponse(ctx context.Context, sess *session.Session, view session.View) pageResponse {
	p := sess.Pager(view)
	return pageResponse{
		View:          string(view),
		Items:         sess.Cards(ctx, view),
		Total:         len(sess.Orchestrator.IDs()),
		CanRevealMore: p.CanRevealMore(),
		HasMore:       sess.Orchestrator.HasMore(),
	}
}
