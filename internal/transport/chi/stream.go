package chi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	logpkg "github.com/kailas-cloud/vibesearch/internal/logger"
	"github.com/kailas-cloud/vibesearch/internal/metrics"
)

const (
	streamWriteWait   = 5 * time.Second
	heartbeatInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// MapStream handles GET /api/sessions/{session}/map/stream. It sends the
// current snapshot, then one message per location update, until the client
// disconnects or the session is evicted.
func (s *Server) MapStream(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	log := logpkg.FromContext(r.Context(), s.logger)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		log.Debug("Websocket upgrade failed", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	metrics.MapStreamsActive.Inc()
	defer metrics.MapStreamsActive.Dec()
	log.Debug("Map stream opened")

	updates, unsubscribe := sess.Projector.Subscribe()
	defer unsubscribe()

	snap := sess.Projector.Snapshot()
	if err := writeStream(conn, streamMessage{Type: streamSnapshot, Snapshot: &snap}); err != nil {
		return
	}

	// The reader only watches for the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-gone:
			return
		case u, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
					time.Now().Add(streamWriteWait))
				return
			}
			if err := writeStream(conn, streamMessage{Type: streamUpdate, Update: &u}); err != nil {
				return
			}
		case t := <-ticker.C:
			msg := streamMessage{Type: streamHeartbeat, TS: t.UTC().Format(time.RFC3339Nano)}
			if err := writeStream(conn, msg); err != nil {
				return
			}
		}
	}
}

func writeStream(conn *websocket.Conn, msg streamMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
	return conn.WriteJSON(msg) //nolint:wrapcheck // caller only checks for failure
}
