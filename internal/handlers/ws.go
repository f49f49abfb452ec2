package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/vancomm/minesweeper-engine/internal/session"
)

type wsError struct {
	Line  int    `json:"line,omitempty"`
	Error string `json:"error"`
}

// Connect upgrades to a websocket. Every text message is a command batch and
// is answered with the updated session or an error object; errors do not
// close the connection.
func (g *GameHandler) Connect(w http.ResponseWriter, r *http.Request) {
	id, ok := g.authorize(w, r)
	if !ok {
		return
	}
	if _, err := g.sessions.Get(r.Context(), id); err != nil {
		sendStoreError(w, g.log, err)
		return
	}

	c, err := g.ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.WithError(err).Warn("unable to upgrade connection")
		return
	}
	defer c.Close()

	log := g.log.WithField("session_id", id)
	log.Debug("websocket connected")
	for {
		mt, message, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Warn("websocket read failed")
			}
			return
		}
		if mt != websocket.TextMessage {
			log.Warn("unexpected binary message")
			return
		}
		if err := c.WriteJSON(g.runBatch(r.Context(), id, string(message))); err != nil {
			log.WithError(err).Warn("websocket write failed")
			return
		}
	}
}

func (g *GameHandler) runBatch(ctx context.Context, id int64, text string) any {
	s, err := g.load(ctx, id)
	if err != nil {
		if storeStatus(err) == http.StatusInternalServerError {
			g.log.WithError(err).Error("storage failure")
		}
		return wsError{Error: err.Error()}
	}
	now := g.now()
	n, err := s.ApplyBatch(text, now)
	var batchErr *session.BatchError
	if errors.As(err, &batchErr) {
		return wsError{Line: batchErr.Line, Error: batchErr.Err.Error()}
	} else if err != nil {
		return wsError{Error: err.Error()}
	}
	if err := g.sessions.Update(ctx, s); err != nil {
		if storeStatus(err) == http.StatusInternalServerError {
			g.log.WithError(err).Error("storage failure")
		}
		return wsError{Error: err.Error()}
	}
	return BatchResponse{JSON: s.View(now), Applied: n}
}
