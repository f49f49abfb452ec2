package config

import (
	"net/http"
	"net/url"
	"slices"

	"github.com/gorilla/websocket"
)

type WebSocket struct {
	Upgrader websocket.Upgrader
}

// NewWebSocket accepts upgrades from the given origins; "*" accepts any.
func NewWebSocket(allowedOrigins []string) *WebSocket {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if slices.Contains(allowedOrigins, "*") {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if slices.Contains(allowedOrigins, origin) {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && u.Host == r.Host
		},
	}
	return &WebSocket{Upgrader: upgrader}
}
