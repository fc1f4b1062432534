// Copyright (C) 2025 hushchat <dev@hushchat.io>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/hushchat/hushchat/backend/middleware"
	"github.com/hushchat/hushchat/backend/ratelimit"
	"github.com/hushchat/hushchat/backend/security"
)

type RouterConfig struct {
	Rooms    *RoomHandler
	Messages *MessageHandler
	Auth     *AuthHandler

	Limiter        *ratelimit.Limiter
	RateLimit      int
	Recorder       *security.Recorder
	AllowedOrigins []string
}

// NewRouter wires the API. Abuse-prone endpoints (room creation, password
// attempts, message sends) sit behind the rate limiter; read endpoints are
// gated by session room authentication alone.
func NewRouter(c RouterConfig) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(c.AllowedOrigins))

	limited := middleware.RateLimit(c.Limiter, c.RateLimit, c.Recorder)

	r.Handle("/rooms/create", limited(http.HandlerFunc(c.Rooms.CreateRoom))).Methods("POST")
	r.Handle("/rooms/join", limited(http.HandlerFunc(c.Rooms.JoinRoom))).Methods("POST")

	r.Handle("/messages/send", limited(http.HandlerFunc(c.Messages.SendMessage))).Methods("POST")
	r.HandleFunc("/messages/{roomId}/stream", c.Messages.StreamMessages).Methods("GET")
	r.HandleFunc("/messages/{roomId}", c.Messages.ListMessages).Methods("GET")

	r.Handle("/auth/room", limited(http.HandlerFunc(c.Auth.AuthRoom))).Methods("POST")
	r.HandleFunc("/auth/session", c.Auth.GetSession).Methods("GET")
	r.HandleFunc("/auth/session", c.Auth.CreateSession).Methods("POST")
	r.HandleFunc("/auth/session", c.Auth.DeleteSession).Methods("DELETE")

	return r
}
