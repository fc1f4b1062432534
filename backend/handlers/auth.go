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
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/hushchat/hushchat/backend/crypto"
	"github.com/hushchat/hushchat/backend/middleware"
	"github.com/hushchat/hushchat/backend/models"
	"github.com/hushchat/hushchat/backend/security"
	"github.com/hushchat/hushchat/backend/session"
	"github.com/hushchat/hushchat/backend/storage"
)

type AuthHandler struct {
	store    storage.RoomStore
	sessions *session.Manager
	recorder *security.Recorder

	failureDelay time.Duration
}

func NewAuthHandler(store storage.RoomStore, sessions *session.Manager, recorder *security.Recorder, failureDelay time.Duration) *AuthHandler {
	return &AuthHandler{
		store:        store,
		sessions:     sessions,
		recorder:     recorder,
		failureDelay: failureDelay,
	}
}

// AuthRoom authenticates an existing session to a room. CSRF mismatch is a
// 403 so clients can tell it apart from a wrong password (401) and refresh
// the token instead of re-prompting.
func (h *AuthHandler) AuthRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomID    string `json:"roomId"`
		Password  string `json:"password"`
		CSRFToken string `json:"csrfToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RoomID == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Room ID and password are required")
		return
	}

	st := h.sessions.Load(r)
	if !st.IsLoggedIn {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	if !st.VerifyCSRF(req.CSRFToken) {
		h.recorder.Record(models.EventCSRFViolation, r.URL.Path, middleware.ClientIP(r),
			map[string]string{"roomId": req.RoomID})
		writeError(w, http.StatusForbidden, "Invalid CSRF token")
		return
	}

	room, err := h.store.GetRoom(req.RoomID)
	if err == storage.ErrRoomNotFound {
		writeError(w, http.StatusNotFound, "Room not found")
		return
	}
	if err != nil {
		log.Printf("auth: failed to load room: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to authenticate")
		return
	}

	if !crypto.VerifyPassword(req.Password, room.PasswordHash) {
		h.recorder.Record(models.EventAuthFailure, r.URL.Path, middleware.ClientIP(r),
			map[string]string{"roomId": req.RoomID})
		time.Sleep(h.failureDelay)
		writeError(w, http.StatusUnauthorized, "Incorrect password")
		return
	}

	st.GrantRoom(room.ID)
	if err := h.sessions.Save(r, w, st); err != nil {
		log.Printf("auth: failed to save session: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to authenticate")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": true,
		"roomId":        room.ID,
	})
}

// GetSession returns the current session state, including the CSRF token
// the client must echo on state-changing requests.
func (h *AuthHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	st := h.sessions.Load(r)
	writeJSON(w, http.StatusOK, sessionPayload(st))
}

// CreateSession identifies the session with a display name. Idempotent for
// an already identified session apart from the name update.
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserName string `json:"userName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserName == "" {
		writeError(w, http.StatusBadRequest, "User name is required")
		return
	}

	st := h.sessions.Load(r)
	if err := st.Identify(req.UserName); err != nil {
		log.Printf("auth: failed to identify session: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	if err := h.sessions.Save(r, w, st); err != nil {
		log.Printf("auth: failed to save session: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	writeJSON(w, http.StatusCreated, sessionPayload(st))
}

// DeleteSession terminates the session.
func (h *AuthHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Destroy(r, w); err != nil {
		log.Printf("auth: failed to destroy session: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to end session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func sessionPayload(st *session.State) map[string]interface{} {
	rooms := st.AuthenticatedRooms
	if rooms == nil {
		rooms = []string{}
	}
	return map[string]interface{}{
		"userId":             st.UserID,
		"userName":           st.UserName,
		"isLoggedIn":         st.IsLoggedIn,
		"authenticatedRooms": rooms,
		"csrfToken":          st.CSRFToken,
	}
}
