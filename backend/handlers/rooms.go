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

	"github.com/google/uuid"

	"github.com/hushchat/hushchat/backend/crypto"
	"github.com/hushchat/hushchat/backend/middleware"
	"github.com/hushchat/hushchat/backend/models"
	"github.com/hushchat/hushchat/backend/security"
	"github.com/hushchat/hushchat/backend/session"
	"github.com/hushchat/hushchat/backend/storage"
)

const minPasswordLength = 4

type RoomHandler struct {
	store    storage.RoomStore
	sessions *session.Manager
	recorder *security.Recorder

	// Delay before a wrong-password response, to blunt online guessing.
	failureDelay time.Duration
}

func NewRoomHandler(store storage.RoomStore, sessions *session.Manager, recorder *security.Recorder, failureDelay time.Duration) *RoomHandler {
	return &RoomHandler{
		store:        store,
		sessions:     sessions,
		recorder:     recorder,
		failureDelay: failureDelay,
	}
}

func (h *RoomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Password string `json:"password"`
		UserName string `json:"userName,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Room name is required")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeError(w, http.StatusBadRequest, "Password is too short")
		return
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		log.Printf("rooms: failed to hash password: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create room")
		return
	}

	st := h.sessions.Load(r)
	if err := st.Identify(req.UserName); err != nil {
		log.Printf("rooms: failed to identify session: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create room")
		return
	}

	room := models.Room{
		ID:           uuid.New().String(),
		Name:         req.Name,
		PasswordHash: hash,
		CreatedBy:    st.UserName,
		CreatedAt:    time.Now(),
	}
	if err := h.store.CreateRoom(room); err != nil {
		log.Printf("rooms: failed to create room: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create room")
		return
	}

	// Creating a room grants the creator access to it.
	st.GrantRoom(room.ID)
	if err := h.sessions.Save(r, w, st); err != nil {
		log.Printf("rooms: failed to save session: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to create room")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"roomId": room.ID})
}

func (h *RoomHandler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomID   string `json:"roomId"`
		Password string `json:"password"`
		UserName string `json:"userName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RoomID == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Room ID and password are required")
		return
	}

	room, err := h.store.GetRoom(req.RoomID)
	if err == storage.ErrRoomNotFound {
		writeError(w, http.StatusNotFound, "Room not found")
		return
	}
	if err != nil {
		log.Printf("rooms: failed to load room: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to join room")
		return
	}

	if !crypto.VerifyPassword(req.Password, room.PasswordHash) {
		h.recorder.Record(models.EventAuthFailure, r.URL.Path, middleware.ClientIP(r),
			map[string]string{"roomId": req.RoomID})
		time.Sleep(h.failureDelay)
		writeError(w, http.StatusUnauthorized, "Incorrect password")
		return
	}

	st := h.sessions.Load(r)
	if err := st.Identify(req.UserName); err != nil {
		log.Printf("rooms: failed to identify session: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to join room")
		return
	}
	st.GrantRoom(room.ID)
	if err := h.sessions.Save(r, w, st); err != nil {
		log.Printf("rooms: failed to save session: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to join room")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"roomId":   room.ID,
		"name":     room.Name,
		"userName": st.UserName,
	})
}
