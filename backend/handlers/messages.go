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
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/hushchat/hushchat/backend/metrics"
	"github.com/hushchat/hushchat/backend/middleware"
	"github.com/hushchat/hushchat/backend/models"
	"github.com/hushchat/hushchat/backend/security"
	"github.com/hushchat/hushchat/backend/session"
	"github.com/hushchat/hushchat/backend/storage"
)

const listMessageLimit = 200

type MessageHandler struct {
	store    storage.Store
	sessions *session.Manager
	recorder *security.Recorder

	// Upper bound on one SSE subscription; clients reconnect.
	streamMaxLifetime time.Duration
}

func NewMessageHandler(store storage.Store, sessions *session.Manager, recorder *security.Recorder, streamMaxLifetime time.Duration) *MessageHandler {
	return &MessageHandler{
		store:             store,
		sessions:          sessions,
		recorder:          recorder,
		streamMaxLifetime: streamMaxLifetime,
	}
}

// SendMessage persists a message. Encrypted messages arrive as base64
// ciphertext plus IV and are stored verbatim; the server never sees the key.
// Plaintext is sanitized, and a sanitization hit is recorded as a possible
// injection attempt.
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomID    string `json:"roomId"`
		Text      string `json:"text"`
		UserName  string `json:"userName,omitempty"`
		Encrypted bool   `json:"encrypted,omitempty"`
		IV        string `json:"iv,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RoomID == "" || req.Text == "" {
		writeError(w, http.StatusBadRequest, "Room ID and text are required")
		return
	}
	if req.Encrypted && req.IV == "" {
		writeError(w, http.StatusBadRequest, "Encrypted messages require an IV")
		return
	}

	st := h.sessions.Load(r)
	if !st.IsRoomAuthenticated(req.RoomID) {
		writeError(w, http.StatusForbidden, "Not authenticated for this room")
		return
	}

	if _, err := h.store.GetRoom(req.RoomID); err != nil {
		if err == storage.ErrRoomNotFound {
			writeError(w, http.StatusNotFound, "Room not found")
			return
		}
		log.Printf("messages: failed to load room: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to send message")
		return
	}

	text := req.Text
	if !req.Encrypted {
		clean, changed := security.Sanitize(text)
		if changed {
			h.recorder.Record(models.EventXSSAttempt, r.URL.Path, middleware.ClientIP(r),
				map[string]string{"roomId": req.RoomID, "original": req.Text})
		}
		text = clean
	}

	userName := req.UserName
	if userName == "" {
		userName = st.UserName
	}
	if userName == "" {
		userName = "Anonymous"
	}

	msg := models.Message{
		ID:        uuid.New().String(),
		RoomID:    req.RoomID,
		Text:      text,
		Encrypted: req.Encrypted,
		IV:        req.IV,
		UserName:  userName,
		CreatedAt: time.Now(),
	}
	if err := h.store.SaveMessage(msg); err != nil {
		log.Printf("messages: failed to save message: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to send message")
		return
	}
	metrics.ObserveMessageStored(msg.Encrypted)

	// Fan-out is best-effort; pollers replay from the database.
	if err := h.store.PublishMessage(msg); err != nil {
		log.Printf("messages: failed to publish message: %v", err)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ListMessages returns a room's messages in ascending creation-time order.
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]

	st := h.sessions.Load(r)
	if !st.IsRoomAuthenticated(roomID) {
		writeError(w, http.StatusForbidden, "Not authenticated for this room")
		return
	}

	messages, err := h.store.ListMessages(roomID, listMessageLimit)
	if err != nil {
		log.Printf("messages: failed to list messages: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load messages")
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

// StreamMessages serves the live feed as server-sent events. Each event is
// a {"messages":[...]} batch. The stream ends when the client disconnects
// or the configured lifetime elapses.
func (h *MessageHandler) StreamMessages(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomId"]

	st := h.sessions.Load(r)
	if !st.IsRoomAuthenticated(roomID) {
		writeError(w, http.StatusForbidden, "Not authenticated for this room")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	ctx := r.Context()
	if h.streamMaxLifetime > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.streamMaxLifetime)
		defer cancel()
	}

	// Subscribe before replaying the backlog so nothing is missed in
	// between. Overlap means at-least-once, which matches the delivery
	// guarantee.
	live, err := h.store.SubscribeMessages(ctx, roomID)
	if err != nil {
		log.Printf("messages: failed to subscribe: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to open stream")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	metrics.StreamsActive.Inc()
	defer metrics.StreamsActive.Dec()

	backlog, err := h.store.ListMessages(roomID, listMessageLimit)
	if err != nil {
		log.Printf("messages: failed to load backlog: %v", err)
		backlog = nil
	}
	if len(backlog) > 0 {
		writeSSEBatch(w, backlog)
		flusher.Flush()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-live:
			if !ok {
				return
			}
			writeSSEBatch(w, []models.Message{msg})
			flusher.Flush()
		}
	}
}

func writeSSEBatch(w http.ResponseWriter, messages []models.Message) {
	data, err := json.Marshal(map[string]interface{}{"messages": messages})
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
}
