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

package session

import (
	"crypto/hmac"
	"crypto/rand"
	"encoding/base64"
	"encoding/gob"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	cookieName     = "hushchat_session"
	cookieLifetime = 24 * 60 * 60 // seconds

	keyUserID   = "userId"
	keyUserName = "userName"
	keyLoggedIn = "isLoggedIn"
	keyRooms    = "authenticatedRooms"
	keyCSRF     = "csrfToken"
)

func init() {
	gob.Register([]string{})
}

// State is the decoded session for one request: identity, per-room auth
// grants, and the CSRF token. Mutations are persisted only by an explicit
// Manager.Save.
type State struct {
	UserID             string   `json:"userId"`
	UserName           string   `json:"userName"`
	IsLoggedIn         bool     `json:"isLoggedIn"`
	AuthenticatedRooms []string `json:"authenticatedRooms"`
	CSRFToken          string   `json:"-"`

	raw *sessions.Session
}

// Manager loads and saves session state from the encrypted, signed cookie.
type Manager struct {
	store   *sessions.CookieStore
	devMode bool
}

// NewManager builds a Manager. hashKey signs the cookie (32 or 64 bytes);
// blockKey encrypts it (16, 24 or 32 bytes). Outside dev mode the cookie is
// marked Secure.
func NewManager(hashKey, blockKey []byte, devMode bool) *Manager {
	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cookieLifetime,
		HttpOnly: true,
		Secure:   !devMode,
		SameSite: http.SameSiteStrictMode,
	}
	return &Manager{store: store, devMode: devMode}
}

// Load decodes the session cookie. A missing or undecodable cookie yields a
// fresh anonymous state rather than an error.
func (m *Manager) Load(r *http.Request) *State {
	raw, _ := m.store.Get(r, cookieName)

	st := &State{raw: raw}
	if v, ok := raw.Values[keyUserID].(string); ok {
		st.UserID = v
	}
	if v, ok := raw.Values[keyUserName].(string); ok {
		st.UserName = v
	}
	if v, ok := raw.Values[keyLoggedIn].(bool); ok {
		st.IsLoggedIn = v
	}
	if v, ok := raw.Values[keyRooms].([]string); ok {
		st.AuthenticatedRooms = v
	}
	if v, ok := raw.Values[keyCSRF].(string); ok {
		st.CSRFToken = v
	}
	return st
}

// Save writes the state back into the cookie.
func (m *Manager) Save(r *http.Request, w http.ResponseWriter, st *State) error {
	st.raw.Values[keyUserID] = st.UserID
	st.raw.Values[keyUserName] = st.UserName
	st.raw.Values[keyLoggedIn] = st.IsLoggedIn
	st.raw.Values[keyRooms] = st.AuthenticatedRooms
	st.raw.Values[keyCSRF] = st.CSRFToken
	return m.store.Save(r, w, st.raw)
}

// Destroy expires the session cookie.
func (m *Manager) Destroy(r *http.Request, w http.ResponseWriter) error {
	raw, _ := m.store.Get(r, cookieName)
	raw.Options.MaxAge = -1
	raw.Values = make(map[interface{}]interface{})
	return m.store.Save(r, w, raw)
}

// Identify transitions an anonymous state to identified: assigns a user ID,
// records the display name, and issues the CSRF token. Calling it on an
// already identified state only updates the display name.
func (st *State) Identify(userName string) error {
	if userName != "" {
		st.UserName = userName
	}
	if st.IsLoggedIn {
		return nil
	}

	st.UserID = uuid.New().String()
	st.IsLoggedIn = true

	token, err := newCSRFToken()
	if err != nil {
		return err
	}
	st.CSRFToken = token
	return nil
}

// IsRoomAuthenticated reports whether the bearer has supplied the correct
// password for roomID at least once this session.
func (st *State) IsRoomAuthenticated(roomID string) bool {
	for _, id := range st.AuthenticatedRooms {
		if id == roomID {
			return true
		}
	}
	return false
}

// GrantRoom records a room authentication. Idempotent.
func (st *State) GrantRoom(roomID string) {
	if st.IsRoomAuthenticated(roomID) {
		return
	}
	st.AuthenticatedRooms = append(st.AuthenticatedRooms, roomID)
}

// VerifyCSRF compares a submitted token against the session token in
// constant time.
func (st *State) VerifyCSRF(token string) bool {
	if st.CSRFToken == "" || token == "" {
		return false
	}
	return hmac.Equal([]byte(st.CSRFToken), []byte(token))
}

func newCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
