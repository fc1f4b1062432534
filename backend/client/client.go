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

// Package client implements the client half of the message protocol: it
// derives room keys from passwords, encrypts before send, and decrypts
// incoming batches. Keys live only in the process keyring; the server
// stores and forwards ciphertext and IV, never the key, never the
// plaintext.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"

	"github.com/hushchat/hushchat/backend/crypto"
	"github.com/hushchat/hushchat/backend/models"
)

type Client struct {
	base    string
	http    *http.Client
	keyring *crypto.Keyring

	userName  string
	csrfToken string
}

func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{
		base:    baseURL,
		http:    &http.Client{Jar: jar},
		keyring: crypto.NewKeyring(),
	}, nil
}

// Keyring exposes the room keys held by this client.
func (c *Client) Keyring() *crypto.Keyring {
	return c.keyring
}

// StartSession identifies this client with a display name and captures the
// CSRF token for later state-changing calls.
func (c *Client) StartSession(userName string) error {
	var resp struct {
		UserName  string `json:"userName"`
		CSRFToken string `json:"csrfToken"`
	}
	if err := c.post("/auth/session", map[string]string{"userName": userName}, &resp); err != nil {
		return err
	}
	c.userName = resp.UserName
	c.csrfToken = resp.CSRFToken
	return nil
}

// CreateRoom creates a room and derives its encryption key into the
// keyring, so messages sent to it are end-to-end encrypted.
func (c *Client) CreateRoom(name, password string) (string, error) {
	var resp struct {
		RoomID string `json:"roomId"`
	}
	req := map[string]string{"name": name, "password": password, "userName": c.userName}
	if err := c.post("/rooms/create", req, &resp); err != nil {
		return "", err
	}

	c.keyring.Set(resp.RoomID, crypto.DeriveRoomKey(password, resp.RoomID))
	return resp.RoomID, nil
}

// JoinRoom authenticates to an existing room and derives its key.
func (c *Client) JoinRoom(roomID, password string) error {
	req := map[string]string{"roomId": roomID, "password": password, "userName": c.userName}
	if err := c.post("/rooms/join", req, nil); err != nil {
		return err
	}

	c.keyring.Set(roomID, crypto.DeriveRoomKey(password, roomID))
	return nil
}

// AuthRoom re-authenticates an identified session to a room, proving
// same-origin intent with the CSRF token.
func (c *Client) AuthRoom(roomID, password string) error {
	req := map[string]string{"roomId": roomID, "password": password, "csrfToken": c.csrfToken}
	if err := c.post("/auth/room", req, nil); err != nil {
		return err
	}

	c.keyring.Set(roomID, crypto.DeriveRoomKey(password, roomID))
	return nil
}

// SendMessage encrypts text with the room key when one is held, otherwise
// sends plaintext for server-side sanitization.
func (c *Client) SendMessage(roomID, text string) error {
	body := map[string]interface{}{
		"roomId":   roomID,
		"text":     text,
		"userName": c.userName,
	}

	if key, ok := c.keyring.Get(roomID); ok {
		ciphertext, iv, err := crypto.EncryptMessage(text, key)
		if err != nil {
			return fmt.Errorf("failed to encrypt message: %w", err)
		}
		body["text"] = ciphertext
		body["iv"] = iv
		body["encrypted"] = true
	}

	return c.post("/messages/send", body, nil)
}

// Messages fetches a room's history and decrypts what it can. Messages
// that fail to decrypt degrade to the sentinel text; without a key,
// ciphertext passes through unchanged for display.
func (c *Client) Messages(roomID string) ([]models.Message, error) {
	resp, err := c.http.Get(c.base + "/messages/" + roomID)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var payload struct {
		Messages []models.Message `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	c.decryptBatch(roomID, payload.Messages)
	return payload.Messages, nil
}

func (c *Client) decryptBatch(roomID string, messages []models.Message) {
	key, ok := c.keyring.Get(roomID)
	if !ok {
		return
	}
	for i := range messages {
		if messages[i].Encrypted {
			messages[i].Text = crypto.DecryptMessage(messages[i].Text, messages[i].IV, key)
		}
	}
}

func (c *Client) post(path string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	resp, err := c.http.Post(c.base+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// APIError carries the server's taxonomy status and error message.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func decodeError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)
	return &APIError{Status: resp.StatusCode, Message: payload.Error}
}
