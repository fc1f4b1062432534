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

package models

import (
	"time"
)

// Message is one chat message. When Encrypted is true, Text holds base64
// ciphertext and IV holds the base64 AES-GCM nonce; otherwise Text is
// sanitized plaintext and IV is empty. Messages are append-only.
type Message struct {
	ID        string    `json:"id" db:"message_id"`
	RoomID    string    `json:"room_id" db:"room_id"`
	Text      string    `json:"text" db:"text"`
	Encrypted bool      `json:"encrypted" db:"encrypted"`
	IV        string    `json:"iv,omitempty" db:"iv"`
	UserName  string    `json:"user_name" db:"user_name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
