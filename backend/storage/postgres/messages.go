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

package postgres

import (
	"time"

	"github.com/hushchat/hushchat/backend/models"
)

func (s *Store) SaveMessage(msg models.Message) error {
	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO messages (message_id, room_id, text, encrypted, iv, user_name, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		msg.ID, msg.RoomID, msg.Text, msg.Encrypted, msg.IV, msg.UserName, createdAt)
	return err
}

func (s *Store) ListMessages(roomID string, limit int) ([]models.Message, error) {
	rows, err := s.db.Query(`
		SELECT message_id, room_id, text, encrypted, iv, user_name, created_at
		FROM messages
		WHERE room_id = $1
		ORDER BY created_at ASC
		LIMIT $2`,
		roomID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.RoomID, &msg.Text, &msg.Encrypted,
			&msg.IV, &msg.UserName, &msg.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}
