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
	"database/sql"
	"time"

	"github.com/hushchat/hushchat/backend/models"
	"github.com/hushchat/hushchat/backend/storage"
)

func (s *Store) CreateRoom(room models.Room) error {
	createdAt := room.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO rooms (room_id, name, password_hash, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		room.ID, room.Name, room.PasswordHash, room.CreatedBy, createdAt)
	return err
}

func (s *Store) GetRoom(roomID string) (*models.Room, error) {
	room := &models.Room{}
	err := s.db.QueryRow(`
		SELECT room_id, name, password_hash, created_by, created_at
		FROM rooms
		WHERE room_id = $1`, roomID).Scan(
		&room.ID, &room.Name, &room.PasswordHash, &room.CreatedBy, &room.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrRoomNotFound
	}
	if err != nil {
		return nil, err
	}
	return room, nil
}
