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

func (s *Store) Migrate() error {
	migrations := []string{
		// Rooms table. password_hash is "hex(salt):hex(pbkdf2)".
		`CREATE TABLE IF NOT EXISTS rooms (
			room_id VARCHAR(255) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			password_hash VARCHAR(512) NOT NULL,
			created_by VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// Messages table. text holds ciphertext (base64) when encrypted.
		`CREATE TABLE IF NOT EXISTS messages (
			message_id VARCHAR(255) PRIMARY KEY,
			room_id VARCHAR(255) NOT NULL,
			text TEXT NOT NULL,
			encrypted BOOLEAN NOT NULL DEFAULT FALSE,
			iv VARCHAR(64) NOT NULL DEFAULT '',
			user_name VARCHAR(255) NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (room_id) REFERENCES rooms(room_id) ON DELETE CASCADE
		)`,

		// Index for timestamp-ordered retrieval per room
		`CREATE INDEX IF NOT EXISTS idx_room_messages
		ON messages(room_id, created_at ASC)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
