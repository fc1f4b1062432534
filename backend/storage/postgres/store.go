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
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"

	"github.com/hushchat/hushchat/backend/models"
	redisStore "github.com/hushchat/hushchat/backend/storage/redis"
)

// Store persists rooms and messages in Postgres and fans new messages out
// through the Redis feed.
type Store struct {
	db   *sql.DB
	feed *redisStore.MessageFeed
}

func NewStore(db *sql.DB, rdb *redis.Client) *Store {
	return &Store{
		db:   db,
		feed: redisStore.NewMessageFeed(rdb),
	}
}

func (s *Store) PublishMessage(msg models.Message) error {
	return s.feed.PublishMessage(msg)
}

func (s *Store) SubscribeMessages(ctx context.Context, roomID string) (<-chan models.Message, error) {
	return s.feed.SubscribeMessages(ctx, roomID)
}
