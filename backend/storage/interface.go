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

package storage

import (
	"context"
	"errors"

	"github.com/hushchat/hushchat/backend/models"
)

// ErrRoomNotFound is returned by GetRoom for an unknown room ID. Handlers
// translate it to 404.
var ErrRoomNotFound = errors.New("room not found")

type RoomStore interface {
	CreateRoom(room models.Room) error
	GetRoom(roomID string) (*models.Room, error)
}

type MessageStore interface {
	SaveMessage(msg models.Message) error
	// ListMessages returns up to limit messages for a room in ascending
	// created_at order.
	ListMessages(roomID string, limit int) ([]models.Message, error)
}

// MessageFeed is the live fan-out for new messages in a room.
type MessageFeed interface {
	PublishMessage(msg models.Message) error
	// SubscribeMessages delivers messages saved after the subscription is
	// established. The channel closes when ctx is cancelled.
	SubscribeMessages(ctx context.Context, roomID string) (<-chan models.Message, error)
}

type Store interface {
	RoomStore
	MessageStore
	MessageFeed
}
