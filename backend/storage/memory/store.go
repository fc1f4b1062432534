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

// Package memory is an in-process Store for tests and single-node dev runs.
// It mirrors the Postgres/Redis store's semantics: ascending created_at
// order, best-effort fan-out, ErrRoomNotFound for unknown rooms.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hushchat/hushchat/backend/models"
	"github.com/hushchat/hushchat/backend/storage"
)

type Store struct {
	mu       sync.RWMutex
	rooms    map[string]models.Room
	messages map[string][]models.Message
	subs     map[string][]chan models.Message
}

func NewStore() *Store {
	return &Store{
		rooms:    make(map[string]models.Room),
		messages: make(map[string][]models.Message),
		subs:     make(map[string][]chan models.Message),
	}
}

func (s *Store) CreateRoom(room models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = room
	return nil
}

func (s *Store) GetRoom(roomID string) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, storage.ErrRoomNotFound
	}
	return &room, nil
}

func (s *Store) SaveMessage(msg models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.RoomID] = append(s.messages[msg.RoomID], msg)
	return nil
}

func (s *Store) ListMessages(roomID string, limit int) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.messages[roomID]
	out := make([]models.Message, len(src))
	copy(out, src)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) PublishMessage(msg models.Message) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subs[msg.RoomID] {
		select {
		case ch <- msg:
		default: // slow subscriber, drop; delivery is best-effort
		}
	}
	return nil
}

func (s *Store) SubscribeMessages(ctx context.Context, roomID string) (<-chan models.Message, error) {
	ch := make(chan models.Message, 16)

	s.mu.Lock()
	s.subs[roomID] = append(s.subs[roomID], ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		subs := s.subs[roomID]
		for i, c := range subs {
			if c == ch {
				s.subs[roomID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}
