// Copyright (C) 2025 hushchat <dev@hushchat.io>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/hushchat/hushchat/backend/models"
)

const (
	// Redis key prefixes
	roomChannelPrefix = "room:messages:" // room:messages:{roomId} - pub/sub channel
)

// MessageFeed fans out newly saved messages to live subscribers via Redis
// pub/sub, one channel per room.
type MessageFeed struct {
	rdb *redis.Client
	ctx context.Context
}

func NewMessageFeed(rdb *redis.Client) *MessageFeed {
	return &MessageFeed{
		rdb: rdb,
		ctx: context.Background(),
	}
}

// PublishMessage broadcasts a saved message to the room's channel. Delivery
// is best-effort; subscribers that connect later replay from Postgres.
func (f *MessageFeed) PublishMessage(msg models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := f.rdb.Publish(f.ctx, roomChannelPrefix+msg.RoomID, data).Err(); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// SubscribeMessages subscribes to a room's channel. The returned channel
// closes when ctx is cancelled. Malformed payloads are skipped.
func (f *MessageFeed) SubscribeMessages(ctx context.Context, roomID string) (<-chan models.Message, error) {
	sub := f.rdb.Subscribe(ctx, roomChannelPrefix+roomID)

	// Force the subscription to be established before returning so callers
	// never miss messages published after SubscribeMessages returns.
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan models.Message)
	go func() {
		defer close(out)
		defer sub.Close()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case payload, ok := <-ch:
				if !ok {
					return
				}
				var msg models.Message
				if err := json.Unmarshal([]byte(payload.Payload), &msg); err != nil {
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
