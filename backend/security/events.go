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

package security

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hushchat/hushchat/backend/metrics"
	"github.com/hushchat/hushchat/backend/models"
)

const (
	eventListKey = "security:events"
	eventListCap = 10000
	eventListTTL = 7 * 24 * time.Hour
)

// Recorder pushes security events onto a capped Redis list for out-of-band
// monitoring. Recording is fire-and-forget: failures are logged and
// swallowed, never surfaced to the request that triggered the event.
type Recorder struct {
	rdb *redis.Client
	ctx context.Context
}

func NewRecorder(rdb *redis.Client) *Recorder {
	return &Recorder{
		rdb: rdb,
		ctx: context.Background(),
	}
}

// Record queues the event write on a background goroutine and returns
// immediately.
func (r *Recorder) Record(kind, path, actorIP string, details map[string]string) {
	metrics.SecurityEvents.WithLabelValues(kind).Inc()

	evt := models.SecurityEvent{
		Kind:      kind,
		Path:      path,
		ActorIP:   actorIP,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}

	go func() {
		if r.rdb == nil {
			return
		}

		data, err := json.Marshal(evt)
		if err != nil {
			log.Printf("security: failed to marshal event: %v", err)
			return
		}

		pipe := r.rdb.Pipeline()
		pipe.LPush(r.ctx, eventListKey, data)
		pipe.LTrim(r.ctx, eventListKey, 0, eventListCap-1)
		pipe.Expire(r.ctx, eventListKey, eventListTTL)
		if _, err := pipe.Exec(r.ctx); err != nil {
			log.Printf("security: failed to record %s event: %v", evt.Kind, err)
		}
	}()
}
