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

package ratelimit

import (
	"container/list"
	"sync"
	"time"
)

// Limiter is a sliding-window request counter keyed by caller identity
// (typically client IP). It permits bursts up to the limit within any
// trailing interval window; capacity frees up as old timestamps age out.
// This is not a token bucket and does no rate shaping.
//
// The key cache is bounded: least-recently-used keys are evicted once
// maxKeys is reached, and a key idle for a full interval is dropped.
// State is per-process; running multiple instances multiplies the
// effective limit.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	maxKeys  int
	entries  map[string]*entry
	order    *list.List // front = most recently used

	now func() time.Time
}

type entry struct {
	key      string
	hits     []time.Time
	lastSeen time.Time
	elem     *list.Element
}

func New(interval time.Duration, maxKeys int) *Limiter {
	return &Limiter{
		interval: interval,
		maxKeys:  maxKeys,
		entries:  make(map[string]*entry),
		order:    list.New(),
		now:      time.Now,
	}
}

// Allow reports whether a request under key may proceed given limit
// requests per interval. An accepted request is recorded; a rejected one
// is not.
func (l *Limiter) Allow(key string, limit int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	e, ok := l.entries[key]
	if !ok {
		if len(l.entries) >= l.maxKeys {
			l.evictOldest(now)
		}
		e = &entry{key: key}
		e.elem = l.order.PushFront(e)
		l.entries[key] = e
	} else {
		if now.Sub(e.lastSeen) >= l.interval {
			e.hits = e.hits[:0]
		}
		l.order.MoveToFront(e.elem)
	}
	e.lastSeen = now

	// Drop timestamps outside the trailing window.
	cutoff := now.Add(-l.interval)
	kept := e.hits[:0]
	for _, ts := range e.hits {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	e.hits = kept

	if len(e.hits) >= limit {
		return false
	}

	e.hits = append(e.hits, now)
	return true
}

// evictOldest removes every expired key, falling back to the single
// least-recently-used key when nothing has expired. Caller holds the lock.
func (l *Limiter) evictOldest(now time.Time) {
	evicted := false
	for el := l.order.Back(); el != nil; {
		prev := el.Prev()
		e := el.Value.(*entry)
		if now.Sub(e.lastSeen) < l.interval {
			break
		}
		l.remove(e)
		evicted = true
		el = prev
	}
	if evicted {
		return
	}
	if el := l.order.Back(); el != nil {
		l.remove(el.Value.(*entry))
	}
}

func (l *Limiter) remove(e *entry) {
	l.order.Remove(e.elem)
	delete(l.entries, e.key)
}

// Len reports the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
