// Copyright (C) 2025 hushchat <dev@hushchat.io>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package crypto

import "sync"

// Keyring holds derived room keys in memory for the lifetime of a client
// process. Keys are never persisted; losing the keyring means re-deriving
// from the room password.
type Keyring struct {
	mu   sync.RWMutex
	keys map[string][]byte
}

func NewKeyring() *Keyring {
	return &Keyring{keys: make(map[string][]byte)}
}

func (k *Keyring) Set(roomID string, key []byte) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.keys[roomID] = key
}

func (k *Keyring) Get(roomID string) ([]byte, bool) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	key, ok := k.keys[roomID]
	return key, ok
}

func (k *Keyring) Has(roomID string) bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	_, ok := k.keys[roomID]
	return ok
}

func (k *Keyring) Forget(roomID string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.keys, roomID)
}
