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

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	roomKeySize       = 32
	roomKeyIterations = 100000
	gcmIVSize         = 12
)

// DecryptFailedSentinel is rendered in place of message content that cannot
// be decrypted. Decryption failure is a per-message display fallback, never
// a fatal error.
const DecryptFailedSentinel = "[Encrypted message - cannot decrypt]"

// DeriveRoomKey derives a 256-bit AES-GCM key from a room password.
// The room ID is the salt, so the same password yields a different key in
// every room. The server never calls this for stored messages; it exists
// for the client side of the protocol.
func DeriveRoomKey(password, roomID string) []byte {
	return pbkdf2.Key([]byte(password), []byte(roomID), roomKeyIterations, roomKeySize, sha256.New)
}

// EncryptMessage encrypts plaintext under key with AES-256-GCM using a fresh
// random 12-byte IV. Both outputs are base64 encoded. The IV must never be
// reused under the same key.
func EncryptMessage(plaintext string, key []byte) (ciphertextB64, ivB64 string, err error) {
	if len(key) != roomKeySize {
		return "", "", fmt.Errorf("invalid key size: %d bytes (expected %d)", len(key), roomKeySize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", "", fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", "", fmt.Errorf("failed to create GCM: %w", err)
	}

	iv := make([]byte, gcmIVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", "", fmt.Errorf("failed to generate IV: %w", err)
	}

	ciphertext := gcm.Seal(nil, iv, []byte(plaintext), nil)

	return base64.StdEncoding.EncodeToString(ciphertext),
		base64.StdEncoding.EncodeToString(iv), nil
}

// DecryptMessage reverses EncryptMessage. Any failure (bad base64, wrong
// key, tampered ciphertext, wrong IV) returns DecryptFailedSentinel rather
// than an error.
func DecryptMessage(ciphertextB64, ivB64 string, key []byte) string {
	if len(key) != roomKeySize {
		return DecryptFailedSentinel
	}

	ciphertext, err := base64.StdEncoding.DecodeString(ciphertextB64)
	if err != nil {
		return DecryptFailedSentinel
	}

	iv, err := base64.StdEncoding.DecodeString(ivB64)
	if err != nil || len(iv) != gcmIVSize {
		return DecryptFailedSentinel
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return DecryptFailedSentinel
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return DecryptFailedSentinel
	}

	plaintext, err := gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return DecryptFailedSentinel
	}

	return string(plaintext)
}
