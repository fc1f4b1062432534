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
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	passwordSaltSize   = 16
	passwordHashSize   = 64
	passwordIterations = 10000
)

// HashPassword derives a salted PBKDF2-SHA512 hash for a room password.
// The output format is hex(salt) + ":" + hex(hash).
func HashPassword(password string) (string, error) {
	salt := make([]byte, passwordSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	hash := pbkdf2.Key([]byte(password), salt, passwordIterations, passwordHashSize, sha512.New)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(hash), nil
}

// VerifyPassword re-derives the hash with the stored salt and compares.
// A malformed stored value (missing separator, bad hex) verifies as false;
// callers treat every failure as invalid credentials without detail.
func VerifyPassword(password, stored string) bool {
	salt, want, ok := splitStoredHash(stored)
	if !ok {
		return false
	}

	got := pbkdf2.Key([]byte(password), salt, passwordIterations, passwordHashSize, sha512.New)
	return hex.EncodeToString(got) == want
}

func splitStoredHash(stored string) ([]byte, string, bool) {
	parts := strings.SplitN(stored, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, "", false
	}

	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return nil, "", false
	}

	return salt, parts[1], true
}
