package crypto

import (
	"encoding/base64"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := DeriveRoomKey("password123", "room-1")

	ct, iv, err := EncryptMessage("hello, room", key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	got := DecryptMessage(ct, iv, key)
	if got != "hello, room" {
		t.Fatalf("round trip: got %q", got)
	}
}

func TestEncryptFreshIVPerCall(t *testing.T) {
	key := DeriveRoomKey("password123", "room-1")

	ct1, iv1, err := EncryptMessage("same plaintext", key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	ct2, iv2, err := EncryptMessage("same plaintext", key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	if iv1 == iv2 {
		t.Fatalf("IV reused across calls")
	}
	if ct1 == ct2 {
		t.Fatalf("identical ciphertext for two encryptions")
	}
}

func TestDeriveRoomKeyScopedToRoom(t *testing.T) {
	k1 := DeriveRoomKey("password123", "room-1")
	k2 := DeriveRoomKey("password123", "room-2")
	if string(k1) == string(k2) {
		t.Fatalf("same password in different rooms produced the same key")
	}
}

func TestDecryptFailuresReturnSentinel(t *testing.T) {
	key := DeriveRoomKey("password123", "room-1")
	ct, iv, err := EncryptMessage("secret", key)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	wrongKey := DeriveRoomKey("otherpass", "room-1")
	if got := DecryptMessage(ct, iv, wrongKey); got != DecryptFailedSentinel {
		t.Fatalf("wrong key: got %q", got)
	}

	// Tamper with the ciphertext.
	raw, _ := base64.StdEncoding.DecodeString(ct)
	raw[0] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)
	if got := DecryptMessage(tampered, iv, key); got != DecryptFailedSentinel {
		t.Fatalf("tampered ciphertext: got %q", got)
	}

	if got := DecryptMessage("!!not base64!!", iv, key); got != DecryptFailedSentinel {
		t.Fatalf("bad base64: got %q", got)
	}
	if got := DecryptMessage(ct, "short", key); got != DecryptFailedSentinel {
		t.Fatalf("bad IV: got %q", got)
	}
}

func TestKeyring(t *testing.T) {
	kr := NewKeyring()
	if kr.Has("room-1") {
		t.Fatalf("empty keyring reports a key")
	}

	key := DeriveRoomKey("password123", "room-1")
	kr.Set("room-1", key)

	got, ok := kr.Get("room-1")
	if !ok || string(got) != string(key) {
		t.Fatalf("keyring did not return stored key")
	}

	kr.Forget("room-1")
	if kr.Has("room-1") {
		t.Fatalf("forgotten key still present")
	}
}
