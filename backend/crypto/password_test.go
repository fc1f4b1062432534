package crypto

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.Contains(hash, ":") {
		t.Fatalf("expected salt:hash format, got %q", hash)
	}
	if !VerifyPassword("password123", hash) {
		t.Fatalf("correct password did not verify")
	}
	if VerifyPassword("wrongpass", hash) {
		t.Fatalf("wrong password verified")
	}
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	h1, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h2, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("two hashes of the same password are identical; salts not random")
	}
}

func TestVerifyPasswordMalformedStored(t *testing.T) {
	cases := []string{"", "nocolon", ":", "abc:", ":abc", "zz-not-hex:deadbeef"}
	for _, stored := range cases {
		if VerifyPassword("anything", stored) {
			t.Fatalf("malformed stored value %q verified", stored)
		}
	}
}
