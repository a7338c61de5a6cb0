package security

import (
	"strings"
	"testing"

	"github.com/gatherhall/community-backend/pkg/config"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery", testPasswordConfig())
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$") {
		t.Fatalf("unexpected hash format %q", hash)
	}

	ok, err := VerifyPassword("correct horse battery", hash)
	if err != nil || !ok {
		t.Fatalf("expected match, ok=%v err=%v", ok, err)
	}
	ok, err = VerifyPassword("wrong password", hash)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatal("expected mismatch")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword("", testPasswordConfig()); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestHashPasswordUniqueSalt(t *testing.T) {
	first, err := HashPassword("same password", testPasswordConfig())
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := HashPassword("same password", testPasswordConfig())
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct salts to produce distinct hashes")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=8,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=bad,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8,t=1,p=1$!!$aGFzaA",
	} {
		if _, err := VerifyPassword("whatever", encoded); err == nil {
			t.Fatalf("expected error for %q", encoded)
		}
	}
}

func TestGenerateInviteToken(t *testing.T) {
	token, err := GenerateInviteToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(token) != 40 {
		t.Fatalf("expected 40 hex chars, got %d", len(token))
	}
	other, err := GenerateInviteToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if token == other {
		t.Fatal("expected distinct tokens")
	}
}

func TestHashTokenAndDigestCompare(t *testing.T) {
	raw, err := GenerateResetToken()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	digest := HashToken(raw)
	if digest == raw {
		t.Fatal("digest must differ from the raw token")
	}
	if len(digest) != 64 {
		t.Fatalf("expected sha256 hex digest, got %d chars", len(digest))
	}
	if !TokenDigestsEqual(digest, raw) {
		t.Fatal("expected digest to match its own token")
	}
	if TokenDigestsEqual(digest, raw+"x") {
		t.Fatal("expected mismatch for altered token")
	}
}
