package auth

import (
	"strings"
	"testing"
)

func TestHashPassword_VerifyRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("hash has unexpected format: %s", hash)
	}

	if !VerifyPassword("correct horse battery staple", hash) {
		t.Error("correct password should verify")
	}
	if VerifyPassword("wrong password", hash) {
		t.Error("wrong password should not verify")
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	first, err := HashPassword("senha123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	second, err := HashPassword("senha123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if first == second {
		t.Error("two hashes of the same password should differ by salt")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty", ""},
		{"not argon2id", "$bcrypt$whatever"},
		{"too few parts", "$argon2id$v=19$m=65536"},
		{"bad base64 salt", "$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if VerifyPassword("anything", tt.hash) {
				t.Error("malformed hash should never verify")
			}
		})
	}
}

func TestGenerateToken(t *testing.T) {
	first, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	second, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	if first == second {
		t.Error("tokens should be unique")
	}
	if len(first) < 40 {
		t.Errorf("32 bytes of entropy should encode to 43 chars, got %d", len(first))
	}
}

func TestHashToken_Deterministic(t *testing.T) {
	token := "opaque-refresh-token"
	if HashToken(token) != HashToken(token) {
		t.Error("HashToken should be deterministic")
	}
	if HashToken(token) == token {
		t.Error("HashToken should not return the raw token")
	}
	if len(HashToken(token)) != 64 {
		t.Errorf("sha256 hex digest should be 64 chars, got %d", len(HashToken(token)))
	}
}
