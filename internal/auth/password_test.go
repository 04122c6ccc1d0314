package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckPassword(t *testing.T) {
	// MinCost keeps the test fast; production uses the configured cost.
	hash, err := HashPassword("correct horse battery staple", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassword() returned empty hash")
	}
	if hash == "correct horse battery staple" {
		t.Fatal("HashPassword() returned plaintext")
	}

	if !CheckPassword("correct horse battery staple", hash) {
		t.Error("CheckPassword() = false for matching password")
	}
	if CheckPassword("wrong password", hash) {
		t.Error("CheckPassword() = true for non-matching password")
	}
	if CheckPassword("correct horse battery staple", "not-a-bcrypt-hash") {
		t.Error("CheckPassword() = true for malformed hash")
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name      string
		password  string
		expectErr bool
	}{
		{"long enough", "password123", false},
		{"exactly minimum", "12345678", false},
		{"too short", "1234567", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePasswordStrength(tt.password)
			if tt.expectErr && err == nil {
				t.Errorf("ValidatePasswordStrength(%q) expected error, got nil", tt.password)
			}
			if !tt.expectErr && err != nil {
				t.Errorf("ValidatePasswordStrength(%q) unexpected error: %v", tt.password, err)
			}
		})
	}
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		expected  string
		expectErr bool
	}{
		{
			name:     "valid bearer token",
			header:   "Bearer abc123",
			expected: "abc123",
		},
		{
			name:     "token with surrounding whitespace",
			header:   "Bearer   abc123  ",
			expected: "abc123",
		},
		{
			name:      "empty header",
			header:    "",
			expectErr: true,
		},
		{
			name:      "missing bearer prefix",
			header:    "Basic abc123",
			expectErr: true,
		},
		{
			name:      "bearer with no token",
			header:    "Bearer ",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractBearerToken(tt.header)
			if tt.expectErr {
				if err == nil {
					t.Errorf("ExtractBearerToken(%q) expected error, got nil", tt.header)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractBearerToken(%q) unexpected error: %v", tt.header, err)
			}
			if got != tt.expected {
				t.Errorf("ExtractBearerToken(%q) = %q, want %q", tt.header, got, tt.expected)
			}
		})
	}
}
