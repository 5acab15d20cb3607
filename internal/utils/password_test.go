package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("pw1234", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "pw1234" {
		t.Fatal("hash equals plaintext")
	}
	if !VerifyPassword(hash, "pw1234") {
		t.Error("VerifyPassword rejected the right password")
	}
	if VerifyPassword(hash, "pw12345") {
		t.Error("VerifyPassword accepted a wrong password")
	}
}
