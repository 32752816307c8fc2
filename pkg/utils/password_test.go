package utils

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("hash must not equal the plain password")
	}
	if !CheckPassword("s3cret-pass", hash) {
		t.Fatal("expected matching password to check out")
	}
	if CheckPassword("wrong", hash) {
		t.Fatal("expected wrong password to be rejected")
	}
}
