package persist

import (
	"strings"
	"testing"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("hash %q is not a bcrypt hash", hash)
	}

	repo := NewAccountRepo(nil)
	if !repo.ValidatePassword(hash, "s3cret") {
		t.Error("correct password rejected")
	}
	if repo.ValidatePassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
	if repo.ValidatePassword("not-a-hash", "s3cret") {
		t.Error("garbage hash accepted")
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	body, err := migrations.ReadFile("migrations/00001_init.sql")
	if err != nil {
		t.Fatalf("read embedded migration: %v", err)
	}
	for _, table := range []string{"accounts", "unit_positions", "move_log"} {
		if !strings.Contains(string(body), "CREATE TABLE "+table) {
			t.Errorf("migration missing table %s", table)
		}
	}
	if !strings.Contains(string(body), "-- +goose Down") {
		t.Error("migration missing down section")
	}
}
