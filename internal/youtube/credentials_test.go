package youtube

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStore_SaveLoad(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec := CredentialRecord{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		TokenType:    "Bearer",
		ExpiresIn:    3600,
		Scope:        uploadScope,
		CreatedAt:    time.Now().Unix(),
	}

	if err := store.Save("user-a", rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := store.Load("user-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded != rec {
		t.Errorf("expected %+v, got %+v", rec, loaded)
	}
}

func TestStore_LoadMissing(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	_, err := store.Load("nobody")
	if !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	first := CredentialRecord{AccessToken: "old", ExpiresIn: 3600, CreatedAt: 100}
	second := CredentialRecord{AccessToken: "new", ExpiresIn: 3600, CreatedAt: 200}

	_ = store.Save("user-a", first)
	_ = store.Save("user-a", second)

	loaded, err := store.Load("user-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.AccessToken != "new" {
		t.Errorf("expected overwritten token, got %q", loaded.AccessToken)
	}
}

func TestStore_OneFilePerUser(t *testing.T) {
	dir := t.TempDir()
	store, _ := NewStore(dir)

	_ = store.Save("user-a", CredentialRecord{AccessToken: "a"})
	_ = store.Save("user-b", CredentialRecord{AccessToken: "b"})

	for _, user := range []string{"user-a", "user-b"} {
		if _, err := os.Stat(filepath.Join(dir, "youtube_"+user+".json")); err != nil {
			t.Errorf("expected credential file for %s: %v", user, err)
		}
	}
}

func TestStore_Connected(t *testing.T) {
	store, _ := NewStore(t.TempDir())

	if store.Connected("user-a") {
		t.Error("expected not connected before save")
	}
	_ = store.Save("user-a", CredentialRecord{AccessToken: "a"})
	if !store.Connected("user-a") {
		t.Error("expected connected after save")
	}
}

func TestCredentialRecord_Expired(t *testing.T) {
	now := time.Unix(10_000, 0)

	cases := []struct {
		name      string
		createdAt int64
		expiresIn int64
		want      bool
	}{
		{"fresh", 10_000 - 10, 3600, false},
		{"just issued", 10_000, 3600, false},
		{"past lifetime", 10_000 - 3601, 3600, true},
		{"exactly at lifetime", 10_000 - 3600, 3600, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := CredentialRecord{CreatedAt: tc.createdAt, ExpiresIn: tc.expiresIn}
			if got := rec.Expired(now); got != tc.want {
				t.Errorf("expected expired=%v, got %v", tc.want, got)
			}
		})
	}
}
