package credential

import (
	"context"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/radbot/gateway/internal/store/sqlite"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	db, err := sqlite.OpenDB(filepath.Join(dir, "gateway.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteStore(db, "master-key")
}

func TestSQLiteStore_PutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	if err := s.Put(ctx, "stripe-key", "api_key", "billing provider", "sk-live-abc"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.Get(ctx, "stripe-key")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "sk-live-abc" {
		t.Errorf("Get = %q, want sk-live-abc", got)
	}
}

func TestSQLiteStore_PutUpsertsExistingName(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	s.Put(ctx, "k1", "api_key", "v1", "first")
	if err := s.Put(ctx, "k1", "api_key", "v2", "second"); err != nil {
		t.Fatalf("Put (update): %v", err)
	}

	got, err := s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "second" {
		t.Errorf("Get after upsert = %q, want second", got)
	}

	list, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Description != "v2" {
		t.Errorf("expected single upserted record, got %+v", list)
	}
}

func TestSQLiteStore_PutWithoutMasterKeyFails(t *testing.T) {
	s := newTestSQLiteStore(t)
	s.passphrase = ""
	if err := s.Put(context.Background(), "k", "api_key", "", "v"); err == nil {
		t.Error("expected Put without a master key to fail")
	}
}

func TestSQLiteStore_DeleteRemovesRecord(t *testing.T) {
	ctx := context.Background()
	s := newTestSQLiteStore(t)

	s.Put(ctx, "k1", "api_key", "", "v1")
	if err := s.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "k1"); err == nil {
		t.Error("expected Get after Delete to fail")
	}
}
