package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func testSession(sessionID string) *Session {
	now := time.Now()
	return &Session{
		SessionID:  sessionID,
		UserID:     "u1",
		Username:   "alice",
		RememberMe: true,
		CreatedAt:  now.Unix(),
		ExpiresAt:  now.Add(time.Hour).Unix(),
	}
}

func TestStoreSaveGetRoundTrip(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewStore(rdb, "ak")
	sess := testSession("s1")

	if err := store.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.UserID != "u1" || got.Username != "alice" || !got.RememberMe {
		t.Fatalf("unexpected session %+v", got)
	}
	if got.CreatedAt != sess.CreatedAt || got.ExpiresAt != sess.ExpiresAt {
		t.Fatalf("timestamps not preserved: %+v vs %+v", got, sess)
	}
}

func TestStoreGetUnknownSession(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	store := NewStore(rdb, "ak")
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreGetExpiredRecord(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewStore(rdb, "ak")
	sess := testSession("s1")
	sess.ExpiresAt = time.Now().Add(-time.Minute).Unix()

	// Redis TTL outlives the record's own expiry on purpose.
	if err := store.Save(ctx, sess, time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := store.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired record, got %v", err)
	}

	// The cleanup removed the record and the index entry.
	ids, err := store.ActiveSessionIDs(ctx, "u1")
	if err != nil {
		t.Fatalf("ActiveSessionIDs failed: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected empty index after cleanup, got %v", ids)
	}
}

func TestStoreDeleteReportsMissing(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewStore(rdb, "ak")

	if err := store.Save(ctx, testSession("s1"), time.Hour); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := store.Delete(ctx, "u1", "s1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "u1", "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on repeat delete, got %v", err)
	}
}

func TestStoreDeleteAllForUser(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	ctx := context.Background()
	store := NewStore(rdb, "ak")

	for _, id := range []string{"s1", "s2", "s3"} {
		if err := store.Save(ctx, testSession(id), time.Hour); err != nil {
			t.Fatalf("Save %s failed: %v", id, err)
		}
	}

	if err := store.DeleteAllForUser(ctx, "u1"); err != nil {
		t.Fatalf("DeleteAllForUser failed: %v", err)
	}

	for _, id := range []string{"s1", "s2", "s3"} {
		if _, err := store.Get(ctx, id); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected session %s gone, got %v", id, err)
		}
	}

	ids, err := store.ActiveSessionIDs(ctx, "u1")
	if err != nil {
		t.Fatalf("ActiveSessionIDs failed: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("expected empty index, got %v", ids)
	}
}

func TestEncodeDecodeFlags(t *testing.T) {
	sess := testSession("s1")
	sess.RememberMe = false

	data, err := Encode(sess)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.RememberMe {
		t.Fatal("RememberMe flag must round-trip as false")
	}
	if got.UserID != sess.UserID || got.Username != sess.Username {
		t.Fatalf("unexpected decode %+v", got)
	}
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	sess := testSession("s1")
	data, err := Encode(sess)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	data[0] = 0xFF
	if _, err := Decode(data); err == nil {
		t.Fatal("expected error for unknown schema version")
	}
}
