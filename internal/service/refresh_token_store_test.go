package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockRedisKVClient struct {
	lastSetKey string
	lastSetVal interface{}
	lastSetTTL time.Duration
	lastDel    []string

	setErr error
	delErr error
	delN   int64
}

func (m *mockRedisKVClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	m.lastSetKey = key
	m.lastSetVal = value
	m.lastSetTTL = expiration
	cmd := redis.NewStatusCmd(ctx)
	if m.setErr != nil {
		cmd.SetErr(m.setErr)
		return cmd
	}
	cmd.SetVal("OK")
	return cmd
}

func (m *mockRedisKVClient) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	m.lastDel = keys
	cmd := redis.NewIntCmd(ctx)
	if m.delErr != nil {
		cmd.SetErr(m.delErr)
		return cmd
	}
	cmd.SetVal(m.delN)
	return cmd
}

func TestMemoryRefreshTokenStore_ExpiresByClock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 26, 12, 0, 0, 0, time.UTC)
	store := &memoryRefreshTokenStore{
		now:   func() time.Time { return now },
		items: make(map[string]time.Time),
	}

	if ok, err := store.Consume(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing token inactive; got %v,%v", ok, err)
	}
	if err := store.Save(ctx, "jti-1", "u1", time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, "jti-5", "u1", time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ok, _ := store.Consume(ctx, "jti-5"); !ok {
		t.Fatalf("expected token active before its deadline")
	}

	now = now.Add(time.Minute)
	if ok, _ := store.Consume(ctx, "jti-1"); ok {
		t.Fatalf("expected token expired at its deadline")
	}
}

func TestMemoryRefreshTokenStore_RevokeAndEmptyJTI(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRefreshTokenStore()
	if err := store.Save(ctx, "  ", "u1", time.Minute); err != nil {
		t.Fatalf("empty jti save should be a no-op, got %v", err)
	}
	if ok, _ := store.Consume(ctx, ""); ok {
		t.Fatalf("empty jti must never be consumed")
	}
	if err := store.Save(ctx, "jti-2", "u1", 0); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Revoke(ctx, "jti-2"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if ok, _ := store.Consume(ctx, "jti-2"); ok {
		t.Fatalf("expected revoked token inactive")
	}
}

func TestRedisRefreshTokenStore_Keys(t *testing.T) {
	ctx := context.Background()
	mock := &mockRedisKVClient{delN: 1}
	store := &redisRefreshTokenStore{client: mock, prefix: "tastetest:refresh:"}

	if err := store.Save(ctx, " j1 ", "u1", 0); err != nil {
		t.Fatalf("save: %v", err)
	}
	if mock.lastSetKey != "tastetest:refresh:j1" || mock.lastSetVal != "u1" {
		t.Fatalf("unexpected set: %q=%v", mock.lastSetKey, mock.lastSetVal)
	}
	if mock.lastSetTTL != defaultRefreshTTL {
		t.Fatalf("expected default ttl, got %v", mock.lastSetTTL)
	}

	if err := store.Revoke(ctx, " j1 "); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if len(mock.lastDel) != 1 || mock.lastDel[0] != "tastetest:refresh:j1" {
		t.Fatalf("unexpected del keys: %+v", mock.lastDel)
	}
}

func TestRedisRefreshTokenStore_Errors(t *testing.T) {
	ctx := context.Background()
	mock := &mockRedisKVClient{
		setErr: errors.New("set failed"),
		delErr: errors.New("del failed"),
	}
	store := &redisRefreshTokenStore{client: mock, prefix: "tastetest:refresh:"}

	if err := store.Save(ctx, "", "u1", time.Minute); err != nil {
		t.Fatalf("empty jti save should be a no-op, got %v", err)
	}
	if err := store.Save(ctx, "j2", "u1", time.Minute); err == nil {
		t.Fatalf("expected save error")
	}
	if err := store.Revoke(ctx, "j2"); err == nil {
		t.Fatalf("expected revoke error")
	}
}

func TestMemoryRefreshTokenStore_ConsumeOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryRefreshTokenStore()
	_ = store.Save(ctx, "jti-3", "u1", time.Minute)

	if ok, err := store.Consume(ctx, "jti-3"); err != nil || !ok {
		t.Fatalf("first consume should win; got %v,%v", ok, err)
	}
	if ok, err := store.Consume(ctx, "jti-3"); err != nil || ok {
		t.Fatalf("second consume should lose; got %v,%v", ok, err)
	}
}

func TestMemoryRefreshTokenStore_ConsumeExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &memoryRefreshTokenStore{now: func() time.Time { return now }, items: make(map[string]time.Time)}
	_ = store.Save(ctx, "jti-4", "u1", time.Minute)

	now = now.Add(2 * time.Minute)
	if ok, err := store.Consume(ctx, "jti-4"); err != nil || ok {
		t.Fatalf("expired token must not be consumed; got %v,%v", ok, err)
	}
}

func TestRedisRefreshTokenStore_ConsumeUsesDelCount(t *testing.T) {
	ctx := context.Background()
	mock := &mockRedisKVClient{delN: 1}
	store := &redisRefreshTokenStore{client: mock, prefix: "tastetest:refresh:"}

	ok, err := store.Consume(ctx, " j3 ")
	if err != nil || !ok {
		t.Fatalf("expected consume to win; got %v,%v", ok, err)
	}
	if len(mock.lastDel) != 1 || mock.lastDel[0] != "tastetest:refresh:j3" {
		t.Fatalf("unexpected del keys: %+v", mock.lastDel)
	}

	mock.delN = 0
	if ok, err := store.Consume(ctx, "j3"); err != nil || ok {
		t.Fatalf("expected consume to lose when nothing was deleted; got %v,%v", ok, err)
	}

	mock.delErr = errors.New("del failed")
	if _, err := store.Consume(ctx, "j3"); err == nil {
		t.Fatalf("expected del error")
	}
	if ok, err := store.Consume(ctx, ""); err != nil || ok {
		t.Fatalf("empty jti should lose without error; got %v,%v", ok, err)
	}
}
