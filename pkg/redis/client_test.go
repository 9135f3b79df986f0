package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
)

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	client := NewFromCmdable(db)

	key := client.SessionKey("abc")
	mock.ExpectSet(key, "payload", time.Minute).SetVal("OK")
	mock.ExpectGet(key).SetVal("payload")
	mock.ExpectDel(key).SetVal(1)

	if err := client.Set(ctx, key, "payload", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := client.Get(ctx, key)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != "payload" {
		t.Fatalf("unexpected value %q", got)
	}
	if err := client.Del(ctx, key); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetMissingKeyIsNil(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	client := NewFromCmdable(db)

	key := client.CartKey("missing")
	mock.ExpectGet(key).RedisNil()

	_, err := client.Get(ctx, key)
	if !IsNil(err) {
		t.Fatalf("expected redis.Nil sentinel, got %v", err)
	}
}

func TestKeyNamespacing(t *testing.T) {
	client := &Client{}

	if got := client.SessionKey("sid-1"); got != "sf:session:sid-1" {
		t.Fatalf("unexpected session key %q", got)
	}
	if got := client.CartKey("sid-1"); got != "sf:cart:sid-1" {
		t.Fatalf("unexpected cart key %q", got)
	}
	if got := client.CacheKey("events", "list"); got != "sf:cache:events:list" {
		t.Fatalf("unexpected cache key %q", got)
	}
	if got := client.CacheKey("events", ""); got != "sf:cache:events" {
		t.Fatalf("empty parts should be skipped, got %q", got)
	}
}

func TestUninitializedClientErrors(t *testing.T) {
	var client Client
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
	if _, err := client.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected error from uninitialized client")
	}
}
