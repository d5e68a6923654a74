package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.CheckoutSessionKey("sess-1"); got != "bc:checkout_session:sess-1" {
		t.Fatalf("unexpected checkout session key %s", got)
	}
	if got := client.UserSessionsKey("user-1"); got != "bc:checkout_user_sessions:user-1" {
		t.Fatalf("unexpected user sessions key %s", got)
	}
	if got := client.ReconcileLeaseKey("txn-1"); got != "bc:payment_reconcile:txn-1" {
		t.Fatalf("unexpected reconcile lease key %s", got)
	}
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if err := client.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	got, err := client.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != "v" {
		t.Fatalf("expected stored value, got %q", got)
	}

	if err := client.Del(ctx, "k"); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	if _, err := client.Get(ctx, "k"); err != redis.Nil {
		t.Fatalf("expected redis.Nil after delete, got %v", err)
	}
}

func TestSetNX(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	ok, err := client.SetNX(ctx, "lease", "holder-1", time.Minute)
	if err != nil {
		t.Fatalf("setnx failed: %v", err)
	}
	if !ok {
		t.Fatal("expected first setnx to win")
	}

	ok, err = client.SetNX(ctx, "lease", "holder-2", time.Minute)
	if err != nil {
		t.Fatalf("setnx failed: %v", err)
	}
	if ok {
		t.Fatal("expected second setnx to lose")
	}
}

func TestPushCappedTrimsAndExpires(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	for i := 0; i < 7; i++ {
		if err := client.PushCapped(ctx, "sessions", fmt.Sprintf("s%d", i), 5, time.Minute); err != nil {
			t.Fatalf("push failed: %v", err)
		}
	}

	values, err := client.ListRange(ctx, "sessions")
	if err != nil {
		t.Fatalf("range failed: %v", err)
	}
	if len(values) != 5 {
		t.Fatalf("expected list capped at 5, got %d", len(values))
	}
	if values[0] != "s6" {
		t.Fatalf("expected newest entry first, got %q", values[0])
	}
	if len(mock.expireCalls) != 7 {
		t.Fatalf("expected ttl refreshed on every push, got %d", len(mock.expireCalls))
	}
}

type mockCmdable struct {
	data        map[string]string
	lists       map[string][]string
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data:  make(map[string]string),
		lists: make(map[string][]string),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
		delete(m.lists, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func (m *mockCmdable) LPush(ctx context.Context, key string, values ...any) *redis.IntCmd {
	for _, v := range values {
		m.lists[key] = append([]string{fmt.Sprint(v)}, m.lists[key]...)
	}
	return redis.NewIntResult(int64(len(m.lists[key])), nil)
}

func (m *mockCmdable) LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd {
	list := m.lists[key]
	if start < 0 {
		start = 0
	}
	if stop >= int64(len(list)) {
		stop = int64(len(list)) - 1
	}
	if start > stop {
		m.lists[key] = nil
	} else {
		m.lists[key] = list[start : stop+1]
	}
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	list := m.lists[key]
	if start < 0 {
		start = 0
	}
	if stop < 0 || stop >= int64(len(list)) {
		stop = int64(len(list)) - 1
	}
	if start > stop {
		return redis.NewStringSliceResult(nil, nil)
	}
	out := make([]string, stop-start+1)
	copy(out, list[start:stop+1])
	return redis.NewStringSliceResult(out, nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}
