package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type noScriptError struct{}

func (noScriptError) Error() string { return "NOSCRIPT No matching script. Please use EVAL." }
func (noScriptError) RedisError() {}

// fakeScripter runs the hit script against in-memory counters. EvalSha
// answers NOSCRIPT until the script was sent once with Eval.
type fakeScripter struct {
	counts map[string]int64
	ttls   map[string]time.Duration
	loaded bool
	err    error
}

func newFakeScripter() *fakeScripter {
	return &fakeScripter{counts: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (f *fakeScripter) hit(keys []string, args []interface{}) *redis.Cmd {
	if f.err != nil {
		return redis.NewCmdResult(nil, f.err)
	}
	key := keys[0]
	f.counts[key]++
	if _, ok := f.ttls[key]; !ok {
		f.ttls[key] = time.Duration(args[0].(int64)) * time.Millisecond
	}
	return redis.NewCmdResult(f.counts[key], nil)
}

func (f *fakeScripter) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	f.loaded = true
	return f.hit(keys, args)
}

func (f *fakeScripter) EvalSha(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	if !f.loaded {
		return redis.NewCmdResult(nil, noScriptError{})
	}
	return f.hit(keys, args)
}

func (f *fakeScripter) EvalRO(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	return f.Eval(ctx, script, keys, args...)
}

func (f *fakeScripter) EvalShaRO(ctx context.Context, sha1 string, keys []string, args ...interface{}) *redis.Cmd {
	return f.EvalSha(ctx, sha1, keys, args...)
}

func (f *fakeScripter) ScriptExists(ctx context.Context, hashes ...string) *redis.BoolSliceCmd {
	return redis.NewBoolSliceResult([]bool{f.loaded}, nil)
}

func (f *fakeScripter) ScriptLoad(ctx context.Context, script string) *redis.StringCmd {
	f.loaded = true
	return redis.NewStringResult("sha", nil)
}

func TestAllowWithinLimit(t *testing.T) {
	scripter := newFakeScripter()
	limiter := New(scripter, "contact", 3, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		ok, err := limiter.Allow(ctx, "10.0.0.1")
		if err != nil || !ok {
			t.Fatalf("hit %d: Allow = %v, %v, want true", i, ok, err)
		}
	}
	ok, err := limiter.Allow(ctx, "10.0.0.1")
	if err != nil || ok {
		t.Fatalf("hit 4: Allow = %v, %v, want false", ok, err)
	}

	ok, err = limiter.Allow(ctx, "10.0.0.2")
	if err != nil || !ok {
		t.Fatalf("other key: Allow = %v, %v, want true", ok, err)
	}

	if got := scripter.ttls["ratelimit:contact:10.0.0.1"]; got != time.Minute {
		t.Fatalf("ttl = %v, want %v", got, time.Minute)
	}
}

func TestAllowRestoresMissingTTL(t *testing.T) {
	scripter := newFakeScripter()
	// a counter left without a TTL, e.g. by an interrupted write
	scripter.counts["ratelimit:login:10.0.0.1"] = 40

	ok, err := New(scripter, "login", 10, 15*time.Minute).Allow(context.Background(), "10.0.0.1")
	if err != nil || ok {
		t.Fatalf("Allow = %v, %v, want false", ok, err)
	}
	if got := scripter.ttls["ratelimit:login:10.0.0.1"]; got != 15*time.Minute {
		t.Fatalf("ttl = %v, want %v", got, 15*time.Minute)
	}
}

func TestAllowFailureLeavesNoCount(t *testing.T) {
	scripter := newFakeScripter()
	scripter.err = errors.New("i/o timeout")
	limiter := New(scripter, "contact", 1, time.Minute)

	if _, err := limiter.Allow(context.Background(), "k"); err == nil {
		t.Fatal("expected error")
	}
	if len(scripter.counts) != 0 || len(scripter.ttls) != 0 {
		t.Fatalf("failed hit changed state: counts=%v ttls=%v", scripter.counts, scripter.ttls)
	}

	scripter.err = nil
	ok, err := limiter.Allow(context.Background(), "k")
	if err != nil || !ok {
		t.Fatalf("Allow after recovery = %v, %v, want true", ok, err)
	}
}

func TestNewRedisClient(t *testing.T) {
	client, err := NewRedisClient(map[string]string{})
	if err != nil || client != nil {
		t.Fatalf("NewRedisClient(empty) = %v, %v, want nil, nil", client, err)
	}

	client, err = NewRedisClient(map[string]string{"REDIS_URL": "redis://localhost:6379/2"})
	if err != nil {
		t.Fatalf("NewRedisClient: %v", err)
	}
	defer client.Close()
	if client.Options().DB != 2 {
		t.Fatalf("DB = %d, want 2", client.Options().DB)
	}

	if _, err := NewRedisClient(map[string]string{"REDIS_URL": "://bad"}); err == nil {
		t.Fatal("expected error for invalid url")
	}
}
