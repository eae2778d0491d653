package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestLimiterSlidingWindow(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()
	limiter := Limiter{Client: client, Prefix: "test:"}

	ctx := context.Background()
	window := 2 * time.Second
	max := 2

	for i := 0; i < max; i++ {
		dec, err := limiter.Allow(ctx, "producer:abc", window, max)
		if err != nil {
			t.Fatalf("allow: %v", err)
		}
		if !dec.Allowed {
			t.Fatalf("expected request %d to be allowed", i)
		}
		if dec.Remaining != max-(i+1) {
			t.Fatalf("unexpected remaining: %d", dec.Remaining)
		}
	}

	dec, err := limiter.Allow(ctx, "producer:abc", window, max)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if dec.Allowed {
		t.Fatal("expected third request to be rejected")
	}
	if dec.Remaining != 0 {
		t.Fatalf("expected remaining 0, got %d", dec.Remaining)
	}

	mr.FastForward(window)

	dec, err = limiter.Allow(ctx, "producer:abc", window, max)
	if err != nil {
		t.Fatalf("allow after window: %v", err)
	}
	if !dec.Allowed {
		t.Fatal("expected request after window to be allowed")
	}
}

func TestLimiterDisabledWithoutClient(t *testing.T) {
	dec, err := Limiter{}.Allow(context.Background(), "any", time.Second, 5)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if !dec.Allowed || dec.Remaining != 5 {
		t.Fatalf("expected pass-through decision, got %+v", dec)
	}
}
