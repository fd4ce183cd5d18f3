package ratelimit_test

import (
	"testing"
	"time"

	"github.com/alex-user-go/stayscout/internal/ratelimit"
)

func TestAllow_WithinLimit(t *testing.T) {
	l := ratelimit.New(3, time.Minute)
	defer l.Close()

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Error("request over the limit should be denied")
	}
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	l := ratelimit.New(1, time.Minute)
	defer l.Close()

	if !l.Allow("10.0.0.1") {
		t.Fatal("first caller should be allowed")
	}
	if l.Allow("10.0.0.1") {
		t.Error("first caller should be exhausted")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("second caller must have its own window")
	}
}

func TestAllow_WindowResets(t *testing.T) {
	l := ratelimit.New(1, 20*time.Millisecond)
	defer l.Close()

	if !l.Allow("10.0.0.1") {
		t.Fatal("first request should be allowed")
	}
	if l.Allow("10.0.0.1") {
		t.Fatal("second request in the same window should be denied")
	}

	time.Sleep(30 * time.Millisecond)

	if !l.Allow("10.0.0.1") {
		t.Error("request after the window elapsed should be allowed")
	}
}

func TestAllow_Concurrent(t *testing.T) {
	l := ratelimit.New(50, time.Minute)
	defer l.Close()

	allowed := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		go func() { allowed <- l.Allow("10.0.0.1") }()
	}

	granted := 0
	for i := 0; i < 100; i++ {
		if <-allowed {
			granted++
		}
	}
	if granted != 50 {
		t.Errorf("expected exactly 50 grants, got %d", granted)
	}
}
