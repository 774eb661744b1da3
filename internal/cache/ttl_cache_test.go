package cache

import (
	"errors"
	"testing"
	"time"
)

func TestGetOrLoadCachesSuccess(t *testing.T) {
	c := NewTTLCache[string, int]()
	calls := 0
	load := func() (int, error) {
		calls++
		return 42, nil
	}

	v, cached, err := c.GetOrLoad("k", 0, load)
	if err != nil || cached || v != 42 {
		t.Fatalf("first load: v=%d cached=%v err=%v", v, cached, err)
	}
	v, cached, err = c.GetOrLoad("k", 0, load)
	if err != nil || !cached || v != 42 {
		t.Fatalf("second load: v=%d cached=%v err=%v", v, cached, err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 loader call, got %d", calls)
	}
}

func TestGetOrLoadDoesNotCacheFailure(t *testing.T) {
	c := NewTTLCache[string, int]()
	boom := errors.New("boom")
	calls := 0
	load := func() (int, error) {
		calls++
		return 0, boom
	}

	if _, _, err := c.GetOrLoad("k", 0, load); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, _, err := c.GetOrLoad("k", 0, load); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected failed loads to retry, got %d calls", calls)
	}
}

func TestExpiry(t *testing.T) {
	c := NewTTLCache[string, string]()
	c.Set("k", "v", time.Nanosecond)
	time.Sleep(2 * time.Millisecond)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected expired entry")
	}
}
