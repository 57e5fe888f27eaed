package cache

import (
	"testing"
	"time"
)

func TestGetMissing(t *testing.T) {
	c := New[string](4, time.Minute)

	if v, ok := c.Get("absent"); ok || v != "" {
		t.Errorf("Get() = %q, %v, want miss", v, ok)
	}
}

func TestSetAndGet(t *testing.T) {
	c := New[int](4, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v", v, ok)
	}
	if v, ok := c.Get("b"); !ok || v != 2 {
		t.Errorf("Get(b) = %d, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestSetOverwrites(t *testing.T) {
	c := New[int](4, time.Minute)

	c.Set("a", 1)
	c.Set("a", 9)
	if v, _ := c.Get("a"); v != 9 {
		t.Errorf("Get(a) = %d, want 9", v)
	}
	if c.Size() != 1 {
		t.Errorf("Size() = %d, want 1", c.Size())
	}
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a") // a is now fresher than b
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b survived eviction, want it dropped as least recently used")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a was evicted despite recent use")
	}
	if _, ok := c.Get("c"); !ok {
		t.Error("c missing right after Set")
	}
}

func TestExpiry(t *testing.T) {
	c := New[int](4, 10*time.Millisecond)

	c.Set("a", 1)
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Error("Get() returned an expired entry")
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d after expired read, want 0", c.Size())
	}
}

func TestDelete(t *testing.T) {
	c := New[int](4, time.Minute)

	c.Set("a", 1)
	c.Delete("a")
	c.Delete("absent") // no-op
	if _, ok := c.Get("a"); ok {
		t.Error("a readable after Delete")
	}
}
