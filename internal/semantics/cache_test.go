package semantics

import (
	"sync"
	"testing"
)

func TestCacheGate(t *testing.T) {
	c := NewCache[string, int]()
	calls := 0
	compute := func() int {
		calls++
		return 42
	}
	if v := c.Gate("a", compute); v != 42 {
		t.Fatalf("Gate = %d", v)
	}
	if v := c.Gate("a", compute); v != 42 {
		t.Fatalf("Gate = %d", v)
	}
	if calls != 1 {
		t.Fatalf("compute ran %d times", calls)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d", c.Len())
	}
}

func TestCacheLoopSafeGate(t *testing.T) {
	c := NewCache[int, string]()
	var compute func() string
	depth := 0
	compute = func() string {
		depth++
		if depth > 3 {
			t.Fatal("LoopSafeGate recursed into itself")
		}
		// повторный запрос того же ключа видит заглушку
		inner := c.LoopSafeGate(1, "placeholder", compute)
		return "outer(" + inner + ")"
	}
	if got := c.LoopSafeGate(1, "placeholder", compute); got != "outer(placeholder)" {
		t.Fatalf("LoopSafeGate = %q", got)
	}
	if got, _ := c.Get(1); got != "outer(placeholder)" {
		t.Fatalf("stored = %q", got)
	}
}

func TestCacheConcurrentGate(t *testing.T) {
	c := NewCache[int, int]()
	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if v := c.Gate(i%4, func() int { return i % 4 }); v != i%4 {
				t.Errorf("Gate(%d) = %d", i%4, v)
			}
		}()
	}
	wg.Wait()
	if c.Len() != 4 {
		t.Fatalf("Len = %d", c.Len())
	}
}
