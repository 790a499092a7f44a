package bencode

import "testing"

func TestCacheStoreLookup(t *testing.T) {
	c := newStringCache(1024)
	if _, ok := c.lookup([]byte("spam")); ok {
		t.Fatal("lookup hit on empty cache")
	}
	c.store([]byte("spam"), "spam")
	got, ok := c.lookup([]byte("spam"))
	if !ok || got != "spam" {
		t.Errorf("lookup = %q, %v", got, ok)
	}
	if c.len() != 1 {
		t.Errorf("len = %d, want 1", c.len())
	}
}

func TestCacheCostAccounting(t *testing.T) {
	c := newStringCache(1024)
	// 4 raw bytes plus 2 per decoded character.
	c.store([]byte("spam"), "spam")
	if c.cost != 12 {
		t.Errorf("cost = %d, want 12", c.cost)
	}
	// Multibyte text is charged per character, not per byte.
	c.store([]byte("caf\xe9"), "café")
	if c.cost != 12+4+2*4 {
		t.Errorf("cost = %d, want 24", c.cost)
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := newStringCache(30)
	c.store([]byte("spam"), "spam") // cost 12
	c.store([]byte("eggs"), "eggs") // cost 12

	// Touch spam so eggs becomes the eviction candidate.
	if _, ok := c.lookup([]byte("spam")); !ok {
		t.Fatal("spam missing")
	}
	c.store([]byte("toast"), "toast") // cost 15, budget overflows

	if _, ok := c.lookup([]byte("eggs")); ok {
		t.Error("eggs survived, want it evicted")
	}
	if _, ok := c.lookup([]byte("spam")); !ok {
		t.Error("spam evicted, want it kept")
	}
	if _, ok := c.lookup([]byte("toast")); !ok {
		t.Error("toast missing")
	}
	if c.cost != 27 {
		t.Errorf("cost = %d, want 27", c.cost)
	}
}

func TestCacheRejectsOversizedEntry(t *testing.T) {
	c := newStringCache(10)
	c.store([]byte("a very long byte string"), "a very long byte string")
	if c.len() != 0 {
		t.Error("entry above the whole budget was stored")
	}
	// Small entries still fit.
	c.store([]byte("ab"), "ab")
	if c.len() != 1 {
		t.Error("small entry rejected")
	}
}

func TestCacheDuplicateStore(t *testing.T) {
	c := newStringCache(1024)
	c.store([]byte("spam"), "spam")
	c.store([]byte("spam"), "spam")
	if c.len() != 1 || c.cost != 12 {
		t.Errorf("len = %d cost = %d, want 1 and 12", c.len(), c.cost)
	}
}

func TestInternerDefaultBudget(t *testing.T) {
	in := NewInterner(0)
	if in.cache.budget != defaultCacheBudget {
		t.Errorf("budget = %d, want %d", in.cache.budget, defaultCacheBudget)
	}
	if in.Len() != 0 || in.Cost() != 0 {
		t.Errorf("fresh interner reports %d entries, cost %d", in.Len(), in.Cost())
	}
}
