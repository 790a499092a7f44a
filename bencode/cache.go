package bencode

import "unicode/utf8"

// defaultCacheBudget bounds the intern cache cost (1 MiB).
const defaultCacheBudget = 1 << 20

// stringCache interns decoded text keyed by raw byte-string contents,
// so repeated byte strings in one session decode to one shared string.
//
// Keys are owned copies of the raw bytes: the string(raw) conversion
// allocates, so a key can never alias the decoder's scratch buffer.
// Entries are charged len(raw) plus two bytes per decoded character
// and evicted least-recently-used once the total exceeds the budget.
type stringCache struct {
	entries map[string]*cacheEntry
	head    *cacheEntry // most recently used
	tail    *cacheEntry // least recently used
	budget  int
	cost    int
}

type cacheEntry struct {
	key  string // owned copy of the raw bytes
	text string
	cost int

	prev, next *cacheEntry
}

func newStringCache(budget int) *stringCache {
	return &stringCache{
		entries: make(map[string]*cacheEntry),
		budget:  budget,
	}
}

// lookup returns the interned text for raw, refreshing its recency.
func (c *stringCache) lookup(raw []byte) (string, bool) {
	e, ok := c.entries[string(raw)]
	if !ok {
		return "", false
	}
	c.moveToFront(e)
	return e.text, true
}

// store interns text under an owned copy of raw.
func (c *stringCache) store(raw []byte, text string) {
	if e, ok := c.entries[string(raw)]; ok {
		c.moveToFront(e)
		return
	}
	cost := len(raw) + 2*utf8.RuneCountInString(text)
	if cost > c.budget {
		return
	}
	key := string(raw)
	e := &cacheEntry{key: key, text: text, cost: cost}
	c.entries[key] = e
	c.pushFront(e)
	c.cost += cost
	for c.cost > c.budget {
		c.evictOldest()
	}
}

func (c *stringCache) len() int {
	return len(c.entries)
}

func (c *stringCache) pushFront(e *cacheEntry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *stringCache) unlink(e *cacheEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev = nil
	e.next = nil
}

func (c *stringCache) moveToFront(e *cacheEntry) {
	if c.head == e {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *stringCache) evictOldest() {
	e := c.tail
	if e == nil {
		return
	}
	c.unlink(e)
	delete(c.entries, e.key)
	c.cost -= e.cost
}

// ============================================================
// Session interning
// ============================================================

// Interner carries the intern cache across multiple decode calls of
// one session, so byte strings repeated across consecutive messages
// share their decoded text. By default every call builds a fresh cache;
// pass an Interner through DecodeOptions to persist one instead.
//
// An Interner is not safe for concurrent use: it belongs to exactly one
// sequence of calls at a time.
type Interner struct {
	cache *stringCache
}

// NewInterner creates an interner with the given cost budget.
// A budget of 0 or less selects the default (1 MiB).
func NewInterner(budget int) *Interner {
	if budget <= 0 {
		budget = defaultCacheBudget
	}
	return &Interner{cache: newStringCache(budget)}
}

// Len returns the number of interned strings.
func (in *Interner) Len() int {
	return in.cache.len()
}

// Cost returns the accounted cost of the interned strings.
func (in *Interner) Cost() int {
	return in.cache.cost
}
