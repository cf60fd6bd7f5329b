package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/hyperifyio/goextract/internal/tree"
)

const (
	// DefaultCapacity bounds the number of distinct hashes kept in memory.
	DefaultCapacity = 4096
	// DefaultRepetitionLimit is the number of sightings allowed before a
	// fragment counts as duplicate.
	DefaultRepetitionLimit = 1
	// DefaultMinCheckSize skips fragments too short to be meaningful repeats.
	DefaultMinCheckSize = 100

	// minKeyTokenLen drops single-rune tokens from node keys.
	minKeyTokenLen = 2
	docKeyPrefix   = "doc\x00"
)

// Dedup is a bounded least-recently-used set of content hashes with a
// saturating occurrence counter. It is safe for concurrent use; each
// lookup-or-insert runs in a single critical section.
type Dedup struct {
	mu       sync.Mutex
	capacity int
	limit    int
	minSize  int
	list     *list.List               // front = most recent
	items    map[string]*list.Element // key -> element
}

type dedupEntry struct {
	key   string
	count int
}

// NewDedup builds a cache holding at most capacity hashes. A fragment is a
// duplicate once it has been seen limit times; fragments shorter than minSize
// runes are never tracked. Non-positive capacity or limit and a negative
// minSize select the defaults.
func NewDedup(capacity, limit, minSize int) *Dedup {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if limit <= 0 {
		limit = DefaultRepetitionLimit
	}
	if minSize < 0 {
		minSize = DefaultMinCheckSize
	}
	return &Dedup{
		capacity: capacity,
		limit:    limit,
		minSize:  minSize,
		list:     list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Test records a sighting of text and reports whether it is a duplicate.
// The first sighting inserts the hash with count 1, later sightings count up
// to the repetition limit, and any sighting at the limit is a duplicate and
// leaves the counter unchanged.
func (d *Dedup) Test(text string) bool {
	key, ok := d.key(text)
	if !ok {
		return false
	}
	return d.observe(key)
}

// TestNode runs Test over the visible text of n.
func (d *Dedup) TestNode(n *tree.Node) bool {
	if n == nil {
		return false
	}
	return d.Test(n.IterText(" "))
}

// TestDocument is Test for whole document bodies. Document keys live apart
// from fragment keys so a one-paragraph document does not collide with its
// own paragraph.
func (d *Dedup) TestDocument(text string) bool {
	key, ok := d.key(text)
	if !ok {
		return false
	}
	return d.observe(docKeyPrefix + key)
}

// Count returns the recorded sightings of text without touching recency.
func (d *Dedup) Count(text string) int {
	key, ok := d.key(text)
	if !ok {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.items[key]; ok {
		return el.Value.(*dedupEntry).count
	}
	return 0
}

// Len returns the number of live entries.
func (d *Dedup) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.list.Len()
}

// Clear drops every entry.
func (d *Dedup) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.list.Init()
	d.items = make(map[string]*list.Element, d.capacity)
}

func (d *Dedup) key(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < d.minSize {
		return "", false
	}
	norm := strings.Join(tokens(text, minKeyTokenLen), " ")
	if norm == "" {
		return "", false
	}
	h := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(h[:]), true
}

func (d *Dedup) observe(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.items[key]; ok {
		d.list.MoveToFront(el)
		ent := el.Value.(*dedupEntry)
		if ent.count >= d.limit {
			return true
		}
		ent.count++
		return false
	}
	d.items[key] = d.list.PushFront(&dedupEntry{key: key, count: 1})
	if d.list.Len() > d.capacity {
		if lru := d.list.Back(); lru != nil {
			delete(d.items, lru.Value.(*dedupEntry).key)
			d.list.Remove(lru)
		}
	}
	return false
}
