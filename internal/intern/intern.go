package intern

import (
	"fmt"
	"sync"
)

// Table interns values of type V. It must not be copied after creation.
type Table[V any] struct {
	mu        sync.Mutex
	buckets   map[uint64][]*entry[V]
	equal     func(a, b V) bool
	softLimit int
	tick      int64 // Monotonic access counter
	count     int
	hits      uint64
	misses    uint64
	evictions uint64
}

// entry holds an interned value with its access time.
type entry[V any] struct {
	value V
	atime int64
}

// New creates a Table comparing values with equal. A softLimit of 0 means
// unlimited.
func New[V any](equal func(a, b V) bool, softLimit int) *Table[V] {
	if equal == nil {
		panic("intern: New equal is nil")
	}
	return &Table[V]{
		buckets:   make(map[uint64][]*entry[V]),
		equal:     equal,
		softLimit: max(softLimit, 0),
	}
}

// Intern returns the canonical value equal to v, and true if one was
// already present. Otherwise v becomes canonical and is returned with
// false.
func (t *Table[V]) Intern(hash uint64, v V) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.tick++
	if e := t.find(hash, v); e != nil {
		e.atime = t.tick
		t.hits++
		return e.value, true
	}

	t.misses++
	t.buckets[hash] = append(t.buckets[hash], &entry[V]{value: v, atime: t.tick})
	t.count++
	if t.softLimit > 0 && t.count > t.softLimit {
		t.evictOldest()
	}
	return v, false
}

// Lookup returns the canonical value equal to v without inserting it.
func (t *Table[V]) Lookup(hash uint64, v V) (V, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if e := t.find(hash, v); e != nil {
		t.tick++
		e.atime = t.tick
		return e.value, true
	}
	var zero V
	return zero, false
}

// Delete removes the value equal to v. It returns true if one was found.
func (t *Table[V]) Delete(hash uint64, v V) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	bucket := t.buckets[hash]
	for i, e := range bucket {
		if t.equal(e.value, v) {
			t.removeAt(hash, i)
			return true
		}
	}
	return false
}

// Clear removes all entries. Counters are kept.
func (t *Table[V]) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.buckets = make(map[uint64][]*entry[V])
	t.count = 0
	t.tick = 0
}

// Len returns the number of interned values.
func (t *Table[V]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Stats returns table statistics.
func (t *Table[V]) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Stats{
		Len:       t.count,
		Buckets:   len(t.buckets),
		Capacity:  t.softLimit,
		Hits:      t.hits,
		Misses:    t.misses,
		Evictions: t.evictions,
	}
}

// find returns the entry equal to v. Caller must hold t.mu.
func (t *Table[V]) find(hash uint64, v V) *entry[V] {
	for _, e := range t.buckets[hash] {
		if t.equal(e.value, v) {
			return e
		}
	}
	return nil
}

// removeAt drops entry i of a bucket. Caller must hold t.mu.
func (t *Table[V]) removeAt(hash uint64, i int) {
	bucket := t.buckets[hash]
	last := len(bucket) - 1
	bucket[i] = bucket[last]
	bucket[last] = nil
	if last == 0 {
		delete(t.buckets, hash)
	} else {
		t.buckets[hash] = bucket[:last]
	}
	t.count--
}

// evictOldest removes entries until the table is at 3/4 of its soft limit.
// Caller must hold t.mu.
func (t *Table[V]) evictOldest() {
	targetSize := max(t.softLimit*3/4, 1)
	toEvict := t.count - targetSize
	if toEvict <= 0 {
		return
	}

	type victim struct {
		hash  uint64
		entry *entry[V]
	}
	all := make([]victim, 0, t.count)
	for hash, bucket := range t.buckets {
		for _, e := range bucket {
			all = append(all, victim{hash: hash, entry: e})
		}
	}

	// Selection of the oldest toEvict entries; batches are small.
	for i := 0; i < toEvict; i++ {
		minIdx := i
		for j := i + 1; j < len(all); j++ {
			if all[j].entry.atime < all[minIdx].entry.atime {
				minIdx = j
			}
		}
		all[i], all[minIdx] = all[minIdx], all[i]

		bucket := t.buckets[all[i].hash]
		for k, e := range bucket {
			if e == all[i].entry {
				t.removeAt(all[i].hash, k)
				break
			}
		}
		t.evictions++
	}
}

// Stats contains table statistics.
type Stats struct {
	// Len is the number of interned values.
	Len int
	// Buckets is the number of distinct hashes.
	Buckets int
	// Capacity is the soft limit, 0 for unlimited.
	Capacity int
	// Hits counts Intern calls that found a canonical value.
	Hits uint64
	// Misses counts Intern calls that inserted their value.
	Misses uint64
	// Evictions counts values dropped by the soft limit.
	Evictions uint64
}

// HitRate returns the fraction of Intern calls that were hits.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("Intern[%d values, %d buckets, %.1f%% hits, %d evictions]",
		s.Len, s.Buckets, s.HitRate()*100, s.Evictions)
}
