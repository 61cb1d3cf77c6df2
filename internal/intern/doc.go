// Package intern provides a hash-keyed interning table.
//
// A Table maps values to a canonical instance. Values are bucketed by a
// caller supplied 64-bit content hash and compared with a caller supplied
// equality function inside a bucket, so hash collisions never merge
// distinct values:
//
//	formats := intern.New(func(a, b *resource.Format) bool { return a.Equal(b) }, 256)
//	canonical, hit := formats.Intern(f.Hash(), f)
//
// The table has a soft limit. When it is exceeded the least recently used
// quarter of the entries is dropped; a dropped value simply stops being
// canonical, later lookups intern a new instance.
//
// Table is safe for concurrent use.
package intern
