package lpm

import (
	"fmt"
	"iter"
	"slices"
)

// levels is the depth of the trie: one level per address byte.
const levels = MaxBits / 8

// node is a single trie level.
//
// The bucket holds entries whose mask length falls into this level, i.e.
// entries that can not be split further by the next address byte.
type node struct {
	bucket []RouteEntry
	// children holds arena indices of the next level nodes, indexed by the
	// next address byte. Zero means no child, since the root is never a
	// child of anything. Allocated on first use.
	children *[256]uint32
}

// Table is an IPv4 longest-prefix-match table.
//
// Entries are organized into a 4-level trie keyed by the address bytes,
// most-significant first. Each trie node keeps a flat bucket of entries
// whose mask ends within its level, so a lookup visits at most four
// buckets regardless of the table size.
//
// The table is not safe for concurrent use.
type Table struct {
	// nodes is the arena of trie nodes, nodes[0] is the root.
	nodes []node
	// keys is the deduplication set.
	keys map[PrefixKey]struct{}
	// roster keeps entries in insertion order.
	roster []RouteEntry
}

// NewTable returns an empty table with room for the given number of
// entries.
func NewTable(capacity int) *Table {
	return &Table{
		nodes:  make([]node, 1, 1+capacity/8),
		keys:   make(map[PrefixKey]struct{}, capacity),
		roster: make([]RouteEntry, 0, capacity),
	}
}

// levelOf returns the trie level whose bucket stores prefixes with the
// given mask length.
func levelOf(bits uint8) int {
	if bits == 0 {
		return 0
	}
	return (int(bits) - 1) / 8
}

// addrByte returns the address byte used to descend from the given level.
func addrByte(addr uint32, level int) uint8 {
	return uint8(addr >> (24 - 8*level))
}

// Insert stores a new entry.
//
// The key must already be normalized, the table does not clear host bits.
// Inserting a key that is already present fails with ErrDuplicateKey and
// leaves the table unchanged.
func (m *Table) Insert(key PrefixKey, nexthop uint32) error {
	if key.Bits > MaxBits {
		return fmt.Errorf("%w: mask /%d", ErrInvalidKey, key.Bits)
	}
	if _, ok := m.keys[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}

	entry := RouteEntry{Key: key, NextHop: nexthop}

	idx := uint32(0)
	target := levelOf(key.Bits)
	for level := range target {
		idx = m.child(idx, addrByte(key.Addr, level))
	}
	m.nodes[idx].bucket = append(m.nodes[idx].bucket, entry)

	m.keys[key] = struct{}{}
	m.roster = append(m.roster, entry)
	return nil
}

// child returns the child of the given node for the address byte, creating
// it if needed.
func (m *Table) child(idx uint32, b uint8) uint32 {
	if m.nodes[idx].children == nil {
		m.nodes[idx].children = new([256]uint32)
	}
	if next := m.nodes[idx].children[b]; next != 0 {
		return next
	}

	next := uint32(len(m.nodes))
	m.nodes = append(m.nodes, node{})
	m.nodes[idx].children[b] = next
	return next
}

// Lookup returns the entry with the longest mask covering addr.
//
// The trie is descended by the address bytes; every visited bucket is
// scanned for covering entries. A missing child stops the descent and the
// best entry found so far is returned. The second return value is false
// when nothing covers the address.
func (m *Table) Lookup(addr uint32) (RouteEntry, bool) {
	var best RouteEntry
	found := false

	idx := uint32(0)
	for level := range levels {
		n := &m.nodes[idx]
		for _, entry := range n.bucket {
			if found && entry.Key.Bits <= best.Key.Bits {
				continue
			}
			if entry.Key.Contains(addr) {
				best, found = entry, true
			}
		}

		if n.children == nil {
			break
		}
		next := n.children[addrByte(addr, level)]
		if next == 0 {
			break
		}
		idx = next
	}

	return best, found
}

// Matches returns all entries covering addr.
//
// The returned slice is sorted from the longest to the shortest prefix.
// It returns an empty slice if there are no matches.
func (m *Table) Matches(addr uint32) []RouteEntry {
	matches := []RouteEntry{}

	idx := uint32(0)
	for level := range levels {
		n := &m.nodes[idx]
		for _, entry := range n.bucket {
			if entry.Key.Contains(addr) {
				matches = append(matches, entry)
			}
		}

		if n.children == nil || n.children[addrByte(addr, level)] == 0 {
			break
		}
		idx = n.children[addrByte(addr, level)]
	}

	slices.SortFunc(matches, func(a, b RouteEntry) int {
		return int(b.Key.Bits) - int(a.Key.Bits)
	})

	return matches
}

// Contains reports whether the key was inserted.
func (m *Table) Contains(key PrefixKey) bool {
	_, ok := m.keys[key]
	return ok
}

// Len returns the number of entries.
func (m *Table) Len() int {
	return len(m.roster)
}

// At returns the i-th inserted entry.
func (m *Table) At(i int) RouteEntry {
	return m.roster[i]
}

// All iterates over the entries in insertion order.
func (m *Table) All() iter.Seq[RouteEntry] {
	return func(yield func(RouteEntry) bool) {
		for _, entry := range m.roster {
			if !yield(entry) {
				return
			}
		}
	}
}

// Nodes returns the number of allocated trie nodes, the root included.
func (m *Table) Nodes() int {
	return len(m.nodes)
}
