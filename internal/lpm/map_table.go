package lpm

import (
	"fmt"

	"github.com/yanet-platform/routegen/common/go/xnetip"
)

// MapTable has the properties of a prefix trie but stores prefixes in maps.
//
// It is an array of maps, where each index corresponds to a mask length,
// plus an extra slot for the default route (/0). A lookup probes every
// mask length from the longest to the shortest, which makes it slow but
// obviously correct, so it serves as an oracle for Table.
type MapTable [MaxBits + 1]map[uint32]uint32

// NewMapTable returns a new MapTable with the specified initial capacity
// per mask length.
func NewMapTable(capacity int) MapTable {
	mt := MapTable{}
	for idx := range mt {
		mt[idx] = make(map[uint32]uint32, capacity)
	}
	return mt
}

// Insert stores the nexthop for the given prefix.
//
// There is no update path: an existing prefix is reported with
// ErrDuplicateKey.
func (m *MapTable) Insert(key PrefixKey, nexthop uint32) error {
	if key.Bits > MaxBits {
		return fmt.Errorf("%w: mask /%d", ErrInvalidKey, key.Bits)
	}
	if _, ok := m[key.Bits][key.Addr]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateKey, key)
	}

	m[key.Bits][key.Addr] = nexthop
	return nil
}

// Lookup searches the MapTable for an entry that matches the longest
// possible prefix.
func (m *MapTable) Lookup(addr uint32) (RouteEntry, bool) {
	for bits := MaxBits; bits >= 0; bits-- {
		network := addr & xnetip.Mask(bits)
		if nexthop, ok := m[bits][network]; ok {
			return RouteEntry{
				Key:     PrefixKey{Addr: network, Bits: uint8(bits)},
				NextHop: nexthop,
			}, true
		}
	}

	return RouteEntry{}, false
}

// Len returns the total number of prefixes stored.
func (m *MapTable) Len() int {
	l := 0
	for idx := range m {
		l += len(m[idx])
	}
	return l
}

// Dump creates a flat map containing all prefixes and their nexthops.
func (m *MapTable) Dump() map[PrefixKey]uint32 {
	out := make(map[PrefixKey]uint32, m.Len())

	for bits := range m {
		for addr, nexthop := range m[bits] {
			out[PrefixKey{Addr: addr, Bits: uint8(bits)}] = nexthop
		}
	}

	return out
}
