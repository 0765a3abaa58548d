package lpm

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapTableInsert(t *testing.T) {
	cases := []struct {
		prefix      string
		expectedIdx int
	}{
		{"192.168.9.1/16", 0},
		{"192.168.9.1/24", 1},
		{"192.168.18.0/8", 0},
	}
	mt := NewMapTable(0)
	for idx, c := range cases {
		key := mustKey(t, c.prefix)
		expected := mustKey(t, cases[c.expectedIdx].prefix)

		require.NoError(t, mt.Insert(key, uint32(idx)))
		addr := mustAddr(t, netip.MustParsePrefix(c.prefix).Addr().String())
		entry, ok := mt.Lookup(addr)
		require.True(t, ok, "lookup %s, expected %s", key, expected)
		require.Equal(t, expected, entry.Key)
	}
	require.Equal(t, len(cases), mt.Len())
}

func TestMapTableDuplicate(t *testing.T) {
	mt := NewMapTable(0)
	key := mustKey(t, "10.0.0.0/8")
	require.NoError(t, mt.Insert(key, 1))
	require.ErrorIs(t, mt.Insert(key, 2), ErrDuplicateKey)
	require.ErrorIs(t, mt.Insert(PrefixKey{Bits: 40}, 2), ErrInvalidKey)

	require.Equal(t, map[PrefixKey]uint32{key: 1}, mt.Dump())
}

func TestMapTableDefaultRoute(t *testing.T) {
	mt := NewMapTable(0)
	require.NoError(t, mt.Insert(mustKey(t, "0.0.0.0/0"), 8))

	entry, ok := mt.Lookup(mustAddr(t, "203.0.113.7"))
	require.True(t, ok)
	require.Equal(t, uint32(8), entry.NextHop)
	require.Equal(t, uint8(0), entry.Key.Bits)
}
