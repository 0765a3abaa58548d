package lpm

import (
	"fmt"
	"net/netip"

	"github.com/yanet-platform/routegen/common/go/xnetip"
)

// MaxBits is the length of an IPv4 address in bits.
const MaxBits = 32

// PrefixKey identifies an IPv4 network by its address and mask length.
//
// The address must have all bits below the mask cleared. Keys with the
// same address but different masks are distinct.
type PrefixKey struct {
	// Addr is the network address in host byte order.
	Addr uint32
	// Bits is the mask length, 0 meaning the default route.
	Bits uint8
}

// NewPrefixKey returns a normalized key, clearing the host bits of addr.
func NewPrefixKey(addr uint32, bits uint8) PrefixKey {
	return PrefixKey{
		Addr: addr & xnetip.Mask(int(bits)),
		Bits: bits,
	}
}

// PrefixKeyFrom converts a netip.Prefix into a normalized key.
func PrefixKeyFrom(prefix netip.Prefix) (PrefixKey, error) {
	if !prefix.IsValid() {
		return PrefixKey{}, fmt.Errorf("%w: invalid prefix %s", ErrInvalidKey, prefix)
	}

	addr, err := xnetip.Uint32(prefix.Addr())
	if err != nil {
		return PrefixKey{}, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	bits := prefix.Bits()
	if prefix.Addr().Is4In6() {
		bits -= 96
	}
	if bits < 0 || bits > MaxBits {
		return PrefixKey{}, fmt.Errorf("%w: mask /%d out of range", ErrInvalidKey, bits)
	}

	return NewPrefixKey(addr, uint8(bits)), nil
}

// Valid reports whether the key has a mask within range and no host bits
// set.
func (m PrefixKey) Valid() bool {
	return m.Bits <= MaxBits && m.Addr&xnetip.HostMask(int(m.Bits)) == 0
}

// Netmask returns the mask as a 32-bit value.
func (m PrefixKey) Netmask() uint32 {
	return xnetip.Mask(int(m.Bits))
}

// Contains reports whether addr belongs to the network.
func (m PrefixKey) Contains(addr uint32) bool {
	return addr&m.Netmask() == m.Addr
}

// Prefix returns the key as netip.Prefix.
func (m PrefixKey) Prefix() netip.Prefix {
	return netip.PrefixFrom(xnetip.AddrFromUint32(m.Addr), int(m.Bits))
}

func (m PrefixKey) String() string {
	return fmt.Sprintf("%s/%d", xnetip.FormatUint32(m.Addr), m.Bits)
}

// RouteEntry is a prefix together with its nexthop.
type RouteEntry struct {
	Key     PrefixKey
	NextHop uint32
}

func (m RouteEntry) String() string {
	return fmt.Sprintf("%s -> %s", m.Key, xnetip.FormatUint32(m.NextHop))
}
