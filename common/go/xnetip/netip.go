package xnetip

import (
	"encoding/binary"
	"fmt"
	"net/netip"
)

// Mask returns the IPv4 netmask with the given number of leading ones.
//
// Bits greater than 32 are clamped to a host mask.
func Mask(bits int) uint32 {
	if bits <= 0 {
		return 0
	}
	if bits >= 32 {
		return 0xffffffff
	}

	return 0xffffffff << (32 - bits)
}

// HostMask returns the wildcard part of the netmask, i.e. the bits that
// are free to vary inside a prefix of the given length.
func HostMask(bits int) uint32 {
	return ^Mask(bits)
}

// AddrFromUint32 converts a host-order IPv4 value into netip.Addr.
func AddrFromUint32(v uint32) netip.Addr {
	b := [4]byte{}
	binary.BigEndian.PutUint32(b[:], v)
	return netip.AddrFrom4(b)
}

// Uint32 converts an IPv4 (or IPv4-mapped IPv6) address into its
// host-order value.
func Uint32(addr netip.Addr) (uint32, error) {
	addr = addr.Unmap()
	if !addr.Is4() {
		return 0, fmt.Errorf("%s is not an IPv4 address", addr)
	}

	b := addr.As4()
	return binary.BigEndian.Uint32(b[:]), nil
}

// LastAddr returns the broadcast address of the given IPv4 network.
func LastAddr(addr uint32, bits int) uint32 {
	return (addr & Mask(bits)) | HostMask(bits)
}

// FormatUint32 renders an IPv4 value in dotted-quad notation.
func FormatUint32(v uint32) string {
	return AddrFromUint32(v).String()
}
