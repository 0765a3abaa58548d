package xnetip

import (
	"net/netip"
	"testing"
)

func TestLastAddr(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		expected string
	}{
		{
			name:     "IPv4 /0 (entire IPv4 space)",
			prefix:   "0.0.0.0/0",
			expected: "255.255.255.255",
		},
		{
			name:     "IPv4 /8 (Class A)",
			prefix:   "10.0.0.0/8",
			expected: "10.255.255.255",
		},
		{
			name:     "IPv4 /12 (shortest generated mask)",
			prefix:   "172.16.0.0/12",
			expected: "172.31.255.255",
		},
		{
			name:     "IPv4 /24 (Class C)",
			prefix:   "192.168.1.0/24",
			expected: "192.168.1.255",
		},
		{
			name:     "IPv4 /28 (longest generated mask)",
			prefix:   "192.168.1.32/28",
			expected: "192.168.1.47",
		},
		{
			name:     "IPv4 /31 (RFC 3021)",
			prefix:   "192.168.1.0/31",
			expected: "192.168.1.1",
		},
		{
			name:     "IPv4 /32 (host)",
			prefix:   "192.168.1.1/32",
			expected: "192.168.1.1",
		},
		{
			name:     "IPv4 with high bits set",
			prefix:   "255.255.255.0/24",
			expected: "255.255.255.255",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefix, err := netip.ParsePrefix(tt.prefix)
			if err != nil {
				t.Fatalf("Failed to parse prefix %s: %v", tt.prefix, err)
			}
			addr, err := Uint32(prefix.Addr())
			if err != nil {
				t.Fatalf("Failed to convert %s: %v", prefix.Addr(), err)
			}

			result := AddrFromUint32(LastAddr(addr, prefix.Bits()))
			expected := netip.MustParseAddr(tt.expected)
			if result != expected {
				t.Errorf("LastAddr(%s) = %s, want %s", tt.prefix, result, expected)
			}
			if !prefix.Contains(result) {
				t.Errorf("LastAddr(%s) = %s is not contained in the prefix", tt.prefix, result)
			}
		})
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		bits int
		mask uint32
	}{
		{-1, 0},
		{0, 0},
		{1, 0x80000000},
		{8, 0xff000000},
		{12, 0xfff00000},
		{28, 0xfffffff0},
		{32, 0xffffffff},
		{40, 0xffffffff},
	}

	for _, tt := range tests {
		if m := Mask(tt.bits); m != tt.mask {
			t.Errorf("Mask(%d) = %#08x, want %#08x", tt.bits, m, tt.mask)
		}
		if h := HostMask(tt.bits); h != ^tt.mask {
			t.Errorf("HostMask(%d) = %#08x, want %#08x", tt.bits, h, ^tt.mask)
		}
	}
}

func TestUint32(t *testing.T) {
	v, err := Uint32(netip.MustParseAddr("10.4.5.6"))
	if err != nil {
		t.Fatal(err)
	}
	if v != 0x0a040506 {
		t.Errorf("Uint32(10.4.5.6) = %#08x", v)
	}

	v, err = Uint32(netip.MustParseAddr("::ffff:192.168.1.1"))
	if err != nil {
		t.Fatal(err)
	}
	if FormatUint32(v) != "192.168.1.1" {
		t.Errorf("mapped address converted to %s", FormatUint32(v))
	}

	if _, err := Uint32(netip.MustParseAddr("2001:db8::1")); err == nil {
		t.Error("expected an error for an IPv6 address")
	}
}

func BenchmarkLastAddr(b *testing.B) {
	for b.Loop() {
		LastAddr(0xc0a80100, 24)
		LastAddr(0x0a000000, 8)
	}
}
