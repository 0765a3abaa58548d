package xpacket

import (
	"fmt"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
)

// SerializeOptions are the options every generated packet is built with.
var SerializeOptions = gopacket.SerializeOptions{
	FixLengths:       true,
	ComputeChecksums: true,
}

// Serialize serializes the layers into buf and returns the packet bytes,
// which stay valid until buf is reused.
func Serialize(buf gopacket.SerializeBuffer, lyrs ...gopacket.SerializableLayer) ([]byte, error) {
	if err := gopacket.SerializeLayers(buf, SerializeOptions, lyrs...); err != nil {
		return nil, fmt.Errorf("failed to serialize layers: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseEthernet decodes an Ethernet frame and fails when any layer can
// not be decoded.
func ParseEthernet(data []byte) (gopacket.Packet, error) {
	pkt := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Default)
	if errLayer := pkt.ErrorLayer(); errLayer != nil {
		return nil, fmt.Errorf("failed to parse packet: %w", errLayer.Error())
	}
	return pkt, nil
}
