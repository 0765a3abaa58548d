package vector

import (
	"github.com/c2h5oh/datasize"
)

// Config describes where and how vectors are written.
type Config struct {
	// Format is the vector file layout.
	Format Format `yaml:"format"`
	// Path is the output file. Empty means the format's default name.
	Path string `yaml:"path"`
	// BufferSize is the size of the write buffer.
	BufferSize datasize.ByteSize `yaml:"buffer_size"`
	// Pcap configures packets of the pcap layout.
	Pcap PcapConfig `yaml:"pcap"`
}

// PcapConfig describes the packets carrying queries.
type PcapConfig struct {
	// SrcMAC is the source MAC address of every frame.
	SrcMAC string `yaml:"src_mac"`
	// DstMAC is the destination MAC address, normally the router port.
	DstMAC string `yaml:"dst_mac"`
	// SrcIP is the source IPv4 address of every packet.
	SrcIP string `yaml:"src_ip"`
	// Port is the UDP source and destination port.
	Port uint16 `yaml:"port"`
	// SnapLen is the snapshot length written into the file header.
	SnapLen datasize.ByteSize `yaml:"snap_len"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Format:     FormatText,
		BufferSize: 64 * datasize.KB,
		Pcap: PcapConfig{
			SrcMAC:  "00:00:00:00:00:01",
			DstMAC:  "00:11:22:33:44:55",
			SrcIP:   "10.0.0.1",
			Port:    9000,
			SnapLen: 64 * datasize.KB,
		},
	}
}

// OutputPath returns the file vectors are written to.
func (m *Config) OutputPath() string {
	if m.Path != "" {
		return m.Path
	}
	return m.Format.DefaultPath()
}
