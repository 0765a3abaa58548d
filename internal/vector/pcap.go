package vector

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/netip"
	"time"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"github.com/gopacket/gopacket/pcapgo"

	"github.com/yanet-platform/routegen/common/go/xnetip"
	"github.com/yanet-platform/routegen/common/go/xpacket"
	"github.com/yanet-platform/routegen/internal/workload"
)

// pcapEpoch is the timestamp of the first packet, fixed so that the same
// records produce byte-identical captures.
var pcapEpoch = time.Unix(0, 0).UTC()

// PcapEncoder writes every query as an Ethernet/IPv4/UDP packet destined
// to the queried address. The UDP payload is the binary record of the
// query, so the capture carries the expected answer along with the
// packet. Insertions are control plane operations and are skipped.
type PcapEncoder struct {
	w      *bufio.Writer
	pcap   *pcapgo.Writer
	eth    layers.Ethernet
	srcIP  net.IP
	port   layers.UDPPort
	buf    gopacket.SerializeBuffer
	count  int
	record [RecordSize]byte
}

// NewPcapEncoder writes the capture header and returns a PcapEncoder.
func NewPcapEncoder(w io.Writer, cfg *PcapConfig, size int) (*PcapEncoder, error) {
	srcMAC, err := net.ParseMAC(cfg.SrcMAC)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source MAC: %w", err)
	}
	dstMAC, err := net.ParseMAC(cfg.DstMAC)
	if err != nil {
		return nil, fmt.Errorf("failed to parse destination MAC: %w", err)
	}
	srcIP, err := netip.ParseAddr(cfg.SrcIP)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source IP: %w", err)
	}
	if !srcIP.Unmap().Is4() {
		return nil, fmt.Errorf("source IP %s is not an IPv4 address", srcIP)
	}

	bw := bufio.NewWriterSize(w, size)
	pw := pcapgo.NewWriter(bw)
	if err := pw.WriteFileHeader(uint32(cfg.SnapLen.Bytes()), layers.LinkTypeEthernet); err != nil {
		return nil, fmt.Errorf("failed to write pcap header: %w", err)
	}

	return &PcapEncoder{
		w:    bw,
		pcap: pw,
		eth: layers.Ethernet{
			SrcMAC:       srcMAC,
			DstMAC:       dstMAC,
			EthernetType: layers.EthernetTypeIPv4,
		},
		srcIP: net.IP(srcIP.Unmap().AsSlice()),
		port:  layers.UDPPort(cfg.Port),
		buf:   gopacket.NewSerializeBuffer(),
	}, nil
}

// QueryPacket returns the serialized packet of a query record.
func (m *PcapEncoder) QueryPacket(record workload.Record) ([]byte, error) {
	dst := xnetip.AddrFromUint32(record.Addr).As4()

	ip := &layers.IPv4{
		Version:  4,
		IHL:      5,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    m.srcIP,
		DstIP:    net.IP(dst[:]),
	}
	udp := &layers.UDP{
		SrcPort: m.port,
		DstPort: m.port,
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, err
	}

	eth := m.eth
	payload := gopacket.Payload(AppendBinary(m.record[:0], record))
	return xpacket.Serialize(m.buf, &eth, ip, udp, payload)
}

func (m *PcapEncoder) Encode(record workload.Record) error {
	if record.Op != workload.OpQuery {
		return nil
	}

	data, err := m.QueryPacket(record)
	if err != nil {
		return err
	}

	ci := gopacket.CaptureInfo{
		Timestamp:     pcapEpoch.Add(time.Duration(m.count) * time.Microsecond),
		CaptureLength: len(data),
		Length:        len(data),
	}
	m.count++

	return m.pcap.WritePacket(ci, data)
}

func (m *PcapEncoder) Close() error {
	return m.w.Flush()
}

// Packets returns the number of packets written.
func (m *PcapEncoder) Packets() int {
	return m.count
}
