package vector

import (
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/yanet-platform/routegen/common/go/xiter"
	"github.com/yanet-platform/routegen/internal/workload"
)

// Format is a vector file layout.
type Format string

const (
	// FormatText is the human-readable layout, one operation per line.
	FormatText Format = "text"
	// FormatBinary is the layout of fixed 16-byte records consumed by the
	// test bench.
	FormatBinary Format = "binary"
	// FormatPcap is a capture of query packets.
	FormatPcap Format = "pcap"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatBinary, FormatPcap:
		return f, nil
	default:
		return "", fmt.Errorf("unknown vector format %q: must be one of text, binary, pcap", s)
	}
}

func (m Format) String() string {
	return string(m)
}

// Set implements pflag.Value.
func (m *Format) Set(s string) error {
	f, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*m = f
	return nil
}

// Type implements pflag.Value.
func (m *Format) Type() string {
	return "format"
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Format) UnmarshalText(text []byte) error {
	return m.Set(string(text))
}

// DefaultPath returns the conventional file name for the format.
func (m Format) DefaultPath() string {
	switch m {
	case FormatBinary:
		return "routing_test.data"
	case FormatPcap:
		return "routing_test.pcap"
	default:
		return "routing_test.mem"
	}
}

// Encoder serializes records.
type Encoder interface {
	// Encode writes a single record.
	Encode(record workload.Record) error
	// Close terminates the stream and flushes buffered data. It does not
	// close the underlying writer.
	Close() error
}

// NewEncoder returns an encoder for the configured format.
func NewEncoder(w io.Writer, cfg *Config) (Encoder, error) {
	switch cfg.Format {
	case FormatText:
		return NewTextEncoder(w, int(cfg.BufferSize.Bytes())), nil
	case FormatBinary:
		return NewBinaryEncoder(w, int(cfg.BufferSize.Bytes())), nil
	case FormatPcap:
		return NewPcapEncoder(w, &cfg.Pcap, int(cfg.BufferSize.Bytes()))
	default:
		return nil, fmt.Errorf("unknown vector format %q", cfg.Format)
	}
}

// Decode returns the records stored in r.
//
// Only the text and binary layouts can be decoded, a pcap carries no
// insertions.
func Decode(r io.Reader, format Format) (iter.Seq2[workload.Record, error], error) {
	switch format {
	case FormatText:
		return NewTextDecoder(r).Records(), nil
	case FormatBinary:
		return NewBinaryDecoder(r).Records(), nil
	default:
		return nil, fmt.Errorf("vector format %q can not be decoded", format)
	}
}

// EncodeAll writes every record of the sequence and closes the encoder.
func EncodeAll(enc Encoder, seq iter.Seq[workload.Record]) (int, error) {
	count := 0
	for idx, record := range xiter.Enumerate(seq) {
		if err := enc.Encode(record); err != nil {
			return idx, fmt.Errorf("failed to encode record #%d: %w", idx, err)
		}
		count = idx + 1
	}

	if err := enc.Close(); err != nil {
		return count, fmt.Errorf("failed to finish vectors: %w", err)
	}

	return count, nil
}
