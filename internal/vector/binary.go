package vector

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/yanet-platform/routegen/internal/lpm"
	"github.com/yanet-platform/routegen/internal/workload"
)

// RecordSize is the size of a binary record.
const RecordSize = 16

// Operation words of the binary layout.
const (
	binaryInsert uint32 = 0x00000000
	binaryQuery  uint32 = 0x00000001
	binaryEnd    uint32 = 0xffffffff
)

// BinaryEncoder writes records as fixed 16-byte big-endian records:
//
//	[0:4]   operation: 0 insert, 1 query, 0xffffffff end of stream
//	[4:8]   inserted network or queried address
//	[8:12]  mask length, of the matched entry for queries
//	[12:16] nexthop, 0.0.0.0 for a query that misses
type BinaryEncoder struct {
	w   *bufio.Writer
	buf [RecordSize]byte
}

// NewBinaryEncoder returns a BinaryEncoder with a buffer of the given
// size.
func NewBinaryEncoder(w io.Writer, size int) *BinaryEncoder {
	return &BinaryEncoder{
		w: bufio.NewWriterSize(w, size),
	}
}

// AppendBinary appends the binary record to b.
func AppendBinary(b []byte, record workload.Record) []byte {
	op := binaryInsert
	if record.Op == workload.OpQuery {
		op = binaryQuery
	}

	b = binary.BigEndian.AppendUint32(b, op)
	b = binary.BigEndian.AppendUint32(b, record.Addr)
	b = binary.BigEndian.AppendUint32(b, uint32(record.Bits))
	b = binary.BigEndian.AppendUint32(b, record.NextHop)
	return b
}

func (m *BinaryEncoder) Encode(record workload.Record) error {
	_, err := m.w.Write(AppendBinary(m.buf[:0], record))
	return err
}

func (m *BinaryEncoder) Close() error {
	b := binary.BigEndian.AppendUint32(m.buf[:0], binaryEnd)
	b = append(b, make([]byte, RecordSize-len(b))...)
	if _, err := m.w.Write(b); err != nil {
		return err
	}
	return m.w.Flush()
}

// BinaryDecoder reads records of the binary layout.
type BinaryDecoder struct {
	r io.Reader
}

// NewBinaryDecoder returns a new BinaryDecoder.
func NewBinaryDecoder(r io.Reader) *BinaryDecoder {
	return &BinaryDecoder{
		r: bufio.NewReader(r),
	}
}

// ParseBinary decodes a single record.
//
// The second return value is false for the end-of-stream record.
func ParseBinary(b []byte) (workload.Record, bool, error) {
	if len(b) < RecordSize {
		return workload.Record{}, false, io.ErrUnexpectedEOF
	}

	op := binary.BigEndian.Uint32(b[0:4])
	addr := binary.BigEndian.Uint32(b[4:8])
	mask := binary.BigEndian.Uint32(b[8:12])
	nexthop := binary.BigEndian.Uint32(b[12:16])

	if op == binaryEnd {
		return workload.Record{}, false, nil
	}
	if mask > lpm.MaxBits {
		return workload.Record{}, false, fmt.Errorf("%w: mask /%d", lpm.ErrInvalidKey, mask)
	}

	switch op {
	case binaryInsert:
		return workload.Record{
			Op:      workload.OpInsert,
			Addr:    addr,
			Bits:    uint8(mask),
			NextHop: nexthop,
		}, true, nil
	case binaryQuery:
		record := workload.Record{
			Op:   workload.OpQuery,
			Addr: addr,
		}
		if nexthop != 0 {
			record.Bits = uint8(mask)
			record.NextHop = nexthop
			record.Matched = true
		}
		return record, true, nil
	default:
		return workload.Record{}, false, fmt.Errorf("unknown operation word %#08x", op)
	}
}

// Records returns the sequence of decoded records.
//
// The sequence stops at the end-of-stream record or at the end of input,
// so files without the terminator are accepted too. A truncated or
// malformed record is yielded as an error and stops the sequence.
func (m *BinaryDecoder) Records() iter.Seq2[workload.Record, error] {
	return func(yield func(workload.Record, error) bool) {
		buf := [RecordSize]byte{}
		for offset := 0; ; offset += RecordSize {
			if _, err := io.ReadFull(m.r, buf[:]); err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				yield(workload.Record{}, fmt.Errorf("offset %d: %w", offset, err))
				return
			}

			record, ok, err := ParseBinary(buf[:])
			if err != nil {
				yield(workload.Record{}, fmt.Errorf("offset %d: %w", offset, err))
				return
			}
			if !ok {
				return
			}
			if !yield(record, nil) {
				return
			}
		}
	}
}
