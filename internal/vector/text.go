package vector

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"net/netip"
	"strings"

	"github.com/yanet-platform/routegen/common/go/xnetip"
	"github.com/yanet-platform/routegen/internal/lpm"
	"github.com/yanet-platform/routegen/internal/workload"
)

// textEnd terminates the text layout.
const textEnd = "end"

// TextEncoder writes records in the human-readable layout:
//
//	insert  128.0.0.0/12 -> 34.54.12.32
//	query   128.4.123.32 -> 34.54.12.32
//	query   1.2.3.4 -> 0.0.0.0
//	end
//
// A miss is written as the 0.0.0.0 nexthop. The matched mask length is
// not carried.
type TextEncoder struct {
	w *bufio.Writer
}

// NewTextEncoder returns a TextEncoder with a buffer of the given size.
func NewTextEncoder(w io.Writer, size int) *TextEncoder {
	return &TextEncoder{
		w: bufio.NewWriterSize(w, size),
	}
}

// TextLine returns the text line of the record without the line break.
func TextLine(record workload.Record) string {
	if record.Op == workload.OpInsert {
		return fmt.Sprintf("insert  %s -> %s", record.Key(), xnetip.FormatUint32(record.NextHop))
	}

	return fmt.Sprintf("query   %s -> %s", xnetip.FormatUint32(record.Addr), xnetip.FormatUint32(record.NextHop))
}

func (m *TextEncoder) Encode(record workload.Record) error {
	_, err := fmt.Fprintln(m.w, TextLine(record))
	return err
}

func (m *TextEncoder) Close() error {
	if _, err := fmt.Fprintln(m.w, textEnd); err != nil {
		return err
	}
	return m.w.Flush()
}

// TextDecoder reads records of the text layout.
type TextDecoder struct {
	r *bufio.Scanner
}

// NewTextDecoder returns a new TextDecoder.
func NewTextDecoder(r io.Reader) *TextDecoder {
	return &TextDecoder{
		r: bufio.NewScanner(r),
	}
}

// Records returns the sequence of decoded records.
//
// The sequence stops at the "end" line or at the end of input. Blank
// lines are skipped. A malformed line is yielded as an error and stops
// the sequence.
func (m *TextDecoder) Records() iter.Seq2[workload.Record, error] {
	return func(yield func(workload.Record, error) bool) {
		line := 0
		for m.r.Scan() {
			line++
			text := strings.TrimSpace(m.r.Text())
			if text == "" {
				continue
			}
			if text == textEnd {
				return
			}

			record, err := parseTextLine(text)
			if err != nil {
				yield(workload.Record{}, fmt.Errorf("line %d: %w", line, err))
				return
			}
			if !yield(record, nil) {
				return
			}
		}

		if err := m.r.Err(); err != nil {
			yield(workload.Record{}, err)
		}
	}
}

func parseTextLine(text string) (workload.Record, error) {
	fields := strings.Fields(text)
	if len(fields) != 4 || fields[2] != "->" {
		return workload.Record{}, fmt.Errorf("malformed line %q", text)
	}

	nexthop, err := parseAddr(fields[3])
	if err != nil {
		return workload.Record{}, err
	}

	switch fields[0] {
	case "insert":
		if !strings.Contains(fields[1], "/") {
			// Host routes may be written without the mask.
			fields[1] += "/32"
		}
		prefix, err := netip.ParsePrefix(fields[1])
		if err != nil {
			return workload.Record{}, fmt.Errorf("failed to parse prefix: %w", err)
		}
		key, err := lpm.PrefixKeyFrom(prefix)
		if err != nil {
			return workload.Record{}, err
		}
		if key.Prefix() != prefix {
			return workload.Record{}, fmt.Errorf("%w: %s has host bits set", lpm.ErrInvalidKey, prefix)
		}

		return workload.InsertRecord(lpm.RouteEntry{Key: key, NextHop: nexthop}), nil
	case "query":
		addr, err := parseAddr(fields[1])
		if err != nil {
			return workload.Record{}, err
		}

		return workload.Record{
			Op:      workload.OpQuery,
			Addr:    addr,
			NextHop: nexthop,
			Matched: nexthop != 0,
		}, nil
	default:
		return workload.Record{}, fmt.Errorf("unknown operation %q", fields[0])
	}
}

func parseAddr(s string) (uint32, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return 0, fmt.Errorf("failed to parse address: %w", err)
	}
	return xnetip.Uint32(addr)
}
