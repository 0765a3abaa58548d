package workload

import (
	"fmt"

	"github.com/yanet-platform/routegen/common/go/xnetip"
	"github.com/yanet-platform/routegen/internal/lpm"
)

// Op is the kind of a generated operation.
type Op uint8

const (
	// OpInsert inserts a prefix into the table.
	OpInsert Op = iota
	// OpQuery looks an address up.
	OpQuery
)

func (m Op) String() string {
	switch m {
	case OpInsert:
		return "insert"
	case OpQuery:
		return "query"
	default:
		return fmt.Sprintf("op(%d)", uint8(m))
	}
}

// Record is a single generated operation together with its expected
// outcome.
//
// For OpInsert, Addr/Bits is the inserted prefix and NextHop its nexthop.
// For OpQuery, Addr is the queried address; when Matched is set, Bits and
// NextHop describe the longest matching entry, otherwise both are zero.
type Record struct {
	Op      Op
	Addr    uint32
	Bits    uint8
	NextHop uint32
	Matched bool
}

// InsertRecord returns the record of the given insertion.
func InsertRecord(entry lpm.RouteEntry) Record {
	return Record{
		Op:      OpInsert,
		Addr:    entry.Key.Addr,
		Bits:    entry.Key.Bits,
		NextHop: entry.NextHop,
	}
}

// QueryRecord returns the record of a lookup of addr that produced the
// given result.
func QueryRecord(addr uint32, match lpm.RouteEntry, ok bool) Record {
	if !ok {
		return Record{Op: OpQuery, Addr: addr}
	}

	return Record{
		Op:      OpQuery,
		Addr:    addr,
		Bits:    match.Key.Bits,
		NextHop: match.NextHop,
		Matched: true,
	}
}

// Key returns the inserted prefix of an OpInsert record.
func (m Record) Key() lpm.PrefixKey {
	return lpm.PrefixKey{Addr: m.Addr, Bits: m.Bits}
}

func (m Record) String() string {
	switch {
	case m.Op == OpInsert:
		return fmt.Sprintf("insert %s -> %s", m.Key(), xnetip.FormatUint32(m.NextHop))
	case m.Matched:
		return fmt.Sprintf("query %s -> %s (/%d)", xnetip.FormatUint32(m.Addr), xnetip.FormatUint32(m.NextHop), m.Bits)
	default:
		return fmt.Sprintf("query %s -> miss", xnetip.FormatUint32(m.Addr))
	}
}
