package workload

import (
	"errors"
	"iter"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/yanet-platform/routegen/common/go/xnetip"
	"github.com/yanet-platform/routegen/internal/lpm"
)

// pressureStdDev is the standard deviation of clustered addresses around
// the pressure center.
const pressureStdDev = 1 << 23

type options struct {
	Log    *zap.SugaredLogger
	Source rand.Source
}

func newOptions() *options {
	return &options{
		Log: zap.NewNop().Sugar(),
	}
}

// GeneratorOption is a function that configures the Generator.
type GeneratorOption func(*options)

// WithLog sets the logger for the Generator.
func WithLog(log *zap.SugaredLogger) GeneratorOption {
	return func(o *options) {
		o.Log = log
	}
}

// WithSource replaces the seeded PCG source with the given one.
func WithSource(src rand.Source) GeneratorOption {
	return func(o *options) {
		o.Source = src
	}
}

// Stats describes what the Generator has produced so far.
type Stats struct {
	Inserts uint32
	Queries uint32
	Hits    uint32
	Misses  uint32
	// Redraws counts candidate prefixes rejected as already present.
	Redraws uint64
}

// Generator drives a Table through a randomized sequence of insertions
// and queries, recording the expected answer of every query.
//
// The Generator exclusively owns its table and random source, so it is
// not safe for concurrent use. Run independent generators for parallel
// workloads.
type Generator struct {
	cfg    Config
	table  *lpm.Table
	rand   *rand.Rand
	center uint32
	done   bool
	stats  Stats
	log    *zap.SugaredLogger
}

// NewGenerator creates a new Generator with an empty table.
//
// The configuration is expected to be validated by the caller.
func NewGenerator(cfg Config, options ...GeneratorOption) *Generator {
	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	cfg.MinMask, cfg.MaxMask = cfg.Masks()

	src := opts.Source
	if src == nil {
		src = rand.NewPCG(cfg.Seed, cfg.Seed)
	}
	rng := rand.New(src)

	return &Generator{
		cfg:    cfg,
		table:  lpm.NewTable(int(cfg.InsertionCount)),
		rand:   rng,
		center: rng.Uint32(),
		log:    opts.Log,
	}
}

// Table returns the table the Generator fills.
func (m *Generator) Table() *lpm.Table {
	return m.table
}

// Stats returns the generation counters.
func (m *Generator) Stats() Stats {
	return m.stats
}

// drawAddr draws an address either uniformly or, in pressure mode, from
// a normal distribution around the center.
func (m *Generator) drawAddr() uint32 {
	if !m.cfg.Pressure {
		return m.rand.Uint32()
	}

	v := float64(m.center) + m.rand.NormFloat64()*pressureStdDev
	// Out of range values wrap around the address space.
	return uint32(int64(v))
}

// drawNextHop draws a nexthop, 0.0.0.0 is reserved for "no match".
func (m *Generator) drawNextHop() uint32 {
	return m.rand.Uint32N(0xffffffff) + 1
}

// GenerateInsert draws a prefix that is not in the table yet, together
// with its nexthop.
//
// The network address is never 0.0.0.0.
func (m *Generator) GenerateInsert() (lpm.PrefixKey, uint32) {
	span := int(m.cfg.MaxMask) - int(m.cfg.MinMask) + 1

	for {
		bits := m.cfg.MinMask + uint8(m.rand.IntN(span))
		key := lpm.NewPrefixKey(m.drawAddr(), bits)
		if key.Addr == 0 || m.table.Contains(key) {
			m.stats.Redraws++
			continue
		}

		return key, m.drawNextHop()
	}
}

// Insert generates a new prefix and inserts it into the table.
func (m *Generator) Insert() Record {
	for {
		key, nexthop := m.GenerateInsert()
		if err := m.table.Insert(key, nexthop); err != nil {
			if errors.Is(err, lpm.ErrDuplicateKey) {
				m.stats.Redraws++
				continue
			}
			// Generated keys are always valid.
			panic(err)
		}

		m.stats.Inserts++
		return InsertRecord(lpm.RouteEntry{Key: key, NextHop: nexthop})
	}
}

// GenerateQuery draws a query address and looks it up.
//
// With probability MissRate, or when the table is empty, the address is
// uniformly random and expected to miss. Otherwise it is synthesized
// inside a random inserted prefix. Either way the recorded answer is the
// one the table gives, since a more specific prefix may take precedence.
func (m *Generator) GenerateQuery() Record {
	miss := m.rand.Float64() < m.cfg.MissRate

	var addr uint32
	if miss || m.table.Len() == 0 {
		addr = m.rand.Uint32N(0xffffffff) + 1
	} else {
		entry := m.table.At(m.rand.IntN(m.table.Len()))
		addr = m.synthesize(entry.Key)
	}

	match, ok := m.table.Lookup(addr)

	m.stats.Queries++
	if ok {
		m.stats.Hits++
	} else {
		m.stats.Misses++
	}

	return QueryRecord(addr, match, ok)
}

// synthesize returns an address covered by the given prefix, but
// different from its network address when the prefix has host bits.
func (m *Generator) synthesize(key lpm.PrefixKey) uint32 {
	host := xnetip.HostMask(int(key.Bits))
	if host == 0 {
		return key.Addr
	}

	for {
		if flip := m.rand.Uint32() & host; flip != 0 {
			return key.Addr ^ flip
		}
	}
}

// plan returns the order of operations.
func (m *Generator) plan() []Op {
	ops := make([]Op, 0, int(m.cfg.InsertionCount)+int(m.cfg.QueryCount))
	for range m.cfg.InsertionCount {
		ops = append(ops, OpInsert)
	}
	for range m.cfg.QueryCount {
		ops = append(ops, OpQuery)
	}

	if !m.cfg.Order {
		m.rand.Shuffle(len(ops), func(i, j int) {
			ops[i], ops[j] = ops[j], ops[i]
		})
	}

	return ops
}

// Run returns the sequence of generated records.
//
// Every record depends on the table state left by the previous ones, so
// the sequence is lazy and can be consumed only once: ranging over it
// again, or over another Run result, yields nothing.
func (m *Generator) Run() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		if m.done {
			return
		}
		m.done = true

		ops := m.plan()
		m.log.Debugw("generating workload",
			zap.Uint32("insertions", m.cfg.InsertionCount),
			zap.Uint32("queries", m.cfg.QueryCount),
			zap.Bool("order", m.cfg.Order),
			zap.Bool("pressure", m.cfg.Pressure),
			zap.Stringer("center", xnetip.AddrFromUint32(m.center)),
		)

		for _, op := range ops {
			var record Record
			switch op {
			case OpInsert:
				record = m.Insert()
			case OpQuery:
				record = m.GenerateQuery()
			}

			if !yield(record) {
				return
			}
		}

		m.log.Debugw("workload generated",
			zap.Uint32("hits", m.stats.Hits),
			zap.Uint32("misses", m.stats.Misses),
			zap.Uint64("redraws", m.stats.Redraws),
			zap.Int("nodes", m.table.Nodes()),
		)
	}
}
