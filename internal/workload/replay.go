package workload

import (
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/yanet-platform/routegen/internal/lpm"
)

// Mismatch is a query whose recorded answer differs from the table.
type Mismatch struct {
	// Index is the position of the record in the sequence.
	Index int
	// Recorded is the record as it was read.
	Recorded Record
	// Expected is what the table answers at this point of the sequence.
	Expected Record
}

func (m Mismatch) String() string {
	return fmt.Sprintf("#%d: recorded %q, expected %q", m.Index, m.Recorded, m.Expected)
}

// Report summarizes a replayed record sequence.
type Report struct {
	Inserts    int
	Queries    int
	Hits       int
	Misses     int
	Duplicates int
	Mismatches []Mismatch
}

// OK reports whether every query answer was confirmed.
func (m *Report) OK() bool {
	return len(m.Mismatches) == 0
}

type replayOptions struct {
	Log         *zap.SugaredLogger
	NextHopOnly bool
}

// ReplayOption is a function that configures Replay.
type ReplayOption func(*replayOptions)

// WithReplayLog sets the logger for Replay.
func WithReplayLog(log *zap.SugaredLogger) ReplayOption {
	return func(o *replayOptions) {
		o.Log = log
	}
}

// WithNextHopOnly makes Replay ignore the matched mask length of queries,
// for layouts that do not carry it.
func WithNextHopOnly() ReplayOption {
	return func(o *replayOptions) {
		o.NextHopOnly = true
	}
}

// Infallible adapts a generated sequence to the form Replay consumes.
func Infallible(seq iter.Seq[Record]) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for record := range seq {
			if !yield(record, nil) {
				return
			}
		}
	}
}

// Replay re-applies a record sequence to a fresh table and checks every
// recorded query answer.
//
// Each answer is computed twice, by the trie and by the map oracle, and
// the two must agree. Duplicate insertions are counted and skipped,
// the same way the table rejects them. Sequence errors abort the replay.
func Replay(seq iter.Seq2[Record, error], options ...ReplayOption) (*Report, error) {
	opts := &replayOptions{
		Log: zap.NewNop().Sugar(),
	}
	for _, o := range options {
		o(opts)
	}
	log := opts.Log

	table := lpm.NewTable(0)
	oracle := lpm.NewMapTable(0)
	report := &Report{}

	idx := 0
	for record, err := range seq {
		if err != nil {
			return report, fmt.Errorf("failed to read record #%d: %w", idx, err)
		}

		switch record.Op {
		case OpInsert:
			key := record.Key()
			if !key.Valid() {
				return report, fmt.Errorf("record #%d: %w: %s", idx, lpm.ErrInvalidKey, key)
			}
			report.Inserts++

			if err := table.Insert(key, record.NextHop); err != nil {
				report.Duplicates++
				log.Warnw("duplicate insertion", zap.Int("index", idx), zap.Stringer("prefix", key))
				break
			}
			if err := oracle.Insert(key, record.NextHop); err != nil {
				return report, fmt.Errorf("record #%d: oracle diverged: %w", idx, err)
			}
		case OpQuery:
			report.Queries++

			match, ok := table.Lookup(record.Addr)
			oracleMatch, oracleOk := oracle.Lookup(record.Addr)
			if ok != oracleOk || match != oracleMatch {
				return report, fmt.Errorf(
					"record #%d: trie answered %v/%t, oracle %v/%t",
					idx, match, ok, oracleMatch, oracleOk,
				)
			}

			if ok {
				report.Hits++
			} else {
				report.Misses++
			}

			expected := QueryRecord(record.Addr, match, ok)
			if opts.NextHopOnly {
				expected.Bits = record.Bits
			}
			if expected != record {
				log.Debugw("query mismatch",
					zap.Int("index", idx),
					zap.Stringer("recorded", record),
					zap.Stringer("expected", expected),
				)
				report.Mismatches = append(report.Mismatches, Mismatch{
					Index:    idx,
					Recorded: record,
					Expected: expected,
				})
			}
		default:
			return report, fmt.Errorf("record #%d: unknown operation %s", idx, record.Op)
		}

		idx++
	}

	return report, nil
}
