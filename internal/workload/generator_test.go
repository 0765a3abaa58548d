package workload

import (
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/yanet-platform/routegen/internal/lpm"
)

func collect(t *testing.T, cfg Config, options ...GeneratorOption) ([]Record, *Generator) {
	t.Helper()
	require.NoError(t, cfg.Validate())

	gen := NewGenerator(cfg, options...)
	return slices.Collect(gen.Run()), gen
}

func split(records []Record) (inserts []Record, queries []Record) {
	for _, r := range records {
		if r.Op == OpInsert {
			inserts = append(inserts, r)
		} else {
			queries = append(queries, r)
		}
	}
	return inserts, queries
}

func TestGeneratorCounts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InsertionCount = 100
	cfg.QueryCount = 300
	cfg.Seed = 42

	records, gen := collect(t, cfg)
	inserts, queries := split(records)
	require.Len(t, inserts, 100)
	require.Len(t, queries, 300)
	require.Equal(t, 100, gen.Table().Len())

	stats := gen.Stats()
	require.Equal(t, uint32(100), stats.Inserts)
	require.Equal(t, uint32(300), stats.Queries)
	require.Equal(t, stats.Queries, stats.Hits+stats.Misses)
}

func TestGeneratorDeterminism(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InsertionCount = 200
	cfg.QueryCount = 500
	cfg.Seed = 7

	for _, pressure := range []bool{false, true} {
		cfg.Pressure = pressure
		a, _ := collect(t, cfg)
		b, _ := collect(t, cfg)
		if diff := cmp.Diff(a, b); diff != "" {
			t.Fatalf("same seed produced different records (-a +b):\n%s", diff)
		}
	}

	cfg.Seed = 8
	c, _ := collect(t, cfg)
	cfg.Seed = 7
	d, _ := collect(t, cfg)
	require.NotEqual(t, c, d)
}

func TestGeneratorWithSource(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InsertionCount = 50
	cfg.QueryCount = 50

	a, _ := collect(t, cfg, WithSource(rand.NewChaCha8([32]byte{1})))
	b, _ := collect(t, cfg, WithSource(rand.NewChaCha8([32]byte{1})))
	require.Empty(t, cmp.Diff(a, b))

	c, _ := collect(t, cfg, WithSource(rand.NewChaCha8([32]byte{2})))
	require.NotEqual(t, a, c)
}

func TestGeneratorInsertions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InsertionCount = 2000
	cfg.QueryCount = 0
	cfg.Seed = 1

	records, _ := collect(t, cfg)
	seen := map[lpm.PrefixKey]struct{}{}
	for _, r := range records {
		require.Equal(t, OpInsert, r.Op)
		key := r.Key()
		require.True(t, key.Valid(), "%s", key)
		require.NotZero(t, key.Addr)
		require.NotZero(t, r.NextHop)
		require.GreaterOrEqual(t, key.Bits, cfg.MinMask)
		require.LessOrEqual(t, key.Bits, cfg.MaxMask)

		_, dup := seen[key]
		require.False(t, dup, "duplicate prefix %s", key)
		seen[key] = struct{}{}
	}
}

func TestGeneratorExhaustsNarrowRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinMask = 3
	cfg.MaxMask = 3
	cfg.InsertionCount = 7 // every nonzero /3 network
	cfg.QueryCount = 0
	require.Equal(t, uint64(7), cfg.Capacity())

	records, gen := collect(t, cfg)
	require.Len(t, records, 7)
	require.Equal(t, 7, gen.Table().Len())

	cfg.InsertionCount = 8
	require.Error(t, cfg.Validate())
}

func TestGeneratorOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InsertionCount = 100
	cfg.QueryCount = 100
	cfg.Order = true
	cfg.Seed = 3

	records, _ := collect(t, cfg)
	for idx, r := range records {
		if idx < 100 {
			require.Equal(t, OpInsert, r.Op, "record #%d", idx)
		} else {
			require.Equal(t, OpQuery, r.Op, "record #%d", idx)
		}
	}

	cfg.Order = false
	records, _ = collect(t, cfg)
	firstQuery := slices.IndexFunc(records, func(r Record) bool { return r.Op == OpQuery })
	require.Less(t, firstQuery, 100, "queries must be interleaved with insertions")
}

func TestGeneratorEmptyTableQueriesMiss(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InsertionCount = 0
	cfg.QueryCount = 50
	cfg.MissRate = 0

	records, gen := collect(t, cfg)
	require.Len(t, records, 50)
	for _, r := range records {
		require.Equal(t, OpQuery, r.Op)
		require.False(t, r.Matched)
		require.NotZero(t, r.Addr)
	}
	require.Equal(t, uint32(50), gen.Stats().Misses)
}

func TestGeneratorZeroMissRateHits(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InsertionCount = 64
	cfg.QueryCount = 1000
	cfg.MissRate = 0
	cfg.Order = true
	cfg.Seed = 5

	records, gen := collect(t, cfg)
	_, queries := split(records)
	for _, q := range queries {
		require.True(t, q.Matched, "query %s must hit", q)
	}
	require.Equal(t, uint32(1000), gen.Stats().Hits)
}

func TestGeneratorFullMissRate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InsertionCount = 16
	cfg.QueryCount = 1000
	cfg.MissRate = 1
	cfg.Order = true
	cfg.Seed = 5

	_, gen := collect(t, cfg)
	// Random addresses may still land in a /12 by chance.
	require.Greater(t, gen.Stats().Misses, uint32(900))
}

func TestGeneratorSynthesizedAddressCovered(t *testing.T) {
	gen := NewGenerator(DefaultConfig())
	key := lpm.NewPrefixKey(0xc0a80130, 28)
	require.NoError(t, gen.Table().Insert(key, 0x09090909))

	for range 200 {
		addr := gen.synthesize(key)
		require.NotEqual(t, key.Addr, addr)
		require.True(t, key.Contains(addr))
	}

	host := lpm.NewPrefixKey(0x01020304, 32)
	require.Equal(t, host.Addr, gen.synthesize(host))
}

func TestGeneratorQueryPrefersMoreSpecific(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MissRate = 0
	gen := NewGenerator(cfg)
	require.NoError(t, gen.Table().Insert(lpm.NewPrefixKey(0x0a000000, 8), 1))
	require.NoError(t, gen.Table().Insert(lpm.NewPrefixKey(0x0a040000, 16), 2))

	for range 500 {
		r := gen.GenerateQuery()
		require.True(t, r.Matched)
		if lpm.NewPrefixKey(0x0a040000, 16).Contains(r.Addr) {
			require.Equal(t, uint32(2), r.NextHop)
			require.Equal(t, uint8(16), r.Bits)
		} else {
			require.Equal(t, uint32(1), r.NextHop)
		}
	}
}

func TestGeneratorPressureClusters(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InsertionCount = 1000
	cfg.QueryCount = 0
	cfg.Pressure = true
	cfg.Seed = 11

	records, gen := collect(t, cfg)
	near := 0
	for _, r := range records {
		// Distance on the 32-bit ring.
		d := r.Addr - gen.center
		if d > 1<<31 {
			d = -d
		}
		if d < 4*pressureStdDev+(1<<20) {
			near++
		}
	}
	require.Greater(t, near, 950)
}

func TestGeneratorRunOnce(t *testing.T) {
	cfg := DefaultConfig()
	gen := NewGenerator(cfg)

	taken := 0
	for range gen.Run() {
		taken++
		if taken == 3 {
			break
		}
	}
	require.Equal(t, 3, taken)

	rest := slices.Collect(gen.Run())
	require.Empty(t, rest)
}

func TestGeneratorRecordsReplay(t *testing.T) {
	for _, order := range []bool{false, true} {
		cfg := DefaultConfig()
		cfg.InsertionCount = 500
		cfg.QueryCount = 2000
		cfg.MissRate = 0.25
		cfg.Order = order
		cfg.Pressure = true
		cfg.Seed = 99

		gen := NewGenerator(cfg)
		report, err := Replay(Infallible(gen.Run()))
		require.NoError(t, err)
		require.True(t, report.OK(), "mismatches: %v", report.Mismatches)
		require.Equal(t, 500, report.Inserts)
		require.Equal(t, 2000, report.Queries)
		require.Equal(t, int(gen.Stats().Hits), report.Hits)
	}
}

func TestGeneratorUnsetMaskRange(t *testing.T) {
	cfg := Config{
		InsertionCount: 8,
		QueryCount:     16,
		MissRate:       0.5,
		Seed:           1,
	}
	require.NoError(t, cfg.Validate())
	defaults := DefaultConfig()
	require.Equal(t, defaults.Capacity(), cfg.Capacity())

	done := make(chan []Record, 1)
	go func() {
		done <- slices.Collect(NewGenerator(cfg).Run())
	}()

	select {
	case records := <-done:
		inserts, queries := split(records)
		require.Len(t, inserts, 8)
		require.Len(t, queries, 16)
		for _, r := range inserts {
			require.GreaterOrEqual(t, r.Bits, uint8(12))
			require.LessOrEqual(t, r.Bits, uint8(28))
		}
	case <-time.After(10 * time.Second):
		t.Fatal("workload was not generated in time")
	}
}

func TestGeneratorPressureNarrowRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Pressure = true
	cfg.MinMask = 12
	cfg.MaxMask = 12
	cfg.QueryCount = 0
	require.Equal(t, uint64(16), cfg.Capacity())

	cfg.InsertionCount = 17
	require.Error(t, cfg.Validate())

	cfg.InsertionCount = 16
	for seed := range uint64(20) {
		cfg.Seed = seed + 1
		records, gen := collect(t, cfg)
		require.Len(t, records, 16)
		require.Equal(t, 16, gen.Table().Len())
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"default", func(*Config) {}, true},
		{"negative miss rate", func(c *Config) { c.MissRate = -0.1 }, false},
		{"miss rate above one", func(c *Config) { c.MissRate = 1.5 }, false},
		{"full miss rate", func(c *Config) { c.MissRate = 1 }, true},
		{"mask above 32", func(c *Config) { c.MaxMask = 33 }, false},
		{"inverted masks", func(c *Config) { c.MinMask, c.MaxMask = 20, 10 }, false},
		{"unset masks", func(c *Config) { c.MinMask, c.MaxMask, c.InsertionCount = 0, 0, 1 }, true},
		{"default route only", func(c *Config) { c.MinMask, c.MaxMask, c.InsertionCount = 0, 1, 2 }, false},
		{"pressure narrow range", func(c *Config) { c.Pressure, c.MinMask, c.MaxMask, c.InsertionCount = true, 12, 12, 300 }, false},
		{"pressure short masks", func(c *Config) { c.Pressure, c.MinMask, c.MaxMask, c.InsertionCount = true, 1, 7, 1 }, false},
		{"zero counts", func(c *Config) { c.InsertionCount, c.QueryCount = 0, 0 }, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := DefaultConfig()
			c.modify(&cfg)
			err := cfg.Validate()
			if c.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}
