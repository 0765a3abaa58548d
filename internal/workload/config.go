package workload

import (
	"fmt"
	"math"

	"github.com/yanet-platform/routegen/internal/lpm"
)

// Config is the workload generator configuration.
type Config struct {
	// InsertionCount is the number of distinct prefixes to insert.
	InsertionCount uint32 `yaml:"insertion_count"`
	// QueryCount is the number of lookups to perform.
	QueryCount uint32 `yaml:"query_count"`
	// MissRate is the target fraction of queries that miss every inserted
	// prefix.
	MissRate float64 `yaml:"miss_rate"`
	// Order forces all insertions to precede all queries.
	//
	// Otherwise insertions and queries are randomly interleaved, so some
	// queries may hit an empty table.
	Order bool `yaml:"order"`
	// Pressure clusters inserted prefixes around a single random address.
	//
	// A cluster covers only a few /8 networks, so masks shorter than /8 add
	// no capacity and every longer mask length b offers 2^(b-8) prefixes.
	Pressure bool `yaml:"pressure"`
	// Seed seeds the random source, the same seed and configuration
	// reproduce the same records.
	Seed uint64 `yaml:"seed"`
	// MinMask is the shortest generated mask length.
	MinMask uint8 `yaml:"min_mask"`
	// MaxMask is the longest generated mask length.
	//
	// Leaving both MinMask and MaxMask unset selects the default /12-/28
	// range.
	MaxMask uint8 `yaml:"max_mask"`
}

const (
	defaultMinMask = 12
	defaultMaxMask = 28
)

// pressureMinMask is the shortest mask counted toward the capacity of a
// pressure cluster.
const pressureMinMask = 8

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		InsertionCount: 8,
		QueryCount:     16,
		MissRate:       0.5,
		MinMask:        defaultMinMask,
		MaxMask:        defaultMaxMask,
	}
}

// Masks returns the effective mask range.
func (m *Config) Masks() (uint8, uint8) {
	if m.MinMask == 0 && m.MaxMask == 0 {
		return defaultMinMask, defaultMaxMask
	}
	return m.MinMask, m.MaxMask
}

// Validate checks that the configuration describes a workload that can
// be generated.
func (m *Config) Validate() error {
	if math.IsNaN(m.MissRate) || m.MissRate < 0 || m.MissRate > 1 {
		return fmt.Errorf("miss rate %v is out of [0, 1]", m.MissRate)
	}

	minMask, maxMask := m.Masks()
	if maxMask > lpm.MaxBits {
		return fmt.Errorf("max mask /%d is longer than /%d", maxMask, lpm.MaxBits)
	}
	if minMask > maxMask {
		return fmt.Errorf("min mask /%d is longer than max mask /%d", minMask, maxMask)
	}
	if capacity := m.Capacity(); uint64(m.InsertionCount) > capacity {
		mode := ""
		if m.Pressure {
			mode = " under pressure"
		}
		return fmt.Errorf(
			"%d insertions requested, but only %d distinct prefixes exist in /%d-/%d%s",
			m.InsertionCount, capacity, minMask, maxMask, mode,
		)
	}

	return nil
}

// Capacity returns the number of distinct nonzero prefixes the configured
// mask range can produce.
//
// In pressure mode the count is limited to what a single cluster can
// reach.
func (m *Config) Capacity() uint64 {
	minMask, maxMask := m.Masks()

	capacity := uint64(0)
	for bits := uint64(minMask); bits <= uint64(maxMask) && bits <= lpm.MaxBits; bits++ {
		if !m.Pressure {
			capacity += (uint64(1) << bits) - 1
			continue
		}
		if bits >= pressureMinMask {
			capacity += uint64(1) << (bits - pressureMinMask)
		}
	}
	return capacity
}
