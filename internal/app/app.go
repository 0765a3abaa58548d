package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"slices"

	"github.com/c2h5oh/datasize"
	"github.com/gobwas/glob"
	"go.uber.org/zap"

	"github.com/yanet-platform/routegen/common/go/xiter"
	"github.com/yanet-platform/routegen/internal/transport"
	"github.com/yanet-platform/routegen/internal/vector"
	"github.com/yanet-platform/routegen/internal/workload"
)

type options struct {
	Log *zap.SugaredLogger
}

func newOptions() *options {
	return &options{
		Log: zap.NewNop().Sugar(),
	}
}

// AppOption is a function that configures the App.
type AppOption func(*options)

// WithLog sets the logger for the App.
func WithLog(log *zap.SugaredLogger) AppOption {
	return func(o *options) {
		o.Log = log
	}
}

// App runs routegen commands.
type App struct {
	cfg *Config
	log *zap.SugaredLogger
}

// NewApp creates a new App with a validated configuration.
func NewApp(cfg *Config, options ...AppOption) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	return &App{
		cfg: cfg,
		log: opts.Log,
	}, nil
}

// Config returns the App configuration.
func (m *App) Config() *Config {
	return m.cfg
}

// seed returns the configured seed, or a fresh one when it is zero.
func (m *App) seed() uint64 {
	if seed := m.cfg.Workload.Seed; seed != 0 {
		return seed
	}

	seed := rand.Uint64()
	m.log.Infow("no seed configured, drawn a random one", zap.Uint64("seed", seed))
	return seed
}

// Generate generates a workload and writes its vectors to w.
func (m *App) Generate(w io.Writer) (*Summary, error) {
	cfg := m.cfg.Workload
	cfg.Seed = m.seed()

	counter := &countingWriter{w: w}
	enc, err := vector.NewEncoder(counter, m.cfg.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	gen := workload.NewGenerator(cfg, workload.WithLog(m.log))

	seq := gen.Run()
	records := []workload.Record{}
	if m.cfg.Verify {
		seq = xiter.Tee(seq, func(record workload.Record) {
			records = append(records, record)
		})
	}

	count, err := vector.EncodeAll(enc, seq)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		Format:  m.cfg.Output.Format,
		Seed:    cfg.Seed,
		Records: count,
		Stats:   gen.Stats(),
		Nodes:   gen.Table().Nodes(),
		Size:    datasize.ByteSize(counter.n),
	}
	if pcap, ok := enc.(*vector.PcapEncoder); ok {
		summary.Packets = pcap.Packets()
	}

	if m.cfg.Verify {
		report, err := workload.Replay(
			workload.Infallible(slices.Values(records)),
			workload.WithReplayLog(m.log),
		)
		if err != nil {
			return summary, fmt.Errorf("failed to replay generated records: %w", err)
		}
		summary.Report = report
		if !report.OK() {
			return summary, fmt.Errorf("generated vectors have %d mismatch(es)", len(report.Mismatches))
		}
	}

	return summary, nil
}

// GenerateFile generates a workload into the configured output file.
//
// With verification enabled, decodable files are read back and replayed,
// so the check covers the encoding too.
func (m *App) GenerateFile() (*Summary, error) {
	path := m.cfg.Output.OutputPath()

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	summary, err := m.Generate(f)
	if err != nil {
		return summary, err
	}
	summary.Path = path

	if err := f.Close(); err != nil {
		return summary, fmt.Errorf("failed to close output file: %w", err)
	}

	m.log.Infow("vectors written",
		zap.String("path", path),
		zap.Stringer("format", summary.Format),
		zap.Int("records", summary.Records),
		zap.Stringer("size", summary.Size),
	)

	if m.cfg.Verify && summary.Format != vector.FormatPcap {
		report, err := m.VerifyFile(path, summary.Format)
		if err != nil {
			return summary, err
		}
		summary.Report = report
		if !report.OK() {
			return summary, fmt.Errorf("%s has %d mismatch(es)", path, len(report.Mismatches))
		}
	}

	return summary, nil
}

// Verify replays the vectors read from r and reports every query whose
// recorded answer differs from the reference table.
func (m *App) Verify(r io.Reader, format vector.Format) (*workload.Report, error) {
	seq, err := vector.Decode(r, format)
	if err != nil {
		return nil, err
	}

	options := []workload.ReplayOption{workload.WithReplayLog(m.log)}
	if format == vector.FormatText {
		options = append(options, workload.WithNextHopOnly())
	}

	return workload.Replay(seq, options...)
}

// VerifyFile verifies the vector file at path.
func (m *App) VerifyFile(path string, format vector.Format) (*workload.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open vectors: %w", err)
	}
	defer f.Close()

	report, err := m.Verify(f, format)
	if err != nil {
		return report, fmt.Errorf("failed to verify %s: %w", path, err)
	}

	return report, nil
}

// ReadOptions configures Read.
type ReadOptions struct {
	// Match keeps only the records whose printed line matches.
	Match glob.Glob
	// Color highlights operations with ANSI escapes.
	Color bool
}

// Read prints the vectors read from r in human form and returns the
// number of printed records.
func (m *App) Read(r io.Reader, format vector.Format, out io.Writer, opts ReadOptions) (int, error) {
	seq, err := vector.Decode(r, format)
	if err != nil {
		return 0, err
	}

	printed := 0
	idx := 0
	for record, err := range seq {
		if err != nil {
			return printed, fmt.Errorf("failed to read record #%d: %w", idx, err)
		}

		line := record.String()
		if opts.Match == nil || opts.Match.Match(line) {
			if opts.Color {
				line = colorize(record, line)
			}
			if _, err := fmt.Fprintf(out, "%6d  %s\n", idx, line); err != nil {
				return printed, err
			}
			printed++
		}
		idx++
	}

	return printed, nil
}

// Push pushes the vectors read from r to the configured bench.
func (m *App) Push(ctx context.Context, r io.Reader) (int64, error) {
	pusher, err := transport.NewPusher(m.cfg.Push, transport.WithLog(m.log))
	if err != nil {
		return 0, fmt.Errorf("failed to create pusher: %w", err)
	}

	return pusher.Push(ctx, r)
}

// PushGenerated generates binary vectors in memory and pushes them.
func (m *App) PushGenerated(ctx context.Context) (*Summary, error) {
	output := *m.cfg.Output
	output.Format = vector.FormatBinary

	cfg := *m.cfg
	cfg.Output = &output
	gen := &App{cfg: &cfg, log: m.log}

	buf := &bytes.Buffer{}
	summary, err := gen.Generate(buf)
	if err != nil {
		return summary, err
	}

	if _, err := m.Push(ctx, buf); err != nil {
		return summary, err
	}
	summary.Path = m.cfg.Push.Endpoint

	return summary, nil
}

const (
	ansiReset  = "\x1b[0m"
	ansiCyan   = "\x1b[36m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func colorize(record workload.Record, line string) string {
	color := ansiYellow
	switch {
	case record.Op == workload.OpInsert:
		color = ansiCyan
	case record.Matched:
		color = ansiGreen
	}
	return color + line + ansiReset
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (m *countingWriter) Write(p []byte) (int, error) {
	n, err := m.w.Write(p)
	m.n += int64(n)
	return n, err
}
