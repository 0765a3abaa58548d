package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// Config describes the test bench endpoint vectors are pushed to.
type Config struct {
	// Endpoint is the TCP address of the bench, host:port.
	Endpoint string `yaml:"endpoint"`
	// DialTimeout bounds a single connection attempt.
	DialTimeout time.Duration `yaml:"dial_timeout"`
	// MaxInterval caps the delay between connection attempts.
	MaxInterval time.Duration `yaml:"max_interval"`
	// MaxTries is the number of connection attempts, 0 means unbounded.
	MaxTries uint `yaml:"max_tries"`
	// BufferSize is the size of the write buffer.
	BufferSize datasize.ByteSize `yaml:"buffer_size"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:    "127.0.0.1:6000",
		DialTimeout: 5 * time.Second,
		MaxInterval: 30 * time.Second,
		MaxTries:    10,
		BufferSize:  64 * datasize.KB,
	}
}

type options struct {
	Log *zap.SugaredLogger
}

func newOptions() *options {
	return &options{
		Log: zap.NewNop().Sugar(),
	}
}

// PusherOption is a function that configures the Pusher.
type PusherOption func(*options)

// WithLog sets the logger for the Pusher.
func WithLog(log *zap.SugaredLogger) PusherOption {
	return func(o *options) {
		o.Log = log
	}
}

// Pusher streams vector files to a test bench over TCP.
type Pusher struct {
	cfg *Config
	log *zap.SugaredLogger
}

// NewPusher creates a new Pusher.
func NewPusher(cfg *Config, options ...PusherOption) (*Pusher, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if _, _, err := net.SplitHostPort(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid endpoint %q: %w", cfg.Endpoint, err)
	}

	opts := newOptions()
	for _, o := range options {
		o(opts)
	}

	return &Pusher{
		cfg: cfg,
		log: opts.Log,
	}, nil
}

// dial connects to the endpoint, retrying with exponential backoff.
func (m *Pusher) dial(ctx context.Context) (net.Conn, error) {
	dialer := net.Dialer{Timeout: m.cfg.DialTimeout}

	attempt := 0
	operation := func() (net.Conn, error) {
		attempt++
		conn, err := dialer.DialContext(ctx, "tcp", m.cfg.Endpoint)
		if err != nil {
			if ctx.Err() != nil {
				return nil, backoff.Permanent(ctx.Err())
			}
			return nil, err
		}
		return conn, nil
	}

	maxInterval := m.cfg.MaxInterval
	if maxInterval <= 0 {
		maxInterval = backoff.DefaultMaxInterval
	}

	opts := []backoff.RetryOption{
		backoff.WithBackOff(&backoff.ExponentialBackOff{
			InitialInterval:     100 * time.Millisecond,
			RandomizationFactor: backoff.DefaultRandomizationFactor,
			Multiplier:          backoff.DefaultMultiplier,
			MaxInterval:         maxInterval,
		}),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			m.log.Warnw("failed to connect to the bench, retrying",
				zap.String("endpoint", m.cfg.Endpoint),
				zap.Int("attempt", attempt),
				zap.Duration("next", next),
				zap.Error(err),
			)
		}),
	}
	if m.cfg.MaxTries > 0 {
		opts = append(opts, backoff.WithMaxTries(m.cfg.MaxTries))
	}

	conn, err := backoff.Retry(ctx, operation, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s after %d attempt(s): %w", m.cfg.Endpoint, attempt, err)
	}

	return conn, nil
}

// Push streams everything from r to the bench.
//
// After the payload is written the write side is shut down and Push waits
// for the bench to close the connection, which acknowledges that the
// whole stream was consumed. Only connecting is retried: a stream that
// fails midway is reported, since r may not be rewound.
func (m *Pusher) Push(ctx context.Context, r io.Reader) (int64, error) {
	conn, err := m.dial(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	m.log.Infow("connected to the bench", zap.Stringer("remote", conn.RemoteAddr()))

	w := bufio.NewWriterSize(conn, int(m.cfg.BufferSize.Bytes()))
	n, err := io.Copy(w, r)
	if err == nil {
		err = w.Flush()
	}
	if err != nil {
		return n, m.streamErr(ctx, "failed to stream vectors", err)
	}

	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.CloseWrite(); err != nil {
			return n, m.streamErr(ctx, "failed to shut down the write side", err)
		}
	}

	if _, err := io.Copy(io.Discard, conn); err != nil {
		return n, m.streamErr(ctx, "failed to wait for the bench", err)
	}

	m.log.Infow("vectors pushed", zap.Stringer("size", datasize.ByteSize(n)))
	return n, nil
}

func (m *Pusher) streamErr(ctx context.Context, msg string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, net.ErrClosed) {
		err = ctxErr
	}
	return fmt.Errorf("%s: %w", msg, err)
}
