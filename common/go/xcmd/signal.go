package xcmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Interrupted is returned when the process receives a termination signal.
type Interrupted struct {
	os.Signal
}

func (m Interrupted) Error() string {
	return "interrupted by " + m.String()
}

// IsInterrupted reports whether err is caused by a termination signal.
func IsInterrupted(err error) bool {
	var interrupted Interrupted
	return errors.As(err, &interrupted)
}

// WaitInterrupted blocks until either SIGINT or SIGTERM signal is received or
// the provided context is canceled.
func WaitInterrupted(ctx context.Context) error {
	ch := make(chan os.Signal, 1)

	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(ch)

	select {
	case v := <-ch:
		return Interrupted{Signal: v}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunInterruptible runs fn until it returns or a termination signal
// arrives, in which case the context passed to fn is canceled and an
// Interrupted error is returned.
func RunInterruptible(ctx context.Context, log *zap.SugaredLogger, fn func(ctx context.Context) error) error {
	// Lets the signal watcher exit once fn is done.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg, ctx := errgroup.WithContext(ctx)
	wg.Go(func() error {
		defer cancel()
		return fn(ctx)
	})
	wg.Go(func() error {
		err := WaitInterrupted(ctx)
		if IsInterrupted(err) {
			log.Infof("caught signal: %v", err)
			return err
		}
		return nil
	})

	return wg.Wait()
}
