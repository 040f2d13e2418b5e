// Package lock provides a cross-process writer lock using flock(2) to
// protect mutations of /run/switchd/... state. One writer at a time:
// either the daemon, or a single embedded client.
//
// Design principle: "illegal states unrepresentable". A non-forgeable
// scope token proves the lock is held; code paths that need exclusive
// write access can demand the token and the compiler enforces it.
//
// There are two ways to hold the lock:
//
//  1. Run(...) executes a function under the lock and hands it a
//     WriterScope capability. Used by the daemon, which holds the
//     lock for its whole serving life.
//  2. Acquire(...) returns a closeable Held for callers whose hold
//     does not fit a callback, such as an embedded client owning the
//     lock between Open and Close.
package lock

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// WriterScope represents the dynamic execution region in which the
// writer lock is held.
//
// Possession of a WriterScope is proof of exclusive write access to
// the runtime state. It is a capability, not a mutex: callers cannot
// construct, lock, or unlock one. The unexported marker method keeps
// implementations inside this package.
type WriterScope interface {
	// FD returns the raw lock file descriptor for diagnostics.
	FD() int

	writerScopeMarker()
}

type writerScope struct {
	f *os.File
}

func (*writerScope) writerScopeMarker() {}

func (s *writerScope) FD() int {
	return int(s.f.Fd())
}

// Run acquires the writer lock, executes fn, then releases. The
// WriterScope proves to callees that the lock is held for the
// duration of fn.
func Run(ctx context.Context, lockPath string, fn func(context.Context, WriterScope) error) error {
	f, err := acquireWriter(ctx, lockPath)
	if err != nil {
		return err
	}
	defer f.Close()

	return fn(ctx, &writerScope{f: f})
}

// Held is a writer lock owned for an open-ended span, released with
// Close. Unlike WriterScope it is closeable, because the holder
// genuinely owns the fd for its lifetime.
type Held struct {
	f *os.File
}

// Acquire takes the writer lock and returns it as a Held. Blocks
// until the lock is free or ctx is done.
func Acquire(ctx context.Context, lockPath string) (*Held, error) {
	f, err := acquireWriter(ctx, lockPath)
	if err != nil {
		return nil, err
	}
	return &Held{f: f}, nil
}

// Close releases the lock. Safe on a nil receiver.
func (l *Held) Close() error {
	if l == nil || l.f == nil {
		return nil
	}
	return l.f.Close()
}

// FD returns the raw lock file descriptor for diagnostics.
func (l *Held) FD() int {
	return int(l.f.Fd())
}

// acquireWriter opens the lock file and takes an exclusive flock.
// Uses LOCK_EX|LOCK_NB with exponential backoff so ctx cancellation
// is honoured while waiting.
func acquireWriter(ctx context.Context, path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	backoff := 25 * time.Millisecond
	const maxBackoff = 500 * time.Millisecond

	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return f, nil
		}
		if err != unix.EWOULDBLOCK {
			f.Close()
			return nil, fmt.Errorf("flock: %w", err)
		}

		select {
		case <-ctx.Done():
			f.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}

		if backoff < maxBackoff {
			backoff *= 2
		}
	}
}
