package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"
)

// ErrAlreadyRunning means another daemon answers on the control socket.
var ErrAlreadyRunning = errors.New("dictaform daemon already running")

// RuntimeSocketPath returns $DICTAFORM_SOCKET, else $XDG_RUNTIME_DIR/dictaform.sock.
func RuntimeSocketPath() (string, error) {
	if explicit := strings.TrimSpace(os.Getenv("DICTAFORM_SOCKET")); explicit != "" {
		return explicit, nil
	}
	runtimeDir := strings.TrimSpace(os.Getenv("XDG_RUNTIME_DIR"))
	if runtimeDir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(runtimeDir, "dictaform.sock"), nil
}

// AcquireOptions tunes stale-socket recovery.
type AcquireOptions struct {
	ProbeTimeout time.Duration
	Retries      int
}

// Socket is a control socket owned by this process.
type Socket struct {
	net.Listener
	Path string
}

// Close stops listening and unlinks the socket file.
func (s *Socket) Close() error {
	err := s.Listener.Close()
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	if rmErr := os.Remove(s.Path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		err = errors.Join(err, rmErr)
	}
	return err
}

// Acquire binds the control socket at path. A socket file left behind by a
// dead daemon is unlinked and the bind retried; a responsive owner yields
// ErrAlreadyRunning. A socket whose owner neither answers nor refuses is
// left in place.
func Acquire(ctx context.Context, path string, opts AcquireOptions) (*Socket, error) {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 200 * time.Millisecond
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}

	backoff := 25 * time.Millisecond
	for attempt := 0; attempt <= opts.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		lis, err := net.Listen("unix", path)
		if err == nil {
			_ = os.Chmod(path, 0o600)
			return &Socket{Listener: lis, Path: path}, nil
		}
		if !errors.Is(err, syscall.EADDRINUSE) {
			return nil, fmt.Errorf("listen unix %s: %w", path, err)
		}

		alive, err := Probe(ctx, path, opts.ProbeTimeout)
		switch {
		case alive:
			return nil, ErrAlreadyRunning
		case err != nil:
			return nil, fmt.Errorf("probe existing socket %s: %w", path, err)
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale socket %s: %w", path, err)
		}
	}
	return nil, fmt.Errorf("acquire socket %s: still in use after %d retries", path, opts.Retries)
}
