package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

// Send opens a unix-socket request/response roundtrip with a deadline.
func Send(ctx context.Context, path string, req Request, timeout time.Duration) (Response, error) {
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return Response{}, err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return Response{}, fmt.Errorf("set deadline: %w", err)
	}

	if err := writeLine(conn, req); err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}

	var resp Response
	if err := readLine(bufio.NewReader(conn), "response", &resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}

// Forward sends req and folds a daemon-side failure into the error.
// handled is false when no daemon owns the socket.
func Forward(ctx context.Context, path string, req Request, timeout time.Duration) (resp Response, handled bool, err error) {
	resp, err = Send(ctx, path, req, timeout)
	if err != nil {
		if IsNotRunning(err) {
			return Response{}, false, nil
		}
		return Response{}, true, fmt.Errorf("forward command %q: %w", req.Command, err)
	}
	if !resp.OK {
		return resp, true, errors.New(resp.Error)
	}
	return resp, true, nil
}

// Probe checks whether a responsive owner is currently listening on path.
func Probe(ctx context.Context, path string, timeout time.Duration) (bool, error) {
	_, err := Send(ctx, path, Request{Command: CommandStatus}, timeout)
	if err == nil {
		return true, nil
	}
	if IsNotRunning(err) {
		return false, nil
	}
	return false, fmt.Errorf("probe socket: %w", err)
}

// IsNotRunning reports dial failures that mean nobody owns the socket.
func IsNotRunning(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED)
}
