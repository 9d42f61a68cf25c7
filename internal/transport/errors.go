package transport

import (
	"errors"
	"fmt"
)

// ConnectError reports a failed dial to the receiving service.
type ConnectError struct {
	Addr string
	Err  error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to %s: %v", e.Addr, e.Err)
}

func (e *ConnectError) Unwrap() error {
	return e.Err
}

// SendError reports a failed write on an established session.
type SendError struct {
	Addr string
	Err  error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("failed to send to %s: %v", e.Addr, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// IsConnectError reports whether err is or wraps a ConnectError.
func IsConnectError(err error) bool {
	var ce *ConnectError
	return errors.As(err, &ce)
}

// IsSendError reports whether err is or wraps a SendError.
func IsSendError(err error) bool {
	var se *SendError
	return errors.As(err, &se)
}

func errShortWrite(n, want int) error {
	return fmt.Errorf("short write: %d of %d bytes", n, want)
}
