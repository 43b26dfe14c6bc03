//go:build linux

package main

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Console is the keystroke source for the control loop: a raw-mode tty with
// a non-blocking "bytes available" check and a blocking single-byte read
// (used only after availability is confirmed).
type Console struct {
	f     *os.File
	saved *unix.Termios // nil when the input is not a tty
	buf   [1]byte
}

// OpenConsole puts the file (normally stdin) into raw-ish mode: canonical
// line buffering and local echo off, so single keystrokes arrive without a
// newline. Non-tty inputs (pipes, redirects) are left untouched and still
// work through Poll/ReadByte.
func OpenConsole(f *os.File) (*Console, error) {
	c := &Console{f: f}

	fd := int(f.Fd())
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		// Not a tty; polling a pipe works fine without termios.
		return c, nil
	}

	raw := *t
	raw.Lflag &^= unix.ICANON | unix.ECHO
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return nil, fmt.Errorf("set raw mode: %w", err)
	}

	c.saved = t
	return c, nil
}

// Available reports whether at least one byte can be read without blocking.
func (c *Console) Available() (bool, error) {
	fds := []unix.PollFd{{Fd: int32(c.f.Fd()), Events: unix.POLLIN}}

	n, err := unix.Poll(fds, 0)
	if err != nil {
		// A signal during poll is not an error; the loop retries next tick.
		if err == unix.EINTR {
			return false, nil
		}
		return false, fmt.Errorf("poll %s: %w", c.f.Name(), err)
	}
	if n == 0 {
		return false, nil
	}
	if fds[0].Revents&(unix.POLLERR|unix.POLLHUP|unix.POLLNVAL) != 0 {
		return false, fmt.Errorf("console closed: %s", c.f.Name())
	}
	return fds[0].Revents&unix.POLLIN != 0, nil
}

// ReadByte reads one byte. It blocks, so call it only after Available
// reported true.
func (c *Console) ReadByte() (byte, error) {
	n, err := c.f.Read(c.buf[:1])
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("console read returned no data")
	}
	return c.buf[0], nil
}

// Close restores the saved terminal attributes.
func (c *Console) Close() error {
	if c.saved == nil {
		return nil
	}
	return unix.IoctlSetTermios(int(c.f.Fd()), unix.TCSETS, c.saved)
}
