package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
)

// ============================================================================
// IPC Server - Unix Domain Socket Interface
// ============================================================================
// The IPC server lets external clients adjust gain without sitting at the
// daemon's console:
//   - dacdial-remote command-line client
//   - scripting and automation (desk volume keys, home automation)
//
// Protocol: line-delimited JSON
//   - Client sends: {"type": "gain_step", "data": {...}}
//   - Server responds: {"status": "ok"} or {"status": "error", "error": "msg"}
//
// Accepted actions are queued to the control loop, which applies them
// through the same clamp-write-readback path as keystrokes.
// ============================================================================

// IPCResponse represents the response sent back to IPC clients
type IPCResponse struct {
	Status string `json:"status"`          // "ok" or "error"
	Error  string `json:"error,omitempty"` // error message if status == "error"
}

// runIPCServer starts the Unix domain socket server. It runs until ctx is
// canceled, at which point it closes the listener and exits.
func runIPCServer(ctx context.Context, socketPath string, actions chan<- Action, logger *slog.Logger) error {
	// Remove existing socket file if it exists
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer listener.Close()
	defer os.Remove(socketPath)

	if err := os.Chmod(socketPath, 0666); err != nil {
		return fmt.Errorf("chmod socket: %w", err)
	}

	logger.Info("IPC listening", "socket", socketPath)

	// Close the listener on shutdown. This unblocks Accept().
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				logger.Debug("IPC listener closed (shutdown)")
				return nil
			}
			// Some platforms return net.ErrClosed; keep this defensive.
			if errors.Is(err, net.ErrClosed) || strings.Contains(err.Error(), "use of closed network connection") {
				logger.Debug("IPC listener closed")
				return nil
			}

			logger.Error("IPC accept error", "error", err)
			continue
		}

		go handleIPCConnection(conn, actions, logger)
	}
}

// handleIPCConnection handles a single IPC client connection
func handleIPCConnection(conn net.Conn, actions chan<- Action, logger *slog.Logger) {
	defer conn.Close()

	logger.Debug("IPC connection", "remote_addr", conn.RemoteAddr())

	scanner := bufio.NewScanner(conn)
	encoder := json.NewEncoder(conn)

	respond := func(resp IPCResponse) {
		if err := encoder.Encode(resp); err != nil {
			logger.Error("IPC failed to send response", "error", err)
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		logger.Debug("IPC received", "line", line)

		act, err := UnmarshalAction([]byte(line))
		if err != nil {
			respond(IPCResponse{Status: "error", Error: fmt.Sprintf("parse action: %v", err)})
			continue
		}
		if err := validateAction(act); err != nil {
			respond(IPCResponse{Status: "error", Error: err.Error()})
			continue
		}

		// Queue for the control loop; never block the socket handler.
		select {
		case actions <- act:
			respond(IPCResponse{Status: "ok"})
		default:
			respond(IPCResponse{Status: "error", Error: "action queue full"})
		}
	}

	logger.Debug("IPC connection closed")
}

// validateAction rejects actions the control loop would silently drop, so
// clients get a useful error instead of a no-op.
func validateAction(a Action) error {
	switch a := a.(type) {
	case GainStep:
		if !validQuantity(a.Quantity) {
			return fmt.Errorf("unknown quantity: %q", a.Quantity)
		}
		if a.Steps == 0 {
			return errors.New("steps must be non-zero")
		}
	case SetGain:
		if !validQuantity(a.Quantity) {
			return fmt.Errorf("unknown quantity: %q", a.Quantity)
		}
	}
	return nil
}

// SendIPCAction sends an action to the daemon via IPC and checks the
// response. Used by tests and external programs.
func SendIPCAction(socketPath string, a Action) error {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	data, err := MarshalAction(a)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}

	if _, err := fmt.Fprintf(conn, "%s\n", strings.TrimSpace(string(data))); err != nil {
		return fmt.Errorf("send action: %w", err)
	}

	decoder := json.NewDecoder(conn)
	var resp IPCResponse
	if err := decoder.Decode(&resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.Status != "ok" {
		return fmt.Errorf("ipc error: %s", resp.Error)
	}

	return nil
}
