package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
)

// ============================================================================
// dacdial-remote - Command-line IPC Client
// ============================================================================
// This tool sends gain commands to the dacdial daemon via IPC.
//
// Usage:
//   dacdial-remote dv-up
//   dacdial-remote av-down 3
//   dacdial-remote set digital -44.0
//
// Options:
//   -socket PATH    Unix domain socket path (default: /tmp/dacdial.sock)
// ============================================================================

// Action types (duplicated from main package for standalone binary)
type Action interface{}

type GainStep struct {
	Quantity string `json:"quantity"`
	Steps    int    `json:"steps"`
}

type SetGain struct {
	Quantity string  `json:"quantity"`
	Value    float64 `json:"value"`
}

// ActionEnvelope wraps actions for JSON
type ActionEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// IPCResponse represents the daemon's response
type IPCResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func main() {
	socketPath := "/tmp/dacdial.sock"

	// Parse arguments
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// Check for -socket flag
	if args[0] == "-socket" || args[0] == "--socket" {
		if len(args) < 2 {
			fmt.Fprintf(os.Stderr, "error: -socket requires an argument\n")
			os.Exit(1)
		}
		socketPath = args[1]
		args = args[2:]
	}

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// Parse command
	var action Action

	switch args[0] {
	case "dv-up":
		action = GainStep{Quantity: "digital", Steps: stepCount(args[1:])}

	case "dv-down":
		action = GainStep{Quantity: "digital", Steps: -stepCount(args[1:])}

	case "av-up":
		action = GainStep{Quantity: "analog", Steps: stepCount(args[1:])}

	case "av-down":
		action = GainStep{Quantity: "analog", Steps: -stepCount(args[1:])}

	case "gain-up":
		action = GainStep{Quantity: "amp", Steps: stepCount(args[1:])}

	case "gain-down":
		action = GainStep{Quantity: "amp", Steps: -stepCount(args[1:])}

	case "set":
		if len(args) < 3 {
			fmt.Fprintf(os.Stderr, "error: set requires a quantity and a value\n")
			os.Exit(1)
		}
		quantity := args[1]
		if quantity != "digital" && quantity != "analog" && quantity != "amp" {
			fmt.Fprintf(os.Stderr, "error: unknown quantity: %s\n", quantity)
			os.Exit(1)
		}
		value, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: invalid value: %v\n", err)
			os.Exit(1)
		}
		action = SetGain{Quantity: quantity, Value: value}

	case "help", "-h", "--help":
		printUsage()
		os.Exit(0)

	default:
		fmt.Fprintf(os.Stderr, "error: unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}

	// Send action
	if err := sendAction(socketPath, action); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("ok")
}

// stepCount parses an optional step count argument, defaulting to 1.
func stepCount(args []string) int {
	if len(args) == 0 {
		return 1
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n <= 0 {
		fmt.Fprintf(os.Stderr, "error: step count must be a positive integer\n")
		os.Exit(1)
	}
	return n
}

func sendAction(socketPath string, action Action) error {
	// Connect to socket
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	// Marshal action
	data, err := marshalAction(action)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}

	// Send action (line-delimited JSON)
	if _, err := fmt.Fprintf(conn, "%s\n", data); err != nil {
		return fmt.Errorf("send action: %w", err)
	}

	// Read response
	var response IPCResponse
	decoder := json.NewDecoder(conn)
	if err := decoder.Decode(&response); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	// Check response status
	if response.Status == "error" {
		return fmt.Errorf("daemon error: %s", response.Error)
	}

	return nil
}

func marshalAction(action Action) ([]byte, error) {
	var env ActionEnvelope

	switch a := action.(type) {
	case GainStep:
		env.Type = "gain_step"
		data, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("marshal GainStep: %w", err)
		}
		env.Data = data

	case SetGain:
		env.Type = "set_gain"
		data, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("marshal SetGain: %w", err)
		}
		env.Data = data

	default:
		return nil, fmt.Errorf("unknown action type: %T", action)
	}

	return json.Marshal(env)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `dacdial-remote - Control the dacdial daemon via IPC

Usage:
  dacdial-remote [options] <command> [args]

Options:
  -socket PATH    Unix domain socket path (default: /tmp/dacdial.sock)

Commands:
  dv-up [n], dv-down [n]        Step digital DAC volume up/down (default 1)
  av-up [n], av-down [n]        Step analog headphone volume up/down
  gain-up [n], gain-down [n]    Step headphone amplifier gain up/down
  set <quantity> <value>        Set a gain quantity to an absolute value;
                                quantity is digital, analog or amp, value
                                is dB (or a gain step count for amp)
  help, -h, --help              Show this help message

Examples:
  dacdial-remote dv-up
  dacdial-remote av-down 3
  dacdial-remote set digital -44.0
  dacdial-remote -socket /var/run/dacdial.sock gain-up
`)
}
