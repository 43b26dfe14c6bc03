package main

import (
	"encoding/json"
	"fmt"
)

// Actions represent intent arriving from outside the console: the IPC
// socket and the dacdial-remote client. The control loop consumes them
// through the same clamp-write-readback path as keystrokes.
//
// Go has no union types, so the wire format is a JSON envelope with a type
// discriminator.

// Action is a marker interface for control-loop commands.
type Action interface {
	actionMarker()
}

// Gain quantity selectors shared by all actions.
const (
	QuantityDigital = "digital"
	QuantityAnalog  = "analog"
	QuantityAmp     = "amp"
)

// GainStep adjusts one gain quantity by a number of steps (positive = up).
// Digital steps are the configured dB step; analog steps are table codes;
// amp steps are PGA gain steps.
type GainStep struct {
	Quantity string `json:"quantity"`
	Steps    int    `json:"steps"`
}

func (GainStep) actionMarker() {}

// SetGain sets one gain quantity to an absolute value (dB, or a PGA step
// count for "amp"). Values outside the nominal range saturate.
type SetGain struct {
	Quantity string  `json:"quantity"`
	Value    float64 `json:"value"`
}

func (SetGain) actionMarker() {}

// ActionEnvelope wraps an action with a type discriminator for JSON.
type ActionEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// UnmarshalAction deserializes a JSON envelope into a concrete Action.
func UnmarshalAction(data []byte) (Action, error) {
	var env ActionEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	switch env.Type {
	case "gain_step":
		var a GainStep
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return nil, fmt.Errorf("unmarshal GainStep: %w", err)
		}
		return a, nil

	case "set_gain":
		var a SetGain
		if err := json.Unmarshal(env.Data, &a); err != nil {
			return nil, fmt.Errorf("unmarshal SetGain: %w", err)
		}
		return a, nil

	default:
		return nil, fmt.Errorf("unknown action type: %q", env.Type)
	}
}

// MarshalAction serializes an Action into a JSON envelope.
func MarshalAction(action Action) ([]byte, error) {
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
		return nil, fmt.Errorf("unsupported action type: %T", action)
	}

	return json.Marshal(env)
}

// validQuantity reports whether q names one of the three gain quantities.
func validQuantity(q string) bool {
	switch q {
	case QuantityDigital, QuantityAnalog, QuantityAmp:
		return true
	}
	return false
}
