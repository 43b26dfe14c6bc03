package main

import (
	"testing"
)

func TestActionRoundTrip(t *testing.T) {
	actions := []Action{
		GainStep{Quantity: QuantityDigital, Steps: 2},
		GainStep{Quantity: QuantityAnalog, Steps: -1},
		SetGain{Quantity: QuantityAmp, Value: 4},
		SetGain{Quantity: QuantityDigital, Value: -44.0},
	}

	for _, want := range actions {
		data, err := MarshalAction(want)
		if err != nil {
			t.Fatalf("MarshalAction(%+v): %v", want, err)
		}
		got, err := UnmarshalAction(data)
		if err != nil {
			t.Fatalf("UnmarshalAction(%s): %v", data, err)
		}
		if got != want {
			t.Errorf("round trip %s: got %+v, want %+v", data, got, want)
		}
	}
}

func TestUnmarshalAction_UnknownType(t *testing.T) {
	if _, err := UnmarshalAction([]byte(`{"type":"mute","data":{}}`)); err == nil {
		t.Error("UnmarshalAction with unknown type: want error, got nil")
	}
	if _, err := UnmarshalAction([]byte(`not json`)); err == nil {
		t.Error("UnmarshalAction with bad JSON: want error, got nil")
	}
}

func TestValidateAction(t *testing.T) {
	if err := validateAction(GainStep{Quantity: QuantityAnalog, Steps: 1}); err != nil {
		t.Errorf("valid GainStep rejected: %v", err)
	}
	if err := validateAction(GainStep{Quantity: "loudness", Steps: 1}); err == nil {
		t.Error("GainStep with unknown quantity: want error, got nil")
	}
	if err := validateAction(GainStep{Quantity: QuantityDigital, Steps: 0}); err == nil {
		t.Error("GainStep with zero steps: want error, got nil")
	}
	if err := validateAction(SetGain{Quantity: "volume", Value: -10}); err == nil {
		t.Error("SetGain with unknown quantity: want error, got nil")
	}
}
