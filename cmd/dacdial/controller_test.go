package main

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"dacdial/gain"
)

// mockCodec stands in for the tlv320 driver. Setters quantize to the
// hardware grid the way the real driver does and return the readback value.
type mockCodec struct {
	dv  float64
	av  float64
	amp int

	dvWrites  int
	avWrites  int
	ampWrites int

	failWrites bool

	// dvCeiling, when non-nil, models a hardware limit narrower than the
	// controller's nominal range.
	dvCeiling *float64
}

var errMockWrite = errors.New("i2c write failed")

func (m *mockCodec) DACVolume() (float64, error) { return m.dv, nil }

func (m *mockCodec) SetDACVolume(db float64) (float64, error) {
	if m.failWrites {
		return 0, errMockWrite
	}
	m.dvWrites++
	if m.dvCeiling != nil && db > *m.dvCeiling {
		db = *m.dvCeiling
	}
	m.dv = gain.DACVolume.CodeToDB(gain.DACVolume.DBToCode(db))
	return m.dv, nil
}

func (m *mockCodec) HeadphoneVolume() (float64, error) { return m.av, nil }

func (m *mockCodec) SetHeadphoneVolume(db float64) (float64, error) {
	if m.failWrites {
		return 0, errMockWrite
	}
	m.avWrites++
	m.av = gain.AnalogVolume.CodeToDB(gain.AnalogVolume.DBToCode(db))
	return m.av, nil
}

func (m *mockCodec) AmpGain() (int, error) { return m.amp, nil }

func (m *mockCodec) SetAmpGain(step int) (int, error) {
	if m.failWrites {
		return 0, errMockWrite
	}
	m.ampWrites++
	m.amp = gain.AmpGain.ClampCode(step)
	return m.amp, nil
}

func testLogger() *slog.Logger {
	return setupLogger(io.Discard, slog.LevelError)
}

// newTestController wires a controller to the mock with the default step
// size and ceiling, echoing into the returned buffer.
func newTestController(t *testing.T, codec *mockCodec) (*Controller, *bytes.Buffer) {
	t.Helper()
	var echo bytes.Buffer
	ctrl, err := NewController(codec, &echo, testLogger(), defaultDVStepDB, defaultMaxDV)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	return ctrl, &echo
}

func TestController_InitFromReadback(t *testing.T) {
	codec := &mockCodec{dv: -58.0, av: gain.AnalogVolume.CodeToDB(gain.AnalogVolume.DBToCode(-64.0)), amp: 2}
	ctrl, _ := newTestController(t, codec)

	got := ctrl.Snapshot()
	if got.DV != codec.dv || got.AV != codec.av || got.AmpGain != codec.amp {
		t.Errorf("Snapshot() = %+v, want dv=%v av=%v amp=%v", got, codec.dv, codec.av, codec.amp)
	}
}

func TestController_DigitalStep(t *testing.T) {
	codec := &mockCodec{dv: -58.0}
	ctrl, echo := newTestController(t, codec)

	if !ctrl.Handle(cmdDigitalUp) {
		t.Fatal("Handle('D') = false, want state change")
	}
	if got := ctrl.Snapshot().DV; got != -57.5 {
		t.Errorf("DV after up = %v, want -57.5", got)
	}
	if want := "dv = -57.5 (-57.5)\n"; echo.String() != want {
		t.Errorf("echo = %q, want %q", echo.String(), want)
	}

	if !ctrl.Handle(cmdDigitalDown) {
		t.Fatal("Handle('d') = false, want state change")
	}
	if got := ctrl.Snapshot().DV; got != -58.0 {
		t.Errorf("DV after down = %v, want -58.0", got)
	}
	if codec.dvWrites != 2 {
		t.Errorf("dvWrites = %d, want 2", codec.dvWrites)
	}
}

func TestController_DigitalClampAtCeiling(t *testing.T) {
	codec := &mockCodec{dv: defaultMaxDV}
	ctrl, echo := newTestController(t, codec)

	if ctrl.Handle(cmdDigitalUp) {
		t.Error("Handle('D') at ceiling = true, want no state change")
	}
	if codec.dvWrites != 0 {
		t.Errorf("dvWrites = %d, want 0 (no-op must not touch hardware)", codec.dvWrites)
	}
	if echo.Len() != 0 {
		t.Errorf("echo = %q, want empty", echo.String())
	}
}

func TestController_DigitalClampAtFloor(t *testing.T) {
	codec := &mockCodec{dv: gain.DACVolume.MinDB}
	ctrl, _ := newTestController(t, codec)

	if ctrl.Handle(cmdDigitalDown) {
		t.Error("Handle('d') at floor = true, want no state change")
	}
	if codec.dvWrites != 0 {
		t.Errorf("dvWrites = %d, want 0", codec.dvWrites)
	}
}

func TestController_DigitalSetClampsRequest(t *testing.T) {
	codec := &mockCodec{dv: -58.0}
	ctrl, _ := newTestController(t, codec)

	if !ctrl.SetDigital(40.0) {
		t.Fatal("SetDigital(40.0) = false, want clamp to ceiling")
	}
	if got := ctrl.Snapshot().DV; got != defaultMaxDV {
		t.Errorf("DV = %v, want ceiling %v", got, defaultMaxDV)
	}
}

func TestController_AnalogStepsByTableCode(t *testing.T) {
	spec := gain.AnalogVolume

	// Start on the curved segment, where adjacent codes are several dB
	// apart. One keystroke must move exactly one code.
	start := spec.CodeToDB(110)
	codec := &mockCodec{av: start}
	ctrl, _ := newTestController(t, codec)

	if !ctrl.Handle(cmdAnalogUp) {
		t.Fatal("Handle('A') = false, want state change")
	}
	if got, want := ctrl.Snapshot().AV, spec.CodeToDB(109); got != want {
		t.Errorf("AV after up = %v, want %v (code 109)", got, want)
	}

	if !ctrl.Handle(cmdAnalogDown) {
		t.Fatal("Handle('a') = false, want state change")
	}
	if got := ctrl.Snapshot().AV; got != start {
		t.Errorf("AV after down = %v, want %v (back to code 110)", got, start)
	}
}

func TestController_AnalogLeavesFloorInOneStep(t *testing.T) {
	spec := gain.AnalogVolume
	codec := &mockCodec{av: spec.MinDB}
	ctrl, _ := newTestController(t, codec)

	if !ctrl.Handle(cmdAnalogUp) {
		t.Fatal("Handle('A') at floor = false, want state change")
	}
	if got, want := ctrl.Snapshot().AV, spec.CodeToDB(gain.FloorCode-1); got != want {
		t.Errorf("AV = %v, want %v (one code above the flat run)", got, want)
	}
}

func TestController_AnalogAtMinNoOp(t *testing.T) {
	codec := &mockCodec{av: gain.AnalogVolume.MinDB}
	ctrl, _ := newTestController(t, codec)

	if ctrl.Handle(cmdAnalogDown) {
		t.Error("Handle('a') at floor = true, want no state change")
	}
	if codec.avWrites != 0 {
		t.Errorf("avWrites = %d, want 0", codec.avWrites)
	}
}

func TestController_AnalogAtMaxNoOp(t *testing.T) {
	codec := &mockCodec{av: gain.AnalogVolume.MaxDB}
	ctrl, _ := newTestController(t, codec)

	if ctrl.Handle(cmdAnalogUp) {
		t.Error("Handle('A') at max = true, want no state change")
	}
	if codec.avWrites != 0 {
		t.Errorf("avWrites = %d, want 0", codec.avWrites)
	}
}

func TestController_AmpGainStepAndClamp(t *testing.T) {
	codec := &mockCodec{}
	ctrl, echo := newTestController(t, codec)

	if !ctrl.Handle(cmdGainUp) {
		t.Fatal("Handle('G') = false, want state change")
	}
	if got := ctrl.Snapshot().AmpGain; got != 1 {
		t.Errorf("AmpGain = %d, want 1", got)
	}
	if want := "gain = 1 (1)\n"; echo.String() != want {
		t.Errorf("echo = %q, want %q", echo.String(), want)
	}

	if ctrl.Handle(cmdGainDown) != true {
		t.Fatal("Handle('g') = false, want state change")
	}
	if ctrl.Handle(cmdGainDown) {
		t.Error("Handle('g') at 0 = true, want no state change")
	}

	codec.amp = gain.AmpGain.MaxCode
	ctrl2, _ := newTestController(t, codec)
	if ctrl2.Handle(cmdGainUp) {
		t.Error("Handle('G') at max = true, want no state change")
	}
}

func TestController_WriteFailureLeavesState(t *testing.T) {
	codec := &mockCodec{dv: -58.0, av: -20.1, amp: 3}
	ctrl, echo := newTestController(t, codec)
	before := ctrl.Snapshot()

	codec.failWrites = true
	for _, b := range []byte{cmdDigitalUp, cmdAnalogDown, cmdGainUp} {
		if ctrl.Handle(b) {
			t.Errorf("Handle(%q) with failing codec = true, want false", b)
		}
	}
	if got := ctrl.Snapshot(); got != before {
		t.Errorf("state after failed writes = %+v, want unchanged %+v", got, before)
	}
	if !strings.Contains(echo.String(), "write failed") {
		t.Errorf("echo = %q, want write-failure diagnostic", echo.String())
	}
}

func TestController_ReadbackIsAuthoritative(t *testing.T) {
	ceiling := -10.0
	codec := &mockCodec{dv: -58.0, dvCeiling: &ceiling}
	ctrl, _ := newTestController(t, codec)

	if !ctrl.SetDigital(-5.0) {
		t.Fatal("SetDigital(-5.0) = false, want state change")
	}
	if got := ctrl.Snapshot().DV; got != ceiling {
		t.Errorf("DV = %v, want hardware readback %v", got, ceiling)
	}
}

func TestController_UnknownByteIgnored(t *testing.T) {
	codec := &mockCodec{dv: -58.0}
	ctrl, echo := newTestController(t, codec)

	for _, b := range []byte{'x', 'q', '\n', '\r', 0x1B, ' '} {
		if ctrl.Handle(b) {
			t.Errorf("Handle(%#x) = true, want false", b)
		}
	}
	if codec.dvWrites+codec.avWrites+codec.ampWrites != 0 {
		t.Error("unknown bytes must not touch hardware")
	}
	if echo.Len() != 0 {
		t.Errorf("echo = %q, want empty", echo.String())
	}
}
