package main

import (
	"fmt"
	"io"
	"log/slog"

	"dacdial/gain"
)

// Codec is the driver collaborator contract the controller needs: a typed
// get/set accessor per gain quantity. Setters accept decibel values (or step
// counts for the driver PGA), may clamp to hardware limits narrower than the
// controller's nominal range, and return the post-write readback.
// *tlv320.Device satisfies it.
type Codec interface {
	DACVolume() (float64, error)
	SetDACVolume(db float64) (float64, error)
	HeadphoneVolume() (float64, error)
	SetHeadphoneVolume(db float64) (float64, error)
	AmpGain() (int, error)
	SetAmpGain(step int) (int, error)
}

// GainState is a snapshot of the three tracked gain values.
type GainState struct {
	DV      float64 `json:"dv"`       // digital DAC channel volume (dB)
	AV      float64 `json:"av"`       // analog headphone volume (dB)
	AmpGain int     `json:"amp_gain"` // headphone driver PGA step
}

// Controller owns the in-memory gain state and maps discrete commands to
// bounded adjustments applied through the codec driver.
//
// State rules:
//   - initialized once from the codec's power-on readback
//   - mutated only here, and only to the value the driver reported back
//     after a successful write (the driver is the source of truth)
//   - a failed write leaves state untouched, so state and hardware never
//     diverge
//
// Not safe for concurrent use; the control loop is the single owner.
type Controller struct {
	codec  Codec
	echo   io.Writer
	logger *slog.Logger

	dvStep float64
	dvMin  float64
	dvMax  float64

	dv  float64
	av  float64
	amp int
}

// NewController reads the codec's current gain values and starts tracking
// from there. maxDV narrows the digital volume ceiling below the hardware
// nominal (+24 dB is far too loud for headphones).
func NewController(codec Codec, echo io.Writer, logger *slog.Logger, dvStep, maxDV float64) (*Controller, error) {
	c := &Controller{
		codec:  codec,
		echo:   echo,
		logger: logger,
		dvStep: dvStep,
		dvMin:  gain.DACVolume.MinDB,
		dvMax:  maxDV,
	}

	var err error
	if c.dv, err = codec.DACVolume(); err != nil {
		return nil, fmt.Errorf("read dac volume: %w", err)
	}
	if c.av, err = codec.HeadphoneVolume(); err != nil {
		return nil, fmt.Errorf("read headphone volume: %w", err)
	}
	if c.amp, err = codec.AmpGain(); err != nil {
		return nil, fmt.Errorf("read amp gain: %w", err)
	}

	return c, nil
}

// Snapshot returns the current gain state.
func (c *Controller) Snapshot() GainState {
	return GainState{DV: c.dv, AV: c.av, AmpGain: c.amp}
}

// Handle dispatches a single console command byte. Unrecognized bytes are
// ignored (stray input, line endings) so a bad keystroke can never take down
// the session. Returns true when gain state changed.
func (c *Controller) Handle(b byte) bool {
	switch b {
	case cmdDigitalUp:
		return c.StepDigital(1)
	case cmdDigitalDown:
		return c.StepDigital(-1)
	case cmdAnalogUp:
		return c.StepAnalog(1)
	case cmdAnalogDown:
		return c.StepAnalog(-1)
	case cmdGainUp:
		return c.StepAmpGain(1)
	case cmdGainDown:
		return c.StepAmpGain(-1)
	default:
		return false
	}
}

// StepDigital moves the digital volume by steps increments of the configured
// dB step size, clamped to [dvMin, dvMax].
func (c *Controller) StepDigital(steps int) bool {
	return c.SetDigital(c.dv + float64(steps)*c.dvStep)
}

// SetDigital requests an absolute digital volume.
func (c *Controller) SetDigital(db float64) bool {
	next := clamp(db, c.dvMin, c.dvMax)
	if next == c.dv {
		return false
	}

	got, err := c.codec.SetDACVolume(next)
	if err != nil {
		c.diag("dv", err)
		return false
	}
	c.dv = got
	fmt.Fprintf(c.echo, "dv = %.1f (%.1f)\n", next, got)
	return true
}

// StepAnalog moves the analog headphone volume by steps table codes. One
// step is one representable point on the Table 6-24 curve: stepping in dB
// would strand the value wherever the curve's spacing exceeds the step
// (the curved segment jumps up to 6.1 dB between adjacent codes).
func (c *Controller) StepAnalog(steps int) bool {
	spec := gain.AnalogVolume
	// Louder = lower code. DBToCode canonicalizes the floor, so stepping up
	// from the minimum always leaves the flat run in one step.
	code := spec.ClampCode(spec.DBToCode(c.av) - steps)
	return c.SetAnalog(spec.CodeToDB(code))
}

// SetAnalog requests an absolute analog headphone volume.
func (c *Controller) SetAnalog(db float64) bool {
	next := gain.AnalogVolume.ClampDB(db)
	if next == c.av {
		return false
	}

	got, err := c.codec.SetHeadphoneVolume(next)
	if err != nil {
		c.diag("av", err)
		return false
	}
	c.av = got
	fmt.Fprintf(c.echo, "av = %.1f (%.1f)\n", next, got)
	return true
}

// StepAmpGain moves the headphone driver PGA by steps 1 dB gain steps,
// clamped to [0, 9].
func (c *Controller) StepAmpGain(steps int) bool {
	return c.SetAmpGain(c.amp + steps)
}

// SetAmpGain requests an absolute driver PGA gain step.
func (c *Controller) SetAmpGain(step int) bool {
	next := gain.AmpGain.ClampCode(step)
	if next == c.amp {
		return false
	}

	got, err := c.codec.SetAmpGain(next)
	if err != nil {
		c.diag("gain", err)
		return false
	}
	c.amp = got
	fmt.Fprintf(c.echo, "gain = %d (%d)\n", next, got)
	return true
}

// diag surfaces a hardware write failure on the console and in the log.
// Write failures are recoverable: state stays as it was and the loop
// continues.
func (c *Controller) diag(quantity string, err error) {
	fmt.Fprintf(c.echo, "%s write failed: %v\n", quantity, err)
	c.logger.Warn("codec write failed", "quantity", quantity, "error", err)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
