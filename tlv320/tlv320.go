// Package tlv320 drives the Texas Instruments TLV320DAC3100 stereo DAC over
// I2C: clock-tree and datapath bring-up, output routing, and typed get/set
// accessors for the three gain quantities the chip exposes (digital DAC
// channel volume, analog headphone/speaker volume, headphone driver PGA).
//
// Setters clamp into the hardware range, write both channels, then read the
// register back and return the decoded readback. Callers should treat that
// readback as the value actually in effect.
package tlv320

import (
	"fmt"
	"log/slog"

	"github.com/d2r2/go-i2c"
	"github.com/d2r2/go-logger"

	"dacdial/gain"
)

// DefaultAddr is the chip's fixed 7-bit I2C address.
const DefaultAddr = 0x18

// Bus is the register-level transport the driver needs. *i2c.I2C satisfies
// it; tests substitute a fake.
type Bus interface {
	ReadRegU8(reg byte) (byte, error)
	WriteRegU8(reg byte, value byte) error
	Close() error
}

// Device is a TLV320DAC3100 on an I2C bus.
//
// Methods are not safe for concurrent use; the control loop is the single
// owner (page selection is stateful on the chip).
type Device struct {
	bus    Bus
	logger *slog.Logger
	page   byte // last page written to regPageSelect
}

// Open connects to the codec on the given Linux I2C bus number.
func Open(busNr int, addr uint8, log *slog.Logger) (*Device, error) {
	// The d2r2 i2c package logs every transfer at debug by default; keep it
	// at info so register traffic doesn't drown the daemon's own logs.
	_ = logger.ChangePackageLogLevel("i2c", logger.InfoLevel)

	bus, err := i2c.NewI2C(addr, busNr)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %d addr 0x%02X: %w", busNr, addr, err)
	}
	return New(bus, log), nil
}

// New wraps an already-open bus. The page cache starts out unknown, so the
// first register access always selects its page explicitly.
func New(bus Bus, log *slog.Logger) *Device {
	return &Device{bus: bus, logger: log, page: 0xFF}
}

// Close releases the underlying bus.
func (d *Device) Close() error {
	return d.bus.Close()
}

func (d *Device) setPage(page byte) error {
	if d.page == page {
		return nil
	}
	if err := d.bus.WriteRegU8(regPageSelect, page); err != nil {
		return fmt.Errorf("select page %d: %w", page, err)
	}
	d.page = page
	return nil
}

func (d *Device) writeReg(page, reg, value byte) error {
	if err := d.setPage(page); err != nil {
		return err
	}
	if err := d.bus.WriteRegU8(reg, value); err != nil {
		return fmt.Errorf("write p%d/0x%02X: %w", page, reg, err)
	}
	return nil
}

func (d *Device) readReg(page, reg byte) (byte, error) {
	if err := d.setPage(page); err != nil {
		return 0, err
	}
	v, err := d.bus.ReadRegU8(reg)
	if err != nil {
		return 0, fmt.Errorf("read p%d/0x%02X: %w", page, reg, err)
	}
	return v, nil
}

// updateReg read-modify-writes the bits selected by mask.
func (d *Device) updateReg(page, reg, mask, value byte) error {
	cur, err := d.readReg(page, reg)
	if err != nil {
		return err
	}
	return d.writeReg(page, reg, (cur&^mask)|(value&mask))
}

// Reset issues the chip's software reset and invalidates the page cache.
func (d *Device) Reset() error {
	d.page = 0xFF
	if err := d.writeReg(pageControl, regSoftReset, softResetCmd); err != nil {
		return fmt.Errorf("soft reset: %w", err)
	}
	d.page = pageControl // reset lands on page 0
	return nil
}

// Configure programs the clock tree, serial interface, datapath, and output
// routing for I2S slave operation at the given sample rate and bit depth.
//
// The PLL runs from BCLK, so the divider chain is independent of the actual
// sample rate: with 2*bitDepth BCLK cycles per frame, PLL J and R are chosen
// so CODEC_CLKIN = 2048*fs, then NDAC=8, MDAC=2, DOSR=128 divide back down
// to fs. Supported bit depths are 16 and 32.
func (d *Device) Configure(sampleRate, bitDepth int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("configure: invalid sample rate %d", sampleRate)
	}

	var wordLen, pllJ byte
	switch bitDepth {
	case 16:
		wordLen, pllJ = wordLen16, 32 // BCLK = 32*fs, *2*32 = 2048*fs
	case 32:
		wordLen, pllJ = wordLen32, 16 // BCLK = 64*fs, *2*16 = 2048*fs
	default:
		return fmt.Errorf("configure: unsupported bit depth %d (want 16 or 32)", bitDepth)
	}

	type regWrite struct {
		page, reg, value byte
	}
	seq := []regWrite{
		{pageControl, regClockMux, clockMuxBCLKPLL},
		{pageControl, regPLLPR, pllPowerUp | 0x10 | 0x02}, // P=1, R=2
		{pageControl, regPLLJ, pllJ},
		{pageControl, regPLLDMSB, 0},
		{pageControl, regPLLDLSB, 0},
		{pageControl, regNDAC, dividerPowerUp | 8},
		{pageControl, regMDAC, dividerPowerUp | 2},
		{pageControl, regDOSRMSB, 0},
		{pageControl, regDOSRLSB, 128},
		{pageControl, regInterface1, wordLen},
		{pageControl, regDACDatapath, dacDatapathOn},
		{pageControl, regDACMute, 0x00}, // unmute both channels
		{pageAnalog, regOutRouting, routeDACToMixer},
		{pageAnalog, regHPLDriver, driverUnmute},
		{pageAnalog, regHPRDriver, driverUnmute},
		{pageAnalog, regSPKDriver, driverUnmute},
	}
	for _, w := range seq {
		if err := d.writeReg(w.page, w.reg, w.value); err != nil {
			return fmt.Errorf("configure: %w", err)
		}
	}

	d.logger.Debug("codec configured", "sample_rate", sampleRate, "bit_depth", bitDepth)
	return nil
}

// SetSpeakerMute powers the class-D amplifier down (muted) or up.
func (d *Device) SetSpeakerMute(muted bool) error {
	var v byte = spkAmpOn
	if muted {
		v = 0
	}
	return d.updateReg(pageAnalog, regSPKAmp, spkAmpOn, v)
}

// SetHeadphoneOutput powers the headphone drivers up or down.
func (d *Device) SetHeadphoneOutput(on bool) error {
	var v byte = hpDriversOn
	if !on {
		v = 0
	}
	return d.writeReg(pageAnalog, regHPDrivers, v)
}

// SetDACVolume sets the digital DAC channel volume on both channels and
// returns the dB value read back from the left channel register.
func (d *Device) SetDACVolume(db float64) (float64, error) {
	spec := gain.DACVolume
	b := spec.RegisterByte(spec.DBToCode(db))

	if err := d.writeReg(pageControl, regDACVolLeft, b); err != nil {
		return 0, err
	}
	if err := d.writeReg(pageControl, regDACVolRight, b); err != nil {
		return 0, err
	}
	return d.DACVolume()
}

// DACVolume reads back the digital DAC channel volume in dB.
func (d *Device) DACVolume() (float64, error) {
	v, err := d.readReg(pageControl, regDACVolLeft)
	if err != nil {
		return 0, err
	}
	spec := gain.DACVolume
	return spec.CodeToDB(spec.CodeFromRegister(v)), nil
}

// SetHeadphoneVolume sets the analog headphone volume on both channels and
// returns the dB value read back. The register's routing bit is kept set so
// a volume write can never silently disconnect the PGA from the driver.
func (d *Device) SetHeadphoneVolume(db float64) (float64, error) {
	spec := gain.AnalogVolume
	code := byte(spec.DBToCode(db)) & analogVolCodeMsk

	for _, reg := range []byte{regHPLVol, regHPRVol} {
		if err := d.updateReg(pageAnalog, reg, analogVolCodeMsk|analogVolRouted, analogVolRouted|code); err != nil {
			return 0, err
		}
	}
	return d.HeadphoneVolume()
}

// HeadphoneVolume reads back the analog headphone volume in dB.
func (d *Device) HeadphoneVolume() (float64, error) {
	v, err := d.readReg(pageAnalog, regHPLVol)
	if err != nil {
		return 0, err
	}
	return gain.AnalogVolume.CodeToDB(int(v & analogVolCodeMsk)), nil
}

// SetSpeakerVolume sets the analog volume feeding the class-D amplifier and
// returns the dB value read back.
func (d *Device) SetSpeakerVolume(db float64) (float64, error) {
	spec := gain.AnalogVolume
	code := byte(spec.DBToCode(db)) & analogVolCodeMsk

	if err := d.updateReg(pageAnalog, regSPKVol, analogVolCodeMsk|analogVolRouted, analogVolRouted|code); err != nil {
		return 0, err
	}
	v, err := d.readReg(pageAnalog, regSPKVol)
	if err != nil {
		return 0, err
	}
	return spec.CodeToDB(int(v & analogVolCodeMsk)), nil
}

// SetAmpGain sets the headphone driver PGA gain step (0..9, 1 dB per step)
// on both channels and returns the step read back.
func (d *Device) SetAmpGain(step int) (int, error) {
	spec := gain.AmpGain
	code := byte(spec.ClampCode(step))

	for _, reg := range []byte{regHPLDriver, regHPRDriver} {
		if err := d.updateReg(pageAnalog, reg, driverGainMask, code<<driverGainShift); err != nil {
			return 0, err
		}
	}
	return d.AmpGain()
}

// AmpGain reads back the headphone driver PGA gain step.
func (d *Device) AmpGain() (int, error) {
	v, err := d.readReg(pageAnalog, regHPLDriver)
	if err != nil {
		return 0, err
	}
	return int((v & driverGainMask) >> driverGainShift), nil
}
