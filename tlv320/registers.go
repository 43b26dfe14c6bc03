package tlv320

// TLV320DAC3100 register map. The chip exposes multiple register pages
// selected through register 0 of every page; only the registers this driver
// touches are listed.

// Page 0: clocking, serial interface, DAC datapath.
const (
	regPageSelect byte = 0x00
	regSoftReset  byte = 0x01

	regClockMux byte = 0x04 // PLL_CLKIN / CODEC_CLKIN muxing
	regPLLPR    byte = 0x05 // PLL power (D7), P (D6-D4), R (D3-D0)
	regPLLJ     byte = 0x06
	regPLLDMSB  byte = 0x07
	regPLLDLSB  byte = 0x08
	regNDAC     byte = 0x0B // divider power (D7), value (D6-D0)
	regMDAC     byte = 0x0C
	regDOSRMSB  byte = 0x0D
	regDOSRLSB  byte = 0x0E

	regInterface1 byte = 0x1B // audio interface: format (D7-D6), word length (D5-D4)

	regDACDatapath byte = 0x3F // DAC power and soft-stepping
	regDACMute     byte = 0x40 // DAC digital mute (D3 left, D2 right)
	regDACVolLeft  byte = 0x41 // table 6-77
	regDACVolRight byte = 0x42 // table 6-78
)

// Page 1: analog output drivers.
const (
	regHPDrivers  byte = 0x1F // HPL/HPR power (D7/D6)
	regSPKAmp     byte = 0x20 // class-D amp power (D7)
	regOutRouting byte = 0x23 // DAC to output mixer routing
	regHPLVol     byte = 0x24 // analog volume to HPL, table 6-24
	regHPRVol     byte = 0x25 // analog volume to HPR
	regSPKVol     byte = 0x26 // analog volume to class-D
	regHPLDriver  byte = 0x28 // HPL driver PGA: gain (D6-D3), unmute (D2)
	regHPRDriver  byte = 0x29
	regSPKDriver  byte = 0x2A // class-D driver: gain (D4-D3), unmute (D2)
)

const (
	pageControl byte = 0
	pageAnalog  byte = 1
)

// Field constants.
const (
	softResetCmd byte = 0x01

	// regClockMux: PLL_CLKIN = BCLK, CODEC_CLKIN = PLL_CLK.
	clockMuxBCLKPLL byte = 0x07

	pllPowerUp     byte = 0x80
	dividerPowerUp byte = 0x80

	// regInterface1 word length values (D5-D4), I2S format (D7-D6 = 00).
	wordLen16 byte = 0x00
	wordLen32 byte = 0x30

	// regDACDatapath: power up both channels, left-to-left / right-to-right.
	dacDatapathOn byte = 0xD4

	dacMuteLeft  byte = 0x08
	dacMuteRight byte = 0x04

	hpDriversOn byte = 0xC4 // HPL + HPR powered, 1.35V common mode
	spkAmpOn    byte = 0x80

	// regOutRouting: DAC_L to HPL mixer, DAC_R to HPR mixer.
	routeDACToMixer byte = 0x44

	// Analog volume registers: D7 routes the volume PGA to the driver.
	analogVolRouted  byte = 0x80
	analogVolCodeMsk byte = 0x7F

	// Driver PGA registers.
	driverGainShift      = 3
	driverGainMask  byte = 0x78
	driverUnmute    byte = 0x04
)
