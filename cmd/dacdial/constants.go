package main

// Single-character console commands. Uppercase raises, lowercase lowers.
const (
	cmdDigitalUp   = 'D'
	cmdDigitalDown = 'd'
	cmdAnalogUp    = 'A'
	cmdAnalogDown  = 'a'
	cmdGainUp      = 'G'
	cmdGainDown    = 'g'
)

// Control loop and codec defaults.
const (
	defaultPollIntervalMS = 10  // console poll cadence (ms)
	defaultDVStepDB       = 0.5 // digital volume change per keystroke (dB)

	defaultI2CBus     = 1
	defaultSampleRate = 44100
	defaultBitDepth   = 16

	// Initial volume presets. Line level suits a mixer or powered speakers
	// and is far too loud for earbuds; the headphone preset is conservative.
	lineLevelDV  = -44.0
	lineLevelAV  = -64.0
	headphoneDV  = -58.0
	headphoneAV  = -64.0
	defaultMaxDV = 0.0 // safety ceiling on digital volume (dB), <= 24.0
)
