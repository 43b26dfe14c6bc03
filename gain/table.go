package gain

// Specs for the three controllable gain quantities of the TLV320DAC3100.
var (
	// DACVolume is the digital DAC channel volume (page 0, registers
	// 0x41/0x42): 0.5 dB per code over -63.5..24 dB, written as a signed
	// 8-bit value. Datasheet tables 6-77/6-78.
	DACVolume = Spec{
		MinDB:      -63.5,
		MaxDB:      24.0,
		MinCode:    -127,
		MaxCode:    48,
		Bits:       8,
		Signed:     true,
		CodesPerDB: 2,
	}

	// AnalogVolume is the analog headphone/speaker volume (page 1,
	// registers 0x24/0x25/0x26): the non-linear Table 6-24 curve,
	// written as a 7-bit unsigned value.
	AnalogVolume = Spec{
		MinDB:   -78.3,
		MaxDB:   0.0,
		MinCode: 0,
		MaxCode: 127,
		Bits:    7,
		Table:   table624,
	}

	// AmpGain is the headphone driver PGA gain (page 1, registers
	// 0x28/0x29): 1 dB per code over 0..9 dB.
	AmpGain = Spec{
		MinDB:      0,
		MaxDB:      9,
		MinCode:    0,
		MaxCode:    9,
		Bits:       4,
		CodesPerDB: 1,
	}
)

// table624 is transcribed from TLV320DAC3100 datasheet Table 6-24, "Analog
// Volume Control for Headphone and Speaker Outputs". Three regimes:
// codes 0..105 approximate the line code = round(-1.99*dB - 0.2), codes
// 106..116 curve away, and codes 117..127 are a constant -78.3 dB floor.
var table624 = []Entry{
	{0, 0}, {1, -0.5}, {2, -1}, {3, -1.5}, {4, -2},
	{5, -2.5}, {6, -3}, {7, -3.5}, {8, -4}, {9, -4.5},
	{10, -5}, {11, -5.5}, {12, -6}, {13, -6.5}, {14, -7},
	{15, -7.5}, {16, -8}, {17, -8.5}, {18, -9}, {19, -9.5},
	{20, -10}, {21, -10.5}, {22, -11}, {23, -11.5}, {24, -12},
	{25, -12.5}, {26, -13}, {27, -13.5}, {28, -14}, {29, -14.5},
	{30, -15}, {31, -15.5}, {32, -16}, {33, -16.5}, {34, -17},
	{35, -17.5}, {36, -18.1}, {37, -18.6}, {38, -19.1}, {39, -19.6},
	{40, -20.1}, {41, -20.6}, {42, -21.1}, {43, -21.6}, {44, -22.1},
	{45, -22.6}, {46, -23.1}, {47, -23.6}, {48, -24.1}, {49, -24.6},
	{50, -25.1}, {51, -25.6}, {52, -26.1}, {53, -26.6}, {54, -27.1},
	{55, -27.6}, {56, -28.1}, {57, -28.6}, {58, -29.1}, {59, -29.6},
	{60, -30.1}, {61, -30.6}, {62, -31.1}, {63, -31.6}, {64, -32.1},
	{65, -32.6}, {66, -33.1}, {67, -33.6}, {68, -34.1}, {69, -34.6},
	{70, -35.2}, {71, -35.7}, {72, -36.2}, {73, -36.7}, {74, -37.2},
	{75, -37.7}, {76, -38.2}, {77, -38.7}, {78, -39.2}, {79, -39.7},
	{80, -40.2}, {81, -40.7}, {82, -41.2}, {83, -41.7}, {84, -42.1},
	{85, -42.7}, {86, -43.2}, {87, -43.8}, {88, -44.3}, {89, -44.8},
	{90, -45.2}, {91, -45.8}, {92, -46.2}, {93, -46.7}, {94, -47.4},
	{95, -47.9}, {96, -48.2}, {97, -48.7}, {98, -49.3}, {99, -50},
	{100, -50.3}, {101, -51}, {102, -51.4}, {103, -51.8}, {104, -52.2},
	{105, -52.7},
	// Curved segment.
	{106, -53.7}, {107, -54.2}, {108, -55.3}, {109, -56.7}, {110, -58.3},
	{111, -60.2}, {112, -62.7}, {113, -64.3}, {114, -66.2}, {115, -68.7},
	{116, -72.2},
	// Constant floor.
	{117, -78.3}, {118, -78.3}, {119, -78.3}, {120, -78.3}, {121, -78.3},
	{122, -78.3}, {123, -78.3}, {124, -78.3}, {125, -78.3}, {126, -78.3},
	{127, -78.3},
}

// FloorCode is the canonical register code for the table's minimum dB value:
// the first code of the flat floor run.
const FloorCode = 117
