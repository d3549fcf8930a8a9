package bits

import "testing"

func TestBit(t *testing.T) {
	tests := []struct {
		n        uint
		expected byte
	}{
		{1, 0x01}, {7, 0x40}, {8, 0x80}, {0, 0x00},
		{9, 0x00}, // out of range is ignored
	}

	for _, tt := range tests {
		if res := Bit(tt.n); res != tt.expected {
			t.Errorf("Bit(%d) = 0x%02X; want 0x%02X", tt.n, res, tt.expected)
		}
	}
}

func TestIsSet(t *testing.T) {
	// R1 with idle + illegal command
	val := byte(0b0000_0101)
	if !IsSet(val, 1) {
		t.Error("Bit 1 should be set")
	}
	if IsSet(val, 2) {
		t.Error("Bit 2 should NOT be set")
	}
	if !IsSet(val, 3) {
		t.Error("Bit 3 should be set")
	}
}

func TestClear(t *testing.T) {
	// ACMD41 opcode with the application tag stripped
	if got := Clear(0xE9, 8); got != 0x69 {
		t.Errorf("Clear(0xE9, 8) = 0x%02X; want 0x69", got)
	}
	if got := Clear(0x40, 1); got != 0x40 {
		t.Errorf("Clear(0x40, 1) = 0x%02X; want 0x40", got)
	}
}

func TestField(t *testing.T) {
	csdV2 := []byte{
		0x40, 0x0E, 0x00, 0x32, 0x5B, 0x59, 0x00, 0x00,
		0x76, 0xB2, 0x7F, 0x80, 0x0A, 0x40, 0x00, 0xDB,
	}
	ocr := []byte{0xC0, 0xFF, 0x80, 0x00}

	tests := []struct {
		name     string
		reg      []byte
		high     uint
		low      uint
		expected uint32
	}{
		{"CSD_STRUCTURE", csdV2, 127, 126, 1},
		{"TRAN_SPEED", csdV2, 103, 96, 0x32},
		{"READ_BL_LEN", csdV2, 83, 80, 9},
		{"C_SIZE (v2)", csdV2, 69, 48, 0x76B2},
		{"CRC", csdV2, 7, 1, 0x6D},
		{"OCR busy bit", ocr, 31, 31, 1},
		{"OCR CCS bit", ocr, 30, 30, 1},
		{"OCR voltage window", ocr, 23, 15, 0x1FF},
		{"Reversed range", ocr, 3, 7, 0},
		{"Out of range", ocr, 32, 0, 0},
		{"Too wide", csdV2, 40, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := Field(tt.reg, tt.high, tt.low); res != tt.expected {
				t.Errorf("Field(%d, %d) = 0x%X; want 0x%X", tt.high, tt.low, res, tt.expected)
			}
		})
	}
}
