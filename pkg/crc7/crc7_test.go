package crc7

import "testing"

// bitwiseSum is a table-free CRC7 used as the reference for the table entries.
func bitwiseSum(msg []byte) byte {
	var crc byte
	for _, b := range msg {
		for i := 7; i >= 0; i-- {
			bit := (b >> uint(i)) & 1
			msb := (crc >> 6) & 1
			crc = (crc << 1) & 0x7F
			if bit^msb != 0 {
				crc ^= Polynomial & 0x7F
			}
		}
	}
	return crc
}

func TestChecksum(t *testing.T) {
	tests := []struct {
		name     string
		msg      []byte
		expected byte
	}{
		{
			name:     "CMD0 GO_IDLE_STATE",
			msg:      []byte{0x40, 0x00, 0x00, 0x00, 0x00},
			expected: 0x95,
		},
		{
			name:     "CMD8 SEND_IF_COND 0x1AA",
			msg:      []byte{0x48, 0x00, 0x00, 0x01, 0xAA},
			expected: 0x87,
		},
		{
			name:     "CMD55 APP_CMD",
			msg:      []byte{0x77, 0x00, 0x00, 0x00, 0x00},
			expected: 0x65,
		},
		{
			name:     "ACMD41 with HCS",
			msg:      []byte{0x69, 0x40, 0x00, 0x00, 0x00},
			expected: 0x77,
		},
		{
			name:     "ACMD41 without HCS",
			msg:      []byte{0x69, 0x00, 0x00, 0x00, 0x00},
			expected: 0xE5,
		},
		{
			name:     "CMD58 READ_OCR",
			msg:      []byte{0x7A, 0x00, 0x00, 0x00, 0x00},
			expected: 0xFD,
		},
		{
			name:     "CMD1 SEND_OP_COND",
			msg:      []byte{0x41, 0x00, 0x00, 0x00, 0x00},
			expected: 0xF9,
		},
		{
			name:     "CMD16 SET_BLOCKLEN 512",
			msg:      []byte{0x50, 0x00, 0x00, 0x02, 0x00},
			expected: 0x15,
		},
		{
			name:     "CMD9 SEND_CSD",
			msg:      []byte{0x49, 0x00, 0x00, 0x00, 0x00},
			expected: 0xAF,
		},
		{
			name:     "CMD10 SEND_CID",
			msg:      []byte{0x4A, 0x00, 0x00, 0x00, 0x00},
			expected: 0x1B,
		},
		{
			name:     "CID register body",
			msg:      []byte{0x03, 0x53, 0x44, 0x53, 0x44, 0x31, 0x36, 0x47, 0x80, 0x12, 0x34, 0x56, 0x78, 0x01, 0x4A},
			expected: 0xAD,
		},
	}

	table := MakeTable()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := table.Checksum(tt.msg); got != tt.expected {
				t.Errorf("Checksum() = 0x%02X, want 0x%02X", got, tt.expected)
			}
			if got := Checksum(tt.msg); got != tt.expected {
				t.Errorf("package Checksum() = 0x%02X, want 0x%02X", got, tt.expected)
			}
		})
	}
}

func TestMakeTable_FullRange(t *testing.T) {
	table := MakeTable()
	for i := 0; i < 256; i++ {
		if got, want := table.Sum([]byte{byte(i)}), bitwiseSum([]byte{byte(i)}); got != want {
			t.Fatalf("entry 0x%02X = 0x%02X, want 0x%02X", i, got, want)
		}
	}

	// The last index is reached by a single 0xFF byte; a table that skips it
	// would return 0 here.
	if table[255] != 0x79 {
		t.Errorf("table[255] = 0x%02X, want 0x79", table[255])
	}
}

func TestSum_MatchesBitwise(t *testing.T) {
	msgs := [][]byte{
		{},
		{0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
		{0x51, 0x00, 0x00, 0x10, 0x00},
		{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C, 0x0D, 0x0E},
	}

	table := MakeTable()
	for _, m := range msgs {
		if got, want := table.Sum(m), bitwiseSum(m); got != want {
			t.Errorf("Sum(% X) = 0x%02X, want 0x%02X", m, got, want)
		}
	}
}

func TestChecksum_Deterministic(t *testing.T) {
	table := MakeTable()
	msg := []byte{0x48, 0x00, 0x00, 0x01, 0xAA}
	first := table.Checksum(msg)
	second := table.Checksum(msg)
	if first != second {
		t.Errorf("Checksum() not deterministic: 0x%02X then 0x%02X", first, second)
	}
	if msg[4] != 0xAA {
		t.Error("Checksum() mutated its input")
	}
}

func BenchmarkChecksum(b *testing.B) {
	table := MakeTable()
	msg := []byte{0x69, 0x40, 0x00, 0x00, 0x00}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		table.Checksum(msg)
	}
}

func BenchmarkMakeTable(b *testing.B) {
	for i := 0; i < b.N; i++ {
		MakeTable()
	}
}
