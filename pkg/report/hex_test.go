package report

import (
	"bytes"
	"testing"
)

func TestHex(t *testing.T) {
	tests := []struct {
		name      string
		inputs    []string
		want      []byte
		wantPanic bool
	}{
		{
			name:   "Simple Join",
			inputs: []string{"40", "00"},
			want:   []byte{0x40, 0x00},
		},
		{
			name:   "With Spaces",
			inputs: []string{"48 00", " 00 01 AA 87 "},
			want:   []byte{0x48, 0x00, 0x00, 0x01, 0xAA, 0x87},
		},
		{
			name:   "Mixed Case",
			inputs: []string{"fe", "Aa"},
			want:   []byte{0xFE, 0xAA},
		},
		{
			name:      "Invalid Hex",
			inputs:    []string{"ZZ"},
			wantPanic: true,
		},
		{
			name:      "Odd Length",
			inputs:    []string{"123"},
			wantPanic: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				if (r != nil) != tt.wantPanic {
					t.Errorf("Hex() panic = %v, wantPanic %v", r, tt.wantPanic)
				}
			}()

			got := Hex(tt.inputs...)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Hex() = %X, want %X", got, tt.want)
			}
		})
	}
}

func TestBytes(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"Empty", nil, ""},
		{"Single", []byte{0x01}, "0x01"},
		{"Reset Frame", Hex("40 00 00 00 00 95"), "0x40 0x00 0x00 0x00 0x00 0x95"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Bytes(tt.in); got != tt.want {
				t.Errorf("Bytes() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMakeSafeASCII(t *testing.T) {
	input := []byte{0x53, 0x44, 0x00, 0x1F, 0x7F, 0x43} // SD, null, US, DEL, C
	want := "SD...C"

	got := MakeSafeASCII(input)
	if got != want {
		t.Errorf("MakeSafeASCII() = %q, want %q", got, want)
	}
}
