package register

import (
	"fmt"
	"strings"

	"github.com/gregLibert/microsd/pkg/bits"
	"github.com/gregLibert/microsd/pkg/report"
)

// OCR is the operation condition register.
type OCR struct {
	PowerUp       bool   `reg:"busy"`
	HighCapacity  bool   `reg:"CCS"`
	VoltageWindow uint16 `reg:"VDD" fmt:"hex"`

	raw []byte
}

// ParseOCR interprets the 4 bytes returned after CMD58.
func ParseOCR(data []byte) (*OCR, error) {
	if err := checkSize("OCR", data, OCRSize); err != nil {
		return nil, err
	}
	raw := append([]byte(nil), data[:OCRSize]...)

	return &OCR{
		PowerUp:       bits.Field(raw, 31, 31) == 1,
		HighCapacity:  bits.Field(raw, 30, 30) == 1,
		VoltageWindow: uint16(bits.Field(raw, 23, 15)),
		raw:           raw,
	}, nil
}

// VoltageRange returns the supported supply range, e.g. "2.7-3.6V".
// Bit 15 of the register stands for 2.7-2.8V and each next bit adds 0.1V.
func (o *OCR) VoltageRange() string {
	if o.VoltageWindow == 0 {
		return "none"
	}

	low, high := -1, -1
	for i := 0; i < 9; i++ {
		if o.VoltageWindow&(1<<i) != 0 {
			if low < 0 {
				low = i
			}
			high = i
		}
	}
	return fmt.Sprintf("%.1f-%.1fV", 2.7+0.1*float64(low), 2.8+0.1*float64(high))
}

// Bytes returns the raw register.
func (o *OCR) Bytes() []byte {
	return o.raw
}

// Describe generates a detailed report of the OCR content.
func (o *OCR) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== OCR ===")
	report.WriteStructFields(&sb, "OCR", o)
	sb.WriteString(fmt.Sprintf("\n    - OCR.Voltage Range: %s", o.VoltageRange()))
	sb.WriteString(fmt.Sprintf("\n    + Dump: %X", o.raw))
	return sb.String()
}
