package register

import (
	"fmt"
	"strings"
	"time"

	"github.com/gregLibert/microsd/pkg/bits"
	"github.com/gregLibert/microsd/pkg/report"
)

// CID REGISTER LAYOUT:
//
//	SD                                        MMC
//	[127:120] MID  manufacturer ID            [127:120] MID
//	[119:104] OID  OEM ID, 2 ASCII characters [119:104] OID (CBX and OID on 4.x cards)
//	[103:64]  PNM  product name, 5 characters [103:56]  PNM, 6 characters
//	[63:56]   PRV  product revision, BCD n.m  [55:48]   PRV
//	[55:24]   PSN  product serial number      [47:16]   PSN
//	[19:8]    MDT  year from 2000, month      [15:8]    MDT, month then year from 1997
//	[7:1]     CRC                             [7:1]     CRC

// Revision is a BCD coded product revision.
type Revision uint8

func (r Revision) String() string {
	return fmt.Sprintf("%d.%d", r>>4, r&0x0F)
}

// Date is a manufacturing month.
type Date struct {
	Year  int
	Month time.Month
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d", d.Year, int(d.Month))
}

// CID is the card identification register.
type CID struct {
	Manufacturer uint8    `reg:"MID" fmt:"hex"`
	OEM          []byte   `reg:"OID" fmt:"ascii"`
	Product      []byte   `reg:"PNM" fmt:"ascii"`
	Revision     Revision `reg:"PRV"`
	Serial       uint32   `reg:"PSN" fmt:"hex"`
	Manufactured Date     `reg:"MDT"`
	CRC          uint8    `reg:"CRC" fmt:"hex"`

	raw []byte
	mmc bool
}

// ParseCID interprets the 16 bytes returned by CMD10 on an SD card.
func ParseCID(data []byte) (*CID, error) {
	if err := checkSize("CID", data, CIDSize); err != nil {
		return nil, err
	}
	raw := append([]byte(nil), data[:CIDSize]...)

	return &CID{
		Manufacturer: raw[0],
		OEM:          raw[1:3],
		Product:      raw[3:8],
		Revision:     Revision(raw[8]),
		Serial:       bits.Field(raw, 55, 24),
		Manufactured: Date{
			Year:  2000 + int(bits.Field(raw, 19, 12)),
			Month: time.Month(bits.Field(raw, 11, 8)),
		},
		CRC: uint8(bits.Field(raw, 7, 1)),
		raw: raw,
	}, nil
}

// ParseMMCCID interprets the 16 bytes returned by CMD10 on an MMC card.
func ParseMMCCID(data []byte) (*CID, error) {
	if err := checkSize("CID", data, CIDSize); err != nil {
		return nil, err
	}
	raw := append([]byte(nil), data[:CIDSize]...)

	return &CID{
		Manufacturer: raw[0],
		OEM:          raw[1:3],
		Product:      raw[3:9],
		Revision:     Revision(raw[9]),
		Serial:       bits.Field(raw, 47, 16),
		Manufactured: Date{
			Year:  1997 + int(bits.Field(raw, 11, 8)),
			Month: time.Month(bits.Field(raw, 15, 12)),
		},
		CRC: uint8(bits.Field(raw, 7, 1)),
		raw: raw,
		mmc: true,
	}, nil
}

// ProductName returns the product name without padding.
func (c *CID) ProductName() string {
	return strings.TrimRight(report.MakeSafeASCII(c.Product), " .")
}

// SerialNumber returns the product serial number.
func (c *CID) SerialNumber() uint32 {
	return c.Serial
}

// ValidCRC reports whether the register trailer matches its content.
func (c *CID) ValidCRC() bool {
	return validCRC(c.raw)
}

// Bytes returns the raw register.
func (c *CID) Bytes() []byte {
	return c.raw
}

// Describe generates a detailed report of the CID content.
func (c *CID) Describe() string {
	var sb strings.Builder
	if c.mmc {
		sb.WriteString("=== CID (MMC) ===")
	} else {
		sb.WriteString("=== CID ===")
	}
	report.WriteStructFields(&sb, "CID", c)

	crcMsg := "[OK]"
	if !c.ValidCRC() {
		crcMsg = "[!!] mismatch"
	}
	sb.WriteString(fmt.Sprintf("\n    + CRC check: %s", crcMsg))
	sb.WriteString(fmt.Sprintf("\n    + Dump: %X", c.raw))
	return sb.String()
}
