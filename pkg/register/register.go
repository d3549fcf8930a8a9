/*
Package register decodes the SD/MMC card registers read through package sdspi.

  - OCR (4 bytes): supported voltage window, power-up status and the card capacity
    status (CCS) bit that identifies high capacity cards.
  - CID (16 bytes): manufacturer, OEM, product name, revision, serial number and
    manufacturing date.
  - CSD (16 bytes): structure version, maximum transfer rate, block length and capacity.

Fields are addressed with the bit numbers of the SD Physical Layer register tables: bit
0 is the least significant bit of the last byte. Every parsed register keeps its raw
bytes and renders a report through Describe().

	cid, err := register.ParseCID(raw)
	if err != nil {
	    return err
	}
	fmt.Printf("%s, serial %08X\n", cid.ProductName(), cid.SerialNumber())
*/
package register

import (
	"fmt"

	"github.com/gregLibert/microsd/pkg/crc7"
)

// Register sizes in bytes.
const (
	OCRSize = 4
	CIDSize = 16
	CSDSize = 16
)

func checkSize(name string, data []byte, size int) error {
	if len(data) < size {
		return fmt.Errorf("register: %s needs %d bytes, got %d", name, size, len(data))
	}
	return nil
}

// validCRC checks the CRC7 trailer of a 16-byte register.
func validCRC(raw []byte) bool {
	return crc7.Checksum(raw[:15]) == raw[15]
}
