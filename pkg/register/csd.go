package register

import (
	"fmt"
	"strings"

	"github.com/gregLibert/microsd/pkg/bits"
	"github.com/gregLibert/microsd/pkg/report"
	"periph.io/x/conn/v3/physic"
)

// CSD REGISTER LAYOUT (fields used here):
//
//	[127:126] CSD_STRUCTURE  SD: 0 = 1.0, 1 = 2.0, 2 = 3.0
//	                         MMC: 0 = 1.0, 1 = 1.1, 2 = 1.2, 3 = version in EXT_CSD
//	[103:96]  TRAN_SPEED     max data transfer rate
//	[83:80]   READ_BL_LEN    log2 of the max read block length
//
//	SD 1.0 and every MMC: [73:62] C_SIZE, [49:47] C_SIZE_MULT
//	             capacity = (C_SIZE+1) * 2^(C_SIZE_MULT+2) * 2^READ_BL_LEN
//	SD 2.0:      [69:48] C_SIZE, capacity = (C_SIZE+1) * 512KiB
//	SD 3.0:      [75:48] C_SIZE, same formula as 2.0
//
// MMC devices above 2GB report C_SIZE 0xFFF; their real size is SEC_COUNT in EXT_CSD.

// CSDVersion identifies the register layout: the card family and its CSD_STRUCTURE.
type CSDVersion uint8

const (
	CSDVersion1 CSDVersion = iota
	CSDVersion2
	CSDVersion3
	_ // reserved SD structure

	MMCCSDVersion10
	MMCCSDVersion11
	MMCCSDVersion12
	MMCCSDVersionExt
)

func (v CSDVersion) String() string {
	switch v {
	case CSDVersion1:
		return "1.0"
	case CSDVersion2:
		return "2.0"
	case CSDVersion3:
		return "3.0"
	case MMCCSDVersion10:
		return "MMC 1.0"
	case MMCCSDVersion11:
		return "MMC 1.1"
	case MMCCSDVersion12:
		return "MMC 1.2"
	case MMCCSDVersionExt:
		return "MMC (EXT_CSD)"
	default:
		return fmt.Sprintf("reserved (%d)", uint8(v))
	}
}

// IsMMC reports whether the layout is the MMC one.
func (v CSDVersion) IsMMC() bool {
	return v >= MMCCSDVersion10 && v <= MMCCSDVersionExt
}

// TRAN_SPEED time values, times ten, indexed by bits [6:3].
var (
	tranSpeedValues    = [16]int64{0, 10, 12, 13, 15, 20, 25, 30, 35, 40, 45, 50, 55, 60, 70, 80}
	mmcTranSpeedValues = [16]int64{0, 10, 12, 13, 15, 20, 26, 30, 35, 40, 45, 52, 55, 60, 70, 80}
)

// TRAN_SPEED rate units divided by ten, indexed by bits [2:0].
var tranSpeedUnits = [8]physic.Frequency{
	10 * physic.KiloHertz,
	100 * physic.KiloHertz,
	1 * physic.MegaHertz,
	10 * physic.MegaHertz,
}

// CSD is the card specific data register.
type CSD struct {
	Version         CSDVersion       `reg:"CSD_STRUCTURE"`
	TransferRate    physic.Frequency `reg:"TRAN_SPEED"`
	ReadBlockLength uint32           `reg:"READ_BL_LEN"`
	DeviceSize      uint32           `reg:"C_SIZE"`
	SizeMultiplier  uint8            `reg:"C_SIZE_MULT"`
	Capacity        uint64
	CRC             uint8 `reg:"CRC" fmt:"hex"`

	raw []byte
}

// ParseCSD interprets the 16 bytes returned by CMD9 on an SD card.
func ParseCSD(data []byte) (*CSD, error) {
	if err := checkSize("CSD", data, CSDSize); err != nil {
		return nil, err
	}
	raw := append([]byte(nil), data[:CSDSize]...)

	version := CSDVersion(bits.Field(raw, 127, 126))
	csd := newCSD(raw, version, &tranSpeedValues)

	switch version {
	case CSDVersion1:
		csd.decodeLegacySize()
	case CSDVersion2:
		csd.DeviceSize = bits.Field(raw, 69, 48)
		csd.Capacity = uint64(csd.DeviceSize+1) * 512 * 1024
	case CSDVersion3:
		csd.DeviceSize = bits.Field(raw, 75, 48)
		csd.Capacity = uint64(csd.DeviceSize+1) * 512 * 1024
	default:
		return nil, fmt.Errorf("register: unsupported CSD structure %d", uint8(version))
	}

	return csd, nil
}

// ParseMMCCSD interprets the 16 bytes returned by CMD9 on an MMC card.
// Every CSD_STRUCTURE value is accepted and the size always follows the
// C_SIZE/C_SIZE_MULT layout.
func ParseMMCCSD(data []byte) (*CSD, error) {
	if err := checkSize("CSD", data, CSDSize); err != nil {
		return nil, err
	}
	raw := append([]byte(nil), data[:CSDSize]...)

	csd := newCSD(raw, MMCCSDVersion10+CSDVersion(bits.Field(raw, 127, 126)), &mmcTranSpeedValues)
	csd.decodeLegacySize()
	return csd, nil
}

func newCSD(raw []byte, version CSDVersion, speeds *[16]int64) *CSD {
	return &CSD{
		Version:         version,
		TransferRate:    decodeTranSpeed(raw[3], speeds),
		ReadBlockLength: 1 << bits.Field(raw, 83, 80),
		CRC:             uint8(bits.Field(raw, 7, 1)),
		raw:             raw,
	}
}

func (c *CSD) decodeLegacySize() {
	c.DeviceSize = bits.Field(c.raw, 73, 62)
	c.SizeMultiplier = uint8(bits.Field(c.raw, 49, 47))
	blocks := uint64(c.DeviceSize+1) << (c.SizeMultiplier + 2)
	c.Capacity = blocks * uint64(c.ReadBlockLength)
}

func decodeTranSpeed(b byte, speeds *[16]int64) physic.Frequency {
	value := speeds[bits.Field([]byte{b}, 6, 3)]
	unit := tranSpeedUnits[bits.Field([]byte{b}, 2, 0)]
	return physic.Frequency(value) * unit
}

// ValidCRC reports whether the register trailer matches its content.
func (c *CSD) ValidCRC() bool {
	return validCRC(c.raw)
}

// Bytes returns the raw register.
func (c *CSD) Bytes() []byte {
	return c.raw
}

// Describe generates a detailed report of the CSD content.
func (c *CSD) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== CSD ===")
	report.WriteStructFields(&sb, "CSD", c)

	crcMsg := "[OK]"
	if !c.ValidCRC() {
		crcMsg = "[!!] mismatch"
	}
	sb.WriteString(fmt.Sprintf("\n    + CRC check: %s", crcMsg))
	sb.WriteString(fmt.Sprintf("\n    + Dump: %X", c.raw))
	return sb.String()
}
