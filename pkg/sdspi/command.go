package sdspi

import (
	"encoding/binary"
	"fmt"

	"github.com/gregLibert/microsd/pkg/bits"
	"github.com/gregLibert/microsd/pkg/crc7"
)

// Command Opcode Logic:
//
// The opcode byte of a frame carries the start bits '01' in bits 7..6 and the command
// index in bits 5..0. The Command type reuses bit 7, which is always 0 on the wire, as a
// tag for application specific commands (ACMDn). Such commands must be preceded by
// CMD55 and have the tag cleared before transmission. A bare index such as Command(5)
// is accepted: the start bits are always set on the wire.

// Command identifies an SD/MMC command including its start bits.
type Command byte

const (
	startBits = 0x40
	appTag    = 0xC0
)

// Standard commands used in SPI mode.
const (
	CMD0  Command = startBits + 0  // GO_IDLE_STATE
	CMD1  Command = startBits + 1  // SEND_OP_COND (MMC)
	CMD8  Command = startBits + 8  // SEND_IF_COND
	CMD9  Command = startBits + 9  // SEND_CSD
	CMD10 Command = startBits + 10 // SEND_CID
	CMD12 Command = startBits + 12 // STOP_TRANSMISSION
	CMD16 Command = startBits + 16 // SET_BLOCKLEN
	CMD17 Command = startBits + 17 // READ_SINGLE_BLOCK
	CMD18 Command = startBits + 18 // READ_MULTIPLE_BLOCK
	CMD23 Command = startBits + 23 // SET_BLOCK_COUNT (MMC)
	CMD24 Command = startBits + 24 // WRITE_BLOCK
	CMD25 Command = startBits + 25 // WRITE_MULTIPLE_BLOCK
	CMD55 Command = startBits + 55 // APP_CMD
	CMD58 Command = startBits + 58 // READ_OCR

	ACMD13 Command = appTag + 13 // SD_STATUS
	ACMD23 Command = appTag + 23 // SET_WR_BLK_ERASE_COUNT
	ACMD41 Command = appTag + 41 // SD_SEND_OP_COND
)

var commandNames = map[Command]string{
	CMD0:   "GO_IDLE_STATE",
	CMD1:   "SEND_OP_COND",
	CMD8:   "SEND_IF_COND",
	CMD9:   "SEND_CSD",
	CMD10:  "SEND_CID",
	CMD12:  "STOP_TRANSMISSION",
	CMD16:  "SET_BLOCKLEN",
	CMD17:  "READ_SINGLE_BLOCK",
	CMD18:  "READ_MULTIPLE_BLOCK",
	CMD23:  "SET_BLOCK_COUNT",
	CMD24:  "WRITE_BLOCK",
	CMD25:  "WRITE_MULTIPLE_BLOCK",
	CMD55:  "APP_CMD",
	CMD58:  "READ_OCR",
	ACMD13: "SD_STATUS",
	ACMD23: "SET_WR_BLK_ERASE_COUNT",
	ACMD41: "SD_SEND_OP_COND",
}

// IsApp reports whether the command must be prefixed with CMD55.
func (c Command) IsApp() bool {
	return bits.IsSet(byte(c), 8)
}

// Index returns the 6-bit command index.
func (c Command) Index() byte {
	return byte(c) & 0x3F
}

// Wire returns the opcode as transmitted: start bits '01' and the command index.
func (c Command) Wire() byte {
	return startBits | c.Index()
}

// String returns the mnemonic, e.g. "ACMD41 SD_SEND_OP_COND".
func (c Command) String() string {
	prefix := "CMD"
	if c.IsApp() {
		prefix = "ACMD"
	}
	if name, ok := commandNames[c|startBits]; ok {
		return fmt.Sprintf("%s%d %s", prefix, c.Index(), name)
	}
	return fmt.Sprintf("%s%d", prefix, c.Index())
}

// FrameSize is the length of an encoded command frame.
const FrameSize = 6

// Frame is a command with its argument, prior to encoding.
type Frame struct {
	Command Command
	Arg     uint32
}

// NewFrame creates a frame from a command and a 32-bit argument.
func NewFrame(cmd Command, arg uint32) Frame {
	return Frame{Command: cmd, Arg: arg}
}

// NewFrameBytes creates a frame from four argument bytes, most significant first.
func NewFrameBytes(cmd Command, a0, a1, a2, a3 byte) Frame {
	return NewFrame(cmd, binary.BigEndian.Uint32([]byte{a0, a1, a2, a3}))
}

// Bytes encodes the frame. The application tag is cleared and the trailer is always
// computed from the encoded bytes.
func (f Frame) Bytes(table *crc7.Table) []byte {
	buf := make([]byte, FrameSize)
	buf[0] = f.Command.Wire()
	binary.BigEndian.PutUint32(buf[1:5], f.Arg)
	buf[5] = table.Checksum(buf[:5])
	return buf
}
