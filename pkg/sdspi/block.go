package sdspi

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/sigurn/crc16"
)

// DATA BLOCK FORMAT (SPI mode):
//
//	0xFF ... 0xFF   card busy preparing the data
//	0xFE            start block token
//	payload         fixed length, 16 bytes for CID/CSD
//	CRC16           2 bytes, CRC-16/XMODEM of the payload, big-endian
//
// The CRC is clocked out and dropped unless WithDataCRC is set, since SPI mode runs
// with data CRC checking disabled by default.

const startBlockToken = 0xFE

var dataCRCTable = crc16.MakeTable(crc16.CRC16_XMODEM)

// ReadBlock receives one data block of length bytes. It must follow a command that
// starts a data transfer and answered 0x00.
//
// Bytes other than the start token are discarded while polling. If the token never
// shows up, ReadBlock returns a nil slice and an error matching both ErrNoDataToken and
// ErrTimeout.
func (c *Card) ReadBlock(length int) ([]byte, error) {
	if length <= 0 {
		return nil, fmt.Errorf("sdspi: invalid block length %d", length)
	}

	err := c.cfg.Token.Until(func() (bool, error) {
		b, err := c.readByte()
		if err != nil {
			return false, err
		}
		return b == startBlockToken, nil
	})
	if errors.Is(err, ErrTimeout) {
		return nil, fmt.Errorf("%w after %d polls: %w", ErrNoDataToken, c.cfg.Token.Attempts, err)
	}
	if err != nil {
		return nil, fmt.Errorf("wait start token: %w", err)
	}

	payload, err := c.receive(length)
	if err != nil {
		return nil, fmt.Errorf("read block payload: %w", err)
	}
	crc, err := c.receive(2)
	if err != nil {
		return nil, fmt.Errorf("read block CRC: %w", err)
	}
	c.trace(Received, c.last, payload)

	if c.cfg.VerifyDataCRC {
		want := binary.BigEndian.Uint16(crc)
		if got := crc16.Checksum(payload, dataCRCTable); got != want {
			return nil, fmt.Errorf("%w: computed 0x%04X, card sent 0x%04X", ErrDataCRC, got, want)
		}
	}

	return payload, nil
}
