// Package crc7 computes the 7-bit CRC that protects SD/MMC command frames and
// the CID/CSD registers.
//
// The generator polynomial is x^7 + x^3 + 1 (0x89). The checksum byte placed on
// the wire holds the CRC in bits 7..1 and a constant stop bit in bit 0.
package crc7

// Polynomial is the CRC7 generator x^7 + x^3 + 1.
const Polynomial = 0x89

// Table holds the precomputed CRC7 state for every byte value.
// A Table is read-only once built and safe for concurrent use.
type Table [256]byte

// MakeTable builds the lookup table for Polynomial.
func MakeTable() *Table {
	t := new(Table)
	for i := range t {
		crc := byte(i)
		if crc&0x80 != 0 {
			crc ^= Polynomial
		}
		for j := 1; j < 8; j++ {
			crc <<= 1
			if crc&0x80 != 0 {
				crc ^= Polynomial
			}
		}
		t[i] = crc
	}
	return t
}

// Sum returns the raw 7-bit CRC of msg.
func (t *Table) Sum(msg []byte) byte {
	var crc byte
	for _, b := range msg {
		crc = t[(crc<<1)^b]
	}
	return crc
}

// Checksum returns the trailer byte for msg: the CRC shifted into bits 7..1
// with the stop bit set.
func (t *Table) Checksum(msg []byte) byte {
	return t.Sum(msg)<<1 | 0x01
}

var defaultTable = MakeTable()

// Checksum computes the trailer byte of msg with a package level table.
func Checksum(msg []byte) byte {
	return defaultTable.Checksum(msg)
}
