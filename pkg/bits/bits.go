package bits

// Bit returns a byte with only the n-th bit set (1 to 8).
func Bit(n uint) byte {
	if n < 1 || n > 8 {
		return 0
	}
	return 1 << (n - 1)
}

// IsSet checks if the n-th bit is set (1 to 8).
func IsSet(b byte, n uint) bool {
	return b&Bit(n) != 0
}

// Clear returns b with the n-th bit cleared.
func Clear(b byte, n uint) byte {
	return b &^ Bit(n)
}

// Field extracts bits [high:low] from a big-endian register.
//
// Bits are numbered the way the SD register tables number them: the most
// significant bit of reg[0] is bit len(reg)*8-1 and the least significant bit
// of the last byte is bit 0. Fields wider than 32 bits, reversed ranges and
// ranges outside the register return 0.
//
// Example: Field(csd, 69, 48) returns C_SIZE of a version 2.0 CSD.
func Field(reg []byte, high, low uint) uint32 {
	width := uint(len(reg)) * 8
	if high < low || high >= width || high-low >= 32 {
		return 0
	}

	var v uint32
	for n := high; ; n-- {
		idx := (width - 1 - n) / 8
		v = v<<1 | uint32(reg[idx]>>(n%8)&1)
		if n == low {
			break
		}
	}
	return v
}
