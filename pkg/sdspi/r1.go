package sdspi

import (
	"fmt"
	"strings"

	"github.com/gregLibert/microsd/pkg/bits"
)

// R1 Response Logic:
//
// Most commands answer with a single R1 byte. Bit 7 is always 0 in a genuine token, so a
// value with bit 7 set after the poll budget means "no response". The remaining bits are
// independent flags:
//
//	bit 0  in idle state
//	bit 1  erase reset
//	bit 2  illegal command
//	bit 3  command CRC error
//	bit 4  erase sequence error
//	bit 5  address error
//	bit 6  parameter error
//
// 0x00 means the card has left the idle state and accepted the command.

// R1 is the single byte response token returned after a command.
type R1 byte

// R1 flags.
const (
	R1Idle               R1 = 1 << 0
	R1EraseReset         R1 = 1 << 1
	R1IllegalCommand     R1 = 1 << 2
	R1CRCError           R1 = 1 << 3
	R1EraseSequenceError R1 = 1 << 4
	R1AddressError       R1 = 1 << 5
	R1ParameterError     R1 = 1 << 6

	// R1NoResponse is what an idle data line reads as.
	R1NoResponse R1 = 0xFF
)

var r1FlagNames = []struct {
	flag R1
	name string
}{
	{R1Idle, "idle"},
	{R1EraseReset, "erase reset"},
	{R1IllegalCommand, "illegal command"},
	{R1CRCError, "CRC error"},
	{R1EraseSequenceError, "erase sequence error"},
	{R1AddressError, "address error"},
	{R1ParameterError, "parameter error"},
}

// Valid reports whether r is a genuine response token (bit 7 clear).
func (r R1) Valid() bool {
	return !bits.IsSet(byte(r), 8)
}

// Ready reports whether the card accepted the command outside the idle state.
func (r R1) Ready() bool {
	return r == 0
}

// Idle reports whether r is exactly the idle state token with no error flag.
func (r R1) Idle() bool {
	return r == R1Idle
}

// Has reports whether all bits of flag are set in a valid token.
func (r R1) Has(flag R1) bool {
	return r.Valid() && r&flag == flag
}

// Verbose returns a human-readable description of the token.
func (r R1) Verbose() string {
	if !r.Valid() {
		return fmt.Sprintf("[%02X] no response", byte(r))
	}
	if r.Ready() {
		return "[00] ready"
	}

	var names []string
	for _, f := range r1FlagNames {
		if r&f.flag != 0 {
			names = append(names, f.name)
		}
	}
	return fmt.Sprintf("[%02X] %s", byte(r), strings.Join(names, ", "))
}
