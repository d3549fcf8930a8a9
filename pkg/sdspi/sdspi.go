/*
Package sdspi drives an SD/MMC card in SPI mode, as described in the SPI appendix of the
SD Physical Layer specification.

The package covers card bring-up and register access over a narrow Transport: a
full-duplex byte exchange plus clock and chip-select control.

# Command Frames

Every command is a 6-byte frame:
 1. Opcode: start bits '01' followed by the 6-bit command index (e.g. 0x40 for CMD0).
 2. Argument: 32-bit big-endian value.
 3. Trailer: CRC7 of the first five bytes in bits 7..1, stop bit '1' in bit 0.

Application commands (ACMDn) are tagged with bit 7 of the Command value. Sending one
transparently issues CMD55 (APP_CMD) first.

# Responses

After a frame the host clocks 0xFF until the card answers with an R1 token (bit 7
clear). Bit 0 reports the idle state, the other bits report errors. A token with bit 7
still set after the poll budget means the card did not answer.

# Bring-up

	card := sdspi.NewCard(bus, sdspi.WithLogger(logger))
	cardType, err := card.Init()
	if err != nil {
	    var initErr *sdspi.InitError
	    if errors.As(err, &initErr) {
	        log.Printf("bring-up failed at %s: %s", initErr.Step, initErr.Kind)
	    }
	    return err
	}

	cid, err := card.GetCID()

Init walks CMD0 (reset), CMD8 (interface condition) and then either the version 2 branch
(ACMD41 with HCS, CMD58) or the version 1 / MMC branch (ACMD41 or CMD1, CMD16). It
returns the detected CardType.

A Card is not safe for concurrent use; callers serialize every operation on one card.
*/
package sdspi
