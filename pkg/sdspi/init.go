package sdspi

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gregLibert/microsd/pkg/bits"
)

// BRING-UP SEQUENCE (SPI mode):
//
//	power-up   >= 74 clocks with chip select inactive and MOSI high
//	CMD0       reset, must answer idle (0x01)
//	CMD8       0x1AA; idle means a version 2 card, anything else version 1 or MMC
//
//	version 2: check the 0x01/0xAA echo, ACMD41 with HCS until ready, CMD58 for the
//	           OCR whose CCS bit tells SDHC from standard capacity
//	version 1: probe ACMD41; <= 0x01 is an SD card, otherwise MMC which uses CMD1;
//	           poll until ready, then CMD16 sets the block length to 512

const (
	warmupBytes = 10 // 80 clocks

	ifCondVoltage = 0x01 // 2.7-3.6V
	ifCondPattern = 0xAA
	ifCondArg     = uint32(ifCondVoltage)<<8 | ifCondPattern

	hcsArg      = 0x40000000
	blockLength = 512
)

type bringUpResult struct {
	cardType CardType
	ocr      [4]byte
}

// Init runs the bring-up sequence and returns the detected card type.
//
// Every call restarts from power-up and overwrites the previous result. On failure the
// card type is reset to CardTypeNone and an *InitError describes the failed step.
func (c *Card) Init() (CardType, error) {
	res, err := c.bringUp()
	if err != nil {
		c.cardType, c.ocr = CardTypeNone, [4]byte{}
		c.log.Debug("bring-up failed", slog.Any("err", err))
		return CardTypeNone, err
	}

	c.cardType, c.ocr = res.cardType, res.ocr
	c.log.Info("card initialized", slog.String("type", res.cardType.String()))
	return res.cardType, nil
}

func (c *Card) bringUp() (bringUpResult, error) {
	if err := c.powerUp(); err != nil {
		return bringUpResult{}, fail("power-up", err)
	}

	c.log.Debug("bring-up step", slog.String("step", "reset"))
	if err := c.expect(CMD0, 0, R1Idle); err != nil {
		return bringUpResult{}, fail("reset", err)
	}

	c.log.Debug("bring-up step", slog.String("step", "interface condition"))
	resp, err := c.SendCommand(CMD8, ifCondArg)
	if err != nil {
		return bringUpResult{}, fail("interface condition", err)
	}
	if resp == R1Idle {
		return c.bringUpV2()
	}
	return c.bringUpV1()
}

// powerUp configures the bus and clocks the card with chip select inactive.
func (c *Card) powerUp() error {
	if err := c.bus.Configure(c.cfg.InitClock, c.cfg.Mode); err != nil {
		return fmt.Errorf("configure bus: %w", err)
	}
	if err := c.bus.Deselect(); err != nil {
		return fmt.Errorf("deselect: %w", err)
	}
	if _, err := c.bus.Exchange(bytes.Repeat([]byte{0xFF}, warmupBytes)); err != nil {
		return fmt.Errorf("warm-up clocks: %w", err)
	}
	if err := c.bus.Select(); err != nil {
		return fmt.Errorf("select: %w", err)
	}
	return nil
}

func (c *Card) bringUpV2() (bringUpResult, error) {
	echo, err := c.receive(4)
	if err != nil {
		return bringUpResult{}, fail("interface condition", err)
	}
	c.trace(Received, CMD8, echo)
	if echo[2] != ifCondVoltage || echo[3] != ifCondPattern {
		return bringUpResult{}, fail("interface condition", fmt.Errorf("%w: got % X", ErrPatternMismatch, echo))
	}

	c.log.Debug("bring-up step", slog.String("step", "operation condition"), slog.String("branch", "v2"))
	if err := c.waitReady(ACMD41, hcsArg); err != nil {
		return bringUpResult{}, fail("operation condition", err)
	}

	c.log.Debug("bring-up step", slog.String("step", "read OCR"))
	if err := c.expect(CMD58, 0, 0); err != nil {
		return bringUpResult{}, fail("read OCR", err)
	}
	raw, err := c.receive(4)
	if err != nil {
		return bringUpResult{}, fail("read OCR", err)
	}
	c.trace(Received, CMD58, raw)

	res := bringUpResult{cardType: CardTypeSD2}
	copy(res.ocr[:], raw)
	if bits.IsSet(res.ocr[0], 7) { // CCS
		res.cardType = CardTypeSDHC
	}
	return res, nil
}

func (c *Card) bringUpV1() (bringUpResult, error) {
	c.log.Debug("bring-up step", slog.String("step", "operation condition"), slog.String("branch", "v1"))
	probe, err := c.SendCommand(ACMD41, 0)
	if err != nil {
		return bringUpResult{}, fail("operation condition", err)
	}

	res, next := bringUpResult{cardType: CardTypeSD1}, ACMD41
	if probe > R1Idle {
		res.cardType, next = CardTypeMMC, CMD1
	}

	if err := c.waitReady(next, 0); err != nil {
		return bringUpResult{}, fail("operation condition", err)
	}

	c.log.Debug("bring-up step", slog.String("step", "set block length"))
	if err := c.expect(CMD16, blockLength, 0); err != nil {
		return bringUpResult{}, fail("set block length", err)
	}
	return res, nil
}

// waitReady repeats cmd until the card leaves the idle state.
func (c *Card) waitReady(cmd Command, arg uint32) error {
	last := R1NoResponse
	err := c.cfg.OpCond.Until(func() (bool, error) {
		resp, err := c.SendCommand(cmd, arg)
		last = resp
		return resp.Ready(), err
	})
	if errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%s still %s after %d attempts: %w", cmd, last.Verbose(), c.cfg.OpCond.Attempts, err)
	}
	return err
}

// expect sends cmd and fails unless the card answers want.
func (c *Card) expect(cmd Command, arg uint32, want R1) error {
	resp, err := c.SendCommand(cmd, arg)
	if err != nil {
		return err
	}
	if resp != want {
		return &CommandError{Command: cmd, Response: resp}
	}
	return nil
}
