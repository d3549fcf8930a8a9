package sdspi

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gregLibert/microsd/pkg/crc7"
)

// CLIENT & PROTOCOL LOGIC:
// The Card acts as the host side driver over the Transport. SendCommand hides two
// protocol behaviors from callers:
//
// 1. Application commands:
//    An ACMDn is preceded by CMD55. If CMD55 answers with anything beyond idle or
//    ready (> 0x01) the ACMD is not sent and the CMD55 response is returned.
//
// 2. Response polling:
//    After the frame, 0xFF is clocked until a byte with bit 7 clear arrives, up to the
//    configured budget. The last byte read is returned as is when the budget runs out.

// Card manages the communication with one SD/MMC card.
type Card struct {
	bus Transport
	crc *crc7.Table
	cfg Config
	log *slog.Logger

	// last command sent, used to label data block records
	last Command

	cardType CardType
	ocr      [4]byte
}

// NewCard creates a new Card instance on bus.
func NewCard(bus Transport, opts ...Option) *Card {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.OpCond.Sleep = cfg.Sleep
	cfg.Token.Sleep = cfg.Sleep

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Card{
		bus: bus,
		crc: crc7.MakeTable(),
		cfg: cfg,
		log: logger,
	}
}

// Type returns the card type detected by the last Init.
func (c *Card) Type() CardType {
	return c.cardType
}

// OCR returns the operation condition register read during the last Init.
// It is zero unless the card went through the version 2 branch.
func (c *Card) OCR() [4]byte {
	return c.ocr
}

// SendCommand transmits cmd with its argument and returns the R1 token.
//
// A returned token with bit 7 set means the card never answered within the poll
// budget; it is not reported as an error. Errors are reserved for transport failures.
func (c *Card) SendCommand(cmd Command, arg uint32) (R1, error) {
	if cmd.IsApp() {
		resp, err := c.SendCommand(CMD55, 0)
		if err != nil {
			return resp, err
		}
		if resp > R1Idle {
			return resp, nil
		}
	}

	frame := NewFrame(cmd, arg).Bytes(c.crc)
	c.trace(Sent, cmd, frame)
	c.last = cmd

	if _, err := c.bus.Exchange(frame); err != nil {
		return R1NoResponse, fmt.Errorf("send %s: %w", cmd, err)
	}

	resp := R1NoResponse
	poll := Poller{Attempts: c.cfg.ResponsePolls}
	err := poll.Until(func() (bool, error) {
		b, err := c.readByte()
		if err != nil {
			return false, err
		}
		resp = R1(b)
		return resp.Valid(), nil
	})
	if err != nil && !errors.Is(err, ErrTimeout) {
		return resp, fmt.Errorf("poll %s response: %w", cmd, err)
	}

	c.trace(Received, cmd, []byte{byte(resp)})
	c.log.Debug("command", slog.String("cmd", cmd.String()), slog.String("arg", fmt.Sprintf("0x%08X", arg)), slog.String("r1", resp.Verbose()))
	return resp, nil
}

// SendCommandBytes is SendCommand with the argument given as four bytes, most
// significant first.
func (c *Card) SendCommandBytes(cmd Command, a0, a1, a2, a3 byte) (R1, error) {
	f := NewFrameBytes(cmd, a0, a1, a2, a3)
	return c.SendCommand(f.Command, f.Arg)
}

// receive clocks n bytes out of the card.
func (c *Card) receive(n int) ([]byte, error) {
	r, err := c.bus.Exchange(bytes.Repeat([]byte{0xFF}, n))
	if err != nil {
		return nil, err
	}
	if len(r) < n {
		return nil, errShortExchange
	}
	return r[:n], nil
}

func (c *Card) readByte() (byte, error) {
	r, err := c.receive(1)
	if err != nil {
		return 0, err
	}
	return r[0], nil
}

func (c *Card) trace(dir Direction, cmd Command, data []byte) {
	if c.cfg.Tracer == nil {
		return
	}
	c.cfg.Tracer.Record(Record{
		Direction: dir,
		Command:   cmd,
		Data:      append([]byte(nil), data...),
	})
}
