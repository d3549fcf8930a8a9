/*
Package spibus drives an SD card through a periph.io SPI port.

The card's chip select is owned by the SPI controller, which asserts it for the
duration of every transaction on the card's port. Deselecting the card routes the
clock pulses to a second port on the same bus (typically the other chip select of
the controller), so the card sees SCLK with CS high, as the power-up sequence
requires.

	bus, err := spibus.Open("SPI0.0", "SPI0.1")
	if err != nil {
	    return err
	}
	defer bus.Close()

	card := sdspi.NewCard(bus)
*/
package spibus

import (
	"errors"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// wordBits is the SPI word size used for every connection.
const wordBits = 8

// ErrNotConfigured is returned when the bus is used before Configure.
var ErrNotConfigured = errors.New("spibus: bus not configured")

// Opener opens a SPI port by name.
type Opener func(name string) (spi.PortCloser, error)

// Option configures a Bus.
type Option func(*Bus)

// WithOpener replaces spireg.Open.
func WithOpener(open Opener) Option {
	return func(b *Bus) {
		b.open = open
	}
}

// WithLogger sets the logger used for port management messages.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.log = l
		}
	}
}

// Bus implements sdspi.Transport on top of two SPI ports of the same controller.
type Bus struct {
	cardName string
	idleName string
	open     Opener
	log      *slog.Logger

	card, idle         spi.PortCloser
	cardConn, idleConn spi.Conn
	active             spi.Conn
}

// Open initializes the periph.io host drivers and opens both ports.
func Open(cardPort, idlePort string, opts ...Option) (*Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph host: %w", err)
	}
	return New(cardPort, idlePort, opts...)
}

// New opens both ports without initializing the host drivers.
func New(cardPort, idlePort string, opts ...Option) (*Bus, error) {
	b := &Bus{
		cardName: cardPort,
		idleName: idlePort,
		open:     spireg.Open,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(b)
	}

	if err := b.openPorts(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bus) openPorts() error {
	card, err := b.open(b.cardName)
	if err != nil {
		return fmt.Errorf("failed to open SPI port %s: %w", b.cardName, err)
	}
	idle, err := b.open(b.idleName)
	if err != nil {
		_ = card.Close()
		return fmt.Errorf("failed to open SPI port %s: %w", b.idleName, err)
	}
	b.card, b.idle = card, idle
	return nil
}

// Configure connects both ports at the given clock and mode.
//
// A periph.io port accepts a single Connect call: reconfiguring a connected bus
// closes and reopens both ports first. A failed Configure leaves both ports closed
// and the next call reopens them.
func (b *Bus) Configure(freq physic.Frequency, mode spi.Mode) error {
	if b.cardConn != nil {
		if err := b.closePorts(); err != nil {
			return err
		}
	}
	if b.card == nil {
		if err := b.openPorts(); err != nil {
			return err
		}
	}

	cardConn, err := b.card.Connect(freq, mode, wordBits)
	if err != nil {
		_ = b.closePorts()
		return fmt.Errorf("failed to connect SPI port %s: %w", b.cardName, err)
	}
	idleConn, err := b.idle.Connect(freq, mode, wordBits)
	if err != nil {
		_ = b.closePorts()
		return fmt.Errorf("failed to connect SPI port %s: %w", b.idleName, err)
	}

	b.cardConn, b.idleConn = cardConn, idleConn
	b.active = idleConn
	b.log.Debug("SPI bus configured", "card", b.cardName, "idle", b.idleName, "clock", freq, "mode", mode)
	return nil
}

// Select routes the following exchanges to the card.
func (b *Bus) Select() error {
	if b.cardConn == nil {
		return ErrNotConfigured
	}
	b.active = b.cardConn
	return nil
}

// Deselect routes the following exchanges to the idle port.
func (b *Bus) Deselect() error {
	if b.idleConn == nil {
		return ErrNotConfigured
	}
	b.active = b.idleConn
	return nil
}

// Exchange clocks w out and returns the bytes clocked in.
func (b *Bus) Exchange(w []byte) ([]byte, error) {
	if b.active == nil {
		return nil, ErrNotConfigured
	}
	r := make([]byte, len(w))
	if err := b.active.Tx(w, r); err != nil {
		return nil, fmt.Errorf("spibus: transfer failed: %w", err)
	}
	return r, nil
}

// Close releases both ports.
func (b *Bus) Close() error {
	return b.closePorts()
}

func (b *Bus) closePorts() error {
	var errs []error
	if b.card != nil {
		errs = append(errs, b.card.Close())
	}
	if b.idle != nil {
		errs = append(errs, b.idle.Close())
	}
	b.card, b.idle = nil, nil
	b.cardConn, b.idleConn, b.active = nil, nil, nil
	return errors.Join(errs...)
}
