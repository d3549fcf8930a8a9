package sdspi

import (
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Transport abstracts the SPI bus the card is attached to.
//
// Exchange is full duplex: it returns one octet per octet written. The driver writes
// 0xFF when it only wants to read. Deselect must leave the card's chip select inactive
// while still clocking the bus, which the power-up sequence relies on.
type Transport interface {
	Configure(freq physic.Frequency, mode spi.Mode) error
	Exchange(w []byte) ([]byte, error)
	Select() error
	Deselect() error
}
