package sdspi

import (
	"log/slog"
	"time"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Bring-up clock limits. Cards must be identified between 100 kHz and 400 kHz.
const (
	MinInitClock = 100 * physic.KiloHertz
	MaxInitClock = 400 * physic.KiloHertz
)

// Config holds the card driver configuration.
type Config struct {
	// Logger receives debug records for each bring-up step (optional)
	Logger *slog.Logger

	// Tracer receives every frame, response and data block exchanged (optional)
	Tracer Tracer

	// InitClock is the bus frequency used during bring-up
	InitClock physic.Frequency

	// Mode is the SPI mode; SD cards require mode 0
	Mode spi.Mode

	// ResponsePolls is the number of bytes clocked while waiting for an R1 token
	ResponsePolls int

	// OpCond paces the wait for the card to leave the idle state
	OpCond Poller

	// Token paces the wait for the start block token
	Token Poller

	// VerifyDataCRC enables CRC16 checking of data blocks
	VerifyDataCRC bool

	// Sleep replaces time.Sleep in every poll loop
	Sleep func(time.Duration)
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		InitClock:     MinInitClock,
		Mode:          spi.Mode0,
		ResponsePolls: 10,
		OpCond:        Poller{Attempts: 10, Delay: 10 * time.Millisecond},
		Token:         Poller{Attempts: 10, Delay: 100 * time.Microsecond},
		Sleep:         time.Sleep,
	}
}

// Option is a functional option for configuring the Card.
type Option func(*Config)

// WithLogger sets a structured logger for the driver.
//
// Example:
//
//	card := sdspi.NewCard(bus, sdspi.WithLogger(slog.Default()))
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

// WithTracer records every bus transaction into t.
//
// Example:
//
//	var trace sdspi.Trace
//	card := sdspi.NewCard(bus, sdspi.WithTracer(&trace))
func WithTracer(t Tracer) Option {
	return func(c *Config) {
		c.Tracer = t
	}
}

// WithInitClock sets the bring-up clock. Values outside 100-400 kHz are clamped.
func WithInitClock(f physic.Frequency) Option {
	return func(c *Config) {
		switch {
		case f < MinInitClock:
			f = MinInitClock
		case f > MaxInitClock:
			f = MaxInitClock
		}
		c.InitClock = f
	}
}

// WithMode overrides the SPI mode. Only adapters with unusual wiring need this.
func WithMode(m spi.Mode) Option {
	return func(c *Config) {
		c.Mode = m
	}
}

// WithResponsePolls sets how many bytes are clocked while waiting for an R1 token.
func WithResponsePolls(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.ResponsePolls = n
		}
	}
}

// WithOpCondPolling sets the attempt budget and spacing of the idle state wait.
//
// Example:
//
//	card := sdspi.NewCard(bus, sdspi.WithOpCondPolling(100, 10*time.Millisecond))
func WithOpCondPolling(attempts int, delay time.Duration) Option {
	return func(c *Config) {
		if attempts > 0 {
			c.OpCond.Attempts = attempts
		}
		if delay >= 0 {
			c.OpCond.Delay = delay
		}
	}
}

// WithTokenPolling sets the attempt budget and spacing of the start block token wait.
func WithTokenPolling(attempts int, delay time.Duration) Option {
	return func(c *Config) {
		if attempts > 0 {
			c.Token.Attempts = attempts
		}
		if delay >= 0 {
			c.Token.Delay = delay
		}
	}
}

// WithDataCRC enables verification of the CRC16 trailing each data block.
// SPI mode leaves data CRCs unchecked by default.
func WithDataCRC(verify bool) Option {
	return func(c *Config) {
		c.VerifyDataCRC = verify
	}
}

// WithSleep replaces time.Sleep in every poll loop.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Config) {
		if sleep != nil {
			c.Sleep = sleep
		}
	}
}
