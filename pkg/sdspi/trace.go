package sdspi

import (
	"fmt"

	"github.com/gregLibert/microsd/pkg/report"
)

// TRACE:
// A Record captures one logical unit on the bus: a command frame sent to the card, the R1
// token it answered with, or a data block payload. A Trace is the chronological list of
// records for one or more operations, e.g. a full bring-up. Records are only built when a
// Tracer is configured, and tracing never alters the protocol flow.

// Direction tells whether a record was sent to or received from the card.
type Direction uint8

const (
	Sent Direction = iota
	Received
)

func (d Direction) String() string {
	if d == Received {
		return "<"
	}
	return ">"
}

// Record is a single traced exchange.
type Record struct {
	Direction Direction
	Command   Command // command the bytes belong to
	Data      []byte
}

// String renders the record as "> 0x40 0x00 0x00 0x00 0x00 0x95".
func (r Record) String() string {
	return fmt.Sprintf("%s %s", r.Direction, report.Bytes(r.Data))
}

// Tracer receives trace records.
type Tracer interface {
	Record(Record)
}

// TracerFunc adapts a function to the Tracer interface.
type TracerFunc func(Record)

// Record calls f(r).
func (f TracerFunc) Record(r Record) {
	f(r)
}

// Trace is a sequence of records. A *Trace is a Tracer.
type Trace []Record

// Record appends r to the trace.
func (t *Trace) Record(r Record) {
	*t = append(*t, r)
}

// Last returns the final record of the trace.
// Returns nil if the trace is empty.
func (t Trace) Last() *Record {
	if len(t) == 0 {
		return nil
	}
	return &t[len(t)-1]
}

// Commands returns the commands of all sent frames, in order.
func (t Trace) Commands() []Command {
	var cmds []Command
	for _, r := range t {
		if r.Direction == Sent {
			cmds = append(cmds, r.Command)
		}
	}
	return cmds
}
