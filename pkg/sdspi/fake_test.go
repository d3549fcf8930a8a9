package sdspi

import (
	"errors"
	"time"

	"github.com/gregLibert/microsd/pkg/crc7"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// fakeBus simulates a card on the other end of the Transport. Replies are scripted per
// command index: the n-th frame of a command gets the n-th reply, the last reply repeats.
// A reply is queued when the frame arrives and drained by the following reads; an empty
// queue reads as 0xFF.
type fakeBus struct {
	replies map[byte][][]byte
	calls   map[byte]int

	frames   [][]byte
	out      []byte
	reads    int // bytes clocked while selected, outside frames
	warmup   int // bytes clocked while deselected
	selected bool

	freq physic.Frequency
	mode spi.Mode

	configureErr error
	exchangeErr  error
}

var errBus = errors.New("bus fault")

func newFakeBus() *fakeBus {
	return &fakeBus{
		replies: map[byte][][]byte{},
		calls:   map[byte]int{},
	}
}

// on scripts the replies for the command with the given index.
func (f *fakeBus) on(index byte, replies ...[]byte) *fakeBus {
	f.replies[index] = replies
	return f
}

func r(b ...byte) []byte { return b }

func (f *fakeBus) Configure(freq physic.Frequency, mode spi.Mode) error {
	f.freq, f.mode = freq, mode
	return f.configureErr
}

func (f *fakeBus) Select() error {
	f.selected = true
	return nil
}

func (f *fakeBus) Deselect() error {
	f.selected = false
	return nil
}

func (f *fakeBus) Exchange(w []byte) ([]byte, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}

	resp := make([]byte, len(w))
	for i := range resp {
		resp[i] = 0xFF
	}

	if !f.selected {
		f.warmup += len(w)
		return resp, nil
	}

	if isFrame(w) {
		f.frames = append(f.frames, append([]byte(nil), w...))
		f.out = nil

		if w[5] != crc7.Checksum(w[:5]) {
			f.out = r(byte(R1CRCError))
			return resp, nil
		}

		idx := w[0] & 0x3F
		seq := f.replies[idx]
		n := f.calls[idx]
		f.calls[idx]++
		if len(seq) > 0 {
			if n >= len(seq) {
				n = len(seq) - 1
			}
			f.out = append(f.out, seq[n]...)
		}
		return resp, nil
	}

	f.reads += len(w)
	for i := range resp {
		if len(f.out) > 0 {
			resp[i], f.out = f.out[0], f.out[1:]
		}
	}
	return resp, nil
}

func isFrame(w []byte) bool {
	return len(w) == FrameSize && w[0]&0xC0 == startBits
}

// sent returns the command indexes of all frames, in order.
func (f *fakeBus) sent() []byte {
	var idx []byte
	for _, fr := range f.frames {
		idx = append(idx, fr[0]&0x3F)
	}
	return idx
}

func (f *fakeBus) count(index byte) int {
	n := 0
	for _, i := range f.sent() {
		if i == index {
			n++
		}
	}
	return n
}

// sleeper records requested delays instead of sleeping.
type sleeper struct {
	delays []time.Duration
}

func (s *sleeper) sleep(d time.Duration) {
	s.delays = append(s.delays, d)
}

func newTestCard(bus Transport, opts ...Option) (*Card, *sleeper) {
	s := &sleeper{}
	opts = append([]Option{WithSleep(s.sleep)}, opts...)
	return NewCard(bus, opts...), s
}

// Scripted cards.

func sdhcBus() *fakeBus {
	return newFakeBus().
		on(0, r(0x01)).
		on(8, r(0x01, 0x00, 0x00, 0x01, 0xAA)).
		on(55, r(0x01)).
		on(41, r(0x01), r(0x01), r(0x00)).
		on(58, r(0x00, 0xC0, 0xFF, 0x80, 0x00))
}

func sd2Bus() *fakeBus {
	return sdhcBus().on(58, r(0x00, 0x80, 0xFF, 0x80, 0x00))
}

func sd1Bus() *fakeBus {
	return newFakeBus().
		on(0, r(0x01)).
		on(8, r(0x05)).
		on(55, r(0x01)).
		on(41, r(0x01), r(0x01), r(0x00)).
		on(16, r(0x00))
}

func mmcBus() *fakeBus {
	return newFakeBus().
		on(0, r(0x01)).
		on(8, r(0x05)).
		on(55, r(0x05)).
		on(1, r(0x01), r(0x00)).
		on(16, r(0x00))
}
