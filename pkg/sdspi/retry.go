package sdspi

import "time"

// Poller runs an action a bounded number of times.
//
// Every poll loop of the protocol goes through a Poller: the R1 response wait (busy
// poll, no delay), the operation condition wait (10 ms apart) and the start block
// token wait.
type Poller struct {
	// Attempts is the number of times the action runs at most.
	Attempts int

	// Delay is slept between two attempts, never after the last one.
	Delay time.Duration

	// Sleep replaces time.Sleep when set.
	Sleep func(time.Duration)
}

// Until calls fn until it reports done. It returns nil on success, the first error
// returned by fn, or ErrTimeout once Attempts calls have not succeeded.
func (p Poller) Until(fn func() (done bool, err error)) error {
	for i := 0; i < p.Attempts; i++ {
		if i > 0 && p.Delay > 0 {
			p.sleep(p.Delay)
		}

		done, err := fn()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return ErrTimeout
}

func (p Poller) sleep(d time.Duration) {
	if p.Sleep != nil {
		p.Sleep(d)
		return
	}
	time.Sleep(d)
}
