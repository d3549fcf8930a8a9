package sdspi

// RegisterSize is the length of the CID and CSD registers.
const RegisterSize = 16

// GetCID reads the 16-byte card identification register.
func (c *Card) GetCID() ([]byte, error) {
	return c.readRegister(CMD10)
}

// GetCSD reads the 16-byte card specific data register.
func (c *Card) GetCSD() ([]byte, error) {
	return c.readRegister(CMD9)
}

func (c *Card) readRegister(cmd Command) ([]byte, error) {
	if c.cardType == CardTypeNone {
		return nil, ErrNotInitialized
	}

	resp, err := c.SendCommand(cmd, 0)
	if err != nil {
		return nil, err
	}
	if !resp.Ready() {
		return nil, &CommandError{Command: cmd, Response: resp}
	}
	return c.ReadBlock(RegisterSize)
}
