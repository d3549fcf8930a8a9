package sdspi

// CardType is the outcome of a successful bring-up.
type CardType uint8

const (
	CardTypeNone CardType = iota // not initialized or bring-up failed
	CardTypeMMC                  // MultiMediaCard
	CardTypeSD1                  // SD version 1, standard capacity
	CardTypeSD2                  // SD version 2, standard capacity
	CardTypeSDHC                 // SD version 2, high or extended capacity
)

// String returns a short name for the card type.
func (t CardType) String() string {
	switch t {
	case CardTypeMMC:
		return "MMC"
	case CardTypeSD1:
		return "SD1"
	case CardTypeSD2:
		return "SD2"
	case CardTypeSDHC:
		return "SDHC"
	default:
		return "none"
	}
}

// BlockAddressed reports whether data commands take block numbers instead of
// byte offsets.
func (t CardType) BlockAddressed() bool {
	return t == CardTypeSDHC
}
