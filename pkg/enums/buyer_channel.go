package enums

import "fmt"

// BuyerChannel distinguishes company buyers from consumer buyers.
type BuyerChannel string

const (
	BuyerChannelB2B BuyerChannel = "b2b"
	BuyerChannelB2C BuyerChannel = "b2c"
)

var validBuyerChannels = []BuyerChannel{
	BuyerChannelB2B,
	BuyerChannelB2C,
}

// IsValid reports whether the value is a known BuyerChannel.
func (c BuyerChannel) IsValid() bool {
	for _, candidate := range validBuyerChannels {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseBuyerChannel converts raw input into a BuyerChannel.
func ParseBuyerChannel(value string) (BuyerChannel, error) {
	for _, candidate := range validBuyerChannels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid buyer channel %q", value)
}
