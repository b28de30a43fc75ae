package sn3218

// Command registers, per the SN3218 datasheet. A bus transaction is the
// register address followed by its payload; the chip auto-increments the
// address for multi-byte writes.
const (
	cmdEnableOutput = 0x00 // 1 byte: 0x01 normal operation, 0x00 software shutdown
	cmdSetPWM       = 0x01 // 18 bytes, OUT1..OUT18
	cmdEnableLEDs   = 0x13 // 3 bytes: OUT1-6, OUT7-12, OUT13-18
	cmdUpdate       = 0x16 // 0xFF, latches staged registers to the outputs
	cmdReset        = 0x17 // 0xFF, back to power-on defaults
)

// DefaultAddr is the 7-bit I2C address of the SN3218. It is fixed in
// silicon; every board with this chip answers here.
const DefaultAddr uint16 = 0x54

// NumChannels is the number of PWM output channels.
const NumChannels = 18

// ChannelMask selects output channels. Bit n corresponds to OUT(n+1) on
// the chip, so bit 0 is channel 1 in datasheet numbering.
type ChannelMask uint32

// AllChannels has every one of the 18 channels set.
const AllChannels ChannelMask = 1<<NumChannels - 1

const groupBits = 0x3F

// encodeMask splits a channel mask into the three LED control register
// values. The silicon wires the enable bits in 6-channel groups: register
// 0x13 carries OUT1-6 in its low six bits, then OUT7-12 and OUT13-18
// follow. Bits at position 18 and above fall out of the 6-bit masking.
func encodeMask(m ChannelMask) [3]byte {
	return [3]byte{
		byte(m & groupBits),
		byte(m >> 6 & groupBits),
		byte(m >> 12 & groupBits),
	}
}
