package service

import (
	"math/bits"
	"strconv"
	"strings"
)

// validMaskOctets are the only byte values a dotted-decimal netmask
// may contain: a contiguous run of set bits from the left.
var validMaskOctets = map[int]bool{
	0: true, 128: true, 192: true, 224: true,
	240: true, 248: true, 252: true, 254: true, 255: true,
}

// ParseSubnetMask validates a dotted-decimal subnet mask and returns
// its 32-bit value. A mask is valid when every octet is a contiguous
// left-aligned bit run and no octet is larger than the one before it
// once a partial octet has appeared.
func ParseSubnetMask(mask string) (uint32, error) {
	octets := strings.Split(mask, ".")
	if len(octets) != 4 {
		return 0, ErrValidation
	}

	var value uint32
	previous := 255
	for _, octet := range octets {
		n, err := strconv.Atoi(octet)
		if err != nil || !validMaskOctets[n] {
			return 0, ErrValidation
		}
		if previous != 255 && n != 0 {
			return 0, ErrValidation
		}
		value = value<<8 | uint32(n)
		previous = n
	}
	return value, nil
}

func ValidateSubnetMask(mask string) error {
	_, err := ParseSubnetMask(mask)
	return err
}

// MaxHosts returns the number of usable host addresses under the
// mask: 2^(unset bits) minus network and broadcast, floored at 0 for
// /31 and /32.
func MaxHosts(mask string) (int, error) {
	value, err := ParseSubnetMask(mask)
	if err != nil {
		return 0, err
	}
	zeros := 32 - bits.OnesCount32(value)
	if zeros < 2 {
		return 0, nil
	}
	return (1 << zeros) - 2, nil
}
