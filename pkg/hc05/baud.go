package hc05

import "fmt"

// ClockHz is the reference clock the divisors are computed for.
const ClockHz = 50000000

// BaudRate is the number of reference clock cycles per UART bit, about
// ClockHz / bits-per-second. The values are the ones the peripheral was
// calibrated with and must be used as-is.
type BaudRate uint32

// Supported baud rates.
const (
	B4800    BaudRate = 10415
	B9600    BaudRate = 5208
	B19200   BaudRate = 2604
	B38400   BaudRate = 1302
	B57600   BaudRate = 867
	B115200  BaudRate = 433
	B230400  BaudRate = 216
	B460800  BaudRate = 109
	B921600  BaudRate = 53
	B1382400 BaudRate = 35
)

var baudRates = map[BaudRate]uint32{
	B4800:    4800,
	B9600:    9600,
	B19200:   19200,
	B38400:   38400,
	B57600:   57600,
	B115200:  115200,
	B230400:  230400,
	B460800:  460800,
	B921600:  921600,
	B1382400: 1382400,
}

// BaudRateFor maps bits per second to the divisor value.
func BaudRateFor(bps uint32) (BaudRate, error) {
	for r, v := range baudRates {
		if v == bps {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %d bps", ErrInvalidBaudRate, bps)
}

// Valid indicates r is one of the defined divisors.
func (r BaudRate) Valid() bool {
	_, ok := baudRates[r]
	return ok
}

// Rate returns the bits per second, 0 if r is not defined.
func (r BaudRate) Rate() uint32 {
	return baudRates[r]
}

// String implements fmt.Stringer.
func (r BaudRate) String() string {
	if bps, ok := baudRates[r]; ok {
		return fmt.Sprintf("%d", bps)
	}
	return fmt.Sprintf("BaudRate(%d)", uint32(r))
}
