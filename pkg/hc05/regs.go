package hc05

// Registers is the register block of the FIFO peripheral in front of the
// HC-05 UART.
//
// The FIFO accessors are unchecked: WriteByte on a full outbound FIFO or
// ReadByte on an empty inbound FIFO yields undefined data rather than an
// error. Callers check FreeSpace/PendingData first, which is what Link does.
type Registers interface {
	// FreeSpace returns the number of bytes the outbound FIFO can accept.
	FreeSpace() uint32
	// PendingData returns the number of bytes waiting in the inbound FIFO.
	PendingData() uint32
	// WriteByte pushes one byte into the outbound FIFO.
	WriteByte(b byte)
	// ReadByte pops one byte from the inbound FIFO.
	ReadByte() byte

	// ResetFIFO clears the FIFOs selected by mask.
	ResetFIFO(mask uint32)
	// Ctrl reads the control register.
	Ctrl() uint32
	// SetCtrl writes the control register.
	SetCtrl(val uint32)
	// BaudRate reads the UART divisor register.
	BaudRate() BaudRate
	// SetBaudRate writes the UART divisor register.
	SetBaudRate(rate BaudRate)
}

// Control register bits.
const (
	UARTOn  uint32 = 0x01
	UARTOff uint32 = 0x00

	IRQEnableMask uint32 = 0x06
	IRQEnableRecv uint32 = 0x02
	IRQEnableDrop uint32 = 0x04

	StopBitsMask uint32 = 0x08
	StopBits1    uint32 = 0x00
	StopBits2    uint32 = 0x08

	ParityMask uint32 = 0x30
	NoParity   uint32 = 0x00
	EvenParity uint32 = 0x20
	OddParity  uint32 = 0x30
)

// FIFO reset bits.
const (
	ResetFIFOIn  uint32 = 0x01
	ResetFIFOOut uint32 = 0x02
	ResetFIFOs          = ResetFIFOIn | ResetFIFOOut
)
