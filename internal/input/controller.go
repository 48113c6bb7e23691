// Package input implements the NES controller port latches.
package input

// Button bits in the order the hardware shifts them out.
type Button uint8

const (
	ButtonA Button = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonUp
	ButtonDown
	ButtonLeft
	ButtonRight
)

// Controller models one controller port: an 8-bit button snapshot
// behind a shift register. While the strobe line is held high the shift
// register continuously reloads from the snapshot; once the strobe
// drops, each read shifts one button bit out and a 1 in, so the 9th and
// later reads return 1 until the next strobe.
//
// A port with no plugged-in controller is modeled by connected=false;
// reads from a disconnected port return 0.
type Controller struct {
	connected bool
	buttons   uint8 // current snapshot set by the host

	shiftRegister uint8
	strobe        bool
}

// New creates a disconnected controller port.
func New() *Controller {
	return &Controller{}
}

// Update sets the port's button snapshot, or disconnects the port when
// buttons is nil. Bit layout: A, B, Select, Start, Up, Down, Left,
// Right from bit 0 up.
func (c *Controller) Update(buttons *uint8) {
	if buttons == nil {
		c.connected = false
		c.buttons = 0
		return
	}
	c.connected = true
	c.buttons = *buttons
}

// Connected reports whether a controller is plugged into the port.
func (c *Controller) Connected() bool {
	return c.connected
}

// Write drives the strobe line from a $4016 write. Bit 0 high reloads
// the shift register and holds it at the first button.
func (c *Controller) Write(value uint8) {
	c.strobe = value&0x01 != 0
	if c.strobe {
		c.shiftRegister = c.buttons
	}
}

// Read shifts one bit out of the port ($4016/$4017 reads). Only bit 0
// carries controller data; the upper bits are left to the bus.
func (c *Controller) Read() uint8 {
	if !c.connected {
		return 0
	}
	if c.strobe {
		// Strobe held high: the register keeps reloading, so every
		// read sees the A button.
		c.shiftRegister = c.buttons
		return c.buttons & 0x01
	}
	bit := c.shiftRegister & 0x01
	// Official controllers report 1 once all eight bits have shifted out.
	c.shiftRegister = (c.shiftRegister >> 1) | 0x80
	return bit
}

// Reset clears the port back to its power-on state. The connection
// state is the host's to manage and survives a console reset.
func (c *Controller) Reset() {
	c.buttons = 0
	c.shiftRegister = 0
	c.strobe = false
}
