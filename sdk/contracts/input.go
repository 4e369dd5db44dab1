package contracts

// DeviceInfo contains information about a MIDI input device.
type DeviceInfo struct {
	Name         string // Device name.
	Manufacturer string // Device manufacturer.
	EntityName   string // Name of the entity to which the device belongs.
}

// MIDI is a raw channel message captured from a live input device.
type MIDI struct {
	Timestamp uint64 // Capture time in nanoseconds since the Unix epoch.
	Status    byte   // Status byte: message type in the high nibble, channel in the low nibble.
	Data1     byte   // First data byte (the pitch for note messages).
	Data2     byte   // Second data byte (the velocity for note messages).
}

// Bytes returns the message in wire order.
func (m MIDI) Bytes() []byte {
	return []byte{m.Status, m.Data1, m.Data2}
}

// InputClient captures MIDI messages from a hardware input device.
type InputClient interface {
	Stop() error                         // Stops capturing and releases the device.
	ListDevices() ([]DeviceInfo, error)  // Lists all available input devices.
	SelectDevice(deviceID int) error     // Opens the device with the given index.
	StartCapture(eventChannel chan MIDI) // Starts sending captured messages to eventChannel.
}
