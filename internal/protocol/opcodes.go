// internal/protocol/opcodes.go
package protocol

// Single-byte opcodes of the controller link
const (
	OpDeviceReady      byte = 0xF5 // device -> host, boot finished
	OpHostSyn          byte = 0xF0 // host -> device
	OpDeviceAck        byte = 0xF1 // device -> host
	OpHostConfirm      byte = 0xF2 // host -> device, session open
	OpSettingsFollow   byte = 0x11 // host -> device, 12-byte settings frame follows
	OpDisconnectNotice byte = 0x12 // host -> device
)

// DefaultBaudRate is the only rate the controller firmware listens on
const DefaultBaudRate = 115200
