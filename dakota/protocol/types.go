package protocol

// MessageType is the first byte of every frame.
type MessageType uint8

// Message types in the order a transfer uses them.
const (
	MessageTypeOffer MessageType = 1
	MessageTypeData  MessageType = 2
	MessageTypeAck   MessageType = 3
	MessageTypeClose MessageType = 4
)

func (t MessageType) String() string {
	switch t {
	case MessageTypeOffer:
		return "OFFER"
	case MessageTypeData:
		return "DATA"
	case MessageTypeAck:
		return "ACK"
	case MessageTypeClose:
		return "CLOSE"
	default:
		return "UNKNOWN"
	}
}

func (t MessageType) valid() bool {
	return t >= MessageTypeOffer && t <= MessageTypeClose
}
