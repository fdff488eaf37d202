package domain

// Kind classifies the payload of an incoming message.
type Kind int

const (
	KindText Kind = iota
	KindLocation
	KindCommand
)

// Incoming is a normalized inbound message, decoupled from the transport.
// Exactly one payload field is meaningful, selected by Kind: Text for
// KindText, Command for KindCommand, Latitude/Longitude for KindLocation.
type Incoming struct {
	UserID      int64
	Username    string
	DisplayName string
	Kind        Kind
	Text        string
	Command     string
	Latitude    float64
	Longitude   float64
}
