package webhook

// Event is the closed set of shapes an inbound gateway payload can decode to.
// The pipeline operates only on these variants, never on the raw payload.
type Event interface {
	isEvent()
}

// TextMessage is an inbound plain-text (or extended-text) message from a
// customer to a tenant's channel instance.
type TextMessage struct {
	InstanceID     string
	SenderPhoneRaw string
	Text           string
}

// ConnectionUpdate reports a channel-instance connection state change.
// It is acknowledged but produces no inbound message.
type ConnectionUpdate struct {
	InstanceID string
	State      string
}

// Ignored covers everything the pipeline does not act on: self-sent messages,
// non-text media, and unknown event types. Always acknowledged as success.
type Ignored struct {
	Reason string
}

func (TextMessage) isEvent()      {}
func (ConnectionUpdate) isEvent() {}
func (Ignored) isEvent()          {}
