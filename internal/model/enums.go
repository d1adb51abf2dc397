package model

// ConnectionState is the lifecycle state of a tenant's channel instance.
type ConnectionState string

const (
	ConnectionStateNotFound   ConnectionState = "not_found"
	ConnectionStateConnecting ConnectionState = "connecting"
	ConnectionStateOpen       ConnectionState = "open"
	ConnectionStateError      ConnectionState = "error"
)

// MessageRole identifies which side of the conversation produced a message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

func (r MessageRole) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}
