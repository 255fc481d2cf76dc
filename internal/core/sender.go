package core

// ConnID identifies one live transport connection.
type ConnID string

// Sender is the outbound half of a connection. TrySend must not block; a full
// send buffer returns an error and the frame is dropped for that member.
type Sender interface {
	TrySend(data []byte) error
}
