package ws

// Message types exchanged on the /ws channel. All frames are JSON objects
// with a "type" discriminator.
const (
	// TypeAuth is sent by the client immediately after connecting.
	TypeAuth = "AUTH"
	// TypeConnected acknowledges the AUTH attempt.
	TypeConnected = "CONNECTED"
	// TypeQueueUpdate is broadcast to every client after a queue-affecting
	// write. It carries no payload; recipients re-fetch the snapshot.
	TypeQueueUpdate = "QUEUE_UPDATE"
)

// AuthMessage is the client -> server authentication frame.
type AuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// ConnectedMessage is the server -> client AUTH acknowledgement.
type ConnectedMessage struct {
	Type          string `json:"type"`
	Authenticated bool   `json:"authenticated"`
	Error         string `json:"error,omitempty"`
}

// QueueUpdateMessage is the payload-free invalidation signal.
type QueueUpdateMessage struct {
	Type string `json:"type"`
}
