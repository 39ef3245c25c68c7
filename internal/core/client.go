package core

// Client is a live connection as seen by the room. Events is drained by the
// transport's write loop; the room never blocks on it.
type Client struct {
	ConnID string
	Events chan *Event
}

// NewClient constructs a client with a buffered event channel.
func NewClient(connID string) *Client {
	return &Client{
		ConnID: connID,
		Events: make(chan *Event, 16),
	}
}
