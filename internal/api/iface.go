package api

import "context"

// ChatAPI defines the interface for the chat endpoint client.
// *Client satisfies this interface. The controller and tests can use mock implementations.
type ChatAPI interface {
	Chat(ctx context.Context, message string) (*ChatResponse, error)
}

var _ ChatAPI = (*Client)(nil)
