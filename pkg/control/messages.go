package control

import (
	"context"
	"fmt"
)

// MessageType names a control command
type MessageType string

const (
	UnfollowAll          MessageType = "UNFOLLOW_ALL"
	UnfollowNotFollowing MessageType = "UNFOLLOW_NOT_FOLLOWING"
	Demo                 MessageType = "DEMO"
	Stop                 MessageType = "STOP"
	CheckInProgress      MessageType = "CHECK_IN_PROGRESS"
)

// DefaultPath is the websocket endpoint path
const DefaultPath = "/control"

// Message is an inbound command
type Message struct {
	Type MessageType `json:"type"`
}

// Reply answers a command that expects one
type Reply struct {
	Payload bool `json:"payload"`
}

// Known reports whether t is part of the command vocabulary
func (t MessageType) Known() bool {
	switch t {
	case UnfollowAll, UnfollowNotFollowing, Demo, Stop, CheckInProgress:
		return true
	}
	return false
}

// Handler executes commands. A nil reply means nothing is sent back
type Handler interface {
	Dispatch(ctx context.Context, msg Message) (*Reply, error)
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, msg Message) (*Reply, error)

func (f HandlerFunc) Dispatch(ctx context.Context, msg Message) (*Reply, error) {
	return f(ctx, msg)
}

// URL returns the websocket URL for a listen address
func URL(addr string) string {
	return fmt.Sprintf("ws://%s%s", addr, DefaultPath)
}
