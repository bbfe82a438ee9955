// Package chat keeps the conversation between the user and the financial
// assistant, and talks to the chat backend that produces the answers.
package chat

import (
	"context"

	"github.com/etnz/networth"
)

// MessagesKey is the storage slot holding the transcript.
const MessagesKey = "chat_messages"

// Sender identifies who wrote a Message.
type Sender string

const (
	User Sender = "user"
	Bot  Sender = "bot"
)

// Message is an entry of the transcript.
type Message struct {
	ID        string `json:"id"`
	Sender    Sender `json:"sender"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
	IsLoading bool   `json:"isLoading,omitempty"`
}

// Request is what the backend receives for each user message.
//
// ChatMessages ends with the message to answer.
type Request struct {
	UserDetails  *networth.Profile `json:"user_details"`
	Accounts     networth.Accounts `json:"accounts"`
	ChatMessages []Message         `json:"chatMessages"`
}

// Question returns the text of the last user message.
func (r Request) Question() string {
	for i := len(r.ChatMessages) - 1; i >= 0; i-- {
		if r.ChatMessages[i].Sender == User {
			return r.ChatMessages[i].Text
		}
	}
	return ""
}

// Response is what the backend answers.
type Response struct {
	Response string `json:"response"`
}

// Backend produces the assistant answer to a Request.
type Backend interface {
	Reply(ctx context.Context, req Request) (string, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, req Request) (string, error)

func (f BackendFunc) Reply(ctx context.Context, req Request) (string, error) { return f(ctx, req) }
