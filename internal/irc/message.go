package irc

import (
	"strings"
)

// Message is one decoded chat line: who sent it, where it went, and the
// body split into words for the dispatch engine.
type Message struct {
	User   *User
	Target string
	Body   string
	Words  []string

	// Channel is the resolved protocol channel for non-private targets,
	// attached by the connection before callbacks fire.
	Channel *Channel
}

// NewMessage creates a Message with the word split precomputed
func NewMessage(user *User, target, body string) *Message {
	return &Message{
		User:   user,
		Target: target,
		Body:   body,
		Words:  strings.Fields(body),
	}
}

// IsPrivate reports whether the message was sent directly to the client
// rather than to a channel.
func (m *Message) IsPrivate() bool {
	return !strings.HasPrefix(m.Target, "#")
}
