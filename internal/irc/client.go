package irc

import (
	"github.com/andrewdodd13/botologist/internal/output"
)

// Client ties a connection to one server and joins its registered
// channels once the server welcomes us.
type Client struct {
	Conn   *Connection
	Server *Server
}

// NewClient builds a client for the given server and identity. Empty
// username or realname fall back to the nick.
func NewClient(server *Server, nick, username, realname string, logger output.Logger) *Client {
	c := &Client{
		Conn:   NewConnection(nick, username, realname, logger),
		Server: server,
	}
	c.Conn.OnWelcome = append(c.Conn.OnWelcome, c.joinChannels)
	return c
}

// AddChannel registers a channel to be joined on connect
func (c *Client) AddChannel(ch *Channel) {
	c.Conn.RegisterChannel(ch)
}

// Run connects to the server. The protocol runs on its own goroutines;
// Run returns immediately.
func (c *Client) Run() {
	c.Conn.Connect(c.Server)
}

// Stop quits the server with a farewell, or cancels a pending reconnect
func (c *Client) Stop(reason string) {
	c.Conn.Quit(reason)
}

func (c *Client) joinChannels() {
	for _, ch := range c.Conn.Channels() {
		c.Conn.JoinChannel(ch)
	}
}
