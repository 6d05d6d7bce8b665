package irc

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
	ircmsg "gopkg.in/irc.v4"

	boterrors "github.com/andrewdodd13/botologist/internal/errors"
	"github.com/andrewdodd13/botologist/internal/ircformat"
	"github.com/andrewdodd13/botologist/internal/output"
)

const (
	// MaxLineChars is the cap on one outgoing wire line, verb included.
	// Longer lines are truncated, not split.
	MaxLineChars = 500

	pingInterval = 5 * time.Minute
	pongWait     = 10 * time.Second

	reconnectAfterSocketError = 5 * time.Second
	reconnectAfterServerError = 10 * time.Second
	reconnectAfterThrottle    = 60 * time.Second
)

// throttleNotice marks the server ERROR sub-case for reconnecting too fast
const throttleNotice = "(re)connect too fast"

// Connection owns the wire socket, the per-channel membership state, and
// the protocol state machine. Exactly one of {connected, reconnect
// scheduled, idle} holds at any time: the socket and the reconnect timer
// are mutually exclusive.
//
// Event callbacks are registered before Connect and fire on the receive
// loop goroutine, one at a time, in arrival order.
type Connection struct {
	nick     string
	username string
	realname string

	logger  output.Logger
	limiter *rate.Limiter

	mu             sync.Mutex
	sock           *Socket
	server         *Server
	channels       map[string]*Channel
	quitting       bool
	reconnectTimer *time.Timer
	pingTimer      *time.Timer
	pingRespTimer  *time.Timer

	// write sends one terminated wire line; replaced in tests
	write func(string) error

	OnWelcome []func()
	OnJoin    []func(*Channel, *User)
	OnPrivmsg []func(*Message)

	// ErrorHandler receives failures recovered from event callbacks. When
	// nil, a callback failure ends the receive loop.
	ErrorHandler func(error)
}

// NewConnection creates an idle connection with the given identity. The
// outbound path is flood-limited to roughly two lines per second.
func NewConnection(nick, username, realname string, logger output.Logger) *Connection {
	if username == "" {
		username = nick
	}
	if realname == "" {
		realname = nick
	}
	c := &Connection{
		nick:     nick,
		username: username,
		realname: realname,
		logger:   logger,
		limiter:  rate.NewLimiter(rate.Every(500*time.Millisecond), 4),
		channels: make(map[string]*Channel),
	}
	c.write = c.writeToSocket
	return c
}

// Nick returns the client's own nick
func (c *Connection) Nick() string {
	return c.nick
}

// Connect dials the server and starts the receive loop. The connect
// sequence runs concurrently; the call returns immediately. If a socket is
// already open, it is dropped first.
func (c *Connection) Connect(server *Server) {
	c.mu.Lock()
	if c.sock != nil {
		_ = c.sock.Close()
		c.sock = nil
	}
	c.server = server
	c.mu.Unlock()

	go c.connect()
}

// RegisterChannel adds a channel to the connection's set. Registered
// channels are joined once the server sends the welcome reply.
func (c *Connection) RegisterChannel(ch *Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channels[ch.Name()] = ch
}

// Channel returns the registered channel with the given name
func (c *Connection) Channel(name string) (*Channel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.channels[name]
	return ch, ok
}

// Channels returns a name-sorted snapshot of the registered channels
func (c *Connection) Channels() []*Channel {
	c.mu.Lock()
	chans := make([]*Channel, 0, len(c.channels))
	for _, ch := range c.channels {
		chans = append(chans, ch)
	}
	c.mu.Unlock()

	sort.Slice(chans, func(i, j int) bool { return chans[i].Name() < chans[j].Name() })
	return chans
}

// JoinChannel sends a JOIN for a registered channel
func (c *Connection) JoinChannel(ch *Channel) {
	c.logger.Info("Joining channel %s", ch.Name())
	c.RegisterChannel(ch)
	_ = c.send(rawLine("JOIN", ch.Name()))
}

// Reconnect drops the socket and schedules a fresh connect after the
// given delay. A zero delay reconnects immediately. Only one reconnect is
// pending at a time; scheduling replaces any earlier pending one.
func (c *Connection) Reconnect(delay time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sock != nil {
		_ = c.sock.Close()
		c.sock = nil
	}
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}

	if delay > 0 {
		c.logger.Info("Reconnecting in %s", delay)
		c.reconnectTimer = time.AfterFunc(delay, c.connect)
	} else {
		go c.connect()
	}
}

// Quit cancels a pending reconnect if there is one; otherwise it marks the
// connection as quitting and sends a QUIT with the reason, so the next
// socket failure is treated as expected shutdown.
func (c *Connection) Quit(reason string) {
	c.mu.Lock()
	if c.reconnectTimer != nil {
		c.logger.Info("Aborting pending reconnect")
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
		c.mu.Unlock()
		return
	}
	if c.sock == nil {
		c.mu.Unlock()
		c.logger.Warning("Tried to quit while not connected")
		return
	}
	c.quitting = true
	c.stopTimersLocked()
	c.mu.Unlock()

	c.logger.Info("Quitting: %s", reason)
	_ = c.send(rawLine("QUIT", reason))
}

// connect runs the connect sequence: open the socket, register the
// identity, then drive the receive loop until the socket fails or is
// replaced.
func (c *Connection) connect() {
	c.mu.Lock()
	c.reconnectTimer = nil
	server := c.server
	c.mu.Unlock()

	c.logger.Info("Connecting to %s", server)
	sock := &Socket{}
	if err := sock.Connect(server); err != nil {
		c.logger.Error("Connect failed: %v", err)
		c.Reconnect(reconnectAfterSocketError)
		return
	}

	c.mu.Lock()
	c.sock = sock
	c.quitting = false
	c.mu.Unlock()
	c.logger.Success("Connected to %s", server)

	_ = c.send(rawLine("NICK", c.nick))
	_ = c.send(rawLine("USER", c.username, "0", "*", c.realname))

	c.loop()
}

// loop is the receive loop for one socket. Lines are handled in arrival
// order, one at a time; no two protocol events for this connection ever
// overlap. The loop reads only the socket it started with, so a loop
// left over from before a reconnect exits instead of touching the
// replacement socket.
func (c *Connection) loop() {
	c.mu.Lock()
	sock := c.sock
	c.mu.Unlock()
	if sock == nil {
		return
	}

	for {
		c.mu.Lock()
		superseded := c.sock != sock
		c.mu.Unlock()
		if superseded {
			return
		}

		data, err := sock.Recv()
		if err != nil {
			c.mu.Lock()
			superseded = c.sock != sock
			quitting := c.quitting
			c.mu.Unlock()
			if superseded {
				return
			}
			if quitting {
				c.logger.Info("Receive failed while quitting, leaving loop")
				return
			}
			c.logger.Error("Receive failed: %v", err)
			c.Reconnect(reconnectAfterSocketError)
			return
		}

		for _, line := range strings.Split(data, "\r\n") {
			if line == "" {
				continue
			}
			c.logger.Debug("-> %s", line)
			if err := c.safeHandle(line); err != nil {
				if c.ErrorHandler != nil {
					c.ErrorHandler(err)
					continue
				}
				c.logger.Error("No error handler registered, leaving loop: %v", err)
				return
			}
		}
	}
}

// safeHandle decodes and dispatches one line, converting a handler panic
// into a Handler-kind error instead of tearing the loop down.
func (c *Connection) safeHandle(line string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = boterrors.NewHandlerError(fmt.Sprintf("handling %q", line), fmt.Errorf("%v", r))
		}
	}()
	c.handleLine(line)
	return nil
}

// handleLine decodes one protocol line and applies its side effects.
// Unrecognized verbs are ignored, not errors.
func (c *Connection) handleLine(line string) {
	msg, err := ircmsg.ParseMessage(line)
	if err != nil {
		c.logger.Debug("Ignoring unparseable line: %q", line)
		return
	}

	switch msg.Command {
	case "PING":
		c.resetPingTimer()
		_ = c.send(rawLine("PONG", msg.Params...))

	case "PONG":
		c.resetPingTimer()

	case "ERROR":
		text := msg.Trailing()
		c.logger.Warning("%v", boterrors.NewProtocolError(text))
		if strings.Contains(text, throttleNotice) {
			c.Reconnect(reconnectAfterThrottle)
		} else {
			c.Reconnect(reconnectAfterServerError)
		}

	case "001":
		for _, cb := range c.OnWelcome {
			cb()
		}

	case "JOIN":
		if len(msg.Params) < 1 {
			return
		}
		user := userFromPrefix(msg)
		name := msg.Params[0]
		if user.Nick == c.nick {
			// learn who is already there
			_ = c.send(rawLine("WHO", name))
			return
		}
		ch, ok := c.Channel(name)
		if !ok {
			return
		}
		c.logger.Debug("User %s joined %s", user, name)
		ch.AddUser(user)
		for _, cb := range c.OnJoin {
			cb(ch, user)
		}

	case "352":
		// WHO reply: <me> <channel> <ident> <host> <server> <nick> ...
		if len(msg.Params) < 6 {
			return
		}
		ch, ok := c.Channel(msg.Params[1])
		if !ok {
			return
		}
		ch.AddUser(NewUser(msg.Params[5], msg.Params[3], msg.Params[2]))

	case "NICK":
		if len(msg.Params) < 1 {
			return
		}
		user := userFromPrefix(msg)
		newNick := msg.Params[0]
		c.logger.Debug("User %s changing nick to %s", user.Host, newNick)
		for _, ch := range c.Channels() {
			if ch.HasHost(user.Host) {
				ch.UpdateNick(user, newNick)
			}
		}

	case "PART":
		if len(msg.Params) < 1 {
			return
		}
		user := userFromPrefix(msg)
		if ch, ok := c.Channel(msg.Params[0]); ok {
			ch.RemoveHost(user.Host)
			c.logger.Debug("User %s parted from %s", user.Host, ch.Name())
		}

	case "QUIT":
		user := userFromPrefix(msg)
		for _, ch := range c.Channels() {
			if ch.HasHost(user.Host) {
				ch.RemoveHost(user.Host)
			}
		}
		c.logger.Debug("User %s quit", user.Host)

	case "PRIVMSG":
		if len(msg.Params) < 1 {
			return
		}
		user := userFromPrefix(msg)
		m := NewMessage(user, msg.Params[0], msg.Trailing())
		if !m.IsPrivate() {
			ch, ok := c.Channel(m.Target)
			if !ok {
				return
			}
			m.Channel = ch
			if !ch.HasHost(user.Host) {
				c.logger.Debug("Unknown user %s (%s) added to %s", user.Nick, user.Host, m.Target)
				ch.AddUser(user)
			}
		}
		for _, cb := range c.OnPrivmsg {
			cb(m)
		}

	default:
		if n, convErr := strconv.Atoi(msg.Command); convErr == nil && n >= 400 && n < 600 {
			c.logger.Warning("Error reply from server: %s", line)
		}
	}
}

// SendMsg sends a chat message to a target, one wire line per text line.
// For channels with colors disabled, formatting codes are stripped first.
func (c *Connection) SendMsg(target, message string) {
	if ch, ok := c.Channel(target); ok && !ch.AllowColors() {
		message = ircformat.Strip(message)
	}
	for _, part := range strings.Split(message, "\n") {
		_ = c.send(rawLine("PRIVMSG", target, part))
	}
}

// send pushes one wire line through the flood limiter and onto the
// socket, truncating anything over the line cap.
func (c *Connection) send(line string) error {
	if len(line) > MaxLineChars {
		c.logger.Warning("Message too long (%d characters), truncating to %d", len(line), MaxLineChars)
		line = truncateLine(line)
	}

	_ = c.limiter.Wait(context.Background())
	c.logger.Debug("<- %s", line)
	return c.write(line + "\r\n")
}

func (c *Connection) writeToSocket(data string) error {
	c.mu.Lock()
	sock := c.sock
	c.mu.Unlock()
	if sock == nil {
		return boterrors.NewSocketError("send", fmt.Errorf("not connected"))
	}
	return sock.Send(data)
}

// truncateLine cuts a line over the cap, marking the cut with an ellipsis.
// Lines at or under the cap pass through untouched.
func truncateLine(line string) string {
	if len(line) <= MaxLineChars {
		return line
	}
	return line[:MaxLineChars-3] + "..."
}

// resetPingTimer pushes the inactivity window out to its full length.
// Called on every received PING or PONG. A pending response wait is
// cancelled since the server just proved it is alive.
func (c *Connection) resetPingTimer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pingRespTimer != nil {
		c.pingRespTimer.Stop()
		c.pingRespTimer = nil
	}
	if c.pingTimer != nil {
		c.pingTimer.Stop()
	}
	c.pingTimer = time.AfterFunc(pingInterval, c.sendPing)
}

// sendPing probes a quiet connection. At most one self-initiated PING may
// be outstanding; a second attempt while one is pending is a no-op.
func (c *Connection) sendPing() {
	c.mu.Lock()
	if c.pingRespTimer != nil {
		c.mu.Unlock()
		c.logger.Warning("Already waiting for PONG, not sending another PING")
		return
	}
	host := c.server.Host
	c.pingRespTimer = time.AfterFunc(pongWait, c.handlePingTimeout)
	c.mu.Unlock()

	_ = c.send(rawLine("PING", host))
}

// handlePingTimeout fires when a self-initiated PING got no PONG in time
func (c *Connection) handlePingTimeout() {
	c.mu.Lock()
	c.pingRespTimer = nil
	host := c.server.Host
	c.mu.Unlock()

	c.logger.Warning("%v", boterrors.NewKeepaliveError(host))
	c.Reconnect(0)
}

func (c *Connection) stopTimersLocked() {
	if c.pingTimer != nil {
		c.pingTimer.Stop()
		c.pingTimer = nil
	}
	if c.pingRespTimer != nil {
		c.pingRespTimer.Stop()
		c.pingRespTimer = nil
	}
}

// rawLine serializes one outgoing message in wire format
func rawLine(cmd string, params ...string) string {
	return (&ircmsg.Message{Command: cmd, Params: params}).String()
}

// userFromPrefix builds the source identity from a parsed message prefix
func userFromPrefix(msg *ircmsg.Message) *User {
	if msg.Prefix == nil {
		return NewUser("", "", "")
	}
	return NewUser(msg.Name, msg.Host, msg.User)
}
