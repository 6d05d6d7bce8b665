package irc

import (
	"net"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"

	boterrors "github.com/andrewdodd13/botologist/internal/errors"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})    {}
func (nopLogger) Success(string, ...interface{}) {}
func (nopLogger) Warning(string, ...interface{}) {}
func (nopLogger) Error(string, ...interface{})   {}
func (nopLogger) Debug(string, ...interface{})   {}
func (nopLogger) ChannelMessage(_, _, _ string)  {}

// newTestConn returns a connection whose outbound lines are captured
// instead of written to a socket, with the flood limiter disabled.
func newTestConn() (*Connection, *[]string) {
	c := NewConnection("botologist", "", "", nopLogger{})
	c.limiter = rate.NewLimiter(rate.Inf, 0)
	sent := &[]string{}
	c.write = func(data string) error {
		*sent = append(*sent, strings.TrimSuffix(data, "\r\n"))
		return nil
	}
	return c, sent
}

func TestTruncateLine(t *testing.T) {
	tests := []struct {
		name string
		in   int
		out  int
		cut  bool
	}{
		{name: "short line untouched", in: 10, out: 10},
		{name: "exactly at the cap untouched", in: 500, out: 500},
		{name: "one over the cap", in: 501, out: 500, cut: true},
		{name: "far over the cap", in: 2000, out: 500, cut: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := strings.Repeat("x", tt.in)
			got := truncateLine(line)
			if len(got) != tt.out {
				t.Errorf("len = %d, want %d", len(got), tt.out)
			}
			if tt.cut {
				if !strings.HasSuffix(got, "...") {
					t.Error("truncated line should end with an ellipsis")
				}
			} else if got != line {
				t.Error("line at or under the cap should pass through untouched")
			}
		})
	}
}

func TestHandleLinePingRepliesWithPong(t *testing.T) {
	c, sent := newTestConn()

	c.handleLine("PING :irc.example.com")

	if len(*sent) != 1 || (*sent)[0] != "PONG irc.example.com" {
		t.Errorf("sent = %v, want a single PONG echoing the token", *sent)
	}
}

func TestHandleLineOwnJoinSendsWho(t *testing.T) {
	c, sent := newTestConn()
	c.RegisterChannel(NewChannel("#chan"))

	c.handleLine(":botologist!bot@bot.example.com JOIN #chan")

	if len(*sent) != 1 || (*sent)[0] != "WHO #chan" {
		t.Errorf("sent = %v, want a single WHO for the channel", *sent)
	}
}

func TestHandleLineUserJoin(t *testing.T) {
	c, _ := newTestConn()
	ch := NewChannel("#chan")
	c.RegisterChannel(ch)

	var joinedNick string
	c.OnJoin = append(c.OnJoin, func(_ *Channel, user *User) {
		joinedNick = user.Nick
	})

	c.handleLine(":alice!~alice@a.example.com JOIN #chan")

	if !ch.HasHost("a.example.com") {
		t.Error("joining user should be tracked in the channel")
	}
	if joinedNick != "alice" {
		t.Errorf("join callback saw nick %q, want alice", joinedNick)
	}
}

func TestHandleLineWhoReply(t *testing.T) {
	c, _ := newTestConn()
	ch := NewChannel("#chan")
	c.RegisterChannel(ch)

	c.handleLine(":irc.example.com 352 botologist #chan ~alice a.example.com irc.example.com alice H :0 Alice")

	nick, ok := ch.NickByHost("a.example.com")
	if !ok || nick != "alice" {
		t.Fatalf("NickByHost = %q, %v, want alice, true", nick, ok)
	}
}

func TestHandleLineNickChange(t *testing.T) {
	c, _ := newTestConn()
	ch := NewChannel("#chan")
	c.RegisterChannel(ch)
	ch.AddUser(NewUser("alice", "a.example.com", "alice"))

	c.handleLine(":alice!~alice@a.example.com NICK alice2")

	if nick, _ := ch.NickByHost("a.example.com"); nick != "alice2" {
		t.Errorf("NickByHost = %q, want alice2", nick)
	}
	if _, ok := ch.HostByNick("alice"); ok {
		t.Error("old nick should no longer resolve")
	}
}

func TestHandleLinePartAndQuit(t *testing.T) {
	c, _ := newTestConn()
	one := NewChannel("#one")
	two := NewChannel("#two")
	c.RegisterChannel(one)
	c.RegisterChannel(two)
	one.AddUser(NewUser("alice", "a.example.com", "alice"))
	two.AddUser(NewUser("alice", "a.example.com", "alice"))

	c.handleLine(":alice!~alice@a.example.com PART #one :bye")
	if one.HasHost("a.example.com") {
		t.Error("PART should remove the user from that channel")
	}
	if !two.HasHost("a.example.com") {
		t.Error("PART should not touch other channels")
	}

	c.handleLine(":alice!~alice@a.example.com QUIT :gone")
	if two.HasHost("a.example.com") {
		t.Error("QUIT should remove the user everywhere")
	}
}

func TestHandleLinePrivmsg(t *testing.T) {
	c, _ := newTestConn()
	ch := NewChannel("#chan")
	c.RegisterChannel(ch)

	var got *Message
	c.OnPrivmsg = append(c.OnPrivmsg, func(m *Message) { got = m })

	c.handleLine(":alice!~alice@a.example.com PRIVMSG #chan :hello there")

	if got == nil {
		t.Fatal("message callback did not fire")
	}
	if got.Body != "hello there" || got.Target != "#chan" {
		t.Errorf("got body %q target %q", got.Body, got.Target)
	}
	if got.Channel != ch {
		t.Error("channel should be attached to the message")
	}
	// sender was not known yet, so the message registers them
	if !ch.HasHost("a.example.com") {
		t.Error("unknown sender should be added to the channel")
	}
}

func TestHandleLineUnparseableIgnored(t *testing.T) {
	c, sent := newTestConn()

	c.handleLine(":")

	if len(*sent) != 0 {
		t.Errorf("sent = %v, want nothing", *sent)
	}
}

func TestSafeHandleRecoversCallbackPanic(t *testing.T) {
	c, _ := newTestConn()
	c.RegisterChannel(NewChannel("#chan"))
	c.OnPrivmsg = append(c.OnPrivmsg, func(*Message) { panic("handler exploded") })

	err := c.safeHandle(":alice!~alice@a.example.com PRIVMSG #chan :boom")

	if err == nil {
		t.Fatal("expected the panic to surface as an error")
	}
	if !boterrors.IsKind(err, boterrors.KindHandler) {
		t.Errorf("error kind = %v, want handler", err)
	}
}

func TestSendMsgSplitsLines(t *testing.T) {
	c, sent := newTestConn()

	c.SendMsg("#chan", "first\nsecond")

	want := []string{"PRIVMSG #chan first", "PRIVMSG #chan second"}
	if len(*sent) != 2 {
		t.Fatalf("sent %d lines, want 2: %v", len(*sent), *sent)
	}
	for i, line := range *sent {
		if line != want[i] {
			t.Errorf("line %d = %q, want %q", i, line, want[i])
		}
	}
}

func TestSendMsgStripsColorsWhenDisallowed(t *testing.T) {
	c, sent := newTestConn()
	ch := NewChannel("#plain")
	ch.SetAllowColors(false)
	c.RegisterChannel(ch)

	c.SendMsg("#plain", "\x0304red\x03 and \x02bold\x02")

	if len(*sent) != 1 {
		t.Fatalf("sent %d lines, want 1", len(*sent))
	}
	if strings.ContainsAny((*sent)[0], "\x02\x03") {
		t.Errorf("formatting should be stripped: %q", (*sent)[0])
	}
}

func keepaliveTestConn(t *testing.T) (*Connection, *[]string) {
	t.Helper()
	c, sent := newTestConn()
	c.mu.Lock()
	c.server = &Server{Host: "irc.example.com", Port: 6667}
	c.mu.Unlock()
	t.Cleanup(func() {
		c.mu.Lock()
		c.stopTimersLocked()
		c.mu.Unlock()
	})
	return c, sent
}

func TestSendPingOnlyOneOutstanding(t *testing.T) {
	c, sent := keepaliveTestConn(t)

	c.sendPing()
	if len(*sent) != 1 || (*sent)[0] != "PING irc.example.com" {
		t.Fatalf("sent = %v, want a single PING to the server", *sent)
	}

	// a second PING while the first awaits its PONG sends nothing
	c.sendPing()
	if len(*sent) != 1 {
		t.Errorf("sent = %v, want no second PING while one is pending", *sent)
	}
}

func TestPongClearsPendingResponseTimer(t *testing.T) {
	c, _ := keepaliveTestConn(t)

	c.sendPing()
	c.mu.Lock()
	pending := c.pingRespTimer != nil
	c.mu.Unlock()
	if !pending {
		t.Fatal("sendPing should arm the response timer")
	}

	c.handleLine(":irc.example.com PONG irc.example.com :irc.example.com")

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pingRespTimer != nil {
		t.Error("PONG should disarm the response timer")
	}
	if c.pingTimer == nil {
		t.Error("PONG should rearm the inactivity timer")
	}
}

func TestInboundPingRearmsInactivityTimer(t *testing.T) {
	c, _ := keepaliveTestConn(t)

	c.handleLine("PING :irc.example.com")

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pingTimer == nil {
		t.Error("server traffic should rearm the inactivity timer")
	}
}

func TestLoopExitsWhenSocketReplaced(t *testing.T) {
	c, _ := newTestConn()
	oldClient, oldServer := net.Pipe()
	newClient, newServer := net.Pipe()
	defer oldServer.Close()
	defer newClient.Close()
	defer newServer.Close()

	oldSock := &Socket{conn: oldClient}
	newSock := &Socket{conn: newClient}

	c.mu.Lock()
	c.sock = oldSock
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.loop()
		close(done)
	}()

	// hand the connection a replacement socket, then fail the old one
	c.mu.Lock()
	c.sock = newSock
	c.mu.Unlock()
	oldServer.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop for a replaced socket should exit")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sock != newSock {
		t.Error("leftover loop must not touch the replacement socket")
	}
	if c.reconnectTimer != nil {
		t.Error("leftover loop must not schedule a reconnect")
	}
}
