package plugins

import (
	"strings"
	"testing"

	"github.com/andrewdodd13/botologist/internal/config"
	"github.com/andrewdodd13/botologist/internal/irc"
	"github.com/andrewdodd13/botologist/internal/plugin"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})    {}
func (nopLogger) Success(string, ...interface{}) {}
func (nopLogger) Warning(string, ...interface{}) {}
func (nopLogger) Error(string, ...interface{})   {}
func (nopLogger) Debug(string, ...interface{})   {}
func (nopLogger) ChannelMessage(_, _, _ string)  {}

// fakeChannel is a stand-in ChannelInfo for command tests
type fakeChannel struct {
	name   string
	admins map[string]bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{name: "#chan", admins: make(map[string]bool)}
}

func (f *fakeChannel) Name() string                     { return f.name }
func (f *fakeChannel) NickByHost(string) (string, bool) { return "", false }
func (f *fakeChannel) HostByNick(string) (string, bool) { return "", false }
func (f *fakeChannel) IsAdmin(host string) bool         { return f.admins[host] }
func (f *fakeChannel) AddAdmin(host string)             { f.admins[host] = true }

func testContext(cfg *config.Config) *plugin.Context {
	if cfg == nil {
		cfg = &config.Config{}
	}
	return &plugin.Context{
		Nick:    "botologist",
		Version: "1.2.3",
		Config:  cfg,
		Log:     nopLogger{},
	}
}

func command(args ...string) *plugin.CommandMessage {
	user := irc.NewUser("alice", "a.example.com", "alice")
	return &plugin.CommandMessage{
		Message: irc.NewMessage(user, "#chan", ""),
		Channel: newFakeChannel(),
		Args:    args,
	}
}

func reply(handler func(*irc.Message) []string, body string) string {
	user := irc.NewUser("alice", "a.example.com", "alice")
	out := handler(irc.NewMessage(user, "#chan", body))
	if len(out) == 0 {
		return ""
	}
	return out[0]
}

func TestRollCommand(t *testing.T) {
	p := NewDefault(testContext(nil)).(*defaultPlugin)
	p.roll = func(sides int) int { return sides } // always roll the maximum

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "single die", args: []string{"6"}, want: "Rolling 1 die with 6 sides: 6"},
		{name: "several dice", args: []string{"2d10"}, want: "Rolling 2 die with 10 sides: 20"},
		{name: "zero dice", args: []string{"0d6"}, want: "Cannot roll less than 1 die!"},
		{name: "one-sided die", args: []string{"3d1"}, want: "Cannot roll die with less than 2 sides!"},
		{name: "too many dice", args: []string{"11d6"}, want: "Maximum 10d20!"},
		{name: "too many sides", args: []string{"2d21"}, want: "Maximum 10d20!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.rollCmd(command(tt.args...)); got != tt.want {
				t.Errorf("rollCmd = %q, want %q", got, tt.want)
			}
		})
	}

	for _, args := range [][]string{nil, {"abc"}, {"d6"}} {
		if got := p.rollCmd(command(args...)); !strings.Contains(got, "Usage") {
			t.Errorf("rollCmd(%v) = %q, want usage text", args, got)
		}
	}
}

func TestCoinflipCommand(t *testing.T) {
	p := NewDefault(testContext(nil)).(*defaultPlugin)

	p.roll = func(int) int { return 2 }
	if got := p.coinflipCmd(command()); got != "Heads!" {
		t.Errorf("coinflipCmd = %q, want Heads!", got)
	}
	p.roll = func(int) int { return 1 }
	if got := p.coinflipCmd(command()); got != "Tails!" {
		t.Errorf("coinflipCmd = %q, want Tails!", got)
	}
}

func TestVersionCommand(t *testing.T) {
	p := NewDefault(testContext(nil)).(*defaultPlugin)
	if got := p.versionCmd(command()); got != "botologist 1.2.3" {
		t.Errorf("versionCmd = %q", got)
	}
}

func TestMumbleCommand(t *testing.T) {
	cfg := &config.Config{Mumble: config.MumbleConfig{
		Address:  "voice.example.com",
		Port:     64738,
		Password: "hunter2",
	}}
	p := NewDefault(testContext(cfg)).(*defaultPlugin)

	got := p.mumbleCmd(command())
	for _, part := range []string{"voice.example.com", "64738", "hunter2"} {
		if !strings.Contains(got, part) {
			t.Errorf("mumbleCmd = %q, want it to mention %q", got, part)
		}
	}
}

func TestMumbleCommandUnconfigured(t *testing.T) {
	p := NewDefault(testContext(nil)).(*defaultPlugin)
	if got := p.mumbleCmd(command()); got != "" {
		t.Errorf("mumbleCmd = %q, want empty when unconfigured", got)
	}
}

func TestTableflipReply(t *testing.T) {
	p := NewDefault(testContext(nil)).(*defaultPlugin)

	if got := reply(p.tableflipReply, "ugh "+tableflip); got != tableUnflip {
		t.Errorf("tableflipReply = %q, want the table put back", got)
	}
	if got := reply(p.tableflipReply, "nothing to see"); got != "" {
		t.Errorf("tableflipReply = %q, want empty", got)
	}
}

func TestInsultReply(t *testing.T) {
	p := NewDefault(testContext(nil)).(*defaultPlugin)

	if got := reply(p.insultReply, "fuck you, botologist"); got != "fuck you too alice" {
		t.Errorf("insultReply = %q", got)
	}
	if got := reply(p.insultReply, "botologist: fuck you"); got != "fuck you too alice" {
		t.Errorf("insultReply = %q", got)
	}
	if got := reply(p.insultReply, "what a lovely day"); got != "" {
		t.Errorf("insultReply = %q, want empty", got)
	}
}

func TestNoWorkReply(t *testing.T) {
	p := NewDefault(testContext(nil)).(*defaultPlugin)

	tests := []struct {
		body string
		want string
	}{
		{body: "the bot doesn't work", want: "I always work"},
		{body: "bot not work", want: "I always work"},
		{body: "this bot does not work at all", want: "I always work"},
		{body: "the bot works great", want: ""},
		{body: "nothing works", want: ""},
	}
	for _, tt := range tests {
		if got := reply(p.noWorkReply, tt.body); got != tt.want {
			t.Errorf("noWorkReply(%q) = %q, want %q", tt.body, got, tt.want)
		}
	}
}
