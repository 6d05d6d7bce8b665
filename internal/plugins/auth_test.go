package plugins

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/andrewdodd13/botologist/internal/config"
	"github.com/andrewdodd13/botologist/internal/irc"
	"github.com/andrewdodd13/botologist/internal/plugin"
)

func newTestAuth(t *testing.T, password string) *authPlugin {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	cfg := &config.Config{Auth: config.AuthConfig{PasswordHash: string(hash)}}
	return NewAuth(testContext(cfg)).(*authPlugin)
}

func verifyCommand(channel *fakeChannel, args ...string) *plugin.CommandMessage {
	user := irc.NewUser("alice", "a.example.com", "alice")
	return &plugin.CommandMessage{
		Message: irc.NewMessage(user, "#chan", ""),
		Channel: channel,
		Command: "verify",
		Args:    args,
	}
}

func TestVerifyGrantsAdmin(t *testing.T) {
	p := newTestAuth(t, "sekrit")
	channel := newFakeChannel()

	got := p.verifyCmd(verifyCommand(channel, "sekrit"))
	if !strings.Contains(got, "admin rights") {
		t.Errorf("verifyCmd = %q, want a confirmation", got)
	}
	if !channel.IsAdmin("a.example.com") {
		t.Error("host should be on the admin list after verifying")
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	p := newTestAuth(t, "sekrit")
	channel := newFakeChannel()

	if got := p.verifyCmd(verifyCommand(channel, "wrong")); got != "" {
		t.Errorf("verifyCmd = %q, want silence on a bad password", got)
	}
	if channel.IsAdmin("a.example.com") {
		t.Error("host should not be an admin after a failed attempt")
	}
}

func TestVerifyAlreadyAdmin(t *testing.T) {
	p := newTestAuth(t, "sekrit")
	channel := newFakeChannel()
	channel.AddAdmin("a.example.com")

	if got := p.verifyCmd(verifyCommand(channel, "sekrit")); !strings.Contains(got, "already") {
		t.Errorf("verifyCmd = %q", got)
	}
}

func TestVerifyDisabledWithoutHash(t *testing.T) {
	p := NewAuth(testContext(nil)).(*authPlugin)
	if got := p.verifyCmd(verifyCommand(newFakeChannel(), "anything")); got != "" {
		t.Errorf("verifyCmd = %q, want silence when no hash is configured", got)
	}
}
