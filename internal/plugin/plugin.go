// Package plugin defines the surface a bot plugin programs against:
// handler signatures, the registrar plugins attach handlers to, and the
// context handed to a plugin when it is constructed.
package plugin

import (
	"github.com/andrewdodd13/botologist/internal/config"
	"github.com/andrewdodd13/botologist/internal/irc"
	"github.com/andrewdodd13/botologist/internal/output"
	"github.com/andrewdodd13/botologist/internal/storage"
)

// CommandMessage is a chat message recognized as a command invocation:
// the resolved command name plus the argument words after it.
type CommandMessage struct {
	Message *irc.Message

	// Channel is the view of the channel the command came from
	Channel ChannelInfo

	// Command is the full resolved command name, even when the user
	// typed a unique prefix of it.
	Command string
	Args    []string
}

// CommandFunc handles one command invocation. A non-empty return value is
// sent back to where the command came from.
type CommandFunc func(cmd *CommandMessage) string

// JoinFunc observes a user joining a channel. A non-empty return value is
// sent to that channel; the first handler to produce output wins.
type JoinFunc func(user *irc.User, channel ChannelInfo) string

// ReplyFunc inspects every ordinary channel message and may produce
// replies. Most calls return nil.
type ReplyFunc func(msg *irc.Message) []string

// TickFunc runs on the periodic timer. The returned lines are sent to
// the channel the handler is registered in.
type TickFunc func() []string

// Command describes one registered command
type Command struct {
	Name string

	// Alias is an optional second name resolving to the same handler
	Alias string

	// Threaded commands run on their own goroutine so slow work (network
	// calls, hashing) doesn't stall the receive loop.
	Threaded bool

	Func CommandFunc
}

// ChannelInfo is the view of a channel a plugin gets: membership lookups
// and the channel-local admin list.
type ChannelInfo interface {
	Name() string
	NickByHost(host string) (string, bool)
	HostByNick(nick string) (string, bool)
	IsAdmin(host string) bool
	AddAdmin(host string)
}

// Registrar is what a plugin registers its handlers into. Command names
// are last-write-wins: registering a name again replaces the earlier
// handler.
type Registrar interface {
	RegisterCommand(cmd Command)
	RegisterJoinHandler(fn JoinFunc)
	RegisterReplyHandler(fn ReplyFunc)
	RegisterTickHandler(fn TickFunc)
}

// Context carries the bot-level facilities a plugin may use
type Context struct {
	Nick    string
	Version string
	Config  *config.Config
	Store   *storage.Store
	Log     output.Logger
}

// Plugin is one named bundle of handlers. Register is called once per
// channel the plugin is enabled in.
type Plugin interface {
	Register(r Registrar)
}

// Factory builds a plugin instance from the bot context
type Factory func(ctx *Context) Plugin
