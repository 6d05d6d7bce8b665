package bot

import (
	"sort"
	"strings"
	"sync"

	"github.com/andrewdodd13/botologist/internal/irc"
	"github.com/andrewdodd13/botologist/internal/plugin"
)

// Channel pairs one protocol channel with the handlers registered for it.
// It is the Registrar plugins attach handlers to and the channel view
// they get back at dispatch time.
type Channel struct {
	irc *irc.Channel

	mu       sync.RWMutex
	admins   map[string]struct{}
	commands map[string]plugin.Command
	joins    []plugin.JoinFunc
	replies  []plugin.ReplyFunc
	tickers  []plugin.TickFunc
}

// NewChannel wraps a protocol channel with an empty handler set, seeded
// with the given admin hosts.
func NewChannel(ircChannel *irc.Channel, adminHosts []string) *Channel {
	ch := &Channel{
		irc:      ircChannel,
		admins:   make(map[string]struct{}),
		commands: make(map[string]plugin.Command),
	}
	for _, host := range adminHosts {
		ch.AddAdmin(host)
	}
	return ch
}

// Name returns the channel name, including the '#' prefix
func (c *Channel) Name() string {
	return c.irc.Name()
}

// NickByHost returns the current nick for a host, if present
func (c *Channel) NickByHost(host string) (string, bool) {
	return c.irc.NickByHost(host)
}

// HostByNick returns the host for a nick, if present
func (c *Channel) HostByNick(nick string) (string, bool) {
	return c.irc.HostByNick(nick)
}

// IsAdmin reports whether the host is on the channel's admin list
func (c *Channel) IsAdmin(host string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.admins[host]
	return ok
}

// AddAdmin grants admin rights to a host for this channel
func (c *Channel) AddAdmin(host string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.admins[host] = struct{}{}
}

// RegisterCommand registers a command under its name and optional alias.
// Registering an existing name replaces the earlier handler.
func (c *Channel) RegisterCommand(cmd plugin.Command) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands[strings.ToLower(cmd.Name)] = cmd
	if cmd.Alias != "" {
		c.commands[strings.ToLower(cmd.Alias)] = cmd
	}
}

// RegisterJoinHandler registers a handler observing users joining
func (c *Channel) RegisterJoinHandler(fn plugin.JoinFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.joins = append(c.joins, fn)
}

// RegisterReplyHandler registers a handler inspecting every channel message
func (c *Channel) RegisterReplyHandler(fn plugin.ReplyFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies = append(c.replies, fn)
}

// RegisterTickHandler registers a handler run on the periodic timer
func (c *Channel) RegisterTickHandler(fn plugin.TickFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickers = append(c.tickers, fn)
}

// Command resolves a name to a registered command. An exact match wins;
// failing that, a prefix matching exactly one registered name resolves to
// it. Anything else reports how many names matched.
func (c *Channel) Command(name string) (plugin.Command, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	name = strings.ToLower(name)
	if cmd, ok := c.commands[name]; ok {
		return cmd, 1
	}

	// prefix match, counting distinct commands so a name and its own
	// alias don't shadow each other
	matched := make(map[string]plugin.Command)
	for registered, cmd := range c.commands {
		if strings.HasPrefix(registered, name) {
			matched[cmd.Name] = cmd
		}
	}
	if len(matched) == 1 {
		for _, cmd := range matched {
			return cmd, 1
		}
	}
	return plugin.Command{}, len(matched)
}

// CommandNames returns the sorted registered names, aliases included
func (c *Channel) CommandNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Channel) joinHandlers() []plugin.JoinFunc {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.joins
}

func (c *Channel) replyHandlers() []plugin.ReplyFunc {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.replies
}

func (c *Channel) tickHandlers() []plugin.TickFunc {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tickers
}
