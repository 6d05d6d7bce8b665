package irc

import (
	"strings"
	"sync"
)

// Channel tracks which users are currently present in one channel, as
// bidirectional host<->nick mappings. The two maps are kept in lockstep by
// every mutation. Threaded command handlers may inspect membership while
// the receive loop mutates it, so access goes through an RWMutex.
type Channel struct {
	name string

	mu          sync.RWMutex
	hostMap     map[string]string // host -> nick
	nickMap     map[string]string // nick -> host
	allowColors bool
}

// NewChannel creates an empty channel. The name gets a '#' prefix if it
// doesn't carry one already.
func NewChannel(name string) *Channel {
	if !strings.HasPrefix(name, "#") {
		name = "#" + name
	}
	return &Channel{
		name:        name,
		hostMap:     make(map[string]string),
		nickMap:     make(map[string]string),
		allowColors: true,
	}
}

// Name returns the channel name, including the '#' prefix
func (c *Channel) Name() string {
	return c.name
}

// AllowColors reports whether styled output is permitted in this channel
func (c *Channel) AllowColors() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.allowColors
}

// SetAllowColors toggles whether styled output is permitted
func (c *Channel) SetAllowColors(allow bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.allowColors = allow
}

// AddUser records a user as present in the channel. Stale pairings that
// would break the host<->nick lockstep are dropped first.
func (c *Channel) AddUser(user *User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if oldNick, ok := c.hostMap[user.Host]; ok && oldNick != user.Nick {
		delete(c.nickMap, oldNick)
	}
	if oldHost, ok := c.nickMap[user.Nick]; ok && oldHost != user.Host {
		delete(c.hostMap, oldHost)
	}
	c.hostMap[user.Host] = user.Nick
	c.nickMap[user.Nick] = user.Host
}

// NickByHost returns the current nick for a host, if known
func (c *Channel) NickByHost(host string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	nick, ok := c.hostMap[normalizeHost(host)]
	return nick, ok
}

// HostByNick returns the host for a nick, if known
func (c *Channel) HostByNick(nick string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	host, ok := c.nickMap[nick]
	return host, ok
}

// HasHost reports whether a user with the given host is present
func (c *Channel) HasHost(host string) bool {
	_, ok := c.NickByHost(host)
	return ok
}

// RemoveHost removes the user with the given host, and the nick paired
// with it, keeping the two maps in lockstep.
func (c *Channel) RemoveHost(host string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	host = normalizeHost(host)
	if nick, ok := c.hostMap[host]; ok {
		delete(c.nickMap, nick)
	}
	delete(c.hostMap, host)
}

// RemoveNick removes the user with the given nick, and the host paired
// with it.
func (c *Channel) RemoveNick(nick string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if host, ok := c.nickMap[nick]; ok {
		delete(c.hostMap, host)
	}
	delete(c.nickMap, nick)
}

// UpdateNick renames a user in place. The host entry is repointed and the
// old nick entry dropped.
func (c *Channel) UpdateNick(user *User, newNick string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.nickMap, user.Nick)
	if oldHost, ok := c.nickMap[newNick]; ok && oldHost != user.Host {
		delete(c.hostMap, oldHost)
	}
	c.nickMap[newNick] = user.Host
	c.hostMap[user.Host] = newNick
}

// UserCount returns the number of users currently tracked in the channel
func (c *Channel) UserCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.hostMap)
}

// Nicks returns a snapshot of the nicks currently present
func (c *Channel) Nicks() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	nicks := make([]string, 0, len(c.nickMap))
	for nick := range c.nickMap {
		nicks = append(nicks, nick)
	}
	return nicks
}
