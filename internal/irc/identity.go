package irc

import (
	"strings"
)

// User is the identity of a message source. Nicks change over a session;
// the host is the stable part, so equality is host equality.
type User struct {
	Nick  string
	Host  string
	Ident string

	// IsAdmin is computed by the dispatch engine per message, from the
	// process-wide and channel-specific admin lists.
	IsAdmin bool
}

// NewUser creates a User, normalizing the host and ident. Everything up to
// and including an '@' is stripped from the host; a leading '~' is stripped
// from the ident.
func NewUser(nick, host, ident string) *User {
	return &User{
		Nick:  nick,
		Host:  normalizeHost(host),
		Ident: strings.TrimPrefix(ident, "~"),
	}
}

// ParseUser parses a "nick!ident@host" prefix, with an optional leading ':'.
func ParseUser(prefix string) *User {
	prefix = strings.TrimPrefix(prefix, ":")

	nick := prefix
	var ident, host string
	if i := strings.Index(prefix, "!"); i >= 0 {
		nick = prefix[:i]
		rest := prefix[i+1:]
		if j := strings.Index(rest, "@"); j >= 0 {
			ident = rest[:j]
			host = rest[j+1:]
		} else {
			ident = rest
		}
	}

	return NewUser(nick, host, ident)
}

// Equal reports whether two identities refer to the same user. Nick changes
// do not affect identity.
func (u *User) Equal(other *User) bool {
	if other == nil {
		return false
	}
	return u.Host == other.Host
}

func (u *User) String() string {
	s := u.Nick
	if u.Ident != "" {
		s += "!" + u.Ident
	}
	if u.Host != "" {
		s += "@" + u.Host
	}
	return s
}

func normalizeHost(host string) string {
	if i := strings.Index(host, "@"); i >= 0 {
		return host[i+1:]
	}
	return host
}
