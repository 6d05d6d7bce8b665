package irc

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultPort is used when the address string carries no port
const DefaultPort = 6667

// Server identifies the IRC server to connect to
type Server struct {
	Host string
	Port int
}

// ParseServer parses a "host[:port]" address string
func ParseServer(address string) (*Server, error) {
	if address == "" {
		return nil, fmt.Errorf("empty server address")
	}

	host := address
	port := DefaultPort
	if i := strings.LastIndex(address, ":"); i >= 0 {
		host = address[:i]
		p, err := strconv.Atoi(address[i+1:])
		if err != nil || p < 1 || p > 65535 {
			return nil, fmt.Errorf("invalid port in server address %q", address)
		}
		port = p
	}
	if host == "" {
		return nil, fmt.Errorf("empty host in server address %q", address)
	}

	return &Server{Host: host, Port: port}, nil
}

func (s *Server) String() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
