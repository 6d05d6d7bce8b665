package irc

import (
	"bytes"
	"fmt"
	"net"
	"strconv"

	boterrors "github.com/andrewdodd13/botologist/internal/errors"
)

const recvBufSize = 4096

// Socket is the wire transport: a TCP connection with line-buffered
// receive. Every failure surfaces as a Socket-kind error so the connection
// state machine can tell transport trouble from everything else.
type Socket struct {
	conn net.Conn
}

// Connect resolves every address for the host (dual-stack) and dials each
// in order, keeping the first that connects.
func (s *Socket) Connect(server *Server) error {
	addrs, err := net.LookupHost(server.Host)
	if err != nil {
		return boterrors.NewSocketError("resolve "+server.Host, err)
	}

	port := strconv.Itoa(server.Port)
	var lastErr error
	for _, addr := range addrs {
		conn, err := net.Dial("tcp", net.JoinHostPort(addr, port))
		if err != nil {
			lastErr = err
			continue
		}
		s.conn = conn
		return nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no addresses for %s", server.Host)
	}
	return boterrors.NewSocketError("connect "+server.String(), lastErr)
}

// Recv reads until the buffered data ends with CR LF and returns the
// decoded text. A zero-length read means the peer closed the connection.
func (s *Socket) Recv() (string, error) {
	var data []byte
	buf := make([]byte, recvBufSize)

	for {
		n, err := s.conn.Read(buf)
		if err != nil {
			return "", boterrors.NewSocketError("recv", err)
		}
		if n == 0 {
			return "", boterrors.NewSocketError("recv", fmt.Errorf("received empty data"))
		}
		data = append(data, buf[:n]...)
		if bytes.HasSuffix(data, []byte("\r\n")) {
			return string(data), nil
		}
	}
}

// Send writes the payload as bytes. The caller guarantees termination.
func (s *Socket) Send(data string) error {
	if _, err := s.conn.Write([]byte(data)); err != nil {
		return boterrors.NewSocketError("send", err)
	}
	return nil
}

// Close releases the socket
func (s *Socket) Close() error {
	return s.conn.Close()
}
