package server

import (
	"fmt"
	"strconv"
)

// Config is a decoded listener configuration. Values are produced by Decode and are not modified afterwards.
type Config struct {
	Listen Listen
}

// Listen is the listener mode of a Server. It is either HTTP or HTTPS.
type Listen interface {
	// Mode returns the key that selects the mode in a document, "http" or "https".
	Mode() string
	String() string

	listen()
}

// HTTP serves plain HTTP on a single TCP port.
type HTTP struct {
	TCPPort uint16
}

// HTTPS terminates TLS on TCPPort. TCPPortHTTPRedirect and UDPPort are nil when absent from the document.
type HTTPS struct {
	TCPPort             uint16
	TCPPortHTTPRedirect *uint16
	UDPPort             *uint16
}

// Port returns a pointer to p, for use in the optional fields of HTTPS.
func Port(p uint16) *uint16 {
	return &p
}

func (HTTP) listen()  {}
func (HTTPS) listen() {}

func (HTTP) Mode() string {
	return modeHTTP
}

func (HTTPS) Mode() string {
	return modeHTTPS
}

func (h HTTP) String() string {
	return fmt.Sprintf("http{tcp_port: %d}", h.TCPPort)
}

func (h HTTPS) String() string {
	return fmt.Sprintf(
		"https{tcp_port: %d, tcp_port_http_redirect: %s, udp_port: %s}",
		h.TCPPort,
		optional(h.TCPPortHTTPRedirect),
		optional(h.UDPPort),
	)
}

func (c *Config) String() string {
	return fmt.Sprintf("server{listen: %s}", c.Listen)
}

func optional(p *uint16) string {
	if p == nil {
		return "absent"
	}

	return strconv.Itoa(int(*p))
}
