package server

import (
	"strconv"

	"github.com/docker/go-connections/nat"
	"github.com/pkg/errors"
)

// Ports returns the ports a server with this configuration would bind, in the order TCP, redirect TCP, UDP. A port
// that appears twice with the same protocol is listed once. A nil Config binds no ports.
func (c *Config) Ports() []nat.Port {
	if c == nil {
		return nil
	}

	var ports []nat.Port

	add := func(proto string, p uint16) {
		port := mustNewPort(proto, p)
		for _, existing := range ports {
			if existing == port {
				return
			}
		}
		ports = append(ports, port)
	}

	switch l := c.Listen.(type) {
	case HTTP:
		add("tcp", l.TCPPort)
	case HTTPS:
		add("tcp", l.TCPPort)

		if l.TCPPortHTTPRedirect != nil {
			add("tcp", *l.TCPPortHTTPRedirect)
		}

		if l.UDPPort != nil {
			add("udp", *l.UDPPort)
		}
	}

	return ports
}

// mustNewPort creates a nat.Port and panics if it cannot be created.
// This should only be used with ports that fit in a uint16, which nat.NewPort always accepts.
func mustNewPort(proto string, p uint16) nat.Port {
	port, err := nat.NewPort(proto, strconv.Itoa(int(p)))
	if err != nil {
		panic(errors.Wrapf(err, "creating port %d/%s", p, proto))
	}

	return port
}
