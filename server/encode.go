package server

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// document is the wire shape of a Config.
type document struct {
	Listen listenDocument `toml:"listen" yaml:"listen"`
}

type listenDocument struct {
	HTTP  *httpDocument  `toml:"http,omitempty" yaml:"http,omitempty"`
	HTTPS *httpsDocument `toml:"https,omitempty" yaml:"https,omitempty"`
}

type httpDocument struct {
	TCPPort uint16 `toml:"tcp_port" yaml:"tcp_port"`
}

type httpsDocument struct {
	TCPPort             uint16  `toml:"tcp_port" yaml:"tcp_port"`
	TCPPortHTTPRedirect *uint16 `toml:"tcp_port_http_redirect,omitempty" yaml:"tcp_port_http_redirect,omitempty"`
	UDPPort             *uint16 `toml:"udp_port,omitempty" yaml:"udp_port,omitempty"`
}

// Encode renders c in the given Format. TOML output uses explicit nested tables.
func Encode(c *Config, format Format) ([]byte, error) {
	doc, err := toDocument(c)
	if err != nil {
		return nil, err
	}

	switch format {
	case TOML:
		var buf bytes.Buffer

		enc := toml.NewEncoder(&buf)
		enc.Indent = ""

		if err := enc.Encode(doc); err != nil {
			return nil, errors.Wrap(err, "encoding toml")
		}

		return buf.Bytes(), nil
	case YAML:
		out, err := yaml.Marshal(doc)
		if err != nil {
			return nil, errors.Wrap(err, "encoding yaml")
		}

		return out, nil
	default:
		return nil, errors.Errorf("unsupported format %q", format)
	}
}

// EncodeDotted renders c as TOML with one fully dotted key per line, e.g. "listen.http.tcp_port = 8000".
func EncodeDotted(c *Config) ([]byte, error) {
	doc, err := toDocument(c)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	line := func(mode, key string, value uint16) {
		_, _ = fmt.Fprintf(&buf, "%s.%s.%s = %d\n", keyListen, mode, key, value)
	}

	switch {
	case doc.Listen.HTTP != nil:
		line(modeHTTP, keyTCPPort, doc.Listen.HTTP.TCPPort)
	case doc.Listen.HTTPS != nil:
		h := doc.Listen.HTTPS
		line(modeHTTPS, keyTCPPort, h.TCPPort)

		if h.TCPPortHTTPRedirect != nil {
			line(modeHTTPS, keyTCPPortHTTPRedirect, *h.TCPPortHTTPRedirect)
		}

		if h.UDPPort != nil {
			line(modeHTTPS, keyUDPPort, *h.UDPPort)
		}
	}

	return buf.Bytes(), nil
}

func toDocument(c *Config) (document, error) {
	if c == nil {
		return document{}, errors.New("cannot encode nil config")
	}

	switch l := c.Listen.(type) {
	case HTTP:
		return document{Listen: listenDocument{HTTP: &httpDocument{TCPPort: l.TCPPort}}}, nil
	case HTTPS:
		return document{Listen: listenDocument{HTTPS: &httpsDocument{
			TCPPort:             l.TCPPort,
			TCPPortHTTPRedirect: l.TCPPortHTTPRedirect,
			UDPPort:             l.UDPPort,
		}}}, nil
	default:
		return document{}, errors.Errorf("cannot encode listener mode %T", c.Listen)
	}
}
