package server_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LasseHels/listenconf/server"
)

func roundTripConfigs() map[string]*server.Config {
	return map[string]*server.Config{
		"http":        {Listen: server.HTTP{TCPPort: 8000}},
		"http port 0": {Listen: server.HTTP{TCPPort: 0}},
		"http max":    {Listen: server.HTTP{TCPPort: 65535}},
		"https":       {Listen: server.HTTPS{TCPPort: 443}},

		"https redirect": {Listen: server.HTTPS{
			TCPPort:             443,
			TCPPortHTTPRedirect: server.Port(80),
		}},
		"https udp": {Listen: server.HTTPS{
			TCPPort: 443,
			UDPPort: server.Port(443),
		}},
		"https full": {Listen: server.HTTPS{
			TCPPort:             8443,
			TCPPortHTTPRedirect: server.Port(0),
			UDPPort:             server.Port(65535),
		}},
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	t.Parallel()

	for name, cfg := range roundTripConfigs() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			for _, format := range []server.Format{server.TOML, server.YAML} {
				doc, err := server.Encode(cfg, format)
				require.NoError(t, err, format)

				decoded, err := server.Decode(format, doc)
				require.NoError(t, err, "%s document:\n%s", format, doc)
				assert.Equal(t, cfg, decoded, format)
			}

			doc, err := server.EncodeDotted(cfg)
			require.NoError(t, err)

			decoded, err := server.Decode(server.TOML, doc)
			require.NoError(t, err, "dotted document:\n%s", doc)
			assert.Equal(t, cfg, decoded)
		})
	}
}

func TestEncodeDotted(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		cfg      *server.Config
		expected string
	}{
		"http": {
			cfg:      &server.Config{Listen: server.HTTP{TCPPort: 8000}},
			expected: "listen.http.tcp_port = 8000\n",
		},
		"https minimal": {
			cfg:      &server.Config{Listen: server.HTTPS{TCPPort: 443}},
			expected: "listen.https.tcp_port = 443\n",
		},
		"https full": {
			cfg: &server.Config{Listen: server.HTTPS{
				TCPPort:             443,
				TCPPortHTTPRedirect: server.Port(80),
				UDPPort:             server.Port(443),
			}},
			expected: "listen.https.tcp_port = 443\n" +
				"listen.https.tcp_port_http_redirect = 80\n" +
				"listen.https.udp_port = 443\n",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			out, err := server.EncodeDotted(tc.cfg)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, string(out))
		})
	}
}

func TestEncode(t *testing.T) {
	t.Parallel()

	cfg := &server.Config{Listen: server.HTTPS{TCPPort: 443, UDPPort: server.Port(443)}}

	t.Run("toml uses nested tables", func(t *testing.T) {
		t.Parallel()

		out, err := server.Encode(cfg, server.TOML)
		require.NoError(t, err)
		assert.Contains(t, string(out), "[listen.https]")
		assert.Contains(t, string(out), "udp_port = 443")
		assert.NotContains(t, string(out), "tcp_port_http_redirect")
		assert.NotContains(t, string(out), "[listen.http]\n")
	})

	t.Run("yaml omits absent fields", func(t *testing.T) {
		t.Parallel()

		out, err := server.Encode(cfg, server.YAML)
		require.NoError(t, err)
		assert.Equal(t, "listen:\n    https:\n        tcp_port: 443\n        udp_port: 443\n", string(out))
	})

	t.Run("nil config", func(t *testing.T) {
		t.Parallel()

		_, err := server.Encode(nil, server.TOML)
		require.EqualError(t, err, "cannot encode nil config")

		_, err = server.EncodeDotted(nil)
		require.EqualError(t, err, "cannot encode nil config")
	})

	t.Run("config without listener", func(t *testing.T) {
		t.Parallel()

		_, err := server.Encode(&server.Config{}, server.YAML)
		require.EqualError(t, err, "cannot encode listener mode <nil>")
	})

	t.Run("unsupported format", func(t *testing.T) {
		t.Parallel()

		_, err := server.Encode(cfg, server.Format("json"))
		require.EqualError(t, err, `unsupported format "json"`)
	})
}
