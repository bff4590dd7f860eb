package server_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LasseHels/listenconf/server"
)

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		path           string
		expectedFormat server.Format
		expectedError  string
	}{
		"toml":         {path: "config.toml", expectedFormat: server.TOML},
		"yaml":         {path: "dir/config.yaml", expectedFormat: server.YAML},
		"yml":          {path: "config.yml", expectedFormat: server.YAML},
		"upper case":   {path: "CONFIG.TOML", expectedFormat: server.TOML},
		"json":         {path: "config.json", expectedError: `unsupported file extension ".json" (expected .toml, .yaml, or .yml)`},
		"no extension": {path: "config", expectedError: `unsupported file extension "" (expected .toml, .yaml, or .yml)`},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			format, err := server.FormatFromPath(tc.path)

			if tc.expectedError != "" {
				require.EqualError(t, err, tc.expectedError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expectedFormat, format)
		})
	}
}

func TestConfig_String(t *testing.T) {
	t.Parallel()

	http := &server.Config{Listen: server.HTTP{TCPPort: 8000}}
	assert.Equal(t, "server{listen: http{tcp_port: 8000}}", http.String())
	assert.Equal(t, "http", http.Listen.Mode())

	https := &server.Config{Listen: server.HTTPS{TCPPort: 443, UDPPort: server.Port(443)}}
	assert.Equal(t, "server{listen: https{tcp_port: 443, tcp_port_http_redirect: absent, udp_port: 443}}", https.String())
	assert.Equal(t, "https", https.Listen.Mode())
}
