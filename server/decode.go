package server

import (
	"bytes"
	"maps"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	keyListen              = "listen"
	keyTCPPort             = "tcp_port"
	keyTCPPortHTTPRedirect = "tcp_port_http_redirect"
	keyUDPPort             = "udp_port"

	modeHTTP  = "http"
	modeHTTPS = "https"

	expectedTable = "table"
	expectedPort  = "integer in range 0-65535"
)

var (
	// yamlLine matches the position prefix yaml.v3 puts on syntax errors.
	yamlLine = regexp.MustCompile(`^yaml: line (\d+): (.*)$`)

	// tomlPrefix matches the position and last key that toml.ParseError puts in front of its message.
	tomlPrefix = regexp.MustCompile(`^toml: line \d+(?: \(last key "(?:[^"\\]|\\.)*"\))?: `)
)

// Decode parses doc as a document in the given Format and returns the listener configuration it describes.
//
// The returned error is a *SyntaxError, *SchemaError, *TypeError, or *ValidationError. No Config is returned alongside
// an error. Decode has no side effects and is safe for concurrent use.
func Decode(format Format, doc []byte) (*Config, error) {
	tree, err := parse(format, doc)
	if err != nil {
		return nil, err
	}

	return decodeTree(tree)
}

func parse(format Format, doc []byte) (map[string]any, error) {
	switch format {
	case TOML:
		return parseTOML(doc)
	case YAML:
		return parseYAML(doc)
	default:
		return nil, errors.Errorf("unsupported format %q", format)
	}
}

func parseTOML(doc []byte) (map[string]any, error) {
	tree := map[string]any{}

	if _, err := toml.NewDecoder(bytes.NewReader(doc)).Decode(&tree); err != nil {
		var parseErr toml.ParseError
		if errors.As(err, &parseErr) {
			return nil, &SyntaxError{Format: TOML, Line: parseErr.Position.Line, Message: tomlMessage(parseErr)}
		}

		return nil, &SyntaxError{Format: TOML, Message: err.Error()}
	}

	return tree, nil
}

// tomlMessage returns the description of a parse error without its position, which SyntaxError carries separately.
func tomlMessage(parseErr toml.ParseError) string {
	if parseErr.Message != "" {
		return parseErr.Message
	}

	return tomlPrefix.ReplaceAllString(parseErr.Error(), "")
}

func parseYAML(doc []byte) (map[string]any, error) {
	var root any

	if err := yaml.Unmarshal(doc, &root); err != nil {
		msg := err.Error()
		if m := yamlLine.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return nil, &SyntaxError{Format: YAML, Line: line, Message: m[2]}
		}

		return nil, &SyntaxError{Format: YAML, Message: strings.TrimPrefix(msg, "yaml: ")}
	}

	// An empty document has no listen table, which decodeTree reports.
	if root == nil {
		return map[string]any{}, nil
	}

	return table("", root)
}

func decodeTree(tree map[string]any) (*Config, error) {
	raw, ok := tree[keyListen]
	if !ok {
		return nil, missingField(keyListen)
	}

	listen, err := table(keyListen, raw)
	if err != nil {
		return nil, err
	}

	if err := checkModes(listen); err != nil {
		return nil, err
	}

	if err := rejectUnknown("", tree, keyListen); err != nil {
		return nil, err
	}

	if err := rejectUnknown(keyListen, listen, modeHTTP, modeHTTPS); err != nil {
		return nil, err
	}

	var mode Listen
	if raw, ok := listen[modeHTTP]; ok {
		mode, err = decodeHTTP(join(keyListen, modeHTTP), raw)
	} else {
		mode, err = decodeHTTPS(join(keyListen, modeHTTPS), listen[modeHTTPS])
	}

	if err != nil {
		return nil, err
	}

	return &Config{Listen: mode}, nil
}

func decodeHTTP(path string, raw any) (HTTP, error) {
	var f httpFields

	err := decodePorts(path, raw, map[string]**uint16{
		keyTCPPort: &f.TCPPort,
	})
	if err != nil {
		return HTTP{}, err
	}

	if err := requireFields(path, &f); err != nil {
		return HTTP{}, err
	}

	return HTTP{TCPPort: *f.TCPPort}, nil
}

func decodeHTTPS(path string, raw any) (HTTPS, error) {
	var f httpsFields

	err := decodePorts(path, raw, map[string]**uint16{
		keyTCPPort:             &f.TCPPort,
		keyTCPPortHTTPRedirect: &f.TCPPortHTTPRedirect,
		keyUDPPort:             &f.UDPPort,
	})
	if err != nil {
		return HTTPS{}, err
	}

	if err := requireFields(path, &f); err != nil {
		return HTTPS{}, err
	}

	return HTTPS{
		TCPPort:             *f.TCPPort,
		TCPPortHTTPRedirect: f.TCPPortHTTPRedirect,
		UDPPort:             f.UDPPort,
	}, nil
}

// decodePorts stores every port found in the table at path into the matching destination in fields. Keys without a
// destination are rejected. Destinations without a key are left nil.
func decodePorts(path string, raw any, fields map[string]**uint16) error {
	tbl, err := table(path, raw)
	if err != nil {
		return err
	}

	if err := rejectUnknown(path, tbl, slices.Collect(maps.Keys(fields))...); err != nil {
		return err
	}

	for _, key := range slices.Sorted(maps.Keys(tbl)) {
		p, err := port(join(path, key), tbl[key])
		if err != nil {
			return err
		}

		*fields[key] = &p
	}

	return nil
}

// table returns v as a table. A null value, which YAML produces for a key with nothing under it, is an empty table.
func table(path string, v any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}

	tbl, ok := v.(map[string]any)
	if !ok {
		return nil, &TypeError{Path: path, Expected: expectedTable, Value: v}
	}

	return tbl, nil
}

func port(path string, v any) (uint16, error) {
	var n int64

	switch v := v.(type) {
	case int64:
		n = v
	case int:
		n = int64(v)
	case uint64:
		if v > math.MaxUint16 {
			return 0, &TypeError{Path: path, Expected: expectedPort, Value: v}
		}
		n = int64(v)
	default:
		return 0, &TypeError{Path: path, Expected: expectedPort, Value: v}
	}

	if n < 0 || n > math.MaxUint16 {
		return 0, &TypeError{Path: path, Expected: expectedPort, Value: v}
	}

	return uint16(n), nil
}

// rejectUnknown returns a SchemaError for the first key of tbl, in sorted order, that is not in known.
func rejectUnknown(path string, tbl map[string]any, known ...string) error {
	for _, key := range slices.Sorted(maps.Keys(tbl)) {
		if !slices.Contains(known, key) {
			return unknownField(join(path, key))
		}
	}

	return nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}

	return path + "." + key
}
