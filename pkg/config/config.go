// Package config provides a minimal YAML-backed option store, used as the
// built-in default backend for the framework's GETOPT callback. It is the
// Go analogue of Cyrus SASL's sasl_config_getstring/getint/getswitch.
package config

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Store holds string-keyed configuration values loaded from a YAML
// document. The zero value is an empty store.
type Store struct {
	values map[string]string
}

// Load parses a YAML document of scalar values into a Store. Nested maps
// and sequences are not supported; only top-level scalar keys are used,
// matching the flat key=value shape of a Cyrus SASL config file.
func Load(data []byte) (*Store, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	s := &Store{values: make(map[string]string, len(raw))}
	for k, v := range raw {
		s.values[k] = toString(v)
	}
	return s, nil
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}

// GetString returns the string value for key, or def if unset.
func (s *Store) GetString(key, def string) string {
	if s == nil {
		return def
	}
	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

// GetInt returns the integer value for key, or def if unset or unparsable.
func (s *Store) GetInt(key string, def int) int {
	if s == nil {
		return def
	}
	v, ok := s.values[key]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// GetSwitch returns a boolean value for key. Accepted truthy spellings
// mirror Cyrus SASL's sasl_config_getswitch: "yes", "true", "on", "1".
func (s *Store) GetSwitch(key string, def bool) bool {
	if s == nil {
		return def
	}
	v, ok := s.values[key]
	if !ok {
		return def
	}

	switch strings.ToLower(v) {
	case "yes", "true", "on", "1":
		return true
	case "no", "false", "off", "0":
		return false
	default:
		return def
	}
}
