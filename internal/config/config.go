// Package config loads the optional structured configuration file
// (--config path.json, or $HOME/.oursh.json when --noprofile is not
// set) that supplies default flag values and extends the Lang HashLang
// interpreter map. This surface is named nowhere in spec.md and carries
// its own Non-goal-free scope per SPEC_FULL.md §10.4. Grounded on the
// teacher's core/types validation.go use of jsonschema/v5: compile a
// Draft2020 schema once, validate the decoded JSON value against it
// before trusting any field.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Config holds the subset of shell behavior a config file may default.
type Config struct {
	Posix     bool              `json:"posix"`
	Alternate bool              `json:"alternate"`
	Login     bool              `json:"login"`
	HashLang  map[string]string `json:"hashlang"`
}

const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "posix":     {"type": "boolean"},
    "alternate": {"type": "boolean"},
    "login":     {"type": "boolean"},
    "hashlang": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    }
  }
}`

var compiled *jsonschema.Schema

func schema() (*jsonschema.Schema, error) {
	if compiled != nil {
		return compiled, nil
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource("schema://oursh-config.json", strings.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	s, err := c.Compile("schema://oursh-config.json")
	if err != nil {
		return nil, err
	}
	compiled = s
	return s, nil
}

// Load reads and validates the config file at path. A missing file at
// the default location ($HOME/.oursh.json) is not an error — callers
// pass an explicit path only when one was requested; see LoadDefault.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("config: invalid JSON in %s: %w", path, err)
	}

	s, err := schema()
	if err != nil {
		return nil, fmt.Errorf("config: schema compile: %w", err)
	}
	if err := s.Validate(raw); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDefault loads $HOME/.oursh.json if it exists, returning a zero
// Config and no error when the file is simply absent.
func LoadDefault() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return &Config{}, nil
	}
	path := home + "/.oursh.json"
	if _, err := os.Stat(path); err != nil {
		return &Config{}, nil
	}
	return Load(path)
}
