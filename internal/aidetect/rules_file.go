package aidetect

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

type rulesFile struct {
	Rules []Rule `json:"rules" yaml:"rules" toml:"rules"`
}

// LoadRules reads an ordered rule list from a YAML, TOML or JSON file chosen
// by extension. Every rule is validated.
func LoadRules(path string) ([]Rule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(raw, filepath.Ext(path))
}

func ParseRules(raw []byte, ext string) ([]Rule, error) {
	var doc rulesFile
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml rules: %w", err)
		}
	case "toml":
		if _, err := toml.Decode(string(raw), &doc); err != nil {
			return nil, fmt.Errorf("parse toml rules: %w", err)
		}
	case "json":
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse json rules: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported rules format %q", ext)
	}
	for _, r := range doc.Rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	return doc.Rules, nil
}
