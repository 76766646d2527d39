package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file layered over Default(). With an empty path
// it searches ./config.yaml then <data root>/config.yaml; if neither
// exists the defaults are returned as-is. An explicit path that does not
// exist is ErrNotFound.
func Load(path string) (Config, error) {
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				return Config{}, fmt.Errorf("%s: %w", path, ErrNotFound)
			}
			return Config{}, fmt.Errorf("opening config %s: %w", path, err)
		}
		defer f.Close()
		return LoadFromReader(f)
	}

	for _, candidate := range []string{"config.yaml", filepath.Join(DataRoot(), "config.yaml")} {
		f, err := os.Open(candidate)
		if err != nil {
			continue
		}
		defer f.Close()
		slog.Debug("loading config", "path", candidate)
		return LoadFromReader(f)
	}
	slog.Debug("no config file found, using defaults")
	return Default(), nil
}

// LoadFromReader decodes YAML over the defaults. Unknown keys warn; type
// mismatches return ErrBadConfig carrying the dotted key path.
func LoadFromReader(r io.Reader) (Config, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if err == io.EOF {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("parsing config: %v: %w", err, ErrBadConfig)
	}
	doc := &root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return Config{}, fmt.Errorf("config root must be a mapping: %w", ErrBadConfig)
	}

	cfg := Default()
	sections := map[string]any{
		"whisper":     &cfg.Whisper,
		"translation": &cfg.Translation,
		"output":      &cfg.Output,
		"styles":      &cfg.Styles,
		"advanced":    &cfg.Advanced,
	}

	for i := 0; i+1 < len(doc.Content); i += 2 {
		key, value := doc.Content[i].Value, doc.Content[i+1]
		dst, known := sections[key]
		if !known {
			if key == "llm" {
				mergeLegacyLLM(&cfg, value)
				continue
			}
			slog.Warn("ignoring unknown config section", "key", key)
			continue
		}
		if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
			continue
		}
		if value.Kind != yaml.MappingNode {
			return Config{}, fmt.Errorf("%s: must be a mapping: %w", key, ErrBadConfig)
		}
		if err := decodeSection(key, value, dst); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// decodeSection decodes a mapping node field by field so that a type
// mismatch reports the exact dotted path instead of a YAML line number.
func decodeSection(section string, node *yaml.Node, out any) error {
	fields := yamlFields(out)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i].Value, node.Content[i+1]
		dst, ok := fields[key]
		if !ok {
			slog.Warn("ignoring unknown config key", "key", section+"."+key)
			continue
		}
		if err := value.Decode(dst); err != nil {
			return fmt.Errorf("%s.%s: %v: %w", section, key, yamlErrDetail(err), ErrBadConfig)
		}
	}
	return nil
}

// yamlFields maps yaml tag names to pointers into the section struct.
func yamlFields(out any) map[string]any {
	v := reflect.ValueOf(out).Elem()
	t := v.Type()
	fields := make(map[string]any, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("yaml")
		if tag == "" || tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		fields[name] = v.Field(i).Addr().Interface()
	}
	return fields
}

// yamlErrDetail strips the "yaml: " prefix so wrapped messages read cleanly.
func yamlErrDetail(err error) string {
	return strings.TrimPrefix(err.Error(), "yaml: ")
}

// legacyLLM is the pre-1.0 section name for translation settings. It is
// accepted with a warning; translation.* wins when both are present.
type legacyLLM struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
	BaseURL  string `yaml:"base_url"`
}

func mergeLegacyLLM(cfg *Config, node *yaml.Node) {
	slog.Warn("config section 'llm' is legacy, use 'translation' instead")
	var legacy legacyLLM
	if err := node.Decode(&legacy); err != nil {
		slog.Warn("ignoring unreadable legacy 'llm' section", "error", err)
		return
	}
	defaults := Default().Translation
	if legacy.Provider != "" && cfg.Translation.Provider == defaults.Provider {
		cfg.Translation.Provider = legacy.Provider
	}
	if legacy.Model != "" && cfg.Translation.Model == defaults.Model {
		cfg.Translation.Model = legacy.Model
	}
	if legacy.APIKey != "" && cfg.Translation.APIKey == "" {
		cfg.Translation.APIKey = legacy.APIKey
	}
	if legacy.BaseURL != "" && cfg.Translation.BaseURL == "" {
		cfg.Translation.BaseURL = legacy.BaseURL
	}
}
