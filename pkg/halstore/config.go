package halstore

import (
	"io"

	yaml "gopkg.in/yaml.v2"
)

// TypeInfo maps a model type to the collection route it is served under.
type TypeInfo struct {
	Name  string `yaml:"name"`
	Route string `yaml:"route"`
}

type Config struct {
	BaseURL string            `yaml:"baseUrl"`
	Headers map[string]string `yaml:"headers"`
	Types   []TypeInfo        `yaml:"types"`
}

func LoadConfiguration(data io.Reader) (*Config, error) {

	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	err = yaml.Unmarshal(buf, &cfg)

	return cfg, err
}
