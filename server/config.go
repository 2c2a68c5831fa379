package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"code.cloudfoundry.org/bytefmt"
	"github.com/BurntSushi/toml"
	"github.com/greut/picture/picture"
	"github.com/greut/picture/source"
	"gopkg.in/yaml.v3"
)

// error messages
var (
	configError = "cannot read the configuration %#v: %v"
	sizeError   = "invalid cache size %#v: %v"
)

// DefaultConfig returns the configuration used for the missing keys.
func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     8080,
		LogLevel: "info",
		Images: source.Config{
			Provider: "vips",
			Path:     "images",
		},
		Renderer: RendererConfig{
			Base: "http://localhost:8081",
		},
		Cache: CacheConfig{
			HTTP:     3600,
			Metadata: "16M",
			SVG:      "8M",
		},
		Picture: picture.Defaults(),
	}
}

// LoadConfig reads a TOML configuration, or a YAML one when the file ends
// with .yaml or .yml.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf(configError, filename, err)
	}

	config, err := ParseConfig(data, filepath.Ext(filename))
	if err != nil {
		return nil, fmt.Errorf(configError, filename, err)
	}
	return config, nil
}

// ParseConfig decodes the configuration over the defaults. Breakpoints and
// transforms given in the file replace the default tables instead of being
// merged into them.
func ParseConfig(data []byte, ext string) (*Config, error) {
	decode := func(v interface{}) error {
		_, err := toml.Decode(string(data), v)
		return err
	}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		decode = func(v interface{}) error {
			return yaml.Unmarshal(data, v)
		}
	}

	var explicit struct {
		Picture struct {
			Breakpoints picture.Breakpoints          `toml:"breakpoints" yaml:"breakpoints"`
			Transforms  map[string]picture.Transform `toml:"transforms" yaml:"transforms"`
		} `toml:"picture" yaml:"picture"`
	}
	if err := decode(&explicit); err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if len(explicit.Picture.Breakpoints) > 0 {
		config.Picture.Breakpoints = nil
	}
	if len(explicit.Picture.Transforms) > 0 {
		config.Picture.Transforms = nil
	}

	if err := decode(config); err != nil {
		return nil, err
	}

	if err := config.computeSizes(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) computeSizes() error {
	mS, err := bytefmt.ToBytes(c.Cache.Metadata)
	if err != nil {
		return fmt.Errorf(sizeError, c.Cache.Metadata, err)
	}
	sS, err := bytefmt.ToBytes(c.Cache.SVG)
	if err != nil {
		return fmt.Errorf(sizeError, c.Cache.SVG, err)
	}

	c.Cache.MetadataSize = int64(mS)
	c.Cache.SVGSize = int64(sS)
	return nil
}

// Listen returns the address to listen on.
func (c *Config) Listen() string {
	return fmt.Sprintf("%v:%v", c.Host, c.Port)
}
