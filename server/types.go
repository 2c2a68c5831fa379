package server

import (
	"github.com/greut/picture/picture"
	"github.com/greut/picture/source"
)

// Config stores the picture server configuration.
type Config struct {
	Host     string           `toml:"host" yaml:"host"`
	Port     int              `toml:"port" yaml:"port"`
	Peers    []string         `toml:"peers" yaml:"peers"`
	LogLevel string           `toml:"logLevel" yaml:"logLevel"`
	Images   source.Config    `toml:"images" yaml:"images"`
	Renderer RendererConfig   `toml:"renderer" yaml:"renderer"`
	Cache    CacheConfig      `toml:"cache" yaml:"cache"`
	Picture  picture.Settings `toml:"picture" yaml:"picture"`
}

// RendererConfig points to the IIIF image server rendering the candidates.
type RendererConfig struct {
	Base      string `toml:"base" yaml:"base"`
	MaxWidth  int    `toml:"maxWidth" yaml:"maxWidth"`
	MaxHeight int    `toml:"maxHeight" yaml:"maxHeight"`
	MaxArea   int    `toml:"maxArea" yaml:"maxArea"`
}

// CacheConfig represents the configuration information regarding the cache.
type CacheConfig struct {
	HTTP         int64  `toml:"http" yaml:"http"`
	Metadata     string `toml:"metadata" yaml:"metadata"`
	SVG          string `toml:"svg" yaml:"svg"`
	MetadataSize int64  `toml:"-" yaml:"-"`
	SVGSize      int64  `toml:"-" yaml:"-"`
}

// Resolution is the JSON representation of a resolved picture.
type Resolution struct {
	*picture.Result
	Elements []picture.Source `json:"elements"`
}
