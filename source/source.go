// Package source reads images and describes them for the picture engine.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/greut/picture/picture"
)

var (
	// ErrNotFound is returned for identifiers matching no image.
	ErrNotFound = errors.New("image not found")
	// ErrUnsupported is returned for files that are not images.
	ErrUnsupported = errors.New("unsupported image type")
)

// error messages
var (
	formatError   = "cannot read the format of %#v"
	providerError = "unknown provider %#v"
)

// Source reads the raw bytes of an image.
type Source interface {
	Read(ctx context.Context, id string) ([]byte, error)
}

// Provider describes images.
type Provider interface {
	Source
	Describe(ctx context.Context, id string) (*picture.Image, error)
}

// Config selects the provider and where the images live.
type Config struct {
	Provider string `toml:"provider" yaml:"provider"`
	Path     string `toml:"path" yaml:"path"`
}

// NewProviderFromConfig returns the configured provider, libvips by default.
func NewProviderFromConfig(config Config) (Provider, error) {
	disk := NewDiskSource(config.Path)

	switch strings.ToLower(config.Provider) {
	case "", "vips":
		return NewVipsProvider(disk), nil
	case "decode", "go":
		return NewDecodeProvider(disk), nil
	}
	return nil, fmt.Errorf(providerError, config.Provider)
}

// Clean unescapes the identifier and drops any attempt to leave the root.
func Clean(id string) (string, error) {
	id, err := url.QueryUnescape(id)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	id = strings.Replace(id, "../", "", -1)
	id = strings.TrimLeft(path.Clean("/"+id), "/")
	if id == "" || id == "." {
		return "", ErrNotFound
	}
	return id, nil
}

// Extension returns the lower case extension of the identifier, without dot.
func Extension(id string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(id), "."))
}

// mimeTypes maps format names to content types.
var mimeTypes = map[string]string{
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
	"tiff": "image/tiff",
	"tif":  "image/tiff",
	"bmp":  "image/bmp",
	"avif": "image/avif",
	"heif": "image/heif",
	"svg":  "image/svg+xml",
	"pdf":  "application/pdf",
}

// MIME returns the content type of a format name.
func MIME(format string) string {
	if m, ok := mimeTypes[strings.ToLower(format)]; ok {
		return m
	}
	return ""
}
