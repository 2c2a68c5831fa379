package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/greut/picture/picture"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeProvider describes images with the Go image decoders, for hosts
// without libvips. Only the header is decoded.
type DecodeProvider struct {
	Source
}

// NewDecodeProvider returns a provider reading from the given source.
func NewDecodeProvider(s Source) *DecodeProvider {
	return &DecodeProvider{s}
}

// Describe decodes the image configuration.
func (p *DecodeProvider) Describe(ctx context.Context, id string) (*picture.Image, error) {
	buffer, err := p.Read(ctx, id)
	if err != nil {
		return nil, err
	}

	id, err = Clean(id)
	if err != nil {
		return nil, err
	}

	config, format, err := image.DecodeConfig(bytes.NewReader(buffer))
	if err != nil {
		if Extension(id) == "svg" || looksLikeSVG(buffer) {
			return describeSVG(id, buffer), nil
		}
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupported, fmt.Sprintf(formatError, id))
		}
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	return &picture.Image{
		ID:        id,
		Width:     config.Width,
		Height:    config.Height,
		MIME:      MIME(format),
		Extension: Extension(id),
	}, nil
}
