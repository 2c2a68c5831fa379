package source

import (
	"context"
	"fmt"

	"github.com/greut/picture/picture"
	"gopkg.in/h2non/bimg.v1"
)

// VipsProvider describes images with libvips.
type VipsProvider struct {
	Source
}

// NewVipsProvider returns a provider reading from the given source.
func NewVipsProvider(s Source) *VipsProvider {
	return &VipsProvider{s}
}

// Describe reads the image header.
func (p *VipsProvider) Describe(ctx context.Context, id string) (*picture.Image, error) {
	buffer, err := p.Read(ctx, id)
	if err != nil {
		return nil, err
	}

	id, err = Clean(id)
	if err != nil {
		return nil, err
	}

	imageType := bimg.DetermineImageType(buffer)
	if imageType == bimg.SVG || (imageType == bimg.UNKNOWN && (Extension(id) == "svg" || looksLikeSVG(buffer))) {
		return describeSVG(id, buffer), nil
	}

	if !bimg.IsTypeSupported(imageType) {
		message := fmt.Sprintf(formatError, bimg.ImageTypes[imageType])
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, message)
	}

	size, err := bimg.NewImage(buffer).Size()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}

	format := bimg.ImageTypes[imageType]
	return &picture.Image{
		ID:        id,
		Width:     size.Width,
		Height:    size.Height,
		MIME:      MIME(format),
		Extension: Extension(id),
	}, nil
}
