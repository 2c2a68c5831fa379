package picture

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Renderer turns a transform into a deliverable URL. An empty URL or an error
// means the candidate cannot be served and is left out.
type Renderer interface {
	URLFor(ctx context.Context, id string, t Transform, immediate bool) (string, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, id string, t Transform, immediate bool) (string, error)

// URLFor calls f.
func (f RendererFunc) URLFor(ctx context.Context, id string, t Transform, immediate bool) (string, error) {
	return f(ctx, id, t, immediate)
}

// ImageRenderer is implemented by the renderers that look at the image
// description, not only at its identifier.
type ImageRenderer interface {
	URLForImage(ctx context.Context, im *Image, t Transform, immediate bool) (string, error)
}

// urlFor prefers URLForImage when the renderer has it.
func urlFor(ctx context.Context, r Renderer, im *Image, t Transform, immediate bool) (string, error) {
	if ir, ok := r.(ImageRenderer); ok {
		return ir.URLForImage(ctx, im, t, immediate)
	}
	return r.URLFor(ctx, im.ID, t, immediate)
}

// ErrOutOfLimits is returned for transforms the image server refuses.
var ErrOutOfLimits = errors.New("transform is out of the server limits")

// error messages
var maxSizeError = "the size %vx%v is out of the limits %vx%v or area %v"

// IIIFRenderer builds IIIF Image API 2.1 URLs. The image server renders on
// request, so every URL is immediate.
type IIIFRenderer struct {
	Base      string
	MaxWidth  int
	MaxHeight int
	MaxArea   int
}

// URLFor returns {base}/{identifier}/{region}/{size}/0/default.{format}.
//
// Region and size follow the transform mode:
//   - crop: smart region, w,h
//   - fit: full region, !w,h (best fit)
//   - stretch or no mode: full region, w,h (deform)
//   - no height: full region, w,
func (r *IIIFRenderer) URLFor(ctx context.Context, id string, t Transform, immediate bool) (string, error) {
	return r.render(ctx, id, nil, t)
}

// URLForImage is URLFor, using the decoded type of the image when the
// identifier has no extension.
func (r *IIIFRenderer) URLForImage(ctx context.Context, im *Image, t Transform, immediate bool) (string, error) {
	if im == nil {
		return "", ErrNoIdentifier
	}
	return r.render(ctx, im.ID, im, t)
}

func (r *IIIFRenderer) render(ctx context.Context, id string, im *Image, t Transform) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if id == "" {
		return "", ErrNoIdentifier
	}
	if t.Width <= 0 {
		return "", fmt.Errorf("%w: width %d", ErrOutOfLimits, t.Width)
	}

	if (r.MaxWidth != 0 && r.MaxWidth < t.Width) ||
		(r.MaxHeight != 0 && r.MaxHeight < t.Height) ||
		(r.MaxArea != 0 && r.MaxArea < t.Width*t.Height) {
		message := fmt.Sprintf(maxSizeError, t.Width, t.Height, r.MaxWidth, r.MaxHeight, r.MaxArea)
		return "", fmt.Errorf("%w: %s", ErrOutOfLimits, message)
	}

	region := "full"
	size := fmt.Sprintf("%d,", t.Width)
	if t.Height > 0 {
		switch t.Mode {
		case ModeCrop:
			region = "smart"
			size = fmt.Sprintf("%d,%d", t.Width, t.Height)
		case ModeFit:
			size = fmt.Sprintf("!%d,%d", t.Width, t.Height)
		default:
			size = fmt.Sprintf("%d,%d", t.Width, t.Height)
		}
	}

	format := string(t.Format)
	if t.Format == FormatOriginal {
		format = extension(id, im)
	}

	u := fmt.Sprintf("%s/%s/%s/%s/0/default.%s",
		strings.TrimRight(r.Base, "/"),
		url.PathEscape(id),
		region,
		size,
		format,
	)

	if t.Quality > 0 {
		u += fmt.Sprintf("?q=%d", t.Quality)
	}
	return u, nil
}

var mimeFormats = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
	"image/avif": "avif",
	"image/tiff": "tif",
	"image/bmp":  "bmp",
}

// extension returns the IIIF format matching the identifier, then the image
// description. jpg is the last resort.
func extension(id string, im *Image) string {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(id), "."))
	if ext == "" && im != nil {
		ext = strings.ToLower(strings.TrimPrefix(im.Extension, "."))
		if ext == "" {
			ext = mimeFormats[strings.ToLower(im.MIME)]
		}
	}
	switch ext {
	case "jpeg", "":
		return "jpg"
	case "tiff":
		return "tif"
	}
	return ext
}
