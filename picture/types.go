package picture

import (
	"errors"
	"sort"
	"strings"
)

// ErrNoIdentifier is reported when an image cannot be addressed.
var ErrNoIdentifier = errors.New("image has no usable identifier")

// Image describes a source image. The engine never mutates it.
type Image struct {
	ID        string `json:"id"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	MIME      string `json:"mime"`
	Extension string `json:"extension,omitempty"`
	Title     string `json:"title,omitempty"`
}

// IsSVG tells whether the image is vector markup.
func (im *Image) IsSVG() bool {
	if im == nil {
		return false
	}
	return im.MIME == "image/svg+xml" || strings.EqualFold(im.Extension, "svg")
}

// AspectRatio returns width / height, or 1.5 when the source has no usable
// dimensions.
func (im *Image) AspectRatio() float64 {
	if im == nil || im.Width <= 0 || im.Height <= 0 {
		return 1.5
	}
	return float64(im.Width) / float64(im.Height)
}

// Mode is how a transform fills its box.
type Mode string

// Transform modes.
const (
	ModeCrop    Mode = "crop"
	ModeFit     Mode = "fit"
	ModeStretch Mode = "stretch"
)

// Format is an output format. The empty format keeps the original one.
type Format string

// Formats, most modern first.
const (
	FormatAVIF     Format = "avif"
	FormatWebP     Format = "webp"
	FormatOriginal Format = ""
)

// MIME returns the content type advertised on a <source>; empty for the
// original format.
func (f Format) MIME() string {
	switch f {
	case FormatAVIF:
		return "image/avif"
	case FormatWebP:
		return "image/webp"
	}
	return ""
}

// String names the format, "original" included.
func (f Format) String() string {
	if f == FormatOriginal {
		return "original"
	}
	return string(f)
}

// MarshalText names the original format "original" so map keys stay readable.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText accepts "original" for the original format.
func (f *Format) UnmarshalText(text []byte) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	if s == "original" || s == "default" {
		s = ""
	}
	*f = Format(s)
	return nil
}

// Transform is what gets asked from the renderer. Zero fields are unset.
type Transform struct {
	Width   int    `json:"width,omitempty" toml:"width" yaml:"width" mapstructure:"width"`
	Height  int    `json:"height,omitempty" toml:"height" yaml:"height" mapstructure:"height"`
	Quality int    `json:"quality,omitempty" toml:"quality" yaml:"quality" mapstructure:"quality"`
	Format  Format `json:"format,omitempty" toml:"format" yaml:"format" mapstructure:"format"`
	Mode    Mode   `json:"mode,omitempty" toml:"mode" yaml:"mode" mapstructure:"mode"`
}

// IsZero tells whether nothing was set.
func (t Transform) IsZero() bool {
	return t == Transform{}
}

// Breakpoint is a named viewport width in pixels.
type Breakpoint struct {
	Name  string `json:"name"`
	Width int    `json:"width"`
}

// Breakpoints maps names to widths.
type Breakpoints map[string]int

// Sorted returns the usable breakpoints by ascending width. Widths <= 0 are
// dropped, and so are duplicate widths (the name sorting first is kept).
func (b Breakpoints) Sorted() []Breakpoint {
	list := make([]Breakpoint, 0, len(b))
	for name, width := range b {
		if width <= 0 {
			continue
		}
		list = append(list, Breakpoint{name, width})
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].Width == list[j].Width {
			return list[i].Name < list[j].Name
		}
		return list[i].Width < list[j].Width
	})

	out := list[:0]
	for i, bp := range list {
		if i > 0 && bp.Width == list[i-1].Width {
			continue
		}
		out = append(out, bp)
	}
	return out
}

// ResolvedSource holds everything computed for one breakpoint.
type ResolvedSource struct {
	Breakpoint string            `json:"breakpoint"`
	Width      int               `json:"width"`
	Transform  Transform         `json:"transform"`
	Media      string            `json:"media,omitempty"`
	Formats    []Format          `json:"formats"`
	Candidates map[Format]SrcSet `json:"candidates"`
}

// Source is a single <source> element worth of data.
type Source struct {
	Format Format `json:"format"`
	Type   string `json:"type,omitempty"`
	Media  string `json:"media,omitempty"`
	SrcSet string `json:"srcset"`
}

// Result is the outcome of a resolution.
type Result struct {
	Image    *Image           `json:"image,omitempty"`
	Sources  []ResolvedSource `json:"sources"`
	Sizes    string           `json:"sizes,omitempty"`
	Fallback string           `json:"fallback,omitempty"`
}

// Empty tells whether nothing should be rendered.
func (r *Result) Empty() bool {
	return r == nil || (len(r.Sources) == 0 && r.Fallback == "")
}

// Flatten lists the <source> elements in document order: breakpoints
// ascending, and within a breakpoint the most modern format first.
func (r *Result) Flatten() []Source {
	if r == nil {
		return nil
	}

	var out []Source
	for _, rs := range r.Sources {
		for _, f := range rs.Formats {
			srcset := rs.Candidates[f]
			if len(srcset) == 0 {
				continue
			}
			out = append(out, Source{
				Format: f,
				Type:   f.MIME(),
				Media:  rs.Media,
				SrcSet: srcset.String(),
			})
		}
	}
	return out
}
