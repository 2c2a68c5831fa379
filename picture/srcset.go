package picture

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// fallbackBaseWidth is the base width used when neither the transform nor
// the caller gives one.
const fallbackBaseWidth = 800

// Candidate is one entry of a srcset.
type Candidate struct {
	URL   string `json:"url"`
	Width int    `json:"width"`
}

// SrcSet is a list of candidates by ascending width.
type SrcSet []Candidate

// String renders "url 480w, url 960w".
func (s SrcSet) String() string {
	parts := make([]string, 0, len(s))
	for _, c := range s {
		parts = append(parts, fmt.Sprintf("%s %dw", c.URL, c.Width))
	}
	return strings.Join(parts, ", ")
}

// Ladder configures the density candidates.
type Ladder struct {
	// Densities are the multipliers of the base width, DefaultDensities when
	// empty.
	Densities []float64
	// MaxWidth caps the candidates when not zero.
	MaxWidth int
	// OnDrop, when set, is told about every candidate the renderer refused.
	OnDrop func(width int, err error)
}

func (l Ladder) drop(width int, err error) {
	if l.OnDrop != nil {
		l.OnDrop(width, err)
	}
}

// GenerateSrcSet computes the density candidates of a transform.
//
// The base width is the transform width, else maxWidthHint, else the smaller
// of 800 and the source width. The ladder stops at the first candidate wider
// than the source: no candidate ever exceeds the source resolution. A
// candidate the renderer refuses is dropped and the ladder goes on. When no
// candidate is left, a single one at the base width, capped to the source
// and to the ladder maximum, is attempted. The result is empty when the
// image cannot be rendered.
func GenerateSrcSet(ctx context.Context, r Renderer, im *Image, t Transform, maxWidthHint int, ladder Ladder) SrcSet {
	if r == nil || im == nil || im.ID == "" || im.Width <= 0 {
		return nil
	}

	base := t.Width
	if base <= 0 {
		base = maxWidthHint
	}
	if base <= 0 {
		base = fallbackBaseWidth
		if im.Width < base {
			base = im.Width
		}
	}

	densities := positive(ladder.Densities)
	if len(densities) == 0 {
		densities = DefaultDensities
	}

	var srcset SrcSet
	last := 0
	for _, d := range densities {
		width := int(math.Round(float64(base) * d))
		if width > im.Width || (ladder.MaxWidth > 0 && width > ladder.MaxWidth) {
			break
		}
		if width <= last {
			continue
		}
		last = width

		u, err := urlFor(ctx, r, im, t.scale(width, d), true)
		if err != nil || u == "" {
			if err == nil {
				err = fmt.Errorf("no url for %dw", width)
			}
			ladder.drop(width, err)
			continue
		}
		srcset = append(srcset, Candidate{u, width})
	}

	if len(srcset) > 0 {
		return srcset
	}

	width := base
	if width > im.Width {
		width = im.Width
	}
	if ladder.MaxWidth > 0 && width > ladder.MaxWidth {
		width = ladder.MaxWidth
	}
	single := t
	single.Width = base
	if width < base {
		single = t.scale(width, float64(width)/float64(base))
	}

	u, err := urlFor(ctx, r, im, single, false)
	if err != nil || u == "" {
		if err == nil {
			err = fmt.Errorf("no url for %dw", width)
		}
		ladder.drop(width, err)
		return nil
	}
	return SrcSet{{u, width}}
}
