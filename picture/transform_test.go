package picture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveTransform(t *testing.T) {
	landscape := &Image{ID: "a.jpg", Width: 1500, Height: 1000, MIME: "image/jpeg"}
	flat := &Image{ID: "b.jpg", Width: 1500, MIME: "image/jpeg"}
	mobile := Transform{Width: 480, Height: 320, Quality: 80, Mode: ModeCrop}

	var tests = []struct {
		name     string
		bp       int
		user     Transform
		def      Transform
		enabled  bool
		im       *Image
		quality  int
		expected Transform
	}{
		{"derived from breakpoint", 768, Transform{}, Transform{}, false, landscape, 80, Transform{Width: 768, Height: 512, Quality: 80}},
		{"defaults disabled", 768, Transform{}, mobile, false, landscape, 70, Transform{Width: 768, Height: 512, Quality: 70}},
		{"defaults enabled", 768, Transform{}, mobile, true, landscape, 70, mobile},
		{"user width over default", 480, Transform{Width: 320}, mobile, true, landscape, 70, Transform{Width: 320, Height: 320, Quality: 80, Mode: ModeCrop}},
		{"user wins", 480, Transform{Width: 300, Height: 100, Quality: 50, Format: FormatWebP, Mode: ModeFit}, mobile, true, landscape, 70, Transform{Width: 300, Height: 100, Quality: 50, Format: FormatWebP, Mode: ModeFit}},
		{"no source height", 300, Transform{}, Transform{}, false, flat, 80, Transform{Width: 300, Height: 200, Quality: 80}},
		{"user quality out of range", 768, Transform{Quality: 150}, Transform{}, false, landscape, 85, Transform{Width: 768, Height: 512, Quality: 85}},
		{"base quality clamped high", 768, Transform{}, Transform{}, false, landscape, 250, Transform{Width: 768, Height: 512, Quality: 100}},
		{"base quality clamped low", 768, Transform{}, Transform{}, false, landscape, 0, Transform{Width: 768, Height: 512, Quality: 1}},
		{"nil image", 450, Transform{}, Transform{}, false, nil, 80, Transform{Width: 450, Height: 300, Quality: 80}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := ResolveTransform(test.bp, test.user, test.def, test.enabled, test.im, test.quality)
			assert.Equal(t, test.expected, got)
		})
	}
}

func TestTransformScale(t *testing.T) {
	box := Transform{Width: 480, Height: 320, Quality: 80}
	assert.Equal(t, Transform{Width: 960, Height: 640, Quality: 80}, box.scale(960, 2))

	free := Transform{Width: 480}
	assert.Equal(t, Transform{Width: 720}, free.scale(720, 1.5))
}
