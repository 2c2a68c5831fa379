package picture

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEligibleFormats(t *testing.T) {
	both := Flags{WebP: true, Avif: true}

	var tests = []struct {
		mime     string
		flags    Flags
		expected []Format
	}{
		{"image/jpeg", both, []Format{FormatAVIF, FormatWebP, FormatOriginal}},
		{"image/png", Flags{WebP: true}, []Format{FormatWebP, FormatOriginal}},
		{"image/png", Flags{Avif: true}, []Format{FormatAVIF, FormatOriginal}},
		{"IMAGE/JPEG", Flags{}, []Format{FormatOriginal}},
		{"image/gif", both, []Format{FormatOriginal}},
		{"image/webp", both, []Format{FormatOriginal}},
		{"image/svg+xml", both, nil},
		{"application/pdf", both, nil},
		{"", both, nil},
	}

	for _, test := range tests {
		im := &Image{ID: "x", Width: 10, Height: 10, MIME: test.mime}
		assert.Equal(t, test.expected, EligibleFormats(im, test.flags), test.mime)
	}

	assert.Nil(t, EligibleFormats(nil, both))
	assert.Nil(t, EligibleFormats(&Image{ID: "logo.svg", Extension: "SVG", MIME: "image/png"}, both))
}

func TestFormatText(t *testing.T) {
	var f Format
	assert.NoError(t, f.UnmarshalText([]byte(" WebP ")))
	assert.Equal(t, FormatWebP, f)

	assert.NoError(t, f.UnmarshalText([]byte("original")))
	assert.Equal(t, FormatOriginal, f)

	text, err := FormatOriginal.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "original", string(text))

	assert.Equal(t, "image/avif", FormatAVIF.MIME())
	assert.Equal(t, "", FormatOriginal.MIME())
}
