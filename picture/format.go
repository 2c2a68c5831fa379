package picture

import (
	"sort"
	"strings"
)

// Flags switch the modern formats on.
type Flags struct {
	WebP bool
	Avif bool
}

// convertible lists the sources the modern formats are produced from.
var convertible = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// raster lists the sources served in their own format.
var raster = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/avif": true,
	"image/tiff": true,
	"image/bmp":  true,
}

// EligibleFormats lists the formats to offer for the image, most modern
// first. Vector sources get none: they are inlined or linked as they are.
func EligibleFormats(im *Image, flags Flags) []Format {
	if im == nil || im.IsSVG() {
		return nil
	}

	mime := strings.ToLower(im.MIME)
	if !raster[mime] {
		return nil
	}

	formats := []Format{FormatOriginal}
	if convertible[mime] {
		if flags.WebP {
			formats = append(formats, FormatWebP)
		}
		if flags.Avif {
			formats = append(formats, FormatAVIF)
		}
	}

	sort.SliceStable(formats, func(i, j int) bool {
		return formatPriorities[formats[i]] < formatPriorities[formats[j]]
	})
	return formats
}
