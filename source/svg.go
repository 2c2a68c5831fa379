package source

import (
	"bytes"
	"encoding/xml"
	"math"
	"strconv"
	"strings"

	"github.com/greut/picture/picture"
)

// looksLikeSVG sniffs the first bytes for an svg element.
func looksLikeSVG(buf []byte) bool {
	head := buf
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}

// describeSVG reads the intrinsic size of vector markup from the root
// element: width and height when absolute, else the viewBox.
func describeSVG(id string, buf []byte) *picture.Image {
	im := &picture.Image{
		ID:        id,
		MIME:      "image/svg+xml",
		Extension: "svg",
	}

	decoder := xml.NewDecoder(bytes.NewReader(buf))
	decoder.Strict = false
	for {
		token, err := decoder.Token()
		if err != nil {
			return im
		}
		start, ok := token.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "svg" {
			return im
		}

		var viewBox []string
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "width":
				im.Width = length(attr.Value)
			case "height":
				im.Height = length(attr.Value)
			case "viewBox":
				viewBox = strings.Fields(strings.Replace(attr.Value, ",", " ", -1))
			}
		}

		if len(viewBox) == 4 && (im.Width <= 0 || im.Height <= 0) {
			im.Width = length(viewBox[2])
			im.Height = length(viewBox[3])
		}
		return im
	}
}

// length parses "12", "12.5px" into pixels. Relative units give 0.
func length(value string) int {
	value = strings.TrimSpace(value)
	value = strings.TrimSuffix(value, "px")
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		return 0
	}
	return int(math.Round(f))
}
