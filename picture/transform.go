package picture

import "math"

// ResolveTransform builds the complete transform of a breakpoint.
//
// Each field is taken from the user transform when set, then from the default
// transform when defaults are enabled, and otherwise derived: the width from
// the breakpoint, the height from the source aspect ratio and the quality from
// baseQuality. It never fails.
func ResolveTransform(breakpointWidth int, user, def Transform, defaultsEnabled bool, im *Image, baseQuality int) Transform {
	if !defaultsEnabled {
		def = Transform{}
	}

	t := Transform{
		Format: user.Format,
		Mode:   user.Mode,
	}
	if t.Format == FormatOriginal {
		t.Format = def.Format
	}
	if t.Mode == "" {
		t.Mode = def.Mode
	}

	// Width
	switch {
	case user.Width > 0:
		t.Width = user.Width
	case def.Width > 0:
		t.Width = def.Width
	default:
		t.Width = breakpointWidth
	}

	// Height
	switch {
	case user.Height > 0:
		t.Height = user.Height
	case def.Height > 0:
		t.Height = def.Height
	case t.Width > 0:
		t.Height = int(math.Round(float64(t.Width) / im.AspectRatio()))
	}

	// Quality
	switch {
	case user.Quality >= 1 && user.Quality <= 100:
		t.Quality = user.Quality
	case def.Quality > 0:
		t.Quality = def.Quality
	default:
		t.Quality = baseQuality
	}
	t.Quality = clampQuality(t.Quality)

	return t
}

// scale multiplies the transform box by d, keeping the height unset when it
// was.
func (t Transform) scale(width int, d float64) Transform {
	scaled := t
	scaled.Width = width
	if t.Height > 0 {
		scaled.Height = int(math.Round(float64(t.Height) * d))
	}
	return scaled
}
