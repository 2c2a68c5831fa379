package picture

// Settings are the configured defaults, read-only for the engine.
type Settings struct {
	Breakpoints             Breakpoints          `toml:"breakpoints" yaml:"breakpoints"`
	Transforms              map[string]Transform `toml:"transforms" yaml:"transforms"`
	EnableDefaultTransforms bool                 `toml:"enableDefaultTransforms" yaml:"enableDefaultTransforms"`

	EnableWebP  bool `toml:"enableWebP" yaml:"enableWebP"`
	EnableAvif  bool `toml:"enableAvif" yaml:"enableAvif"`
	Quality     int  `toml:"quality" yaml:"quality"`
	WebPQuality int  `toml:"webpQuality" yaml:"webpQuality"`
	AvifQuality int  `toml:"avifQuality" yaml:"avifQuality"`

	Densities       []float64 `toml:"densities" yaml:"densities"`
	MaxDensityWidth int       `toml:"maxDensityWidth" yaml:"maxDensityWidth"`
	FallbackWidth   int       `toml:"fallbackWidth" yaml:"fallbackWidth"`

	EnableSrcset       bool `toml:"enableSrcset" yaml:"enableSrcset"`
	EnableSizes        bool `toml:"enableSizes" yaml:"enableSizes"`
	EnableArtDirection bool `toml:"enableArtDirection" yaml:"enableArtDirection"`
	EnableLazyLoading  bool `toml:"enableLazyLoading" yaml:"enableLazyLoading"`

	DefaultAltText      string `toml:"defaultAltText" yaml:"defaultAltText"`
	DefaultPictureClass string `toml:"defaultPictureClass" yaml:"defaultPictureClass"`
	DefaultImageClass   string `toml:"defaultImageClass" yaml:"defaultImageClass"`
	LazyPlaceholder     string `toml:"lazyPlaceholder" yaml:"lazyPlaceholder"`

	EnableSVGOptimization bool `toml:"enableSvgOptimization" yaml:"enableSvgOptimization"`
	InlineSVG             bool `toml:"inlineSvg" yaml:"inlineSvg"`
	SVGMaxSize            int  `toml:"svgMaxSize" yaml:"svgMaxSize"`

	Presets     map[string]Preset   `toml:"presets" yaml:"presets"`
	CommonSizes map[string][]string `toml:"sizes" yaml:"sizes"`
}

// Preset is a named set of breakpoints and transforms (hero, gallery, ...).
type Preset struct {
	Breakpoints Breakpoints          `toml:"breakpoints" yaml:"breakpoints"`
	Transforms  map[string]Transform `toml:"transforms" yaml:"transforms"`
}

// DefaultDensities is the pixel density ladder.
var DefaultDensities = []float64{1, 1.5, 2, 3}

// formatPriorities orders the formats, lowest first.
var formatPriorities = map[Format]int{
	FormatAVIF:     1,
	FormatWebP:     2,
	FormatOriginal: 3,
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Breakpoints: Breakpoints{
			"mobile":  480,
			"tablet":  768,
			"desktop": 1024,
			"large":   1200,
		},
		Transforms: map[string]Transform{
			"mobile":  {Width: 480, Height: 320, Quality: 80, Mode: ModeCrop},
			"tablet":  {Width: 768, Height: 512, Quality: 85, Mode: ModeCrop},
			"desktop": {Width: 1024, Height: 683, Quality: 90, Mode: ModeCrop},
			"large":   {Width: 1200, Height: 800, Quality: 95, Mode: ModeCrop},
		},
		EnableDefaultTransforms: false,
		EnableWebP:              true,
		EnableAvif:              false,
		Quality:                 80,
		WebPQuality:             80,
		AvifQuality:             75,
		Densities:               DefaultDensities,
		MaxDensityWidth:         2400,
		FallbackWidth:           1440,
		EnableSrcset:            true,
		EnableSizes:             true,
		EnableArtDirection:      true,
		EnableLazyLoading:       true,
		DefaultAltText:          "Image",
		EnableSVGOptimization:   true,
		SVGMaxSize:              1 << 20,
		Presets: map[string]Preset{
			"hero": {
				Breakpoints: Breakpoints{"mobile": 480, "tablet": 768, "desktop": 1200, "large": 1920},
				Transforms: map[string]Transform{
					"mobile":  {Width: 480, Height: 300, Quality: 85, Mode: ModeCrop},
					"tablet":  {Width: 768, Height: 400, Quality: 90, Mode: ModeCrop},
					"desktop": {Width: 1200, Height: 600, Quality: 95, Mode: ModeCrop},
					"large":   {Width: 1920, Height: 800, Quality: 95, Mode: ModeCrop},
				},
			},
			"gallery": {
				Breakpoints: Breakpoints{"mobile": 150, "tablet": 200, "desktop": 250, "large": 300},
				Transforms: map[string]Transform{
					"mobile":  {Width: 150, Height: 150, Quality: 80, Mode: ModeCrop},
					"tablet":  {Width: 200, Height: 200, Quality: 85, Mode: ModeCrop},
					"desktop": {Width: 250, Height: 250, Quality: 90, Mode: ModeCrop},
					"large":   {Width: 300, Height: 300, Quality: 90, Mode: ModeCrop},
				},
			},
			"product": {
				Breakpoints: Breakpoints{"mobile": 300, "tablet": 400, "desktop": 500, "large": 600},
				Transforms: map[string]Transform{
					"mobile":  {Width: 300, Height: 300, Quality: 85, Mode: ModeCrop},
					"tablet":  {Width: 400, Height: 400, Quality: 90, Mode: ModeCrop},
					"desktop": {Width: 500, Height: 500, Quality: 95, Mode: ModeCrop},
					"large":   {Width: 600, Height: 600, Quality: 95, Mode: ModeCrop},
				},
			},
		},
		CommonSizes: map[string][]string{
			"full-width":    {"(max-width: 768px) 100vw", "100vw"},
			"half-width":    {"(max-width: 768px) 100vw", "50vw"},
			"third-width":   {"(max-width: 768px) 100vw", "(max-width: 1024px) 50vw", "33vw"},
			"quarter-width": {"(max-width: 768px) 50vw", "(max-width: 1024px) 33vw", "25vw"},
			"gallery-grid":  {"(max-width: 480px) 100vw", "(max-width: 768px) 50vw", "(max-width: 1024px) 33vw", "25vw"},
		},
	}
}

// BreakpointForWidth names the smallest breakpoint able to hold the given
// viewport width, or the largest one when none can.
func (s Settings) BreakpointForWidth(width int) string {
	sorted := s.Breakpoints.Sorted()
	if len(sorted) == 0 {
		return ""
	}
	for _, bp := range sorted {
		if width <= bp.Width {
			return bp.Name
		}
	}
	return sorted[len(sorted)-1].Name
}

// TransformFor returns the default transform of a breakpoint. It reports
// false when defaults are disabled or the name is unknown.
func (s Settings) TransformFor(name string) (Transform, bool) {
	if !s.EnableDefaultTransforms {
		return Transform{}, false
	}
	t, ok := s.Transforms[name]
	return t, ok
}
