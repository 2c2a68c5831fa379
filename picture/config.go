package picture

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// defaultQuality is used when nothing else sets a quality.
const defaultQuality = 80

// Options are the call-site overrides. Nil pointers and empty values mean
// "use the configured default".
type Options struct {
	Breakpoints  Breakpoints          `mapstructure:"breakpoints"`
	Transforms   map[string]Transform `mapstructure:"transforms"`
	ArtDirection map[string]Transform `mapstructure:"artDirection"`
	Transform    Transform            `mapstructure:"transform"`
	Preset       string               `mapstructure:"preset"`

	EnableWebP *bool     `mapstructure:"enableWebP"`
	EnableAvif *bool     `mapstructure:"enableAvif"`
	Quality    *int      `mapstructure:"quality"`
	Densities  []float64 `mapstructure:"densities"`

	Sizes       []string `mapstructure:"sizes"`
	SizesPreset string   `mapstructure:"sizesPreset"`

	Alt        string            `mapstructure:"alt"`
	Class      string            `mapstructure:"class"`
	ImgClass   string            `mapstructure:"imgClass"`
	Loading    string            `mapstructure:"loading"`
	Inline     *bool             `mapstructure:"inline"`
	Width      int               `mapstructure:"width"`
	Height     int               `mapstructure:"height"`
	Role       string            `mapstructure:"role"`
	Attributes map[string]string `mapstructure:"attributes"`
}

// Config is the effective configuration of a single resolution.
type Config struct {
	Breakpoints     []Breakpoint
	Defaults        map[string]Transform
	DefaultsEnabled bool
	User            map[string]Transform
	ArtDirection    map[string]Transform
	Transform       Transform

	EnableWebP  bool
	EnableAvif  bool
	Quality     int
	WebPQuality int
	AvifQuality int

	Densities       []float64
	MaxDensityWidth int
	FallbackWidth   int
	Sizes           []string

	EnableSrcset bool
	EnableSizes  bool
}

// Resolve merges the options over the settings.
//
// Breakpoints merge name by name. Transforms given by the caller form a layer
// above the defaults for the names they carry. Custom sizes and densities
// replace the defaults when not empty. A named preset replaces the default
// breakpoints and transforms before the options are applied.
func Resolve(defaults Settings, opts Options) Config {
	breakpoints := defaults.Breakpoints
	transforms := defaults.Transforms
	enabled := defaults.EnableDefaultTransforms

	if preset, ok := defaults.Presets[opts.Preset]; ok && opts.Preset != "" {
		breakpoints = preset.Breakpoints
		transforms = preset.Transforms
		enabled = true
	}

	merged := make(Breakpoints, len(breakpoints)+len(opts.Breakpoints))
	for name, width := range breakpoints {
		merged[name] = width
	}
	for name, width := range opts.Breakpoints {
		if width > 0 {
			merged[name] = width
		}
	}

	c := Config{
		Breakpoints:     merged.Sorted(),
		DefaultsEnabled: enabled,
		User:            copyTransforms(opts.Transforms),
		Transform:       opts.Transform,
		EnableWebP:      defaults.EnableWebP,
		EnableAvif:      defaults.EnableAvif,
		Quality:         clampQuality(defaults.Quality),
		WebPQuality:     defaults.WebPQuality,
		AvifQuality:     defaults.AvifQuality,
		MaxDensityWidth: defaults.MaxDensityWidth,
		FallbackWidth:   defaults.FallbackWidth,
		EnableSrcset:    defaults.EnableSrcset,
		EnableSizes:     defaults.EnableSizes,
	}

	if enabled {
		c.Defaults = copyTransforms(transforms)
	}

	if defaults.EnableArtDirection {
		c.ArtDirection = copyTransforms(opts.ArtDirection)
	}

	if defaults.Quality <= 0 {
		c.Quality = defaultQuality
	}

	if opts.EnableWebP != nil {
		c.EnableWebP = *opts.EnableWebP
	}
	if opts.EnableAvif != nil {
		c.EnableAvif = *opts.EnableAvif
	}

	// An explicit quality wins for every format.
	if opts.Quality != nil && *opts.Quality > 0 {
		c.Quality = clampQuality(*opts.Quality)
		c.WebPQuality = c.Quality
		c.AvifQuality = c.Quality
	}

	c.Densities = positive(opts.Densities)
	if len(c.Densities) == 0 {
		c.Densities = positive(defaults.Densities)
	}
	if len(c.Densities) == 0 {
		c.Densities = DefaultDensities
	}

	if len(opts.Sizes) > 0 {
		c.Sizes = append([]string(nil), opts.Sizes...)
	} else if preset, ok := defaults.CommonSizes[opts.SizesPreset]; ok {
		c.Sizes = append([]string(nil), preset...)
	}

	return c
}

// QualityFor returns the base quality used for a format.
func (c Config) QualityFor(f Format) int {
	switch {
	case f == FormatWebP && c.WebPQuality > 0:
		return clampQuality(c.WebPQuality)
	case f == FormatAVIF && c.AvifQuality > 0:
		return clampQuality(c.AvifQuality)
	}
	return c.Quality
}

// Flags returns the format switches.
func (c Config) Flags() Flags {
	return Flags{WebP: c.EnableWebP, Avif: c.EnableAvif}
}

// layers returns the user and default transforms of a breakpoint, the
// art-direction override folded into the user one.
func (c Config) layers(name string) (Transform, Transform) {
	user := overlay(c.User[name], c.ArtDirection[name])
	return user, c.Defaults[name]
}

// DecodeOptions reads loosely typed options, such as decoded JSON or query
// values. Keys are decoded one by one: a malformed key is skipped and
// reported in the returned error, while the returned Options stay usable.
func DecodeOptions(raw map[string]interface{}) (Options, error) {
	var opts Options
	var errs []error

	for key, value := range raw {
		single := map[string]interface{}{key: value}

		var trial Options
		if err := decodeInto(single, &trial); err != nil {
			errs = append(errs, fmt.Errorf("option %q ignored: %w", key, err))
			continue
		}
		// Decoding again only touches this key.
		_ = decodeInto(single, &opts)
	}

	return opts, errors.Join(errs...)
}

func decodeInto(input map[string]interface{}, out *Options) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       jsonStringHook,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// jsonStringHook accepts JSON encoded strings for map, struct and slice
// options, e.g. transforms={"mobile":{"width":320}} in a query string.
func jsonStringHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}

	s := strings.TrimSpace(data.(string))
	if to == reflect.TypeOf(FormatOriginal) {
		var f Format
		err := f.UnmarshalText([]byte(s))
		return f, err
	}

	switch to.Kind() {
	case reflect.Map, reflect.Struct:
		if !strings.HasPrefix(s, "{") {
			return data, nil
		}
		var v map[string]interface{}
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, err
		}
		return v, nil
	case reflect.Slice:
		if !strings.HasPrefix(s, "[") {
			return data, nil
		}
		var v []interface{}
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	return data, nil
}

func copyTransforms(in map[string]Transform) map[string]Transform {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]Transform, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// overlay sets on base every field set in top.
func overlay(base, top Transform) Transform {
	if top.Width > 0 {
		base.Width = top.Width
	}
	if top.Height > 0 {
		base.Height = top.Height
	}
	if top.Quality > 0 {
		base.Quality = top.Quality
	}
	if top.Format != FormatOriginal {
		base.Format = top.Format
	}
	if top.Mode != "" {
		base.Mode = top.Mode
	}
	return base
}

// positive sorts the densities ascending, without duplicates or values <= 0.
func positive(values []float64) []float64 {
	var out []float64
	for _, v := range values {
		if v > 0 {
			out = append(out, v)
		}
	}
	sort.Float64s(out)

	uniq := out[:0]
	for i, v := range out {
		if i > 0 && v == out[i-1] {
			continue
		}
		uniq = append(uniq, v)
	}
	return uniq
}

func clampQuality(q int) int {
	if q < 1 {
		return 1
	}
	if q > 100 {
		return 100
	}
	return q
}
