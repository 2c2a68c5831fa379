package picture

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var discard = log.New(io.Discard)

// Engine resolves images into responsive sources.
//
// An Engine holds no per-call state and may be shared by goroutines.
type Engine struct {
	Settings Settings
	Renderer Renderer
	Logger   *log.Logger
	Hooks    Hooks
}

// NewEngine returns an engine with the given settings and renderer.
func NewEngine(settings Settings, renderer Renderer) *Engine {
	return &Engine{
		Settings: settings,
		Renderer: renderer,
	}
}

func (e *Engine) logger() *log.Logger {
	if e.Logger == nil {
		return discard
	}
	return e.Logger
}

func (e *Engine) hooks() Hooks {
	if e.Hooks == nil {
		return NoopHooks{}
	}
	return e.Hooks
}

// Resolve computes the sources of an image.
//
// Breakpoints are resolved concurrently and reassembled by ascending width.
// A breakpoint without any candidate is left out. The result is empty for a
// nil image or one without an identifier, and has no sources for vector
// images.
func (e *Engine) Resolve(ctx context.Context, im *Image, opts Options) *Result {
	start := time.Now()

	if im == nil || im.ID == "" {
		e.logger().Debug("nothing to resolve", "err", ErrNoIdentifier)
		return &Result{}
	}

	cfg := Resolve(e.Settings, opts)
	result := &Result{Image: im}

	formats := EligibleFormats(im, cfg.Flags())
	if len(formats) == 0 {
		e.logger().Debug("no eligible format", "id", im.ID, "mime", im.MIME)
		e.hooks().OnResolve(ctx, im.ID, 0, time.Since(start))
		return result
	}

	resolved := make([]*ResolvedSource, len(cfg.Breakpoints))
	var wg sync.WaitGroup
	for i, bp := range cfg.Breakpoints {
		wg.Add(1)
		go func(i int, bp Breakpoint) {
			defer wg.Done()
			resolved[i] = e.resolveBreakpoint(ctx, im, cfg, formats, bp)
		}(i, bp)
	}
	wg.Wait()

	for _, rs := range resolved {
		if rs != nil {
			result.Sources = append(result.Sources, *rs)
		}
	}

	if cfg.EnableSizes && len(result.Sources) > 0 {
		result.Sizes = GenerateSizes(cfg.Breakpoints, cfg.Sizes)
	}

	result.Fallback = e.fallback(ctx, im, cfg)

	e.logger().Debug("resolved",
		"id", im.ID,
		"sources", len(result.Sources),
		"formats", len(formats),
	)
	e.hooks().OnResolve(ctx, im.ID, len(result.Sources), time.Since(start))
	return result
}

func (e *Engine) resolveBreakpoint(ctx context.Context, im *Image, cfg Config, formats []Format, bp Breakpoint) *ResolvedSource {
	user, def := cfg.layers(bp.Name)

	rs := &ResolvedSource{
		Breakpoint: bp.Name,
		Width:      bp.Width,
		Media:      GenerateMediaQuery(bp.Name, bp.Width, cfg.Breakpoints),
		Candidates: make(map[Format]SrcSet, len(formats)),
	}

	for _, f := range formats {
		// A format asked by the caller never replaces the negotiated one.
		t := ResolveTransform(bp.Width, user, def, cfg.DefaultsEnabled, im, cfg.QualityFor(f))
		t.Format = f
		if f == FormatOriginal || rs.Transform.IsZero() {
			rs.Transform = t
		}

		ladder := Ladder{
			Densities: cfg.Densities,
			MaxWidth:  cfg.MaxDensityWidth,
			OnDrop: func(width int, err error) {
				e.logger().Debug("candidate dropped",
					"id", im.ID,
					"breakpoint", bp.Name,
					"format", f,
					"width", width,
					"err", err,
				)
				e.hooks().OnCandidateDropped(ctx, im.ID, f, width, err)
			},
		}
		if !cfg.EnableSrcset {
			ladder.Densities = []float64{1}
		}

		srcset := GenerateSrcSet(ctx, e.Renderer, im, t, bp.Width, ladder)
		if len(srcset) == 0 {
			continue
		}
		rs.Formats = append(rs.Formats, f)
		rs.Candidates[f] = srcset
	}

	if len(rs.Formats) == 0 {
		e.logger().Warn("breakpoint left out", "id", im.ID, "breakpoint", bp.Name)
		return nil
	}
	return rs
}

// fallback renders the src of the <img> element: the caller transform when
// given, else the fallback width, never wider than the source.
func (e *Engine) fallback(ctx context.Context, im *Image, cfg Config) string {
	if e.Renderer == nil || im.Width <= 0 {
		return ""
	}

	width := cfg.FallbackWidth
	if width <= 0 || width > im.Width {
		width = im.Width
	}

	user := cfg.Transform
	if user.Width > im.Width {
		user.Width = im.Width
		user.Height = 0
	}

	t := ResolveTransform(width, user, Transform{}, false, im, cfg.Quality)
	t.Format = FormatOriginal
	u, err := urlFor(ctx, e.Renderer, im, t, true)
	if err != nil {
		e.logger().Debug("no fallback", "id", im.ID, "err", err)
		return ""
	}
	return u
}
