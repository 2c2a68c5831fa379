package picture

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// stubRenderer renders /{id}/{w}x{h}/q{quality}.{format}.
func stubRenderer() Renderer {
	return RendererFunc(func(ctx context.Context, id string, t Transform, immediate bool) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return fmt.Sprintf("/%s/%dx%d/q%d.%s", id, t.Width, t.Height, t.Quality, t.Format), nil
	})
}

// refusingRenderer fails every transform wider than max.
func refusingRenderer(max int) Renderer {
	next := stubRenderer()
	return RendererFunc(func(ctx context.Context, id string, t Transform, immediate bool) (string, error) {
		if t.Width > max {
			return "", ErrOutOfLimits
		}
		return next.URLFor(ctx, id, t, immediate)
	})
}

func photo() *Image {
	return &Image{
		ID:        "photo.jpg",
		Width:     2400,
		Height:    1600,
		MIME:      "image/jpeg",
		Extension: "jpg",
	}
}

type recordingHooks struct {
	mu       sync.Mutex
	resolved int
	sources  int
	dropped  []int
}

func (h *recordingHooks) OnResolve(_ context.Context, _ string, sources int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.resolved++
	h.sources = sources
}

func (h *recordingHooks) OnCandidateDropped(_ context.Context, _ string, _ Format, width int, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropped = append(h.dropped, width)
}

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }
