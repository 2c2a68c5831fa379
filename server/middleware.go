package server

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/golang/groupcache"
	"github.com/greut/picture/picture"
	"github.com/greut/picture/source"
)

// ContextKey is the cache key to use.
type ContextKey string

// WithGroupCaches sets the various caches.
func WithGroupCaches(h http.Handler, groups map[string]*groupcache.Group) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		for k, v := range groups {
			ctx = context.WithValue(ctx, ContextKey(k), v)
		}
		r = r.WithContext(ctx)
		h.ServeHTTP(w, r)
	})
}

// WithConfig sets the picture server configuration.
func WithConfig(h http.Handler, config *Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = context.WithValue(ctx, ContextKey("config"), config)
		r = r.WithContext(ctx)
		h.ServeHTTP(w, r)
	})
}

// WithProvider sets the image provider.
func WithProvider(h http.Handler, provider source.Provider) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = context.WithValue(ctx, ContextKey("provider"), provider)
		r = r.WithContext(ctx)
		h.ServeHTTP(w, r)
	})
}

// WithEngine sets the resolution engine.
func WithEngine(h http.Handler, engine *picture.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = context.WithValue(ctx, ContextKey("engine"), engine)
		r = r.WithContext(ctx)
		h.ServeHTTP(w, r)
	})
}

// WithLogger attaches the logger to every request.
func WithLogger(h http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := log.WithContext(r.Context(), logger)
		r = r.WithContext(ctx)
		h.ServeHTTP(w, r)
	})
}

// NewEngine builds the engine described by the configuration, rendering
// through the configured IIIF server.
func NewEngine(config *Config, logger *log.Logger) *picture.Engine {
	engine := picture.NewEngine(config.Picture, &picture.IIIFRenderer{
		Base:      config.Renderer.Base,
		MaxWidth:  config.Renderer.MaxWidth,
		MaxHeight: config.Renderer.MaxHeight,
		MaxArea:   config.Renderer.MaxArea,
	})
	engine.Logger = logger
	engine.Hooks = MetricsHooks{}
	return engine
}

// NewHandler wires the router with the provider, engine, logger, caches and
// configuration.
func NewHandler(config *Config, provider source.Provider, logger *log.Logger, peers ...string) http.Handler {
	var h http.Handler = MakeRouter()
	h = SetGroupCache(h, config, provider, peers...)
	h = WithEngine(h, NewEngine(config, logger))
	h = WithProvider(h, provider)
	h = WithLogger(h, logger)
	return WithConfig(h, config)
}
