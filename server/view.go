package server

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/golang/groupcache"
	"github.com/gorilla/mux"
	"github.com/greut/picture/picture"
	"github.com/greut/picture/source"
	"github.com/greut/picture/svg"
	"google.golang.org/protobuf/types/known/structpb"
)

// error messages
var (
	srcsetError = "no srcset for breakpoint %#v and format %#v"
	renderError = "cannot render %#v: %v"
)

// HealthHandler tells the server is up.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

// ResolveHandler responds with the resolved sources as JSON.
func ResolveHandler(w http.ResponseWriter, r *http.Request) {
	res, _, ok := resolve(w, r)
	if !ok {
		return
	}

	buffer, err := json.MarshalIndent(&Resolution{
		Result:   res,
		Elements: res.Flatten(),
	}, "", "  ")
	if err != nil {
		http.Error(w, "Cannot encode the resolution", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	serve(w, r, "picture.json", buffer)
}

// PictureHandler responds with the <picture> element.
func PictureHandler(w http.ResponseWriter, r *http.Request) {
	res, opts, ok := resolve(w, r)
	if !ok {
		return
	}

	config := r.Context().Value(ContextKey("config")).(*Config)

	var html template.HTML
	var err error
	if res.Image.IsSVG() {
		html, err = renderSVG(r, res.Image, opts, config)
	} else {
		html, err = picture.RenderPicture(res, opts, config.Picture)
	}
	if err != nil {
		e := toHTTPError(err)
		http.Error(w, fmt.Sprintf(renderError, res.Image.ID, e.Message), e.StatusCode)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	serve(w, r, "picture.html", []byte(html))
}

// ImgHandler responds with a lone <img> element.
func ImgHandler(w http.ResponseWriter, r *http.Request) {
	res, opts, ok := resolve(w, r)
	if !ok {
		return
	}

	config := r.Context().Value(ContextKey("config")).(*Config)
	html, err := picture.RenderImg(res, opts, config.Picture)
	if err != nil {
		http.Error(w, fmt.Sprintf(renderError, res.Image.ID, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	serve(w, r, "img.html", []byte(html))
}

// SrcSetHandler responds with the srcset of one breakpoint and format. The
// largest breakpoint and the original format are used by default.
func SrcSetHandler(w http.ResponseWriter, r *http.Request) {
	res, _, ok := resolve(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	breakpoint := query.Get("breakpoint")

	var format picture.Format
	if err := format.UnmarshalText([]byte(query.Get("format"))); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var srcset picture.SrcSet
	for _, rs := range res.Sources {
		if breakpoint == "" || rs.Breakpoint == breakpoint {
			srcset = rs.Candidates[format]
		}
	}
	if len(srcset) == 0 {
		http.Error(w, fmt.Sprintf(srcsetError, breakpoint, format.String()), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	serve(w, r, "srcset.txt", []byte(srcset.String()))
}

// SVGHandler responds with the optimized vector markup.
func SVGHandler(w http.ResponseWriter, r *http.Request) {
	identifier := mux.Vars(r)["identifier"]

	im, err := describe(r, identifier)
	if err != nil {
		e := toHTTPError(err)
		http.Error(w, e.Error(), e.StatusCode)
		return
	}
	if !im.IsSVG() {
		http.Error(w, fmt.Sprintf("%#v is not a vector image", im.ID), http.StatusNotFound)
		return
	}

	content, err := readSVG(r, identifier)
	if err != nil {
		e := toHTTPError(err)
		http.Error(w, e.Error(), e.StatusCode)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	serve(w, r, "inline.svg", content)
}

// resolve describes the image and runs the engine with the options read from
// the query string. It answers with an error when it cannot.
func resolve(w http.ResponseWriter, r *http.Request) (*picture.Result, picture.Options, bool) {
	logger := log.FromContext(r.Context())
	identifier := mux.Vars(r)["identifier"]

	im, err := describe(r, identifier)
	if err != nil {
		e := toHTTPError(err)
		logger.Debug("cannot describe", "id", identifier, "err", err)
		http.Error(w, e.Error(), e.StatusCode)
		return nil, picture.Options{}, false
	}

	opts, err := picture.DecodeOptions(queryOptions(r.URL.Query()))
	if err != nil {
		logger.Warn("invalid options", "id", identifier, "err", err)
	}

	engine := r.Context().Value(ContextKey("engine")).(*picture.Engine)
	res := engine.Resolve(r.Context(), im, opts)
	if res.Image == nil {
		e := toHTTPError(picture.ErrNoIdentifier)
		http.Error(w, e.Error(), e.StatusCode)
		return nil, opts, false
	}
	return res, opts, true
}

// describe reads the image description from the cache, or straight from the
// provider when no cache is set.
func describe(r *http.Request, identifier string) (*picture.Image, error) {
	ctx := r.Context()
	if group, ok := ctx.Value(ContextKey("metadata")).(*groupcache.Group); ok {
		s := new(structpb.Struct)
		if err := group.Get(ctx, identifier, groupcache.ProtoSink(s)); err != nil {
			return nil, err
		}
		return structToImage(s), nil
	}

	provider := ctx.Value(ContextKey("provider")).(source.Provider)
	return provider.Describe(ctx, identifier)
}

func readSVG(r *http.Request, identifier string) ([]byte, error) {
	ctx := r.Context()
	if group, ok := ctx.Value(ContextKey("svg")).(*groupcache.Group); ok {
		var content []byte
		if err := group.Get(ctx, identifier, groupcache.AllocatingByteSliceSink(&content)); err != nil {
			return nil, err
		}
		return content, nil
	}

	provider := ctx.Value(ContextKey("provider")).(source.Provider)
	buffer, err := provider.Read(ctx, identifier)
	if err != nil {
		return nil, err
	}

	config, _ := ctx.Value(ContextKey("config")).(*Config)
	return []byte(optimizeSVG(ctx, config, buffer)), nil
}

// optimizeSVG runs the optimizer unless the configuration disables it.
func optimizeSVG(ctx context.Context, config *Config, buffer []byte) string {
	enabled := config == nil || config.Picture.EnableSVGOptimization
	return svg.NewOptimizer(enabled, log.FromContext(ctx)).Optimize(string(buffer))
}

func renderSVG(r *http.Request, im *picture.Image, opts picture.Options, config *Config) (template.HTML, error) {
	identifier := mux.Vars(r)["identifier"]
	src := "/" + identifier + "/inline.svg"

	var content []byte
	if inline := opts.Inline; (inline != nil && *inline) || (inline == nil && config.Picture.InlineSVG) {
		var err error
		content, err = readSVG(r, identifier)
		if err != nil {
			return "", err
		}
	}

	return picture.RenderSVG(im, content, src, opts, config.Picture)
}

// queryOptions flattens the query values, keeping lists for the repeated keys.
func queryOptions(query url.Values) map[string]interface{} {
	raw := make(map[string]interface{}, len(query))
	for k, v := range query {
		switch len(v) {
		case 0:
		case 1:
			raw[k] = v[0]
		default:
			raw[k] = v
		}
	}
	return raw
}

// serve writes the body with the caching headers.
func serve(w http.ResponseWriter, r *http.Request, name string, body []byte) {
	config, _ := r.Context().Value(ContextKey("config")).(*Config)
	maxAge := int64(0)
	if config != nil {
		maxAge = config.Cache.HTTP
	}

	header := w.Header()
	header.Set("Access-Control-Allow-Origin", "*")
	header.Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
	header.Set("ETag", getETag(r.URL.String()))
	header.Set("Cache-Control", fmt.Sprintf("max-age=%v, public", maxAge))
	http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(body))
}

func getETag(str string) string {
	return fmt.Sprintf("\"%x\"", sha1.Sum([]byte(str)))
}
