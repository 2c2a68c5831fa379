package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/golang/groupcache"
	"github.com/golang/protobuf/proto"
	"github.com/gorilla/mux"
	"github.com/greut/picture/picture"
	"github.com/greut/picture/source"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/protobuf/types/known/structpb"
)

// MakeRouter construct the basic router (no middlewares)
func MakeRouter() http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", HealthHandler)
	router.Handle("/metrics", promhttp.Handler())
	router.Handle("/{identifier:.*}/picture.json", MetricsMiddleware("resolve", http.HandlerFunc(ResolveHandler)))
	router.Handle("/{identifier:.*}/picture.html", MetricsMiddleware("picture", http.HandlerFunc(PictureHandler)))
	router.Handle("/{identifier:.*}/img.html", MetricsMiddleware("img", http.HandlerFunc(ImgHandler)))
	router.Handle("/{identifier:.*}/srcset", MetricsMiddleware("srcset", http.HandlerFunc(SrcSetHandler)))
	router.Handle("/{identifier:.*}/inline.svg", MetricsMiddleware("svg", http.HandlerFunc(SVGHandler)))

	return router
}

var (
	poolOnce sync.Once
	pool     *groupcache.HTTPPool
)

// SetGroupCache sets the caches of the image descriptions and of the
// optimized vector markup. The first peer is this server, the other peers
// reach its caches under /_groupcache/.
func SetGroupCache(router http.Handler, config *Config, provider source.Provider, peers ...string) http.Handler {
	if len(peers) > 0 {
		poolOnce.Do(func() {
			pool = groupcache.NewHTTPPool(peers[0])
			pool.Context = func(r *http.Request) groupcache.Context {
				return r.Context()
			}
			pool.Set(peers...)
		})
	}

	metadata := newGroup("metadata", config.Cache.MetadataSize, groupcache.GetterFunc(
		func(ctx groupcache.Context, key string, dest groupcache.Sink) error {
			c := requestContext(ctx)
			im, err := provider.Describe(c, key)
			if err != nil {
				return err
			}

			s, err := imageToStruct(im)
			if err != nil {
				return err
			}
			log.FromContext(c).Debug("caching metadata", "id", key, "bytes", proto.Size(s))
			return dest.SetProto(s)
		},
	))

	vectors := newGroup("svg", config.Cache.SVGSize, groupcache.GetterFunc(
		func(ctx groupcache.Context, key string, dest groupcache.Sink) error {
			c := requestContext(ctx)
			buffer, err := provider.Read(c, key)
			if err != nil {
				return err
			}

			content := optimizeSVG(c, config, buffer)
			log.FromContext(c).Debug("caching svg", "id", key, "before", len(buffer), "after", len(content))
			return dest.SetString(content)
		},
	))

	handler := WithGroupCaches(router, map[string]*groupcache.Group{
		"metadata": metadata,
		"svg":      vectors,
	})
	if pool == nil {
		return handler
	}

	r := mux.NewRouter()
	r.PathPrefix("/_groupcache/").Handler(pool)
	r.PathPrefix("/").Handler(handler)
	return r
}

// newGroup returns the group of that name, creating it when needed.
func newGroup(name string, size int64, getter groupcache.Getter) *groupcache.Group {
	if g := groupcache.GetGroup(name); g != nil {
		return g
	}
	return groupcache.NewGroup(name, size, getter)
}

// requestContext recovers the request context given to Group.Get.
func requestContext(ctx groupcache.Context) context.Context {
	if c, ok := ctx.(context.Context); ok && c != nil {
		return c
	}
	return context.Background()
}

func imageToStruct(im *picture.Image) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"id":        im.ID,
		"width":     im.Width,
		"height":    im.Height,
		"mime":      im.MIME,
		"extension": im.Extension,
		"title":     im.Title,
	})
}

func structToImage(s *structpb.Struct) *picture.Image {
	fields := s.GetFields()
	return &picture.Image{
		ID:        fields["id"].GetStringValue(),
		Width:     int(fields["width"].GetNumberValue()),
		Height:    int(fields["height"].GetNumberValue()),
		MIME:      fields["mime"].GetStringValue(),
		Extension: fields["extension"].GetStringValue(),
		Title:     fields["title"].GetStringValue(),
	}
}
