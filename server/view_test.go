package server

import (
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	clog "github.com/charmbracelet/log"
	"github.com/mitchellh/mapstructure"

	"github.com/greut/picture/source"
)

const logo = `<?xml version="1.0" encoding="utf-8"?>
<!-- Generator: Adobe Illustrator -->
<svg version="1.1" xmlns="http://www.w3.org/2000/svg" width="120" height="80">
  <g>
    <rect width="120" height="80" fill="#FFFFFF"/>
  </g>
</svg>`

// fixtures holds the images served by every test server. The groupcache
// groups are global, so a single directory is shared by the whole package.
var fixtures string

func TestMain(m *testing.M) {
	root, err := os.MkdirTemp("", "picture-server")
	if err != nil {
		log.Fatal(err)
	}

	f, err := os.Create(filepath.Join(root, "photo.png"))
	if err != nil {
		log.Fatal(err)
	}
	if err := png.Encode(f, image.NewGray(image.Rect(0, 0, 1600, 1000))); err != nil {
		log.Fatal(err)
	}
	f.Close()

	small := image.NewRGBA(image.Rect(0, 0, 64, 64))
	small.Set(1, 1, color.RGBA{0, 0, 255, 255})
	f, err = os.Create(filepath.Join(root, "icon.png"))
	if err != nil {
		log.Fatal(err)
	}
	if err := png.Encode(f, small); err != nil {
		log.Fatal(err)
	}
	f.Close()

	if err := os.WriteFile(filepath.Join(root, "logo.svg"), []byte(logo), 0o644); err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "notes.txt"), []byte("hello"), 0o644); err != nil {
		log.Fatal(err)
	}

	fixtures = root
	code := m.Run()
	os.RemoveAll(root)
	os.Exit(code)
}

func newConfig() *Config {
	config := DefaultConfig()
	config.Images = source.Config{Provider: "decode", Path: fixtures}
	if err := config.computeSizes(); err != nil {
		log.Fatal(err)
	}
	return config
}

func newServer() *httptest.Server {
	config := newConfig()
	provider, err := source.NewProviderFromConfig(config.Images)
	if err != nil {
		log.Fatal(err)
	}
	return httptest.NewServer(NewHandler(config, provider, clog.New(io.Discard), "http://localhost"))
}

// newServerWithoutCache reads from the provider on every request.
func newServerWithoutCache() *httptest.Server {
	config := newConfig()
	provider, err := source.NewProviderFromConfig(config.Images)
	if err != nil {
		log.Fatal(err)
	}

	r := MakeRouter()
	r = WithEngine(r, NewEngine(config, clog.New(io.Discard)))
	r = WithProvider(r, provider)
	r = WithConfig(r, config)
	return httptest.NewServer(r)
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func TestRoutes(t *testing.T) {
	for _, ts := range []*httptest.Server{newServer(), newServerWithoutCache()} {
		defer ts.Close()

		var tests = []struct {
			url         string
			status      int
			contentType string
		}{
			{"/healthz", http.StatusOK, "text/plain"},
			{"/photo.png/picture.json", http.StatusOK, "application/json"},
			{"/photo.png/picture.html", http.StatusOK, "text/html"},
			{"/photo.png/img.html", http.StatusOK, "text/html"},
			{"/photo.png/srcset", http.StatusOK, "text/plain"},
			{"/photo.png/srcset?breakpoint=mobile&format=webp", http.StatusOK, "text/plain"},
			{"/photo.png/srcset?breakpoint=nope", http.StatusNotFound, "text/plain"},
			{"/photo.png/inline.svg", http.StatusNotFound, "text/plain"},
			{"/logo.svg/inline.svg", http.StatusOK, "image/svg+xml"},
			{"/logo.svg/picture.html", http.StatusOK, "text/html"},
			{"/logo.svg/picture.json", http.StatusOK, "application/json"},
			{"/missing.png/picture.json", http.StatusNotFound, "text/plain"},
			{"/notes.txt/picture.html", http.StatusNotImplemented, "text/plain"},
			{"/metrics", http.StatusOK, "text/plain"},
		}

		for _, test := range tests {
			resp, _ := get(t, ts.URL+test.url)

			if status := resp.StatusCode; status != test.status {
				t.Errorf("%s returned wrong status code: got %v want %v", test.url, status, test.status)
			}
			if contentType := resp.Header.Get("Content-Type"); !strings.HasPrefix(contentType, test.contentType) {
				t.Errorf("%s returned wrong content type: got %v want %v", test.url, contentType, test.contentType)
			}
		}
	}
}

func TestResolveAsJson(t *testing.T) {
	ts := newServer()
	defer ts.Close()

	resp, body := get(t, ts.URL+"/photo.png/picture.json?alt=ignored")
	if status := resp.StatusCode; status != http.StatusOK {
		t.Fatalf("handler returned wrong status code: got %v want %v", status, http.StatusOK)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		t.Fatal(err)
	}

	var res struct {
		Image struct {
			ID     string
			Width  int
			Height int
			MIME   string
		}
		Sources []struct {
			Breakpoint string
			Media      string
		}
		Sizes    string
		Fallback string
		Elements []struct {
			Format string
			Type   string
			Media  string
			SrcSet string
		}
	}
	if err := mapstructure.Decode(raw, &res); err != nil {
		t.Fatal(err)
	}

	if res.Image.ID != "photo.png" || res.Image.Width != 1600 || res.Image.Height != 1000 {
		t.Errorf("bad image: got %#v", res.Image)
	}
	if res.Image.MIME != "image/png" {
		t.Errorf("bad mime type: got %v want image/png", res.Image.MIME)
	}

	var names []string
	for _, s := range res.Sources {
		names = append(names, s.Breakpoint)
	}
	if got := strings.Join(names, ","); got != "mobile,tablet,desktop,large" {
		t.Errorf("bad breakpoints: got %v want mobile,tablet,desktop,large", got)
	}
	if res.Sources[0].Media != "(max-width: 480px)" {
		t.Errorf("bad media for mobile: got %#v", res.Sources[0].Media)
	}

	if len(res.Elements) != 2*len(res.Sources) {
		t.Errorf("expected a webp and an original source per breakpoint, got %v", len(res.Elements))
	}
	if res.Elements[0].Format != "webp" || res.Elements[0].Type != "image/webp" {
		t.Errorf("webp should come first: got %#v", res.Elements[0])
	}
	for _, e := range res.Elements {
		if !strings.HasPrefix(e.SrcSet, "http://localhost:8081/photo.png/") {
			t.Errorf("srcset should point to the renderer: got %v", e.SrcSet)
		}
	}

	if res.Sizes == "" {
		t.Errorf("sizes should be set")
	}
	if !strings.HasPrefix(res.Fallback, "http://localhost:8081/photo.png/full/1440,") {
		t.Errorf("bad fallback: got %v", res.Fallback)
	}
}

func TestResolveWithOptions(t *testing.T) {
	ts := newServer()
	defer ts.Close()

	var tests = []struct {
		query    string
		contains string
		missing  string
	}{
		{"?enableWebP=false", `"format": "original"`, `"format": "webp"`},
		{"?enableAvif=true", `"type": "image/avif"`, ""},
		{"?preset=gallery", "/smart/150,150/", ""},
		{"?densities=1", "480w", "720w"},
		{"?quality=not-a-number", `"format": "webp"`, ""},
	}

	for _, test := range tests {
		resp, body := get(t, ts.URL+"/photo.png/picture.json"+test.query)
		if status := resp.StatusCode; status != http.StatusOK {
			t.Errorf("%s returned wrong status code: got %v want %v", test.query, status, http.StatusOK)
			continue
		}
		if !strings.Contains(body, test.contains) {
			t.Errorf("%s should contain %#v", test.query, test.contains)
		}
		if test.missing != "" && strings.Contains(body, test.missing) {
			t.Errorf("%s should not contain %#v", test.query, test.missing)
		}
	}
}

func TestPictureHtml(t *testing.T) {
	ts := newServer()
	defer ts.Close()

	_, body := get(t, ts.URL+"/photo.png/picture.html?alt=Sunset&class=hero")

	var expected = []string{
		`<picture class="hero">`,
		`type="image/webp"`,
		`media="(min-width: 1025px)"`,
		`alt="Sunset"`,
		`loading="lazy"`,
		`</picture>`,
	}
	for _, e := range expected {
		if !strings.Contains(body, e) {
			t.Errorf("picture should contain %#v, got %v", e, body)
		}
	}
}

func TestImgHtml(t *testing.T) {
	ts := newServer()
	defer ts.Close()

	_, body := get(t, ts.URL+"/photo.png/img.html")

	if !strings.HasPrefix(body, "<img") {
		t.Errorf("expected a lone img, got %v", body)
	}
	if strings.Contains(body, "webp") {
		t.Errorf("a lone img only lists the original format, got %v", body)
	}
	if !strings.Contains(body, `alt="Image photo.png"`) {
		t.Errorf("expected the default alternative text, got %v", body)
	}
}

func TestSrcSet(t *testing.T) {
	ts := newServer()
	defer ts.Close()

	_, body := get(t, ts.URL+"/icon.png/srcset")

	// 64px wide sources are not upscaled.
	if !strings.HasSuffix(body, " 64w") {
		t.Errorf("expected the natural width only, got %v", body)
	}
}

func TestInlineSvg(t *testing.T) {
	ts := newServer()
	defer ts.Close()

	var tests = []struct {
		query    string
		expected []string
	}{
		{"", []string{`<img`, `src="/logo.svg/inline.svg"`}},
		{"?inline=true&alt=Logo", []string{`<svg`, `role="img"`, `aria-label="Logo"`, `fill="#fff"`}},
	}

	for _, test := range tests {
		_, body := get(t, ts.URL+"/logo.svg/picture.html"+test.query)
		for _, e := range test.expected {
			if !strings.Contains(body, e) {
				t.Errorf("%#v should contain %#v, got %v", test.query, e, body)
			}
		}
		if strings.Contains(body, "<?xml") || strings.Contains(body, "Illustrator") {
			t.Errorf("%#v should be optimized, got %v", test.query, body)
		}
	}

	_, body := get(t, ts.URL+"/logo.svg/inline.svg")
	if !strings.HasPrefix(body, "<svg") {
		t.Errorf("served markup should be optimized, got %v", body)
	}
}

func TestInlineSvgWithoutCache(t *testing.T) {
	ts := newServerWithoutCache()
	defer ts.Close()

	for _, url := range []string{"/logo.svg/inline.svg", "/logo.svg/picture.html?inline=true"} {
		_, body := get(t, ts.URL+url)
		if !strings.Contains(body, `<svg`) || !strings.Contains(body, `fill="#fff"`) {
			t.Errorf("%#v should contain the vector markup, got %v", url, body)
		}
		if strings.Contains(body, "<?xml") || strings.Contains(body, "Illustrator") {
			t.Errorf("%#v should be optimized, got %v", url, body)
		}
	}
}

func TestGroupCachePeers(t *testing.T) {
	ts := newServer()
	defer ts.Close()

	var tests = []struct {
		url    string
		status int
	}{
		{"/_groupcache/metadata/photo.png", http.StatusOK},
		{"/_groupcache/svg/logo.svg", http.StatusOK},
		{"/_groupcache/metadata/missing.png", http.StatusInternalServerError},
		{"/photo.png/picture.json", http.StatusOK},
	}

	for _, test := range tests {
		resp, body := get(t, ts.URL+test.url)
		if resp.StatusCode != test.status {
			t.Errorf("%v: got %v want %v (%v)", test.url, resp.StatusCode, test.status, body)
		}
	}
}

func TestEtag(t *testing.T) {
	ts := newServer()
	defer ts.Close()

	resp, _ := get(t, ts.URL+"/photo.png/picture.html")

	if etag := resp.Header.Get("ETag"); etag == "" {
		t.Errorf("handle should have a ETag header, got nothing.")
	}
	if cache := resp.Header.Get("Cache-Control"); cache != "max-age=3600, public" {
		t.Errorf("bad Cache-Control: got %v want max-age=3600, public", cache)
	}
	if cors := resp.Header.Get("Access-Control-Allow-Origin"); cors != "*" {
		t.Errorf("bad Access-Control-Allow-Origin: got %v want *", cors)
	}

	req, err := http.NewRequest("GET", ts.URL+"/photo.png/picture.html", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("If-None-Match", resp.Header.Get("ETag"))
	again, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer again.Body.Close()

	if status := again.StatusCode; status != http.StatusNotModified {
		t.Errorf("handler returned wrong status code: got %v want %v", status, http.StatusNotModified)
	}
}

func TestMetrics(t *testing.T) {
	ts := newServer()
	defer ts.Close()

	get(t, ts.URL+"/photo.png/picture.json")
	_, body := get(t, ts.URL+"/metrics")

	var expected = []string{
		`picture_requests_total{method="GET",route="resolve",status="2xx"}`,
		"picture_resolve_duration_seconds_count",
		"picture_resolved_sources_bucket",
	}
	for _, e := range expected {
		if !strings.Contains(body, e) {
			t.Errorf("metrics should contain %#v", e)
		}
	}
}
