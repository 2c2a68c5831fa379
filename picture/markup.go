package picture

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var pictureTemplate = template.Must(template.New("picture").Parse(
	`<picture{{with .Class}} class="{{.}}"{{end}}{{range .Extra}} {{.}}{{end}}>` +
		`{{range .Sources}}<source{{with .Type}} type="{{.}}"{{end}}{{with .Media}} media="{{.}}"{{end}} srcset="{{.SrcSet}}"{{with $.Sizes}} sizes="{{.}}"{{end}}>{{end}}` +
		`{{template "img" .Img}}</picture>`))

var imgTemplate = template.Must(pictureTemplate.New("img").Parse(
	`<img src="{{.Src}}"{{with .SrcSet}} srcset="{{.}}"{{end}}{{with .Sizes}} sizes="{{.}}"{{end}} alt="{{.Alt}}"` +
		`{{with .Loading}} loading="{{.}}"{{end}}{{with .Placeholder}} data-placeholder="{{.}}"{{end}}` +
		`{{with .Class}} class="{{.}}"{{end}}{{with .Width}} width="{{.}}"{{end}}{{with .Height}} height="{{.}}"{{end}}` +
		`{{range .Extra}} {{.}}{{end}}>`))

var (
	attributeName = regexp.MustCompile(`^[a-zA-Z_:][-a-zA-Z0-9_:.]*$`)
	svgOpenTag    = regexp.MustCompile(`(?s)<svg\b([^>]*?)(/?)>`)
)

type imgData struct {
	Src         string
	SrcSet      string
	Sizes       string
	Alt         string
	Loading     string
	Placeholder string
	Class       string
	Width       int
	Height      int
	Extra       []template.HTMLAttr
}

type pictureData struct {
	Class   string
	Extra   []template.HTMLAttr
	Sources []Source
	Sizes   string
	Img     imgData
}

// RenderPicture renders a <picture> element with one <source> per format
// and breakpoint, and a fallback <img>. An empty result renders nothing.
func RenderPicture(res *Result, opts Options, s Settings) (template.HTML, error) {
	if res.Empty() {
		return "", nil
	}

	class, extra := mergeClass(firstNonEmpty(opts.Class, s.DefaultPictureClass), opts.Attributes)
	data := pictureData{
		Class:   class,
		Extra:   extra,
		Sources: res.Flatten(),
		Sizes:   res.Sizes,
		Img:     newImgData(res, opts, s, firstNonEmpty(opts.ImgClass, s.DefaultImageClass), nil),
	}

	var buf bytes.Buffer
	if err := pictureTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("cannot render picture: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// RenderImg renders a single <img>. Its srcset gathers the candidates of the
// original format over all breakpoints: a bare <img> cannot negotiate
// formats.
func RenderImg(res *Result, opts Options, s Settings) (template.HTML, error) {
	if res.Empty() {
		return "", nil
	}

	class := firstNonEmpty(opts.Class, s.DefaultImageClass)
	data := newImgData(res, opts, s, class, opts.Attributes)

	seen := make(map[int]bool)
	var merged SrcSet
	for _, rs := range res.Sources {
		for _, c := range rs.Candidates[FormatOriginal] {
			if seen[c.Width] {
				continue
			}
			seen[c.Width] = true
			merged = append(merged, c)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Width < merged[j].Width })
	data.SrcSet = merged.String()
	if data.SrcSet != "" {
		data.Sizes = res.Sizes
	}
	if data.Src == "" && len(merged) > 0 {
		data.Src = merged[0].URL
	}

	var buf bytes.Buffer
	if err := imgTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("cannot render img: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// RenderSVG embeds vector content inline, or links it with an <img> when
// inlining is off, the content is missing or larger than the limit.
//
// The inline content is trusted as it is: it is not sanitized.
func RenderSVG(im *Image, content []byte, src string, opts Options, s Settings) (template.HTML, error) {
	if im == nil || im.ID == "" || !im.IsSVG() {
		return "", nil
	}

	inline := s.InlineSVG
	if opts.Inline != nil {
		inline = *opts.Inline
	}
	fits := len(content) > 0 && (s.SVGMaxSize <= 0 || len(content) <= s.SVGMaxSize)

	if inline && fits && svgOpenTag.Match(content) {
		return template.HTML(injectSVGAttributes(string(content), svgAttributes(opts))), nil
	}

	if src == "" {
		return "", nil
	}

	res := &Result{Image: im, Fallback: src}
	data := newImgData(res, opts, s, firstNonEmpty(opts.Class, s.DefaultImageClass), opts.Attributes)

	var buf bytes.Buffer
	if err := imgTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("cannot render svg: %w", err)
	}
	return template.HTML(buf.String()), nil
}

func newImgData(res *Result, opts Options, s Settings, class string, attributes map[string]string) imgData {
	data := imgData{
		Src:    res.Fallback,
		Alt:    altText(res.Image, opts, s),
		Width:  opts.Width,
		Height: opts.Height,
	}

	data.Loading = opts.Loading
	if data.Loading == "" {
		data.Loading = "eager"
		if s.EnableLazyLoading {
			data.Loading = "lazy"
		}
	}
	if data.Loading == "lazy" && s.EnableLazyLoading {
		data.Placeholder = s.LazyPlaceholder
	}

	data.Class, data.Extra = mergeClass(class, attributes)
	return data
}

// altText picks the alternative text: the option, the image title, then
// the default text followed by the identifier.
func altText(im *Image, opts Options, s Settings) string {
	if opts.Alt != "" {
		return opts.Alt
	}
	if im == nil {
		return s.DefaultAltText
	}
	if im.Title != "" {
		return im.Title
	}
	return strings.TrimSpace(firstNonEmpty(s.DefaultAltText, "Image") + " " + im.ID)
}

// mergeClass appends the class found in the attributes to class, and
// renders the other attributes by name. Event handlers and invalid names
// are skipped.
func mergeClass(class string, attributes map[string]string) (string, []template.HTMLAttr) {
	class = strings.TrimSpace(class)
	if extra := strings.TrimSpace(attributes["class"]); extra != "" {
		class = strings.TrimSpace(class + " " + extra)
	}

	names := make([]string, 0, len(attributes))
	for name := range attributes {
		if name == "class" || !safeAttribute(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]template.HTMLAttr, 0, len(names))
	for _, name := range names {
		out = append(out, renderAttribute(name, attributes[name]))
	}
	return class, out
}

func safeAttribute(name string) bool {
	lower := strings.ToLower(name)
	return attributeName.MatchString(name) &&
		!strings.HasPrefix(lower, "on") &&
		lower != "style" &&
		lower != "src" &&
		lower != "srcset" &&
		lower != "href"
}

func renderAttribute(name, value string) template.HTMLAttr {
	return template.HTMLAttr(name + `="` + template.HTMLEscapeString(value) + `"`)
}

type svgAttribute struct {
	name  string
	value string
}

// svgAttributes lists the attributes set on the root element: the extra
// ones, then class, size, role and label.
func svgAttributes(opts Options) []svgAttribute {
	var out []svgAttribute

	class, extra := mergeClass(opts.Class, opts.Attributes)
	for _, attr := range extra {
		name, value, _ := strings.Cut(string(attr), "=")
		out = append(out, svgAttribute{name, strings.Trim(value, `"`)})
	}
	if class != "" {
		out = append(out, svgAttribute{"class", template.HTMLEscapeString(class)})
	}
	if opts.Width > 0 {
		out = append(out, svgAttribute{"width", strconv.Itoa(opts.Width)})
	}
	if opts.Height > 0 {
		out = append(out, svgAttribute{"height", strconv.Itoa(opts.Height)})
	}
	out = append(out, svgAttribute{"role", template.HTMLEscapeString(firstNonEmpty(opts.Role, "img"))})
	if opts.Alt != "" {
		out = append(out, svgAttribute{"aria-label", template.HTMLEscapeString(opts.Alt)})
	}
	return out
}

// injectSVGAttributes sets the attributes on the first <svg> element,
// replacing those already present. Values must be escaped.
func injectSVGAttributes(content string, attrs []svgAttribute) string {
	loc := svgOpenTag.FindStringSubmatchIndex(content)
	if loc == nil {
		return content
	}

	existing := content[loc[2]:loc[3]]
	for _, attr := range attrs {
		re := regexp.MustCompile(`\s` + regexp.QuoteMeta(attr.name) + `\s*=\s*("[^"]*"|'[^']*')`)
		existing = re.ReplaceAllString(existing, "")
	}

	var b strings.Builder
	b.WriteString(content[:loc[0]])
	b.WriteString("<svg")
	b.WriteString(existing)
	for _, attr := range attrs {
		fmt.Fprintf(&b, ` %s="%s"`, attr.name, attr.value)
	}
	b.WriteString(content[loc[4]:loc[5]])
	b.WriteString(">")
	b.WriteString(content[loc[1]:])
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
