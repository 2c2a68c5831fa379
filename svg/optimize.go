// Package svg shrinks vector markup before it is embedded in a page.
package svg

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
)

// Step is a single rewrite of the pipeline.
type Step struct {
	Name    string
	Rewrite func(string) string
}

var (
	xmlDeclaration = regexp.MustCompile(`(?i)<\?xml[^>]*\?>`)
	doctype        = regexp.MustCompile(`(?is)<!DOCTYPE[^>\[]*(\[.*?\])?\s*>`)
	comment        = regexp.MustCompile(`(?s)<!--.*?-->`)
	metadata       = regexp.MustCompile(`(?is)<metadata\b[^>]*/>|<metadata\b[^>]*>.*?</metadata>`)
	namedView      = regexp.MustCompile(`(?is)<sodipodi:namedview\b[^>]*/>|<sodipodi:namedview\b[^>]*>.*?</sodipodi:namedview>`)
	idAttribute    = regexp.MustCompile(`\s+id\s*=\s*(?:"([^"]*)"|'([^']*)')`)
	classAttribute = regexp.MustCompile(`\s+class\s*=\s*(?:"[^"]*"|'[^']*')`)
	cruft          = regexp.MustCompile(`\s+(?:version|enable-background)\s*=\s*(?:"[^"]*"|'[^']*')`)
	xlinkNamespace = regexp.MustCompile(`\s+xmlns:xlink\s*=\s*(?:"[^"]*"|'[^']*')`)
	reference      = regexp.MustCompile(`(?:url\(\s*['"]?#|href\s*=\s*['"]#)([^'")\s]+)`)
	betweenTags    = regexp.MustCompile(`>\s+<`)
	spaces         = regexp.MustCompile(`\s+`)
	beforeClose    = regexp.MustCompile(`\s+(/?>)`)
	black          = regexp.MustCompile(`(?i)(\s(?:fill|stroke))\s*=\s*"#000000"`)
	white          = regexp.MustCompile(`(?i)(\s(?:fill|stroke))\s*=\s*"#ffffff"`)
	emptyGroup     = regexp.MustCompile(`<g>\s*</g>|<g\s*/>`)
)

// Steps is the pipeline, in order.
var Steps = []Step{
	{"declarations", stripDeclarations},
	{"comments", stripComments},
	{"metadata", stripMetadata},
	{"attributes", stripAttributes},
	{"whitespace", collapseWhitespace},
	{"colors", shortenColors},
	{"groups", dropEmptyGroups},
	{"trim", strings.TrimSpace},
}

func stripDeclarations(s string) string {
	s = xmlDeclaration.ReplaceAllString(s, "")
	return doctype.ReplaceAllString(s, "")
}

func stripComments(s string) string {
	return comment.ReplaceAllString(s, "")
}

func stripMetadata(s string) string {
	s = metadata.ReplaceAllString(s, "")
	return namedView.ReplaceAllString(s, "")
}

// stripAttributes drops the identifiers nothing refers to, classes unless a
// stylesheet may use them, and the namespace and version leftovers of
// editors.
func stripAttributes(s string) string {
	used := make(map[string]bool)
	for _, m := range reference.FindAllStringSubmatch(s, -1) {
		used[m[1]] = true
	}

	s = idAttribute.ReplaceAllStringFunc(s, func(attr string) string {
		m := idAttribute.FindStringSubmatch(attr)
		if used[m[1]+m[2]] {
			return attr
		}
		return ""
	})

	if !strings.Contains(strings.ToLower(s), "<style") {
		s = classAttribute.ReplaceAllString(s, "")
	}

	s = cruft.ReplaceAllString(s, "")
	if !strings.Contains(s, "xlink:") {
		s = xlinkNamespace.ReplaceAllString(s, "")
	}
	return s
}

// collapseWhitespace drops the blank text between tags and the spaces before
// the end of a tag. Any other run of spaces, in text too, becomes one space.
func collapseWhitespace(s string) string {
	s = betweenTags.ReplaceAllString(s, "><")
	s = spaces.ReplaceAllString(s, " ")
	return beforeClose.ReplaceAllString(s, "$1")
}

func shortenColors(s string) string {
	s = black.ReplaceAllString(s, `$1="#000"`)
	return white.ReplaceAllString(s, `$1="#fff"`)
}

// dropEmptyGroups removes empty groups until none is left, nested ones
// included.
func dropEmptyGroups(s string) string {
	for {
		next := emptyGroup.ReplaceAllString(s, "")
		if next == s {
			return s
		}
		s = next
	}
}

// Optimize runs the steps on the content until it no longer changes, which
// makes it idempotent. It never fails: should a step panic, the content is
// returned unchanged.
func Optimize(content string) (out string) {
	out, _ = run(content)
	return out
}

func run(content string) (out string, err error) {
	step := ""
	defer func() {
		if r := recover(); r != nil {
			out = content
			err = fmt.Errorf("svg step %q failed: %v", step, r)
		}
	}()

	// Every step shortens the content or only normalizes whitespace, so
	// a fixed point is reached well before the bound.
	out = content
	for i := 0; i <= len(content)+1; i++ {
		previous := out
		for _, s := range Steps {
			step = s.Name
			out = s.Rewrite(out)
		}
		if out == previous {
			break
		}
	}
	return out, nil
}

// Optimizer applies Optimize when enabled and passes the content through
// otherwise.
type Optimizer struct {
	Enabled bool
	Logger  *log.Logger
}

// NewOptimizer returns an optimizer logging to the given logger, or nowhere
// when it is nil.
func NewOptimizer(enabled bool, logger *log.Logger) *Optimizer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Optimizer{Enabled: enabled, Logger: logger}
}

// Optimize returns the optimized content.
func (o *Optimizer) Optimize(content string) string {
	if o == nil || !o.Enabled {
		return content
	}

	out, err := run(content)
	if err != nil && o.Logger != nil {
		o.Logger.Warn("svg left as is", "err", err)
	}
	return out
}
