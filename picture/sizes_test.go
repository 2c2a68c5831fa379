package picture

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSizes(t *testing.T) {
	var tests = []struct {
		breakpoints Breakpoints
		custom      []string
		expected    string
	}{
		{
			Breakpoints{"desktop": 1024, "mobile": 480, "tablet": 768},
			nil,
			"(max-width: 480px) 100vw, (min-width: 481px) and (max-width: 768px) 100vw, (min-width: 769px) 1024px",
		},
		{
			Breakpoints{"mobile": 480, "tablet": 768},
			[]string{"(max-width: 600px) 100vw", "50vw"},
			"(max-width: 600px) 100vw, 50vw",
		},
		{
			Breakpoints{"only": 640},
			nil,
			"(max-width: 640px) 100vw",
		},
		{
			Breakpoints{},
			nil,
			"",
		},
	}

	for _, test := range tests {
		got := GenerateSizes(test.breakpoints.Sorted(), test.custom)
		assert.Equal(t, test.expected, got)
	}
}

var (
	minWidth = regexp.MustCompile(`min-width: (\d+)px`)
	maxWidth = regexp.MustCompile(`max-width: (\d+)px`)
)

// matches evaluates a media condition made of min-width and max-width.
func matches(condition string, width int) bool {
	if m := minWidth.FindStringSubmatch(condition); m != nil {
		if v, _ := strconv.Atoi(m[1]); width < v {
			return false
		}
	}
	if m := maxWidth.FindStringSubmatch(condition); m != nil {
		if v, _ := strconv.Atoi(m[1]); width > v {
			return false
		}
	}
	return true
}

func TestGenerateMediaQueryPartition(t *testing.T) {
	tables := []Breakpoints{
		{"mobile": 480, "tablet": 768, "desktop": 1024, "large": 1200},
		{"b": 2, "a": 1, "c": 3},
		{"wide": 1920, "narrow": 320},
		{"solo": 500},
		{"mobile": 480, "copy": 480, "tablet": 768, "broken": -1},
	}

	for _, table := range tables {
		sorted := table.Sorted()
		conditions := make([]string, 0, len(sorted))
		for _, bp := range sorted {
			conditions = append(conditions, GenerateMediaQuery(bp.Name, bp.Width, sorted))
		}

		for width := 1; width <= 2500; width++ {
			count := 0
			for _, condition := range conditions {
				if matches(condition, width) {
					count++
				}
			}
			if count != 1 {
				t.Errorf("width %d is matched by %d conditions in %v", width, count, conditions)
				break
			}
		}
	}
}

func TestGenerateMediaQuery(t *testing.T) {
	sorted := Breakpoints{"mobile": 480, "tablet": 768, "desktop": 1024}.Sorted()

	var tests = []struct {
		name     string
		width    int
		expected string
	}{
		{"mobile", 480, "(max-width: 480px)"},
		{"tablet", 768, "(min-width: 481px) and (max-width: 768px)"},
		{"desktop", 1024, "(min-width: 769px)"},
		{"unnamed", 768, "(min-width: 481px) and (max-width: 768px)"},
		{"unknown", 999, ""},
		{"tablet", 5000, "(min-width: 481px) and (max-width: 768px)"},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, GenerateMediaQuery(test.name, test.width, sorted), test.name)
	}

	assert.Equal(t, "", GenerateMediaQuery("solo", 500, []Breakpoint{{"solo", 500}}))
}

func TestBreakpointsSorted(t *testing.T) {
	sorted := Breakpoints{"large": 1200, "zero": 0, "mobile": 480, "phone": 480, "tablet": 768}.Sorted()
	assert.Equal(t, []Breakpoint{{"mobile", 480}, {"tablet", 768}, {"large", 1200}}, sorted)
}
