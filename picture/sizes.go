package picture

import (
	"fmt"
	"strings"
)

// GenerateSizes returns the sizes attribute of the breakpoints.
//
// Custom sizes are used verbatim. Otherwise every breakpoint but the last
// gets a 100vw slot on its own width range, and the last one a fixed slot of
// its width: above the largest breakpoint the image stops growing.
//
//	(max-width: 480px) 100vw,
//	(min-width: 481px) and (max-width: 768px) 100vw,
//	(min-width: 769px) 1024px
func GenerateSizes(breakpoints []Breakpoint, custom []string) string {
	if len(custom) > 0 {
		return strings.Join(custom, ", ")
	}

	sorted := Breakpoints(toMap(breakpoints)).Sorted()
	sizes := make([]string, 0, len(sorted))
	for i, bp := range sorted {
		switch {
		case i == 0:
			sizes = append(sizes, fmt.Sprintf("(max-width: %dpx) 100vw", bp.Width))
		case i == len(sorted)-1:
			sizes = append(sizes, fmt.Sprintf("(min-width: %dpx) %dpx", sorted[i-1].Width+1, bp.Width))
		default:
			sizes = append(sizes, fmt.Sprintf("(min-width: %dpx) and (max-width: %dpx) 100vw", sorted[i-1].Width+1, bp.Width))
		}
	}
	return strings.Join(sizes, ", ")
}

// GenerateMediaQuery returns the media condition of a breakpoint, found by
// name or, failing that, by width.
//
// The smallest breakpoint covers everything up to its width, the largest
// everything above the previous one, the others a closed range. Together
// they cover every width exactly once. A lone breakpoint covers every width
// and gets an empty condition, as does an unknown one.
func GenerateMediaQuery(name string, width int, breakpoints []Breakpoint) string {
	sorted := Breakpoints(toMap(breakpoints)).Sorted()

	index := -1
	for i, bp := range sorted {
		if bp.Name == name {
			index = i
			break
		}
	}
	if index < 0 {
		for i, bp := range sorted {
			if bp.Width == width {
				index = i
				break
			}
		}
	}
	if index < 0 || len(sorted) == 1 {
		return ""
	}

	bp := sorted[index]
	switch index {
	case 0:
		return fmt.Sprintf("(max-width: %dpx)", bp.Width)
	case len(sorted) - 1:
		return fmt.Sprintf("(min-width: %dpx)", sorted[index-1].Width+1)
	}
	return fmt.Sprintf("(min-width: %dpx) and (max-width: %dpx)", sorted[index-1].Width+1, bp.Width)
}

func toMap(breakpoints []Breakpoint) map[string]int {
	m := make(map[string]int, len(breakpoints))
	for _, bp := range breakpoints {
		m[bp.Name] = bp.Width
	}
	return m
}
